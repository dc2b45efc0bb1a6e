package party

import (
	"encoding/binary"
	"io"
	"math/rand"
	"sort"
)

// IDSlice represents a sorted list of ID.
type IDSlice []ID

// NewIDSlice returns a sorted slice from partyIDs.
func NewIDSlice(partyIDs []ID) IDSlice {
	ids := IDSlice(partyIDs).Copy()
	ids.sort()
	return ids
}

// Contains returns true if partyIDs contains id.
// Assumes that partyIDs is sorted.
func (partyIDs IDSlice) Contains(ids ...ID) bool {
	for _, id := range ids {
		if _, ok := partyIDs.search(id); !ok {
			return false
		}
	}
	return true
}

// Valid returns true if the IDSlice is sorted, non-empty and does not contain
// duplicates or empty IDs.
func (partyIDs IDSlice) Valid() bool {
	if len(partyIDs) == 0 {
		return false
	}
	for i, id := range partyIDs {
		if id == "" {
			return false
		}
		if i > 0 && partyIDs[i-1] >= id {
			return false
		}
	}
	return true
}

// GetIndex returns the index of id in partyIDs.
// If no index was found, return -1.
// Assumes that partyIDs is sorted.
func (partyIDs IDSlice) GetIndex(id ID) int {
	if idx, ok := partyIDs.search(id); ok {
		return idx
	}
	return -1
}

// Copy returns an identical copy of the received.
func (partyIDs IDSlice) Copy() IDSlice {
	a := make(IDSlice, len(partyIDs))
	copy(a, partyIDs)
	return a
}

// Remove finds id in partyIDs and returns a copy of the slice if it was found.
func (partyIDs IDSlice) Remove(id ID) IDSlice {
	newPartyIDs := make(IDSlice, 0, len(partyIDs))
	for _, partyID := range partyIDs {
		if partyID != id {
			newPartyIDs = append(newPartyIDs, partyID)
		}
	}
	return newPartyIDs
}

// search returns the result of applying sort.Search to the receiver and x.
func (partyIDs IDSlice) search(x ID) (int, bool) {
	index := sort.Search(len(partyIDs), func(i int) bool { return partyIDs[i] >= x })
	if index >= 0 && index < len(partyIDs) && partyIDs[index] == x {
		return index, true
	}
	return 0, false
}

func (partyIDs IDSlice) sort() {
	sort.Slice(partyIDs, func(i, j int) bool { return partyIDs[i] < partyIDs[j] })
}

// RandomIDs returns a sorted slice of random IDs with 20 alphanumeric characters.
func RandomIDs(n int) IDSlice {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	partyIDs := make(IDSlice, n)
	for i := range partyIDs {
		b := make([]byte, 20)
		for j := range b {
			b[j] = letters[rand.Intn(len(letters))]
		}
		partyIDs[i] = ID(b)
	}
	partyIDs.sort()
	return partyIDs
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (partyIDs IDSlice) WriteTo(w io.Writer) (int64, error) {
	if partyIDs == nil {
		return 0, io.ErrUnexpectedEOF
	}
	err := binary.Write(w, binary.BigEndian, uint32(len(partyIDs)))
	if err != nil {
		return 0, err
	}
	nAll := int64(4)
	for _, id := range partyIDs {
		n, err := id.WriteTo(w)
		nAll += n
		if err != nil {
			return nAll, err
		}
	}
	return nAll, nil
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (IDSlice) Domain() string {
	return "IDSlice"
}
