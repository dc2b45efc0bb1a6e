package party

import (
	"errors"
	"fmt"
)

// Registry is the bidirectional mapping between participants and their integer
// index in [1, n].
//
// Indices are assigned in the order of the sorted IDs, so that every party
// derives the same mapping from the same set of participants.
// A Registry is never modified after creation and may be shared freely.
type Registry struct {
	ids     IDSlice
	indices map[ID]int
}

// NewRegistry creates the Registry for the given participants.
func NewRegistry(participants []ID) (*Registry, error) {
	ids := NewIDSlice(participants)
	if !ids.Valid() {
		return nil, errors.New("party.NewRegistry: participant IDs are empty or contain duplicates")
	}
	indices := make(map[ID]int, len(ids))
	for i, id := range ids {
		indices[id] = i + 1
	}
	return &Registry{
		ids:     ids,
		indices: indices,
	}, nil
}

// N returns the number of participants.
func (r *Registry) N() int { return len(r.ids) }

// IDs returns the sorted slice of participants.
func (r *Registry) IDs() IDSlice { return r.ids.Copy() }

// Index returns the index in [1, n] assigned to id.
func (r *Registry) Index(id ID) (int, bool) {
	idx, ok := r.indices[id]
	return idx, ok
}

// MustIndex is like Index but panics if id is not a participant.
// It should only be used with IDs that were already checked.
func (r *Registry) MustIndex(id ID) int {
	idx, ok := r.indices[id]
	if !ok {
		panic(fmt.Sprintf("party.Registry: unknown participant %q", id))
	}
	return idx
}

// ID returns the participant with the given index.
func (r *Registry) ID(index int) (ID, bool) {
	if index < 1 || index > len(r.ids) {
		return "", false
	}
	return r.ids[index-1], true
}

// Indices returns [1, …, n].
func (r *Registry) Indices() []int {
	indices := make([]int, len(r.ids))
	for i := range indices {
		indices[i] = i + 1
	}
	return indices
}

// Contains returns true if id is a participant.
func (r *Registry) Contains(id ID) bool {
	_, ok := r.indices[id]
	return ok
}
