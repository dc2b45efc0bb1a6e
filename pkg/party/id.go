package party

import (
	"io"
)

// ID represents a unique identifier for a participant in our scheme.
//
// It plays the role of a channel endpoint: the transport knows how to reach the
// party, and the protocol only ever refers to it by this value or by the integer
// index assigned to it in a Registry.
type ID string

// WriteTo makes ID implement the io.WriterTo interface.
//
// This writes out the content of this ID, in a domain separated way.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	if id == "" {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write([]byte(id))
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (ID) Domain() string {
	return "ID"
}
