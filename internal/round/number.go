package round

import (
	"encoding/binary"
	"io"
)

// Number is the index of a step inside a phase.
// 0 indicates that the machine is not collecting messages, 1 is the first step.
type Number uint16

// WriteTo implements io.WriterTo interface.
func (i Number) WriteTo(w io.Writer) (int64, error) {
	err := binary.Write(w, binary.BigEndian, uint16(i))
	return 2, err
}

// Domain implements hash.WriterToWithDomain.
func (Number) Domain() string {
	return "Round Number"
}
