package round

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Phase identifies the sub-protocol a message belongs to.
type Phase uint8

const (
	// PhaseBGW is the distributed generation of a candidate modulus.
	PhaseBGW Phase = iota + 1
	// PhaseBiprimality is the distributed test of a candidate modulus.
	PhaseBiprimality
	// PhaseKeyDerivation is the derivation of the threshold key shares.
	PhaseKeyDerivation
	// PhaseComplaint tags complaints, which are accepted at any point of the execution.
	PhaseComplaint
)

func (p Phase) String() string {
	switch p {
	case PhaseBGW:
		return "bgw"
	case PhaseBiprimality:
		return "biprimality"
	case PhaseKeyDerivation:
		return "key-derivation"
	case PhaseComplaint:
		return "complaint"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Valid returns true if p is a known phase.
func (p Phase) Valid() bool {
	return p >= PhaseBGW && p <= PhaseComplaint
}

// Tag locates a message in the execution.
//
// Attempt is the BGW attempt the message was generated for, starting at 1.
// Number is the step inside the phase: the round of the biprimality test,
// or the collection step for BGW and key derivation.
// Number 0 is never used by messages.
type Tag struct {
	Phase   Phase
	Attempt uint32
	Number  Number
}

// Compare orders two tags of the same phase, first by attempt then by number.
// It returns -1, 0 or 1.
func (t Tag) Compare(other Tag) int {
	switch {
	case t.Attempt < other.Attempt:
		return -1
	case t.Attempt > other.Attempt:
		return 1
	case t.Number < other.Number:
		return -1
	case t.Number > other.Number:
		return 1
	default:
		return 0
	}
}

func (t Tag) String() string {
	return fmt.Sprintf("%s/%d/%d", t.Phase, t.Attempt, t.Number)
}

// WriteTo implements io.WriterTo interface.
func (t Tag) WriteTo(w io.Writer) (int64, error) {
	var buf [7]byte
	buf[0] = byte(t.Phase)
	binary.BigEndian.PutUint32(buf[1:5], t.Attempt)
	binary.BigEndian.PutUint16(buf[5:], uint16(t.Number))
	n, err := w.Write(buf[:])
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Tag) Domain() string {
	return "Round Tag"
}

// Verdict is the classification of a message relative to the position of a state machine.
type Verdict int

const (
	// Current messages are processed right away.
	Current Verdict = iota
	// Future messages are deferred until the machine reaches their tag.
	Future
	// Stale messages belong to a step that was already completed, and are dropped.
	Stale
)

func (v Verdict) String() string {
	switch v {
	case Current:
		return "current"
	case Future:
		return "future"
	default:
		return "stale"
	}
}

// Classify compares a message's tag to the position of the state machine of the same phase.
//
// A machine which is not collecting anything reports a position with Number 0,
// which no message ever matches: everything at or after that position is deferred.
func Classify(position, tag Tag) Verdict {
	switch c := tag.Compare(position); {
	case c < 0:
		return Stale
	case c == 0 && position.Number != 0:
		return Current
	default:
		return Future
	}
}
