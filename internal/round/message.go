package round

import (
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// Content represents the message, either broadcast or P2P, emitted by a state machine.
type Content interface {
	// Tag returns the position in the execution this content was generated for.
	Tag() Tag
}

// Message is a Content together with its routing information.
type Message struct {
	From, To  party.ID
	Broadcast bool
	Content   Content
}

// Participants is delivered locally to every state machine at the start of the execution,
// and again to the modulus generation every time a candidate is rejected.
type Participants struct {
	Registry *party.Registry
}

// Emissions is what a transition produces besides the new state.
type Emissions struct {
	// Messages must be sent to the other parties, in order.
	Messages []*Message
	// Output is the value handed to the caller of the machine, if any.
	Output interface{}
}

// Append adds the messages of other to e, and replaces e's output if other has one.
func (e Emissions) Append(other Emissions) Emissions {
	out := Emissions{
		Messages: make([]*Message, 0, len(e.Messages)+len(other.Messages)),
		Output:   e.Output,
	}
	out.Messages = append(out.Messages, e.Messages...)
	out.Messages = append(out.Messages, other.Messages...)
	if other.Output != nil {
		out.Output = other.Output
	}
	return out
}
