// Package bgw implements the distributed generation of a candidate RSA modulus N = p⋅q,
// where p = ∑ᵢ pᵢ and q = ∑ᵢ qᵢ, following Ben-Or, Goldwasser and Wigderson.
//
// Each party shares pᵢ and qᵢ with degree t polynomials in ℤₚ together with a degree 2t
// sharing of 0. The product of the sums of shares is then a degree 2t sharing of N, which
// all parties reconstruct without learning anything else about p and q.
package bgw

import (
	"fmt"
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// State of the modulus generation.
type State int

const (
	// AwaitingParticipants waits for the registry to start the next attempt.
	AwaitingParticipants State = iota
	// CollectingCommitments waits for the broadcast commitments of every dealer.
	CollectingCommitments
	// CollectingShares waits for the share tuple of every dealer.
	CollectingShares
	// CollectingPoints waits for every party's point of N.
	CollectingPoints
)

func (s State) String() string {
	switch s {
	case AwaitingParticipants:
		return "awaiting-participants"
	case CollectingCommitments:
		return "collecting-commitments"
	case CollectingShares:
		return "collecting-shares"
	case CollectingPoints:
		return "collecting-points"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Private contains the secrets pᵢ, qᵢ a party used for one candidate.
// It is never sent to other parties.
type Private struct {
	P, Q *big.Int
}

// CandidateN is the output of one attempt.
type CandidateN struct {
	Attempt uint32
	N       *big.Int
	Private *Private
}

// data is an immutable snapshot: transitions copy it and replace whole fields.
type data struct {
	registry *party.Registry
	// attempt is the current attempt, or the last finished one when awaiting participants.
	attempt uint32
	private     *private
	commitments round.Collection[*Commitments]
	shares      round.Collection[*Shares]
	points      round.Collection[*big.Int]
}

// Machine is the modulus generation state machine of a single party.
// It is a value: Step never modifies the receiver.
type Machine struct {
	helper *round.Helper
	state  State
	data   data
}

// New returns a machine awaiting participants.
func New(helper *round.Helper) Machine {
	return Machine{helper: helper}
}

// State returns the current state.
func (m Machine) State() State { return m.state }

// Attempt returns the current attempt, or the last finished one.
func (m Machine) Attempt() uint32 { return m.data.attempt }

// Position returns the tag of the messages the machine is collecting.
func (m Machine) Position() round.Tag {
	switch m.state {
	case CollectingCommitments:
		return round.Tag{Phase: round.PhaseBGW, Attempt: m.data.attempt, Number: 1}
	case CollectingShares:
		return round.Tag{Phase: round.PhaseBGW, Attempt: m.data.attempt, Number: 2}
	case CollectingPoints:
		return round.Tag{Phase: round.PhaseBGW, Attempt: m.data.attempt, Number: 3}
	default:
		return round.Tag{Phase: round.PhaseBGW, Attempt: m.data.attempt + 1}
	}
}

// Classify returns whether content can be processed now, later, or never.
func (m Machine) Classify(content round.Content) round.Verdict {
	return round.Classify(m.Position(), content.Tag())
}

// Step is the transition function of the machine.
//
// The event is either round.Participants, which starts a new attempt, or a *round.Message
// carrying this phase's content. Messages that are not Current are ignored.
// When the returned error is a *round.Abort, the emissions still contain the complaints
// to broadcast.
func (m Machine) Step(rand io.Reader, event interface{}) (Machine, round.Emissions, error) {
	switch e := event.(type) {
	case round.Participants:
		if m.state != AwaitingParticipants {
			return m, round.Emissions{}, fmt.Errorf("bgw: participants in state %s: %w", m.state, round.ErrUnexpectedEvent)
		}
		return m.start(rand, e.Registry)
	case *round.Message:
		if m.Classify(e.Content) != round.Current {
			return m, round.Emissions{}, nil
		}
		from, ok := m.data.registry.Index(e.From)
		if !ok {
			return m, round.Emissions{}, m.helper.AbortAt(m.Position(), round.ErrUnknownSender, e.From)
		}
		switch content := e.Content.(type) {
		case *Commitments:
			return m.storeCommitments(from, e.From, content)
		case *Shares:
			return m.storeShares(from, e.From, content)
		case *Point:
			return m.storePoint(from, e.From, content)
		}
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), round.ErrInvalidContent, e.From)
	default:
		return m, round.Emissions{}, fmt.Errorf("bgw: %T: %w", event, round.ErrUnexpectedEvent)
	}
}
