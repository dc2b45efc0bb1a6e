// Package keyderivation derives the threshold Paillier key shares for an accepted modulus N.
//
// The parties jointly compute θ' = δ⋅(β⋅φ(N) + N⋅R) for random β = ∑ βᵢ and R = ∑ Rᵢ,
// with δ = n!. Party i's key share is fᵢ = θ' - N⋅ΔR(i), where ΔR is the sum of the
// integer sharings of δ⋅Rᵢ, so that ∑ λᵢ⋅fᵢ = δ⋅β⋅φ(N) for any t+1 parties.
package keyderivation

import (
	"fmt"
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/protocols/biprimality"
)

// State of the key derivation.
type State int

const (
	// AwaitingParticipants waits for the registry.
	AwaitingParticipants State = iota
	// AwaitingCandidate waits for a modulus which passed the biprimality test.
	AwaitingCandidate
	// CollectingCommitments waits for the broadcast commitments of every dealer.
	CollectingCommitments
	// CollectingShares waits for the share tuple of every dealer.
	CollectingShares
	// CollectingThetas waits for every party's point of θ.
	CollectingThetas
	// CollectingVerificationKeys waits for every party's verification key.
	CollectingVerificationKeys
	// Done is final, the key was emitted.
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingParticipants:
		return "awaiting-participants"
	case AwaitingCandidate:
		return "awaiting-candidate"
	case CollectingCommitments:
		return "collecting-commitments"
	case CollectingShares:
		return "collecting-shares"
	case CollectingThetas:
		return "collecting-thetas"
	case CollectingVerificationKeys:
		return "collecting-verification-keys"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type data struct {
	registry    *party.Registry
	attempt     uint32
	n           *big.Int
	private     *private
	commitments round.Collection[*Commitments]
	shares      round.Collection[*Shares]
	// deltaR is ΔR(i) = ∑ⱼ ΔRⱼ(i), over the integers
	deltaR     *big.Int
	thetas     round.Collection[*big.Int]
	thetaPrime *big.Int
	v          *big.Int
	share      *big.Int
	vks        round.Collection[*big.Int]
}

// Machine is the key derivation state machine of a single party.
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

// Position returns the tag of the messages the machine is collecting.
func (m Machine) Position() round.Tag {
	tag := round.Tag{Phase: round.PhaseKeyDerivation, Attempt: m.data.attempt}
	switch m.state {
	case CollectingCommitments:
		tag.Number = 1
	case CollectingShares:
		tag.Number = 2
	case CollectingThetas:
		tag.Number = 3
	case CollectingVerificationKeys:
		tag.Number = 4
	case Done:
		tag.Number = 5
	default:
		tag.Attempt++
	}
	return tag
}

// Classify returns whether content can be processed now, later, or never.
func (m Machine) Classify(content round.Content) round.Verdict {
	return round.Classify(m.Position(), content.Tag())
}

// Step is the transition function of the machine.
//
// The event is either round.Participants, a passing *biprimality.Result, or a *round.Message
// carrying this phase's content. Messages that are not Current are ignored.
// When the returned error is a *round.Abort, the emissions still contain the complaints
// to broadcast.
func (m Machine) Step(rand io.Reader, event interface{}) (Machine, round.Emissions, error) {
	switch e := event.(type) {
	case round.Participants:
		if m.state != AwaitingParticipants {
			return m, round.Emissions{}, fmt.Errorf("keyderivation: participants in state %s: %w", m.state, round.ErrUnexpectedEvent)
		}
		next := m
		next.state = AwaitingCandidate
		next.data = data{registry: e.Registry}
		return next, round.Emissions{}, nil
	case *biprimality.Result:
		if m.state != AwaitingCandidate || !e.Passed {
			return m, round.Emissions{}, fmt.Errorf("keyderivation: result of attempt %d in state %s: %w", e.Attempt, m.state, round.ErrUnexpectedEvent)
		}
		return m.start(rand, e)
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
		case *Theta:
			return m.storeTheta(from, e.From, content)
		case *VerificationKey:
			return m.storeVerificationKey(from, e.From, content)
		}
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), round.ErrInvalidContent, e.From)
	default:
		return m, round.Emissions{}, fmt.Errorf("keyderivation: %T: %w", event, round.ErrUnexpectedEvent)
	}
}
