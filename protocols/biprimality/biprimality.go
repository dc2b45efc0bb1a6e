// Package biprimality implements the distributed Boneh-Franklin test that a candidate
// N = p⋅q, with p ≡ q ≡ 3 (mod 4), is the product of two primes, without revealing p or q.
//
// In each round, all parties derive the same base g with Jacobi symbol (g/N) = 1.
// Party 1 publishes Q₁ = g^{(N+1-p₁-q₁)/4} and every other party publishes Qᵢ = g^{(pᵢ+qᵢ)/4}.
// Since ∑ exponents = φ(N)/4, the check Q₁/∏ᵢ Qᵢ must be ±1 (mod N) when N is a Blum integer.
package biprimality

import (
	"fmt"
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/params"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/protocols/bgw"
)

// Rounds is the number of rounds a candidate must pass.
const Rounds = params.BiprimalityRounds

// State of the biprimality test.
type State int

const (
	// AwaitingParticipants waits for the registry.
	AwaitingParticipants State = iota
	// AwaitingCandidate waits for the next candidate from the modulus generation.
	AwaitingCandidate
	// CollectingQ waits for every party's Qᵢ of the current round.
	CollectingQ
)

func (s State) String() string {
	switch s {
	case AwaitingParticipants:
		return "awaiting-participants"
	case AwaitingCandidate:
		return "awaiting-candidate"
	case CollectingQ:
		return "collecting-q"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the output of the test of one candidate.
type Result struct {
	Attempt uint32
	N       *big.Int
	Private *bgw.Private
	Passed  bool
}

type data struct {
	registry *party.Registry
	// attempt of the candidate being tested, or of the last tested one.
	attempt   uint32
	round     round.Number
	candidate *bgw.CandidateN
	qs        round.Collection[*big.Int]
}

// Machine is the biprimality test state machine of a single party.
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

// Round returns the current round, starting at 1.
func (m Machine) Round() round.Number { return m.data.round }

// Position returns the tag of the messages the machine is collecting.
func (m Machine) Position() round.Tag {
	if m.state == CollectingQ {
		return round.Tag{Phase: round.PhaseBiprimality, Attempt: m.data.attempt, Number: m.data.round}
	}
	return round.Tag{Phase: round.PhaseBiprimality, Attempt: m.data.attempt + 1}
}

// Classify returns whether content can be processed now, later, or never.
func (m Machine) Classify(content round.Content) round.Verdict {
	return round.Classify(m.Position(), content.Tag())
}

// Step is the transition function of the machine.
//
// The event is either round.Participants, a *bgw.CandidateN to test, or a *round.Message
// carrying a *QRound. Messages that are not Current are ignored.
func (m Machine) Step(_ io.Reader, event interface{}) (Machine, round.Emissions, error) {
	switch e := event.(type) {
	case round.Participants:
		if m.state != AwaitingParticipants {
			return m, round.Emissions{}, fmt.Errorf("biprimality: participants in state %s: %w", m.state, round.ErrUnexpectedEvent)
		}
		next := m
		next.state = AwaitingCandidate
		next.data = data{registry: e.Registry}
		return next, round.Emissions{}, nil
	case *bgw.CandidateN:
		if m.state != AwaitingCandidate || e.Attempt <= m.data.attempt {
			return m, round.Emissions{}, fmt.Errorf("biprimality: candidate %d in state %s: %w", e.Attempt, m.state, round.ErrUnexpectedEvent)
		}
		return m.start(e)
	case *round.Message:
		if m.Classify(e.Content) != round.Current {
			return m, round.Emissions{}, nil
		}
		from, ok := m.data.registry.Index(e.From)
		if !ok {
			return m, round.Emissions{}, m.helper.AbortAt(m.Position(), round.ErrUnknownSender, e.From)
		}
		content, ok := e.Content.(*QRound)
		if !ok {
			return m, round.Emissions{}, m.helper.AbortAt(m.Position(), round.ErrInvalidContent, e.From)
		}
		return m.storeQ(from, e.From, content)
	default:
		return m, round.Emissions{}, fmt.Errorf("biprimality: %T: %w", event, round.ErrUnexpectedEvent)
	}
}
