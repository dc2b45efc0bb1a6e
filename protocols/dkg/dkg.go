// Package dkg runs the complete distributed generation of a threshold Paillier key.
//
// The Machine of each party drives three sub-machines: the modulus generation (bgw),
// the biprimality test and the key derivation. Candidates are generated until one passes
// the biprimality test, after which the key shares are derived.
// Messages arriving early are deferred until the sub-machine of their phase reaches them.
package dkg

import (
	"fmt"
	"io"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/paillier"
	"github.com/taurusgroup/paillier-dkg/pkg/params"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/pool"
	"github.com/taurusgroup/paillier-dkg/pkg/protocol"
	"github.com/taurusgroup/paillier-dkg/protocols/bgw"
	"github.com/taurusgroup/paillier-dkg/protocols/biprimality"
	"github.com/taurusgroup/paillier-dkg/protocols/keyderivation"
)

const protocolID = "paillier/dkg"

// State of the execution.
type State int

const (
	// Init waits for the start event; messages are deferred.
	Init State = iota
	// ModulusGeneration runs an attempt of the bgw protocol.
	ModulusGeneration
	// BiprimalityTest tests the last candidate.
	BiprimalityTest
	// KeyDerivation derives the key shares for the accepted modulus.
	KeyDerivation
	// Done is final, the key was emitted.
	Done
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case ModulusGeneration:
		return "modulus-generation"
	case BiprimalityTest:
		return "biprimality-test"
	case KeyDerivation:
		return "key-derivation"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Machine is the orchestrator of a single party.
// It is a value: Step never modifies the receiver.
type Machine struct {
	*round.Helper

	state State
	bgw   bgw.Machine
	test  biprimality.Machine
	keys  keyderivation.Machine
	queue round.Queue
}

// Start returns a protocol.StartFunc which creates the Machine of selfID, wrapped as a protocol.Session.
// The output of the protocol is a *paillier.PrivateThresholdKey.
func Start(selfID party.ID, participants []party.ID, prm *params.Parameters, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (protocol.Session, error) {
		helper, err := round.NewSession(round.Info{
			ProtocolID: protocolID,
			SelfID:     selfID,
			PartyIDs:   participants,
			Params:     prm,
		}, sessionID, pl)
		if err != nil {
			return nil, fmt.Errorf("dkg: %w", err)
		}
		return session{New(helper)}, nil
	}
}

// New returns a machine in the Init state.
func New(helper *round.Helper) Machine {
	return Machine{
		Helper: helper,
		bgw:    bgw.New(helper),
		test:   biprimality.New(helper),
		keys:   keyderivation.New(helper),
	}
}

// State returns the current state.
func (m Machine) State() State { return m.state }

// Attempt returns the number of the current, or last, modulus generation attempt.
func (m Machine) Attempt() uint32 { return m.bgw.Attempt() }

// Deferred returns the number of messages waiting for their sub-machine.
func (m Machine) Deferred() int { return m.queue.Len() }

// Start returns the local event that begins the execution.
func (m Machine) Start() interface{} {
	return round.Participants{Registry: m.Registry()}
}

// Progress describes the current state, for logging.
func (m Machine) Progress() string {
	switch m.state {
	case ModulusGeneration:
		return fmt.Sprintf("%s/%d/%s", m.state, m.bgw.Attempt(), m.bgw.State())
	case BiprimalityTest:
		return fmt.Sprintf("%s/%d/round %d", m.state, m.bgw.Attempt(), m.test.Round())
	case KeyDerivation:
		return fmt.Sprintf("%s/%s", m.state, m.keys.State())
	default:
		return m.state.String()
	}
}

// NewContent returns an empty content for the tag, ready for unmarshalling.
func (Machine) NewContent(tag round.Tag) (round.Content, error) {
	return NewContent(tag)
}

// NewContent returns an empty content for the tag, ready for unmarshalling.
func NewContent(tag round.Tag) (round.Content, error) {
	switch tag.Phase {
	case round.PhaseBGW:
		return bgw.NewContent(tag.Number)
	case round.PhaseBiprimality:
		return biprimality.NewContent(tag.Number)
	case round.PhaseKeyDerivation:
		return keyderivation.NewContent(tag.Number)
	case round.PhaseComplaint:
		if tag != round.ComplaintTag {
			return nil, fmt.Errorf("dkg: complaint with tag %s: %w", tag, round.ErrInvalidContent)
		}
		return &round.Complaint{}, nil
	default:
		return nil, fmt.Errorf("dkg: unknown phase %s: %w", tag.Phase, round.ErrInvalidContent)
	}
}

// Classify returns whether content can be processed now, later, or never.
func (m Machine) Classify(content round.Content) round.Verdict {
	return m.classify(content.Tag())
}

func (m Machine) classify(tag round.Tag) round.Verdict {
	switch {
	case m.state == Done:
		return round.Stale
	case tag.Phase == round.PhaseComplaint:
		return round.Current
	case m.state == Init:
		return round.Future
	}
	switch tag.Phase {
	case round.PhaseBGW:
		return round.Classify(m.bgw.Position(), tag)
	case round.PhaseBiprimality:
		return round.Classify(m.test.Position(), tag)
	case round.PhaseKeyDerivation:
		return round.Classify(m.keys.Position(), tag)
	default:
		return round.Stale
	}
}

// Step is the transition function of the orchestrator.
//
// The event is either the start event returned by Start, or a *round.Message.
// Current messages are delivered to the sub-machine of their phase, future ones are deferred,
// and stale ones are dropped. After every transition, the deferred messages which became
// current are delivered.
func (m Machine) Step(rand io.Reader, event interface{}) (Machine, round.Emissions, error) {
	switch e := event.(type) {
	case round.Participants:
		if m.state != Init {
			return m, round.Emissions{}, fmt.Errorf("dkg: participants in state %s: %w", m.state, round.ErrUnexpectedEvent)
		}
		next := m
		var emissions round.Emissions
		for _, phase := range []round.Phase{round.PhaseKeyDerivation, round.PhaseBiprimality, round.PhaseBGW} {
			var (
				out round.Emissions
				err error
			)
			next, out, err = next.deliver(rand, phase, e)
			emissions = emissions.Append(out)
			if err != nil {
				return m, emissions, err
			}
		}
		next.state = ModulusGeneration
		drained, out, err := next.drain(rand)
		return drained, emissions.Append(out), err
	case *round.Message:
		return m.receive(rand, e)
	default:
		return m, round.Emissions{}, fmt.Errorf("dkg: %T: %w", event, round.ErrUnexpectedEvent)
	}
}

func (m Machine) receive(rand io.Reader, msg *round.Message) (Machine, round.Emissions, error) {
	if msg == nil || msg.Content == nil {
		return m, round.Emissions{}, round.ErrNilFields
	}
	if complaint, ok := msg.Content.(*round.Complaint); ok {
		if m.state == Done {
			return m, round.Emissions{}, nil
		}
		return m, round.Emissions{}, m.complaint(msg.From, complaint)
	}

	tag := msg.Content.Tag()
	switch m.classify(tag) {
	case round.Stale:
		return m, round.Emissions{}, nil
	case round.Future:
		// a party can be at most one attempt ahead of us
		if tag.Attempt > m.bgw.Attempt()+1 {
			return m, round.Emissions{}, nil
		}
		next := m
		next.queue, _ = m.queue.Store(msg)
		return next, round.Emissions{}, nil
	}

	next, emissions, err := m.deliver(rand, tag.Phase, msg)
	if err != nil {
		return m, emissions, err
	}
	drained, out, err := next.drain(rand)
	return drained, emissions.Append(out), err
}

// complaint aborts the execution, blaming the accused party.
func (m Machine) complaint(from party.ID, c *round.Complaint) error {
	if !m.Registry().Contains(c.Accused) {
		return m.AbortAt(round.ComplaintTag, fmt.Errorf("%w: unknown party %q accused", round.ErrComplaint, c.Accused), from)
	}
	return m.AbortAt(c.Raised, fmt.Errorf("%w: raised by %s", round.ErrComplaint, from), c.Accused)
}

// deliver steps the sub-machine of phase, and forwards its output.
func (m Machine) deliver(rand io.Reader, phase round.Phase, event interface{}) (Machine, round.Emissions, error) {
	next := m
	var (
		emissions round.Emissions
		err       error
	)
	switch phase {
	case round.PhaseBGW:
		next.bgw, emissions, err = m.bgw.Step(rand, event)
	case round.PhaseBiprimality:
		next.test, emissions, err = m.test.Step(rand, event)
	case round.PhaseKeyDerivation:
		next.keys, emissions, err = m.keys.Step(rand, event)
	default:
		return m, round.Emissions{}, fmt.Errorf("dkg: deliver to phase %s: %w", phase, round.ErrUnexpectedEvent)
	}
	if err != nil {
		return m, round.Emissions{Messages: emissions.Messages}, err
	}

	output := emissions.Output
	emissions.Output = nil
	if output == nil {
		return next, emissions, nil
	}
	advanced, out, err := next.advance(rand, output)
	return advanced, emissions.Append(out), err
}

// advance hands the output of a sub-machine to the next one:
//
//   - a candidate modulus is tested,
//   - a rejected candidate restarts the modulus generation,
//   - an accepted one starts the key derivation,
//   - the key is the output of the protocol.
func (m Machine) advance(rand io.Reader, output interface{}) (Machine, round.Emissions, error) {
	switch o := output.(type) {
	case *bgw.CandidateN:
		next := m
		next.state = BiprimalityTest
		return next.deliver(rand, round.PhaseBiprimality, o)
	case *biprimality.Result:
		next := m
		if !o.Passed {
			next.state = ModulusGeneration
			return next.deliver(rand, round.PhaseBGW, round.Participants{Registry: m.Registry()})
		}
		next.state = KeyDerivation
		return next.deliver(rand, round.PhaseKeyDerivation, o)
	case *paillier.PrivateThresholdKey:
		next := m
		next.state = Done
		next.queue = round.Queue{}
		return next, round.Emissions{Output: o}, nil
	default:
		return m, round.Emissions{}, fmt.Errorf("dkg: output %T: %w", output, round.ErrUnexpectedEvent)
	}
}

// drain delivers the deferred messages which became current, until none is left.
// Stale messages are dropped along the way.
func (m Machine) drain(rand io.Reader) (Machine, round.Emissions, error) {
	var emissions round.Emissions
	for m.state != Done {
		m.queue, _ = m.queue.Take(func(tag round.Tag) bool { return m.classify(tag) == round.Stale })

		var ready []*round.Message
		m.queue, ready = m.queue.Take(func(tag round.Tag) bool { return m.classify(tag) == round.Current })
		if len(ready) == 0 {
			break
		}
		for _, msg := range ready {
			if m.state == Done {
				break
			}
			// delivering the previous message may have moved the sub-machine
			if m.classify(msg.Content.Tag()) != round.Current {
				m.queue, _ = m.queue.Store(msg)
				continue
			}
			next, out, err := m.deliver(rand, msg.Content.Tag().Phase, msg)
			emissions = emissions.Append(out)
			if err != nil {
				return m, emissions, err
			}
			m = next
		}
	}
	return m, emissions, nil
}

// session adapts Machine to protocol.Session.
type session struct {
	Machine
}

func (s session) Step(rand io.Reader, event interface{}) (protocol.Session, round.Emissions, error) {
	next, emissions, err := s.Machine.Step(rand, event)
	return session{next}, emissions, err
}
