package protocol

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// Session is the state machine of a single party, driven by a Handler.
type Session interface {
	// Step is the pure transition function: it returns the next session and what must be sent.
	Step(rand io.Reader, event interface{}) (Session, round.Emissions, error)
	// Classify returns whether content can be processed now, later, or never.
	Classify(content round.Content) round.Verdict
	// NewContent returns an empty content for the tag, ready for unmarshalling.
	NewContent(tag round.Tag) (round.Content, error)
	// Start returns the local event which starts the execution.
	Start() interface{}
	// Position returns a short description of the current state, for logging.
	Progress() string

	// ProtocolID is an identifier for this protocol.
	ProtocolID() string
	// SSID the unique identifier for this protocol execution.
	SSID() []byte
	// SelfID is this party's ID.
	SelfID() party.ID
	// PartyIDs is a sorted slice of participating parties in this protocol.
	PartyIDs() party.IDSlice
}

// StartFunc is function that creates the initial session of a protocol.
// If the creation fails (likely due to misconfiguration), and error is returned.
// An optional sessionID can be provided, which should unique among all protocol executions.
type StartFunc func(sessionID []byte) (Session, error)

// Handler represents an execution of a given protocol.
// It provides a simple interface for the user to receive/deliver protocol messages.
type Handler struct {
	log    zerolog.Logger
	rand   io.Reader
	outbox *outbox

	mtx     sync.Mutex
	session Session
	result  interface{}
	err     error
}

type handlerConfig struct {
	log  zerolog.Logger
	rand io.Reader
}

// HandlerOption configures a Handler.
type HandlerOption func(*handlerConfig)

// WithLogger sets the logger, to which the protocol and party are added as context.
func WithLogger(log zerolog.Logger) HandlerOption {
	return func(c *handlerConfig) { c.log = log }
}

// WithRand sets the source of randomness of the state machines.
func WithRand(r io.Reader) HandlerOption {
	return func(c *handlerConfig) { c.rand = r }
}

// NewMultiHandler expects a StartFunc for the desired protocol. It returns a handler that the user can interact with.
func NewMultiHandler(create StartFunc, sessionID []byte, opts ...HandlerOption) (*Handler, error) {
	cfg := handlerConfig{
		log:  zerolog.Nop(),
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	session, err := create(sessionID)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to create session: %w", err)
	}

	h := &Handler{
		log: cfg.log.With().
			Str("protocol", session.ProtocolID()).
			Str("party", string(session.SelfID())).
			Logger(),
		rand:    cfg.rand,
		outbox:  newOutbox(),
		session: session,
	}
	h.log.Info().Int("parties", len(session.PartyIDs())).Msg("start")

	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.step(session.Start(), "")
	return h, nil
}

// Listen returns a channel with outgoing messages that must be sent to other parties.
// The message received should be _reliably_ broadcast if msg.Broadcast is true.
// The channel is closed when either an error occurs or the protocol detects an error,
// after all pending messages were delivered.
func (h *Handler) Listen() <-chan *Message {
	return h.outbox.out
}

// Result returns the protocol result if the protocol completed successfully. Otherwise an error is returned.
func (h *Handler) Result() (interface{}, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.result != nil {
		return h.result, nil
	}
	if h.err != nil {
		return nil, h.err
	}
	return nil, errors.New("protocol: not finished")
}

// CanAccept checks whether or not a message can be accepted in this execution.
func (h *Handler) CanAccept(msg *Message) bool {
	return h.validate(msg) == nil
}

// Accept tries to process the given message. If an abort occurs, the channel returned by Listen() is closed,
// and an error is returned by Result().
//
// This function may be called concurrently from different threads but may block until all previous calls have finished.
func (h *Handler) Accept(msg *Message) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	// exit early if the message is bad, or if we are already done
	if h.finished() {
		return
	}
	if err := h.validate(msg); err != nil {
		event := h.log.Warn().Err(err)
		if msg != nil {
			event = event.Str("from", string(msg.From)).Stringer("tag", msg.Tag())
		}
		event.Msg("failed to validate")
		return
	}

	content, err := h.session.NewContent(msg.Tag())
	if err != nil {
		h.abort(err, msg.Tag(), msg.From)
		return
	}
	if err = msg.UnmarshalContent(content); err != nil {
		h.abort(fmt.Errorf("%w: %v", round.ErrInvalidContent, err), msg.Tag(), msg.From)
		return
	}
	if content.Tag() != msg.Tag() {
		h.abort(ErrMessageTagMismatch, msg.Tag(), msg.From)
		return
	}

	verdict := h.session.Classify(content)
	h.log.Debug().
		Str("from", string(msg.From)).
		Stringer("tag", msg.Tag()).
		Stringer("verdict", verdict).
		Msg("received message")

	h.step(&round.Message{
		From:      msg.From,
		To:        msg.To,
		Broadcast: msg.Broadcast,
		Content:   content,
	}, msg.From)
}

// step runs one transition of the session, sends what it emitted and records its output.
func (h *Handler) step(event interface{}, from party.ID) {
	before := h.session.Progress()
	next, emissions, err := h.session.Step(h.rand, event)

	for _, msg := range emissions.Messages {
		wire, errMarshal := newMessage(h.session.SSID(), h.session.ProtocolID(), msg)
		if errMarshal != nil {
			h.abort(errMarshal, msg.Content.Tag())
			return
		}
		h.outbox.push(wire)
	}

	if err != nil {
		var abort *round.Abort
		if errors.As(err, &abort) {
			h.abort(abort.Err, abort.Tag, abort.Culprits...)
		} else {
			h.abort(err, round.Tag{}, from)
		}
		return
	}

	h.session = next
	if after := next.Progress(); after != before {
		h.log.Info().Str("phase", after).Str("previous", before).Msg("phase advanced")
	}

	if emissions.Output != nil {
		h.result = emissions.Output
		h.log.Info().Msg("key derived")
		h.outbox.close()
	}
}

func (h *Handler) validate(msg *Message) error {
	if msg == nil || msg.Data == nil {
		return ErrMessageNil
	}
	if !bytes.Equal(h.session.SSID(), msg.SSID) {
		return ErrMessageWrongSSID
	}
	if msg.Protocol != h.session.ProtocolID() {
		return ErrMessageWrongProtocolID
	}
	if msg.From == h.session.SelfID() {
		return ErrMessageFromSelf
	}
	if !h.session.PartyIDs().Contains(msg.From) {
		return ErrMessageUnknownSender
	}
	if !msg.IsFor(h.session.SelfID()) || (msg.Broadcast && msg.To != "") {
		return ErrMessageWrongDestination
	}
	return msg.validateTag()
}

// abort records the first error of the execution, and stops it.
func (h *Handler) abort(err error, tag round.Tag, culprits ...party.ID) {
	if h.err == nil {
		h.err = Error{
			Tag:      tag,
			Culprits: culprits,
			Err:      err,
		}
		h.log.Error().Err(h.err).Msg("abort")
	}
	h.outbox.close()
}

func (h *Handler) finished() bool {
	return h.result != nil || h.err != nil
}
