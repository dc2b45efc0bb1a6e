package protocol

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/hash"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

var (
	ErrMessageNil              = errors.New("message: nil message or content")
	ErrMessageWrongSSID        = errors.New("message: SSID mismatch")
	ErrMessageWrongProtocolID  = errors.New("message: wrong protocol ID")
	ErrMessageUnknownSender    = errors.New("message: unknown sender")
	ErrMessageFromSelf         = errors.New("message: sent by ourselves")
	ErrMessageWrongDestination = errors.New("message: wrong destination")
	ErrMessageInvalidTag       = errors.New("message: invalid tag")
	ErrMessageTagMismatch      = errors.New("message: content does not match the header's tag")
)

// Message is the wire representation of a round.Message.
type Message struct {
	// SSID is a byte string which uniquely identifies the session this message belongs to.
	SSID []byte
	// From is the party.ID of the sender
	From party.ID
	// To is the intended recipient for this message.
	// If To == "", then the message should be sent to all parties.
	To party.ID
	// Protocol identifies the protocol this message belongs to
	Protocol string
	// Phase, Attempt and RoundNumber locate the message in the execution.
	Phase       round.Phase
	Attempt     uint32
	RoundNumber round.Number
	// Broadcast indicates whether this message should be reliably broadcast to all participants.
	Broadcast bool
	// Data is the actual content consumed by the state machine.
	Data []byte
}

// String implements fmt.Stringer.
func (m Message) String() string {
	return fmt.Sprintf("message: %s, from: %s, to %v, protocol: %s", m.Tag(), m.From, m.To, m.Protocol)
}

// Tag returns the position in the execution announced by the header.
func (m Message) Tag() round.Tag {
	return round.Tag{Phase: m.Phase, Attempt: m.Attempt, Number: m.RoundNumber}
}

// IsFor returns true if the message is intended for the designated party.
func (m Message) IsFor(id party.ID) bool {
	if m.From == id {
		return false
	}
	return m.To == "" || m.To == id
}

// Hash returns a 64 byte slice of the message content, including the headers.
// Can be used to produce a signature for the message.
func (m *Message) Hash() []byte {
	var broadcast byte
	if m.Broadcast {
		broadcast = 1
	}
	h := hash.New(
		hash.BytesWithDomain{TheDomain: "SSID", Bytes: m.SSID},
		m.From,
		hash.BytesWithDomain{TheDomain: "To", Bytes: []byte(m.To)},
		hash.BytesWithDomain{TheDomain: "Protocol", Bytes: []byte(m.Protocol)},
		m.Tag(),
		hash.BytesWithDomain{TheDomain: "Broadcast", Bytes: []byte{broadcast}},
		hash.BytesWithDomain{TheDomain: "Content", Bytes: m.Data},
	)
	return h.Sum()
}

// UnmarshalContent decodes the message's data into content.
func (m *Message) UnmarshalContent(content round.Content) error {
	return cbor.Unmarshal(m.Data, content)
}

// validateTag checks that the header's tag can be produced by an honest party.
func (m *Message) validateTag() error {
	tag := m.Tag()
	if !tag.Phase.Valid() || tag.Number == 0 {
		return ErrMessageInvalidTag
	}
	if tag.Phase != round.PhaseComplaint && tag.Attempt == 0 {
		return ErrMessageInvalidTag
	}
	return nil
}

// newMessage wraps the content of msg for the wire.
func newMessage(ssid []byte, protocolID string, msg *round.Message) (*Message, error) {
	data, err := cbor.Marshal(msg.Content)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal content: %w", err)
	}
	tag := msg.Content.Tag()
	return &Message{
		SSID:        ssid,
		From:        msg.From,
		To:          msg.To,
		Protocol:    protocolID,
		Phase:       tag.Phase,
		Attempt:     tag.Attempt,
		RoundNumber: tag.Number,
		Broadcast:   msg.Broadcast,
		Data:        data,
	}, nil
}
