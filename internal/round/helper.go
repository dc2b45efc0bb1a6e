package round

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/pkg/hash"
	"github.com/taurusgroup/paillier-dkg/pkg/params"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/pool"
)

// Info is the static description of an execution, identical for all parties except SelfID.
type Info struct {
	// ProtocolID is an identifier for this protocol.
	ProtocolID string
	// SelfID is this party's ID.
	SelfID party.ID
	// PartyIDs contains all participants, including SelfID.
	PartyIDs []party.ID
	// Params is the configuration shared by all parties.
	Params *params.Parameters
}

// Helper contains the static information about an execution that all state machines of
// a party share. It is never modified after creation.
type Helper struct {
	info Info

	// Pool allows us to parallelize certain operations
	Pool *pool.Pool

	registry  *party.Registry
	selfIndex int

	// ssid the unique identifier for this protocol execution
	ssid []byte

	hash *hash.Hash
}

// NewSession creates a new *Helper shared by the state machines of one party.
// `sessionID` is an optional byte slice that can be provided by the user.
// When used, it should be unique for each execution of the protocol.
// It could be a simple counter which is incremented after execution, or a common random string.
func NewSession(info Info, sessionID []byte, pl *pool.Pool) (*Helper, error) {
	if err := info.Params.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	registry, err := party.NewRegistry(info.PartyIDs)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	// verify our ID is present
	selfIndex, ok := registry.Index(info.SelfID)
	if !ok {
		return nil, errors.New("session: selfID not included in partyIDs")
	}

	if n := registry.N(); n != info.Params.Parties {
		return nil, fmt.Errorf("session: %d parties given, parameters expect %d", n, info.Params.Parties)
	}

	h := hash.New()

	if sessionID != nil {
		if err = h.WriteAny(&hash.BytesWithDomain{
			TheDomain: "Session ID",
			Bytes:     sessionID,
		}); err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
	}

	if err = h.WriteAny(&hash.BytesWithDomain{
		TheDomain: "Protocol ID",
		Bytes:     []byte(info.ProtocolID),
	}); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	if err = h.WriteAny(registry.IDs()); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	p := info.Params
	if err = h.WriteAny(
		big.NewInt(int64(p.Threshold)),
		big.NewInt(int64(p.Bits)),
		big.NewInt(p.Kappa),
		p.P,
	); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Helper{
		info:      info,
		Pool:      pl,
		registry:  registry,
		selfIndex: selfIndex,
		ssid:      h.Clone().Sum(),
		hash:      h,
	}, nil
}

// Hash returns copy of the hash function of this protocol execution.
func (h *Helper) Hash() *hash.Hash {
	return h.hash.Clone()
}

// BroadcastMessage constructs a Message from the broadcast Content, and sets the header correctly.
func (h *Helper) BroadcastMessage(content Content) *Message {
	return &Message{
		From:      h.info.SelfID,
		Broadcast: true,
		Content:   content,
	}
}

// SendMessage constructs a Message for a single party.
func (h *Helper) SendMessage(content Content, to party.ID) *Message {
	return &Message{
		From:    h.info.SelfID,
		To:      to,
		Content: content,
	}
}

// AbortAt returns an Abort error for the given position.
func (h *Helper) AbortAt(tag Tag, err error, culprits ...party.ID) *Abort {
	return &Abort{
		Tag:      tag,
		Culprits: culprits,
		Err:      err,
	}
}

// ProtocolID is an identifier for this protocol.
func (h *Helper) ProtocolID() string { return h.info.ProtocolID }

// SSID the unique identifier for this protocol execution.
func (h *Helper) SSID() []byte { return h.ssid }

// SelfID is this party's ID.
func (h *Helper) SelfID() party.ID { return h.info.SelfID }

// SelfIndex is this party's index in [1, n].
func (h *Helper) SelfIndex() int { return h.selfIndex }

// Registry is the participant registry distributed at the start of the execution.
func (h *Helper) Registry() *party.Registry { return h.registry }

// PartyIDs is a sorted slice of participating parties in this protocol.
func (h *Helper) PartyIDs() party.IDSlice { return h.registry.IDs() }

// OtherPartyIDs returns a sorted list of parties that does not contain SelfID.
func (h *Helper) OtherPartyIDs() party.IDSlice { return h.registry.IDs().Remove(h.info.SelfID) }

// Params returns the configuration of this execution.
func (h *Helper) Params() *params.Parameters { return h.info.Params }


// N returns the number of participants.
func (h *Helper) N() int { return h.registry.N() }
