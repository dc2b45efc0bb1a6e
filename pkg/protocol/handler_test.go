package protocol_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/internal/test"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/paillier"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/pool"
	"github.com/taurusgroup/paillier-dkg/pkg/protocol"
	"github.com/taurusgroup/paillier-dkg/protocols/dkg"
	"golang.org/x/sync/errgroup"
)

func newHandlers(t *testing.T, seed string) (party.IDSlice, map[party.ID]*protocol.Handler) {
	prm, err := test.Parameters(3, 1, 16, seed)
	require.NoError(t, err)
	pl := pool.NewPool(0)
	t.Cleanup(pl.TearDown)

	ids := test.PartyIDs(3)
	handlers := make(map[party.ID]*protocol.Handler, len(ids))
	for _, id := range ids {
		h, err := protocol.NewMultiHandler(dkg.Start(id, ids, prm, pl), []byte(seed),
			protocol.WithRand(sample.NewSeededReader([]byte(seed+string(id)), "handler test")),
			protocol.WithLogger(zerolog.Nop()),
		)
		require.NoError(t, err)
		handlers[id] = h
	}
	return ids, handlers
}

func TestHandler(t *testing.T) {
	ids, handlers := newHandlers(t, "handler")
	network := test.NewNetwork(ids)

	var eg errgroup.Group
	for _, id := range ids {
		id := id
		eg.Go(func() error {
			test.HandlerLoop(id, handlers[id], network)
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	var n *paillier.PrivateThresholdKey
	for _, id := range ids {
		result, err := handlers[id].Result()
		require.NoError(t, err)
		key, ok := result.(*paillier.PrivateThresholdKey)
		require.True(t, ok)
		require.NoError(t, key.Validate())
		if n == nil {
			n = key
		}
		assert.Zero(t, n.N.Cmp(key.N))
		assert.Zero(t, n.ThetaPrime.Cmp(key.ThetaPrime))
	}
}

// firstUnicast returns the first message h sends to id alone.
func firstUnicast(h *protocol.Handler, id party.ID) *protocol.Message {
	for msg := range h.Listen() {
		if !msg.Broadcast && msg.IsFor(id) {
			return msg
		}
	}
	return nil
}

func TestHandlerCanAccept(t *testing.T) {
	_, handlers := newHandlers(t, "can accept")
	msg := firstUnicast(handlers["b"], "a")
	require.NotNil(t, msg)
	assert.True(t, handlers["a"].CanAccept(msg))
	assert.False(t, handlers["c"].CanAccept(msg), "unicast for another party")
	assert.False(t, handlers["b"].CanAccept(msg), "sent by ourselves")
	assert.False(t, handlers["a"].CanAccept(nil))

	modify := func(f func(m *protocol.Message)) *protocol.Message {
		m := *msg
		f(&m)
		return &m
	}
	for name, bad := range map[string]*protocol.Message{
		"ssid":      modify(func(m *protocol.Message) { m.SSID = []byte("other") }),
		"protocol":  modify(func(m *protocol.Message) { m.Protocol = "other" }),
		"sender":    modify(func(m *protocol.Message) { m.From = "z" }),
		"phase":     modify(func(m *protocol.Message) { m.Phase = 0 }),
		"attempt":   modify(func(m *protocol.Message) { m.Attempt = 0 }),
		"number":    modify(func(m *protocol.Message) { m.RoundNumber = 0 }),
		"data":      modify(func(m *protocol.Message) { m.Data = nil }),
		"broadcast": modify(func(m *protocol.Message) { m.Broadcast = true }),
	} {
		assert.False(t, handlers["a"].CanAccept(bad), name)
	}
}

func TestHandlerInvalidContent(t *testing.T) {
	_, handlers := newHandlers(t, "invalid content")
	msg := firstUnicast(handlers["b"], "a")
	require.NotNil(t, msg)

	bad := *msg
	bad.Data = []byte{0xff, 0x00}
	h := handlers["a"]
	require.True(t, h.CanAccept(&bad))
	h.Accept(&bad)

	// the outgoing channel is closed after the pending messages
	for range h.Listen() {
	}
	_, err := h.Result()
	require.Error(t, err)
	var protocolErr protocol.Error
	require.True(t, errors.As(err, &protocolErr))
	assert.Equal(t, []party.ID{"b"}, protocolErr.Culprits)
	assert.ErrorIs(t, err, round.ErrInvalidContent)

	// nothing is processed after an abort
	h.Accept(msg)
	_, err2 := h.Result()
	assert.Equal(t, err, err2)
}

func TestHandlerTagMismatch(t *testing.T) {
	_, handlers := newHandlers(t, "tag mismatch")
	msg := firstUnicast(handlers["b"], "a")
	require.NotNil(t, msg)

	// the header claims another attempt than the content
	bad := *msg
	bad.Attempt++
	h := handlers["a"]
	h.Accept(&bad)
	_, err := h.Result()
	assert.ErrorIs(t, err, protocol.ErrMessageTagMismatch)
}
