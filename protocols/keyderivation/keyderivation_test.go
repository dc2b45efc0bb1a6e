package keyderivation_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/internal/test"
	"github.com/taurusgroup/paillier-dkg/pkg/math/polynomial"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/paillier"
	"github.com/taurusgroup/paillier-dkg/pkg/params"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/vss"
	"github.com/taurusgroup/paillier-dkg/protocols/bgw"
	"github.com/taurusgroup/paillier-dkg/protocols/biprimality"
	"github.com/taurusgroup/paillier-dkg/protocols/dkg"
	"github.com/taurusgroup/paillier-dkg/protocols/keyderivation"
)

const (
	p = 1019
	q = 1031
)

// shares of p and q held by each party
var (
	pShares = map[party.ID]int64{"a": 899, "b": 40, "c": 80}
	qShares = map[party.ID]int64{"a": 951, "b": 28, "c": 52}
)

func setup(t *testing.T, seed string) (*params.Parameters, map[party.ID]keyderivation.Machine, map[party.ID][]interface{}) {
	prm, err := test.Parameters(3, 1, 16, seed)
	require.NoError(t, err)
	helpers, err := test.Helpers("keyderivation-test", test.PartyIDs(3), prm, nil)
	require.NoError(t, err)

	machines := make(map[party.ID]keyderivation.Machine, 3)
	start := make(map[party.ID][]interface{}, 3)
	for id, h := range helpers {
		machines[id] = keyderivation.New(h)
		start[id] = []interface{}{
			round.Participants{Registry: h.Registry()},
			&biprimality.Result{
				Attempt: 4,
				N:       big.NewInt(p * q),
				Private: &bgw.Private{P: big.NewInt(pShares[id]), Q: big.NewInt(qShares[id])},
				Passed:  true,
			},
		}
	}
	return prm, machines, start
}

func TestKeyDerivation(t *testing.T) {
	_, machines, start := setup(t, "keyderivation")
	result, err := test.Run(machines, start, test.Config{
		Seed:        1,
		Shuffle:     true,
		DeferFuture: true,
		NewContent:  dkg.NewContent,
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Outputs, 3)

	keys := make(map[party.ID]*paillier.PrivateThresholdKey, 3)
	for id, out := range result.Outputs {
		require.Len(t, out, 1)
		key := out[0].(*paillier.PrivateThresholdKey)
		require.NoError(t, key.Validate())
		assert.EqualValues(t, p*q, key.N.Int64())
		keys[id] = key
		assert.Equal(t, keyderivation.Done, result.Machines[id].State())
	}

	a, b := keys["a"], keys["b"]
	for _, key := range keys {
		assert.Zero(t, a.ThetaPrime.Cmp(key.ThetaPrime))
	}

	// with xₐ = 1, x_b = 2: δ⋅λₐ = 2δ and δ⋅λ_b = -δ, and δ⋅λₐ⋅fₐ + δ⋅λ_b⋅f_b = δ²⋅β⋅φ
	delta := a.Delta()
	require.Equal(t, 1, a.Index)
	require.Equal(t, 2, b.Index)
	sum := new(big.Int).Mul(new(big.Int).Lsh(delta, 1), a.Share)
	sum.Sub(sum, new(big.Int).Mul(delta, b.Share))
	assert.Zero(t, new(big.Int).Mod(sum, big.NewInt((p-1)*(q-1))).Sign())

	rand := sample.NewSeededReader([]byte("keyderivation"), "decrypt")
	plaintext := big.NewInt(123456)
	ct, _, err := a.PublicKey().Enc(rand, plaintext)
	require.NoError(t, err)
	shares := make([]*paillier.DecryptionShare, 0, 2)
	for _, id := range []party.ID{"c", "a"} {
		share, err := keys[id].Decrypt(ct)
		require.NoError(t, err)
		shares = append(shares, share)
	}
	decrypted, err := a.Combine(shares)
	require.NoError(t, err)
	assert.Zero(t, plaintext.Cmp(decrypted))
}

func TestKeyDerivationInvalidShare(t *testing.T) {
	_, machines, start := setup(t, "keyderivation invalid share")
	result, err := test.Run(machines, start, test.Config{
		Seed:        2,
		DeferFuture: true,
		NewContent:  dkg.NewContent,
		Tamper: func(from, to party.ID, content round.Content) {
			shares, ok := content.(*keyderivation.Shares)
			if !ok || from != "b" {
				return
			}
			shares.Beta.Value.Add(shares.Beta.Value, big.NewInt(1))
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Outputs)
	for _, id := range []party.ID{"a", "c"} {
		var abort *round.Abort
		require.True(t, errors.As(result.Errors[id], &abort), "party %s", id)
		assert.Equal(t, []party.ID{"b"}, abort.Culprits)
		assert.ErrorIs(t, abort, round.ErrInvalidShare)
	}
}

func TestKeyDerivationRejectsFailedCandidate(t *testing.T) {
	_, machines, start := setup(t, "keyderivation failed")
	m := machines["a"]
	m, _, err := m.Step(nil, start["a"][0])
	require.NoError(t, err)

	failed := *start["a"][1].(*biprimality.Result)
	failed.Passed = false
	_, _, err = m.Step(nil, &failed)
	assert.ErrorIs(t, err, round.ErrUnexpectedEvent)

	assert.Equal(t, round.Future, m.Classify(&keyderivation.Theta{Attempt: 4}))
	assert.Equal(t, round.Future, m.Classify(&keyderivation.Shares{Attempt: 1}))

	m, emissions, err := m.Step(sample.NewSeededReader([]byte("keyderivation"), "start"), start["a"][1])
	require.NoError(t, err)
	assert.Equal(t, keyderivation.CollectingCommitments, m.State())
	require.Len(t, emissions.Messages, 3)
	assert.True(t, emissions.Messages[0].Broadcast)
	assert.IsType(t, &keyderivation.Commitments{}, emissions.Messages[0].Content)
	assert.Equal(t, round.Current, m.Classify(&keyderivation.Commitments{Attempt: 4}))
	assert.Equal(t, round.Future, m.Classify(&keyderivation.Shares{Attempt: 4}))
}

func TestKeyDerivationEquivocatingDealer(t *testing.T) {
	prm, machines, start := setup(t, "keyderivation equivocation")
	rand := sample.NewSeededReader([]byte("keyderivation"), "equivocation")
	result, err := test.Run(machines, start, test.Config{
		Seed:        3,
		Shuffle:     true,
		DeferFuture: true,
		NewContent:  dkg.NewContent,
		Tamper: func(from, to party.ID, content round.Content) {
			shares, ok := content.(*keyderivation.Shares)
			if !ok || from != "a" || to != "b" {
				return
			}
			// b gets a share of a sharing consistent with itself, but not with a's broadcast commitments
			f := polynomial.NewPolynomialMod(rand, prm.Threshold, big.NewInt(42), prm.P)
			shares.Beta = vss.Deal(rand, nil, prm.Group, f).ShareFor(2)
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Outputs)

	require.Contains(t, result.Errors, party.ID("b"))
	var abort *round.Abort
	require.True(t, errors.As(result.Errors["b"], &abort))
	assert.Equal(t, []party.ID{"a"}, abort.Culprits)
	assert.ErrorIs(t, abort, round.ErrInvalidShare)
	assert.NotContains(t, result.Errors, party.ID("a"))
	assert.NotContains(t, result.Errors, party.ID("c"))
}

func TestKeyDerivationInvalidCommitments(t *testing.T) {
	_, machines, start := setup(t, "keyderivation commitments")
	result, err := test.Run(machines, start, test.Config{
		Seed:        4,
		DeferFuture: true,
		NewContent:  dkg.NewContent,
		Tamper: func(from, to party.ID, content round.Content) {
			commitments, ok := content.(*keyderivation.Commitments)
			if !ok || from != "c" {
				return
			}
			commitments.Phi = append(commitments.Phi, commitments.Phi[0])
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Outputs)
	for _, id := range []party.ID{"a", "b"} {
		var abort *round.Abort
		require.True(t, errors.As(result.Errors[id], &abort), "party %s", id)
		assert.Equal(t, []party.ID{"c"}, abort.Culprits)
		assert.ErrorIs(t, abort, vss.ErrDegree)
	}
}
