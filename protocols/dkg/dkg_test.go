package dkg_test

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
	"github.com/taurusgroup/paillier-dkg/pkg/pool"
	"github.com/taurusgroup/paillier-dkg/pkg/vss"
	"github.com/taurusgroup/paillier-dkg/protocols/bgw"
	"github.com/taurusgroup/paillier-dkg/protocols/dkg"
	"github.com/taurusgroup/paillier-dkg/protocols/keyderivation"
)

func setup(t *testing.T, n, threshold int, seed string) (*params.Parameters, map[party.ID]dkg.Machine, map[party.ID][]interface{}) {
	prm, err := test.Parameters(n, threshold, 16, seed)
	require.NoError(t, err)
	pl := pool.NewPool(0)
	t.Cleanup(pl.TearDown)

	helpers, err := test.Helpers("dkg-test", test.PartyIDs(n), prm, pl)
	require.NoError(t, err)

	machines := make(map[party.ID]dkg.Machine, n)
	start := make(map[party.ID][]interface{}, n)
	for id, h := range helpers {
		m := dkg.New(h)
		machines[id] = m
		start[id] = []interface{}{m.Start()}
	}
	return prm, machines, start
}

// factor returns the smallest prime factor of n by trial division.
func factor(n *big.Int) *big.Int {
	d := big.NewInt(3)
	two := big.NewInt(2)
	r := new(big.Int)
	for new(big.Int).Mul(d, d).Cmp(n) <= 0 {
		if r.Mod(n, d).Sign() == 0 {
			return d
		}
		d.Add(d, two)
	}
	return n
}

func checkKeys(t *testing.T, keys map[party.ID]*paillier.PrivateThresholdKey, prm *params.Parameters) {
	t.Helper()
	var first *paillier.PrivateThresholdKey
	for id, key := range keys {
		require.NoError(t, key.Validate(), "party %s", id)
		assert.Equal(t, id, key.ID)
		assert.Equal(t, prm.Quorum(), key.Quorum)
		if first == nil {
			first = key
			continue
		}
		assert.Zero(t, first.N.Cmp(key.N), "all parties must agree on N")
		assert.Zero(t, first.ThetaPrime.Cmp(key.ThetaPrime), "all parties must agree on θ'")
		assert.Zero(t, first.V.Cmp(key.V))
		require.Len(t, key.VerificationKeys, len(first.VerificationKeys))
		for i, vk := range first.VerificationKeys {
			assert.Zero(t, vk.Cmp(key.VerificationKeys[i]))
		}
	}

	// N is a product of two primes, both ≡ 3 (mod 4)
	n := first.N
	p := factor(n)
	q := new(big.Int).Quo(n, p)
	assert.True(t, p.ProbablyPrime(20))
	assert.True(t, q.ProbablyPrime(20))
	assert.EqualValues(t, 3, p.Bit(0)+2*p.Bit(1))
	assert.EqualValues(t, 3, q.Bit(0)+2*q.Bit(1))
	assert.LessOrEqual(t, n.Cmp(prm.MaxModulus()), 0)

	rand := sample.NewSeededReader([]byte("decrypt"), "dkg test")
	pk := first.PublicKey()
	for _, m := range []int64{0, 1, 42, 1 << 20} {
		plaintext := big.NewInt(m)
		ct, _, err := pk.Enc(rand, plaintext)
		require.NoError(t, err)

		// any quorum of parties can decrypt
		ids := make(party.IDSlice, 0, len(keys))
		for id := range keys {
			ids = append(ids, id)
		}
		ids = party.NewIDSlice(ids)
		for offset := 0; offset+prm.Quorum() <= len(ids); offset++ {
			shares := make([]*paillier.DecryptionShare, 0, prm.Quorum())
			for _, id := range ids[offset : offset+prm.Quorum()] {
				share, err := keys[id].Decrypt(ct)
				require.NoError(t, err)
				shares = append(shares, share)
			}
			decrypted, err := first.Combine(shares)
			require.NoError(t, err)
			assert.Zero(t, plaintext.Cmp(decrypted), "decrypted %v instead of %v", decrypted, plaintext)
		}
	}
}

func outputs(t *testing.T, result *test.Result[dkg.Machine]) map[party.ID]*paillier.PrivateThresholdKey {
	t.Helper()
	keys := make(map[party.ID]*paillier.PrivateThresholdKey, len(result.Outputs))
	for id, out := range result.Outputs {
		require.Len(t, out, 1, "party %s", id)
		key, ok := out[0].(*paillier.PrivateThresholdKey)
		require.True(t, ok)
		keys[id] = key
	}
	return keys
}

func TestDKG(t *testing.T) {
	prm, machines, start := setup(t, 3, 1, "dkg")
	result, err := test.Run(machines, start, test.Config{
		Seed:       1,
		NewContent: dkg.NewContent,
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Outputs, 3)
	checkKeys(t, outputs(t, result), prm)

	var attempt uint32
	for _, m := range result.Machines {
		assert.Equal(t, dkg.Done, m.State())
		assert.Zero(t, m.Deferred())
		if attempt == 0 {
			attempt = m.Attempt()
		}
		assert.Equal(t, attempt, m.Attempt())
	}
}

func TestDKGOutOfOrder(t *testing.T) {
	prm, machines, start := setup(t, 3, 1, "dkg out of order")
	result, err := test.Run(machines, start, test.Config{
		Seed:       2,
		Shuffle:    true,
		Duplicate:  true,
		NewContent: dkg.NewContent,
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Outputs, 3)
	checkKeys(t, outputs(t, result), prm)
}

func TestDKGFiveParties(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}
	prm, machines, start := setup(t, 5, 2, "dkg five parties")
	result, err := test.Run(machines, start, test.Config{
		Seed:       3,
		Shuffle:    true,
		NewContent: dkg.NewContent,
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Outputs, 5)
	checkKeys(t, outputs(t, result), prm)
}

func TestDKGInvalidShare(t *testing.T) {
	prm, machines, start := setup(t, 3, 1, "dkg invalid share")
	result, err := test.Run(machines, start, test.Config{
		Seed:       4,
		NewContent: dkg.NewContent,
		Tamper: func(from, to party.ID, content round.Content) {
			shares, ok := content.(*bgw.Shares)
			if !ok || from != "c" || to != "a" {
				return
			}
			shares.Q.Blind.Add(shares.Q.Blind, big.NewInt(1))
			shares.Q.Blind.Mod(shares.Q.Blind, prm.P)
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Outputs)

	// a detects the invalid share, b and c abort on a's complaint
	require.Len(t, result.Errors, 3)
	for id, err := range result.Errors {
		var abort *round.Abort
		require.True(t, errors.As(err, &abort), "party %s", id)
		assert.Equal(t, []party.ID{"c"}, abort.Culprits, "party %s", id)
	}
	assert.ErrorIs(t, result.Errors["a"], round.ErrInvalidShare)
	assert.ErrorIs(t, result.Errors["b"], round.ErrComplaint)
	assert.ErrorIs(t, result.Errors["c"], round.ErrComplaint)
}

func TestDKGEquivocatingDealer(t *testing.T) {
	prm, machines, start := setup(t, 3, 1, "dkg equivocation")
	rand := sample.NewSeededReader([]byte("equivocation"), "dkg test")
	result, err := test.Run(machines, start, test.Config{
		Seed:       5,
		Shuffle:    true,
		NewContent: dkg.NewContent,
		Tamper: func(from, to party.ID, content round.Content) {
			shares, ok := content.(*keyderivation.Shares)
			if !ok || from != "a" || to != "b" {
				return
			}
			f := polynomial.NewPolynomialMod(rand, prm.Threshold, big.NewInt(1), prm.P)
			shares.Beta = vss.Deal(rand, nil, prm.Group, f).ShareFor(2)
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Outputs)

	// b detects that a's share does not match a's broadcast commitments, a and c abort on b's complaint
	require.Len(t, result.Errors, 3)
	for id, err := range result.Errors {
		var abort *round.Abort
		require.True(t, errors.As(err, &abort), "party %s", id)
		assert.Equal(t, []party.ID{"a"}, abort.Culprits, "party %s", id)
	}
	assert.ErrorIs(t, result.Errors["b"], round.ErrInvalidShare)
	assert.ErrorIs(t, result.Errors["a"], round.ErrComplaint)
	assert.ErrorIs(t, result.Errors["c"], round.ErrComplaint)
}

func TestDKGDeferral(t *testing.T) {
	_, machines, _ := setup(t, 3, 1, "dkg deferral")
	m := machines["a"]

	// before the start, everything but complaints is deferred
	assert.Equal(t, dkg.Init, m.State())
	assert.Equal(t, round.Future, m.Classify(&bgw.Shares{Attempt: 1}))
	assert.Equal(t, round.Current, m.Classify(&round.Complaint{}))

	early := &round.Message{From: "b", To: "a", Content: &bgw.Point{Attempt: 1, N: big.NewInt(1)}}
	m, emissions, err := m.Step(nil, early)
	require.NoError(t, err)
	assert.Empty(t, emissions.Messages)
	assert.Equal(t, 1, m.Deferred())

	// duplicates are only deferred once
	m, _, err = m.Step(nil, early)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Deferred())

	// more than one attempt ahead is dropped
	m, _, err = m.Step(nil, &round.Message{From: "b", To: "a", Content: &bgw.Point{Attempt: 3, N: big.NewInt(1)}})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Deferred())

	m, emissions, err = m.Step(sample.NewSeededReader([]byte("deferral"), "dkg test"), m.Start())
	require.NoError(t, err)
	assert.Equal(t, dkg.ModulusGeneration, m.State())
	// one broadcast of commitments and a share tuple for each other party
	assert.Len(t, emissions.Messages, 3)
	// the point stays deferred until all shares were received
	assert.Equal(t, 1, m.Deferred())
	assert.Equal(t, round.Stale, m.Classify(&bgw.Shares{Attempt: 0}))

	_, _, err = m.Step(nil, m.Start())
	assert.ErrorIs(t, err, round.ErrUnexpectedEvent)
}

func TestDKGComplaint(t *testing.T) {
	_, machines, _ := setup(t, 3, 1, "dkg complaint")
	m := machines["b"]

	_, _, err := m.Step(nil, &round.Message{
		From:      "a",
		Broadcast: true,
		Content:   &round.Complaint{Raised: round.Tag{Phase: round.PhaseBGW, Attempt: 1, Number: 1}, Accused: "c"},
	})
	var abort *round.Abort
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, []party.ID{"c"}, abort.Culprits)
	assert.ErrorIs(t, err, round.ErrComplaint)

	// accusing an unknown party blames the accuser
	_, _, err = m.Step(nil, &round.Message{
		From:      "a",
		Broadcast: true,
		Content:   &round.Complaint{Accused: "z"},
	})
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, []party.ID{"a"}, abort.Culprits)
}

func TestNewContent(t *testing.T) {
	for _, tag := range []round.Tag{
		{Phase: round.PhaseBGW, Attempt: 1, Number: 1},
		{Phase: round.PhaseBGW, Attempt: 1, Number: 2},
		{Phase: round.PhaseBGW, Attempt: 1, Number: 3},
		{Phase: round.PhaseBiprimality, Attempt: 1, Number: 10},
		{Phase: round.PhaseKeyDerivation, Attempt: 1, Number: 1},
		{Phase: round.PhaseKeyDerivation, Attempt: 1, Number: 4},
		round.ComplaintTag,
	} {
		content, err := dkg.NewContent(tag)
		require.NoError(t, err, tag)
		assert.NotNil(t, content)
	}
	for _, tag := range []round.Tag{
		{Phase: round.PhaseBGW, Attempt: 1, Number: 4},
		{Phase: round.PhaseBiprimality, Attempt: 1, Number: 11},
		{Phase: round.PhaseKeyDerivation, Attempt: 1, Number: 5},
		{Phase: round.PhaseComplaint, Attempt: 1, Number: 1},
		{Phase: 0, Attempt: 1, Number: 1},
	} {
		_, err := dkg.NewContent(tag)
		assert.ErrorIs(t, err, round.ErrInvalidContent, tag)
	}
}
