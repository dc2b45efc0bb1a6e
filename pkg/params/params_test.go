package params

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
)

func TestNew(t *testing.T) {
	p, err := New(3, 1, 16, WithRand(sample.NewSeededReader([]byte("params"), "test")))
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, int64(DefaultKappa), p.Kappa)
	assert.Equal(t, p.PrimeBits(), p.P.BitLen())
	assert.Equal(t, 0, p.Delta().Cmp(big.NewInt(6)))
	assert.Equal(t, 2, p.Quorum())

	// no wrap-around for BGW: n⋅(3⋅2ᵏ)²
	bgw := new(big.Int).Lsh(big.NewInt(3), uint(p.Bits))
	bgw.Mul(bgw, bgw)
	bgw.Mul(bgw, big.NewInt(int64(p.Parties)))
	assert.Equal(t, 1, p.P.Cmp(bgw))

	// no wrap-around for θ: δ⋅2⋅n⋅K²⋅N²
	n := p.MaxModulus()
	theta := new(big.Int).Mul(n, n)
	theta.Mul(theta, p.Delta())
	kappa := big.NewInt(p.Kappa)
	theta.Mul(theta, kappa)
	theta.Mul(theta, kappa)
	theta.Mul(theta, big.NewInt(int64(2*p.Parties)))
	assert.Equal(t, 1, p.P.Cmp(theta))

	again, err := New(3, 1, 16, WithRand(sample.NewSeededReader([]byte("params"), "test")))
	require.NoError(t, err)
	assert.Equal(t, 0, p.P.Cmp(again.P))
	assert.True(t, p.Group.Equal(again.Group))
}

func TestValidateGroup(t *testing.T) {
	p, err := New(3, 1, 16, WithRand(sample.NewSeededReader([]byte("params"), "group")))
	require.NoError(t, err)

	// same order P, but generators that were not derived from it
	swapped := *p.Group
	swapped.G, swapped.H = p.Group.H, p.Group.G
	forged := *p
	forged.Group = &swapped
	assert.ErrorIs(t, forged.Validate(), ErrConfiguration)

	forged.Group = nil
	assert.ErrorIs(t, forged.Validate(), ErrConfiguration)
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name    string
		n, t, k int
		opts    []Option
	}{
		{"too few parties", 2, 1, 16, nil},
		{"threshold too large", 4, 2, 16, nil},
		{"zero threshold", 3, 0, 16, nil},
		{"small factors", 3, 1, 15, nil},
		{"invalid kappa", 3, 1, 16, []Option{WithKappa(0)}},
		{"small prime", 3, 1, 16, []Option{WithPrime(big.NewInt(101))}},
		{"composite prime", 3, 1, 16, []Option{WithPrime(new(big.Int).Lsh(big.NewInt(1), 200))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.n, tt.t, tt.k, tt.opts...)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestWithPrime(t *testing.T) {
	p, err := New(5, 2, 16, WithRand(sample.NewSeededReader([]byte("params"), "prime")))
	require.NoError(t, err)

	q, err := New(5, 2, 16, WithPrime(p.P))
	require.NoError(t, err)
	assert.Equal(t, 0, p.P.Cmp(q.P))
	assert.Equal(t, int64(120), q.Delta().Int64())
}
