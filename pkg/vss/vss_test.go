package vss

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/paillier-dkg/pkg/math/polynomial"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/pool"
)

func testGroup(t *testing.T) *Group {
	p, err := sample.Prime(sample.NewSeededReader([]byte("vss"), "group"), 128)
	require.NoError(t, err)
	group, err := NewGroup(p)
	require.NoError(t, err)
	return group
}

func TestNewGroup(t *testing.T) {
	group := testGroup(t)
	one := big.NewInt(1)

	assert.True(t, group.Q.ProbablyPrime(20))
	qMinusOne := new(big.Int).Sub(group.Q, one)
	assert.Zero(t, new(big.Int).Mod(qMinusOne, group.P).Sign(), "P must divide Q-1")

	for _, g := range []*big.Int{group.G, group.H} {
		assert.Equal(t, 1, g.Cmp(one))
		assert.Equal(t, 0, new(big.Int).Exp(g, group.P, group.Q).Cmp(one), "generator must have order P")
	}
	assert.NotEqual(t, 0, group.G.Cmp(group.H))

	again, err := NewGroup(group.P)
	require.NoError(t, err)
	assert.True(t, group.Equal(again), "group derivation must be deterministic")

	_, err = NewGroup(big.NewInt(15))
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	group := testGroup(t)
	degree := 2
	secret := sample.Range(rand.Reader, group.P)
	f := polynomial.NewPolynomialMod(rand.Reader, degree, secret, group.P)
	dealing := Deal(rand.Reader, nil, group, f)
	commitments := dealing.Commitments()

	for j := 1; j <= 5; j++ {
		value, blind := dealing.Share(j)
		assert.NoError(t, commitments.Verify(group, j, degree, value, blind))

		wrong := new(big.Int).Add(value, big.NewInt(1))
		assert.ErrorIs(t, commitments.Verify(group, j, degree, wrong, blind), ErrShare)

		// share of another party
		assert.ErrorIs(t, commitments.Verify(group, j+1, degree, value, blind), ErrShare)
	}

	value, blind := dealing.Share(1)
	assert.ErrorIs(t, commitments.Verify(group, 1, degree+1, value, blind), ErrDegree)
	assert.ErrorIs(t, commitments[:degree].Verify(group, 1, degree, value, blind), ErrDegree)
}

func TestVerifyIntegerPolynomial(t *testing.T) {
	group := testGroup(t)
	f := polynomial.NewPolynomial(rand.Reader, 1, big.NewInt(-42), 300)
	pl := pool.NewPool(2)
	defer pl.TearDown()
	dealing := Deal(rand.Reader, pl, group, f)
	for j := 1; j <= 3; j++ {
		value, blind := dealing.Share(j)
		assert.NoError(t, dealing.Commitments().Verify(group, j, 1, value, blind))
	}
}

func TestCommitmentsOutsideSubgroup(t *testing.T) {
	group := testGroup(t)
	f := polynomial.NewPolynomialMod(rand.Reader, 1, big.NewInt(3), group.P)
	dealing := Deal(rand.Reader, nil, group, f)
	commitments := dealing.Commitments()
	commitments[0] = new(big.Int).Sub(group.Q, big.NewInt(1))
	value, blind := dealing.Share(1)
	assert.ErrorIs(t, commitments.Verify(group, 1, 1, value, blind), ErrShare)
}

func TestShareFor(t *testing.T) {
	group := testGroup(t)
	f := polynomial.NewPolynomialMod(rand.Reader, 2, big.NewInt(5), group.P)
	dealing := Deal(rand.Reader, nil, group, f)
	commitments := dealing.Commitments()
	require.True(t, commitments.Valid())

	share := dealing.ShareFor(4)
	require.True(t, share.Valid())
	assert.NoError(t, share.Verify(group, commitments, 4, 2))
	assert.Error(t, share.Verify(group, commitments, 3, 2))

	var missing *Share
	assert.False(t, missing.Valid())
	assert.ErrorIs(t, missing.Verify(group, commitments, 1, 2), ErrShare)
	assert.False(t, Commitments{}.Valid())
	assert.False(t, Commitments{big.NewInt(1), nil}.Valid())
}

func TestShareOfOtherDealing(t *testing.T) {
	group := testGroup(t)
	secret := big.NewInt(5)
	dealing := Deal(rand.Reader, nil, group, polynomial.NewPolynomialMod(rand.Reader, 2, secret, group.P))
	other := Deal(rand.Reader, nil, group, polynomial.NewPolynomialMod(rand.Reader, 2, secret, group.P))

	// a share is only accepted against the commitments of the dealing it comes from
	share := other.ShareFor(2)
	assert.NoError(t, share.Verify(group, other.Commitments(), 2, 2))
	assert.ErrorIs(t, share.Verify(group, dealing.Commitments(), 2, 2), ErrShare)
}
