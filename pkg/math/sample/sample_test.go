package sample

import (
	"bytes"
	"crypto/rand"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBits(t *testing.T) {
	for _, bits := range []int{1, 7, 8, 9, 64, 127} {
		bound := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		for i := 0; i < 50; i++ {
			x := Bits(rand.Reader, bits)
			assert.True(t, x.Sign() >= 0)
			assert.True(t, x.Cmp(bound) < 0, "%d bits: got %v", bits, x)
		}
	}
	assert.Zero(t, Bits(rand.Reader, 0).Sign())
}

func TestRange(t *testing.T) {
	max := big.NewInt(1000)
	for i := 0; i < 200; i++ {
		x := Range(rand.Reader, max)
		require.True(t, x.Sign() >= 0)
		require.True(t, x.Cmp(max) < 0)
	}
	assert.Panics(t, func() { Range(rand.Reader, big.NewInt(0)) })
}

func TestResidue(t *testing.T) {
	four := big.NewInt(4)
	for _, residue := range []uint{0, 3} {
		for i := 0; i < 50; i++ {
			x := Residue(rand.Reader, 16, residue)
			assert.Equal(t, 16, x.BitLen())
			assert.Equal(t, int64(residue), new(big.Int).Mod(x, four).Int64())
		}
	}
}

func TestUnitModN(t *testing.T) {
	n := big.NewInt(3 * 5 * 7 * 11)
	for i := 0; i < 50; i++ {
		u := UnitModN(rand.Reader, n)
		assert.Equal(t, int64(1), new(big.Int).GCD(nil, nil, u, n).Int64())
	}
}

func TestSeededReader(t *testing.T) {
	a := make([]byte, 64)
	b := make([]byte, 64)
	c := make([]byte, 64)
	_, err := io.ReadFull(NewSeededReader([]byte("seed"), "test"), a)
	require.NoError(t, err)
	_, err = io.ReadFull(NewSeededReader([]byte("seed"), "test"), b)
	require.NoError(t, err)
	_, err = io.ReadFull(NewSeededReader([]byte("seed"), "other"), c)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))
	assert.False(t, bytes.Equal(a, c))
}

func TestPrime(t *testing.T) {
	for _, bits := range []int{8, 64, 128} {
		p, err := Prime(rand.Reader, bits)
		require.NoError(t, err)
		assert.Equal(t, bits, p.BitLen())
		assert.True(t, p.ProbablyPrime(20))
	}
	p1, err := Prime(NewSeededReader([]byte{1}, "prime"), 96)
	require.NoError(t, err)
	p2, err := Prime(NewSeededReader([]byte{1}, "prime"), 96)
	require.NoError(t, err)
	assert.Equal(t, 0, p1.Cmp(p2))

	_, err = Prime(rand.Reader, 2)
	assert.Error(t, err)
}
