package hash

import (
	"bytes"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_WriteAny(t *testing.T) {
	var err error

	testFunc := func(vs ...interface{}) error {
		h := New()
		for _, v := range vs {
			err = h.WriteAny(v)
			if err != nil {
				return err
			}
		}
		return nil
	}

	assert.NoError(t, testFunc(big.NewInt(35)))
	assert.NoError(t, testFunc(big.NewInt(-35)))
	assert.NoError(t, testFunc([]byte{1, 4, 6}))
	assert.NoError(t, testFunc(&BytesWithDomain{TheDomain: "test", Bytes: []byte{1}}))

	var i *big.Int
	assert.Error(t, testFunc(i))

	assert.NoError(t, testFunc(big.NewInt(35), []byte{1, 4, 6}))
}

func TestHash_Sign(t *testing.T) {
	h1, h2 := New(), New()
	require.NoError(t, h1.WriteAny(big.NewInt(35)))
	require.NoError(t, h2.WriteAny(big.NewInt(-35)))
	assert.False(t, bytes.Equal(h1.Sum(), h2.Sum()))
}

func TestHash_Clone(t *testing.T) {
	h := New(&BytesWithDomain{TheDomain: "init", Bytes: []byte("data")})
	c := h.Clone()
	require.NoError(t, c.WriteAny([]byte{1}))
	assert.False(t, bytes.Equal(h.Sum(), c.Sum()))
	assert.True(t, bytes.Equal(h.Sum(), h.Clone().Sum()))

	buf := make([]byte, 2*DigestLengthBytes)
	_, err := io.ReadFull(h.Digest(), buf)
	require.NoError(t, err)
	assert.Equal(t, h.Sum(), buf[:DigestLengthBytes])
}
