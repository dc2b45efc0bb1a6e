package hash

import (
	"fmt"
	"io"
	"math/big"

	"github.com/zeebo/blake3"
)

// DigestLengthBytes is the length of the output of Sum.
const DigestLengthBytes = 64

// Hash is the hash function we use for deriving session identifiers, per-round
// challenges and group generators.
//
// Internally, this is a wrapper around blake3, but any hash function with
// an easily extendable output would work as well.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct where the internal hash function is initialized with the given data.
func New(initialData ...WriterToWithDomain) *Hash {
	hash := &Hash{h: blake3.New()}
	for _, d := range initialData {
		_ = hash.WriteAny(d)
	}
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - *big.Int
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the first two types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var err error
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			err = writeWithDomain(hash.h, &BytesWithDomain{
				TheDomain: "[]byte",
				Bytes:     t,
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write []byte: %w", err)
			}
		case *big.Int:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *big.Int: nil")
			}
			// the sign is written first so that x and -x are separated
			sign := []byte{0}
			if t.Sign() < 0 {
				sign[0] = 1
			}
			err = writeWithDomain(hash.h, &BytesWithDomain{
				TheDomain: "big.Int",
				Bytes:     append(sign, t.Bytes()...),
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write *big.Int: %w", err)
			}
		case WriterToWithDomain:
			if err = writeWithDomain(hash.h, t); err != nil {
				return fmt.Errorf("hash.Hash: write io.WriterTo: %w", err)
			}
		default:
			panic("hash.Hash: unsupported type")
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}
