package sample

import (
	"io"

	"golang.org/x/crypto/sha3"
)

const seededDomain = "paillier-dkg seeded reader"

// NewSeededReader returns a deterministic stream of pseudo-random bytes derived from seed.
//
// Two readers created with the same seed and customization return the same bytes.
// The stream is the output of cSHAKE256, which makes it suitable both for reproducible
// test executions and for values every party must derive identically from public data.
func NewSeededReader(seed []byte, customization string) io.Reader {
	h := sha3.NewCShake256([]byte(seededDomain), []byte(customization))
	_, _ = h.Write(seed)
	return h
}
