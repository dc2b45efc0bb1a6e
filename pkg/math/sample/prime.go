package sample

import (
	"fmt"
	"io"
	"math/big"
)

// the number of iterations to use when checking primality
//
// 20 is the same number that Go uses internally.
const primalityIterations = 20

// maxPrimeIterations is the number of candidates to try before giving up.
const maxPrimeIterations = 100_000

// ErrMaxPrimeIterations is the error we return when we fail to generate a prime.
var ErrMaxPrimeIterations = fmt.Errorf("sample: failed to generate prime after %d iterations", maxPrimeIterations)

// Prime returns a prime of exactly the given bit length.
//
// Unlike crypto/rand.Prime, the output only depends on the bytes read from rand,
// so that a seeded reader always yields the same prime.
func Prime(rand io.Reader, bits int) (*big.Int, error) {
	if bits < 3 {
		return nil, fmt.Errorf("sample.Prime: prime size must be at least 3-bit, got %d", bits)
	}
	two := big.NewInt(2)
	p := Bits(rand, bits)
	p.SetBit(p, bits-1, 1)
	p.SetBit(p, 0, 1)
	for i := 0; i < maxPrimeIterations; i++ {
		if p.BitLen() != bits {
			p = Bits(rand, bits)
			p.SetBit(p, bits-1, 1)
			p.SetBit(p, 0, 1)
		}
		if p.ProbablyPrime(primalityIterations) {
			return p, nil
		}
		p.Add(p, two)
	}
	return nil, ErrMaxPrimeIterations
}
