package sample

import (
	"fmt"
	"io"
	"math/big"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// Bits returns an integer uniformly distributed in [0, 2ᵇⁱᵗˢ).
func Bits(rand io.Reader, bits int) *big.Int {
	if bits <= 0 {
		return new(big.Int)
	}
	buf := make([]byte, (bits+7)/8)
	mustReadBits(rand, buf)
	// clear the excess high bits of the first byte
	if excess := uint(8*len(buf) - bits); excess > 0 {
		buf[0] &= byte(0xff >> excess)
	}
	return new(big.Int).SetBytes(buf)
}

// Range returns an integer uniformly distributed in [0, max).
//
// It panics if max ≤ 0.
func Range(rand io.Reader, max *big.Int) *big.Int {
	if max.Sign() <= 0 {
		panic("sample.Range: max must be positive")
	}
	bits := max.BitLen()
	for {
		out := Bits(rand, bits)
		if out.Cmp(max) < 0 {
			return out
		}
	}
}

// UnitModN returns a u ∈ ℤₙˣ.
func UnitModN(rand io.Reader, n *big.Int) *big.Int {
	gcd := new(big.Int)
	one := big.NewInt(1)
	for i := 0; i < maxIterations; i++ {
		u := Range(rand, n)
		if gcd.GCD(nil, nil, u, n).Cmp(one) == 0 {
			return u
		}
	}
	panic(ErrMaxIterations)
}

// Residue returns a random integer of exactly the given bit length, congruent
// to residue mod 4.
//
// The first party of the modulus generation picks its shares of p and q ≡ 3 (mod 4),
// all the others pick them ≡ 0 (mod 4), so that the sums are ≡ 3 (mod 4).
func Residue(rand io.Reader, bits int, residue uint) *big.Int {
	if bits < 3 {
		panic("sample.Residue: bit length must be at least 3")
	}
	out := Bits(rand, bits)
	out.SetBit(out, bits-1, 1)
	out.SetBit(out, 0, residue&1)
	out.SetBit(out, 1, (residue>>1)&1)
	return out
}
