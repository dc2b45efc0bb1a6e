package polynomial

import (
	"io"
	"math/big"
)

// Sharing is a pair of polynomials (f, h) where f shares a secret with degree t,
// and h is an independent sharing of 0 with degree 2t.
//
// Adding h(j) to a product of two degree t sharings re-randomizes it,
// so that only the reconstructed value is revealed.
type Sharing struct {
	F, H *Polynomial
}

// Share is the pair (f(j), h(j)) destined to party j.
type Share struct {
	F, H *big.Int
}

// NewSharing creates the sharing pair of secret in ℤₚ.
func NewSharing(rand io.Reader, secret *big.Int, degree int, modulus *big.Int) *Sharing {
	return &Sharing{
		F: NewPolynomialMod(rand, degree, secret, modulus),
		H: NewPolynomialMod(rand, 2*degree, nil, modulus),
	}
}

// Share returns (f(j), h(j)).
func (s *Sharing) Share(j int) Share {
	return Share{
		F: s.F.Evaluate(j),
		H: s.H.Evaluate(j),
	}
}

// Sum returns f(j) + h(j), unreduced.
func (s Share) Sum() *big.Int {
	return new(big.Int).Add(s.F, s.H)
}
