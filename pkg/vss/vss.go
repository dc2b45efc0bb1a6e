// Package vss implements Pedersen verifiable secret sharing over a Schnorr group of order P.
//
// A dealer holding a polynomial f of degree t samples a blinding polynomial r of the same degree,
// and publishes Cₖ = G^{aₖ}⋅H^{bₖ} for each pair of coefficients. Party j receiving (f(j), r(j))
// checks G^{f(j)}⋅H^{r(j)} = ∏ₖ Cₖ^{jᵏ}.
package vss

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/pkg/math/polynomial"
	"github.com/taurusgroup/paillier-dkg/pkg/pool"
)

var (
	// ErrDegree is returned when the number of commitments does not match the expected degree.
	ErrDegree = errors.New("vss: commitment has the wrong degree")
	// ErrShare is returned when a share is not consistent with the commitments.
	ErrShare = errors.New("vss: share does not match commitment")
)

// Commitments is the vector C₀, …, Cₜ published by a dealer for one polynomial.
type Commitments []*big.Int

// Dealing is a polynomial together with its blinding polynomial and commitments.
type Dealing struct {
	f, r        *polynomial.Polynomial
	commitments Commitments
}

// Deal commits to f. The blinding polynomial has the same degree, with coefficients in ℤₚ.
//
// f may be defined over the integers, its coefficients are reduced mod P before committing.
// The commitments are computed in parallel using pl, which may be nil.
func Deal(rand io.Reader, pl *pool.Pool, group *Group, f *polynomial.Polynomial) *Dealing {
	r := polynomial.NewPolynomialMod(rand, f.Degree(), nil, group.P)
	a := f.Coefficients()
	b := r.Coefficients()
	results := pl.Parallelize(len(a), func(k int) interface{} {
		return group.Commit(a[k], b[k])
	})
	commitments := make(Commitments, len(a))
	for k, c := range results {
		commitments[k] = c.(*big.Int)
	}
	return &Dealing{
		f:           f,
		r:           r,
		commitments: commitments,
	}
}

// Share returns (f(j), r(j)).
func (d *Dealing) Share(j int) (value, blind *big.Int) {
	return d.f.Evaluate(j), d.r.Evaluate(j)
}

// Commitments returns a copy of the published commitments.
func (d *Dealing) Commitments() Commitments {
	return d.commitments.Copy()
}

// Copy returns a deep copy of c.
func (c Commitments) Copy() Commitments {
	out := make(Commitments, len(c))
	for i, v := range c {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

// Degree returns the degree of the committed polynomial.
func (c Commitments) Degree() int {
	return len(c) - 1
}

// Validate checks that c commits to a polynomial of the given degree,
// with elements in the subgroup of order P.
func (c Commitments) Validate(group *Group, degree int) error {
	if len(c) != degree+1 {
		return fmt.Errorf("%w: got %d commitments, expected %d", ErrDegree, len(c), degree+1)
	}
	one := big.NewInt(1)
	for _, v := range c {
		if v == nil || v.Sign() <= 0 || v.Cmp(group.Q) >= 0 {
			return fmt.Errorf("%w: commitment out of range", ErrShare)
		}
		if new(big.Int).Exp(v, group.P, group.Q).Cmp(one) != 0 {
			return fmt.Errorf("%w: commitment not in the subgroup", ErrShare)
		}
	}
	return nil
}

// Evaluate returns ∏ₖ Cₖ^{jᵏ} (mod Q), the commitment to f(j).
func (c Commitments) Evaluate(group *Group, j int) *big.Int {
	x := big.NewInt(int64(j))
	power := big.NewInt(1)
	result := big.NewInt(1)
	tmp := new(big.Int)
	for _, ck := range c {
		tmp.Exp(ck, power, group.Q)
		result.Mul(result, tmp)
		result.Mod(result, group.Q)
		power.Mul(power, x)
		power.Mod(power, group.P)
	}
	return result
}

// Verify checks that (value, blind) is the share of party j for the polynomial committed to by c,
// and that the polynomial has the given degree.
func (c Commitments) Verify(group *Group, j, degree int, value, blind *big.Int) error {
	if err := c.Validate(group, degree); err != nil {
		return err
	}
	if value == nil || blind == nil {
		return fmt.Errorf("%w: missing share", ErrShare)
	}
	if group.Commit(value, blind).Cmp(c.Evaluate(group, j)) != 0 {
		return ErrShare
	}
	return nil
}

// Share is what a dealer sends to party j for one committed polynomial.
// The commitments it is checked against are broadcast separately.
type Share struct {
	Value *big.Int
	Blind *big.Int
}

// ShareFor returns party j's share.
func (d *Dealing) ShareFor(j int) *Share {
	value, blind := d.Share(j)
	return &Share{Value: value, Blind: blind}
}

// Verify checks that s is party j's share of the polynomial of the given degree committed to by c.
func (s *Share) Verify(group *Group, c Commitments, j, degree int) error {
	if s == nil {
		return fmt.Errorf("%w: missing share", ErrShare)
	}
	return c.Verify(group, j, degree, s.Value, s.Blind)
}

// Valid returns true if no field is nil.
func (s *Share) Valid() bool {
	return s != nil && s.Value != nil && s.Blind != nil
}

// Valid returns true if c is non-empty and has no nil element.
func (c Commitments) Valid() bool {
	if len(c) == 0 {
		return false
	}
	for _, v := range c {
		if v == nil {
			return false
		}
	}
	return true
}
