package arith

import (
	"math/big"

	"github.com/cronokirby/saferith"
)

// Modulus wraps a saferith.Modulus so that exponentiations with secret exponents
// are performed in constant time, while the rest of the protocol keeps working with big.Int.
type Modulus struct {
	*saferith.Modulus
	n *big.Int
}

// ModulusFromN creates a Modulus from n > 1.
// The value is copied.
func ModulusFromN(n *big.Int) *Modulus {
	nNat := new(saferith.Nat).SetBig(n, n.BitLen())
	return &Modulus{
		Modulus: saferith.ModulusFromNat(nNat),
		n:       new(big.Int).Set(n),
	}
}

// Big returns a copy of the modulus.
func (m *Modulus) Big() *big.Int {
	return new(big.Int).Set(m.n)
}

// Exp returns xᵉ (mod m), for any integer e.
// A negative exponent requires x to be invertible mod m, it returns (x⁻¹)^|e| (mod m).
func (m *Modulus) Exp(x, e *big.Int) *big.Int {
	xNat := m.reduce(x)
	size := e.BitLen()
	if size == 0 {
		size = 1
	}
	if e.Sign() >= 0 {
		eNat := new(saferith.Nat).SetBig(e, size)
		return new(saferith.Nat).Exp(xNat, eNat, m.Modulus).Big()
	}
	eInt := new(saferith.Int).SetBig(e, size)
	return new(saferith.Nat).ExpI(xNat, eInt, m.Modulus).Big()
}

// Mul returns x⋅y (mod m).
func (m *Modulus) Mul(x, y *big.Int) *big.Int {
	return new(saferith.Nat).ModMul(m.reduce(x), m.reduce(y), m.Modulus).Big()
}

// Inverse returns x⁻¹ (mod m), and false if x is not invertible.
func (m *Modulus) Inverse(x *big.Int) (*big.Int, bool) {
	inv := new(big.Int).ModInverse(x, m.n)
	if inv == nil {
		return nil, false
	}
	return inv, true
}

// reduce returns x mod m as a saferith.Nat, handling negative values.
func (m *Modulus) reduce(x *big.Int) *saferith.Nat {
	reduced := new(big.Int).Mod(x, m.n)
	return new(saferith.Nat).SetBig(reduced, m.n.BitLen())
}
