// Package paillier implements the parts of the threshold Paillier cryptosystem needed to use
// the keys produced by the distributed key generation: encryption, partial decryption and
// combination of t+1 partial decryptions.
package paillier

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/pkg/math/arith"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
)

var (
	// ErrPlaintextRange is returned when a message does not lie in [0, N).
	ErrPlaintextRange = errors.New("paillier: plaintext out of range")
	// ErrCiphertextRange is returned when a ciphertext is not a unit mod N².
	ErrCiphertextRange = errors.New("paillier: ciphertext out of range")
)

// PublicKey is a Paillier public key with modulus N.
type PublicKey struct {
	n, nSquared *big.Int
	nSquaredMod *arith.Modulus
}

// NewPublicKey returns the public key with modulus n.
func NewPublicKey(n *big.Int) *PublicKey {
	nSquared := new(big.Int).Mul(n, n)
	return &PublicKey{
		n:           new(big.Int).Set(n),
		nSquared:    nSquared,
		nSquaredMod: arith.ModulusFromN(nSquared),
	}
}

// N returns the big.Int N of the public key.
// For efficiency, the value returned is a pointer to the same underlying N.
// WARNING: Do not modify the returned value.
func (pk *PublicKey) N() *big.Int {
	return pk.n
}

// Equal returns true if pk = other.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.n.Cmp(other.n) == 0
}

// Ciphertext represents an integer of the form
//
//	ct = (1+N)ᵐρᴺ (mod N²)
type Ciphertext struct {
	C *big.Int
}

// Enc returns the encryption of m under the public key pk, together with the nonce ρ ∈ ℤₙˣ.
//
// ct = (1+N)ᵐρᴺ (mod N²)
func (pk *PublicKey) Enc(rand io.Reader, m *big.Int) (*Ciphertext, *big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pk.n) >= 0 {
		return nil, nil, ErrPlaintextRange
	}
	nonce := sample.UnitModN(rand, pk.n)

	// (1+N)ᵐ = 1 + m⋅N (mod N²)
	c := new(big.Int).Mul(m, pk.n)
	c.Add(c, big.NewInt(1))
	c.Mod(c, pk.nSquared)

	rho := pk.nSquaredMod.Exp(nonce, pk.n)
	return &Ciphertext{C: pk.nSquaredMod.Mul(c, rho)}, nonce, nil
}

// Add returns the homomorphic sum ct₁ ⊕ ct₂.
// ct = ct₁•ct₂ (mod N²)
func (pk *PublicKey) Add(ct1, ct2 *Ciphertext) *Ciphertext {
	return &Ciphertext{C: pk.nSquaredMod.Mul(ct1.C, ct2.C)}
}

// ValidateCiphertext checks that ct is a unit in ℤ_N².
func (pk *PublicKey) ValidateCiphertext(ct *Ciphertext) error {
	if ct == nil || ct.C == nil || ct.C.Sign() <= 0 || ct.C.Cmp(pk.nSquared) >= 0 {
		return ErrCiphertextRange
	}
	if new(big.Int).GCD(nil, nil, ct.C, pk.n).Cmp(big.NewInt(1)) != 0 {
		return fmt.Errorf("%w: not a unit", ErrCiphertextRange)
	}
	return nil
}

// l returns L(u) = (u-1)/N.
func (pk *PublicKey) l(u *big.Int) *big.Int {
	out := new(big.Int).Sub(u, big.NewInt(1))
	return out.Quo(out, pk.n)
}
