package paillier

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/pkg/math/arith"
	"github.com/taurusgroup/paillier-dkg/pkg/math/polynomial"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// PrivateThresholdKey is one party's share of a threshold Paillier private key,
// as produced by the distributed key generation.
//
// Any Quorum parties can decrypt together: party i publishes c^{2δfᵢ}, and the
// shares are combined with the integer coefficients δ⋅λᵢ.
type PrivateThresholdKey struct {
	// N is the public modulus.
	N *big.Int
	// ThetaPrime is θ' = δ⋅(β⋅φ(N) + N⋅R), which is invertible mod N.
	ThetaPrime *big.Int
	// Parties is the total number of shares n.
	Parties int
	// Quorum is the number of shares t+1 required to decrypt.
	Quorum int
	// V generates the squares of ℤ_N², used for the verification keys.
	V *big.Int
	// VerificationKeys contains vₖ = v^{δ⋅fₖ} (mod N²) for each party index k in [1, n], in order.
	VerificationKeys []*big.Int
	// Share is this party's private key share fᵢ.
	Share *big.Int
	// Index is this party's index in [1, n].
	Index int
	// ID is this party's ID.
	ID party.ID
}

// DecryptionShare is the partial decryption of a ciphertext by the party with the given index.
type DecryptionShare struct {
	Index int
	C     *big.Int
}

// PublicKey returns the public Paillier key.
func (k *PrivateThresholdKey) PublicKey() *PublicKey {
	return NewPublicKey(k.N)
}

// Delta returns δ = n!.
func (k *PrivateThresholdKey) Delta() *big.Int {
	return polynomial.Factorial(k.Parties)
}

// Validate checks that the key is complete and consistent.
func (k *PrivateThresholdKey) Validate() error {
	if k == nil || k.N == nil || k.ThetaPrime == nil || k.V == nil || k.Share == nil {
		return errors.New("paillier: key has missing fields")
	}
	if k.N.Sign() <= 0 || k.N.Bit(0) == 0 {
		return errors.New("paillier: modulus must be odd and positive")
	}
	if k.Quorum < 1 || k.Quorum > k.Parties {
		return fmt.Errorf("paillier: quorum %d is invalid for %d parties", k.Quorum, k.Parties)
	}
	if k.Index < 1 || k.Index > k.Parties {
		return fmt.Errorf("paillier: index %d is invalid for %d parties", k.Index, k.Parties)
	}
	if len(k.VerificationKeys) != k.Parties {
		return fmt.Errorf("paillier: got %d verification keys, expected %d", len(k.VerificationKeys), k.Parties)
	}
	one := big.NewInt(1)
	if new(big.Int).GCD(nil, nil, k.ThetaPrime, k.N).Cmp(one) != 0 {
		return errors.New("paillier: θ' is not invertible mod N")
	}
	nSquared := new(big.Int).Mul(k.N, k.N)
	for i, vk := range k.VerificationKeys {
		if vk == nil || vk.Sign() <= 0 || vk.Cmp(nSquared) >= 0 {
			return fmt.Errorf("paillier: verification key %d out of range", i+1)
		}
	}
	if vk := arith.ModulusFromN(nSquared).Exp(k.V, new(big.Int).Mul(k.Delta(), k.Share)); vk.Cmp(k.VerificationKeys[k.Index-1]) != 0 {
		return errors.New("paillier: share does not match its verification key")
	}
	return nil
}

// Decrypt returns this party's decryption share c^{2δfᵢ} (mod N²).
func (k *PrivateThresholdKey) Decrypt(ct *Ciphertext) (*DecryptionShare, error) {
	pk := k.PublicKey()
	if err := pk.ValidateCiphertext(ct); err != nil {
		return nil, err
	}
	e := new(big.Int).Mul(k.Delta(), k.Share)
	e.Lsh(e, 1)
	return &DecryptionShare{
		Index: k.Index,
		C:     pk.nSquaredMod.Exp(ct.C, e),
	}, nil
}

// Combine recovers the plaintext from at least Quorum decryption shares with distinct indices.
//
// With λᵢ the Lagrange coefficients at 0 for the indices of the shares,
//
//	c' = ∏ cᵢ^{2δλᵢ} = c^{4δ²⋅δβφ} (mod N²)
//	m  = L(c')⋅(4δ²θ')⁻¹ (mod N)
func (k *PrivateThresholdKey) Combine(shares []*DecryptionShare) (*big.Int, error) {
	if len(shares) < k.Quorum {
		return nil, fmt.Errorf("paillier.Combine: got %d shares, need %d", len(shares), k.Quorum)
	}
	shares = shares[:k.Quorum]

	pk := k.PublicKey()
	domain := make([]int, 0, len(shares))
	for _, s := range shares {
		if s == nil || s.C == nil {
			return nil, errors.New("paillier.Combine: nil share")
		}
		if s.Index < 1 || s.Index > k.Parties {
			return nil, fmt.Errorf("paillier.Combine: invalid index %d", s.Index)
		}
		if err := pk.ValidateCiphertext(&Ciphertext{C: s.C}); err != nil {
			return nil, fmt.Errorf("paillier.Combine: share %d: %w", s.Index, err)
		}
		domain = append(domain, s.Index)
	}
	delta := k.Delta()
	coefficients, err := polynomial.ScaledCoefficients(domain, delta)
	if err != nil {
		return nil, fmt.Errorf("paillier.Combine: %w", err)
	}

	product := big.NewInt(1)
	for _, s := range shares {
		e := new(big.Int).Lsh(coefficients[s.Index], 1)
		product = pk.nSquaredMod.Mul(product, pk.nSquaredMod.Exp(s.C, e))
	}

	// 4δ²θ'
	denominator := new(big.Int).Mul(delta, delta)
	denominator.Lsh(denominator, 2)
	denominator.Mul(denominator, k.ThetaPrime)
	if denominator.ModInverse(denominator, k.N) == nil {
		return nil, errors.New("paillier.Combine: 4δ²θ' is not invertible")
	}

	m := pk.l(product)
	m.Mul(m, denominator)
	return m.Mod(m, k.N), nil
}
