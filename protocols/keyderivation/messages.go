package keyderivation

import (
	"fmt"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/vss"
)

// Commitments is the broadcast of dealer i's Pedersen commitments to the polynomials sharing
// βᵢ, δ⋅Rᵢ, Φᵢ and 0. ΔR is shared over the integers, its commitments bind its value mod P.
type Commitments struct {
	Attempt uint32
	Beta    vss.Commitments
	DeltaR  vss.Commitments
	Phi     vss.Commitments
	H       vss.Commitments
}

// Tag implements round.Content.
func (c *Commitments) Tag() round.Tag {
	return round.Tag{Phase: round.PhaseKeyDerivation, Attempt: c.Attempt, Number: 1}
}

// Shares is the share tuple (βᵢⱼ, ΔRᵢⱼ, Φᵢⱼ, hᵢⱼ) that dealer i sends to party j.
type Shares struct {
	Attempt uint32
	Beta    *vss.Share
	DeltaR  *vss.Share
	Phi     *vss.Share
	H       *vss.Share
}

// Tag implements round.Content.
func (s *Shares) Tag() round.Tag {
	return round.Tag{Phase: round.PhaseKeyDerivation, Attempt: s.Attempt, Number: 2}
}

// Theta is party i's point θᵢ of the degree 2t sharing of θ'.
type Theta struct {
	Attempt uint32
	Theta   *big.Int
}

// Tag implements round.Content.
func (t *Theta) Tag() round.Tag {
	return round.Tag{Phase: round.PhaseKeyDerivation, Attempt: t.Attempt, Number: 3}
}

// VerificationKey is party i's vᵢ = v^{δ⋅fᵢ} (mod N²).
type VerificationKey struct {
	Attempt         uint32
	VerificationKey *big.Int
}

// Tag implements round.Content.
func (vk *VerificationKey) Tag() round.Tag {
	return round.Tag{Phase: round.PhaseKeyDerivation, Attempt: vk.Attempt, Number: 4}
}

// NewContent returns an empty content for the given step, ready for unmarshalling.
func NewContent(number round.Number) (round.Content, error) {
	switch number {
	case 1:
		return &Commitments{}, nil
	case 2:
		return &Shares{}, nil
	case 3:
		return &Theta{}, nil
	case 4:
		return &VerificationKey{}, nil
	default:
		return nil, fmt.Errorf("keyderivation: no content for step %d: %w", number, round.ErrInvalidContent)
	}
}

func (c *Commitments) validate(group *vss.Group, threshold int) error {
	if !c.Beta.Valid() || !c.DeltaR.Valid() || !c.Phi.Valid() || !c.H.Valid() {
		return round.ErrNilFields
	}
	if err := c.Beta.Validate(group, threshold); err != nil {
		return fmt.Errorf("β: %w", err)
	}
	if err := c.DeltaR.Validate(group, threshold); err != nil {
		return fmt.Errorf("ΔR: %w", err)
	}
	if err := c.Phi.Validate(group, threshold); err != nil {
		return fmt.Errorf("Φ: %w", err)
	}
	if err := c.H.Validate(group, 2*threshold); err != nil {
		return fmt.Errorf("h: %w", err)
	}
	return nil
}

func (s *Shares) validate() error {
	if !s.Beta.Valid() || !s.DeltaR.Valid() || !s.Phi.Valid() || !s.H.Valid() {
		return round.ErrNilFields
	}
	return nil
}

func (t *Theta) validate(prime *big.Int) error {
	if t.Theta == nil {
		return round.ErrNilFields
	}
	if t.Theta.Sign() < 0 || t.Theta.Cmp(prime) >= 0 {
		return fmt.Errorf("%w: θ out of range", round.ErrInvalidContent)
	}
	return nil
}

func (vk *VerificationKey) validate(nSquared *big.Int) error {
	if vk.VerificationKey == nil {
		return round.ErrNilFields
	}
	if vk.VerificationKey.Sign() <= 0 || vk.VerificationKey.Cmp(nSquared) >= 0 {
		return fmt.Errorf("%w: verification key out of range", round.ErrInvalidContent)
	}
	return nil
}
