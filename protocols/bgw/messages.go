package bgw

import (
	"fmt"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/vss"
)

// Commitments is the broadcast of dealer i's Pedersen commitments to the polynomials sharing pᵢ, qᵢ and 0.
type Commitments struct {
	Attempt uint32
	P, Q, H vss.Commitments
}

// Tag implements round.Content.
func (c *Commitments) Tag() round.Tag {
	return round.Tag{Phase: round.PhaseBGW, Attempt: c.Attempt, Number: 1}
}

// Shares is the share tuple (pᵢⱼ, qᵢⱼ, hᵢⱼ) that dealer i sends to party j.
type Shares struct {
	Attempt uint32
	P, Q, H *vss.Share
}

// Tag implements round.Content.
func (s *Shares) Tag() round.Tag {
	return round.Tag{Phase: round.PhaseBGW, Attempt: s.Attempt, Number: 2}
}

// Point is party i's point Nᵢ of the degree 2t sharing of N.
type Point struct {
	Attempt uint32
	N       *big.Int
}

// Tag implements round.Content.
func (p *Point) Tag() round.Tag {
	return round.Tag{Phase: round.PhaseBGW, Attempt: p.Attempt, Number: 3}
}

// NewContent returns an empty content for the given step, ready for unmarshalling.
func NewContent(number round.Number) (round.Content, error) {
	switch number {
	case 1:
		return &Commitments{}, nil
	case 2:
		return &Shares{}, nil
	case 3:
		return &Point{}, nil
	default:
		return nil, fmt.Errorf("bgw: no content for step %d: %w", number, round.ErrInvalidContent)
	}
}

func (p *Point) validate(prime *big.Int) error {
	if p.N == nil {
		return round.ErrNilFields
	}
	if p.N.Sign() < 0 || p.N.Cmp(prime) >= 0 {
		return fmt.Errorf("%w: point out of range", round.ErrInvalidContent)
	}
	return nil
}

func (s *Shares) validate() error {
	if !s.P.Valid() || !s.Q.Valid() || !s.H.Valid() {
		return round.ErrNilFields
	}
	return nil
}

// validate checks the degree of each vector and that its elements lie in the commitment group.
func (c *Commitments) validate(group *vss.Group, threshold int) error {
	if !c.P.Valid() || !c.Q.Valid() || !c.H.Valid() {
		return round.ErrNilFields
	}
	if err := c.P.Validate(group, threshold); err != nil {
		return fmt.Errorf("p: %w", err)
	}
	if err := c.Q.Validate(group, threshold); err != nil {
		return fmt.Errorf("q: %w", err)
	}
	if err := c.H.Validate(group, 2*threshold); err != nil {
		return fmt.Errorf("h: %w", err)
	}
	return nil
}
