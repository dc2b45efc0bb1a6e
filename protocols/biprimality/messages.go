package biprimality

import (
	"fmt"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
)

// QRound is party i's value Qᵢ for one round of the test of a candidate.
type QRound struct {
	Attempt uint32
	Round   round.Number
	Q       *big.Int
}

// Tag implements round.Content.
func (q *QRound) Tag() round.Tag {
	return round.Tag{Phase: round.PhaseBiprimality, Attempt: q.Attempt, Number: q.Round}
}

// NewContent returns an empty content for the given round, ready for unmarshalling.
func NewContent(number round.Number) (round.Content, error) {
	if number < 1 || number > Rounds {
		return nil, fmt.Errorf("biprimality: no content for round %d: %w", number, round.ErrInvalidContent)
	}
	return &QRound{}, nil
}

func (q *QRound) validate(n *big.Int) error {
	if q.Q == nil {
		return round.ErrNilFields
	}
	if q.Q.Sign() <= 0 || q.Q.Cmp(n) >= 0 {
		return fmt.Errorf("%w: Q out of range", round.ErrInvalidContent)
	}
	return nil
}
