package bgw

import (
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/math/polynomial"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// storePoint records a party's point of N. Once all points are present, N is reconstructed
// and the machine goes back to awaiting participants for the next attempt.
func (m Machine) storePoint(from int, fromID party.ID, content *Point) (Machine, round.Emissions, error) {
	prm := m.helper.Params()
	if err := content.validate(prm.P); err != nil {
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), err, fromID)
	}
	points, ok := m.data.points.With(from, content.N)
	if !ok {
		return m, round.Emissions{}, nil
	}
	next := m
	next.data.points = points
	n := m.data.registry.N()
	if !points.Complete(n) {
		return next, round.Emissions{}, nil
	}

	// the points lie on a polynomial of degree 2t < n
	N := polynomial.Intercept(points.Ordered(n), prm.P)

	candidate := &CandidateN{
		Attempt: m.data.attempt,
		N:       N,
		Private: &Private{
			P: new(big.Int).Set(m.data.private.P),
			Q: new(big.Int).Set(m.data.private.Q),
		},
	}

	next.state = AwaitingParticipants
	next.data = data{
		registry: m.data.registry,
		attempt:  m.data.attempt,
	}
	return next, round.Emissions{Output: candidate}, nil
}
