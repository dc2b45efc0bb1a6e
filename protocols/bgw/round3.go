package bgw

import (
	"fmt"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// storeShares records the share tuple of a dealer. Once all tuples are present,
// they are verified against the dealers' broadcast commitments and this party's point of N is broadcast.
func (m Machine) storeShares(from int, fromID party.ID, content *Shares) (Machine, round.Emissions, error) {
	if err := content.validate(); err != nil {
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), err, fromID)
	}
	shares, ok := m.data.shares.With(from, content)
	if !ok {
		// duplicate
		return m, round.Emissions{}, nil
	}
	next := m
	next.data.shares = shares
	if !shares.Complete(m.data.registry.N()) {
		return next, round.Emissions{}, nil
	}
	return next.finishShares()
}

func (m Machine) finishShares() (Machine, round.Emissions, error) {
	prm := m.helper.Params()
	self := m.helper.SelfIndex()
	n := m.data.registry.N()

	dealers := make([]int, 0, n-1)
	for _, j := range m.data.shares.Indices() {
		if j != self {
			dealers = append(dealers, j)
		}
	}
	culprits, err := round.VerifyDealers(m.helper.Pool, m.data.registry, dealers, func(dealer int) error {
		s, _ := m.data.shares.Get(dealer)
		c, _ := m.data.commitments.Get(dealer)
		if err := s.P.Verify(prm.Group, c.P, self, prm.Threshold); err != nil {
			return fmt.Errorf("p: %w", err)
		}
		if err := s.Q.Verify(prm.Group, c.Q, self, prm.Threshold); err != nil {
			return fmt.Errorf("q: %w", err)
		}
		if err := s.H.Verify(prm.Group, c.H, self, 2*prm.Threshold); err != nil {
			return fmt.Errorf("h: %w", err)
		}
		return nil
	})
	if err != nil {
		return m, m.complain(culprits), m.helper.AbortAt(m.Position(),
			fmt.Errorf("%w: %v", round.ErrInvalidShare, err), culprits...)
	}

	all := m.data.shares.Ordered(n)
	ps := make([]*big.Int, n)
	qs := make([]*big.Int, n)
	hs := make([]*big.Int, n)
	for i, s := range all {
		ps[i], qs[i], hs[i] = s.P.Value, s.Q.Value, s.H.Value
	}

	// Nᵢ = (∑ pⱼᵢ)⋅(∑ qⱼᵢ) + ∑ hⱼᵢ (mod P)
	point := new(big.Int).Mul(sumMod(ps, prm.P), sumMod(qs, prm.P))
	point.Add(point, sumMod(hs, prm.P))
	point.Mod(point, prm.P)

	next := m
	next.state = CollectingPoints
	next.data.points, _ = round.Collection[*big.Int]{}.With(self, point)

	content := &Point{Attempt: m.data.attempt, N: point}
	return next, round.Emissions{Messages: []*round.Message{m.helper.BroadcastMessage(content)}}, nil
}

// complain returns the broadcast of a Complaint against each culprit.
func (m Machine) complain(culprits []party.ID) round.Emissions {
	var emissions round.Emissions
	for _, id := range culprits {
		emissions.Messages = append(emissions.Messages, m.helper.BroadcastMessage(&round.Complaint{
			Raised:  m.Position(),
			Accused: id,
		}))
	}
	return emissions
}
