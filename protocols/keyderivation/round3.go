package keyderivation

import (
	"fmt"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// storeShares records the share tuple of a dealer. Once all tuples are present,
// they are verified against the dealers' broadcast commitments and this party's point of θ is broadcast.
func (m Machine) storeShares(from int, fromID party.ID, content *Shares) (Machine, round.Emissions, error) {
	if err := content.validate(); err != nil {
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), err, fromID)
	}
	shares, ok := m.data.shares.With(from, content)
	if !ok {
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
		if err := s.Beta.Verify(prm.Group, c.Beta, self, prm.Threshold); err != nil {
			return fmt.Errorf("β: %w", err)
		}
		if err := s.DeltaR.Verify(prm.Group, c.DeltaR, self, prm.Threshold); err != nil {
			return fmt.Errorf("ΔR: %w", err)
		}
		if err := s.Phi.Verify(prm.Group, c.Phi, self, prm.Threshold); err != nil {
			return fmt.Errorf("Φ: %w", err)
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

	beta, phi, h := new(big.Int), new(big.Int), new(big.Int)
	deltaR := new(big.Int)
	for _, s := range m.data.shares.Ordered(n) {
		beta.Add(beta, s.Beta.Value)
		phi.Add(phi, s.Phi.Value)
		h.Add(h, s.H.Value)
		deltaR.Add(deltaR, s.DeltaR.Value)
	}
	beta.Mod(beta, prm.P)
	phi.Mod(phi, prm.P)
	h.Mod(h, prm.P)

	// θᵢ = (δ⋅Φ(i)⋅β(i) mod P) + (N⋅ΔR(i) mod P) + h(i) (mod P)
	theta := new(big.Int).Mul(prm.Delta(), phi)
	theta.Mul(theta, beta)
	theta.Mod(theta, prm.P)
	masked := new(big.Int).Mul(m.data.n, deltaR)
	masked.Mod(masked, prm.P)
	theta.Add(theta, masked)
	theta.Add(theta, h)
	theta.Mod(theta, prm.P)

	next := m
	next.state = CollectingThetas
	next.data.deltaR = deltaR
	next.data.thetas, _ = round.Collection[*big.Int]{}.With(self, theta)

	content := &Theta{Attempt: m.data.attempt, Theta: theta}
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
