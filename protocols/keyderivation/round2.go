package keyderivation

import (
	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// storeCommitments records the broadcast commitments of a dealer.
// The share tuples are only collected once every dealer committed.
func (m Machine) storeCommitments(from int, fromID party.ID, content *Commitments) (Machine, round.Emissions, error) {
	prm := m.helper.Params()
	if err := content.validate(prm.Group, prm.Threshold); err != nil {
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), err, fromID)
	}
	commitments, ok := m.data.commitments.With(from, content)
	if !ok {
		return m, round.Emissions{}, nil
	}
	next := m
	next.data.commitments = commitments
	if commitments.Complete(m.data.registry.N()) {
		next.state = CollectingShares
	}
	return next, round.Emissions{}, nil
}
