package keyderivation

import (
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/paillier"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// storeVerificationKey records a party's verification key. Once all keys are present,
// the PrivateThresholdKey is assembled and emitted.
func (m Machine) storeVerificationKey(from int, fromID party.ID, content *VerificationKey) (Machine, round.Emissions, error) {
	nSquared := new(big.Int).Mul(m.data.n, m.data.n)
	if err := content.validate(nSquared); err != nil {
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), err, fromID)
	}
	vks, ok := m.data.vks.With(from, content.VerificationKey)
	if !ok {
		return m, round.Emissions{}, nil
	}
	next := m
	next.data.vks = vks
	n := m.data.registry.N()
	if !vks.Complete(n) {
		return next, round.Emissions{}, nil
	}

	prm := m.helper.Params()
	key := &paillier.PrivateThresholdKey{
		N:                new(big.Int).Set(m.data.n),
		ThetaPrime:       new(big.Int).Set(m.data.thetaPrime),
		Parties:          n,
		Quorum:           prm.Quorum(),
		V:                new(big.Int).Set(m.data.v),
		VerificationKeys: vks.Ordered(n),
		Share:            new(big.Int).Set(m.data.share),
		Index:            m.helper.SelfIndex(),
		ID:               m.helper.SelfID(),
	}
	if err := key.Validate(); err != nil {
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), err)
	}

	next.state = Done
	next.data = data{
		registry: m.data.registry,
		attempt:  m.data.attempt,
	}
	return next, round.Emissions{Output: key}, nil
}
