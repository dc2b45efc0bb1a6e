package keyderivation

import (
	"errors"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/math/arith"
	"github.com/taurusgroup/paillier-dkg/pkg/math/polynomial"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// ErrThetaNotInvertible is returned when θ' shares a factor with N, the key would not decrypt.
var ErrThetaNotInvertible = errors.New("keyderivation: θ' is not invertible mod N")

// storeTheta records a party's point of θ. Once all points are present, θ' is reconstructed,
// and this party's key share and verification key are computed.
func (m Machine) storeTheta(from int, fromID party.ID, content *Theta) (Machine, round.Emissions, error) {
	prm := m.helper.Params()
	if err := content.validate(prm.P); err != nil {
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), err, fromID)
	}
	thetas, ok := m.data.thetas.With(from, content.Theta)
	if !ok {
		return m, round.Emissions{}, nil
	}
	next := m
	next.data.thetas = thetas
	n := m.data.registry.N()
	if !thetas.Complete(n) {
		return next, round.Emissions{}, nil
	}

	// the points lie on a polynomial of degree 2t < n
	thetaPrime := polynomial.Intercept(thetas.Ordered(n), prm.P)
	if new(big.Int).GCD(nil, nil, thetaPrime, m.data.n).Cmp(big.NewInt(1)) != 0 {
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), ErrThetaNotInvertible)
	}

	v := Generator(m.data.n, thetaPrime)

	// fᵢ = θ' - N⋅ΔR(i)
	share := new(big.Int).Mul(m.data.n, m.data.deltaR)
	share.Sub(thetaPrime, share)

	nSquared := new(big.Int).Mul(m.data.n, m.data.n)
	vk := arith.ModulusFromN(nSquared).Exp(v, new(big.Int).Mul(prm.Delta(), share))

	next.state = CollectingVerificationKeys
	next.data.thetaPrime = thetaPrime
	next.data.v = v
	next.data.share = share
	next.data.vks, _ = round.Collection[*big.Int]{}.With(m.helper.SelfIndex(), vk)

	msg := &VerificationKey{Attempt: m.data.attempt, VerificationKey: vk}
	return next, round.Emissions{Messages: []*round.Message{m.helper.BroadcastMessage(msg)}}, nil
}

// Generator derives v = r² (mod N²) from θ' without communication: r is the first unit of ℤₙ
// read from a cSHAKE256 stream seeded with θ' mod N.
func Generator(n, thetaPrime *big.Int) *big.Int {
	seed := new(big.Int).Mod(thetaPrime, n)
	r := sample.UnitModN(sample.NewSeededReader(seed.Bytes(), "verification generator"), n)
	nSquared := new(big.Int).Mul(n, n)
	return r.Exp(r, big.NewInt(2), nSquared)
}
