package keyderivation

import (
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/math/polynomial"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/params"
	"github.com/taurusgroup/paillier-dkg/pkg/vss"
	"github.com/taurusgroup/paillier-dkg/protocols/biprimality"
)

// private holds this party's secrets and the dealings used to share them.
type private struct {
	beta, deltaR, phi, h *vss.Dealing
}

// start begins the derivation for an accepted N:
//
//   - Φᵢ = N - p₁ - q₁ + 1 for party 1, Φᵢ = -(pᵢ + qᵢ) otherwise, so that ∑ Φᵢ = φ(N).
//   - sample βᵢ ∈ [0, K⋅N) and Rᵢ ∈ [0, K²⋅N).
//   - share βᵢ and Φᵢ with degree t polynomials mod P, δ⋅Rᵢ with a degree t polynomial
//     over the integers, and 0 with a degree 2t polynomial mod P.
//   - broadcast the commitments to the four polynomials, and send each party its share tuple.
func (m Machine) start(rand io.Reader, result *biprimality.Result) (Machine, round.Emissions, error) {
	prm := m.helper.Params()
	n := result.N
	delta := prm.Delta()
	kappa := big.NewInt(prm.Kappa)

	phi := new(big.Int).Add(result.Private.P, result.Private.Q)
	if m.helper.SelfIndex() == 1 {
		phi.Sub(n, phi)
		phi.Add(phi, big.NewInt(1))
	} else {
		phi.Neg(phi)
	}

	betaBound := new(big.Int).Mul(kappa, n)
	beta := sample.Range(rand, betaBound)
	rBound := new(big.Int).Mul(betaBound, kappa)
	r := sample.Range(rand, rBound)
	deltaR := new(big.Int).Mul(delta, r)

	sharingBeta := polynomial.NewSharing(rand, beta, prm.Threshold, prm.P)
	fPhi := polynomial.NewPolynomialMod(rand, prm.Threshold, phi, prm.P)
	fDeltaR := polynomial.NewPolynomial(rand, prm.Threshold, deltaR, deltaRBits(prm, rBound))

	secrets := &private{
		beta:   vss.Deal(rand, m.helper.Pool, prm.Group, sharingBeta.F),
		deltaR: vss.Deal(rand, m.helper.Pool, prm.Group, fDeltaR),
		phi:    vss.Deal(rand, m.helper.Pool, prm.Group, fPhi),
		h:      vss.Deal(rand, m.helper.Pool, prm.Group, sharingBeta.H),
	}

	own := &Commitments{
		Attempt: result.Attempt,
		Beta:    secrets.beta.Commitments(),
		DeltaR:  secrets.deltaR.Commitments(),
		Phi:     secrets.phi.Commitments(),
		H:       secrets.h.Commitments(),
	}
	commitments, _ := round.Collection[*Commitments]{}.With(m.helper.SelfIndex(), own)
	emissions := round.Emissions{Messages: []*round.Message{m.helper.BroadcastMessage(own)}}

	var shares round.Collection[*Shares]
	for _, j := range m.data.registry.Indices() {
		content := &Shares{
			Attempt: result.Attempt,
			Beta:    secrets.beta.ShareFor(j),
			DeltaR:  secrets.deltaR.ShareFor(j),
			Phi:     secrets.phi.ShareFor(j),
			H:       secrets.h.ShareFor(j),
		}
		if j == m.helper.SelfIndex() {
			shares, _ = shares.With(j, content)
			continue
		}
		id, _ := m.data.registry.ID(j)
		emissions.Messages = append(emissions.Messages, m.helper.SendMessage(content, id))
	}

	next := m
	next.state = CollectingCommitments
	next.data = data{
		registry:    m.data.registry,
		attempt:     result.Attempt,
		n:           new(big.Int).Set(n),
		private:     secrets,
		commitments: commitments,
		shares:      shares,
	}
	return next, emissions, nil
}

// deltaRBits is the size of the coefficients of the integer sharing of δ⋅Rᵢ.
// They are large enough to statistically hide δ⋅Rᵢ < δ⋅K²⋅N in the t shares of a coalition.
func deltaRBits(prm *params.Parameters, rBound *big.Int) int {
	bound := new(big.Int).Mul(prm.Delta(), rBound)
	return bound.BitLen() + params.StatisticalSecurity
}
