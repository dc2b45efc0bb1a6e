package bgw

import (
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/math/polynomial"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/vss"
)

// private holds the secrets of one attempt and the dealings used to share them.
type private struct {
	Private
	p, q, h *vss.Dealing
}

// start begins a new attempt:
//
//   - sample pᵢ, qᵢ of k bits, ≡ 3 (mod 4) for party 1 and ≡ 0 (mod 4) for the others,
//     so that p = ∑ pᵢ ≡ q = ∑ qᵢ ≡ 3 (mod 4).
//   - share pᵢ, qᵢ with degree t polynomials, and 0 with a degree 2t polynomial.
//   - broadcast the commitments to the three polynomials, and send each party its share tuple.
func (m Machine) start(rand io.Reader, registry *party.Registry) (Machine, round.Emissions, error) {
	prm := m.helper.Params()
	group := prm.Group

	residue := uint(0)
	if m.helper.SelfIndex() == 1 {
		residue = 3
	}
	p := sample.Residue(rand, prm.Bits, residue)
	q := sample.Residue(rand, prm.Bits, residue)

	sharingP := polynomial.NewSharing(rand, p, prm.Threshold, prm.P)
	fq := polynomial.NewPolynomialMod(rand, prm.Threshold, q, prm.P)

	secrets := &private{
		Private: Private{P: p, Q: q},
		p:       vss.Deal(rand, m.helper.Pool, group, sharingP.F),
		q:       vss.Deal(rand, m.helper.Pool, group, fq),
		h:       vss.Deal(rand, m.helper.Pool, group, sharingP.H),
	}

	attempt := m.data.attempt + 1
	own := &Commitments{
		Attempt: attempt,
		P:       secrets.p.Commitments(),
		Q:       secrets.q.Commitments(),
		H:       secrets.h.Commitments(),
	}
	commitments, _ := round.Collection[*Commitments]{}.With(m.helper.SelfIndex(), own)
	emissions := round.Emissions{Messages: []*round.Message{m.helper.BroadcastMessage(own)}}

	var shares round.Collection[*Shares]
	for _, j := range registry.Indices() {
		content := &Shares{
			Attempt: attempt,
			P:       secrets.p.ShareFor(j),
			Q:       secrets.q.ShareFor(j),
			H:       secrets.h.ShareFor(j),
		}
		if j == m.helper.SelfIndex() {
			shares, _ = shares.With(j, content)
			continue
		}
		id, _ := registry.ID(j)
		emissions.Messages = append(emissions.Messages, m.helper.SendMessage(content, id))
	}

	next := m
	next.state = CollectingCommitments
	next.data = data{
		registry:    registry,
		attempt:     attempt,
		private:     secrets,
		commitments: commitments,
		shares:      shares,
	}
	return next, emissions, nil
}

// sumMod returns ∑ values mod p.
func sumMod(values []*big.Int, p *big.Int) *big.Int {
	sum := new(big.Int)
	for _, v := range values {
		sum.Add(sum, v)
	}
	return sum.Mod(sum, p)
}
