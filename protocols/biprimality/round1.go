package biprimality

import (
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/hash"
	"github.com/taurusgroup/paillier-dkg/pkg/math/arith"
	"github.com/taurusgroup/paillier-dkg/protocols/bgw"
)

// start begins the test of a new candidate.
// Degenerate candidates are rejected right away, without sending anything:
// every party reaches the same decision from the same N.
func (m Machine) start(candidate *bgw.CandidateN) (Machine, round.Emissions, error) {
	next := m
	next.data = data{
		registry:  m.data.registry,
		attempt:   candidate.Attempt,
		candidate: candidate,
	}

	n := candidate.N
	if n.Bit(0) == 0 || n.Cmp(big.NewInt(3)) <= 0 {
		return next.conclude(false)
	}
	return next.beginRound(1)
}

// beginRound computes and broadcasts this party's Qᵢ for round r.
func (m Machine) beginRound(r round.Number) (Machine, round.Emissions, error) {
	next := m
	next.state = CollectingQ
	next.data.round = r
	next.data.qs = round.Collection[*big.Int]{}

	q := next.q()
	if q == nil {
		return next.conclude(false)
	}
	next.data.qs, _ = next.data.qs.With(m.helper.SelfIndex(), q)

	content := &QRound{
		Attempt: next.data.attempt,
		Round:   r,
		Q:       q,
	}
	return next, round.Emissions{Messages: []*round.Message{m.helper.BroadcastMessage(content)}}, nil
}

// q returns Qᵢ for the current round, or nil if the candidate is not suitable.
//
//	Q₁ = g^{(N+1-p₁-q₁)/4} (mod N)
//	Qᵢ = g^{(pᵢ+qᵢ)/4} (mod N)
func (m Machine) q() *big.Int {
	n := m.data.candidate.N
	g := m.base()
	if g == nil {
		return nil
	}

	private := m.data.candidate.Private
	e := new(big.Int).Add(private.P, private.Q)
	if m.helper.SelfIndex() == 1 {
		// N + 1 - (p₁ + q₁)
		e.Sub(n, e)
		e.Add(e, big.NewInt(1))
	}
	if e.Sign() < 0 || e.Bit(0) != 0 || e.Bit(1) != 0 {
		return nil
	}
	e.Rsh(e, 2)
	return arith.ModulusFromN(n).Exp(g, e)
}

// base derives g for the current round: the smallest g ≥ H(ssid, N, attempt, round) (mod N)
// with (g/N) = 1. All parties derive the same g without communicating.
func (m Machine) base() *big.Int {
	n := m.data.candidate.N
	h := m.helper.Hash()
	if err := h.WriteAny(
		&hash.BytesWithDomain{TheDomain: "Biprimality Base", Bytes: []byte{}},
		n,
		round.Tag{Phase: round.PhaseBiprimality, Attempt: m.data.attempt, Number: m.data.round},
	); err != nil {
		return nil
	}
	buf := make([]byte, (n.BitLen()+7)/8+16)
	if _, err := io.ReadFull(h.Digest(), buf); err != nil {
		return nil
	}
	return arith.NextJacobiOne(new(big.Int).SetBytes(buf), n)
}
