package biprimality

import (
	"math/big"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// storeQ records a party's Qⱼ for the current round. Once all values are present,
// the round is checked, and the machine either moves to the next round or concludes.
func (m Machine) storeQ(from int, fromID party.ID, content *QRound) (Machine, round.Emissions, error) {
	if err := content.validate(m.data.candidate.N); err != nil {
		return m, round.Emissions{}, m.helper.AbortAt(m.Position(), err, fromID)
	}
	qs, ok := m.data.qs.With(from, content.Q)
	if !ok {
		return m, round.Emissions{}, nil
	}
	next := m
	next.data.qs = qs
	n := m.data.registry.N()
	if !qs.Complete(n) {
		return next, round.Emissions{}, nil
	}

	if !Check(m.data.candidate.N, qs.Ordered(n)) {
		return next.conclude(false)
	}
	if m.data.round >= Rounds {
		return next.conclude(true)
	}
	return next.beginRound(m.data.round + 1)
}

// conclude emits the result for the current candidate and waits for the next one.
func (m Machine) conclude(passed bool) (Machine, round.Emissions, error) {
	candidate := m.data.candidate
	result := &Result{
		Attempt: candidate.Attempt,
		N:       candidate.N,
		Private: candidate.Private,
		Passed:  passed,
	}
	next := m
	next.state = AwaitingCandidate
	next.data = data{
		registry: m.data.registry,
		attempt:  candidate.Attempt,
	}
	return next, round.Emissions{Output: result}, nil
}

// Check returns true if Q₁ ⋅ ∏_{j≠1} Qⱼ⁻¹ ≡ ±1 (mod N), where qs[0] = Q₁.
// A Qⱼ which is not invertible mod N reveals a factor, and is rejected.
func Check(n *big.Int, qs []*big.Int) bool {
	if len(qs) == 0 {
		return false
	}
	check := new(big.Int).Mod(qs[0], n)
	inv := new(big.Int)
	for _, q := range qs[1:] {
		if inv.ModInverse(q, n) == nil {
			return false
		}
		check.Mul(check, inv)
		check.Mod(check, n)
	}
	minusOne := new(big.Int).Sub(n, big.NewInt(1))
	return check.Cmp(big.NewInt(1)) == 0 || check.Cmp(minusOne) == 0
}
