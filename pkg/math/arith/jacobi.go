package arith

import (
	"math/big"
)

// NextJacobiOne returns the smallest g ≥ start (mod n), with 2 ≤ g < n, such that
// the Jacobi symbol (g/n) equals 1.
// The search wraps around from n-1 to 2.
//
// n must be odd and greater than 3, otherwise nil is returned.
func NextJacobiOne(start, n *big.Int) *big.Int {
	two := big.NewInt(2)
	if n.Bit(0) == 0 || n.Cmp(big.NewInt(3)) <= 0 {
		return nil
	}
	g := new(big.Int).Mod(start, n)
	if g.Cmp(two) < 0 {
		g.Set(two)
	}
	one := big.NewInt(1)
	limit := new(big.Int).Sub(n, two)
	// at most n - 2 candidates
	for tried := new(big.Int); tried.Cmp(limit) < 0; tried.Add(tried, one) {
		if big.Jacobi(g, n) == 1 {
			return g
		}
		g.Add(g, one)
		if g.Cmp(n) >= 0 {
			g.Set(two)
		}
	}
	return nil
}
