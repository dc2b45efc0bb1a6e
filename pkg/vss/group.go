package vss

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/pkg/hash"
	"github.com/taurusgroup/paillier-dkg/pkg/math/arith"
)

// maxCofactor bounds the search for Q = 2⋅m⋅P + 1.
const maxCofactor = 1 << 20

// Group is a Schnorr group: the subgroup of order P of ℤ_Q*, with Q = 2⋅m⋅P + 1 prime.
//
// G and H are two generators of this subgroup. They are derived by hashing into the group,
// so that nobody knows log_G(H).
type Group struct {
	// P is the prime order of the subgroup, which is also the sharing field.
	P *big.Int
	// Q is the prime modulus.
	Q *big.Int
	// G, H generate the subgroup of order P.
	G, H *big.Int

	q *arith.Modulus
}

// NewGroup deterministically derives the Schnorr group of order p.
// Any party recomputing it from the same p obtains the same group.
func NewGroup(p *big.Int) (*Group, error) {
	if p == nil || p.Sign() <= 0 || !p.ProbablyPrime(20) {
		return nil, errors.New("vss.NewGroup: order must be prime")
	}

	one := big.NewInt(1)
	twoP := new(big.Int).Lsh(p, 1)
	q := new(big.Int)
	found := false
	for m := int64(1); m < maxCofactor; m++ {
		q.Mul(twoP, big.NewInt(m))
		q.Add(q, one)
		if q.ProbablyPrime(20) {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("vss.NewGroup: no prime Q = 2mP+1 with m < %d", maxCofactor)
	}

	g := &Group{
		P: new(big.Int).Set(p),
		Q: q,
		q: arith.ModulusFromN(q),
	}
	var err error
	if g.G, err = g.hashToGroup("Pedersen G"); err != nil {
		return nil, err
	}
	if g.H, err = g.hashToGroup("Pedersen H"); err != nil {
		return nil, err
	}
	return g, nil
}

// hashToGroup maps the label and the group's parameters to an element of order P.
func (g *Group) hashToGroup(label string) (*big.Int, error) {
	h := hash.New(&hash.BytesWithDomain{TheDomain: "Schnorr Group", Bytes: []byte(label)})
	if err := h.WriteAny(g.P, g.Q); err != nil {
		return nil, fmt.Errorf("vss: %w", err)
	}
	digest := h.Digest()

	// (Q-1)/P
	cofactor := new(big.Int).Sub(g.Q, big.NewInt(1))
	cofactor.Quo(cofactor, g.P)

	one := big.NewInt(1)
	buf := make([]byte, (g.Q.BitLen()+7)/8+16)
	for i := 0; i < 256; i++ {
		if _, err := io.ReadFull(digest, buf); err != nil {
			return nil, fmt.Errorf("vss: %w", err)
		}
		x := new(big.Int).SetBytes(buf)
		x.Mod(x, g.Q)
		y := new(big.Int).Exp(x, cofactor, g.Q)
		if y.Cmp(one) > 0 {
			return y, nil
		}
	}
	return nil, errors.New("vss: failed to hash into the group")
}

// Commit returns G^x ⋅ H^r (mod Q).
// x and r are reduced mod P first, and may be negative.
func (g *Group) Commit(x, r *big.Int) *big.Int {
	xp := new(big.Int).Mod(x, g.P)
	rp := new(big.Int).Mod(r, g.P)
	return g.q.Mul(g.q.Exp(g.G, xp), g.q.Exp(g.H, rp))
}

// Equal returns true if both groups have the same parameters.
func (g *Group) Equal(other *Group) bool {
	return g.P.Cmp(other.P) == 0 && g.Q.Cmp(other.Q) == 0 &&
		g.G.Cmp(other.G) == 0 && g.H.Cmp(other.H) == 0
}
