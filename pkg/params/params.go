// Package params holds the immutable configuration shared by every party of a key generation.
package params

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/pkg/math/polynomial"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/vss"
)

const (
	// MinParties is the smallest number of parties for which t < n/2 leaves t ≥ 1.
	MinParties = 3
	// MinBits is the smallest bit length accepted for the factors p and q.
	MinBits = 16
	// DefaultKappa is the default statistical hiding blow-up factor K.
	DefaultKappa = 1000
	// BiprimalityRounds is the number of rounds of the biprimality test.
	BiprimalityRounds = 10
	// StatisticalSecurity is the number of extra bits added to bounds for statistical hiding.
	StatisticalSecurity = 16
)

// ErrConfiguration is returned when the parameters cannot describe a valid run.
var ErrConfiguration = errors.New("params: invalid configuration")

// Parameters is the configuration of a key generation.
// It is created once before any party starts, and never modified.
type Parameters struct {
	// Parties is the number of participants n.
	Parties int
	// Threshold is the maximal number of corrupted parties t, with t < n/2.
	Threshold int
	// Bits is the bit length k of the shares of p and q.
	Bits int
	// Kappa is the statistical hiding factor K used for β and R in key derivation.
	Kappa int64
	// P is the prime modulus of the sharing field.
	P *big.Int
	// Group is the Pedersen commitment group of order P.
	Group *vss.Group
}

type config struct {
	kappa int64
	prime *big.Int
	rand  io.Reader
}

// Option modifies the way Parameters are created.
type Option func(*config)

// WithKappa sets the statistical hiding factor K.
func WithKappa(kappa int64) Option {
	return func(c *config) { c.kappa = kappa }
}

// WithPrime sets the sharing prime instead of generating one.
// It must be large enough for the other parameters.
func WithPrime(p *big.Int) Option {
	return func(c *config) { c.prime = new(big.Int).Set(p) }
}

// WithRand sets the source of randomness used to generate the sharing prime.
func WithRand(r io.Reader) Option {
	return func(c *config) { c.rand = r }
}

// New validates n, t, k and creates the corresponding Parameters,
// generating a sharing prime P of PrimeBits bits unless one is provided.
func New(parties, threshold, bits int, opts ...Option) (*Parameters, error) {
	c := config{
		kappa: DefaultKappa,
		rand:  rand.Reader,
	}
	for _, opt := range opts {
		opt(&c)
	}

	p := &Parameters{
		Parties:   parties,
		Threshold: threshold,
		Bits:      bits,
		Kappa:     c.kappa,
	}
	if err := p.validateSizes(); err != nil {
		return nil, err
	}

	if c.prime != nil {
		p.P = c.prime
	} else {
		prime, err := sample.Prime(c.rand, p.PrimeBits())
		if err != nil {
			return nil, fmt.Errorf("params.New: %w", err)
		}
		p.P = prime
	}
	if err := p.validatePrime(); err != nil {
		return nil, err
	}

	group, err := vss.NewGroup(p.P)
	if err != nil {
		return nil, fmt.Errorf("params.New: %w", err)
	}
	p.Group = group

	if err = p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parameters) validateSizes() error {
	if p.Parties < MinParties {
		return fmt.Errorf("%w: n = %d must be at least %d", ErrConfiguration, p.Parties, MinParties)
	}
	// with t = 0 every share is the secret itself
	if p.Threshold < 1 || 2*p.Threshold >= p.Parties {
		return fmt.Errorf("%w: t = %d must satisfy 1 ≤ t < n/2 with n = %d", ErrConfiguration, p.Threshold, p.Parties)
	}
	if p.Bits < MinBits {
		return fmt.Errorf("%w: k = %d must be at least %d", ErrConfiguration, p.Bits, MinBits)
	}
	if p.Kappa < 1 {
		return fmt.Errorf("%w: K = %d must be positive", ErrConfiguration, p.Kappa)
	}
	return nil
}

// Validate checks all invariants of the Parameters.
func (p *Parameters) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil parameters", ErrConfiguration)
	}
	if err := p.validateSizes(); err != nil {
		return err
	}
	if err := p.validatePrime(); err != nil {
		return err
	}
	if p.Group == nil {
		return fmt.Errorf("%w: missing commitment group", ErrConfiguration)
	}
	expected, err := vss.NewGroup(p.P)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if !p.Group.Equal(expected) {
		return fmt.Errorf("%w: commitment group is not the one derived from P", ErrConfiguration)
	}
	return nil
}

func (p *Parameters) validatePrime() error {
	if p.P == nil || !p.P.ProbablyPrime(20) {
		return fmt.Errorf("%w: P is not prime", ErrConfiguration)
	}
	if p.P.BitLen() < p.PrimeBits() {
		return fmt.Errorf("%w: P has %d bits, at least %d are required", ErrConfiguration, p.P.BitLen(), p.PrimeBits())
	}
	return nil
}

// Delta returns δ = n!.
func (p *Parameters) Delta() *big.Int {
	return polynomial.Factorial(p.Parties)
}

// MaxModulus returns (n⋅2ᵏ)², an upper bound on any candidate N.
func (p *Parameters) MaxModulus() *big.Int {
	bound := new(big.Int).Lsh(big.NewInt(int64(p.Parties)), uint(p.Bits))
	return bound.Mul(bound, bound)
}

// PrimeBits returns the bit length of the sharing prime.
//
// The bound covers the BGW reconstruction n⋅(3⋅2ᵏ)² as well as θ = δ⋅(β⋅φ + N⋅R)
// with β < n⋅K⋅N and R < n⋅K²⋅N.
func (p *Parameters) PrimeBits() int {
	return p.Delta().BitLen() +
		2*p.MaxModulus().BitLen() +
		2*big.NewInt(p.Kappa).BitLen() +
		2 + StatisticalSecurity
}

// Quorum returns the number of shares required to decrypt, t+1.
func (p *Parameters) Quorum() int {
	return p.Threshold + 1
}
