package polynomial

import (
	"io"
	"math/big"

	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
)

// Polynomial represents f(X) = a₀ + a₁⋅X + … + aₜ⋅Xᵗ.
//
// When modulus is nil the coefficients are integers and evaluation is done over ℤ,
// otherwise every coefficient lives in ℤₚ and evaluation reduces after each step.
type Polynomial struct {
	coefficients []*big.Int
	modulus      *big.Int
}

// NewPolynomial generates a Polynomial f(X) = secret + a₁⋅X + … + aₜ⋅Xᵗ over the integers,
// with coefficients aᵢ uniform in [0, 2ᵇⁱᵗˢ), and degree t.
func NewPolynomial(rand io.Reader, degree int, constant *big.Int, bits int) *Polynomial {
	polynomial := &Polynomial{
		coefficients: make([]*big.Int, degree+1),
	}

	// if the constant is nil, we interpret it as 0.
	if constant == nil {
		constant = new(big.Int)
	}
	polynomial.coefficients[0] = new(big.Int).Set(constant)

	for i := 1; i <= degree; i++ {
		polynomial.coefficients[i] = sample.Bits(rand, bits)
	}
	return polynomial
}

// NewPolynomialMod generates a Polynomial f(X) = secret + a₁⋅X + … + aₜ⋅Xᵗ
// with coefficients uniform in ℤₚ, and degree t.
// The constant is reduced mod p.
func NewPolynomialMod(rand io.Reader, degree int, constant, modulus *big.Int) *Polynomial {
	polynomial := &Polynomial{
		coefficients: make([]*big.Int, degree+1),
		modulus:      new(big.Int).Set(modulus),
	}

	if constant == nil {
		constant = new(big.Int)
	}
	polynomial.coefficients[0] = new(big.Int).Mod(constant, modulus)

	for i := 1; i <= degree; i++ {
		polynomial.coefficients[i] = sample.Range(rand, modulus)
	}
	return polynomial
}

// Evaluate evaluates a polynomial in a given variable index.
// We use Horner's method: https://en.wikipedia.org/wiki/Horner%27s_method
func (p *Polynomial) Evaluate(index int) *big.Int {
	if index == 0 {
		panic("attempt to leak secret")
	}

	x := big.NewInt(int64(index))
	result := new(big.Int)
	// reverse order
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// bₙ₋₁ = bₙ * x + aₙ₋₁
		result.Mul(result, x)
		result.Add(result, p.coefficients[i])
		if p.modulus != nil {
			result.Mod(result, p.modulus)
		}
	}
	return result
}

// Constant returns a copy of the constant coefficient of the polynomial.
func (p *Polynomial) Constant() *big.Int {
	return new(big.Int).Set(p.coefficients[0])
}

// Coefficients returns a copy of a₀, …, aₜ.
func (p *Polynomial) Coefficients() []*big.Int {
	out := make([]*big.Int, len(p.coefficients))
	for i, c := range p.coefficients {
		out[i] = new(big.Int).Set(c)
	}
	return out
}

// Degree is the highest power of the Polynomial.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Modulus returns the modulus the coefficients are reduced by, or nil over the integers.
func (p *Polynomial) Modulus() *big.Int {
	if p.modulus == nil {
		return nil
	}
	return new(big.Int).Set(p.modulus)
}
