package polynomial

import (
	"fmt"
	"math/big"
)

// Intercept returns f(0) mod modulus, given the points (f(1), …, f(k)) in that order.
//
// The Lagrange coefficients for the domain {1, …, k} are integers, so no modular
// inversion is necessary. The result is only meaningful if f has degree < k,
// callers must make sure they collected enough points.
func Intercept(points []*big.Int, modulus *big.Int) *big.Int {
	k := len(points)
	coefficients := Coefficients(k)
	sum := new(big.Int)
	tmp := new(big.Int)
	for j := 1; j <= k; j++ {
		tmp.Mul(points[j-1], coefficients[j])
		sum.Add(sum, tmp)
		sum.Mod(sum, modulus)
	}
	return sum
}

// Coefficients returns the integer Lagrange coefficients at 0 λ₁, …, λₖ
// for the interpolation domain {1, …, k}, indexed by party index.
//
//	λⱼ = ∏_{m≠j} (-m)/(j-m)
func Coefficients(k int) map[int]*big.Int {
	domain := make([]int, k)
	for i := range domain {
		domain[i] = i + 1
	}
	coefficients, err := ScaledCoefficients(domain, big.NewInt(1))
	if err != nil {
		// the coefficients on a consecutive domain starting at 1 are always integers
		panic(err)
	}
	return coefficients
}

// ScaledCoefficients returns the Lagrange coefficients at 0, multiplied by scale,
// for all indices in the interpolation domain.
//
//	scale⋅λⱼ = scale⋅∏_{m≠j} m/(m-j)
//
// With scale = n! and a domain included in {1, …, n}, the result is always an integer.
// An error is returned if some coefficient is not an integer, or if the domain contains
// zero or duplicates.
func ScaledCoefficients(domain []int, scale *big.Int) (map[int]*big.Int, error) {
	seen := make(map[int]bool, len(domain))
	for _, j := range domain {
		if j == 0 || seen[j] {
			return nil, fmt.Errorf("polynomial.ScaledCoefficients: invalid interpolation domain %v", domain)
		}
		seen[j] = true
	}

	coefficients := make(map[int]*big.Int, len(domain))
	numerator, denominator := new(big.Int), new(big.Int)
	remainder := new(big.Int)
	for _, j := range domain {
		numerator.Set(scale)
		denominator.SetInt64(1)
		for _, m := range domain {
			if m == j {
				continue
			}
			numerator.Mul(numerator, big.NewInt(int64(m)))
			denominator.Mul(denominator, big.NewInt(int64(m-j)))
		}
		lambda, _ := new(big.Int).QuoRem(numerator, denominator, remainder)
		if remainder.Sign() != 0 {
			return nil, fmt.Errorf("polynomial.ScaledCoefficients: coefficient %d is not an integer", j)
		}
		coefficients[j] = lambda
	}
	return coefficients, nil
}

// Factorial returns n!.
func Factorial(n int) *big.Int {
	return new(big.Int).MulRange(1, int64(n))
}
