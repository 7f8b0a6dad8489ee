// Package polynomial implements the polynomial construction, evaluation and
// Lagrange interpolation used to split and recover secrets over the field
// package's prime.
package polynomial

import (
	"fmt"

	"github.com/VGLoic/mpc-exploration/internal/field"
)

// Polynomial is stored with coefficients in ascending order, i.e.
// coefficients [1, 2, 3] represents 1 + 2x + 3x^2. The slice never carries
// trailing zero coefficients, so the zero polynomial is the empty slice.
type Polynomial struct {
	coefficients []uint64
}

// New builds a Polynomial, trimming any trailing zero coefficients so that
// equal polynomials always compare equal regardless of how they were built.
func New(coefficients []uint64) Polynomial {
	trimmed := append([]uint64(nil), coefficients...)
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == 0 {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return Polynomial{coefficients: trimmed}
}

// Evaluate computes p(point) mod Prime using Horner's method.
func (p Polynomial) Evaluate(point uint64) uint64 {
	result := uint64(0)
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result = field.Add(field.Mul(result, point), field.Reduce(p.coefficients[i]))
	}
	return result
}

// EvaluateAtZero returns p(0), which is simply the constant term.
func (p Polynomial) EvaluateAtZero() uint64 {
	if len(p.coefficients) == 0 {
		return 0
	}
	return p.coefficients[0]
}

// Interpolate builds the unique polynomial of degree < len(points) passing
// through every (points[i], values[i]) pair, using a master-numerator
// construction: build Π(x - x_i) once, then divide out each (x - x_i) factor
// rather than recomputing the numerator product from scratch for every
// point.
func Interpolate(points, values []uint64) (Polynomial, error) {
	if len(points) != len(values) {
		return Polynomial{}, fmt.Errorf("polynomial: points and values must have the same length")
	}

	masterNumerator := interpolateFromRoots(points)

	coefficients := make([]uint64, len(points))

	for i, point := range points {
		value := values[i]

		divisor := New([]uint64{field.Neg(point), 1})
		numerator, _, err := masterNumerator.div(divisor)
		if err != nil {
			return Polynomial{}, err
		}

		denominator := numerator.Evaluate(point)
		invDenominator, err := field.Inv(denominator)
		if err != nil {
			return Polynomial{}, fmt.Errorf("polynomial: interpolation point %d is degenerate: %w", point, err)
		}
		weight := field.Mul(value, invDenominator)

		for i, c := range numerator.coefficients {
			coefficients[i] = field.Add(coefficients[i], field.Mul(c, weight))
		}
	}

	return New(coefficients), nil
}

// div performs schoolbook polynomial long division of p by other, returning
// (quotient, remainder). It requires other to be non-zero.
func (p Polynomial) div(other Polynomial) (Polynomial, Polynomial, error) {
	if len(other.coefficients) == 0 {
		return Polynomial{}, Polynomial{}, fmt.Errorf("polynomial: division by the zero polynomial")
	}
	if len(other.coefficients) > len(p.coefficients) {
		return New(nil), p, nil
	}

	selfDegree := len(p.coefficients) - 1
	otherDegree := len(other.coefficients) - 1
	quotientDegree := selfDegree - otherDegree

	invLeadingOther, err := field.Inv(other.coefficients[otherDegree])
	if err != nil {
		return Polynomial{}, Polynomial{}, fmt.Errorf("polynomial: leading coefficient of divisor is not invertible: %w", err)
	}

	remainder := append([]uint64(nil), p.coefficients...)
	quotient := make([]uint64, quotientDegree+1)

	// Eliminate the leading coefficient of the remainder until its degree
	// drops below other's, i.e. selfDegree - otherDegree + 1 iterations.
	for i := 0; i <= quotientDegree; i++ {
		leadingRemainder := remainder[selfDegree-i]
		quotientCoefficient := field.Mul(leadingRemainder, invLeadingOther)

		remainder = remainder[:len(remainder)-1]

		if quotientCoefficient != 0 {
			quotient[quotientDegree-i] = quotientCoefficient
			// Subtract quotientCoefficient * other * x^(quotientDegree-i)
			// from remainder. The top term is skipped since it was just
			// popped.
			for j := 0; j < otherDegree; j++ {
				idx := quotientDegree - i + j
				remainder[idx] = field.Sub(remainder[idx], field.Mul(other.coefficients[j], quotientCoefficient))
			}
		}
	}

	return New(quotient), New(remainder), nil
}

// interpolateFromRoots builds Π(x - root) for every root in roots,
// incrementally, in O(len(roots)^2) instead of repeated polynomial
// multiplication.
func interpolateFromRoots(roots []uint64) Polynomial {
	if len(roots) == 0 {
		return Polynomial{}
	}

	coefficients := make([]uint64, 0, len(roots)+1)
	coefficients = append(coefficients, 1)

	for i, root := range roots {
		// The leading coefficient is pushed one degree higher.
		coefficients = append(coefficients, 1)

		negRoot := field.Neg(root)

		// Every existing coefficient is multiplied by x (coeff[j] +=
		// coeff[j-1]) and by -root (coeff[j] *= negRoot). Combined:
		// coeff[j] = coeff[j-1] - root*coeff[j]. Walk in reverse so that
		// coeff[j-1] hasn't been overwritten yet; coeff[0] is handled last.
		for j := i; j >= 1; j-- {
			coefficients[j] = field.Sub(coefficients[j-1], field.Mul(coefficients[j], root))
		}
		coefficients[0] = field.Mul(coefficients[0], negRoot)
	}

	return Polynomial{coefficients: coefficients}
}
