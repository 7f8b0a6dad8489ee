// Package field implements arithmetic over the prime field used by the
// additive secret sharing scheme.
package field

import "fmt"

// Prime is the modulus of the field every share, coefficient and sum lives
// in. It is not configurable: changing it would require coordinating every
// peer in the fleet out of band, which is out of scope for this service.
const Prime uint64 = 1_000_000_007

// Reduce maps any uint64 into the canonical range [0, Prime).
func Reduce(a uint64) uint64 {
	return a % Prime
}

// Add returns (a + b) mod Prime. a and b are assumed already reduced.
func Add(a, b uint64) uint64 {
	return (a + b) % Prime
}

// Sub returns (a - b) mod Prime, always non-negative.
func Sub(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return Prime - (b - a)
}

// Neg returns (-a) mod Prime.
func Neg(a uint64) uint64 {
	if a == 0 {
		return 0
	}
	return Prime - a
}

// Mul returns (a * b) mod Prime. Since both operands are already reduced
// (< Prime, which is below 2^30), the product fits comfortably in a uint64
// without needing a 128-bit intermediate.
func Mul(a, b uint64) uint64 {
	return (a * b) % Prime
}

// Inv returns a^-1 mod Prime via the extended Euclidean algorithm.
// It returns an error if a is 0 or shares a common factor with Prime
// (which cannot happen for a true prime and a in [1, Prime), but the
// general-n division step in polynomial interpolation can hand Inv a
// non-reduced divisor, so the check stays defensive).
func Inv(a uint64) (uint64, error) {
	if a == 0 {
		return 0, fmt.Errorf("field: 0 has no inverse")
	}
	if a == 1 {
		return 1, nil
	}

	newR, r := int64(a), int64(Prime)
	newT, t := int64(1), int64(0)

	for newR != 0 {
		q := r / newR
		newR, r = r-q*newR, newR
		newT, t = t-q*newT, newT
	}

	if r != 1 {
		return 0, fmt.Errorf("field: gcd(%d, %d) != 1, no inverse exists", a, Prime)
	}

	return reduceSigned(t), nil
}

// reduceSigned folds a signed intermediate back into [0, Prime).
func reduceSigned(a int64) uint64 {
	m := a % int64(Prime)
	if m < 0 {
		m += int64(Prime)
	}
	return uint64(m)
}
