// Package sharing implements additive (full-threshold) Shamir secret
// sharing: splitting a secret into one share per peer point, and recovering
// it from a complete set of shares via polynomial interpolation.
package sharing

import (
	"fmt"
	"math/rand"

	"github.com/VGLoic/mpc-exploration/internal/field"
	"github.com/VGLoic/mpc-exploration/internal/polynomial"
)

// Share is one peer's evaluation of the splitting polynomial at its own
// point.
type Share struct {
	Point uint8
	Value uint64
}

// Split builds a degree len(points)-1 polynomial with secret as its constant
// term and uniformly random coefficients otherwise, then returns one share
// per point by evaluating that polynomial there. Reconstructing the secret
// requires every point's share, since the polynomial's degree equals the
// number of points minus one.
func Split(secret uint64, points []uint8) map[uint8]uint64 {
	coefficients := make([]uint64, len(points))
	coefficients[0] = secret
	for i := 1; i < len(points); i++ {
		coefficients[i] = rand.Uint64() % field.Prime
	}
	poly := polynomial.New(coefficients)

	shares := make(map[uint8]uint64, len(points))
	for _, point := range points {
		shares[point] = poly.Evaluate(uint64(point))
	}
	return shares
}

// Recover interpolates the polynomial passing through every share and
// evaluates it at zero to recover the original secret.
func Recover(shares []Share) (uint64, error) {
	points := make([]uint64, len(shares))
	values := make([]uint64, len(shares))
	for i, share := range shares {
		points[i] = uint64(share.Point)
		values[i] = share.Value
	}

	poly, err := polynomial.Interpolate(points, values)
	if err != nil {
		return 0, fmt.Errorf("sharing: recovering secret: %w", err)
	}

	return poly.EvaluateAtZero(), nil
}
