package sharing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VGLoic/mpc-exploration/internal/field"
)

func TestSplitAndRecoverRoundtrip(t *testing.T) {
	points := []uint8{1, 2, 3, 4, 5}
	secret := rand.Uint64() % field.Prime

	shares := Split(secret, points)
	require.Len(t, shares, len(points))

	recoverShares := make([]Share, 0, len(points))
	for _, p := range points {
		recoverShares = append(recoverShares, Share{Point: p, Value: shares[p]})
	}

	recovered, err := Recover(recoverShares)
	require.NoError(t, err)
	require.Equal(t, secret, recovered)
}

func TestRecoverRequiresEveryShare(t *testing.T) {
	points := []uint8{1, 2, 3}
	secret := uint64(1234)
	shares := Split(secret, points)

	// Dropping a share changes the recovered value: the interpolating
	// polynomial is now built from the wrong set of points.
	partial := []Share{
		{Point: points[0], Value: shares[points[0]]},
		{Point: points[1], Value: shares[points[1]]},
	}
	recovered, err := Recover(partial)
	require.NoError(t, err)
	require.NotEqual(t, secret, recovered)
}
