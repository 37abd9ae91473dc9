package jbig2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCombineGrayPlanesFoldDirection(t *testing.T) {
	// Raw plane 1 (MSB) all ones, raw plane 0 all zeros. Gray decoding
	// folds plane 0 against the plane above it, so every pixel becomes
	// binary 11. A missing fold would yield 2 instead.
	msb := NewBitmap(4, 3)
	require.NotNil(t, msb)
	msb.Fill(true)
	lsb := NewBitmap(4, 3)
	require.NotNil(t, lsb)

	values, err := combineGrayPlanes([]*Bitmap{lsb, msb}, 4, 3)
	require.NoError(t, err)
	for i, v := range values {
		require.Equal(t, uint32(3), v, "pixel %d", i)
	}
}

func TestCombineGrayPlanesThreePlanes(t *testing.T) {
	// Raw planes (MSB to LSB): 1, 1, 0. Folding: plane1 = 1^1 = 0,
	// plane0 = 0^0 = 0, so the value is binary 100.
	p2 := NewBitmap(2, 2)
	p2.Fill(true)
	p1 := NewBitmap(2, 2)
	p1.Fill(true)
	p0 := NewBitmap(2, 2)

	values, err := combineGrayPlanes([]*Bitmap{p0, p1, p2}, 2, 2)
	require.NoError(t, err)
	for i, v := range values {
		require.Equal(t, uint32(4), v, "pixel %d", i)
	}
}

func TestCombineGrayPlanesMissingPlane(t *testing.T) {
	msb := NewBitmap(2, 2)
	_, err := combineGrayPlanes([]*Bitmap{nil, msb}, 2, 2)
	require.ErrorIs(t, err, ErrRegion)
}
