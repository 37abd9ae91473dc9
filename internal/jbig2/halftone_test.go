package jbig2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPatternDict(t *testing.T, n, w, h int) *PatternDict {
	t.Helper()
	dict := &PatternDict{Width: w, Height: h, Patterns: make([]*Bitmap, n)}
	for i := range dict.Patterns {
		dict.Patterns[i] = NewBitmap(w, h)
		require.NotNil(t, dict.Patterns[i])
	}
	return dict
}

func TestHalftoneSkipPredicate(t *testing.T) {
	h := &HalftoneDecoder{
		Width:      10,
		Height:     10,
		Patterns:   testPatternDict(t, 2, 4, 4),
		GridWidth:  10,
		GridHeight: 10,
		GridX:      -5 * 256,
		GridY:      -5 * 256,
		VectorX:    256,
		VectorY:    0,
	}

	// Cell (0,0) lands at (-5,-5): the 4x4 pattern ends at -1, wholly
	// outside the 10x10 region.
	x, y := h.cellOrigin(0, 0)
	require.Equal(t, -5, x)
	require.Equal(t, -5, y)
	assert.True(t, h.cellOutside(0, 0))

	// Cell (8,8) lands at (3,3), inside the region.
	x, y = h.cellOrigin(8, 8)
	require.Equal(t, 3, x)
	require.Equal(t, 3, y)
	assert.False(t, h.cellOutside(8, 8))

	skip, err := h.skipBitmap()
	require.NoError(t, err)
	assert.Equal(t, 1, skip.Pixel(0, 0))
	assert.Equal(t, 0, skip.Pixel(8, 8))
}

func TestHalftoneStampGrayValueOutOfRange(t *testing.T) {
	h := &HalftoneDecoder{
		Width:      4,
		Height:     4,
		Patterns:   testPatternDict(t, 3, 1, 1),
		CombOp:     CombReplace,
		GridWidth:  2,
		GridHeight: 2,
		VectorX:    256,
	}

	values := []uint32{0, 2, 1, 3} // 3 has no pattern
	_, err := h.stamp(values)
	require.ErrorIs(t, err, ErrRegion)
}

func TestHalftoneStampPlacesPatterns(t *testing.T) {
	dict := testPatternDict(t, 2, 1, 1)
	dict.Patterns[1].SetPixel(0, 0, 1)

	h := &HalftoneDecoder{
		Width:      2,
		Height:     2,
		Patterns:   dict,
		CombOp:     CombOR,
		GridWidth:  2,
		GridHeight: 2,
		VectorX:    256,
	}

	// Grid rows advance down, columns advance right: cell (mg, ng) lands
	// at (ng, mg).
	values := []uint32{0, 1, 1, 0}
	region, err := h.stamp(values)
	require.NoError(t, err)
	assert.Equal(t, 0, region.Pixel(0, 0))
	assert.Equal(t, 1, region.Pixel(1, 0))
	assert.Equal(t, 1, region.Pixel(0, 1))
	assert.Equal(t, 0, region.Pixel(1, 1))
}
