package jbig2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageInfo(t *testing.T) {
	info, err := parsePageInfo(NewReader(pageInfoBody(640, 480, 0x44, 0x8005)))
	require.NoError(t, err)
	assert.Equal(t, uint32(640), info.Width)
	assert.Equal(t, uint32(480), info.Height)
	assert.True(t, info.DefaultPixel)
	assert.True(t, info.CombOpOverride)
	assert.True(t, info.Striped)
	assert.Equal(t, uint16(5), info.MaxStripeSize)
	assert.Equal(t, CombOR, info.DefaultCombOp)
}

func TestParsePageInfoUnknownHeightRequiresStriping(t *testing.T) {
	_, err := parsePageInfo(NewReader(pageInfoBody(640, 0xFFFFFFFF, 0x00, 0x0005)))
	require.ErrorIs(t, err, ErrFormat)
}

func TestPageEffectiveHeight(t *testing.T) {
	p := &PageInfo{Height: 0xFFFFFFFF, Striped: true, MaxStripeSize: 32}
	assert.Equal(t, uint32(32), p.EffectiveHeight())
	assert.True(t, p.Grows())

	p = &PageInfo{Height: 100}
	assert.Equal(t, uint32(100), p.EffectiveHeight())
	assert.False(t, p.Grows())
}

func TestPageRegionCombOp(t *testing.T) {
	ri := RegionInfo{CombOp: CombXOR}

	p := &PageInfo{DefaultCombOp: CombOR, CombOpOverride: true}
	assert.Equal(t, CombXOR, p.regionCombOp(ri))

	p.CombOpOverride = false
	assert.Equal(t, CombOR, p.regionCombOp(ri))
}
