package jbig2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// segHeader assembles a short-form segment header with one-byte referred
// numbers and a one-byte page association.
func segHeader(number uint32, segType uint8, page uint8, dataLen uint32, refs ...uint8) []byte {
	b := []byte{
		byte(number >> 24), byte(number >> 16), byte(number >> 8), byte(number),
		segType,
		uint8(len(refs)) << 5,
	}
	b = append(b, refs...)
	b = append(b, page)
	b = append(b, byte(dataLen>>24), byte(dataLen>>16), byte(dataLen>>8), byte(dataLen))
	return b
}

func regionInfoBytes(w, h, x, y uint32, flags uint8) []byte {
	return []byte{
		byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w),
		byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h),
		byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x),
		byte(y >> 24), byte(y >> 16), byte(y >> 8), byte(y),
		flags,
	}
}

func TestParseSegmentHeaderShortForm(t *testing.T) {
	data := segHeader(7, SegPageInfo, 1, 19, 2, 3)
	seg, err := parseSegmentHeader(NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), seg.Number)
	assert.Equal(t, uint8(SegPageInfo), seg.Type)
	assert.Equal(t, uint32(1), seg.PageAssoc)
	assert.Equal(t, []uint32{2, 3}, seg.Referred)
	assert.Equal(t, uint32(19), seg.DataLength)
	assert.Equal(t, uint32(len(data)), seg.DataOffset)
}

func TestParseSegmentHeaderLongForm(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x00, 0x46, // segment 70
		0x00,                   // symbol dictionary
		0xE0, 0x00, 0x00, 0x09, // long form, nine referred segments
		0x00, 0x00, // retain bits
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09,
		0x01,                   // page 1
		0x00, 0x00, 0x00, 0x00, // empty data part
	}
	seg, err := parseSegmentHeader(NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, uint32(70), seg.Number)
	require.Len(t, seg.Referred, 9)
	assert.Equal(t, uint32(1), seg.Referred[0])
	assert.Equal(t, uint32(9), seg.Referred[8])
	assert.Equal(t, uint32(len(data)), seg.DataOffset)
}

func TestParseSegmentHeaderForwardReference(t *testing.T) {
	data := segHeader(5, SegSymbolDict, 1, 0, 7)
	_, err := parseSegmentHeader(NewReader(data))
	require.ErrorIs(t, err, ErrSegment)
}

func TestParseSegmentHeaderUnknownLengthWrongType(t *testing.T) {
	data := segHeader(1, SegTextRegionImmediate, 1, unknownDataLength)
	_, err := parseSegmentHeader(NewReader(data))
	require.ErrorIs(t, err, ErrSegment)
}

func TestParseSegmentHeaderUnknownLengthGeneric(t *testing.T) {
	data := segHeader(1, SegGenericRegionImmediate, 1, unknownDataLength)
	seg, err := parseSegmentHeader(NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, uint32(unknownDataLength), seg.DataLength)
}

func TestParseRegionInfo(t *testing.T) {
	ri, err := parseRegionInfo(NewReader(regionInfoBytes(64, 32, 4, 8, 0x02)))
	require.NoError(t, err)
	assert.Equal(t, RegionInfo{Width: 64, Height: 32, X: 4, Y: 8, CombOp: CombXOR}, ri)
}

func TestParseRegionInfoReservedFlags(t *testing.T) {
	_, err := parseRegionInfo(NewReader(regionInfoBytes(64, 32, 0, 0, 0x10)))
	require.ErrorIs(t, err, ErrFormat)
}

func TestParseRegionInfoColourExtension(t *testing.T) {
	_, err := parseRegionInfo(NewReader(regionInfoBytes(64, 32, 0, 0, 0x08)))
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestParseRegionInfoBadCombOp(t *testing.T) {
	_, err := parseRegionInfo(NewReader(regionInfoBytes(64, 32, 0, 0, 0x05)))
	require.ErrorIs(t, err, ErrRegion)
}

func TestParseRegionInfoZeroWidth(t *testing.T) {
	_, err := parseRegionInfo(NewReader(regionInfoBytes(0, 32, 0, 0, 0x00)))
	require.ErrorIs(t, err, ErrRegion)
}

func TestParseRegionInfoOpenHeight(t *testing.T) {
	data := regionInfoBytes(64, 0xFFFFFFFF, 0, 0, 0x00)
	_, err := parseRegionInfo(NewReader(data))
	require.ErrorIs(t, err, ErrRegion)

	ri, err := parseRegionInfoOpen(NewReader(data), true)
	require.NoError(t, err)
	assert.Equal(t, -1, ri.Height)
	assert.Equal(t, 64, ri.Width)
}
