package jbig2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageInfoBody(w, h uint32, flags uint8, striping uint16) []byte {
	b := []byte{
		byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w),
		byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h),
	}
	b = append(b, 0, 0, 0, 0, 0, 0, 0, 0) // resolutions
	b = append(b, flags, byte(striping>>8), byte(striping))
	return b
}

func TestDecodeBlankPage(t *testing.T) {
	body := pageInfoBody(16, 8, 0x04, 0) // default pixel set
	var data []byte
	data = append(data, segHeader(1, SegPageInfo, 1, uint32(len(body)))...)
	data = append(data, body...)
	data = append(data, segHeader(2, SegEndOfPage, 1, 0)...)

	d, err := NewDecoder(data, nil, nil)
	require.NoError(t, err)
	page, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, 16, page.Width())
	assert.Equal(t, 8, page.Height())
	assert.Equal(t, 1, page.Pixel(0, 0))
	assert.Equal(t, 1, page.Pixel(15, 7))
}

func TestDecodeStripedPageGrowth(t *testing.T) {
	body := pageInfoBody(16, 0xFFFFFFFF, 0x00, 0x8008)
	var data []byte
	data = append(data, segHeader(1, SegPageInfo, 1, uint32(len(body)))...)
	data = append(data, body...)
	data = append(data, segHeader(2, SegEndOfStripe, 1, 4)...)
	data = append(data, 0x00, 0x00, 0x00, 0x0B)
	data = append(data, segHeader(3, SegEndOfPage, 1, 0)...)

	d, err := NewDecoder(data, nil, nil)
	require.NoError(t, err)
	page, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, 16, page.Width())
	assert.Equal(t, 12, page.Height())
	assert.Equal(t, 0, page.Pixel(0, 11))
}

func TestDecodeUnknownSegmentType(t *testing.T) {
	data := segHeader(1, 10, 1, 0)
	d, err := NewDecoder(data, nil, nil)
	require.NoError(t, err)
	_, err = d.Decode()
	require.ErrorIs(t, err, ErrSegment)
}

func TestDecodeWithoutPage(t *testing.T) {
	d, err := NewDecoder(nil, nil, nil)
	require.NoError(t, err)
	_, err = d.Decode()
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeNecessaryExtension(t *testing.T) {
	var data []byte
	data = append(data, segHeader(1, SegExtension, 0, 4)...)
	data = append(data, 0x80, 0x00, 0x00, 0x01)
	d, err := NewDecoder(data, nil, nil)
	require.NoError(t, err)
	_, err = d.Decode()
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestDecodeSecondPageStops(t *testing.T) {
	body1 := pageInfoBody(8, 8, 0x00, 0)
	body2 := pageInfoBody(32, 32, 0x00, 0)
	var data []byte
	data = append(data, segHeader(1, SegPageInfo, 1, uint32(len(body1)))...)
	data = append(data, body1...)
	data = append(data, segHeader(2, SegEndOfPage, 1, 0)...)
	data = append(data, segHeader(3, SegPageInfo, 2, uint32(len(body2)))...)
	data = append(data, body2...)

	d, err := NewDecoder(data, nil, nil)
	require.NoError(t, err)
	page, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, 8, page.Width())
	assert.Equal(t, 8, page.Height())
}

func TestResolveUnknownLengthMMR(t *testing.T) {
	payload := make([]byte, 0, 25)
	payload = append(payload, regionInfoBytes(16, 0xFFFFFFFF, 0, 0, 0x00)...)
	payload = append(payload, 0x01)             // MMR
	payload = append(payload, 0xFF, 0x00, 0x00) // data ending in the terminator
	payload = append(payload, 0x00, 0x00, 0x00, 0x05)

	d := &Decoder{data: payload}
	seg := &Segment{Number: 1, Type: SegGenericRegionImmediate, DataLength: unknownDataLength}
	require.NoError(t, d.resolveUnknownLength(seg))
	assert.Equal(t, uint32(5), seg.Rows)
	assert.Equal(t, uint32(len(payload)), seg.DataLength)
	assert.True(t, seg.UnknownLength)
}

func TestDecodeUnknownLengthRowCountReplacesHeight(t *testing.T) {
	// Page default pixel is set and regions may pick their own operator. An
	// unknown-length MMR region declares height 4 but carries a trailing
	// row count of 2, so only the first two rows are replaced with the
	// decoded blank rows.
	body := pageInfoBody(8, 4, 0x44, 0)
	var data []byte
	data = append(data, segHeader(1, SegPageInfo, 1, uint32(len(body)))...)
	data = append(data, body...)
	data = append(data, segHeader(2, SegGenericRegionImmediate, 1, unknownDataLength)...)
	data = append(data, regionInfoBytes(8, 4, 0, 0, byte(CombReplace))...)
	data = append(data, 0x01)                   // MMR
	data = append(data, 0xC0)                   // two all-white coding lines
	data = append(data, 0x00, 0x00)             // terminator
	data = append(data, 0x00, 0x00, 0x00, 0x02) // row count
	data = append(data, segHeader(3, SegEndOfPage, 1, 0)...)

	d, err := NewDecoder(data, nil, nil)
	require.NoError(t, err)
	page, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, 0, page.Pixel(0, 0))
	assert.Equal(t, 0, page.Pixel(7, 1))
	assert.Equal(t, 1, page.Pixel(0, 2))
	assert.Equal(t, 1, page.Pixel(7, 3))
}

func TestDecodeUnknownLengthRowCountExceedsHeight(t *testing.T) {
	body := pageInfoBody(8, 4, 0x00, 0)
	var data []byte
	data = append(data, segHeader(1, SegPageInfo, 1, uint32(len(body)))...)
	data = append(data, body...)
	data = append(data, segHeader(2, SegGenericRegionImmediate, 1, unknownDataLength)...)
	data = append(data, regionInfoBytes(8, 4, 0, 0, 0x00)...)
	data = append(data, 0x01)
	data = append(data, 0xC0)
	data = append(data, 0x00, 0x00)
	data = append(data, 0x00, 0x00, 0x00, 0x05) // five rows in a height 4 region

	d, err := NewDecoder(data, nil, nil)
	require.NoError(t, err)
	_, err = d.Decode()
	require.ErrorIs(t, err, ErrSegment)
}

func TestResolveUnknownLengthMissingMarker(t *testing.T) {
	payload := make([]byte, 0, 24)
	payload = append(payload, regionInfoBytes(16, 0xFFFFFFFF, 0, 0, 0x00)...)
	payload = append(payload, 0x01)
	payload = append(payload, 0xFF, 0xFF, 0xFF, 0xFF)

	d := &Decoder{data: payload}
	seg := &Segment{Number: 1, Type: SegGenericRegionImmediate, DataLength: unknownDataLength}
	require.ErrorIs(t, d.resolveUnknownLength(seg), ErrSegment)
}

func TestDictCacheEviction(t *testing.T) {
	c := NewDictCache()
	d1 := &SymbolDict{}
	d2 := &SymbolDict{}
	d3 := &SymbolDict{}
	c.store(1, d1)
	c.store(2, d2)
	c.store(3, d3)

	assert.Nil(t, c.lookup(1))
	assert.Same(t, d2, c.lookup(2))
	assert.Same(t, d3, c.lookup(3))
}

func TestTableSelector(t *testing.T) {
	a, err := StandardHuffmanTable(2)
	require.NoError(t, err)
	b, err := StandardHuffmanTable(3)
	require.NoError(t, err)
	sel := &tableSelector{tables: []*HuffmanTable{a, b}}

	got, err := sel.pick(3, 6, 7, 0)
	require.NoError(t, err)
	assert.Same(t, a, got)
	got, err = sel.pick(3, 6, 7, 0)
	require.NoError(t, err)
	assert.Same(t, b, got)
	_, err = sel.pick(3, 6, 7, 0)
	require.ErrorIs(t, err, ErrHuffman)

	_, err = sel.pick(2, 6, 7, 0)
	require.ErrorIs(t, err, ErrHuffman)
	got, err = sel.pick(2, 8, 9, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestFindSegmentConsultsGlobals(t *testing.T) {
	g := &Decoder{segments: []*Segment{{Number: 3}}}
	d := &Decoder{globals: g, segments: []*Segment{{Number: 5}}}

	require.NotNil(t, d.findSegment(5))
	require.NotNil(t, d.findSegment(3))
	assert.Nil(t, d.findSegment(9))
}

func TestFinishRegionImmediate(t *testing.T) {
	page := NewBitmap(8, 8)
	d := &Decoder{page: page, pageInfo: &PageInfo{Width: 8, Height: 8, CombOpOverride: true}}

	region := NewBitmap(2, 2)
	region.Fill(true)
	seg := &Segment{Number: 4, Type: SegGenericRegionImmediate}
	ri := RegionInfo{Width: 2, Height: 2, X: 1, Y: 1, CombOp: CombOR}

	require.NoError(t, d.finishRegion(seg, ri, region))
	assert.Equal(t, 1, page.Pixel(1, 1))
	assert.Equal(t, 1, page.Pixel(2, 2))
	assert.Equal(t, 0, page.Pixel(0, 0))
	assert.Nil(t, seg.Region)
}

func TestFinishRegionIntermediate(t *testing.T) {
	page := NewBitmap(8, 8)
	d := &Decoder{page: page, pageInfo: &PageInfo{Width: 8, Height: 8}}

	region := NewBitmap(2, 2)
	region.Fill(true)
	seg := &Segment{Number: 4, Type: SegGenericRegionIntermediate}
	ri := RegionInfo{Width: 2, Height: 2, X: 1, Y: 1, CombOp: CombOR}

	require.NoError(t, d.finishRegion(seg, ri, region))
	assert.Same(t, region, seg.Region)
	assert.Equal(t, 0, page.Pixel(1, 1))
}

func TestFinishRegionBeforePage(t *testing.T) {
	d := &Decoder{}
	seg := &Segment{Number: 4, Type: SegGenericRegionImmediate}
	region := NewBitmap(2, 2)
	err := d.finishRegion(seg, RegionInfo{Width: 2, Height: 2}, region)
	require.ErrorIs(t, err, ErrSegment)
}
