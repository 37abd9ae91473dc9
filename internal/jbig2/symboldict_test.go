package jbig2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolDictExportRunsHuffman(t *testing.T) {
	// Five candidate symbols: two referenced inputs and three new ones.
	// The runs 2 and 3 toggle from not exported, so symbols 2, 3 and 4
	// are exported. Both runs use table B.1: a zero prefix bit and four
	// value bits.
	input := []*Bitmap{NewBitmap(1, 1), NewBitmap(1, 1)}
	newSyms := []*Bitmap{NewBitmap(2, 2), NewBitmap(3, 3), NewBitmap(4, 4)}

	p := &SymbolDictDecoder{
		NumNew:      3,
		NumExported: 3,
		Input:       input,
	}
	runTable, err := StandardHuffmanTable(1)
	require.NoError(t, err)

	flags, err := p.decodeExportRunsHuffman(NewReader([]byte{0b00010_000, 0b11_000000}), runTable)
	require.NoError(t, err)
	require.Equal(t, []bool{false, false, true, true, true}, flags)

	dict, err := p.export(newSyms, flags)
	require.NoError(t, err)
	require.Equal(t, 3, dict.NumSymbols())
	assert.Same(t, newSyms[0], dict.Symbol(0))
	assert.Same(t, newSyms[1], dict.Symbol(1))
	assert.Same(t, newSyms[2], dict.Symbol(2))
}

func TestSymbolDictSymCodeLenMinimum(t *testing.T) {
	assert.Equal(t, uint8(1), dictSymCodeLen(1))
	assert.Equal(t, uint8(1), dictSymCodeLen(2))
	assert.Equal(t, uint8(2), dictSymCodeLen(3))
	assert.Equal(t, uint8(5), dictSymCodeLen(17))

	// A single-symbol dictionary still spends one decision per symbol ID.
	iaid := NewIaidDecoder(dictSymCodeLen(1))
	arith := NewArithDecoder(NewReader([]byte{0xB0, 0x00}))
	assert.Equal(t, uint32(1), iaid.Decode(arith))
}

func TestSymbolDictHuffmanDegenerateClassSkipsBitmap(t *testing.T) {
	dh, err := newHuffmanTable(false, []huffmanLine{{prefLen: 1, rangeLen: 0, rangeLow: 0}})
	require.NoError(t, err)
	dw, err := newHuffmanTable(true, []huffmanLine{
		{prefLen: 1, rangeLen: 0, rangeLow: 5},
		{prefLen: 1},
	})
	require.NoError(t, err)
	bm, err := newHuffmanTable(false, []huffmanLine{{prefLen: 1, rangeLen: 0, rangeLow: 3}})
	require.NoError(t, err)

	p := &SymbolDictDecoder{
		Huffman:     true,
		NumNew:      1,
		NumExported: 1,
		TableDH:     dh,
		TableDW:     dw,
		TableBMSize: bm,
	}
	// One zero-height class holding a width 5 symbol: delta height 0, delta
	// width 5, OOB, bitmap size 3. The three collective bitmap bytes must
	// be stepped over before the export runs 0 and 1 in table B.1 codes.
	stream := NewReader([]byte{0b0010_0000, 0xFF, 0xFF, 0xFF, 0b0000_0000, 0b0100_0000})
	dict, err := p.DecodeHuffman(stream, nil)
	require.NoError(t, err)
	require.Equal(t, 1, dict.NumSymbols())
	assert.Nil(t, dict.Symbol(0))
}

func TestSymbolDictExportRunOverflow(t *testing.T) {
	flags := make([]bool, 3)
	var index uint32
	err := applyExportRun(flags, &index, 4, true)
	require.ErrorIs(t, err, ErrSymbol)
}

func TestSymbolDictExportCountMismatch(t *testing.T) {
	p := &SymbolDictDecoder{NumNew: 2, NumExported: 2}
	newSyms := []*Bitmap{NewBitmap(1, 1), NewBitmap(1, 1)}
	_, err := p.export(newSyms, []bool{true, false})
	require.ErrorIs(t, err, ErrSymbol)
}

func TestSymbolDictHuffmanWithRefinementRejected(t *testing.T) {
	p := &SymbolDictDecoder{Huffman: true, Refine: true, NumNew: 1, NumExported: 1}
	_, err := p.DecodeHuffman(NewReader(nil), nil)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestSymbolDictLookup(t *testing.T) {
	in := NewBitmap(1, 1)
	fresh := NewBitmap(2, 2)
	p := &SymbolDictDecoder{Input: []*Bitmap{in}}
	newSyms := []*Bitmap{fresh, nil}

	sym, err := p.lookup(0, newSyms, 1)
	require.NoError(t, err)
	assert.Same(t, in, sym)

	sym, err = p.lookup(1, newSyms, 1)
	require.NoError(t, err)
	assert.Same(t, fresh, sym)

	_, err = p.lookup(2, newSyms, 1)
	require.ErrorIs(t, err, ErrSymbol)
}

func TestSymbolDictHuffmanCollectiveUncompressed(t *testing.T) {
	// Height class of two 8x2 symbols in one uncompressed collective
	// bitmap: size 0 means raw rows follow byte aligned.
	p := &SymbolDictDecoder{NumNew: 2, NumExported: 2}
	rows := []byte{0xF0, 0x0F, 0xAA, 0x55}
	collective, err := p.decodeCollective(NewReader(rows), 16, 2, 0)
	require.NoError(t, err)
	require.Equal(t, 16, collective.Width())
	require.Equal(t, 2, collective.Height())
	assert.Equal(t, 1, collective.Pixel(0, 0))
	assert.Equal(t, 0, collective.Pixel(7, 0))
	assert.Equal(t, 1, collective.Pixel(15, 0))
	assert.Equal(t, 1, collective.Pixel(0, 1))
	assert.Equal(t, 0, collective.Pixel(4, 0))

	left := collective.Crop(0, 0, 8, 2)
	require.NotNil(t, left)
	assert.Equal(t, 1, left.Pixel(0, 0))
	assert.Equal(t, 0, left.Pixel(7, 0))
}

func TestSymbolDictTruncatedCollective(t *testing.T) {
	p := &SymbolDictDecoder{NumNew: 1, NumExported: 1}
	_, err := p.decodeCollective(NewReader([]byte{0xFF}), 16, 2, 0)
	require.ErrorIs(t, err, ErrParse)
}
