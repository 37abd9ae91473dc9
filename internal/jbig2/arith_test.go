package jbig2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ITU-T T.88 Annex H.2 test sequence for the arithmetic coder.
var arithTestInput = []byte{
	0x84, 0xC7, 0x3B, 0xFC, 0xE1, 0xA1, 0x43, 0x04, 0x02, 0x20, 0x00, 0x00,
	0x41, 0x0D, 0xBB, 0x86, 0xF4, 0x31, 0x7F, 0xFF, 0x88, 0xFF, 0x37, 0x47,
	0x1A, 0xDB, 0x6A, 0xDF, 0xFF, 0xAC,
}

var arithTestExpected = []byte{
	0x00, 0x02, 0x00, 0x51, 0x00, 0x00, 0x00, 0xC0, 0x03, 0x52, 0x87, 0x2A,
	0xAA, 0xAA, 0xAA, 0xAA, 0x82, 0xC0, 0x20, 0x00, 0xFC, 0xD7, 0x9E, 0xF6,
	0xBF, 0x7F, 0xED, 0x90, 0x4F, 0x46, 0xA3, 0xBF,
}

func decodeArithBytes(t *testing.T, input []byte, n int) []byte {
	t.Helper()
	dec := NewArithDecoder(NewReader(input))
	var cx ArithContext
	out := make([]byte, n)
	for i := 0; i < n*8; i++ {
		bit := dec.Decode(&cx)
		require.True(t, bit == 0 || bit == 1, "decision %d out of range: %d", i, bit)
		out[i/8] = out[i/8]<<1 | byte(bit)
	}
	return out
}

func TestArithDecoderTestSequence(t *testing.T) {
	got := decodeArithBytes(t, arithTestInput, len(arithTestExpected))
	require.Equal(t, arithTestExpected, got)
}

func TestArithDecoderDeterministic(t *testing.T) {
	first := decodeArithBytes(t, arithTestInput, len(arithTestExpected))
	second := decodeArithBytes(t, arithTestInput, len(arithTestExpected))
	require.Equal(t, first, second)
}

func TestArithDecoderEmptyInputSynthesizes(t *testing.T) {
	dec := NewArithDecoder(NewReader(nil))
	var cx ArithContext
	for i := 0; i < 64; i++ {
		bit := dec.Decode(&cx)
		require.True(t, bit == 0 || bit == 1)
	}
	assert.True(t, dec.Exhausted())
}

func TestArithDecoderMarkerStopsAdvance(t *testing.T) {
	// A 0xFF byte followed by a value above 0x8F is a marker. The decoder
	// must not move past it.
	stream := NewReader([]byte{0x00, 0xFF, 0xAC})
	dec := NewArithDecoder(stream)
	var cx ArithContext
	for i := 0; i < 64; i++ {
		dec.Decode(&cx)
	}
	assert.LessOrEqual(t, stream.Offset(), uint32(2))
}
