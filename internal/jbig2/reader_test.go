package jbig2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderBits(t *testing.T) {
	r := NewReader([]byte{0b10110100, 0b01100000})

	v, err := r.ReadBits(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(0b101), v)

	bit, err := r.ReadBit()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), bit)

	v, err = r.ReadBits(6)
	require.NoError(t, err)
	assert.Equal(t, uint32(0b010001), v)

	assert.Equal(t, uint32(10), r.BitPos())
}

func TestReaderBitsPastEnd(t *testing.T) {
	r := NewReader([]byte{0xFF})
	_, err := r.ReadBits(9)
	require.ErrorIs(t, err, ErrParse)
}

func TestReaderIntegers(t *testing.T) {
	r := NewReader([]byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xFF})

	v8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x12), v8)

	v16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x3456), v16)

	v32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x789ABCFF), v32)

	_, err = r.ReadUint8()
	require.ErrorIs(t, err, ErrParse)
}

func TestReaderInt8(t *testing.T) {
	r := NewReader([]byte{0xFE, 0x05})
	v, err := r.ReadInt8()
	require.NoError(t, err)
	assert.Equal(t, int8(-2), v)
	v, err = r.ReadInt8()
	require.NoError(t, err)
	assert.Equal(t, int8(5), v)
}

func TestReaderAlign(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xAB})
	_, err := r.ReadBits(3)
	require.NoError(t, err)
	r.Align()
	v, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), v)

	// Aligning an already aligned cursor is a no-op.
	r.Align()
	assert.Equal(t, uint32(2), r.Offset())
}

func TestReaderArithBytes(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	assert.Equal(t, uint8(0x01), r.ByteArith())
	assert.Equal(t, uint8(0x02), r.NextByteArith())

	r.Skip(2)
	assert.Equal(t, uint8(0xFF), r.ByteArith())
	assert.Equal(t, uint8(0xFF), r.NextByteArith())
}

func TestReaderSeekAndClamp(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	r.Skip(100)
	assert.Equal(t, uint32(4), r.Offset())
	assert.Equal(t, uint32(0), r.Remaining())
	assert.Nil(t, r.Rest())

	r.SetOffset(1)
	assert.Equal(t, []byte{2, 3, 4}, r.Rest())
	assert.Equal(t, uint32(3), r.Remaining())
	assert.True(t, r.InBounds())

	r.SetBitPos(13)
	assert.Equal(t, uint32(1), r.Offset())
	bit, err := r.ReadBit()
	require.NoError(t, err)
	// Byte 0x02 bit 5 is 0.
	assert.Equal(t, uint32(0), bit)
}
