package jbig2

import "math"

// maxSpanSize bounds the addressable input so that malformed segment lengths
// cannot drive unbounded allocation.
const maxSpanSize = 256 * 1024 * 1024

// Reader is a bit-granular cursor over a segment's encoded byte buffer. All
// multi-byte integers in JBIG2 are big-endian.
type Reader struct {
	buf     []byte
	byteOff uint32
	bitOff  uint32
}

// NewReader wraps data in a Reader. Inputs larger than the span limit are
// treated as empty.
func NewReader(data []byte) *Reader {
	if len(data) > maxSpanSize {
		data = nil
	}
	return &Reader{buf: data}
}

// ReadBits reads count bits MSB first and returns them right-aligned. Reading
// past the end of the buffer is a parse error.
func (r *Reader) ReadBits(count uint32) (uint32, error) {
	if count > 32 {
		return 0, parseErr("bit read of %d exceeds 32", count)
	}
	if r.BitPos()+count > r.lengthInBits() {
		return 0, parseErr("unexpected end of input reading %d bits", count)
	}
	var v uint32
	for i := uint32(0); i < count; i++ {
		v = v<<1 | uint32(r.buf[r.byteOff]>>(7-r.bitOff))&1
		r.advanceBit()
	}
	return v, nil
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (uint32, error) {
	return r.ReadBits(1)
}

// ReadBool reads a single bit as a boolean.
func (r *Reader) ReadBool() (bool, error) {
	bit, err := r.ReadBits(1)
	return bit != 0, err
}

// ReadUint8 reads one byte at the current byte offset. The bit cursor must be
// byte aligned, which header parsing guarantees.
func (r *Reader) ReadUint8() (uint8, error) {
	if !r.InBounds() {
		return 0, parseErr("unexpected end of input reading byte")
	}
	v := r.buf[r.byteOff]
	r.byteOff++
	return v, nil
}

// ReadUint16 reads a big-endian 16-bit value.
func (r *Reader) ReadUint16() (uint16, error) {
	if uint64(r.byteOff)+2 > uint64(len(r.buf)) {
		return 0, parseErr("unexpected end of input reading uint16")
	}
	v := uint16(r.buf[r.byteOff])<<8 | uint16(r.buf[r.byteOff+1])
	r.byteOff += 2
	return v, nil
}

// ReadUint32 reads a big-endian 32-bit value.
func (r *Reader) ReadUint32() (uint32, error) {
	if uint64(r.byteOff)+4 > uint64(len(r.buf)) {
		return 0, parseErr("unexpected end of input reading uint32")
	}
	v := uint32(r.buf[r.byteOff])<<24 |
		uint32(r.buf[r.byteOff+1])<<16 |
		uint32(r.buf[r.byteOff+2])<<8 |
		uint32(r.buf[r.byteOff+3])
	r.byteOff += 4
	return v, nil
}

// ReadInt8 reads one byte as a signed value.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// Align advances the cursor to the next byte boundary.
func (r *Reader) Align() {
	if r.bitOff != 0 {
		r.bitOff = 0
		r.Skip(1)
	}
}

// ByteArith returns the byte at the current offset for arithmetic decoder
// consumption, synthesizing 0xFF past the end of the buffer.
func (r *Reader) ByteArith() uint8 {
	if r.InBounds() {
		return r.buf[r.byteOff]
	}
	return 0xFF
}

// NextByteArith returns the byte after the current offset, or 0xFF past the
// end of the buffer.
func (r *Reader) NextByteArith() uint8 {
	next := uint64(r.byteOff) + 1
	if next < uint64(len(r.buf)) {
		return r.buf[next]
	}
	return 0xFF
}

// Offset returns the current byte offset.
func (r *Reader) Offset() uint32 { return r.byteOff }

// SetOffset seeks to an absolute byte offset, clamped to the buffer length.
func (r *Reader) SetOffset(off uint32) {
	if off > uint32(len(r.buf)) {
		off = uint32(len(r.buf))
	}
	r.byteOff = off
}

// Skip advances the byte offset, clamped to the buffer length.
func (r *Reader) Skip(delta uint32) {
	off := uint64(r.byteOff) + uint64(delta)
	if off > math.MaxUint32 {
		off = math.MaxUint32
	}
	r.SetOffset(uint32(off))
}

// BitPos returns the absolute bit position from the start of the buffer.
func (r *Reader) BitPos() uint32 {
	return r.byteOff<<3 + r.bitOff
}

// SetBitPos seeks to an absolute bit position.
func (r *Reader) SetBitPos(pos uint32) {
	r.byteOff = pos >> 3
	r.bitOff = pos & 7
}

// Rest returns the unread remainder of the buffer.
func (r *Reader) Rest() []byte {
	if int(r.byteOff) >= len(r.buf) {
		return nil
	}
	return r.buf[r.byteOff:]
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() uint32 {
	if int(r.byteOff) >= len(r.buf) {
		return 0
	}
	return uint32(len(r.buf) - int(r.byteOff))
}

// InBounds reports whether the byte offset is inside the buffer.
func (r *Reader) InBounds() bool {
	return r.byteOff < uint32(len(r.buf))
}

func (r *Reader) lengthInBits() uint32 {
	return uint32(len(r.buf)) * 8
}

func (r *Reader) advanceBit() {
	if r.bitOff == 7 {
		r.bitOff = 0
		r.byteOff++
	} else {
		r.bitOff++
	}
}
