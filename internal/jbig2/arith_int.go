package jbig2

import "math"

// Magnitude classes of the integer decoding procedure (T.88 Annex A,
// Table A.1): number of raw bits and the additive offset per class.
type intClass struct {
	bits int
	base int
}

var intClasses = []intClass{
	{2, 0},
	{4, 4},
	{6, 20},
	{8, 84},
	{12, 340},
	{32, 4436},
}

// IntDecoder is one instance of the integer arithmetic decoding procedure. It
// owns a 512-entry context bank addressed by the rolling 9-bit PREV prefix.
type IntDecoder struct {
	cx [512]ArithContext
}

// Decode reads one signed integer. ok is false for the out-of-band value.
func (d *IntDecoder) Decode(arith *ArithDecoder) (v int, ok bool) {
	prev := 1
	sign := arith.Decode(&d.cx[prev])
	prev = prev<<1 | sign

	class := 0
	for class < len(intClasses)-1 {
		bit := arith.Decode(&d.cx[prev])
		prev = prev<<1 | bit
		if bit == 0 {
			break
		}
		class++
	}

	magnitude := 0
	for i := 0; i < intClasses[class].bits; i++ {
		bit := arith.Decode(&d.cx[prev])
		prev = prev<<1 | bit
		if prev >= 256 {
			prev = prev&0x1FF | 0x100
		}
		magnitude = magnitude<<1 | bit
	}

	value := int64(intClasses[class].base) + int64(magnitude)
	if value < math.MinInt32 || value > math.MaxInt32 {
		return 0, false
	}

	v = int(value)
	if sign == 1 {
		if v == 0 {
			return 0, false
		}
		v = -v
	}
	return v, true
}

// IntProc names the integer decoding procedures of the symbol dictionary and
// text region decoders. Each owns its own context bank; banks are never
// shared across procedures.
type IntProc int

const (
	IADH IntProc = iota
	IADW
	IAEX
	IAAI
	IADT
	IAFS
	IADS
	IAIT
	IARI
	IARDW
	IARDH
	IARDX
	IARDY
	numIntProcs
)

// IntDecoderBank holds one IntDecoder per named procedure. A single bank is
// shared across the whole decode loop of one symbol dictionary or text
// region segment.
type IntDecoderBank struct {
	procs [numIntProcs]IntDecoder
}

// NewIntDecoderBank returns a bank with all contexts zeroed.
func NewIntDecoderBank() *IntDecoderBank {
	return &IntDecoderBank{}
}

// Proc returns the decoder owned by the named procedure.
func (b *IntDecoderBank) Proc(p IntProc) *IntDecoder {
	return &b.procs[p]
}

// IaidDecoder decodes symbol ID codewords of a fixed bit length.
type IaidDecoder struct {
	cx      []ArithContext
	codeLen uint8
}

// NewIaidDecoder builds a decoder for codewords of length symCodeLen.
func NewIaidDecoder(symCodeLen uint8) *IaidDecoder {
	return &IaidDecoder{
		cx:      make([]ArithContext, 1<<symCodeLen),
		codeLen: symCodeLen,
	}
}

// Decode reads one symbol ID.
func (d *IaidDecoder) Decode(arith *ArithDecoder) uint32 {
	prev := 1
	for i := uint8(0); i < d.codeLen; i++ {
		bit := arith.Decode(&d.cx[prev])
		prev = prev<<1 | bit
	}
	return uint32(prev - 1<<d.codeLen)
}
