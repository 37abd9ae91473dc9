package jbig2

const initialInterval = 0x8000

// qeRow is one row of the probability estimation table (T.88 Table E.1).
type qeRow struct {
	qe      uint16
	nmps    uint8
	nlps    uint8
	switchM bool
}

var qeTable = [...]qeRow{
	{0x5601, 1, 1, true}, {0x3401, 2, 6, false}, {0x1801, 3, 9, false},
	{0x0AC1, 4, 12, false}, {0x0521, 5, 29, false}, {0x0221, 38, 33, false},
	{0x5601, 7, 6, true}, {0x5401, 8, 14, false}, {0x4801, 9, 14, false},
	{0x3801, 10, 14, false}, {0x3001, 11, 17, false}, {0x2401, 12, 18, false},
	{0x1C01, 13, 20, false}, {0x1601, 29, 21, false}, {0x5601, 15, 14, true},
	{0x5401, 16, 14, false}, {0x5101, 17, 15, false}, {0x4801, 18, 16, false},
	{0x3801, 19, 17, false}, {0x3401, 20, 18, false}, {0x3001, 21, 19, false},
	{0x2801, 22, 19, false}, {0x2401, 23, 20, false}, {0x2201, 24, 21, false},
	{0x1C01, 25, 22, false}, {0x1801, 26, 23, false}, {0x1601, 27, 24, false},
	{0x1401, 28, 25, false}, {0x1201, 29, 26, false}, {0x1101, 30, 27, false},
	{0x0AC1, 31, 28, false}, {0x09C1, 32, 29, false}, {0x08A1, 33, 30, false},
	{0x0521, 34, 31, false}, {0x0441, 35, 32, false}, {0x02A1, 36, 33, false},
	{0x0221, 37, 34, false}, {0x0141, 38, 35, false}, {0x0111, 39, 36, false},
	{0x0085, 40, 37, false}, {0x0049, 41, 38, false}, {0x0025, 42, 39, false},
	{0x0015, 43, 40, false}, {0x0009, 44, 41, false}, {0x0005, 45, 42, false},
	{0x0001, 45, 43, false}, {0x5601, 46, 46, false},
}

// ArithContext is one adaptive probability context: a state index into the Qe
// table and the current sense of the most probable symbol.
type ArithContext struct {
	mps bool
	i   uint8
}

// MPS returns the most probable symbol of the context as a bit value.
func (cx *ArithContext) MPS() int {
	if cx.mps {
		return 1
	}
	return 0
}

func (cx *ArithContext) lpsExchangeTail(row qeRow) int {
	d := 1 - cx.MPS()
	if row.switchM {
		cx.mps = !cx.mps
	}
	cx.i = row.nlps
	return d
}

func (cx *ArithContext) mpsAdvance(row qeRow) int {
	cx.i = row.nmps
	return cx.MPS()
}

// ArithDecoder is the MQ-coder of T.88 Annex E. Past the end of the input it
// synthesizes 0xFF bytes so that decoding can legally continue beyond the
// declared data length; Exhausted reports when that has gone on long enough
// that a caller-driven loop should give up.
type ArithDecoder struct {
	stream    *Reader
	b         uint8
	c         uint32
	a         uint32
	ct        uint32
	overruns  int
	exhausted bool
}

// NewArithDecoder runs INITDEC over the reader's current position.
func NewArithDecoder(stream *Reader) *ArithDecoder {
	d := &ArithDecoder{stream: stream}
	d.b = stream.ByteArith()
	d.c = uint32(d.b^0xFF) << 16
	d.byteIn()
	d.c <<= 7
	if d.ct >= 7 {
		d.ct -= 7
	} else {
		d.ct = 0
	}
	d.a = initialInterval
	return d
}

// Decode performs one binary decision conditioned on cx.
func (d *ArithDecoder) Decode(cx *ArithContext) int {
	row := qeTable[cx.i]
	d.a -= uint32(row.qe)

	if d.c>>16 < d.a {
		if d.a&initialInterval != 0 {
			return cx.MPS()
		}
		// MPS_EXCHANGE
		var bit int
		if d.a < uint32(row.qe) {
			bit = cx.lpsExchangeTail(row)
		} else {
			bit = cx.mpsAdvance(row)
		}
		d.renormalize()
		return bit
	}

	// LPS_EXCHANGE
	d.c -= d.a << 16
	var bit int
	if d.a < uint32(row.qe) {
		bit = cx.mpsAdvance(row)
	} else {
		bit = cx.lpsExchangeTail(row)
	}
	d.a = uint32(row.qe)
	d.renormalize()
	return bit
}

// Exhausted reports that the decoder has pulled several synthesized bytes
// past the end of the input. Open-ended decode loops use it as their bound.
func (d *ArithDecoder) Exhausted() bool { return d.exhausted }

func (d *ArithDecoder) byteIn() {
	if d.b == 0xFF {
		b1 := d.stream.NextByteArith()
		if b1 > 0x8F {
			// Marker or synthesized end byte: stand still and feed 1-bits.
			d.ct = 8
			d.overruns++
			if d.overruns > 2 {
				d.exhausted = true
			}
		} else {
			d.stream.Skip(1)
			d.b = b1
			d.c += 0xFE00 - uint32(d.b)<<9
			d.ct = 7
		}
	} else {
		d.stream.Skip(1)
		d.b = d.stream.ByteArith()
		d.c += 0xFF00 - uint32(d.b)<<8
		d.ct = 8
	}
}

func (d *ArithDecoder) renormalize() {
	for {
		if d.ct == 0 {
			d.byteIn()
		}
		d.a <<= 1
		d.c <<= 1
		d.ct--
		if d.a&initialInterval != 0 {
			return
		}
	}
}
