package jbig2

// RefCorner names the glyph corner placed at the decoded (S, T) position.
type RefCorner uint8

const (
	CornerBottomLeft RefCorner = iota
	CornerTopLeft
	CornerBottomRight
	CornerTopRight
)

// symCode is one symbol ID codeword for the Huffman-coded text region path.
type symCode struct {
	length uint8
	code   uint32
}

// TextRegionDecoder holds the parameters of the text region decoding
// procedure (T.88 6.4). It places NumInstances glyphs from Syms onto the
// region bitmap.
type TextRegionDecoder struct {
	Huffman     bool
	Refine      bool
	RefTemplate uint8
	Transposed  bool
	DefPixel    bool
	RefCorner   RefCorner
	CombOp      CombOp
	DSOffset    int
	// LogStrips is log2 of the strip height, 0 to 3.
	LogStrips    uint8
	SymCodeLen   uint8
	Width        int
	Height       int
	NumInstances uint32
	Syms         []*Bitmap
	// RAT holds the refinement adaptive pixel offsets as (x, y) pairs.
	RAT [4]int

	// Huffman path tables. SymCodes carries the per-symbol ID codewords.
	TableFS    *HuffmanTable
	TableDS    *HuffmanTable
	TableDT    *HuffmanTable
	TableRDW   *HuffmanTable
	TableRDH   *HuffmanTable
	TableRDX   *HuffmanTable
	TableRDY   *HuffmanTable
	TableRSize *HuffmanTable
	SymCodes   []symCode
}

func (p *TextRegionDecoder) strips() int {
	return 1 << p.LogStrips
}

func (p *TextRegionDecoder) symCodeLen() uint8 {
	if p.SymCodeLen != 0 {
		return p.SymCodeLen
	}
	return symCodeLenFor(uint32(len(p.Syms)))
}

// symCodeLenFor returns ceil(log2 n), the width of the symbol ID field.
func symCodeLenFor(n uint32) uint8 {
	l := uint8(0)
	for uint32(1)<<l < n {
		l++
	}
	return l
}

func (p *TextRegionDecoder) validate() error {
	if p.Width <= 0 || p.Height <= 0 || p.Width > maxBitmapSize || p.Height > maxBitmapSize {
		return regionErr("invalid text region size %dx%d", p.Width, p.Height)
	}
	if len(p.Syms) == 0 && p.NumInstances > 0 {
		return symbolErr("text region with instances but no symbols")
	}
	return nil
}

func (p *TextRegionDecoder) newRegion() (*Bitmap, error) {
	region := NewBitmap(p.Width, p.Height)
	if region == nil {
		return nil, regionErr("text region %dx%d exceeds limits", p.Width, p.Height)
	}
	region.Fill(p.DefPixel)
	return region, nil
}

// DecodeArith decodes the region with arithmetic coding. The bank and iaid
// decoders may be shared with an enclosing symbol dictionary aggregate; pass
// nil for a standalone region.
func (p *TextRegionDecoder) DecodeArith(arith *ArithDecoder, grCx []ArithContext, bank *IntDecoderBank, iaid *IaidDecoder) (*Bitmap, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	region, err := p.newRegion()
	if err != nil {
		return nil, err
	}
	if bank == nil {
		bank = NewIntDecoderBank()
	}
	if iaid == nil {
		iaid = NewIaidDecoder(p.symCodeLen())
	}

	stripT, ok := bank.Proc(IADT).Decode(arith)
	if !ok {
		return nil, symbolErr("unexpected OOB for initial strip T")
	}
	stripPos := int64(-stripT) * int64(p.strips())
	firstS := int64(0)
	instances := uint32(0)

	for instances < p.NumInstances {
		if arith.Exhausted() {
			return nil, symbolErr("input exhausted at instance %d of %d", instances, p.NumInstances)
		}
		dt, ok := bank.Proc(IADT).Decode(arith)
		if !ok {
			return nil, symbolErr("unexpected OOB for strip T delta")
		}
		stripPos += int64(dt) * int64(p.strips())

		curS := int64(0)
		first := true
		for instances < p.NumInstances {
			if first {
				dfs, ok := bank.Proc(IAFS).Decode(arith)
				if !ok {
					return nil, symbolErr("unexpected OOB for first S")
				}
				firstS += int64(dfs)
				curS = firstS
				first = false
			} else {
				ds, ok := bank.Proc(IADS).Decode(arith)
				if !ok {
					break
				}
				curS += int64(ds) + int64(p.DSOffset)
			}

			curT := 0
			if p.strips() != 1 {
				t, ok := bank.Proc(IAIT).Decode(arith)
				if !ok {
					return nil, symbolErr("unexpected OOB for in-strip T")
				}
				curT = t
			}
			ti := stripPos + int64(curT)

			id := iaid.Decode(arith)
			glyph, err := p.glyph(id)
			if err != nil {
				return nil, err
			}

			if p.Refine {
				ri, ok := bank.Proc(IARI).Decode(arith)
				if !ok {
					return nil, symbolErr("unexpected OOB for refinement flag")
				}
				if ri != 0 {
					glyph, err = p.refineGlyphArith(arith, grCx, bank, glyph)
					if err != nil {
						return nil, err
					}
				}
			}

			curS, err = p.placeGlyph(region, glyph, curS, ti)
			if err != nil {
				return nil, err
			}
			instances++
		}
	}
	return region, nil
}

// DecodeHuffman decodes the region with Huffman coding. Refined glyphs embed
// arithmetically coded refinement data of a declared byte size.
func (p *TextRegionDecoder) DecodeHuffman(stream *Reader, grCx []ArithContext) (*Bitmap, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.TableFS == nil || p.TableDS == nil || p.TableDT == nil {
		return nil, huffmanErr("text region without coordinate tables")
	}
	if p.Refine && (p.TableRDW == nil || p.TableRDH == nil || p.TableRDX == nil ||
		p.TableRDY == nil || p.TableRSize == nil) {
		return nil, huffmanErr("text region without refinement tables")
	}
	region, err := p.newRegion()
	if err != nil {
		return nil, err
	}

	stripT, err := p.decodeHuffmanValue(stream, p.TableDT, "initial strip T")
	if err != nil {
		return nil, err
	}
	stripPos := int64(-stripT) * int64(p.strips())
	firstS := int64(0)
	instances := uint32(0)

	for instances < p.NumInstances {
		dt, err := p.decodeHuffmanValue(stream, p.TableDT, "strip T delta")
		if err != nil {
			return nil, err
		}
		stripPos += int64(dt) * int64(p.strips())

		curS := int64(0)
		first := true
		for instances < p.NumInstances {
			if first {
				dfs, err := p.decodeHuffmanValue(stream, p.TableFS, "first S")
				if err != nil {
					return nil, err
				}
				firstS += int64(dfs)
				curS = firstS
				first = false
			} else {
				ds, ok, err := p.TableDS.Decode(stream)
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				curS += int64(ds) + int64(p.DSOffset)
			}

			curT := 0
			if p.strips() != 1 {
				t, err := stream.ReadBits(uint32(p.LogStrips))
				if err != nil {
					return nil, err
				}
				curT = int(t)
			}
			ti := stripPos + int64(curT)

			id, err := p.decodeSymID(stream)
			if err != nil {
				return nil, err
			}
			glyph, err := p.glyph(id)
			if err != nil {
				return nil, err
			}

			if p.Refine {
				ri, err := stream.ReadBit()
				if err != nil {
					return nil, err
				}
				if ri != 0 {
					glyph, err = p.refineGlyphHuffman(stream, grCx, glyph)
					if err != nil {
						return nil, err
					}
				}
			}

			curS, err = p.placeGlyph(region, glyph, curS, ti)
			if err != nil {
				return nil, err
			}
			instances++
		}
	}
	return region, nil
}

func (p *TextRegionDecoder) glyph(id uint32) (*Bitmap, error) {
	if id >= uint32(len(p.Syms)) {
		return nil, symbolErr("symbol id %d out of range %d", id, len(p.Syms))
	}
	glyph := p.Syms[id]
	if glyph == nil {
		return nil, symbolErr("symbol %d has no bitmap", id)
	}
	return glyph, nil
}

func (p *TextRegionDecoder) decodeHuffmanValue(stream *Reader, table *HuffmanTable, what string) (int, error) {
	v, ok, err := table.Decode(stream)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, symbolErr("unexpected OOB for %s", what)
	}
	return v, nil
}

// decodeSymID reads one symbol ID codeword bit-serially against SymCodes.
func (p *TextRegionDecoder) decodeSymID(stream *Reader) (uint32, error) {
	var code uint32
	bits := uint8(0)
	for bits < 32 {
		bit, err := stream.ReadBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | bit
		bits++
		for i, sc := range p.SymCodes {
			if sc.length == bits && sc.code == code {
				return uint32(i), nil
			}
		}
	}
	return 0, huffmanErr("no matching symbol id code")
}

func (p *TextRegionDecoder) refineGlyphArith(arith *ArithDecoder, grCx []ArithContext, bank *IntDecoderBank, glyph *Bitmap) (*Bitmap, error) {
	rdw, ok := bank.Proc(IARDW).Decode(arith)
	if !ok {
		return nil, symbolErr("unexpected OOB for refinement width delta")
	}
	rdh, ok := bank.Proc(IARDH).Decode(arith)
	if !ok {
		return nil, symbolErr("unexpected OOB for refinement height delta")
	}
	rdx, ok := bank.Proc(IARDX).Decode(arith)
	if !ok {
		return nil, symbolErr("unexpected OOB for refinement x offset")
	}
	rdy, ok := bank.Proc(IARDY).Decode(arith)
	if !ok {
		return nil, symbolErr("unexpected OOB for refinement y offset")
	}
	return p.refineGlyph(arith, grCx, glyph, rdw, rdh, rdx, rdy)
}

// refineGlyphHuffman decodes the refinement parameters and the declared size
// of the embedded arithmetic data, then resynchronizes the stream past it.
func (p *TextRegionDecoder) refineGlyphHuffman(stream *Reader, grCx []ArithContext, glyph *Bitmap) (*Bitmap, error) {
	rdw, err := p.decodeHuffmanValue(stream, p.TableRDW, "refinement width delta")
	if err != nil {
		return nil, err
	}
	rdh, err := p.decodeHuffmanValue(stream, p.TableRDH, "refinement height delta")
	if err != nil {
		return nil, err
	}
	rdx, err := p.decodeHuffmanValue(stream, p.TableRDX, "refinement x offset")
	if err != nil {
		return nil, err
	}
	rdy, err := p.decodeHuffmanValue(stream, p.TableRDY, "refinement y offset")
	if err != nil {
		return nil, err
	}
	size, err := p.decodeHuffmanValue(stream, p.TableRSize, "refinement data size")
	if err != nil {
		return nil, err
	}
	if size < 0 || uint32(size) > stream.Remaining() {
		return nil, symbolErr("refinement data size %d out of bounds", size)
	}

	stream.Align()
	start := stream.Offset()
	arith := NewArithDecoder(stream)
	refined, err := p.refineGlyph(arith, grCx, glyph, rdw, rdh, rdx, rdy)
	if err != nil {
		return nil, err
	}
	stream.SetOffset(start + uint32(size))
	return refined, nil
}

func (p *TextRegionDecoder) refineGlyph(arith *ArithDecoder, grCx []ArithContext, glyph *Bitmap, rdw, rdh, rdx, rdy int) (*Bitmap, error) {
	w := int64(glyph.Width()) + int64(rdw)
	h := int64(glyph.Height()) + int64(rdh)
	if w <= 0 || w > maxBitmapSize || h <= 0 || h > maxBitmapSize {
		return nil, regionErr("refined glyph size %dx%d out of range", w, h)
	}

	r := &RefinementDecoder{
		Template:  p.RefTemplate,
		Width:     int(w),
		Height:    int(h),
		DX:        rdw>>1 + rdx,
		DY:        rdh>>1 + rdy,
		Reference: glyph,
		AT:        p.RAT,
	}
	return r.Decode(arith, grCx)
}

// placeGlyph draws one glyph at (curS, ti) honoring the reference corner and
// transposition, and returns the advanced S coordinate.
func (p *TextRegionDecoder) placeGlyph(region *Bitmap, glyph *Bitmap, curS, ti int64) (int64, error) {
	w := int64(glyph.Width())
	h := int64(glyph.Height())

	if !p.Transposed && (p.RefCorner == CornerTopRight || p.RefCorner == CornerBottomRight) {
		curS += w - 1
	} else if p.Transposed && (p.RefCorner == CornerBottomLeft || p.RefCorner == CornerBottomRight) {
		curS += h - 1
	}

	x, y, advance := p.glyphOrigin(curS, ti, w, h)
	if x < -maxComposeOffset || x > maxComposeOffset || y < -maxComposeOffset || y > maxComposeOffset {
		return 0, overflowErr("glyph position (%d, %d) out of range", x, y)
	}
	region.ComposeAt(int(x), int(y), glyph, p.CombOp)
	return curS + advance, nil
}

func (p *TextRegionDecoder) glyphOrigin(s, t, w, h int64) (x, y, advance int64) {
	if !p.Transposed {
		switch p.RefCorner {
		case CornerTopLeft:
			return s, t, w - 1
		case CornerTopRight:
			return s - w + 1, t, 0
		case CornerBottomLeft:
			return s, t - h + 1, w - 1
		default:
			return s - w + 1, t - h + 1, 0
		}
	}
	switch p.RefCorner {
	case CornerTopLeft:
		return t, s, h - 1
	case CornerTopRight:
		return t - w + 1, s, h - 1
	case CornerBottomLeft:
		return t, s - h + 1, 0
	default:
		return t - w + 1, s - h + 1, 0
	}
}

// decodeSymCodeTable runs the run-code procedure of 7.4.3.1.7: 35 run codes
// carry the per-symbol ID code lengths, which then get canonical codes.
func decodeSymCodeTable(stream *Reader, numSyms uint32) ([]symCode, error) {
	const numRunCodes = 35
	runCodes := make([]symCode, numRunCodes)
	for i := range runCodes {
		l, err := stream.ReadBits(4)
		if err != nil {
			return nil, err
		}
		runCodes[i].length = uint8(l)
	}
	if err := assignSymCodes(runCodes); err != nil {
		return nil, err
	}

	codes := make([]symCode, numSyms)
	for i := uint32(0); i < numSyms; {
		rc, err := decodeAgainst(stream, runCodes)
		if err != nil {
			return nil, err
		}

		var run uint32
		var repeat bool
		switch {
		case rc < 32:
			codes[i].length = uint8(rc)
			i++
			continue
		case rc == 32:
			extra, err := stream.ReadBits(2)
			if err != nil {
				return nil, err
			}
			run = extra + 3
			repeat = true
		case rc == 33:
			extra, err := stream.ReadBits(3)
			if err != nil {
				return nil, err
			}
			run = extra + 3
		default:
			extra, err := stream.ReadBits(7)
			if err != nil {
				return nil, err
			}
			run = extra + 11
		}

		if run > numSyms-i {
			return nil, huffmanErr("symbol id length run exceeds symbol count")
		}
		var length uint8
		if repeat && i > 0 {
			length = codes[i-1].length
		}
		for k := uint32(0); k < run; k++ {
			codes[i+k].length = length
		}
		i += run
	}

	if err := assignSymCodes(codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// decodeAgainst reads one codeword bit-serially against an assigned code set.
func decodeAgainst(stream *Reader, codes []symCode) (int, error) {
	var code uint32
	bits := uint8(0)
	for bits < 32 {
		bit, err := stream.ReadBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | bit
		bits++
		for i, sc := range codes {
			if sc.length == bits && sc.code == code {
				return i, nil
			}
		}
	}
	return 0, huffmanErr("no matching run code")
}

// assignSymCodes performs canonical code assignment over the code lengths.
func assignSymCodes(codes []symCode) error {
	maxLen := uint8(0)
	for _, sc := range codes {
		if sc.length > maxLen {
			maxLen = sc.length
		}
	}
	if maxLen > 31 {
		return huffmanErr("symbol code length %d out of range", maxLen)
	}

	counts := make([]uint32, maxLen+1)
	for _, sc := range codes {
		counts[sc.length]++
	}
	counts[0] = 0

	cur := uint32(0)
	for length := uint8(1); length <= maxLen; length++ {
		var prev uint32
		if length > 1 {
			prev = counts[length-1]
		}
		cur = (cur + prev) << 1
		code := cur
		for i := range codes {
			if codes[i].length == length {
				codes[i].code = code
				code++
			}
		}
	}
	return nil
}
