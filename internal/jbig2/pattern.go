package jbig2

// PatternDict is an ordered list of fixed-size halftone patterns produced by
// a pattern dictionary segment.
type PatternDict struct {
	Width    int
	Height   int
	Patterns []*Bitmap
}

// NumPatterns returns the number of patterns in the dictionary.
func (d *PatternDict) NumPatterns() int { return len(d.Patterns) }

// Pattern returns the pattern with the given gray value, or nil when out of
// range.
func (d *PatternDict) Pattern(index int) *Bitmap {
	if d == nil || index < 0 || index >= len(d.Patterns) {
		return nil
	}
	return d.Patterns[index]
}

// PatternDictDecoder implements the pattern dictionary decoding procedure
// (T.88 6.7). All patterns are coded as one collective bitmap which is then
// sliced into GrayMax+1 equal-width patterns.
type PatternDictDecoder struct {
	MMR           bool
	Template      uint8
	PatternWidth  int
	PatternHeight int
	GrayMax       uint32
}

func (p *PatternDictDecoder) collectiveDecoder() (*GenericDecoder, error) {
	if p.PatternWidth <= 0 || p.PatternHeight <= 0 {
		return nil, regionErr("pattern size %dx%d must be positive", p.PatternWidth, p.PatternHeight)
	}
	count := uint64(p.GrayMax) + 1
	width := count * uint64(p.PatternWidth)
	if width > maxBitmapSize || p.PatternHeight > maxBitmapSize {
		return nil, overflowErr("collective pattern bitmap width %d exceeds limits", width)
	}

	dec := &GenericDecoder{
		MMR:      p.MMR,
		Template: p.Template,
		Width:    int(width),
		Height:   p.PatternHeight,
	}
	// Table 27: the first AT pixel is tied to the pattern height for
	// template 0 and to the pattern width for templates 1 to 3.
	dec.AT[0] = -p.PatternWidth
	dec.AT[1] = 0
	if p.Template == 0 {
		dec.AT[0] = -p.PatternHeight
		dec.AT[2], dec.AT[3] = -3, -1
		dec.AT[4], dec.AT[5] = 2, -2
		dec.AT[6], dec.AT[7] = -2, -2
	}
	return dec, nil
}

// DecodeArith decodes the dictionary with arithmetic coding.
func (p *PatternDictDecoder) DecodeArith(arith *ArithDecoder, cx []ArithContext) (*PatternDict, error) {
	dec, err := p.collectiveDecoder()
	if err != nil {
		return nil, err
	}
	collective, err := dec.Decode(arith, cx)
	if err != nil {
		return nil, err
	}
	return p.slice(collective), nil
}

// DecodeMMR decodes the dictionary with MMR coding.
func (p *PatternDictDecoder) DecodeMMR(stream *Reader) (*PatternDict, error) {
	dec, err := p.collectiveDecoder()
	if err != nil {
		return nil, err
	}
	collective, err := dec.DecodeMMR(stream)
	if err != nil {
		return nil, err
	}
	return p.slice(collective), nil
}

// slice cuts the collective bitmap into GrayMax+1 patterns, left to right.
func (p *PatternDictDecoder) slice(collective *Bitmap) *PatternDict {
	count := int(p.GrayMax) + 1
	dict := &PatternDict{
		Width:    p.PatternWidth,
		Height:   p.PatternHeight,
		Patterns: make([]*Bitmap, count),
	}
	for gray := 0; gray < count; gray++ {
		dict.Patterns[gray] = collective.Crop(gray*p.PatternWidth, 0, p.PatternWidth, p.PatternHeight)
	}
	return dict
}
