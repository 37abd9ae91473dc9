package jbig2

// HalftoneDecoder implements the halftone region decoding procedure
// (T.88 6.6): a gray-scale index image selects dictionary patterns which are
// stamped onto the region at grid positions derived from fixed-point
// (8-bit fraction) grid vectors.
type HalftoneDecoder struct {
	Width      int
	Height     int
	MMR        bool
	Template   uint8
	Patterns   *PatternDict
	DefPixel   bool
	CombOp     CombOp
	EnableSkip bool
	GridWidth  int
	GridHeight int
	GridX      int
	GridY      int
	// VectorX and VectorY are the grid vector components HRX and HRY, in
	// 1/256 pixel units.
	VectorX int
	VectorY int
}

// cellOrigin returns the pixel position of grid cell (ng, mg). The shifts
// are arithmetic, so off-page cells keep their sign.
func (h *HalftoneDecoder) cellOrigin(mg, ng int) (x, y int) {
	x = int(int64(h.GridX)+int64(mg)*int64(h.VectorY)+int64(ng)*int64(h.VectorX)) >> 8
	y = int(int64(h.GridY)+int64(mg)*int64(h.VectorX)-int64(ng)*int64(h.VectorY)) >> 8
	return x, y
}

// cellOutside reports whether the pattern stamped at grid cell (ng, mg)
// falls entirely outside the region.
func (h *HalftoneDecoder) cellOutside(mg, ng int) bool {
	x, y := h.cellOrigin(mg, ng)
	return x+h.Patterns.Width <= 0 || x >= h.Width ||
		y+h.Patterns.Height <= 0 || y >= h.Height
}

// skipBitmap computes the skip mask over the grid (6.6.5.1).
func (h *HalftoneDecoder) skipBitmap() (*Bitmap, error) {
	skip := NewBitmap(h.GridWidth, h.GridHeight)
	if skip == nil {
		return nil, regionErr("invalid halftone grid size %dx%d", h.GridWidth, h.GridHeight)
	}
	for mg := 0; mg < h.GridHeight; mg++ {
		for ng := 0; ng < h.GridWidth; ng++ {
			if h.cellOutside(mg, ng) {
				skip.SetPixel(ng, mg, 1)
			}
		}
	}
	return skip, nil
}

// bitsPerValue returns HBPP: ceil(log2 pattern count), at least 1.
func (h *HalftoneDecoder) bitsPerValue() int {
	n := h.Patterns.NumPatterns()
	bpp := 1
	for 1<<bpp < n {
		bpp++
	}
	return bpp
}

func (h *HalftoneDecoder) validate() error {
	if h.Patterns == nil || h.Patterns.NumPatterns() == 0 {
		return segmentErr("halftone region without pattern dictionary")
	}
	if h.Width <= 0 || h.Height <= 0 || h.Width > maxBitmapSize || h.Height > maxBitmapSize {
		return regionErr("invalid halftone region size %dx%d", h.Width, h.Height)
	}
	if h.GridWidth <= 0 || h.GridHeight <= 0 || h.GridWidth > maxBitmapSize || h.GridHeight > maxBitmapSize {
		return regionErr("invalid halftone grid size %dx%d", h.GridWidth, h.GridHeight)
	}
	return nil
}

// DecodeArith decodes the region with arithmetic coding.
func (h *HalftoneDecoder) DecodeArith(arith *ArithDecoder, cx []ArithContext) (*Bitmap, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}

	var skip *Bitmap
	if h.EnableSkip {
		var err error
		if skip, err = h.skipBitmap(); err != nil {
			return nil, err
		}
	}

	gray := &GrayScaleDecoder{
		BPP:      h.bitsPerValue(),
		Width:    h.GridWidth,
		Height:   h.GridHeight,
		Template: h.Template,
		UseSkip:  skip != nil,
		Skip:     skip,
	}
	values, err := gray.DecodeArith(arith, cx)
	if err != nil {
		return nil, err
	}
	return h.stamp(values)
}

// DecodeMMR decodes the region with MMR-coded bitplanes. Skip decoding does
// not apply to the MMR path.
func (h *HalftoneDecoder) DecodeMMR(stream *Reader) (*Bitmap, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	gray := &GrayScaleDecoder{
		MMR:    true,
		BPP:    h.bitsPerValue(),
		Width:  h.GridWidth,
		Height: h.GridHeight,
	}
	values, err := gray.DecodeMMR(stream)
	if err != nil {
		return nil, err
	}
	return h.stamp(values)
}

// stamp renders the decoded gray values onto the region bitmap. Patterns
// falling partly outside the region are clipped; a gray value with no
// matching pattern is corrupt input.
func (h *HalftoneDecoder) stamp(values []uint32) (*Bitmap, error) {
	region := NewBitmap(h.Width, h.Height)
	if region == nil {
		return nil, regionErr("halftone region %dx%d exceeds limits", h.Width, h.Height)
	}
	region.Fill(h.DefPixel)

	numPats := uint32(h.Patterns.NumPatterns())
	for mg := 0; mg < h.GridHeight; mg++ {
		for ng := 0; ng < h.GridWidth; ng++ {
			index := values[mg*h.GridWidth+ng]
			if index >= numPats {
				return nil, regionErr("gray value %d exceeds pattern count %d", index, numPats)
			}
			x, y := h.cellOrigin(mg, ng)
			region.ComposeAt(x, y, h.Patterns.Pattern(int(index)), h.CombOp)
		}
	}
	return region, nil
}
