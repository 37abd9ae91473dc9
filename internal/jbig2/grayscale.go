package jbig2

// GrayScaleDecoder implements the gray-scale image decoding procedure of
// T.88 Annex C. It decodes BPP bitplanes MSB first and folds them as a Gray
// code into per-pixel integer values.
type GrayScaleDecoder struct {
	MMR      bool
	BPP      int
	Width    int
	Height   int
	Template uint8
	UseSkip  bool
	Skip     *Bitmap
}

func (g *GrayScaleDecoder) planeDecoder() *GenericDecoder {
	dec := &GenericDecoder{
		MMR:      g.MMR,
		Template: g.Template,
		UseSkip:  g.UseSkip,
		Skip:     g.Skip,
		Width:    g.Width,
		Height:   g.Height,
	}
	if g.Template <= 1 {
		dec.AT[0] = 3
	} else {
		dec.AT[0] = 2
	}
	dec.AT[1] = -1
	if g.Template == 0 {
		dec.AT[2], dec.AT[3] = -3, -1
		dec.AT[4], dec.AT[5] = 2, -2
		dec.AT[6], dec.AT[7] = -2, -2
	}
	return dec
}

// DecodeArith decodes the gray-scale image with arithmetic coding. The
// context bank is shared across all bitplanes.
func (g *GrayScaleDecoder) DecodeArith(arith *ArithDecoder, cx []ArithContext) ([]uint32, error) {
	if g.BPP <= 0 || g.BPP > 32 {
		return nil, regionErr("invalid gray-scale bit depth %d", g.BPP)
	}
	dec := g.planeDecoder()
	planes := make([]*Bitmap, g.BPP)
	for j := g.BPP - 1; j >= 0; j-- {
		plane, err := dec.Decode(arith, cx)
		if err != nil {
			return nil, err
		}
		planes[j] = plane
	}
	return combineGrayPlanes(planes, g.Width, g.Height)
}

// DecodeMMR decodes the gray-scale image with one MMR stream per bitplane,
// each starting on a byte boundary.
func (g *GrayScaleDecoder) DecodeMMR(stream *Reader) ([]uint32, error) {
	if g.BPP <= 0 || g.BPP > 32 {
		return nil, regionErr("invalid gray-scale bit depth %d", g.BPP)
	}
	planes := make([]*Bitmap, g.BPP)
	for j := g.BPP - 1; j >= 0; j-- {
		plane, err := decodeMMR(stream, g.Width, g.Height)
		if err != nil {
			return nil, err
		}
		planes[j] = plane
		stream.Align()
	}
	return combineGrayPlanes(planes, g.Width, g.Height)
}

// combineGrayPlanes folds raw bitplanes into gray values (C.5). Plane BPP-1
// contributes its bit directly; each lower plane is first XORed against the
// already-folded plane above it. The fold direction is load-bearing.
func combineGrayPlanes(planes []*Bitmap, width, height int) ([]uint32, error) {
	values := make([]uint32, width*height)
	for j := len(planes) - 1; j >= 0; j-- {
		plane := planes[j]
		if plane == nil {
			return nil, regionErr("missing gray-scale bitplane %d", j)
		}
		if j < len(planes)-1 {
			if !plane.ComposeAt(0, 0, planes[j+1], CombXOR) {
				return nil, regionErr("gray-scale bitplanes have mismatched sizes")
			}
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if plane.Pixel(x, y) != 0 {
					values[y*width+x] |= 1 << j
				}
			}
		}
	}
	return values, nil
}
