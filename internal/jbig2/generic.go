package jbig2

// GenericDecoder holds the parameters of the generic region decoding
// procedure (T.88 6.2). One instance decodes one region.
type GenericDecoder struct {
	MMR      bool
	TPGDON   bool
	UseSkip  bool
	Template uint8
	Width    int
	Height   int
	Skip     *Bitmap
	// AT holds the adaptive pixel offsets as (x, y) pairs. Template 0 uses
	// four pairs, templates 1 to 3 use the first pair only.
	AT [8]int
}

// Pseudo-pixel contexts used for the SLTP decision per template.
var sltpContext = [4]uint32{0x9B25, 0x0795, 0x00E5, 0x0195}

// Rolling window shifts and masks per template for the three context rows.
// Row naming: above2 is two rows up, above1 one row up, current the row
// being decoded.
var genericWindow = [3]struct {
	above2Shift uint32
	above2Mask  uint32
	above1Mask  uint32
	currentMask uint32
}{
	{12, 0x07, 0x1F, 0x0F},
	{9, 0x0F, 0x1F, 0x07},
	{7, 0x07, 0x0F, 0x03},
}

// Decode produces the region bitmap. The context bank must hold 1<<16,
// 1<<13, 1<<10 or 1<<10 entries for templates 0 to 3 respectively; it is the
// caller's job to zero it where the standard requires fresh statistics.
func (g *GenericDecoder) Decode(arith *ArithDecoder, cx []ArithContext) (*Bitmap, error) {
	if g.Template > 3 {
		return nil, templateErr("generic template %d out of range", g.Template)
	}
	if g.Width <= 0 || g.Height <= 0 || g.Width > maxBitmapSize || g.Height > maxBitmapSize {
		return nil, regionErr("invalid generic region size %dx%d", g.Width, g.Height)
	}
	bitmap := NewBitmap(g.Width, g.Height)
	if bitmap == nil {
		return nil, regionErr("generic region %dx%d exceeds limits", g.Width, g.Height)
	}

	if g.Template == 3 {
		return bitmap, g.decodeTemplate3(arith, cx, bitmap)
	}
	return bitmap, g.decodeTemplate012(arith, cx, bitmap)
}

// DecodeMMR runs the MMR alternative coding path over the stream.
func (g *GenericDecoder) DecodeMMR(stream *Reader) (*Bitmap, error) {
	if g.Width <= 0 || g.Height <= 0 || g.Width > maxBitmapSize || g.Height > maxBitmapSize {
		return nil, regionErr("invalid generic region size %dx%d", g.Width, g.Height)
	}
	return decodeMMR(stream, g.Width, g.Height)
}

// ContextSize returns the number of probability contexts the template needs.
func (g *GenericDecoder) ContextSize() int {
	return genericContextSize(g.Template)
}

func genericContextSize(template uint8) int {
	switch template {
	case 0:
		return 1 << 16
	case 1:
		return 1 << 13
	default:
		return 1 << 10
	}
}

func (g *GenericDecoder) decodeTemplate012(arith *ArithDecoder, cx []ArithContext, bitmap *Bitmap) error {
	t := int(g.Template)
	mod2 := t % 2
	div2 := t / 2
	atShift := uint32(4 - t)
	win := genericWindow[t]
	skip := g.Skip
	useSkip := g.UseSkip && skip != nil
	ltp := 0

	for y := 0; y < g.Height; y++ {
		if g.TPGDON {
			ltp ^= arith.Decode(&cx[sltpContext[t]])
		}
		if ltp != 0 {
			bitmap.CopyRow(y, y-1)
			continue
		}

		// Seed the rolling windows with the pixels left of column 0.
		above2 := uint32(bitmap.Pixel(1+mod2, y-2))
		above2 |= uint32(bitmap.Pixel(mod2, y-2)) << 1
		if t == 1 {
			above2 |= uint32(bitmap.Pixel(0, y-2)) << 2
		}
		above1 := uint32(bitmap.Pixel(2-div2, y-1))
		above1 |= uint32(bitmap.Pixel(1-div2, y-1)) << 1
		if t < 2 {
			above1 |= uint32(bitmap.Pixel(0, y-1)) << 2
		}
		current := uint32(0)

		for x := 0; x < g.Width; x++ {
			bit := 0
			if !(useSkip && skip.Pixel(x, y) != 0) {
				label := current
				label |= uint32(bitmap.Pixel(x+g.AT[0], y+g.AT[1])) << atShift
				label |= above1 << (atShift + 1)
				label |= above2 << win.above2Shift
				if t == 0 {
					label |= uint32(bitmap.Pixel(x+g.AT[2], y+g.AT[3])) << 10
					label |= uint32(bitmap.Pixel(x+g.AT[4], y+g.AT[5])) << 11
					label |= uint32(bitmap.Pixel(x+g.AT[6], y+g.AT[7])) << 15
				}
				if int(label) >= len(cx) {
					return templateErr("context label %#x exceeds bank size %d", label, len(cx))
				}
				bit = arith.Decode(&cx[label])
			}
			if bit != 0 {
				bitmap.SetPixel(x, y, bit)
			}
			above2 = (above2<<1 | uint32(bitmap.Pixel(x+2+mod2, y-2))) & win.above2Mask
			above1 = (above1<<1 | uint32(bitmap.Pixel(x+3-div2, y-1))) & win.above1Mask
			current = (current<<1 | uint32(bit)) & win.currentMask
		}
	}
	return nil
}

func (g *GenericDecoder) decodeTemplate3(arith *ArithDecoder, cx []ArithContext, bitmap *Bitmap) error {
	skip := g.Skip
	useSkip := g.UseSkip && skip != nil
	ltp := 0

	for y := 0; y < g.Height; y++ {
		if g.TPGDON {
			ltp ^= arith.Decode(&cx[sltpContext[3]])
		}
		if ltp != 0 {
			bitmap.CopyRow(y, y-1)
			continue
		}

		above := uint32(bitmap.Pixel(1, y-1))
		above |= uint32(bitmap.Pixel(0, y-1)) << 1
		current := uint32(0)

		for x := 0; x < g.Width; x++ {
			bit := 0
			if !(useSkip && skip.Pixel(x, y) != 0) {
				label := current
				label |= uint32(bitmap.Pixel(x+g.AT[0], y+g.AT[1])) << 4
				label |= above << 5
				if int(label) >= len(cx) {
					return templateErr("context label %#x exceeds bank size %d", label, len(cx))
				}
				bit = arith.Decode(&cx[label])
			}
			if bit != 0 {
				bitmap.SetPixel(x, y, bit)
			}
			above = (above<<1 | uint32(bitmap.Pixel(x+2, y-1))) & 0x1F
			current = (current<<1 | uint32(bit)) & 0x0F
		}
	}
	return nil
}
