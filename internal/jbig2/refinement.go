package jbig2

// RefinementDecoder holds the parameters of the generic refinement region
// decoding procedure (T.88 6.3). The produced bitmap refines Reference,
// which is consulted at an offset of (-DX, -DY).
type RefinementDecoder struct {
	Template  uint8
	TPGRON    bool
	Width     int
	Height    int
	DX        int
	DY        int
	Reference *Bitmap
	// AT holds the two adaptive pixel offsets of template 0 as (x, y)
	// pairs. AT[0..1] addresses the region being decoded, AT[2..3] the
	// reference bitmap.
	AT [4]int
}

// SLTP pseudo-pixel contexts per refinement template (Figures 14 and 15).
var refinementSLTP = [2]uint32{0x0010, 0x0008}

// Decode produces the refined bitmap. The context bank must hold 1<<13
// entries for template 0 and 1<<10 for template 1.
func (r *RefinementDecoder) Decode(arith *ArithDecoder, cx []ArithContext) (*Bitmap, error) {
	if r.Template > 1 {
		return nil, templateErr("refinement template %d out of range", r.Template)
	}
	if r.Reference == nil {
		return nil, regionErr("refinement region without reference bitmap")
	}
	if r.Width <= 0 || r.Height <= 0 || r.Width > maxBitmapSize || r.Height > maxBitmapSize {
		return nil, regionErr("invalid refinement region size %dx%d", r.Width, r.Height)
	}
	bitmap := NewBitmap(r.Width, r.Height)
	if bitmap == nil {
		return nil, regionErr("refinement region %dx%d exceeds limits", r.Width, r.Height)
	}

	for y := 0; y < r.Height; y++ {
		if r.TPGRON {
			if arith.Decode(&cx[refinementSLTP[r.Template]]) != 0 {
				// Typical prediction over the reference bitmap is not
				// implemented; bail out instead of desynchronizing.
				return nil, unsupportedErr("refinement typical prediction")
			}
		}
		for x := 0; x < r.Width; x++ {
			label := r.contextLabel(bitmap, x, y)
			bit := arith.Decode(&cx[label])
			bitmap.SetPixel(x, y, bit)
		}
	}
	return bitmap, nil
}

// ContextSize returns the number of probability contexts the template needs.
func (r *RefinementDecoder) ContextSize() int {
	return refinementContextSize(r.Template)
}

func refinementContextSize(template uint8) int {
	if template == 0 {
		return 1 << 13
	}
	return 1 << 10
}

// contextLabel assembles the context per Figures 12 and 13, MSB first.
func (r *RefinementDecoder) contextLabel(bitmap *Bitmap, x, y int) uint32 {
	ref := r.Reference
	rx := x - r.DX
	ry := y - r.DY

	var label uint32
	if r.Template == 0 {
		label = uint32(bitmap.Pixel(x+r.AT[0], y+r.AT[1]))
		label = label<<1 | uint32(bitmap.Pixel(x, y-1))
		label = label<<1 | uint32(bitmap.Pixel(x+1, y-1))
		label = label<<1 | uint32(bitmap.Pixel(x-1, y))
		label = label<<1 | uint32(ref.Pixel(rx+r.AT[2], ry+r.AT[3]))
		label = label<<1 | uint32(ref.Pixel(rx, ry-1))
		label = label<<1 | uint32(ref.Pixel(rx+1, ry-1))
		label = label<<1 | uint32(ref.Pixel(rx-1, ry))
		label = label<<1 | uint32(ref.Pixel(rx, ry))
		label = label<<1 | uint32(ref.Pixel(rx+1, ry))
		label = label<<1 | uint32(ref.Pixel(rx-1, ry+1))
		label = label<<1 | uint32(ref.Pixel(rx, ry+1))
		label = label<<1 | uint32(ref.Pixel(rx+1, ry+1))
		return label
	}

	label = uint32(bitmap.Pixel(x-1, y-1))
	label = label<<1 | uint32(bitmap.Pixel(x, y-1))
	label = label<<1 | uint32(bitmap.Pixel(x+1, y-1))
	label = label<<1 | uint32(bitmap.Pixel(x-1, y))
	label = label<<1 | uint32(ref.Pixel(rx, ry-1))
	label = label<<1 | uint32(ref.Pixel(rx-1, ry))
	label = label<<1 | uint32(ref.Pixel(rx, ry))
	label = label<<1 | uint32(ref.Pixel(rx+1, ry))
	label = label<<1 | uint32(ref.Pixel(rx, ry+1))
	label = label<<1 | uint32(ref.Pixel(rx+1, ry+1))
	return label
}
