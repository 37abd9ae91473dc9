package jbig2

import "encoding/binary"

const (
	// maxBitmapSize bounds a single dimension of any decoded bitmap.
	maxBitmapSize = 65535

	maxBitmapPixels = int(^uint32(0)>>1) - 31
	maxBitmapBytes  = maxBitmapPixels / 8

	// Region offsets beyond this are treated as corrupt rather than clipped.
	maxComposeOffset = 1 << 20
)

// CombOp is a JBIG2 combination operator. It governs how a decoded region is
// merged pixel-by-pixel into its target bitmap.
type CombOp int

const (
	CombOR CombOp = iota
	CombAND
	CombXOR
	CombXNOR
	CombReplace
)

func (op CombOp) apply(dst, src int) int {
	switch op {
	case CombOR:
		return dst | src
	case CombAND:
		return dst & src
	case CombXOR:
		return dst ^ src
	case CombXNOR:
		return 1 - (dst ^ src)
	default:
		return src
	}
}

// Bitmap is a packed bitonal image. Rows are stored MSB first with the
// stride rounded up to a 32-bit boundary.
type Bitmap struct {
	width  int
	height int
	stride int
	data   []byte
}

// NewBitmap allocates a zeroed bitmap. It returns nil when the dimensions
// are out of range.
func NewBitmap(w, h int) *Bitmap {
	if w <= 0 || h <= 0 || w > maxBitmapPixels {
		return nil
	}
	stridePixels := (w + 31) &^ 31
	if h > maxBitmapPixels/stridePixels {
		return nil
	}
	b := &Bitmap{
		width:  w,
		height: h,
		stride: stridePixels / 8,
	}
	b.data = make([]byte, b.stride*h)
	return b
}

// Width returns the width in pixels.
func (b *Bitmap) Width() int { return b.width }

// Height returns the height in pixels.
func (b *Bitmap) Height() int { return b.height }

// Stride returns the number of bytes per row.
func (b *Bitmap) Stride() int { return b.stride }

// Data exposes the packed backing buffer.
func (b *Bitmap) Data() []byte { return b.data }

// Pixel returns the bit at (x, y), or 0 outside the bitmap.
func (b *Bitmap) Pixel(x, y int) int {
	if b == nil || x < 0 || x >= b.width {
		return 0
	}
	row := b.row(y)
	if row == nil {
		return 0
	}
	return int(row[x>>3]>>(7-x&7)) & 1
}

// SetPixel writes the bit at (x, y). Writes outside the bitmap are dropped.
func (b *Bitmap) SetPixel(x, y, v int) {
	if b == nil || x < 0 || x >= b.width {
		return
	}
	row := b.row(y)
	if row == nil {
		return
	}
	mask := byte(1) << (7 - x&7)
	if v != 0 {
		row[x>>3] |= mask
	} else {
		row[x>>3] &^= mask
	}
}

// CopyRow duplicates the srcY row into dstY, zero-filling when srcY is
// outside the bitmap.
func (b *Bitmap) CopyRow(dstY, srcY int) {
	dst := b.row(dstY)
	if dst == nil {
		return
	}
	src := b.row(srcY)
	if src == nil {
		clear(dst)
		return
	}
	copy(dst, src)
}

// Fill sets every pixel to v.
func (b *Bitmap) Fill(v bool) {
	if b == nil {
		return
	}
	fill := byte(0)
	if v {
		fill = 0xFF
	}
	for i := range b.data {
		b.data[i] = fill
	}
}

// Clone returns an owned copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	if b == nil {
		return nil
	}
	dup := *b
	dup.data = append([]byte(nil), b.data...)
	return &dup
}

// ComposeAt merges src into b at (x, y) with the given operator, clipping
// any part of src falling outside b. Offsets beyond the sanity bound are
// rejected.
func (b *Bitmap) ComposeAt(x, y int, src *Bitmap, op CombOp) bool {
	if src == nil {
		return false
	}
	return b.composeRect(x, y, src, 0, 0, src.width, src.height, op)
}

// composeRect merges the (sx, sy, sw, sh) rectangle of src into b at (x, y).
func (b *Bitmap) composeRect(x, y int, src *Bitmap, sx, sy, sw, sh int, op CombOp) bool {
	if b == nil || b.data == nil || src == nil || src.data == nil {
		return false
	}
	if x < -maxComposeOffset || x > maxComposeOffset ||
		y < -maxComposeOffset || y > maxComposeOffset {
		return false
	}
	if sx < 0 || sy < 0 || sx+sw > src.width || sy+sh > src.height {
		return false
	}

	xs0, ys0 := 0, 0
	if x < 0 {
		xs0 = -x
	}
	if y < 0 {
		ys0 = -y
	}
	xs1 := min(sw, b.width-x)
	ys1 := min(sh, b.height-y)
	if xs0 >= xs1 || ys0 >= ys1 {
		return false
	}

	xd0 := max(x, 0)
	yd0 := max(y, 0)
	for yy := 0; yy < ys1-ys0; yy++ {
		srcRow := src.row(sy + ys0 + yy)
		dstRow := b.row(yd0 + yy)
		if srcRow == nil || dstRow == nil {
			return false
		}
		for xx := 0; xx < xs1-xs0; xx++ {
			srcX := sx + xs0 + xx
			dstX := xd0 + xx
			srcBit := int(srcRow[srcX>>3]>>(7-srcX&7)) & 1
			dstBit := int(dstRow[dstX>>3]>>(7-dstX&7)) & 1
			mask := byte(1) << (7 - dstX&7)
			if op.apply(dstBit, srcBit) != 0 {
				dstRow[dstX>>3] |= mask
			} else {
				dstRow[dstX>>3] &^= mask
			}
		}
	}
	return true
}

// Crop returns a newly allocated copy of the (x, y, w, h) rectangle.
func (b *Bitmap) Crop(x, y, w, h int) *Bitmap {
	out := NewBitmap(w, h)
	if out == nil || b == nil || b.data == nil {
		return out
	}
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return out
	}
	if x&7 == 0 {
		b.cropAligned(x, y, out)
	} else {
		b.cropShifted(x, y, out)
	}
	return out
}

func (b *Bitmap) cropAligned(x, y int, out *Bitmap) {
	first := x >> 3
	nBytes := min(out.stride, b.stride-first)
	nRows := min(out.height, b.height-y)
	for j := 0; j < nRows; j++ {
		copy(out.rowUnsafe(j)[:nBytes], b.rowUnsafe(y+j)[first:first+nBytes])
	}
}

func (b *Bitmap) cropShifted(x, y int, out *Bitmap) {
	first := x >> 5 << 2
	shift := x & 31
	nBytes := min(out.stride, b.stride-first)
	nRows := min(out.height, b.height-y)
	for j := 0; j < nRows; j++ {
		srcRow := b.rowUnsafe(y + j)
		dstRow := out.rowUnsafe(j)
		src := first
		for dst := 0; dst < nBytes; dst += 4 {
			v := binary.BigEndian.Uint32(srcRow[src:]) << shift
			if src+4 < b.stride {
				v |= binary.BigEndian.Uint32(srcRow[src+4:]) >> (32 - shift)
			}
			binary.BigEndian.PutUint32(dstRow[dst:], v)
			src += 4
		}
	}
}

// Grow raises the bitmap height in place, filling new rows with v. Heights
// at or below the current one are ignored.
func (b *Bitmap) Grow(h int, v bool) {
	if b == nil || b.data == nil {
		return
	}
	if h <= b.height || h > maxBitmapBytes/b.stride {
		return
	}
	oldSize := b.stride * b.height
	grown := make([]byte, b.stride*h)
	copy(grown, b.data)
	if v {
		for i := oldSize; i < len(grown); i++ {
			grown[i] = 0xFF
		}
	}
	b.data = grown
	b.height = h
}

func (b *Bitmap) row(y int) []byte {
	if b == nil || b.data == nil || y < 0 || y >= b.height {
		return nil
	}
	return b.data[y*b.stride : (y+1)*b.stride]
}

func (b *Bitmap) rowUnsafe(y int) []byte {
	return b.data[y*b.stride : (y+1)*b.stride]
}
