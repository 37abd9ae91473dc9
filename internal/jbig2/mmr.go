package jbig2

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

// decodeMMR decodes a Group 4 (MMR) coded bitmap of the given size from the
// reader's current position and advances the reader past the consumed bytes.
// JBIG2 uses 1 for black, so the fax output polarity is inverted here.
func decodeMMR(stream *Reader, width, height int) (*Bitmap, error) {
	stream.Align()
	data := stream.Rest()
	if data == nil {
		return nil, parseErr("no data for MMR region")
	}

	bitmap := NewBitmap(width, height)
	if bitmap == nil {
		return nil, regionErr("invalid MMR region size %dx%d", width, height)
	}

	src := bytes.NewReader(data)
	dec := ccitt.NewReader(src, ccitt.MSB, ccitt.Group4, width, height, &ccitt.Options{
		Invert: true,
	})

	rowBytes := (width + 7) / 8
	buf := make([]byte, rowBytes)
	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(dec, buf); err != nil {
			// Short data yields a partially filled bitmap, matching the
			// leniency of the arithmetic path on truncated streams.
			break
		}
		copy(bitmap.rowUnsafe(y)[:rowBytes], buf)
	}

	consumed := int64(len(data)) - int64(src.Len())
	stream.Skip(uint32(consumed))
	return bitmap, nil
}
