package jbig2

import (
	"image"
	"image/color"

	"github.com/pagemark/jbig2/internal/jbig2"
)

// Image is a decoded bitonal bitmap. A set pixel means ink.
type Image struct {
	bm *jbig2.Bitmap
}

// Width returns the width in pixels.
func (img *Image) Width() int {
	if img == nil || img.bm == nil {
		return 0
	}
	return img.bm.Width()
}

// Height returns the height in pixels.
func (img *Image) Height() int {
	if img == nil || img.bm == nil {
		return 0
	}
	return img.bm.Height()
}

// Stride returns the number of bytes per packed row.
func (img *Image) Stride() int {
	if img == nil || img.bm == nil {
		return 0
	}
	return img.bm.Stride()
}

// Data returns the packed 1-bit pixel rows, MSB first.
func (img *Image) Data() []byte {
	if img == nil || img.bm == nil {
		return nil
	}
	return img.bm.Data()
}

// Pixel returns the pixel at (x, y), 0 outside the image.
func (img *Image) Pixel(x, y int) int {
	if img == nil || img.bm == nil {
		return 0
	}
	return img.bm.Pixel(x, y)
}

// Gray converts to an 8-bit grayscale image: ink renders black on a white
// background.
func (img *Image) Gray() *image.Gray {
	w, h := img.Width(), img.Height()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for i := range gray.Pix {
		gray.Pix[i] = 0xFF
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.bm.Pixel(x, y) != 0 {
				gray.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return gray
}
