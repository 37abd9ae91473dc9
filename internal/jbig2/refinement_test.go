package jbig2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefinementDecoderValidation(t *testing.T) {
	arith := NewArithDecoder(NewReader(nil))
	ref := NewBitmap(2, 2)

	r := &RefinementDecoder{Template: 2, Width: 1, Height: 1, Reference: ref}
	_, err := r.Decode(arith, make([]ArithContext, 1<<13))
	require.ErrorIs(t, err, ErrTemplate)

	r = &RefinementDecoder{Width: 1, Height: 1}
	_, err = r.Decode(arith, make([]ArithContext, 1<<13))
	require.ErrorIs(t, err, ErrRegion)

	r = &RefinementDecoder{Width: 0, Height: 1, Reference: ref}
	_, err = r.Decode(arith, make([]ArithContext, 1<<13))
	require.ErrorIs(t, err, ErrRegion)
}

func TestRefinementDecoderFirstDecision(t *testing.T) {
	// A fresh coder over this input yields 1 as its first decision
	// regardless of the reference content.
	for template := uint8(0); template <= 1; template++ {
		r := &RefinementDecoder{
			Template:  template,
			Width:     1,
			Height:    1,
			Reference: NewBitmap(2, 2),
		}
		cx := make([]ArithContext, r.ContextSize())
		bm, err := r.Decode(NewArithDecoder(NewReader([]byte{0xB0, 0x00})), cx)
		require.NoError(t, err)
		assert.Equal(t, 1, bm.Pixel(0, 0), "template %d", template)
	}
}

func TestRefinementDecoderDeterministic(t *testing.T) {
	ref := NewBitmap(8, 8)
	ref.SetPixel(1, 1, 1)
	ref.SetPixel(4, 2, 1)
	ref.SetPixel(6, 6, 1)
	data := []byte{0x5A, 0xC3, 0x99, 0x0F, 0x77, 0x21}

	for template := uint8(0); template <= 1; template++ {
		r := &RefinementDecoder{
			Template:  template,
			Width:     8,
			Height:    8,
			DX:        1,
			DY:        -1,
			Reference: ref,
		}
		cx := make([]ArithContext, r.ContextSize())
		first, err := r.Decode(NewArithDecoder(NewReader(data)), cx)
		require.NoError(t, err)

		cx = make([]ArithContext, r.ContextSize())
		second, err := r.Decode(NewArithDecoder(NewReader(data)), cx)
		require.NoError(t, err)
		require.Equal(t, first.Data(), second.Data(), "template %d", template)
	}
}

func TestRefinementDecoderTypicalPredictionRejected(t *testing.T) {
	// The first SLTP decision on this input fires the typical prediction
	// path, which is not implemented.
	for template := uint8(0); template <= 1; template++ {
		r := &RefinementDecoder{
			Template:  template,
			TPGRON:    true,
			Width:     2,
			Height:    2,
			Reference: NewBitmap(2, 2),
		}
		cx := make([]ArithContext, r.ContextSize())
		_, err := r.Decode(NewArithDecoder(NewReader([]byte{0xB0, 0x00})), cx)
		require.ErrorIs(t, err, ErrUnsupported)
	}
}
