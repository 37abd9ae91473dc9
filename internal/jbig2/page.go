package jbig2

// unboundedPageHeight signals a page whose height is discovered through
// end-of-stripe segments.
const unboundedPageHeight = ^uint32(0)

// PageInfo carries the fields of a page information segment (T.88 7.4.8).
type PageInfo struct {
	Width          uint32
	Height         uint32
	XResolution    uint32
	YResolution    uint32
	Lossless       bool
	MayRefine      bool
	DefaultPixel   bool
	DefaultCombOp  CombOp
	AuxBuffers     bool
	CombOpOverride bool
	Striped        bool
	MaxStripeSize  uint16
}

// parsePageInfo reads one page information segment payload.
func parsePageInfo(r *Reader) (*PageInfo, error) {
	width, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	height, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	xres, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	yres, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	striping, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}

	info := &PageInfo{
		Width:          width,
		Height:         height,
		XResolution:    xres,
		YResolution:    yres,
		Lossless:       flags&0x01 != 0,
		MayRefine:      flags&0x02 != 0,
		DefaultPixel:   flags&0x04 != 0,
		DefaultCombOp:  CombOp(flags >> 3 & 0x03),
		AuxBuffers:     flags&0x20 != 0,
		CombOpOverride: flags&0x40 != 0,
		Striped:        striping&0x8000 != 0,
		MaxStripeSize:  striping & 0x7FFF,
	}
	if info.Height == unboundedPageHeight && !info.Striped {
		return nil, formatErr("page with unknown height but no striping")
	}
	return info, nil
}

// EffectiveHeight returns the height to allocate initially. Striped pages
// with unknown height start at one stripe and grow.
func (p *PageInfo) EffectiveHeight() uint32 {
	if p.Height == unboundedPageHeight {
		return uint32(p.MaxStripeSize)
	}
	return p.Height
}

// Grows reports whether the page bitmap may grow as stripes arrive.
func (p *PageInfo) Grows() bool {
	return p.Striped || p.Height == unboundedPageHeight
}

// regionCombOp selects the operator a region composes with: its own when
// the page allows per-region override, the page default otherwise.
func (p *PageInfo) regionCombOp(ri RegionInfo) CombOp {
	if p.CombOpOverride {
		return ri.CombOp
	}
	return p.DefaultCombOp
}
