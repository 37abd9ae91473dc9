package jbig2

// Segment type tags (T.88 7.3).
const (
	SegSymbolDict                        = 0
	SegTextRegionIntermediate            = 4
	SegTextRegionImmediate               = 6
	SegTextRegionImmediateLossless       = 7
	SegPatternDict                       = 16
	SegHalftoneRegionIntermediate        = 20
	SegHalftoneRegionImmediate           = 22
	SegHalftoneRegionImmediateLossless   = 23
	SegGenericRegionIntermediate         = 36
	SegGenericRegionImmediate            = 38
	SegGenericRegionImmediateLossless    = 39
	SegRefinementRegionIntermediate      = 40
	SegRefinementRegionImmediate         = 42
	SegRefinementRegionImmediateLossless = 43
	SegPageInfo                          = 48
	SegEndOfPage                         = 49
	SegEndOfStripe                       = 50
	SegEndOfFile                         = 51
	SegProfiles                          = 52
	SegTables                            = 53
	SegExtension                         = 62
)

// maxReferredSegments bounds the referred-to list of one segment header.
const maxReferredSegments = 64

// unknownDataLength marks a segment whose data length must be found by
// scanning for the end-of-data pattern. Only immediate generic regions may
// carry it.
const unknownDataLength = 0xFFFFFFFF

// Segment is one parsed segment header plus the result its data produced.
type Segment struct {
	Number     uint32
	Type       uint8
	PageAssoc  uint32
	Referred   []uint32
	DataLength uint32
	DataOffset uint32
	// UnknownLength marks a segment whose length came from end-of-data
	// pattern search; Rows then carries the trailing row count.
	UnknownLength bool
	Rows          uint32

	// Decode results, one of which is set depending on Type.
	Dict     *SymbolDict
	Patterns *PatternDict
	Table    *HuffmanTable
	Region   *Bitmap
}

// IsRegion reports whether the segment carries region segment info.
func (s *Segment) IsRegion() bool {
	switch s.Type {
	case SegTextRegionIntermediate, SegTextRegionImmediate, SegTextRegionImmediateLossless,
		SegHalftoneRegionIntermediate, SegHalftoneRegionImmediate, SegHalftoneRegionImmediateLossless,
		SegGenericRegionIntermediate, SegGenericRegionImmediate, SegGenericRegionImmediateLossless,
		SegRefinementRegionIntermediate, SegRefinementRegionImmediate, SegRefinementRegionImmediateLossless:
		return true
	}
	return false
}

// IsImmediate reports whether the decoded region composes onto the page
// rather than being retained for later refinement.
func (s *Segment) IsImmediate() bool {
	switch s.Type {
	case SegTextRegionImmediate, SegTextRegionImmediateLossless,
		SegHalftoneRegionImmediate, SegHalftoneRegionImmediateLossless,
		SegGenericRegionImmediate, SegGenericRegionImmediateLossless,
		SegRefinementRegionImmediate, SegRefinementRegionImmediateLossless:
		return true
	}
	return false
}

// parseSegmentHeader reads one segment header (T.88 7.2) at the stream
// position. Referred segments must precede the referring one.
func parseSegmentHeader(r *Reader) (*Segment, error) {
	number, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	seg := &Segment{Number: number, Type: flags & 0x3F}

	count, err := readReferredCount(r)
	if err != nil {
		return nil, err
	}
	seg.Referred = make([]uint32, count)
	refSize := referredNumberSize(number)
	for i := range seg.Referred {
		var ref uint32
		switch refSize {
		case 1:
			b, err := r.ReadUint8()
			if err != nil {
				return nil, err
			}
			ref = uint32(b)
		case 2:
			v, err := r.ReadUint16()
			if err != nil {
				return nil, err
			}
			ref = uint32(v)
		default:
			ref, err = r.ReadUint32()
			if err != nil {
				return nil, err
			}
		}
		if ref >= number {
			return nil, segmentErr("segment %d refers forward to %d", number, ref)
		}
		seg.Referred[i] = ref
	}

	if flags&0x40 != 0 {
		seg.PageAssoc, err = r.ReadUint32()
	} else {
		var b uint8
		b, err = r.ReadUint8()
		seg.PageAssoc = uint32(b)
	}
	if err != nil {
		return nil, err
	}

	seg.DataLength, err = r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if seg.DataLength == unknownDataLength &&
		seg.Type != SegGenericRegionImmediate && seg.Type != SegGenericRegionImmediateLossless {
		return nil, segmentErr("segment %d type %d with unknown data length", number, seg.Type)
	}
	seg.DataOffset = r.Offset()
	return seg, nil
}

// readReferredCount handles both the short form (count in the top three bits
// of one byte) and the long form (count ≥ 7, a 4-byte field followed by
// per-segment retain bits).
func readReferredCount(r *Reader) (int, error) {
	first := r.ByteArith()
	if first>>5 != 7 {
		if _, err := r.ReadUint8(); err != nil {
			return 0, err
		}
		return int(first >> 5), nil
	}
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	count := v & 0x1FFFFFFF
	if count > maxReferredSegments {
		return 0, segmentErr("referred segment count %d out of range", count)
	}
	r.Skip((count + 8) / 8)
	return int(count), nil
}

// referredNumberSize returns the byte width of referred segment numbers for
// a segment with the given number (T.88 7.2.5).
func referredNumberSize(number uint32) int {
	switch {
	case number <= 256:
		return 1
	case number <= 65536:
		return 2
	default:
		return 4
	}
}

// RegionInfo is the region segment information field shared by all region
// segment types (T.88 7.4.1).
type RegionInfo struct {
	Width  int
	Height int
	X      int
	Y      int
	CombOp CombOp
}

// parseRegionInfo reads and validates one region segment info field. The
// four reserved flag bits must be zero and the combination operator must be
// one of the five defined values.
func parseRegionInfo(r *Reader) (RegionInfo, error) {
	return parseRegionInfoOpen(r, false)
}

// parseRegionInfoOpen additionally accepts an unknown height, which only
// unknown-length generic regions may carry. Height is then -1 until the
// trailing row count resolves it.
func parseRegionInfoOpen(r *Reader, openHeight bool) (RegionInfo, error) {
	var ri RegionInfo
	w, err := r.ReadUint32()
	if err != nil {
		return ri, err
	}
	h, err := r.ReadUint32()
	if err != nil {
		return ri, err
	}
	x, err := r.ReadUint32()
	if err != nil {
		return ri, err
	}
	y, err := r.ReadUint32()
	if err != nil {
		return ri, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return ri, err
	}

	if flags&0xF0 != 0 {
		return ri, formatErr("nonzero reserved region flags %#02x", flags)
	}
	if flags&0x08 != 0 {
		return ri, unsupportedErr("colour extension region")
	}
	op := flags & 0x07
	if op > uint8(CombReplace) {
		return ri, regionErr("combination operator %d out of range", op)
	}

	unknownHeight := openHeight && h == unboundedPageHeight
	if w == 0 || w > maxBitmapSize || (!unknownHeight && (h == 0 || h > maxBitmapSize)) {
		return ri, regionErr("invalid region size %dx%d", w, h)
	}
	if x > maxComposeOffset || y > maxComposeOffset {
		return ri, regionErr("region position (%d, %d) out of range", x, y)
	}

	ri.Width = int(w)
	if unknownHeight {
		ri.Height = -1
	} else {
		ri.Height = int(h)
	}
	ri.X = int(x)
	ri.Y = int(y)
	ri.CombOp = CombOp(op)
	return ri, nil
}
