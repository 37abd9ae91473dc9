package jbig2

import (
	"bytes"
	"encoding/binary"
)

// minSegmentHeaderSize is the shortest possible segment header: number,
// flags, a short-form referred count with no referred segments, a one-byte
// page association and the data length.
const minSegmentHeaderSize = 11

// dictCacheSize bounds the number of decoded global symbol dictionaries kept
// for reuse across streams sharing the same globals.
const dictCacheSize = 2

type dictCacheEntry struct {
	offset uint32
	dict   *SymbolDict
}

// DictCache keeps recently decoded global symbol dictionaries keyed by their
// data offset in the globals stream. Embedded PDF images commonly share one
// globals stream, so repeated decodes hit the cache.
type DictCache struct {
	entries []dictCacheEntry
}

// NewDictCache returns an empty cache.
func NewDictCache() *DictCache {
	return &DictCache{}
}

func (c *DictCache) lookup(offset uint32) *SymbolDict {
	for i, e := range c.entries {
		if e.offset == offset {
			if i != 0 {
				copy(c.entries[1:i+1], c.entries[:i])
				c.entries[0] = e
			}
			return e.dict
		}
	}
	return nil
}

func (c *DictCache) store(offset uint32, dict *SymbolDict) {
	entry := dictCacheEntry{offset: offset, dict: dict}
	c.entries = append([]dictCacheEntry{entry}, c.entries...)
	if len(c.entries) > dictCacheSize {
		c.entries = c.entries[:dictCacheSize]
	}
}

// Decoder walks the segments of one JBIG2 stream and produces the first page
// bitmap. A separate globals stream, as carried by the PDF JBIG2Globals
// entry, supplies shared dictionaries and tables.
type Decoder struct {
	data     []byte
	stream   *Reader
	header   *FileHeader
	globals  *Decoder
	isGlobal bool
	cache    *DictCache

	segments []*Segment
	pageInfo *PageInfo
	page     *Bitmap
	decoded  bool
}

// NewDecoder prepares a decoder over data, with optional globals bytes. Both
// streams may carry a standalone file header, which is stripped. The cache
// may be shared across decoders using the same globals; nil allocates a
// private one.
func NewDecoder(data, globals []byte, cache *DictCache) (*Decoder, error) {
	if cache == nil {
		cache = NewDictCache()
	}

	var gd *Decoder
	if len(globals) > 0 {
		body, header, err := stripFileHeader(globals)
		if err != nil {
			return nil, err
		}
		gd = &Decoder{
			data:     body,
			stream:   NewReader(body),
			header:   header,
			isGlobal: true,
			cache:    cache,
		}
	}

	body, header, err := stripFileHeader(data)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		data:    body,
		stream:  NewReader(body),
		header:  header,
		globals: gd,
		cache:   cache,
	}, nil
}

// Decode runs the globals stream and then the main stream, returning the
// decoded page bitmap.
func (d *Decoder) Decode() (*Bitmap, error) {
	if d.globals != nil {
		if err := d.globals.run(); err != nil {
			return nil, err
		}
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	if d.page == nil {
		return nil, formatErr("stream contains no page")
	}
	return d.page, nil
}

// Page returns the decoded page bitmap, nil before Decode succeeds.
func (d *Decoder) Page() *Bitmap { return d.page }

// PageInfo returns the page information of the decoded page, nil before a
// page information segment was seen.
func (d *Decoder) PageInfo() *PageInfo { return d.pageInfo }

// Segments returns the parsed segments in stream order, globals excluded.
func (d *Decoder) Segments() []*Segment { return d.segments }

func (d *Decoder) run() error {
	if d.decoded {
		return nil
	}
	d.decoded = true

	if d.header != nil && !d.header.Sequential {
		return d.runRandomAccess()
	}
	for d.stream.Remaining() >= minSegmentHeaderSize {
		seg, err := parseSegmentHeader(d.stream)
		if err != nil {
			return err
		}
		if seg.DataLength == unknownDataLength {
			if err := d.resolveUnknownLength(seg); err != nil {
				return err
			}
		}
		stop, err := d.processSegment(seg)
		if err != nil {
			return err
		}
		if stop {
			break
		}
		d.stream.SetOffset(seg.DataOffset + seg.DataLength)
	}
	return nil
}

// runRandomAccess handles the file organization where all segment headers
// come first, followed by the data parts in the same order (T.88 Annex D).
func (d *Decoder) runRandomAccess() error {
	var segs []*Segment
	for d.stream.Remaining() >= minSegmentHeaderSize {
		seg, err := parseSegmentHeader(d.stream)
		if err != nil {
			return err
		}
		if seg.DataLength == unknownDataLength {
			return segmentErr("segment %d with unknown data length in random-access file", seg.Number)
		}
		segs = append(segs, seg)
		if seg.Type == SegEndOfFile {
			break
		}
	}

	offset := uint64(d.stream.Offset())
	for _, seg := range segs {
		if offset+uint64(seg.DataLength) > uint64(len(d.data)) {
			return parseErr("segment %d data exceeds input", seg.Number)
		}
		seg.DataOffset = uint32(offset)
		offset += uint64(seg.DataLength)
	}
	for _, seg := range segs {
		stop, err := d.processSegment(seg)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}

// resolveUnknownLength finds the data length of an immediate generic region
// coded with an unknown length (T.88 7.2.7): the data ends with a two-byte
// terminator followed by the real row count.
func (d *Decoder) resolveUnknownLength(seg *Segment) error {
	data := d.data[seg.DataOffset:]
	// Region segment info plus the generic region flags byte.
	const infoSize = 18
	if len(data) < infoSize {
		return parseErr("segment %d data exceeds input", seg.Number)
	}
	flags := data[infoSize-1]
	mmr := flags&0x01 != 0
	template := flags >> 1 & 0x03

	prefix := infoSize
	if !mmr {
		if template == 0 {
			prefix += 8
		} else {
			prefix += 2
		}
	}
	if prefix > len(data) {
		return parseErr("segment %d data exceeds input", seg.Number)
	}

	term := []byte{0xFF, 0xAC}
	if mmr {
		term = []byte{0x00, 0x00}
	}
	i := bytes.Index(data[prefix:], term)
	if i < 0 {
		return segmentErr("segment %d missing end-of-data marker", seg.Number)
	}
	end := prefix + i + len(term)
	if end+4 > len(data) {
		return parseErr("segment %d missing trailing row count", seg.Number)
	}
	seg.Rows = binary.BigEndian.Uint32(data[end : end+4])
	seg.DataLength = uint32(end + 4)
	seg.UnknownLength = true
	return nil
}

// processSegment decodes one segment's data part. It reports stop when the
// first page is complete.
func (d *Decoder) processSegment(seg *Segment) (bool, error) {
	if seg.Type == SegPageInfo && d.pageInfo != nil {
		// Only the first page is decoded.
		return true, nil
	}
	d.segments = append(d.segments, seg)

	r, err := d.segmentBody(seg)
	if err != nil {
		return false, err
	}

	switch seg.Type {
	case SegSymbolDict:
		err = d.parseSymbolDict(seg, r)
	case SegTextRegionIntermediate, SegTextRegionImmediate, SegTextRegionImmediateLossless:
		err = d.parseTextRegion(seg, r)
	case SegPatternDict:
		err = d.parsePatternDict(seg, r)
	case SegHalftoneRegionIntermediate, SegHalftoneRegionImmediate, SegHalftoneRegionImmediateLossless:
		err = d.parseHalftoneRegion(seg, r)
	case SegGenericRegionIntermediate, SegGenericRegionImmediate, SegGenericRegionImmediateLossless:
		err = d.parseGenericRegion(seg, r)
	case SegRefinementRegionIntermediate, SegRefinementRegionImmediate, SegRefinementRegionImmediateLossless:
		err = d.parseRefinementRegion(seg, r)
	case SegPageInfo:
		err = d.parsePageInfoSegment(r)
	case SegEndOfPage:
		return true, nil
	case SegEndOfStripe:
		err = d.parseEndOfStripe(r)
	case SegEndOfFile:
		return true, nil
	case SegProfiles:
		// Profiles carry no decoding parameters this decoder acts on.
	case SegTables:
		seg.Table, err = ParseHuffmanTable(r)
	case SegExtension:
		err = d.parseExtension(r)
	default:
		err = segmentErr("unknown segment type %d", seg.Type)
	}
	return false, err
}

// segmentBody returns a reader bounded to the segment's data part, so a
// decoding procedure can never consume a neighboring segment.
func (d *Decoder) segmentBody(seg *Segment) (*Reader, error) {
	end := uint64(seg.DataOffset) + uint64(seg.DataLength)
	if end > uint64(len(d.data)) {
		return nil, parseErr("segment %d data exceeds input", seg.Number)
	}
	return NewReader(d.data[seg.DataOffset:end]), nil
}

// findSegment resolves a referred segment number against this stream and the
// globals stream.
func (d *Decoder) findSegment(number uint32) *Segment {
	for _, seg := range d.segments {
		if seg.Number == number {
			return seg
		}
	}
	if d.globals != nil {
		return d.globals.findSegment(number)
	}
	return nil
}

// referredResults gathers the outcomes of a segment's referred-to list:
// input symbols in order, custom Huffman tables in order, the first pattern
// dictionary, the last symbol dictionary and the first retained region.
type referredResults struct {
	syms     []*Bitmap
	tables   []*HuffmanTable
	patterns *PatternDict
	lastDict *SymbolDict
	region   *Bitmap
}

func (d *Decoder) referred(seg *Segment) (*referredResults, error) {
	res := &referredResults{}
	for _, number := range seg.Referred {
		ref := d.findSegment(number)
		if ref == nil {
			return nil, segmentErr("segment %d refers to missing segment %d", seg.Number, number)
		}
		switch {
		case ref.Dict != nil:
			res.syms = append(res.syms, ref.Dict.Symbols...)
			res.lastDict = ref.Dict
		case ref.Table != nil:
			res.tables = append(res.tables, ref.Table)
		case ref.Patterns != nil && res.patterns == nil:
			res.patterns = ref.Patterns
		case ref.Region != nil && res.region == nil:
			res.region = ref.Region
		}
	}
	return res, nil
}

// tableSelector hands out custom tables from the referred-to list in the
// order the selector fields consume them.
type tableSelector struct {
	tables []*HuffmanTable
	next   int
}

func (s *tableSelector) custom() (*HuffmanTable, error) {
	if s.next >= len(s.tables) {
		return nil, huffmanErr("missing referred custom table")
	}
	t := s.tables[s.next]
	s.next++
	return t, nil
}

// pick maps a two-bit selector to a standard table or the next custom one.
// A zero std2 marks selector value 2 invalid for that field.
func (s *tableSelector) pick(sel uint32, std0, std1, std2 int) (*HuffmanTable, error) {
	switch {
	case sel == 0:
		return StandardHuffmanTable(std0)
	case sel == 1:
		return StandardHuffmanTable(std1)
	case sel == 2 && std2 != 0:
		return StandardHuffmanTable(std2)
	case sel == 3:
		return s.custom()
	}
	return nil, huffmanErr("invalid table selector %d", sel)
}

func readATPairs(r *Reader, at []int, pairs int) error {
	for i := 0; i < pairs*2; i++ {
		v, err := r.ReadInt8()
		if err != nil {
			return err
		}
		at[i] = int(v)
	}
	return nil
}

func (d *Decoder) parseSymbolDict(seg *Segment, r *Reader) error {
	if d.isGlobal {
		if cached := d.cache.lookup(seg.DataOffset); cached != nil {
			seg.Dict = cached.Clone()
			return nil
		}
	}

	flags, err := r.ReadUint16()
	if err != nil {
		return err
	}
	if flags&0xE000 != 0 {
		return formatErr("nonzero reserved symbol dictionary flags %#04x", flags)
	}
	huffman := flags&0x0001 != 0
	refine := flags&0x0002 != 0
	dhSel := uint32(flags >> 2 & 0x03)
	dwSel := uint32(flags >> 4 & 0x03)
	bmSizeSel := uint32(flags >> 6 & 0x01)
	aggSel := uint32(flags >> 7 & 0x01)
	ctxUsed := flags&0x0100 != 0
	ctxRetained := flags&0x0200 != 0
	template := uint8(flags >> 10 & 0x03)
	refTemplate := uint8(flags >> 12 & 0x01)

	dec := &SymbolDictDecoder{
		Huffman:     huffman,
		Refine:      refine,
		Template:    template,
		RefTemplate: refTemplate,
	}
	if !huffman {
		pairs := 1
		if template == 0 {
			pairs = 4
		}
		if err := readATPairs(r, dec.AT[:], pairs); err != nil {
			return err
		}
	}
	if refine && refTemplate == 0 {
		if err := readATPairs(r, dec.RAT[:], 2); err != nil {
			return err
		}
	}
	if dec.NumExported, err = r.ReadUint32(); err != nil {
		return err
	}
	if dec.NumNew, err = r.ReadUint32(); err != nil {
		return err
	}

	refs, err := d.referred(seg)
	if err != nil {
		return err
	}
	dec.Input = refs.syms

	if huffman {
		sel := &tableSelector{tables: refs.tables}
		if dec.TableDH, err = sel.pick(dhSel, 4, 5, 0); err != nil {
			return err
		}
		if dec.TableDW, err = sel.pick(dwSel, 2, 3, 0); err != nil {
			return err
		}
		if bmSizeSel == 0 {
			dec.TableBMSize, err = StandardHuffmanTable(1)
		} else {
			dec.TableBMSize, err = sel.custom()
		}
		if err != nil {
			return err
		}
		if refine {
			if aggSel == 0 {
				dec.TableAgg, err = StandardHuffmanTable(1)
			} else {
				dec.TableAgg, err = sel.custom()
			}
			if err != nil {
				return err
			}
		}
	}

	var gbCx, grCx []ArithContext
	if !huffman {
		gbCx = make([]ArithContext, genericContextSize(template))
	}
	if refine {
		grCx = make([]ArithContext, refinementContextSize(refTemplate))
	}
	if ctxUsed && refs.lastDict != nil {
		if len(refs.lastDict.gbCx) == len(gbCx) {
			copy(gbCx, refs.lastDict.gbCx)
		}
		if len(refs.lastDict.grCx) == len(grCx) {
			copy(grCx, refs.lastDict.grCx)
		}
	}

	var dict *SymbolDict
	if huffman {
		dict, err = dec.DecodeHuffman(r, gbCx)
	} else {
		dict, err = dec.DecodeArith(NewArithDecoder(r), gbCx, grCx)
	}
	if err != nil {
		return err
	}
	if ctxRetained {
		dict.gbCx = gbCx
		dict.grCx = grCx
	}
	seg.Dict = dict

	if d.isGlobal {
		d.cache.store(seg.DataOffset, dict.Clone())
	}
	return nil
}

func (d *Decoder) parseTextRegion(seg *Segment, r *Reader) error {
	ri, err := parseRegionInfo(r)
	if err != nil {
		return err
	}
	flags, err := r.ReadUint16()
	if err != nil {
		return err
	}
	huffman := flags&0x0001 != 0
	refine := flags&0x0002 != 0

	dsOffset := int(flags >> 10 & 0x1F)
	if dsOffset > 15 {
		dsOffset -= 32
	}
	dec := &TextRegionDecoder{
		Huffman:     huffman,
		Refine:      refine,
		RefTemplate: uint8(flags >> 15 & 0x01),
		Transposed:  flags&0x0040 != 0,
		DefPixel:    flags&0x0200 != 0,
		RefCorner:   RefCorner(flags >> 4 & 0x03),
		CombOp:      CombOp(flags >> 7 & 0x03),
		DSOffset:    dsOffset,
		LogStrips:   uint8(flags >> 2 & 0x03),
		Width:       ri.Width,
		Height:      ri.Height,
	}

	var huffFlags uint16
	if huffman {
		if huffFlags, err = r.ReadUint16(); err != nil {
			return err
		}
		if huffFlags&0x8000 != 0 {
			return formatErr("nonzero reserved text region table flags %#04x", huffFlags)
		}
	}
	if refine && dec.RefTemplate == 0 {
		if err := readATPairs(r, dec.RAT[:], 2); err != nil {
			return err
		}
	}
	if dec.NumInstances, err = r.ReadUint32(); err != nil {
		return err
	}

	refs, err := d.referred(seg)
	if err != nil {
		return err
	}
	dec.Syms = refs.syms

	var grCx []ArithContext
	if refine {
		grCx = make([]ArithContext, refinementContextSize(dec.RefTemplate))
	}

	var region *Bitmap
	if huffman {
		sel := &tableSelector{tables: refs.tables}
		if dec.TableFS, err = sel.pick(uint32(huffFlags&0x03), 6, 7, 0); err != nil {
			return err
		}
		if dec.TableDS, err = sel.pick(uint32(huffFlags>>2&0x03), 8, 9, 10); err != nil {
			return err
		}
		if dec.TableDT, err = sel.pick(uint32(huffFlags>>4&0x03), 11, 12, 13); err != nil {
			return err
		}
		if refine {
			if dec.TableRDW, err = sel.pick(uint32(huffFlags>>6&0x03), 14, 15, 0); err != nil {
				return err
			}
			if dec.TableRDH, err = sel.pick(uint32(huffFlags>>8&0x03), 14, 15, 0); err != nil {
				return err
			}
			if dec.TableRDX, err = sel.pick(uint32(huffFlags>>10&0x03), 14, 15, 0); err != nil {
				return err
			}
			if dec.TableRDY, err = sel.pick(uint32(huffFlags>>12&0x03), 14, 15, 0); err != nil {
				return err
			}
			if huffFlags&0x4000 == 0 {
				dec.TableRSize, err = StandardHuffmanTable(1)
			} else {
				dec.TableRSize, err = sel.custom()
			}
			if err != nil {
				return err
			}
		}
		if dec.SymCodes, err = decodeSymCodeTable(r, uint32(len(dec.Syms))); err != nil {
			return err
		}
		r.Align()
		region, err = dec.DecodeHuffman(r, grCx)
	} else {
		region, err = dec.DecodeArith(NewArithDecoder(r), grCx, nil, nil)
	}
	if err != nil {
		return err
	}
	return d.finishRegion(seg, ri, region)
}

func (d *Decoder) parsePatternDict(seg *Segment, r *Reader) error {
	flags, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if flags&0xF8 != 0 {
		return formatErr("nonzero reserved pattern dictionary flags %#02x", flags)
	}
	mmr := flags&0x01 != 0
	template := flags >> 1 & 0x03

	hdpw, err := r.ReadUint8()
	if err != nil {
		return err
	}
	hdph, err := r.ReadUint8()
	if err != nil {
		return err
	}
	grayMax, err := r.ReadUint32()
	if err != nil {
		return err
	}

	dec := &PatternDictDecoder{
		MMR:           mmr,
		Template:      template,
		PatternWidth:  int(hdpw),
		PatternHeight: int(hdph),
		GrayMax:       grayMax,
	}
	if mmr {
		seg.Patterns, err = dec.DecodeMMR(r)
	} else {
		cx := make([]ArithContext, genericContextSize(template))
		seg.Patterns, err = dec.DecodeArith(NewArithDecoder(r), cx)
	}
	return err
}

func (d *Decoder) parseHalftoneRegion(seg *Segment, r *Reader) error {
	ri, err := parseRegionInfo(r)
	if err != nil {
		return err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return err
	}
	mmr := flags&0x01 != 0
	template := flags >> 1 & 0x03
	combOp := flags >> 4 & 0x07
	if combOp > uint8(CombReplace) {
		return regionErr("halftone combination operator %d out of range", combOp)
	}

	gridW, err := r.ReadUint32()
	if err != nil {
		return err
	}
	gridH, err := r.ReadUint32()
	if err != nil {
		return err
	}
	gridX, err := r.ReadUint32()
	if err != nil {
		return err
	}
	gridY, err := r.ReadUint32()
	if err != nil {
		return err
	}
	vecX, err := r.ReadUint16()
	if err != nil {
		return err
	}
	vecY, err := r.ReadUint16()
	if err != nil {
		return err
	}

	refs, err := d.referred(seg)
	if err != nil {
		return err
	}
	if refs.patterns == nil {
		return segmentErr("halftone region %d without pattern dictionary", seg.Number)
	}

	dec := &HalftoneDecoder{
		Width:      ri.Width,
		Height:     ri.Height,
		MMR:        mmr,
		Template:   template,
		Patterns:   refs.patterns,
		DefPixel:   flags&0x80 != 0,
		CombOp:     CombOp(combOp),
		EnableSkip: flags&0x08 != 0,
		GridWidth:  int(gridW),
		GridHeight: int(gridH),
		GridX:      int(int32(gridX)),
		GridY:      int(int32(gridY)),
		VectorX:    int(vecX),
		VectorY:    int(vecY),
	}

	var region *Bitmap
	if mmr {
		region, err = dec.DecodeMMR(r)
	} else {
		cx := make([]ArithContext, genericContextSize(template))
		region, err = dec.DecodeArith(NewArithDecoder(r), cx)
	}
	if err != nil {
		return err
	}
	return d.finishRegion(seg, ri, region)
}

func (d *Decoder) parseGenericRegion(seg *Segment, r *Reader) error {
	ri, err := parseRegionInfoOpen(r, seg.UnknownLength)
	if err != nil {
		return err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if flags&0x10 != 0 {
		return unsupportedErr("extended generic region templates")
	}
	if flags&0xE0 != 0 {
		return formatErr("nonzero reserved generic region flags %#02x", flags)
	}
	mmr := flags&0x01 != 0
	template := flags >> 1 & 0x03

	dec := &GenericDecoder{
		MMR:      mmr,
		TPGDON:   flags&0x08 != 0,
		Template: template,
		Width:    ri.Width,
	}
	if !mmr {
		pairs := 1
		if template == 0 {
			pairs = 4
		}
		if err := readATPairs(r, dec.AT[:], pairs); err != nil {
			return err
		}
	}

	if seg.UnknownLength {
		// The trailing row count of an unknown-length segment replaces the
		// height field, which may be unknown or an upper bound.
		if seg.Rows == 0 || seg.Rows > maxBitmapSize {
			return segmentErr("segment %d row count %d out of range", seg.Number, seg.Rows)
		}
		if ri.Height >= 0 && seg.Rows > uint32(ri.Height) {
			return segmentErr("segment %d row count %d exceeds region height %d", seg.Number, seg.Rows, ri.Height)
		}
		ri.Height = int(seg.Rows)
	}
	dec.Height = ri.Height

	var region *Bitmap
	if mmr {
		region, err = dec.DecodeMMR(r)
	} else {
		cx := make([]ArithContext, genericContextSize(template))
		region, err = dec.Decode(NewArithDecoder(r), cx)
	}
	if err != nil {
		return err
	}
	return d.finishRegion(seg, ri, region)
}

func (d *Decoder) parseRefinementRegion(seg *Segment, r *Reader) error {
	ri, err := parseRegionInfo(r)
	if err != nil {
		return err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if flags&0xFC != 0 {
		return formatErr("nonzero reserved refinement region flags %#02x", flags)
	}

	dec := &RefinementDecoder{
		Template: flags & 0x01,
		TPGRON:   flags&0x02 != 0,
		Width:    ri.Width,
		Height:   ri.Height,
	}
	if dec.Template == 0 {
		if err := readATPairs(r, dec.AT[:], 2); err != nil {
			return err
		}
	}

	refs, err := d.referred(seg)
	if err != nil {
		return err
	}
	if refs.region != nil {
		dec.Reference = refs.region
	} else {
		// No intermediate region referred: the refinement applies to the
		// page area it covers.
		if d.page == nil {
			return segmentErr("refinement region %d before page information", seg.Number)
		}
		d.ensurePageHeight(ri.Y + ri.Height)
		dec.Reference = d.page.Crop(ri.X, ri.Y, ri.Width, ri.Height)
		if dec.Reference == nil {
			return regionErr("refinement region %dx%d+%d+%d outside page", ri.Width, ri.Height, ri.X, ri.Y)
		}
	}

	cx := make([]ArithContext, refinementContextSize(dec.Template))
	region, err := dec.Decode(NewArithDecoder(r), cx)
	if err != nil {
		return err
	}
	return d.finishRegion(seg, ri, region)
}

func (d *Decoder) parsePageInfoSegment(r *Reader) error {
	info, err := parsePageInfo(r)
	if err != nil {
		return err
	}
	height := info.EffectiveHeight()
	if info.Width == 0 || height == 0 {
		return formatErr("empty page %dx%d", info.Width, height)
	}
	page := NewBitmap(int(info.Width), int(height))
	if page == nil {
		return formatErr("page %dx%d exceeds limits", info.Width, height)
	}
	page.Fill(info.DefaultPixel)
	d.pageInfo = info
	d.page = page
	return nil
}

// parseEndOfStripe reads the last row of the finished stripe and grows a
// striped page to cover it.
func (d *Decoder) parseEndOfStripe(r *Reader) error {
	row, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if row >= maxBitmapSize {
		return formatErr("stripe row %d out of range", row)
	}
	if d.page == nil {
		return segmentErr("end of stripe before page information")
	}
	d.ensurePageHeight(int(row) + 1)
	return nil
}

// parseExtension skips extensions the decoder can ignore and rejects those
// flagged necessary for correct decoding.
func (d *Decoder) parseExtension(r *Reader) error {
	extType, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if extType&0x80000000 != 0 {
		return unsupportedErr("necessary extension %#08x", extType)
	}
	return nil
}

// finishRegion composes an immediate region onto the page and retains an
// intermediate one for later reference.
func (d *Decoder) finishRegion(seg *Segment, ri RegionInfo, region *Bitmap) error {
	if !seg.IsImmediate() {
		seg.Region = region
		return nil
	}
	if d.page == nil || d.pageInfo == nil {
		return segmentErr("region segment %d before page information", seg.Number)
	}
	d.ensurePageHeight(ri.Y + region.Height())
	d.page.ComposeAt(ri.X, ri.Y, region, d.pageInfo.regionCombOp(ri))
	return nil
}

func (d *Decoder) ensurePageHeight(h int) {
	if d.page == nil || d.pageInfo == nil || !d.pageInfo.Grows() {
		return
	}
	if h > d.page.Height() && h <= maxBitmapSize {
		d.page.Grow(h, d.pageInfo.DefaultPixel)
	}
}
