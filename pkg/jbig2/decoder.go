// Package jbig2 decodes JBIG2 (ITU-T T.88) bitonal images, both standalone
// files and the embedded streams found in PDF documents.
package jbig2

import (
	"errors"
	"fmt"
	"image"

	"github.com/pagemark/jbig2/internal/jbig2"
)

// Error sentinels of the decoder, matchable with errors.Is.
var (
	ErrParse       = jbig2.ErrParse
	ErrFormat      = jbig2.ErrFormat
	ErrSegment     = jbig2.ErrSegment
	ErrHuffman     = jbig2.ErrHuffman
	ErrRegion      = jbig2.ErrRegion
	ErrTemplate    = jbig2.ErrTemplate
	ErrSymbol      = jbig2.ErrSymbol
	ErrOverflow    = jbig2.ErrOverflow
	ErrUnsupported = jbig2.ErrUnsupported
)

// Options configures decoding.
type Options struct {
	// GlobalData is the shared segment stream a PDF carries in its
	// JBIG2Globals entry. Standalone files leave it nil.
	GlobalData []byte
	// Cache retains decoded global symbol dictionaries across decoders
	// sharing one globals stream. Nil uses a private cache.
	Cache *GlobalsCache
}

// GlobalsCache holds decoded global symbol dictionaries for reuse. It is not
// safe for concurrent use.
type GlobalsCache struct {
	cache *jbig2.DictCache
}

// NewGlobalsCache returns an empty cache.
func NewGlobalsCache() *GlobalsCache {
	return &GlobalsCache{cache: jbig2.NewDictCache()}
}

// Decoder decodes one JBIG2 stream into its first page.
type Decoder struct {
	dec *jbig2.Decoder
}

// New prepares a decoder over data.
func New(data []byte, opts Options) (*Decoder, error) {
	if len(data) == 0 {
		return nil, errors.New("jbig2: empty input")
	}
	var cache *jbig2.DictCache
	if opts.Cache != nil {
		cache = opts.Cache.cache
	}
	dec, err := jbig2.NewDecoder(data, opts.GlobalData, cache)
	if err != nil {
		return nil, err
	}
	return &Decoder{dec: dec}, nil
}

// Decode runs the stream and returns the page bitmap.
func (d *Decoder) Decode() (*Image, error) {
	page, err := d.dec.Decode()
	if err != nil {
		return nil, err
	}
	return &Image{bm: page}, nil
}

// Segments returns the parsed segments of the main stream in order. It is
// populated after Decode.
func (d *Decoder) Segments() []*Segment {
	internal := d.dec.Segments()
	segments := make([]*Segment, len(internal))
	for i, seg := range internal {
		segments[i] = &Segment{seg: seg}
	}
	return segments
}

// Decode is a convenience wrapper decoding data straight to an 8-bit
// grayscale image, black where the bitonal pixel is set.
func Decode(data []byte, opts Options) (image.Image, error) {
	dec, err := New(data, opts)
	if err != nil {
		return nil, err
	}
	page, err := dec.Decode()
	if err != nil {
		return nil, err
	}
	return page.Gray(), nil
}

// SegmentKind identifies the result payload a segment produced.
type SegmentKind int

const (
	// KindNone marks segments without a retained result.
	KindNone SegmentKind = iota
	// KindSymbolDict marks symbol dictionary segments.
	KindSymbolDict
	// KindPatternDict marks pattern dictionary segments.
	KindPatternDict
	// KindHuffmanTable marks custom table segments.
	KindHuffmanTable
	// KindRegion marks intermediate region segments whose bitmap is kept
	// for later refinement.
	KindRegion
)

func (k SegmentKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindSymbolDict:
		return "SymbolDict"
	case KindPatternDict:
		return "PatternDict"
	case KindHuffmanTable:
		return "HuffmanTable"
	case KindRegion:
		return "Region"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Segment is one parsed segment of the stream.
type Segment struct {
	seg *jbig2.Segment
}

// Number returns the segment number.
func (s *Segment) Number() uint32 { return s.seg.Number }

// Type returns the raw segment type code.
func (s *Segment) Type() uint8 { return s.seg.Type }

// PageAssoc returns the page the segment belongs to, 0 for none.
func (s *Segment) PageAssoc() uint32 { return s.seg.PageAssoc }

// DataLength returns the length of the segment's data part in bytes.
func (s *Segment) DataLength() uint32 { return s.seg.DataLength }

// Kind reports which result the segment produced.
func (s *Segment) Kind() SegmentKind {
	switch {
	case s.seg.Dict != nil:
		return KindSymbolDict
	case s.seg.Patterns != nil:
		return KindPatternDict
	case s.seg.Table != nil:
		return KindHuffmanTable
	case s.seg.Region != nil:
		return KindRegion
	}
	return KindNone
}

// Region returns the retained bitmap of an intermediate region segment, nil
// for other kinds.
func (s *Segment) Region() *Image {
	if s.seg.Region == nil {
		return nil
	}
	return &Image{bm: s.seg.Region}
}

// NumSymbols returns the symbol count of a symbol dictionary segment, 0 for
// other kinds.
func (s *Segment) NumSymbols() int {
	if s.seg.Dict == nil {
		return 0
	}
	return s.seg.Dict.NumSymbols()
}

// NumPatterns returns the pattern count of a pattern dictionary segment, 0
// for other kinds.
func (s *Segment) NumPatterns() int {
	if s.seg.Patterns == nil {
		return 0
	}
	return s.seg.Patterns.NumPatterns()
}
