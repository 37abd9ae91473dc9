package jbig2

import "fmt"

// Kind classifies a decoding failure.
type Kind int

const (
	// KindParse covers truncated or otherwise unreadable input.
	KindParse Kind = iota
	// KindFormat covers file-level structure problems such as a bad
	// signature, nonzero reserved bits or a missing page info segment.
	KindFormat
	// KindSegment covers segment header and sequencing problems.
	KindSegment
	// KindHuffman covers Huffman table selection and code failures.
	KindHuffman
	// KindRegion covers invalid region parameters.
	KindRegion
	// KindTemplate covers invalid template or AT pixel configuration.
	KindTemplate
	// KindSymbol covers symbol dictionary and text region failures.
	KindSymbol
	// KindOverflow covers checked arithmetic failures on sizes and offsets.
	KindOverflow
	// KindUnsupported covers recognized but unimplemented features.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindFormat:
		return "format"
	case KindSegment:
		return "segment"
	case KindHuffman:
		return "huffman"
	case KindRegion:
		return "region"
	case KindTemplate:
		return "template"
	case KindSymbol:
		return "symbol"
	case KindOverflow:
		return "overflow"
	case KindUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DecodeError is the error type returned by every decoding procedure. It
// pairs a Kind with a human-readable message.
type DecodeError struct {
	Kind Kind
	Msg  string
}

func (e *DecodeError) Error() string {
	return "jbig2: " + e.Kind.String() + ": " + e.Msg
}

// Is lets errors.Is match against the kind sentinels below.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrParse       = &DecodeError{Kind: KindParse}
	ErrFormat      = &DecodeError{Kind: KindFormat}
	ErrSegment     = &DecodeError{Kind: KindSegment}
	ErrHuffman     = &DecodeError{Kind: KindHuffman}
	ErrRegion      = &DecodeError{Kind: KindRegion}
	ErrTemplate    = &DecodeError{Kind: KindTemplate}
	ErrSymbol      = &DecodeError{Kind: KindSymbol}
	ErrOverflow    = &DecodeError{Kind: KindOverflow}
	ErrUnsupported = &DecodeError{Kind: KindUnsupported}
)

func decodeErr(kind Kind, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func parseErr(format string, args ...any) *DecodeError {
	return decodeErr(KindParse, format, args...)
}

func formatErr(format string, args ...any) *DecodeError {
	return decodeErr(KindFormat, format, args...)
}

func segmentErr(format string, args ...any) *DecodeError {
	return decodeErr(KindSegment, format, args...)
}

func huffmanErr(format string, args ...any) *DecodeError {
	return decodeErr(KindHuffman, format, args...)
}

func regionErr(format string, args ...any) *DecodeError {
	return decodeErr(KindRegion, format, args...)
}

func templateErr(format string, args ...any) *DecodeError {
	return decodeErr(KindTemplate, format, args...)
}

func symbolErr(format string, args ...any) *DecodeError {
	return decodeErr(KindSymbol, format, args...)
}

func overflowErr(format string, args ...any) *DecodeError {
	return decodeErr(KindOverflow, format, args...)
}

func unsupportedErr(format string, args ...any) *DecodeError {
	return decodeErr(KindUnsupported, format, args...)
}
