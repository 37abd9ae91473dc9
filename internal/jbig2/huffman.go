package jbig2

import "math"

// huffmanLine is one table line (T.88 Annex B): a prefix length, the number
// of range bits that follow the prefix, and the lowest value of the range.
// A prefix length of zero means the line has no code assigned.
type huffmanLine struct {
	prefLen  uint8
	rangeLen uint8
	rangeLow int32
}

// HuffmanTable is a canonical JBIG2 Huffman table, either one of the
// standard tables B.1 to B.15 or a custom table parsed from a table segment.
type HuffmanTable struct {
	oob   bool
	lines []huffmanLine
	codes []int32
	// lower is the index of the 32-bit lower-range line, which extends
	// downward from its base value; -1 when the table has none.
	lower int
}

// HasOOB reports whether the table can produce the out-of-band value.
func (t *HuffmanTable) HasOOB() bool { return t.oob }

func newHuffmanTable(oob bool, lines []huffmanLine) (*HuffmanTable, error) {
	t := &HuffmanTable{oob: oob, lines: lines, lower: -1}
	for i, line := range lines {
		if line.rangeLen == 32 {
			t.lower = i
			break
		}
	}
	if err := t.assignCodes(); err != nil {
		return nil, err
	}
	return t, nil
}

// assignCodes performs the canonical code assignment of B.3 step 5.
func (t *HuffmanTable) assignCodes() error {
	maxLen := 0
	for _, line := range t.lines {
		if int(line.prefLen) > maxLen {
			maxLen = int(line.prefLen)
		}
	}
	t.codes = make([]int32, len(t.lines))
	if maxLen == 0 {
		return nil
	}
	if maxLen > 31 {
		return huffmanErr("prefix length %d out of range", maxLen)
	}

	counts := make([]int, maxLen+1)
	for _, line := range t.lines {
		counts[line.prefLen]++
	}
	counts[0] = 0

	first := make([]int64, maxLen+1)
	for length := 1; length <= maxLen; length++ {
		first[length] = (first[length-1] + int64(counts[length-1])) << 1
		if first[length] > math.MaxInt32 {
			return huffmanErr("code space overflow at length %d", length)
		}
		cur := first[length]
		for i, line := range t.lines {
			if int(line.prefLen) == length {
				t.codes[i] = int32(cur)
				cur++
			}
		}
	}
	return nil
}

// Decode reads one prefix code and its range bits from the stream. ok is
// false for the out-of-band value. An unmatched prefix is reported once the
// stream runs dry.
func (t *HuffmanTable) Decode(stream *Reader) (v int, ok bool, err error) {
	var code uint32
	bits := 0
	for {
		bit, err := stream.ReadBit()
		if err != nil {
			return 0, false, huffmanErr("no matching prefix code")
		}
		code = code<<1 | bit
		bits++
		if bits > 31 {
			return 0, false, huffmanErr("prefix code longer than 31 bits")
		}

		for i, line := range t.lines {
			if int(line.prefLen) != bits || uint32(t.codes[i]) != code {
				continue
			}
			if t.oob && i == len(t.lines)-1 {
				return 0, false, nil
			}
			var extra uint32
			if line.rangeLen > 0 {
				extra, err = stream.ReadBits(uint32(line.rangeLen))
				if err != nil {
					return 0, false, err
				}
			}
			if i == t.lower {
				return int(line.rangeLow) - int(extra), true, nil
			}
			return int(line.rangeLow) + int(extra), true, nil
		}
	}
}

// StandardHuffmanTable returns one of the predefined tables B.1 to B.15.
func StandardHuffmanTable(idx int) (*HuffmanTable, error) {
	if idx < 1 || idx > len(standardTables) {
		return nil, huffmanErr("standard table %d out of range", idx)
	}
	def := standardTables[idx-1]
	return newHuffmanTable(def.oob, def.lines)
}

// ParseHuffmanTable reads a custom table per Annex B.3. The caller positions
// the stream at the start of the table segment's data.
func ParseHuffmanTable(stream *Reader) (*HuffmanTable, error) {
	flags, err := stream.ReadUint8()
	if err != nil {
		return nil, err
	}
	if flags&0x80 != 0 {
		return nil, formatErr("nonzero reserved table flags %#02x", flags)
	}
	oob := flags&0x01 != 0
	prefLenBits := uint32(flags>>1&0x07) + 1
	rangeLenBits := uint32(flags>>4&0x07) + 1

	lowWord, err := stream.ReadUint32()
	if err != nil {
		return nil, err
	}
	highWord, err := stream.ReadUint32()
	if err != nil {
		return nil, err
	}
	low, high := int32(lowWord), int32(highWord)
	if low > high {
		return nil, huffmanErr("table range [%d, %d) is inverted", low, high)
	}
	if low == math.MinInt32 {
		return nil, huffmanErr("table low bound underflows")
	}

	var lines []huffmanLine
	cur := int64(low)
	for cur < int64(high) {
		prefLen, err := stream.ReadBits(prefLenBits)
		if err != nil {
			return nil, err
		}
		rangeLen, err := stream.ReadBits(rangeLenBits)
		if err != nil {
			return nil, err
		}
		if rangeLen >= 32 {
			return nil, huffmanErr("range length %d too large", rangeLen)
		}
		lines = append(lines, huffmanLine{
			prefLen:  uint8(prefLen),
			rangeLen: uint8(rangeLen),
			rangeLow: int32(cur),
		})
		cur += int64(1) << rangeLen
		if cur > math.MaxInt32 {
			return nil, huffmanErr("table range exceeds 32 bits")
		}
	}

	// Lower range line, upper range line, and the optional OOB line.
	prefLen, err := stream.ReadBits(prefLenBits)
	if err != nil {
		return nil, err
	}
	lines = append(lines, huffmanLine{prefLen: uint8(prefLen), rangeLen: 32, rangeLow: low - 1})

	prefLen, err = stream.ReadBits(prefLenBits)
	if err != nil {
		return nil, err
	}
	lines = append(lines, huffmanLine{prefLen: uint8(prefLen), rangeLen: 32, rangeLow: high})

	if oob {
		prefLen, err = stream.ReadBits(prefLenBits)
		if err != nil {
			return nil, err
		}
		lines = append(lines, huffmanLine{prefLen: uint8(prefLen)})
	}

	return newHuffmanTable(oob, lines)
}

var standardTables = []struct {
	oob   bool
	lines []huffmanLine
}{
	// B.1
	{false, []huffmanLine{
		{1, 4, 0}, {2, 8, 16}, {3, 16, 272}, {0, 32, -1}, {3, 32, 65808},
	}},
	// B.2
	{true, []huffmanLine{
		{1, 0, 0}, {2, 0, 1}, {3, 0, 2}, {4, 3, 3}, {5, 6, 11},
		{0, 32, -1}, {6, 32, 75}, {6, 0, 0},
	}},
	// B.3
	{true, []huffmanLine{
		{8, 8, -256}, {1, 0, 0}, {2, 0, 1}, {3, 0, 2}, {4, 3, 3},
		{5, 6, 11}, {8, 32, -257}, {7, 32, 75}, {6, 0, 0},
	}},
	// B.4
	{false, []huffmanLine{
		{1, 0, 1}, {2, 0, 2}, {3, 0, 3}, {4, 3, 4}, {5, 6, 12},
		{0, 32, -1}, {5, 32, 76},
	}},
	// B.5
	{false, []huffmanLine{
		{7, 8, -255}, {1, 0, 1}, {2, 0, 2}, {3, 0, 3}, {4, 3, 4},
		{5, 6, 12}, {7, 32, -256}, {6, 32, 76},
	}},
	// B.6
	{false, []huffmanLine{
		{5, 10, -2048}, {4, 9, -1024}, {4, 8, -512}, {4, 7, -256},
		{5, 6, -128}, {5, 5, -64}, {4, 5, -32}, {2, 7, 0}, {3, 7, 128},
		{3, 8, 256}, {4, 9, 512}, {4, 10, 1024}, {6, 32, -2049},
		{6, 32, 2048},
	}},
	// B.7
	{false, []huffmanLine{
		{4, 9, -1024}, {3, 8, -512}, {4, 7, -256}, {5, 6, -128},
		{5, 5, -64}, {4, 5, -32}, {4, 5, 0}, {5, 5, 32}, {5, 6, 64},
		{4, 7, 128}, {3, 8, 256}, {3, 9, 512}, {3, 10, 1024},
		{5, 32, -1025}, {5, 32, 2048},
	}},
	// B.8
	{true, []huffmanLine{
		{8, 3, -15}, {9, 1, -7}, {8, 1, -5}, {9, 0, -3}, {7, 0, -2},
		{4, 0, -1}, {2, 1, 0}, {5, 0, 2}, {6, 0, 3}, {3, 4, 4},
		{6, 1, 20}, {4, 4, 22}, {4, 5, 38}, {5, 6, 70}, {5, 7, 134},
		{6, 7, 262}, {7, 8, 390}, {6, 10, 646}, {9, 32, -16},
		{9, 32, 1670}, {2, 0, 0},
	}},
	// B.9
	{true, []huffmanLine{
		{8, 4, -31}, {9, 2, -15}, {8, 2, -11}, {9, 1, -7}, {7, 1, -5},
		{4, 1, -3}, {3, 1, -1}, {3, 1, 1}, {5, 1, 3}, {6, 1, 5},
		{3, 5, 7}, {6, 2, 39}, {4, 5, 43}, {4, 6, 75}, {5, 7, 139},
		{5, 8, 267}, {6, 8, 523}, {7, 9, 779}, {6, 11, 1291},
		{9, 32, -32}, {9, 32, 3339}, {2, 0, 0},
	}},
	// B.10
	{true, []huffmanLine{
		{7, 4, -21}, {8, 0, -5}, {7, 0, -4}, {5, 0, -3}, {2, 2, -2},
		{5, 0, 2}, {6, 0, 3}, {7, 0, 4}, {8, 0, 5}, {2, 6, 6},
		{5, 5, 70}, {6, 5, 102}, {6, 6, 134}, {6, 7, 198}, {6, 8, 326},
		{6, 9, 582}, {6, 10, 1094}, {7, 11, 2118}, {8, 32, -22},
		{8, 32, 4166}, {2, 0, 0},
	}},
	// B.11
	{false, []huffmanLine{
		{1, 0, 1}, {2, 1, 2}, {4, 0, 4}, {4, 1, 5}, {5, 1, 7},
		{5, 2, 9}, {6, 2, 13}, {7, 2, 17}, {7, 3, 21}, {7, 4, 29},
		{7, 5, 45}, {7, 6, 77}, {0, 32, 0}, {7, 32, 141},
	}},
	// B.12
	{false, []huffmanLine{
		{1, 0, 1}, {2, 0, 2}, {3, 1, 3}, {5, 0, 5}, {5, 1, 6},
		{6, 1, 8}, {7, 0, 10}, {7, 1, 11}, {7, 2, 13}, {7, 3, 17},
		{7, 4, 25}, {8, 5, 41}, {0, 32, 0}, {8, 32, 73},
	}},
	// B.13
	{false, []huffmanLine{
		{1, 0, 1}, {3, 0, 2}, {4, 0, 3}, {5, 0, 4}, {4, 1, 5},
		{3, 3, 7}, {6, 1, 15}, {6, 2, 17}, {6, 3, 21}, {6, 4, 29},
		{6, 5, 45}, {7, 6, 77}, {0, 32, 0}, {7, 32, 141},
	}},
	// B.14
	{false, []huffmanLine{
		{3, 0, -2}, {3, 0, -1}, {1, 0, 0}, {3, 0, 1}, {3, 0, 2},
		{0, 32, -3}, {0, 32, 3},
	}},
	// B.15
	{false, []huffmanLine{
		{7, 4, -24}, {6, 2, -8}, {5, 1, -4}, {4, 0, -2}, {3, 0, -1},
		{1, 0, 0}, {3, 0, 1}, {4, 0, 2}, {5, 1, 3}, {6, 2, 5},
		{7, 4, 9}, {7, 32, -25}, {7, 32, 25},
	}},
}
