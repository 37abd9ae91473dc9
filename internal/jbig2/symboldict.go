package jbig2

// SymbolDict is the exported outcome of a symbol dictionary segment.
type SymbolDict struct {
	Symbols []*Bitmap

	// Arithmetic coding contexts retained for dictionaries that set the
	// bitmap coding context retained flag. A later dictionary referring to
	// this one may resume from them instead of fresh statistics.
	gbCx []ArithContext
	grCx []ArithContext
}

// Clone deep-copies the dictionary including its retained contexts.
func (d *SymbolDict) Clone() *SymbolDict {
	c := &SymbolDict{Symbols: make([]*Bitmap, len(d.Symbols))}
	for i, sym := range d.Symbols {
		if sym != nil {
			c.Symbols[i] = sym.Clone()
		}
	}
	if d.gbCx != nil {
		c.gbCx = append([]ArithContext(nil), d.gbCx...)
	}
	if d.grCx != nil {
		c.grCx = append([]ArithContext(nil), d.grCx...)
	}
	return c
}

// NumSymbols returns the number of exported symbols.
func (d *SymbolDict) NumSymbols() int { return len(d.Symbols) }

// Symbol returns the bitmap of symbol i, or nil out of range.
func (d *SymbolDict) Symbol(i int) *Bitmap {
	if i < 0 || i >= len(d.Symbols) {
		return nil
	}
	return d.Symbols[i]
}

// SymbolDictDecoder holds the parameters of the symbol dictionary decoding
// procedure (T.88 6.5). New symbols are decoded in height classes and
// exported together with re-exported input symbols.
type SymbolDictDecoder struct {
	Huffman     bool
	Refine      bool
	Template    uint8
	RefTemplate uint8
	NumNew      uint32
	NumExported uint32
	Input       []*Bitmap
	// AT and RAT hold the generic and refinement adaptive pixel offsets as
	// (x, y) pairs.
	AT  [8]int
	RAT [4]int

	// Huffman path tables.
	TableDH     *HuffmanTable
	TableDW     *HuffmanTable
	TableBMSize *HuffmanTable
	TableAgg    *HuffmanTable
}

func (p *SymbolDictDecoder) validate() error {
	if p.Huffman && p.Refine {
		return unsupportedErr("huffman symbol dictionary with refinement")
	}
	if p.NumNew > maxBitmapSize || p.NumExported > maxBitmapSize {
		return symbolErr("symbol count %d/%d out of range", p.NumNew, p.NumExported)
	}
	return nil
}

func (p *SymbolDictDecoder) totalSymbols() uint32 {
	return uint32(len(p.Input)) + p.NumNew
}

// dictSymCodeLen returns the symbol ID width a dictionary uses for its
// refinement and aggregation coding, max(1, ceil(log2 n)) per 6.5.8.2.3.
func dictSymCodeLen(n uint32) uint8 {
	if l := symCodeLenFor(n); l > 0 {
		return l
	}
	return 1
}

// DecodeArith decodes the dictionary with arithmetic coding. The generic and
// refinement context banks may be retained across segments.
func (p *SymbolDictDecoder) DecodeArith(arith *ArithDecoder, gbCx, grCx []ArithContext) (*SymbolDict, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	bank := NewIntDecoderBank()
	iaid := NewIaidDecoder(dictSymCodeLen(p.totalSymbols()))
	newSyms := make([]*Bitmap, p.NumNew)

	var height int64
	var decoded uint32
	for decoded < p.NumNew {
		if arith.Exhausted() {
			return nil, symbolErr("input exhausted at symbol %d of %d", decoded, p.NumNew)
		}
		dh, ok := bank.Proc(IADH).Decode(arith)
		if !ok {
			return nil, symbolErr("unexpected OOB for height class delta")
		}
		height += int64(dh)
		if height < 0 || height > maxBitmapSize {
			return nil, symbolErr("symbol height %d out of range", height)
		}

		var width int64
		for {
			dw, ok := bank.Proc(IADW).Decode(arith)
			if !ok {
				break
			}
			if decoded >= p.NumNew {
				return nil, symbolErr("more symbols than the declared %d", p.NumNew)
			}
			width += int64(dw)
			if width < 0 || width > maxBitmapSize {
				return nil, symbolErr("symbol width %d out of range", width)
			}

			var sym *Bitmap
			var err error
			switch {
			case height == 0 || width == 0:
				// Zero-area symbols stay nil and cannot be referenced.
			case !p.Refine:
				sym, err = p.decodeDirect(arith, gbCx, int(width), int(height))
			default:
				sym, err = p.decodeRefAgg(arith, gbCx, grCx, bank, iaid, newSyms, decoded, int(width), int(height))
			}
			if err != nil {
				return nil, err
			}
			newSyms[decoded] = sym
			decoded++
		}
	}

	flags, err := p.decodeExportRunsArith(bank.Proc(IAEX), arith)
	if err != nil {
		return nil, err
	}
	return p.export(newSyms, flags)
}

// DecodeHuffman decodes the dictionary with Huffman coding. Each height
// class defers bitmap data into one collective bitmap that is split by the
// recorded widths once the class closes.
func (p *SymbolDictDecoder) DecodeHuffman(stream *Reader, gbCx []ArithContext) (*SymbolDict, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.TableDH == nil || p.TableDW == nil || p.TableBMSize == nil {
		return nil, huffmanErr("symbol dictionary without height, width or size tables")
	}

	newSyms := make([]*Bitmap, p.NumNew)
	widths := make([]int, p.NumNew)

	var height int64
	var decoded uint32
	for decoded < p.NumNew {
		dh, ok, err := p.TableDH.Decode(stream)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, symbolErr("unexpected OOB for height class delta")
		}
		height += int64(dh)
		if height < 0 || height > maxBitmapSize {
			return nil, symbolErr("symbol height %d out of range", height)
		}

		var width, totalWidth int64
		classStart := decoded
		for {
			dw, ok, err := p.TableDW.Decode(stream)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			if decoded >= p.NumNew {
				return nil, symbolErr("more symbols than the declared %d", p.NumNew)
			}
			width += int64(dw)
			totalWidth += width
			if width < 0 || width > maxBitmapSize || totalWidth > maxBitmapSize {
				return nil, symbolErr("symbol width %d out of range", width)
			}
			widths[decoded] = int(width)
			decoded++
		}

		bmSize, ok, err := p.TableBMSize.Decode(stream)
		if err != nil {
			return nil, err
		}
		if !ok || bmSize < 0 {
			return nil, symbolErr("invalid collective bitmap size %d", bmSize)
		}
		stream.Align()
		if height == 0 || totalWidth == 0 {
			// A degenerate class still carries its collective bitmap bytes.
			if uint32(bmSize) > stream.Remaining() {
				return nil, parseErr("collective bitmap size %d exceeds input", bmSize)
			}
			stream.Skip(uint32(bmSize))
			continue
		}

		collective, err := p.decodeCollective(stream, int(totalWidth), int(height), bmSize)
		if err != nil {
			return nil, err
		}

		offset := 0
		for i := classStart; i < decoded; i++ {
			if widths[i] == 0 {
				continue
			}
			newSyms[i] = collective.Crop(offset, 0, widths[i], int(height))
			offset += widths[i]
		}
	}

	runTable, err := StandardHuffmanTable(1)
	if err != nil {
		return nil, err
	}
	flags, err := p.decodeExportRunsHuffman(stream, runTable)
	if err != nil {
		return nil, err
	}
	return p.export(newSyms, flags)
}

func (p *SymbolDictDecoder) decodeDirect(arith *ArithDecoder, gbCx []ArithContext, w, h int) (*Bitmap, error) {
	g := &GenericDecoder{
		Template: p.Template,
		Width:    w,
		Height:   h,
		AT:       p.AT,
	}
	return g.Decode(arith, gbCx)
}

// decodeRefAgg handles the refinement and aggregation branch: a single
// instance refines one existing symbol, more instances delegate to the text
// region procedure with shared integer decoders.
func (p *SymbolDictDecoder) decodeRefAgg(arith *ArithDecoder, gbCx, grCx []ArithContext, bank *IntDecoderBank, iaid *IaidDecoder, newSyms []*Bitmap, decoded uint32, w, h int) (*Bitmap, error) {
	instances, ok := bank.Proc(IAAI).Decode(arith)
	if !ok {
		return nil, symbolErr("unexpected OOB for aggregate instance count")
	}
	if instances <= 0 {
		return nil, symbolErr("aggregate instance count %d out of range", instances)
	}

	if instances == 1 {
		id := iaid.Decode(arith)
		ref, err := p.lookup(id, newSyms, decoded)
		if err != nil {
			return nil, err
		}
		rdx, ok := bank.Proc(IARDX).Decode(arith)
		if !ok {
			return nil, symbolErr("unexpected OOB for refinement x offset")
		}
		rdy, ok := bank.Proc(IARDY).Decode(arith)
		if !ok {
			return nil, symbolErr("unexpected OOB for refinement y offset")
		}
		r := &RefinementDecoder{
			Template:  p.RefTemplate,
			Width:     w,
			Height:    h,
			DX:        rdx,
			DY:        rdy,
			Reference: ref,
			AT:        p.RAT,
		}
		return r.Decode(arith, grCx)
	}

	trd := &TextRegionDecoder{
		Refine:       true,
		RefTemplate:  p.RefTemplate,
		RefCorner:    CornerTopLeft,
		CombOp:       CombOR,
		Width:        w,
		Height:       h,
		NumInstances: uint32(instances),
		SymCodeLen:   iaid.codeLen,
		Syms:         p.aggregateSyms(newSyms, decoded),
		RAT:          p.RAT,
	}
	return trd.DecodeArith(arith, grCx, bank, iaid)
}

// aggregateSyms concatenates the input symbols with the new symbols decoded
// so far, the symbol table an aggregate text region draws from.
func (p *SymbolDictDecoder) aggregateSyms(newSyms []*Bitmap, decoded uint32) []*Bitmap {
	syms := make([]*Bitmap, 0, uint32(len(p.Input))+decoded)
	syms = append(syms, p.Input...)
	syms = append(syms, newSyms[:decoded]...)
	return syms
}

func (p *SymbolDictDecoder) lookup(id uint32, newSyms []*Bitmap, decoded uint32) (*Bitmap, error) {
	numInput := uint32(len(p.Input))
	var sym *Bitmap
	switch {
	case id < numInput:
		sym = p.Input[id]
	case id-numInput < decoded:
		sym = newSyms[id-numInput]
	default:
		return nil, symbolErr("symbol id %d not decoded yet", id)
	}
	if sym == nil {
		return nil, symbolErr("symbol %d has no bitmap", id)
	}
	return sym, nil
}

func (p *SymbolDictDecoder) decodeCollective(stream *Reader, w, h, bmSize int) (*Bitmap, error) {
	if bmSize > 0 {
		rest := stream.Rest()
		if bmSize > len(rest) {
			return nil, parseErr("collective bitmap size %d exceeds input", bmSize)
		}
		collective, err := decodeMMR(NewReader(rest[:bmSize]), w, h)
		if err != nil {
			return nil, err
		}
		stream.Skip(uint32(bmSize))
		return collective, nil
	}

	// Size zero means an uncompressed bitmap, row by row.
	collective := NewBitmap(w, h)
	if collective == nil {
		return nil, regionErr("collective bitmap %dx%d exceeds limits", w, h)
	}
	rowBytes := (w + 7) >> 3
	if uint64(rowBytes)*uint64(h) > uint64(stream.Remaining()) {
		return nil, parseErr("truncated uncompressed collective bitmap")
	}
	for y := 0; y < h; y++ {
		copy(collective.rowUnsafe(y)[:rowBytes], stream.Rest()[:rowBytes])
		stream.Skip(uint32(rowBytes))
	}
	return collective, nil
}

func (p *SymbolDictDecoder) decodeExportRunsArith(iaex *IntDecoder, arith *ArithDecoder) ([]bool, error) {
	total := p.totalSymbols()
	flags := make([]bool, total)
	cur := false
	var index uint32
	for index < total {
		if arith.Exhausted() {
			return nil, symbolErr("input exhausted decoding export runs")
		}
		run, ok := iaex.Decode(arith)
		if !ok {
			return nil, symbolErr("unexpected OOB for export run length")
		}
		if err := applyExportRun(flags, &index, run, cur); err != nil {
			return nil, err
		}
		cur = !cur
	}
	return flags, nil
}

func (p *SymbolDictDecoder) decodeExportRunsHuffman(stream *Reader, table *HuffmanTable) ([]bool, error) {
	total := p.totalSymbols()
	flags := make([]bool, total)
	cur := false
	var index uint32
	for index < total {
		run, ok, err := table.Decode(stream)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, symbolErr("unexpected OOB for export run length")
		}
		if err := applyExportRun(flags, &index, run, cur); err != nil {
			return nil, err
		}
		cur = !cur
	}
	return flags, nil
}

// applyExportRun marks the next run entries with the current toggle state.
// Runs alternate starting from not exported.
func applyExportRun(flags []bool, index *uint32, run int, cur bool) error {
	if run < 0 {
		return symbolErr("negative export run length %d", run)
	}
	if uint32(run) > uint32(len(flags))-*index {
		return symbolErr("export run %d exceeds symbol count %d", run, len(flags))
	}
	for i := uint32(0); i < uint32(run); i++ {
		flags[*index+i] = cur
	}
	*index += uint32(run)
	return nil
}

// export assembles the dictionary from the flagged subset of input plus new
// symbols, capped at the declared export count.
func (p *SymbolDictDecoder) export(newSyms []*Bitmap, flags []bool) (*SymbolDict, error) {
	numInput := uint32(len(p.Input))
	dict := &SymbolDict{Symbols: make([]*Bitmap, 0, p.NumExported)}
	for i, exported := range flags {
		if !exported || uint32(len(dict.Symbols)) >= p.NumExported {
			continue
		}
		var sym *Bitmap
		if uint32(i) < numInput {
			sym = p.Input[i]
		} else {
			sym = newSyms[uint32(i)-numInput]
		}
		dict.Symbols = append(dict.Symbols, sym)
	}
	if uint32(len(dict.Symbols)) != p.NumExported {
		return nil, symbolErr("exported %d symbols, declared %d", len(dict.Symbols), p.NumExported)
	}
	return dict, nil
}
