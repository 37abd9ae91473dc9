// Command jbig2dump lists the segments of a JBIG2 file or extracted PDF
// stream without rendering it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pagemark/jbig2/pkg/jbig2"
)

var segmentNames = map[uint8]string{
	0:  "symbol dictionary",
	4:  "intermediate text region",
	6:  "immediate text region",
	7:  "immediate lossless text region",
	16: "pattern dictionary",
	20: "intermediate halftone region",
	22: "immediate halftone region",
	23: "immediate lossless halftone region",
	36: "intermediate generic region",
	38: "immediate generic region",
	39: "immediate lossless generic region",
	40: "intermediate refinement region",
	42: "immediate refinement region",
	43: "immediate lossless refinement region",
	48: "page information",
	49: "end of page",
	50: "end of stripe",
	51: "end of file",
	52: "profiles",
	53: "tables",
	62: "extension",
}

func main() {
	global := flag.String("global", "", "optional JBIG2 globals stream extracted from a PDF")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: jbig2dump [-global file] <file>")
		os.Exit(2)
	}
	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	var globals []byte
	if *global != "" {
		globals, err = os.ReadFile(*global)
		if err != nil {
			log.Fatalf("read globals: %v", err)
		}
	}

	dec, err := jbig2.New(data, jbig2.Options{GlobalData: globals})
	if err != nil {
		log.Fatalf("open stream: %v", err)
	}
	page, decodeErr := dec.Decode()

	for _, seg := range dec.Segments() {
		name := segmentNames[seg.Type()]
		if name == "" {
			name = "unknown"
		}
		fmt.Printf("segment %-4d type %-2d %-36s page %d  %d bytes",
			seg.Number(), seg.Type(), name, seg.PageAssoc(), seg.DataLength())
		switch seg.Kind() {
		case jbig2.KindSymbolDict:
			fmt.Printf("  (%d symbols)", seg.NumSymbols())
		case jbig2.KindPatternDict:
			fmt.Printf("  (%d patterns)", seg.NumPatterns())
		case jbig2.KindHuffmanTable:
			fmt.Printf("  (custom table)")
		case jbig2.KindRegion:
			r := seg.Region()
			fmt.Printf("  (%dx%d region)", r.Width(), r.Height())
		}
		fmt.Println()
	}

	if decodeErr != nil {
		log.Fatalf("decode: %v", decodeErr)
	}
	fmt.Printf("page: %dx%d\n", page.Width(), page.Height())
}
