// Command jbig2png converts a JBIG2 file or extracted PDF stream to PNG.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pagemark/jbig2/pkg/jbig2"
)

func main() {
	input := flag.String("input", "", "input JBIG2 file")
	global := flag.String("global", "", "optional JBIG2 globals stream extracted from a PDF")
	output := flag.String("output", "", "output PNG file (defaults to the input name with .png)")
	verbose := flag.Bool("v", false, "print the segment list")
	flag.Parse()

	if *input == "" {
		log.Fatal("input file is required, use -input")
	}
	data, err := os.ReadFile(*input)
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
	page, err := dec.Decode()
	if err != nil {
		log.Fatalf("decode: %v", err)
	}

	if *verbose {
		for _, seg := range dec.Segments() {
			fmt.Printf("segment %d: type=%d page=%d len=%d kind=%s\n",
				seg.Number(), seg.Type(), seg.PageAssoc(), seg.DataLength(), seg.Kind())
		}
	}

	out := *output
	if out == "" {
		out = strings.TrimSuffix(*input, filepath.Ext(*input)) + ".png"
	}
	file, err := os.Create(out)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer file.Close()

	if err := png.Encode(file, page.Gray()); err != nil {
		log.Fatalf("encode png: %v", err)
	}
	fmt.Printf("wrote %s (%dx%d)\n", out, page.Width(), page.Height())
}
