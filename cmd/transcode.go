// Package cmd implements the oqcompress command-line driver: argument
// parsing and wiring between bgzf, bamwalker, and qualcodec.
package cmd

import (
	"fmt"
	"log"

	"github.com/tedsharpe/OQCompress/bamwalker"
	"github.com/tedsharpe/OQCompress/bgzf"
	"github.com/tedsharpe/OQCompress/internal"
)

// DefaultCompressionLevel is the flate compression level used for the
// output BGZF stream, following compress/flate's own naming.
const DefaultCompressionLevel = -1

// Transcode implements the oqcompress command: it reads the BAM file
// named by args[0], rewrites every OQ aux tag into ZQ and every ZQ back
// into OQ, and writes the result to args[1]. It reports the number of
// alignments processed.
//
// Transcode recovers panics raised by bamwalker, qualcodec, and the
// internal I/O helpers (which use log.Panic, or a bare panic with a
// descriptive message, for fatal conditions; a write error from the bgzf
// sink reaches Transcode as such a panic) and turns them into a plain
// error naming both files, so that main can report a clean diagnostic
// and exit 1 instead of dumping a stack trace.
func Transcode(args []string) (count int, err error) {
	if len(args) != 2 {
		usage()
		return 0, fmt.Errorf("expected exactly 2 arguments, got %d", len(args))
	}
	inFile, outFile := args[0], args[1]

	if !checkExist(inFile) {
		return 0, fmt.Errorf("cannot read input file %v", inFile)
	}
	if !checkCreate(outFile) {
		return 0, fmt.Errorf("cannot create output file %v", outFile)
	}

	defer func() {
		if x := recover(); x != nil {
			err = fmt.Errorf("transcoding %v to %v: %v", inFile, outFile, x)
		}
	}()

	in := internal.FileOpen(inFile)
	defer internal.Close("input file "+inFile, in)

	src, srcErr := bgzf.NewSource(in)
	if srcErr != nil {
		return 0, fmt.Errorf("%v is not a valid BGZF/gzip BAM file: %v", inFile, srcErr)
	}
	defer internal.Close("BGZF source for "+inFile, src)

	out := internal.FileCreate(outFile)
	defer internal.Close("output file "+outFile, out)

	sink := bgzf.NewSink(out, DefaultCompressionLevel)

	walker := bamwalker.New(src, sink)
	walker.CopyHeader()
	count = walker.WalkAlignments()

	if closeErr := sink.Close(); closeErr != nil {
		log.Panicf("flushing BGZF output for %v: %v", outFile, closeErr)
	}
	return count, nil
}
