// oqcompress transcodes a BAM file's "OQ" original-quality aux tag into
// a compact packed "ZQ" tag, and symmetrically expands "ZQ" back into
// "OQ". All other BAM content passes through byte-identical.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/tedsharpe/OQCompress/cmd"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "Usage: oqcompress in.bam out.bam")
		os.Exit(1)
	}

	count, err := cmd.Transcode(os.Args[1:])
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
	log.Printf("Transcoded %d alignments.\n", count)
}
