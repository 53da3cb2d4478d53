// Package bgzf frames and unframes BGZF, the blocked gzip format BAM
// files are stored in: a concatenation of ordinary gzip members, each
// carrying a "BC" extra subfield that records the member's own length so
// a reader can seek to member boundaries.
//
// Source only needs to decompress, which compress/gzip already does
// transparently across the member boundaries (BGZF is a conformant
// multistream gzip file); Sink is where the BGZF-specific framing lives,
// since the encoder has to choose member boundaries and fill in BSIZE
// itself. This package deliberately has no concurrency of its own:
// elprep pipelines compression and decompression across goroutines with
// github.com/exascience/pargo/pipeline, but this program processes one
// alignment at a time and never needs to.
package bgzf
