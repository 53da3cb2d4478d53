// Package bamwalker drives the OQ<->ZQ transcode over a BAM byte stream.
//
// Unlike sam.Alignment in elprep, which decodes every alignment field
// into a Go struct and reserializes it, Walker
// treats everything except the OQ/ZQ aux tag it's currently rewriting as
// an opaque byte range: it decodes just enough of the fixed header to
// find field boundaries (name length, cigar length, seq length) and
// copies the rest straight through. That's what lets the output be
// byte-identical to the input outside of the tag being rewritten, which
// a round trip through a semantic record model can't guarantee for
// unusual aux tag values a formatter wasn't built to reproduce exactly.
package bamwalker
