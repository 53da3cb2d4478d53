package bamwalker

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tedsharpe/OQCompress/internal"
	"github.com/tedsharpe/OQCompress/qualcodec"
)

// bamMagic is the magic 4 bytes every BAM file starts with. See
// http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.2.
const bamMagic = "BAM\x01"

// fixedAlignmentFields is the size in bytes of the fixed portion of a
// BAM alignment record, immediately following its 4-byte block_size
// prefix: refID, pos, l_read_name, mapq, bin, n_cigar_op, flag, l_seq,
// next_refID, next_pos, tlen.
const fixedAlignmentFields = 32

const (
	nameLenOffset  = 8
	cigarLenOffset = 12
	seqLenOffset   = 16
)

// elemSize maps a B-tag numeric subtype to its element size in bytes.
var elemSize = map[byte]int{
	'c': 1, 'C': 1,
	's': 2, 'S': 2,
	'i': 4, 'I': 4, 'f': 4,
}

// fixedSize maps an aux tag data type to its fixed payload size, for the
// types whose length doesn't depend on their contents. Z, H, and B are
// handled specially.
var fixedSize = map[byte]int{
	'A': 1, 'c': 1, 'C': 1,
	's': 2, 'S': 2,
	'i': 4, 'I': 4, 'f': 4,
}

// Walker drives a single, sequential pass over a BAM byte stream,
// rewriting OQ aux tags into ZQ and vice versa and copying everything
// else through unchanged. A Walker is not safe for concurrent use; its
// scratch buffers are reused across alignments.
type Walker struct {
	r     *bufio.Reader
	w     io.Writer
	codec *qualcodec.Codec
	body  []byte
}

// New returns a Walker reading the BAM stream in r and writing the
// transcoded stream to w.
func New(r io.Reader, w io.Writer) *Walker {
	return &Walker{
		r:     bufio.NewReader(r),
		w:     w,
		codec: new(qualcodec.Codec),
	}
}

// CopyHeader verifies the BAM magic and copies the header text and
// reference dictionary to the output verbatim.
func (wlk *Walker) CopyHeader() {
	var magic [4]byte
	internal.ReadFull("BAM magic", wlk.r, magic[:])
	if string(magic[:]) != bamMagic {
		panic("input lacks a valid \"BAM\\1\" magic")
	}
	internal.WriteFull("BAM magic", wlk.w, magic[:])

	var lText [4]byte
	textLen := internal.ReadUint32("header length", wlk.r, lText[:])
	internal.WriteFull("header length", wlk.w, lText[:])

	text := make([]byte, textLen)
	internal.ReadFull("header text", wlk.r, text)
	internal.WriteFull("header text", wlk.w, text)

	var nRefBuf [4]byte
	nRef := internal.ReadUint32("reference count", wlk.r, nRefBuf[:])
	internal.WriteFull("reference count", wlk.w, nRefBuf[:])

	var lenBuf [4]byte
	for i := uint32(0); i < nRef; i++ {
		nameLen := internal.ReadUint32("reference name length", wlk.r, lenBuf[:])
		internal.WriteFull("reference name length", wlk.w, lenBuf[:])

		name := make([]byte, nameLen)
		internal.ReadFull("reference name", wlk.r, name)
		internal.WriteFull("reference name", wlk.w, name)

		internal.ReadUint32("reference length", wlk.r, lenBuf[:])
		internal.WriteFull("reference length", wlk.w, lenBuf[:])
	}
}

// WalkAlignments transcodes every alignment record in the stream and
// returns how many it processed.
func (wlk *Walker) WalkAlignments() int {
	count := 0
	for {
		if _, err := wlk.r.Peek(1); err != nil {
			if err == io.EOF {
				return count
			}
			panic(fmt.Sprintf("peeking for alignment %d: %v", count, err))
		}
		wlk.transcodeAlignment(count)
		count++
	}
}

// readAppend grows wlk.body by n bytes, reads them from the input, and
// returns the newly appended slice.
func (wlk *Walker) readAppend(what string, n int) []byte {
	start := len(wlk.body)
	wlk.body = append(wlk.body, make([]byte, n)...)
	internal.ReadFull(what, wlk.r, wlk.body[start:])
	return wlk.body[start:]
}

// transcodeAlignment reads one alignment record, rewrites any OQ/ZQ aux
// tag it finds, and writes the (possibly resized) result.
func (wlk *Walker) transcodeAlignment(index int) {
	var blockSizeBuf [4]byte
	internal.ReadFull(fmt.Sprintf("alignment %d block size", index), wlk.r, blockSizeBuf[:])
	blockSize := int(binary.LittleEndian.Uint32(blockSizeBuf[:]))

	wlk.body = wlk.body[:0]
	fixed := wlk.readAppend(fmt.Sprintf("alignment %d header", index), fixedAlignmentFields)

	nameLen := int(fixed[nameLenOffset])
	cigarLen := int(binary.LittleEndian.Uint16(fixed[cigarLenOffset : cigarLenOffset+2]))
	seqLen := int(int32(binary.LittleEndian.Uint32(fixed[seqLenOffset : seqLenOffset+4])))

	wlk.readAppend(fmt.Sprintf("alignment %d read name", index), nameLen)
	wlk.readAppend(fmt.Sprintf("alignment %d cigar", index), cigarLen*4)
	wlk.readAppend(fmt.Sprintf("alignment %d packed sequence", index), (seqLen+1)>>1)
	wlk.readAppend(fmt.Sprintf("alignment %d quality", index), seqLen)

	auxLen := blockSize - fixedAlignmentFields - nameLen - cigarLen*4 - (seqLen+1)>>1 - seqLen
	if auxLen < 0 {
		panic(fmt.Sprintf("alignment %d has an invalid block size", index))
	}

	for auxLen > 0 {
		tag := wlk.readAppend(fmt.Sprintf("alignment %d tag header", index), 3)
		tagName, tagType := [2]byte{tag[0], tag[1]}, tag[2]
		auxLen -= 3

		switch {
		case tagName == [2]byte{'O', 'Q'}:
			auxLen -= wlk.rewriteOQ(index, tagType, seqLen)
		case tagName == [2]byte{'Z', 'Q'}:
			auxLen -= wlk.rewriteZQ(index, tagType, seqLen)
		default:
			auxLen -= wlk.copyOtherTag(index, tagType)
		}
	}
	if auxLen < 0 {
		panic(fmt.Sprintf("alignment %d has a tag that overruns its block size", index))
	}

	var newBlockSizeBuf [4]byte
	binary.LittleEndian.PutUint32(newBlockSizeBuf[:], uint32(len(wlk.body)))
	internal.WriteFull(fmt.Sprintf("alignment %d block size", index), wlk.w, newBlockSizeBuf[:])
	internal.WriteFull(fmt.Sprintf("alignment %d body", index), wlk.w, wlk.body)
}

// rewriteOQ consumes an OQ:Z tag's payload (seqLen ASCII Phred+33 bytes
// plus a NUL terminator), packs it with the codec, and appends a ZQ:B:C
// tag in its place. It returns how many input bytes it consumed *after*
// the 3-byte tag header already accounted for by the caller.
func (wlk *Walker) rewriteOQ(index int, tagType byte, seqLen int) int {
	if tagType != 'Z' {
		panic(fmt.Sprintf("alignment %d has an OQ tag with non-Z type %q", index, tagType))
	}
	wlk.body = wlk.body[:len(wlk.body)-3] // drop the OQ:Z tag header; ZQ:B:C gets its own below

	raw := append(internal.ReserveByteBuffer(), make([]byte, seqLen)...)
	defer internal.ReleaseByteBuffer(raw)
	internal.ReadFull(fmt.Sprintf("alignment %d OQ payload", index), wlk.r, raw)
	var nul [1]byte
	internal.ReadFull(fmt.Sprintf("alignment %d OQ terminator", index), wlk.r, nul[:])
	if nul[0] != 0 {
		panic(fmt.Sprintf("alignment %d has an OQ tag with the wrong length", index))
	}

	for i, b := range raw {
		raw[i] = b - 33
	}
	for _, q := range raw {
		if q > qualcodec.MaxQuality {
			panic(fmt.Sprintf("alignment %d has an OQ quality score of %d, greater than the maximum of %d", index, q, qualcodec.MaxQuality))
		}
	}
	packed := wlk.codec.Encode(raw)

	wlk.body = append(wlk.body, 'Z', 'Q', 'B', 'C')
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(packed)))
	wlk.body = append(wlk.body, lenBuf[:]...)
	wlk.body = append(wlk.body, packed...)

	return seqLen + 1
}

// rewriteZQ consumes a ZQ:B:C tag's payload, unpacks it with the codec,
// and appends an OQ:Z tag in its place.
func (wlk *Walker) rewriteZQ(index int, tagType byte, seqLen int) int {
	if tagType != 'B' {
		panic(fmt.Sprintf("alignment %d has a ZQ tag with non-B type %q", index, tagType))
	}
	var subtype [1]byte
	internal.ReadFull(fmt.Sprintf("alignment %d ZQ subtype", index), wlk.r, subtype[:])
	if subtype[0] != 'C' {
		panic(fmt.Sprintf("alignment %d has a ZQ tag with non-C element type %q", index, subtype[0]))
	}
	wlk.body = wlk.body[:len(wlk.body)-3] // drop the ZQ:B tag header; OQ:Z gets its own below

	var lenBuf [4]byte
	internal.ReadFull(fmt.Sprintf("alignment %d ZQ length", index), wlk.r, lenBuf[:])
	size := int(binary.LittleEndian.Uint32(lenBuf[:]))

	packed := append(internal.ReserveByteBuffer(), make([]byte, size)...)
	defer internal.ReleaseByteBuffer(packed)
	internal.ReadFull(fmt.Sprintf("alignment %d ZQ payload", index), wlk.r, packed)

	decoded := wlk.codec.Decode(packed)
	if len(decoded) != seqLen {
		panic(fmt.Sprintf("alignment %d: decoded ZQ length %d does not match seq length %d", index, len(decoded), seqLen))
	}

	wlk.body = append(wlk.body, 'O', 'Q', 'Z')
	for _, q := range decoded {
		wlk.body = append(wlk.body, q+33)
	}
	wlk.body = append(wlk.body, 0)

	return 1 + 4 + size
}

// copyOtherTag copies a non-OQ/ZQ tag's payload through verbatim,
// respecting its type's encoding, and returns how many input bytes it
// consumed after the 3-byte tag header.
func (wlk *Walker) copyOtherTag(index int, tagType byte) int {
	switch tagType {
	case 'Z', 'H':
		n := 0
		for {
			b := wlk.readAppend(fmt.Sprintf("alignment %d tag payload", index), 1)
			n++
			if b[0] == 0 {
				return n
			}
		}
	case 'B':
		hdr := wlk.readAppend(fmt.Sprintf("alignment %d B-tag header", index), 5)
		subtype := hdr[0]
		size, ok := elemSize[subtype]
		if !ok {
			panic(fmt.Sprintf("alignment %d has a B tag with unknown element type %q", index, subtype))
		}
		count := int(binary.LittleEndian.Uint32(hdr[1:5]))
		wlk.readAppend(fmt.Sprintf("alignment %d B-tag payload", index), size*count)
		return 5 + size*count
	default:
		size, ok := fixedSize[tagType]
		if !ok {
			panic(fmt.Sprintf("alignment %d has a tag with unknown type %q", index, tagType))
		}
		wlk.readAppend(fmt.Sprintf("alignment %d tag payload", index), size)
		return size
	}
}
