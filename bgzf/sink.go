package bgzf

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// maxBgzfBlockSize is the largest a complete BGZF member may be; BSIZE
// is a 16-bit field holding (member length - 1).
const maxBgzfBlockSize = 65536

// maxInputSize is the largest chunk of uncompressed input a member is
// ever first attempted with.
const maxInputSize = 65498

// bgzfHeader is the fixed 12-byte gzip header prefix BGZF members use:
// ID1, ID2, CM, FLG, 4-byte MTIME, XFL, OS, then 2-byte XLEN = 6.
var bgzfHeader = []byte{0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00}

// bgzfExtraHeader is the 4-byte "BC" extra subfield header (SI1, SI2,
// 2-byte SLEN = 2) that precedes the 2-byte BSIZE value.
var bgzfExtraHeader = []byte{'B', 'C', 0x02, 0x00}

// bgzfEOF is the empty BGZF member BAM readers expect to find terminating
// a well-formed file.
var bgzfEOF = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
	0x42, 0x43, 0x02, 0x00, 0x1b, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

var errMemberTooLarge = errors.New("bgzf: input does not compress small enough for a single block")

// buildMember deflates data and wraps it in one complete BGZF gzip
// member: 12-byte header, BC extra subfield (with BSIZE filled in once
// the total length is known), the raw DEFLATE body, and an 8-byte
// CRC32+size trailer.
func buildMember(data []byte, level int) ([]byte, error) {
	var body bytes.Buffer
	fw, err := flate.NewWriter(&body, level)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}

	member := make([]byte, 0, len(bgzfHeader)+len(bgzfExtraHeader)+2+body.Len()+8)
	member = append(member, bgzfHeader...)
	member = append(member, bgzfExtraHeader...)
	bsizeIndex := len(member)
	member = append(member, 0, 0)
	member = append(member, body.Bytes()...)

	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], crc32.ChecksumIEEE(data))
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(len(data)))
	member = append(member, trailer[:]...)

	binary.LittleEndian.PutUint16(member[bsizeIndex:bsizeIndex+2], uint16(len(member)-1))
	return member, nil
}

// compressMember builds a BGZF member from a prefix of data, shrinking
// the amount of input it attempts to compress until the member fits in
// maxBgzfBlockSize. It returns the complete member and how much of data
// it actually consumed, so the caller knows how much to keep buffered.
func compressMember(data []byte, level int) (member []byte, consumed int, err error) {
	candidate := len(data)
	if candidate > maxInputSize {
		candidate = maxInputSize
	}
	for candidate > 0 {
		member, err = buildMember(data[:candidate], level)
		if err != nil {
			return nil, 0, err
		}
		if len(member) <= maxBgzfBlockSize {
			return member, candidate, nil
		}
		next := candidate / 2
		if next == candidate {
			next = candidate - 1
		}
		candidate = next
	}
	return nil, 0, errMemberTooLarge
}

// Sink is a synchronous io.Writer that frames whatever is written to it
// as a sequence of BGZF members and forwards them to an underlying
// writer. Following zlib, level ranges from 1 (BestSpeed) to 9
// (BestCompression); -1 selects compress/flate's DefaultCompression.
type Sink struct {
	w       writer
	level   int
	pending []byte
}

type writer interface {
	Write(p []byte) (int, error)
}

// NewSink returns a Sink that writes BGZF members to w.
func NewSink(w writer, level int) *Sink {
	return &Sink{w: w, level: level}
}

// Write implements io.Writer. It buffers input and flushes complete
// BGZF members as enough data accumulates; call Close to flush the
// remainder and emit the terminating empty member.
func (s *Sink) Write(p []byte) (int, error) {
	s.pending = append(s.pending, p...)
	for len(s.pending) >= maxInputSize {
		if err := s.flushChunk(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (s *Sink) flushChunk() error {
	member, consumed, err := compressMember(s.pending, s.level)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(member); err != nil {
		return err
	}
	n := copy(s.pending, s.pending[consumed:])
	s.pending = s.pending[:n]
	return nil
}

// Close flushes any buffered input into a final BGZF member (if
// non-empty) and writes the BGZF EOF marker block. It does not close
// the underlying writer.
func (s *Sink) Close() error {
	for len(s.pending) > 0 {
		if err := s.flushChunk(); err != nil {
			return err
		}
	}
	_, err := s.w.Write(bgzfEOF)
	return err
}
