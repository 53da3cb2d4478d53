package bgzf

import (
	"compress/gzip"
	"io"
)

// Source transparently decompresses a BGZF (or any well-formed
// multistream gzip) input stream. compress/gzip.Reader already walks
// from one member to the next on its own, which is exactly the member
// boundary BGZF's BC extra field exists to let random-access readers
// skip to; a strictly sequential reader like this one never needs to
// look at BC at all.
type Source struct {
	gz *gzip.Reader
}

// NewSource returns a Source reading from r. It fails if r does not
// begin with a valid gzip member header.
func NewSource(r io.Reader) (*Source, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	gz.Multistream(true)
	return &Source{gz: gz}, nil
}

// Read implements io.Reader over the decompressed byte stream.
func (s *Source) Read(p []byte) (int, error) {
	return s.gz.Read(p)
}

// Close releases resources associated with the underlying gzip reader.
// It does not close the reader Source was built from.
func (s *Source) Close() error {
	return s.gz.Close()
}

// IsGzip reports whether the next byte available from scanner looks
// like the start of a gzip stream, without consuming it.
func IsGzip(scanner io.ByteScanner) (bool, error) {
	b, err := scanner.ReadByte()
	if err != nil {
		return false, err
	}
	if err := scanner.UnreadByte(); err != nil {
		return false, err
	}
	return b == 0x1f, nil
}
