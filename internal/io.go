package internal

import (
	"encoding/binary"
	"io"
	"log"
	"os"
)

// ReadFull is io.ReadFull with panics in place of errors. The caller names
// what it was trying to read so the panic message identifies the failing
// structural boundary.
func ReadFull(what string, r io.Reader, buf []byte) {
	if _, err := io.ReadFull(r, buf); err != nil {
		log.Panicf("%v: %v", what, err)
	}
}

// ReadUint32 reads a little-endian uint32, panicking on a short read.
func ReadUint32(what string, r io.Reader, buf []byte) uint32 {
	ReadFull(what, r, buf[:4])
	return binary.LittleEndian.Uint32(buf[:4])
}

// WriteFull is w.Write with panics in place of errors.
func WriteFull(what string, w io.Writer, buf []byte) {
	if _, err := w.Write(buf); err != nil {
		log.Panicf("%v: %v", what, err)
	}
}

// Close is c.Close() with panics in place of errors.
func Close(what string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Panicf("%v: %v", what, err)
	}
}

// FileOpen is os.Open with panics in place of errors.
func FileOpen(filename string) *os.File {
	f, err := os.Open(filename)
	if err != nil {
		log.Panic(err)
	}
	return f
}

// FileCreate is os.Create with panics in place of errors.
func FileCreate(filename string) *os.File {
	f, err := os.Create(filename)
	if err != nil {
		log.Panic(err)
	}
	return f
}
