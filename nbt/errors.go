package nbt

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedEOF  = errors.New("nbt: unexpected end of data")
	ErrInvalidData    = errors.New("nbt: invalid data")
	ErrInvalidTagType = errors.New("nbt: invalid tag type")
	ErrKeyNotFound    = errors.New("nbt: key not found")
	ErrCompression    = errors.New("nbt: compression error")
)

// CompressionError wraps a failure of the underlying deflate or inflate
// implementation.
type CompressionError struct {
	Op     string // "compress" or "decompress"
	Format Compression
	Err    error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("nbt: %s %v: %v", e.Op, e.Format, e.Err)
}

func (e *CompressionError) Unwrap() error { return e.Err }

func (e *CompressionError) Is(target error) bool { return target == ErrCompression }

// SyntaxError is returned by the text notation parser. Cursor is a
// character (not byte) offset into the source.
type SyntaxError struct {
	Message string
	Cursor  int
	Context string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d: %s", e.Message, e.Cursor, e.Context)
}
