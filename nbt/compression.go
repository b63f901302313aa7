package nbt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Compression identifies how a tag payload is wrapped. The numbering
// matches the compression byte of region file chunks. The zero value
// means "not specified": readers detect the format, writers keep the
// format the data was read with.
type Compression byte

const (
	CompressionGzip Compression = iota + 1
	CompressionZlib
	CompressionNone
)

// DefaultLevel is the deflate level used when none is given.
const DefaultLevel = 6

func (c Compression) String() string {
	switch c {
	case 0:
		return "auto"
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionNone:
		return "none"
	}
	return fmt.Sprintf("unknown(%d)", byte(c))
}

// Valid reports whether c names a concrete format.
func (c Compression) Valid() bool {
	return c >= CompressionGzip && c <= CompressionNone
}

// ParseCompression parses the names returned by String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "auto", "":
		return 0, nil
	case "gzip":
		return CompressionGzip, nil
	case "zlib":
		return CompressionZlib, nil
	case "none":
		return CompressionNone, nil
	}
	return 0, fmt.Errorf("nbt: unknown compression %q", name)
}

// DetectCompression looks at the magic bytes of data. Buffers of two
// bytes or fewer are never treated as compressed.
func DetectCompression(data []byte) Compression {
	if len(data) <= 2 {
		return CompressionNone
	}
	if data[0] == 0x1f && data[1] == 0x8b {
		return CompressionGzip
	}
	if data[0] == 0x78 {
		switch data[1] {
		case 0x01, 0x5e, 0x9c, 0xda:
			return CompressionZlib
		}
	}
	return CompressionNone
}

// Decompress detects the format of data and inflates it.
func Decompress(data []byte) ([]byte, Compression, error) {
	c := DetectCompression(data)
	out, err := DecompressAs(data, c)
	return out, c, err
}

// DecompressAs inflates data as format c. CompressionNone returns data
// unchanged.
func DecompressAs(data []byte, c Compression) ([]byte, error) {
	var (
		rd  io.ReadCloser
		err error
	)
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		rd, err = gzip.NewReader(bytes.NewReader(data))
	case CompressionZlib:
		rd, err = zlib.NewReader(bytes.NewReader(data))
	default:
		return nil, &CompressionError{Op: "decompress", Format: c, Err: fmt.Errorf("unsupported format")}
	}
	if err != nil {
		return nil, &CompressionError{Op: "decompress", Format: c, Err: err}
	}
	defer rd.Close()

	out, err := io.ReadAll(rd)
	if err != nil {
		return nil, &CompressionError{Op: "decompress", Format: c, Err: err}
	}
	return out, nil
}

// Compress deflates data as format c at the given level (0-9).
// CompressionNone returns data unchanged.
func Compress(data []byte, c Compression, level int) ([]byte, error) {
	if c == CompressionNone {
		return data, nil
	}
	if level < 0 || level > 9 {
		return nil, &CompressionError{Op: "compress", Format: c, Err: fmt.Errorf("level %d out of range 0-9", level)}
	}

	var (
		buf bytes.Buffer
		wr  io.WriteCloser
		err error
	)
	switch c {
	case CompressionGzip:
		wr, err = gzip.NewWriterLevel(&buf, level)
	case CompressionZlib:
		wr, err = zlib.NewWriterLevel(&buf, level)
	default:
		return nil, &CompressionError{Op: "compress", Format: c, Err: fmt.Errorf("unsupported format")}
	}
	if err != nil {
		return nil, &CompressionError{Op: "compress", Format: c, Err: err}
	}

	if _, err := wr.Write(data); err != nil {
		return nil, &CompressionError{Op: "compress", Format: c, Err: err}
	}
	if err := wr.Close(); err != nil {
		return nil, &CompressionError{Op: "compress", Format: c, Err: err}
	}
	return buf.Bytes(), nil
}
