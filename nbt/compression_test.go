package nbt

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCompression(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Compression
	}{
		{"empty", nil, CompressionNone},
		{"gzip magic alone", []byte{0x1f, 0x8b}, CompressionNone},
		{"gzip", []byte{0x1f, 0x8b, 0x08}, CompressionGzip},
		{"zlib fastest", []byte{0x78, 0x01, 0}, CompressionZlib},
		{"zlib fast", []byte{0x78, 0x5e, 0}, CompressionZlib},
		{"zlib default", []byte{0x78, 0x9c, 0}, CompressionZlib},
		{"zlib best", []byte{0x78, 0xda, 0}, CompressionZlib},
		{"zlib unknown flags", []byte{0x78, 0x00, 0}, CompressionNone},
		{"raw compound", helloWorld, CompressionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCompression(tt.data))
		})
	}
}

func TestCompressRoundTrip(t *testing.T) {
	payload := bytes.Repeat(helloWorld, 100)

	for _, c := range []Compression{CompressionGzip, CompressionZlib, CompressionNone} {
		for _, level := range []int{0, 1, 5, 6, 9} {
			packed, err := Compress(payload, c, level)
			require.NoError(t, err)
			assert.Equal(t, c, DetectCompression(packed), "%v level %d", c, level)

			raw, detected, err := Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, c, detected)
			assert.Equal(t, payload, raw)
		}
	}
}

func TestCompressionErrors(t *testing.T) {
	_, err := Compress(helloWorld, CompressionGzip, 10)
	assert.ErrorIs(t, err, ErrCompression)

	_, err = DecompressAs([]byte{0x1f, 0x8b, 0x08, 0, 0, 0}, CompressionGzip)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompression))

	var cerr *CompressionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "decompress", cerr.Op)
	assert.Equal(t, CompressionGzip, cerr.Format)

	_, err = DecompressAs(helloWorld, CompressionZlib)
	assert.ErrorIs(t, err, ErrCompression)

	_, err = DecompressAs(helloWorld, Compression(7))
	assert.ErrorIs(t, err, ErrCompression)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{0, CompressionGzip, CompressionZlib, CompressionNone} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("lz4")
	assert.Error(t, err)
	assert.Equal(t, "unknown(9)", Compression(9).String())
}
