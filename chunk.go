package anvil

import (
	"fmt"

	"github.com/minio/highwayhash"
	"github.com/tmpim/anvil/v2/nbt"
)

var hashKey = []byte("\x8f\x7f\x9e\x63\x9f\x74\x8a\xc3\xe4\x21\xe8\xda\x7a\x7e\xbc\x12\x3a\xec\x2e\x15\xc4\xf4\x7d\x18\x8c\x7e\x2d\xf0\x86\x01\x26\xd9")

// ChunkPos is a chunk position inside a region, both fields in [0, 32).
type ChunkPos struct {
	X int
	Z int
}

func (p ChunkPos) index() int { return p.Z*ChunksPerRegion + p.X }

func (p ChunkPos) valid() bool {
	return p.X >= 0 && p.X < ChunksPerRegion && p.Z >= 0 && p.Z < ChunksPerRegion
}

// RegionChunk is one chunk stored in a region file: its still compressed
// payload, the compression marker in front of it and the modification
// time from the timestamp table.
type RegionChunk struct {
	ChunkPos
	// Timestamp is seconds since the Unix epoch.
	Timestamp   uint32
	Compression nbt.Compression
	Data        []byte
}

// NewRegionChunk encodes f with compression c and wraps it for storage
// at (x, z).
func NewRegionChunk(x, z int, f *nbt.File, c nbt.Compression, timestamp uint32) (*RegionChunk, error) {
	pos := ChunkPos{X: x, Z: z}
	if !pos.valid() {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrChunkOutOfBounds, x, z)
	}
	chunk := &RegionChunk{ChunkPos: pos, Timestamp: timestamp, Compression: c}
	if err := chunk.SetFile(f); err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetCompression returns the chunk's compression marker.
func (c *RegionChunk) GetCompression() nbt.Compression {
	return c.Compression
}

// Decompress returns the uncompressed tag bytes.
func (c *RegionChunk) Decompress() ([]byte, error) {
	if !c.Compression.Valid() {
		return nil, fmt.Errorf("%w: chunk (%d, %d) has compression marker %d",
			ErrUnsupportedCompression, c.X, c.Z, byte(c.Compression))
	}
	return nbt.DecompressAs(c.Data, c.Compression)
}

// File decodes the chunk's tag tree.
func (c *RegionChunk) File() (*nbt.File, error) {
	if !c.Compression.Valid() {
		return nil, fmt.Errorf("%w: chunk (%d, %d) has compression marker %d",
			ErrUnsupportedCompression, c.X, c.Z, byte(c.Compression))
	}
	return nbt.ReadFile(c.Data, nbt.ReadOptions{Compression: c.Compression})
}

// Lazy opens the chunk for selective reads.
func (c *RegionChunk) Lazy() (*nbt.LazyFile, error) {
	if !c.Compression.Valid() {
		return nil, fmt.Errorf("%w: chunk (%d, %d) has compression marker %d",
			ErrUnsupportedCompression, c.X, c.Z, byte(c.Compression))
	}
	return nbt.OpenLazy(c.Data, nbt.ReadOptions{Compression: c.Compression})
}

// SetFile replaces the payload with f encoded using the chunk's
// compression, which defaults to zlib.
func (c *RegionChunk) SetFile(f *nbt.File) error {
	if c.Compression == 0 {
		c.Compression = nbt.CompressionZlib
	}
	if !c.Compression.Valid() {
		return fmt.Errorf("%w: marker %d", ErrUnsupportedCompression, byte(c.Compression))
	}
	data, err := f.Write(nbt.WriteOptions{Compression: c.Compression})
	if err != nil {
		return err
	}
	c.Data = data
	return nil
}

// Hash fingerprints the stored payload. Two chunks with the same hash
// hold the same bytes, which is enough to find duplicated chunks without
// decompressing them.
func (c *RegionChunk) Hash() [highwayhash.Size128]byte {
	return highwayhash.Sum128(c.Data, hashKey)
}

// sectors is the number of 4 KiB sectors the chunk occupies: the 4 byte
// length, the marker byte and the payload, rounded up.
func (c *RegionChunk) sectors() int {
	return (chunkHeaderSize + len(c.Data) + SectorSize - 1) / SectorSize
}
