package anvil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tmpim/anvil/v2/nbt"
)

const (
	sectorShift = 12

	// SectorSize is the allocation unit of a region file.
	SectorSize = 1 << sectorShift

	headerSectors   = 2
	headerSize      = headerSectors * SectorSize
	chunkEntries    = ChunksPerRegion * ChunksPerRegion
	chunkHeaderSize = 5 // length + compression marker
	maxSectorCount  = 255
	maxSectorOffset = 1<<24 - 1
)

var (
	ErrInvalidRegion          = errors.New("anvil: invalid region file")
	ErrChunkTooLarge          = errors.New("anvil: chunk too large")
	ErrChunkOutOfBounds       = errors.New("anvil: chunk position out of bounds")
	ErrUnsupportedCompression = errors.New("anvil: unsupported chunk compression")
)

// SkippedChunk records a location table entry that could not be read.
type SkippedChunk struct {
	ChunkPos
	Err error
}

// RegionFile holds up to 32x32 chunks indexed by their position in the
// region. A RegionFile is not safe for concurrent use.
type RegionFile struct {
	// Region is set by OpenRegionFile from the file name.
	Region Region

	// Skipped lists the chunks ReadRegion found in the location table
	// but could not use. They are treated as absent.
	Skipped []SkippedChunk

	chunks [chunkEntries]*RegionChunk
}

// NewRegionFile returns an empty region.
func NewRegionFile() *RegionFile {
	return &RegionFile{}
}

// ReadRegion parses a region file held in memory. The location and
// timestamp tables are validated entry by entry: a chunk whose sectors
// fall outside the file, overlap the header or another chunk, declare an
// impossible length or carry an unknown compression marker is recorded
// in Skipped instead of failing the whole read. Payloads are not
// decompressed.
func ReadRegion(data []byte) (*RegionFile, error) {
	if len(data) < headerSize || len(data)%SectorSize != 0 {
		return nil, fmt.Errorf("%w: size %d is not a positive multiple of %d past the %d byte header",
			ErrInvalidRegion, len(data), SectorSize, headerSize)
	}

	r := &RegionFile{}
	used := make([]bool, len(data)/SectorSize)
	for i := 0; i < headerSectors; i++ {
		used[i] = true
	}

	locations := nbt.NewDataInput(data[:SectorSize], binary.BigEndian)
	timestamps := nbt.NewDataInput(data[SectorSize:headerSize], binary.BigEndian)
	for i := 0; i < chunkEntries; i++ {
		location, _ := locations.ReadInt32()
		timestamp, _ := timestamps.ReadInt32()
		if location == 0 {
			continue
		}

		pos := ChunkPos{X: i % ChunksPerRegion, Z: i / ChunksPerRegion}
		offset := int(uint32(location) >> 8)
		count := int(uint32(location) & 0xff)

		chunk, err := readChunk(data, used, offset, count)
		if err != nil {
			r.Skipped = append(r.Skipped, SkippedChunk{ChunkPos: pos, Err: err})
			continue
		}
		for s := offset; s < offset+count; s++ {
			used[s] = true
		}
		chunk.ChunkPos = pos
		chunk.Timestamp = uint32(timestamp)
		r.chunks[i] = chunk
	}
	return r, nil
}

func readChunk(data []byte, used []bool, offset, count int) (*RegionChunk, error) {
	if offset < headerSectors {
		return nil, fmt.Errorf("%w: sector offset %d overlaps the header", ErrInvalidRegion, offset)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: zero sector count at offset %d", ErrInvalidRegion, offset)
	}
	if offset+count > len(used) {
		return nil, fmt.Errorf("%w: sectors %d-%d past end of file (%d sectors)",
			ErrInvalidRegion, offset, offset+count-1, len(used))
	}
	for s := offset; s < offset+count; s++ {
		if used[s] {
			return nil, fmt.Errorf("%w: sector %d is claimed by another chunk", ErrInvalidRegion, s)
		}
	}

	in := nbt.NewDataInput(data[offset*SectorSize:(offset+count)*SectorSize], binary.BigEndian)
	length, _ := in.ReadInt32()
	if length <= 0 || int(length) > in.Remaining() {
		return nil, fmt.Errorf("%w: chunk length %d does not fit %d sectors", ErrInvalidRegion, length, count)
	}
	marker, _ := in.ReadUint8()
	c := nbt.Compression(marker)
	if !c.Valid() {
		return nil, fmt.Errorf("%w: marker %d", ErrUnsupportedCompression, marker)
	}
	payload, _ := in.ReadBytes(int(length) - 1)

	return &RegionChunk{
		Compression: c,
		Data:        append([]byte(nil), payload...),
	}, nil
}

// OpenRegionFile reads a region file from disk. The name must have the
// form r.X.Z.mca, which sets the region's coordinates.
func OpenRegionFile(filename string) (*RegionFile, error) {
	region, err := validateFilename(filename)
	if err != nil {
		return nil, fmt.Errorf("anvil: not a valid region filename: %w", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	r, err := ReadRegion(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	r.Region = region
	return r, nil
}

// Len returns the number of present chunks.
func (r *RegionFile) Len() int {
	n := 0
	for _, c := range r.chunks {
		if c != nil {
			n++
		}
	}
	return n
}

// ChunkPositions returns the positions of present chunks in location
// table order (z major, then x).
func (r *RegionFile) ChunkPositions() []ChunkPos {
	var out []ChunkPos
	for _, c := range r.chunks {
		if c != nil {
			out = append(out, c.ChunkPos)
		}
	}
	return out
}

// Chunks returns the present chunks in location table order.
func (r *RegionFile) Chunks() []*RegionChunk {
	var out []*RegionChunk
	for _, c := range r.chunks {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// FindChunk returns the chunk at (x, z), or nil if there is none.
func (r *RegionFile) FindChunk(x, z int) *RegionChunk {
	pos := ChunkPos{X: x, Z: z}
	if !pos.valid() {
		return nil
	}
	return r.chunks[pos.index()]
}

// ReadChunk finds a chunk by its world chunk coordinates.
func (r *RegionFile) ReadChunk(chunk Chunk) *RegionChunk {
	return r.chunks[chunk.RegionChunkOffset()>>2]
}

// WorldChunk returns the world chunk coordinates of c in this region.
func (r *RegionFile) WorldChunk(c *RegionChunk) Chunk {
	return r.Region.OffsetToChunk(c.index() << 2)
}

// SetChunk stores c at its position, replacing any previous chunk.
func (r *RegionFile) SetChunk(c *RegionChunk) error {
	if !c.valid() {
		return fmt.Errorf("%w: (%d, %d)", ErrChunkOutOfBounds, c.X, c.Z)
	}
	r.chunks[c.index()] = c
	return nil
}

// RemoveChunk deletes the chunk at (x, z) if present.
func (r *RegionFile) RemoveChunk(x, z int) {
	pos := ChunkPos{X: x, Z: z}
	if pos.valid() {
		r.chunks[pos.index()] = nil
	}
}

func validateFilename(filename string) (region Region, err error) {
	parts := strings.Split(filepath.Base(filename), ".")
	if len(parts) != 4 {
		err = errors.New("must have 4 dot seperated components")
		return
	}

	if parts[0] != "r" {
		err = errors.New("first component must be \"r\"")
		return
	}

	if parts[3] != "mca" {
		err = errors.New("extension must be \"mca\"")
		return
	}

	region.X, err = strconv.Atoi(parts[1])
	if err != nil {
		return
	}

	region.Z, err = strconv.Atoi(parts[2])

	return
}
