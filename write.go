package anvil

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/tmpim/anvil/v2/nbt"
)

// Write lays the region's chunks out into a new region file.
func (r *RegionFile) Write() ([]byte, error) {
	return WriteRegion(r.Chunks()...)
}

// WriteFile writes the region to filename.
func (r *RegionFile) WriteFile(filename string) error {
	data, err := r.Write()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// WriteRegion builds a region file from chunks. Sectors are handed out in
// location table order starting right after the two header sectors, so
// the output has no gaps; each chunk is zero padded to a sector boundary.
// Two chunks at the same position are an error.
func WriteRegion(chunks ...*RegionChunk) ([]byte, error) {
	var table [chunkEntries]*RegionChunk
	for _, c := range chunks {
		if !c.valid() {
			return nil, fmt.Errorf("%w: (%d, %d)", ErrChunkOutOfBounds, c.X, c.Z)
		}
		if table[c.index()] != nil {
			return nil, fmt.Errorf("anvil: two chunks at (%d, %d)", c.X, c.Z)
		}
		if !c.Compression.Valid() {
			return nil, fmt.Errorf("%w: chunk (%d, %d) has marker %d",
				ErrUnsupportedCompression, c.X, c.Z, byte(c.Compression))
		}
		if c.sectors() > maxSectorCount {
			return nil, fmt.Errorf("%w: chunk (%d, %d) needs %d sectors, limit is %d",
				ErrChunkTooLarge, c.X, c.Z, c.sectors(), maxSectorCount)
		}
		table[c.index()] = c
	}

	var (
		offsets [chunkEntries]int
		next    = headerSectors
	)
	for i, c := range table {
		if c == nil {
			continue
		}
		offsets[i] = next
		next += c.sectors()
	}
	if next-1 > maxSectorOffset {
		return nil, fmt.Errorf("%w: region needs %d sectors", ErrChunkTooLarge, next)
	}

	out := nbt.NewDataOutput(binary.BigEndian, next*SectorSize)
	for i, c := range table {
		if c == nil {
			out.WriteInt32(0)
			continue
		}
		out.WriteInt32(int32(offsets[i]<<8 | c.sectors()))
	}
	for _, c := range table {
		if c == nil {
			out.WriteInt32(0)
			continue
		}
		out.WriteInt32(int32(c.Timestamp))
	}

	var padding [SectorSize]byte
	for _, c := range table {
		if c == nil {
			continue
		}
		out.WriteInt32(int32(len(c.Data) + 1))
		out.WriteUint8(byte(c.Compression))
		out.WriteBytes(c.Data)
		if rem := out.Len() % SectorSize; rem != 0 {
			out.WriteBytes(padding[:SectorSize-rem])
		}
	}
	return out.Bytes(), nil
}
