package anvil

// Coord is a block position.
type Coord struct {
	X int
	Y int
	Z int
}

// Chunk is a chunk position in world chunk coordinates. Y is the section
// index and is zero when a whole column is meant.
type Chunk struct {
	X int
	Y int
	Z int
}

// Region is a region position; each region holds 32x32 chunks.
type Region struct {
	X int
	Z int
}

// ChunksPerRegion is the side length of a region in chunks.
const ChunksPerRegion = 32

// RegionChunkOffset returns the byte offset of the chunk's entry in a
// region's location table.
func (c *Chunk) RegionChunkOffset() int {
	return ((c.X & 0b11111) | (c.Z&0b11111)<<5) << 2
}

// Local returns the chunk's position inside its region, both in [0, 32).
func (c *Chunk) Local() (x, z int) {
	return c.X & 0b11111, c.Z & 0b11111
}

func (c *Coord) Chunk() Chunk {
	return Chunk{
		X: c.X >> 4,
		Y: c.Y >> 4,
		Z: c.Z >> 4,
	}
}

func (c *Coord) Region() Region {
	return Region{
		X: c.X >> 9,
		Z: c.Z >> 9,
	}
}

func (c *Chunk) Region() Region {
	return Region{
		X: c.X >> 5,
		Z: c.Z >> 5,
	}
}

func (c *Chunk) CornerCoord() Coord {
	return Coord{
		X: c.X << 4,
		Y: c.Y << 4,
		Z: c.Z << 4,
	}
}

func (r *Region) CornerChunk() Chunk {
	return Chunk{
		X: r.X << 5,
		Z: r.Z << 5,
	}
}

// OffsetToChunk maps a location table byte offset, in [0, 4092], back to
// the world chunk it describes.
func (r *Region) OffsetToChunk(offset int) Chunk {
	chunkX := (offset >> 2) & 0b11111
	chunkZ := (offset >> 7) & 0b11111

	return Chunk{
		X: r.X<<5 | chunkX,
		Y: 0,
		Z: r.Z<<5 | chunkZ,
	}
}

// ChunkAt returns the world chunk for a local position inside r.
func (r *Region) ChunkAt(x, z int) Chunk {
	return Chunk{X: r.X<<5 | x&0b11111, Z: r.Z<<5 | z&0b11111}
}
