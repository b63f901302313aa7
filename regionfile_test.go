package anvil

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tnze/go-mc/save/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmpim/anvil/v2/nbt"
)

func testChunk(t *testing.T, x, z int, c nbt.Compression) *RegionChunk {
	t.Helper()
	root := nbt.NewCompound().
		Set("DataVersion", nbt.Int(3465)).
		Set("xPos", nbt.Int(x)).
		Set("zPos", nbt.Int(z)).
		Set("Status", nbt.String("minecraft:full"))
	chunk, err := NewRegionChunk(x, z, nbt.NewFile("", root, c), c, uint32(1700000000+x))
	require.NoError(t, err)
	return chunk
}

func TestRegionRoundTrip(t *testing.T) {
	original := testChunk(t, 2, 5, nbt.CompressionZlib)

	data, err := WriteRegion(original)
	require.NoError(t, err)
	assert.Equal(t, 3*SectorSize, len(data))

	r, err := ReadRegion(data)
	require.NoError(t, err)
	assert.Empty(t, r.Skipped)
	assert.Equal(t, 1, r.Len())

	chunk := r.FindChunk(2, 5)
	require.NotNil(t, chunk)
	assert.Equal(t, nbt.CompressionZlib, chunk.GetCompression())
	assert.Equal(t, uint32(1700000002), chunk.Timestamp)
	assert.Equal(t, original.Data, chunk.Data)

	want, err := original.File()
	require.NoError(t, err)
	got, err := chunk.File()
	require.NoError(t, err)
	assert.True(t, nbt.Equal(want.Root, got.Root), "decoded chunk differs: %v", got.Root)

	assert.Nil(t, r.FindChunk(5, 2))
	assert.Nil(t, r.FindChunk(-1, 0))
	assert.Nil(t, r.FindChunk(0, 32))
}

func TestRegionLayout(t *testing.T) {
	data, err := WriteRegion(testChunk(t, 2, 5, nbt.CompressionNone))
	require.NoError(t, err)

	entry := binary.BigEndian.Uint32(data[(5*32+2)*4:])
	assert.Equal(t, uint32(2<<8|1), entry, "first chunk sits right after the header")

	ts := binary.BigEndian.Uint32(data[SectorSize+(5*32+2)*4:])
	assert.Equal(t, uint32(1700000002), ts)

	length := binary.BigEndian.Uint32(data[2*SectorSize:])
	assert.Equal(t, nbt.CompressionNone, nbt.Compression(data[2*SectorSize+4]))
	payload := data[2*SectorSize+5 : 2*SectorSize+4+int(length)]
	f, err := nbt.ReadFile(payload, nbt.ReadOptions{Compression: nbt.CompressionNone})
	require.NoError(t, err)
	assert.Equal(t, 4, f.Root.Len())

	for _, b := range data[2*SectorSize+4+int(length):] {
		require.Zero(t, b, "slack is zero padded")
	}
}

func TestRegionPositionsInTableOrder(t *testing.T) {
	r := NewRegionFile()
	for _, pos := range [][2]int{{31, 31}, {3, 0}, {0, 1}, {1, 0}} {
		require.NoError(t, r.SetChunk(testChunk(t, pos[0], pos[1], nbt.CompressionGzip)))
	}

	data, err := r.Write()
	require.NoError(t, err)

	back, err := ReadRegion(data)
	require.NoError(t, err)
	assert.Equal(t, []ChunkPos{{1, 0}, {3, 0}, {0, 1}, {31, 31}}, back.ChunkPositions())

	for _, c := range back.Chunks() {
		lazy, err := c.Lazy()
		require.NoError(t, err)
		x, _, err := lazy.Get("xPos")
		require.NoError(t, err)
		assert.Equal(t, nbt.Int(c.X), x)
	}

	back.RemoveChunk(3, 0)
	assert.Equal(t, 3, back.Len())
}

func TestRegionLargeChunk(t *testing.T) {
	big := make(nbt.ByteArray, 3*SectorSize)
	root := nbt.NewCompound().Set("blob", big)
	c, err := NewRegionChunk(0, 0, nbt.NewFile("", root, 0), nbt.CompressionNone, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, c.sectors())

	data, err := WriteRegion(c, testChunk(t, 1, 0, nbt.CompressionZlib))
	require.NoError(t, err)
	assert.Equal(t, (2+4+1)*SectorSize, len(data))

	r, err := ReadRegion(data)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, uint32(6<<8|1), binary.BigEndian.Uint32(data[4:]))
}

func TestWriteRegionRejects(t *testing.T) {
	a := testChunk(t, 1, 1, nbt.CompressionZlib)
	b := testChunk(t, 1, 1, nbt.CompressionGzip)
	_, err := WriteRegion(a, b)
	assert.Error(t, err)

	bad := testChunk(t, 0, 0, nbt.CompressionZlib)
	bad.Compression = 4
	_, err = WriteRegion(bad)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)

	huge := &RegionChunk{ChunkPos: ChunkPos{0, 0}, Compression: nbt.CompressionNone,
		Data: make([]byte, 256*SectorSize)}
	_, err = WriteRegion(huge)
	assert.ErrorIs(t, err, ErrChunkTooLarge)

	_, err = NewRegionChunk(32, 0, nbt.NewFile("", nil, 0), nbt.CompressionZlib, 0)
	assert.ErrorIs(t, err, ErrChunkOutOfBounds)
}

func TestReadRegionSize(t *testing.T) {
	_, err := ReadRegion(make([]byte, SectorSize))
	assert.ErrorIs(t, err, ErrInvalidRegion)

	_, err = ReadRegion(make([]byte, 2*SectorSize+1))
	assert.ErrorIs(t, err, ErrInvalidRegion)

	r, err := ReadRegion(make([]byte, 2*SectorSize))
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestReadRegionSkipsBadChunks(t *testing.T) {
	data, err := WriteRegion(
		testChunk(t, 0, 0, nbt.CompressionZlib),
		testChunk(t, 1, 0, nbt.CompressionZlib),
		testChunk(t, 2, 0, nbt.CompressionZlib),
	)
	require.NoError(t, err)

	// (1, 0): unknown marker.
	data[3*SectorSize+4] = 4
	// (2, 0): points at the sectors of (0, 0).
	copy(data[2*4:], data[0:4])
	// (3, 0): past the end of the file.
	binary.BigEndian.PutUint32(data[3*4:], 100<<8|1)
	// (4, 0): inside the header.
	binary.BigEndian.PutUint32(data[4*4:], 1<<8|1)

	r, err := ReadRegion(data)
	require.NoError(t, err)
	assert.Equal(t, []ChunkPos{{0, 0}}, r.ChunkPositions())

	require.Len(t, r.Skipped, 4)
	assert.Equal(t, ChunkPos{1, 0}, r.Skipped[0].ChunkPos)
	assert.ErrorIs(t, r.Skipped[0].Err, ErrUnsupportedCompression)
	for _, s := range r.Skipped[1:] {
		assert.ErrorIs(t, s.Err, ErrInvalidRegion)
	}

	chunk := r.FindChunk(0, 0)
	require.NotNil(t, chunk)
	_, err = chunk.File()
	assert.NoError(t, err)
}

func TestReadRegionBadLength(t *testing.T) {
	data, err := WriteRegion(testChunk(t, 0, 0, nbt.CompressionZlib))
	require.NoError(t, err)
	binary.BigEndian.PutUint32(data[2*SectorSize:], SectorSize)

	r, err := ReadRegion(data)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	require.Len(t, r.Skipped, 1)
	assert.ErrorIs(t, r.Skipped[0].Err, ErrInvalidRegion)
}

func TestChunkHash(t *testing.T) {
	a := testChunk(t, 0, 0, nbt.CompressionZlib)
	b := testChunk(t, 0, 0, nbt.CompressionZlib)
	c := testChunk(t, 1, 0, nbt.CompressionZlib)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestOpenRegionFile(t *testing.T) {
	dir := t.TempDir()

	r := NewRegionFile()
	require.NoError(t, r.SetChunk(testChunk(t, 4, 7, nbt.CompressionZlib)))
	name := filepath.Join(dir, "r.-1.2.mca")
	require.NoError(t, r.WriteFile(name))

	back, err := OpenRegionFile(name)
	require.NoError(t, err)
	assert.Equal(t, Region{X: -1, Z: 2}, back.Region)

	chunk := back.ReadChunk(Chunk{X: -32 + 4, Z: 64 + 7})
	require.NotNil(t, chunk)
	assert.Equal(t, ChunkPos{4, 7}, chunk.ChunkPos)
	assert.Equal(t, Chunk{X: -28, Z: 71}, back.WorldChunk(chunk))

	for _, bad := range []string{"region.mca", "r.1.2.mcr", "x.1.2.mca", "r.a.2.mca"} {
		_, err := OpenRegionFile(filepath.Join(dir, bad))
		assert.Error(t, err, bad)
	}
}

func TestRegionReadableByGoMC(t *testing.T) {
	data, err := WriteRegion(testChunk(t, 2, 5, nbt.CompressionZlib), testChunk(t, 9, 30, nbt.CompressionGzip))
	require.NoError(t, err)

	f, err := os.CreateTemp(t.TempDir(), "r.0.0.*.mca")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	rg, err := region.Load(f)
	require.NoError(t, err)
	defer rg.Close()

	assert.True(t, rg.ExistSector(2, 5))
	assert.True(t, rg.ExistSector(9, 30))
	assert.False(t, rg.ExistSector(5, 2))

	sector, err := rg.ReadSector(9, 30)
	require.NoError(t, err)
	require.NotEmpty(t, sector)
	assert.Equal(t, byte(nbt.CompressionGzip), sector[0])

	file, err := nbt.ReadFile(sector[1:], nbt.ReadOptions{})
	require.NoError(t, err)
	v, err := file.Root.GetInt("zPos")
	require.NoError(t, err)
	assert.Equal(t, int32(30), v)
}

func TestRegionReadsGoMCOutput(t *testing.T) {
	name := filepath.Join(t.TempDir(), "r.0.0.mca")
	rg, err := region.Create(name)
	require.NoError(t, err)

	payload, err := nbt.NewFile("", nbt.NewCompound().Set("id", nbt.String("go-mc")), nbt.CompressionZlib).
		Write(nbt.WriteOptions{})
	require.NoError(t, err)
	require.NoError(t, rg.WriteSector(3, 4, append([]byte{byte(nbt.CompressionZlib)}, payload...)))
	require.NoError(t, rg.Close())

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	// go-mc does not pad the last sector.
	if rem := len(data) % SectorSize; rem != 0 {
		data = append(data, make([]byte, SectorSize-rem)...)
	}

	r, err := ReadRegion(data)
	require.NoError(t, err)
	assert.Empty(t, r.Skipped)

	chunk := r.FindChunk(3, 4)
	require.NotNil(t, chunk)
	f, err := chunk.File()
	require.NoError(t, err)
	id, err := f.Root.GetString("id")
	require.NoError(t, err)
	assert.Equal(t, "go-mc", id)
}
