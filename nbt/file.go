package nbt

import (
	"encoding/binary"
	"fmt"
)

// File is a root compound together with the way it was stored.
type File struct {
	Name        string
	Root        *Compound
	Compression Compression

	// LittleEndian selects the Bedrock edition byte order.
	LittleEndian bool

	// BedrockHeader adds the 8 byte Bedrock level.dat prefix (storage
	// version, payload length; both little-endian int32) in front of
	// the uncompressed tag.
	BedrockHeader  bool
	BedrockVersion int32
}

// ReadOptions control how ReadFile and OpenLazy interpret their input.
type ReadOptions struct {
	// Compression forces a format; zero detects it.
	Compression   Compression
	LittleEndian  bool
	BedrockHeader bool
}

// WriteOptions control File.Write.
type WriteOptions struct {
	// Compression overrides the file's own format when non-zero.
	Compression Compression
	// Level is the deflate level 0-9; nil selects DefaultLevel.
	Level *int
}

// Level returns a WriteOptions.Level of n.
func Level(n int) *int { return &n }

// NewFile returns a file holding root. A nil root starts empty.
func NewFile(name string, root *Compound, c Compression) *File {
	if root == nil {
		root = NewCompound()
	}
	if c == 0 {
		c = CompressionNone
	}
	return &File{Name: name, Root: root, Compression: c}
}

func (o ReadOptions) order() binary.ByteOrder {
	if o.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ReadFile decompresses data and decodes its single root compound.
func ReadFile(data []byte, opts ReadOptions) (*File, error) {
	raw, c, err := unwrap(data, opts)
	if err != nil {
		return nil, err
	}

	f := &File{
		Compression:   c,
		LittleEndian:  opts.LittleEndian,
		BedrockHeader: opts.BedrockHeader,
	}
	if opts.BedrockHeader {
		if f.BedrockVersion, raw, err = stripBedrockHeader(raw); err != nil {
			return nil, err
		}
	}

	name, t, err := DecodeNamed(raw, opts.order())
	if err != nil {
		return nil, err
	}
	root, ok := t.(*Compound)
	if !ok {
		return nil, fmt.Errorf("%w: root tag is %v, want Compound", ErrInvalidData, t.ID())
	}
	f.Name, f.Root = name, root
	return f, nil
}

func unwrap(data []byte, opts ReadOptions) ([]byte, Compression, error) {
	if opts.Compression == 0 {
		return Decompress(data)
	}
	raw, err := DecompressAs(data, opts.Compression)
	return raw, opts.Compression, err
}

func stripBedrockHeader(raw []byte) (int32, []byte, error) {
	in := NewDataInput(raw, binary.LittleEndian)
	version, err := in.ReadInt32()
	if err != nil {
		return 0, nil, err
	}
	length, err := in.ReadInt32()
	if err != nil {
		return 0, nil, err
	}
	if length < 0 || int(length) != in.Remaining() {
		return 0, nil, fmt.Errorf("%w: bedrock header declares %d bytes, have %d",
			ErrInvalidData, length, in.Remaining())
	}
	return version, raw[8:], nil
}

// Write encodes the file and compresses it. The file's Compression is
// used unless opts overrides it, and afterwards records the format
// actually written.
func (f *File) Write(opts WriteOptions) ([]byte, error) {
	order := binary.ByteOrder(binary.BigEndian)
	if f.LittleEndian {
		order = binary.LittleEndian
	}

	out := NewDataOutput(order, 1024)
	if f.BedrockHeader {
		// Patched once the payload length is known.
		out.WriteBytes(make([]byte, 8))
	}
	root := f.Root
	if root == nil {
		root = NewCompound()
	}
	if err := writeNamed(out, f.Name, root); err != nil {
		return nil, err
	}
	raw := out.Bytes()
	if f.BedrockHeader {
		binary.LittleEndian.PutUint32(raw[0:4], uint32(f.BedrockVersion))
		binary.LittleEndian.PutUint32(raw[4:8], uint32(len(raw)-8))
	}

	c := opts.Compression
	if c == 0 {
		c = f.Compression
	}
	if c == 0 {
		c = CompressionNone
	}
	level := DefaultLevel
	if opts.Level != nil {
		level = *opts.Level
	}
	data, err := Compress(raw, c, level)
	if err != nil {
		return nil, err
	}
	f.Compression = c
	return data, nil
}
