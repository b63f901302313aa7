package nbt

import (
	"fmt"
)

// TagHeader is the id and name that precede a named tag on the wire.
type TagHeader struct {
	TagID TagID
	Name  string
}

// Length is the encoded size of the header.
func (t *TagHeader) Length() int {
	if t.TagID == TagEnd {
		return 1
	}
	return 3 + len(t.Name)
}

type entryState uint8

const (
	entryIndexed entryState = iota
	entryDecoded
)

type lazyEntry struct {
	state  entryState
	id     TagID
	offset int // start of the payload
	tag    Tag
}

// LazyFile answers questions about the root compound of a tag file
// without decoding all of it. The first call that needs a key scans the
// root compound once, skipping every payload, to record where each
// entry starts. Values are decoded on demand and cached.
//
// A LazyFile is not safe for concurrent use.
type LazyFile struct {
	Name        string
	Compression Compression

	in      *DataInput
	rootPos int // first entry of the root compound

	keys    []string
	entries map[string]*lazyEntry
}

// OpenLazy decompresses data and reads the root header. No entries are
// scanned until they are asked for.
func OpenLazy(data []byte, opts ReadOptions) (*LazyFile, error) {
	raw, c, err := unwrap(data, opts)
	if err != nil {
		return nil, err
	}
	if opts.BedrockHeader {
		if _, raw, err = stripBedrockHeader(raw); err != nil {
			return nil, err
		}
	}

	in := NewDataInput(raw, opts.order())
	header, err := readTagHeader(in)
	if err != nil {
		return nil, err
	}
	if header.TagID != TagCompound {
		return nil, fmt.Errorf("%w: root tag is %v, want Compound", ErrInvalidData, header.TagID)
	}

	return &LazyFile{
		Name:        header.Name,
		Compression: c,
		in:          in,
		rootPos:     in.Offset(),
	}, nil
}

func readTagHeader(in *DataInput) (TagHeader, error) {
	id, err := in.ReadUint8()
	if err != nil {
		return TagHeader{}, err
	}
	header := TagHeader{TagID: TagID(id)}
	if header.TagID == TagEnd {
		return header, nil
	}
	if !header.TagID.Valid() {
		return header, fmt.Errorf("%w: unknown tag id %d at offset %d", ErrInvalidData, id, in.Offset()-1)
	}
	header.Name, err = in.ReadString()
	return header, err
}

// skipTag advances past a payload of the given type without building
// it, assuming the header has already been read.
func skipTag(in *DataInput, id TagID, depth int) error {
	if (id == TagList || id == TagCompound) && depth >= MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrInvalidData, MaxDepth)
	}

	switch id {
	case TagEnd:
		return nil
	case TagByte:
		return in.Skip(1)
	case TagShort:
		return in.Skip(2)
	case TagInt, TagFloat:
		return in.Skip(4)
	case TagLong, TagDouble:
		return in.Skip(8)
	case TagString:
		n, err := in.ReadUint16()
		if err != nil {
			return err
		}
		return in.Skip(int(n))
	case TagByteArray:
		return skipArray(in, 1)
	case TagIntArray:
		return skipArray(in, 4)
	case TagLongArray:
		return skipArray(in, 8)
	case TagList:
		raw, err := in.ReadUint8()
		if err != nil {
			return err
		}
		elem := TagID(raw)
		if !elem.Valid() {
			return fmt.Errorf("%w: unknown list element type %d", ErrInvalidData, raw)
		}
		n, err := readCount(in, minPayloadSize(elem))
		if err != nil {
			return err
		}
		if elem == TagEnd && n > 0 {
			return fmt.Errorf("%w: list of %d elements has no element type", ErrInvalidData, n)
		}
		if size := fixedPayloadSize(elem); size > 0 {
			return in.Skip(n * size)
		}
		for i := 0; i < n; i++ {
			if err := skipTag(in, elem, depth+1); err != nil {
				return err
			}
		}
		return nil
	case TagCompound:
		for {
			header, err := readTagHeader(in)
			if err != nil {
				return err
			}
			if header.TagID == TagEnd {
				return nil
			}
			if err := skipTag(in, header.TagID, depth+1); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w: unknown tag id %d", ErrInvalidData, byte(id))
}

func skipArray(in *DataInput, elemSize int) error {
	n, err := readCount(in, elemSize)
	if err != nil {
		return err
	}
	return in.Skip(n * elemSize)
}

// fixedPayloadSize returns the payload size of scalar types, or 0 for
// types whose size depends on their content.
func fixedPayloadSize(id TagID) int {
	switch id {
	case TagByte:
		return 1
	case TagShort:
		return 2
	case TagInt, TagFloat:
		return 4
	case TagLong, TagDouble:
		return 8
	}
	return 0
}

func (f *LazyFile) prepareIndex() error {
	if f.entries != nil {
		return nil
	}

	if err := f.in.SeekTo(f.rootPos); err != nil {
		return err
	}
	entries := make(map[string]*lazyEntry)
	var keys []string
	for {
		header, err := readTagHeader(f.in)
		if err != nil {
			return fmt.Errorf("nbt: error preparing index: %w", err)
		}
		if header.TagID == TagEnd {
			break
		}
		if _, seen := entries[header.Name]; !seen {
			keys = append(keys, header.Name)
		}
		entries[header.Name] = &lazyEntry{id: header.TagID, offset: f.in.Offset()}
		if err := skipTag(f.in, header.TagID, 1); err != nil {
			return fmt.Errorf("nbt: error preparing index at %q: %w", header.Name, err)
		}
	}
	if n := f.in.Remaining(); n != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidData, n)
	}

	f.keys, f.entries = keys, entries
	return nil
}

// Keys returns the root compound's keys in stored order.
func (f *LazyFile) Keys() ([]string, error) {
	if err := f.prepareIndex(); err != nil {
		return nil, err
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out, nil
}

// Has reports whether the root compound has key.
func (f *LazyFile) Has(key string) (bool, error) {
	if err := f.prepareIndex(); err != nil {
		return false, err
	}
	_, ok := f.entries[key]
	return ok, nil
}

// TypeOf returns the type id of key without decoding it.
func (f *LazyFile) TypeOf(key string) (TagID, bool, error) {
	if err := f.prepareIndex(); err != nil {
		return 0, false, err
	}
	e, ok := f.entries[key]
	if !ok {
		return 0, false, nil
	}
	return e.id, true, nil
}

// Get decodes key, or returns the value decoded by an earlier call.
// Unknown keys return ok == false and no error.
func (f *LazyFile) Get(key string) (t Tag, ok bool, err error) {
	if err := f.prepareIndex(); err != nil {
		return nil, false, err
	}
	e, ok := f.entries[key]
	if !ok {
		return nil, false, nil
	}
	if err := f.decode(key, e); err != nil {
		return nil, false, err
	}
	return e.tag, true, nil
}

func (f *LazyFile) decode(key string, e *lazyEntry) error {
	if e.state == entryDecoded {
		return nil
	}
	if err := f.in.SeekTo(e.offset); err != nil {
		return err
	}
	t, err := readPayload(f.in, e.id, 1)
	if err != nil {
		return fmt.Errorf("reading %q: %w", key, err)
	}
	e.tag, e.state = t, entryDecoded
	return nil
}

// GetMany decodes each of keys that exists. Missing keys are left out
// of the result.
func (f *LazyFile) GetMany(keys ...string) (map[string]Tag, error) {
	if err := f.prepareIndex(); err != nil {
		return nil, err
	}
	out := make(map[string]Tag, len(keys))
	for _, key := range keys {
		e, ok := f.entries[key]
		if !ok {
			continue
		}
		if err := f.decode(key, e); err != nil {
			return nil, err
		}
		out[key] = e.tag
	}
	return out, nil
}

// ToCompound decodes every remaining entry and returns the full root.
// Values already in the cache are reused.
func (f *LazyFile) ToCompound() (*Compound, error) {
	if err := f.prepareIndex(); err != nil {
		return nil, err
	}
	c := NewCompound()
	for _, key := range f.keys {
		e := f.entries[key]
		if err := f.decode(key, e); err != nil {
			return nil, err
		}
		c.Set(key, e.tag)
	}
	return c, nil
}

// ClearCache forgets decoded values. The key index is kept.
func (f *LazyFile) ClearCache() {
	for _, e := range f.entries {
		e.state, e.tag = entryIndexed, nil
	}
}

// Decoded reports how many entries currently hold a decoded value.
func (f *LazyFile) Decoded() int {
	n := 0
	for _, e := range f.entries {
		if e.state == entryDecoded {
			n++
		}
	}
	return n
}
