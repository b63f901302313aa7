package nbt

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// IndexEntry records where a root compound entry's payload starts.
type IndexEntry struct {
	Key    string
	TagID  TagID
	Offset int
}

// Index is the persisted form of a LazyFile's key scan. Size is the
// length of the decompressed payload it was built from.
type Index struct {
	Size    int
	Entries []IndexEntry
}

// MarshalMsg implements msgp.Marshaler.
func (z *Index) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, 2)
	o = msgp.AppendInt(o, z.Size)
	o = msgp.AppendArrayHeader(o, uint32(len(z.Entries)))
	for i := range z.Entries {
		o = msgp.AppendArrayHeader(o, 3)
		o = msgp.AppendString(o, z.Entries[i].Key)
		o = msgp.AppendUint8(o, uint8(z.Entries[i].TagID))
		o = msgp.AppendInt(o, z.Entries[i].Offset)
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler.
func (z *Index) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if sz != 2 {
		err = msgp.ArrayError{Wanted: 2, Got: sz}
		return
	}
	z.Size, bts, err = msgp.ReadIntBytes(bts)
	if err != nil {
		return
	}
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	z.Entries = make([]IndexEntry, sz)
	for i := range z.Entries {
		var fields uint32
		fields, bts, err = msgp.ReadArrayHeaderBytes(bts)
		if err != nil {
			return
		}
		if fields != 3 {
			err = msgp.ArrayError{Wanted: 3, Got: fields}
			return
		}
		z.Entries[i].Key, bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			return
		}
		var id uint8
		id, bts, err = msgp.ReadUint8Bytes(bts)
		if err != nil {
			return
		}
		z.Entries[i].TagID = TagID(id)
		z.Entries[i].Offset, bts, err = msgp.ReadIntBytes(bts)
		if err != nil {
			return
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound on the encoded size.
func (z *Index) Msgsize() (s int) {
	s = 1 + msgp.IntSize + msgp.ArrayHeaderSize
	for i := range z.Entries {
		s += 1 + msgp.StringPrefixSize + len(z.Entries[i].Key) + msgp.Uint8Size + msgp.IntSize
	}
	return
}

// MarshalIndex scans the file if needed and encodes the key index, so a
// later LazyFile over the same payload can skip the scan.
func (f *LazyFile) MarshalIndex() ([]byte, error) {
	if err := f.prepareIndex(); err != nil {
		return nil, err
	}
	idx := Index{Size: len(f.in.data), Entries: make([]IndexEntry, len(f.keys))}
	for i, key := range f.keys {
		e := f.entries[key]
		idx.Entries[i] = IndexEntry{Key: key, TagID: e.id, Offset: e.offset}
	}
	return idx.MarshalMsg(nil)
}

// LoadIndex installs an index produced by MarshalIndex, replacing any
// existing index and dropping cached values. Every entry is checked
// against the header bytes that precede its offset.
func (f *LazyFile) LoadIndex(b []byte) error {
	var idx Index
	if _, err := idx.UnmarshalMsg(b); err != nil {
		return fmt.Errorf("nbt: decoding index: %w", err)
	}
	data := f.in.data
	if idx.Size != len(data) {
		return fmt.Errorf("%w: index built for %d bytes, payload is %d", ErrInvalidData, idx.Size, len(data))
	}

	entries := make(map[string]*lazyEntry, len(idx.Entries))
	keys := make([]string, 0, len(idx.Entries))
	for _, ie := range idx.Entries {
		header := TagHeader{TagID: ie.TagID, Name: ie.Key}
		start := ie.Offset - header.Length()
		if !ie.TagID.Valid() || ie.TagID == TagEnd || start < f.rootPos || ie.Offset > len(data) {
			return fmt.Errorf("%w: index entry %q out of range", ErrInvalidData, ie.Key)
		}
		in := NewDataInput(data[start:ie.Offset], f.in.order)
		got, err := readTagHeader(in)
		if err != nil || got != header {
			return fmt.Errorf("%w: index entry %q does not match payload", ErrInvalidData, ie.Key)
		}
		if _, seen := entries[ie.Key]; !seen {
			keys = append(keys, ie.Key)
		}
		entries[ie.Key] = &lazyEntry{id: ie.TagID, offset: ie.Offset}
	}

	f.keys, f.entries = keys, entries
	return nil
}
