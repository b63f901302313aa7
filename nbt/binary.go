package nbt

import (
	"encoding/binary"
	"fmt"
)

// MaxDepth bounds the nesting of lists and compounds accepted by the
// decoders.
const MaxDepth = 512

// EncodeNamed encodes t as a top level value: type id, name, payload.
func EncodeNamed(name string, t Tag, order binary.ByteOrder) ([]byte, error) {
	out := NewDataOutput(order, 256)
	if err := writeNamed(out, name, t); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeNamed decodes one top level value and requires that data holds
// nothing after it.
func DecodeNamed(data []byte, order binary.ByteOrder) (string, Tag, error) {
	in := NewDataInput(data, order)
	name, t, err := readNamed(in)
	if err != nil {
		return "", nil, err
	}
	if in.Remaining() != 0 {
		return "", nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidData, in.Remaining())
	}
	return name, t, nil
}

func writeNamed(out *DataOutput, name string, t Tag) error {
	out.WriteUint8(uint8(t.ID()))
	if err := out.WriteString(name); err != nil {
		return err
	}
	return writePayload(out, t)
}

func readNamed(in *DataInput) (string, Tag, error) {
	id, err := in.ReadUint8()
	if err != nil {
		return "", nil, err
	}
	if TagID(id) == TagEnd {
		return "", nil, fmt.Errorf("%w: top level tag is End", ErrInvalidData)
	}
	name, err := in.ReadString()
	if err != nil {
		return "", nil, err
	}
	t, err := readPayload(in, TagID(id), 0)
	if err != nil {
		return "", nil, fmt.Errorf("reading %q: %w", name, err)
	}
	return name, t, nil
}

func writePayload(out *DataOutput, t Tag) error {
	switch v := t.(type) {
	case End:
	case Byte:
		out.WriteInt8(int8(v))
	case Short:
		out.WriteInt16(int16(v))
	case Int:
		out.WriteInt32(int32(v))
	case Long:
		out.WriteInt64(int64(v))
	case Float:
		out.WriteFloat32(float32(v))
	case Double:
		out.WriteFloat64(float64(v))
	case ByteArray:
		out.WriteInt32(int32(len(v)))
		for _, b := range v {
			out.WriteInt8(b)
		}
	case String:
		return out.WriteString(string(v))
	case *List:
		out.WriteUint8(uint8(v.elem))
		out.WriteInt32(int32(len(v.items)))
		for _, item := range v.items {
			if err := writePayload(out, item); err != nil {
				return err
			}
		}
	case *Compound:
		for _, key := range v.keys {
			if err := writeNamed(out, key, v.values[key]); err != nil {
				return fmt.Errorf("writing %q: %w", key, err)
			}
		}
		out.WriteUint8(uint8(TagEnd))
	case IntArray:
		out.WriteInt32(int32(len(v)))
		for _, n := range v {
			out.WriteInt32(n)
		}
	case LongArray:
		out.WriteInt32(int32(len(v)))
		for _, n := range v {
			out.WriteInt64(n)
		}
	default:
		return fmt.Errorf("%w: cannot encode %T", ErrInvalidTagType, t)
	}
	return nil
}

// readCount reads a 4 byte element count and checks that count elements
// of elemSize bytes could still fit in the input, so corrupt counts fail
// before anything is allocated.
func readCount(in *DataInput, elemSize int) (int, error) {
	n, err := in.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrInvalidData, n)
	}
	if int(n) > in.Remaining()/elemSize {
		return 0, fmt.Errorf("%w: %d elements of %d bytes at offset %d, %d bytes left",
			ErrUnexpectedEOF, n, elemSize, in.Offset(), in.Remaining())
	}
	return int(n), nil
}

// minPayloadSize is the smallest encoding of a payload of each type, used
// to bound list counts.
func minPayloadSize(id TagID) int {
	switch id {
	case TagByte, TagCompound:
		return 1
	case TagShort, TagString:
		return 2
	case TagInt, TagFloat, TagByteArray, TagIntArray, TagLongArray:
		return 4
	case TagLong, TagDouble:
		return 8
	case TagList:
		return 5
	}
	return 1
}

func readPayload(in *DataInput, id TagID, depth int) (Tag, error) {
	switch id {
	case TagByte:
		v, err := in.ReadInt8()
		return Byte(v), err
	case TagShort:
		v, err := in.ReadInt16()
		return Short(v), err
	case TagInt:
		v, err := in.ReadInt32()
		return Int(v), err
	case TagLong:
		v, err := in.ReadInt64()
		return Long(v), err
	case TagFloat:
		v, err := in.ReadFloat32()
		return Float(v), err
	case TagDouble:
		v, err := in.ReadFloat64()
		return Double(v), err
	case TagByteArray:
		n, err := readCount(in, 1)
		if err != nil {
			return nil, err
		}
		raw, _ := in.ReadBytes(n)
		v := make(ByteArray, n)
		for i, b := range raw {
			v[i] = int8(b)
		}
		return v, nil
	case TagString:
		v, err := in.ReadString()
		return String(v), err
	case TagList:
		return readList(in, depth)
	case TagCompound:
		return readCompound(in, depth)
	case TagIntArray:
		n, err := readCount(in, 4)
		if err != nil {
			return nil, err
		}
		v := make(IntArray, n)
		for i := range v {
			v[i], _ = in.ReadInt32()
		}
		return v, nil
	case TagLongArray:
		n, err := readCount(in, 8)
		if err != nil {
			return nil, err
		}
		v := make(LongArray, n)
		for i := range v {
			v[i], _ = in.ReadInt64()
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: unknown tag id %d at offset %d", ErrInvalidData, byte(id), in.Offset())
}

func readList(in *DataInput, depth int) (*List, error) {
	if depth >= MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidData, MaxDepth)
	}
	raw, err := in.ReadUint8()
	if err != nil {
		return nil, err
	}
	elem := TagID(raw)
	if !elem.Valid() {
		return nil, fmt.Errorf("%w: unknown list element type %d", ErrInvalidData, raw)
	}
	n, err := readCount(in, minPayloadSize(elem))
	if err != nil {
		return nil, err
	}
	if elem == TagEnd && n > 0 {
		return nil, fmt.Errorf("%w: list of %d elements has no element type", ErrInvalidData, n)
	}

	l := &List{elem: elem, items: make([]Tag, n)}
	for i := range l.items {
		if l.items[i], err = readPayload(in, elem, depth+1); err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
	}
	return l, nil
}

func readCompound(in *DataInput, depth int) (*Compound, error) {
	if depth >= MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidData, MaxDepth)
	}
	c := NewCompound()
	for {
		raw, err := in.ReadUint8()
		if err != nil {
			return nil, err
		}
		id := TagID(raw)
		if id == TagEnd {
			return c, nil
		}
		if !id.Valid() {
			return nil, fmt.Errorf("%w: unknown tag id %d at offset %d", ErrInvalidData, raw, in.Offset()-1)
		}
		key, err := in.ReadString()
		if err != nil {
			return nil, err
		}
		t, err := readPayload(in, id, depth+1)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", key, err)
		}
		c.Set(key, t)
	}
}
