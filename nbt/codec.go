package nbt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataInput reads fixed width primitives from a byte slice, advancing a
// cursor. It never copies the underlying data except for strings.
type DataInput struct {
	data   []byte
	cursor int
	order  binary.ByteOrder
}

// NewDataInput returns a reader positioned at the start of data. A nil
// order means big-endian, the Java edition format.
func NewDataInput(data []byte, order binary.ByteOrder) *DataInput {
	if order == nil {
		order = binary.BigEndian
	}
	return &DataInput{data: data, order: order}
}

// Offset returns the cursor position.
func (in *DataInput) Offset() int { return in.cursor }

// SeekTo moves the cursor to an absolute position.
func (in *DataInput) SeekTo(pos int) error {
	if pos < 0 || pos > len(in.data) {
		return fmt.Errorf("%w: seek to %d of %d", ErrUnexpectedEOF, pos, len(in.data))
	}
	in.cursor = pos
	return nil
}

// Remaining returns the number of unread bytes.
func (in *DataInput) Remaining() int { return len(in.data) - in.cursor }

func (in *DataInput) take(n int) ([]byte, error) {
	if n < 0 || n > len(in.data)-in.cursor {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrUnexpectedEOF, n, in.cursor, len(in.data)-in.cursor)
	}
	b := in.data[in.cursor : in.cursor+n]
	in.cursor += n
	return b, nil
}

// Skip advances the cursor by n bytes.
func (in *DataInput) Skip(n int) error {
	_, err := in.take(n)
	return err
}

func (in *DataInput) ReadUint8() (uint8, error) {
	b, err := in.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (in *DataInput) ReadInt8() (int8, error) {
	v, err := in.ReadUint8()
	return int8(v), err
}

func (in *DataInput) ReadUint16() (uint16, error) {
	b, err := in.take(2)
	if err != nil {
		return 0, err
	}
	return in.order.Uint16(b), nil
}

func (in *DataInput) ReadInt16() (int16, error) {
	v, err := in.ReadUint16()
	return int16(v), err
}

func (in *DataInput) ReadInt32() (int32, error) {
	b, err := in.take(4)
	if err != nil {
		return 0, err
	}
	return int32(in.order.Uint32(b)), nil
}

func (in *DataInput) ReadInt64() (int64, error) {
	b, err := in.take(8)
	if err != nil {
		return 0, err
	}
	return int64(in.order.Uint64(b)), nil
}

func (in *DataInput) ReadFloat32() (float32, error) {
	b, err := in.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(in.order.Uint32(b)), nil
}

func (in *DataInput) ReadFloat64() (float64, error) {
	b, err := in.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(in.order.Uint64(b)), nil
}

// ReadBytes returns the next n bytes. The result aliases the input.
func (in *DataInput) ReadBytes(n int) ([]byte, error) {
	return in.take(n)
}

// ReadString reads a 2 byte length prefix followed by that many bytes of
// UTF-8.
func (in *DataInput) ReadString() (string, error) {
	n, err := in.ReadUint16()
	if err != nil {
		return "", err
	}
	b, err := in.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MaxStringLength is the largest string, in bytes, that fits the 2 byte
// length prefix.
const MaxStringLength = math.MaxUint16

// DataOutput appends fixed width primitives to a growable buffer.
type DataOutput struct {
	buf   []byte
	order binary.ByteOrder
}

// NewDataOutput returns an empty writer. sizeHint preallocates capacity;
// a nil order means big-endian.
func NewDataOutput(order binary.ByteOrder, sizeHint int) *DataOutput {
	if order == nil {
		order = binary.BigEndian
	}
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &DataOutput{buf: make([]byte, 0, sizeHint), order: order}
}

// grow makes room for n more bytes and returns the slice to fill. The
// capacity grows by at least half each time so appends stay amortized
// linear.
func (out *DataOutput) grow(n int) []byte {
	l := len(out.buf)
	if l+n > cap(out.buf) {
		newCap := cap(out.buf) + cap(out.buf)/2
		if newCap < l+n {
			newCap = l + n
		}
		buf := make([]byte, l, newCap)
		copy(buf, out.buf)
		out.buf = buf
	}
	out.buf = out.buf[:l+n]
	return out.buf[l:]
}

// Bytes returns exactly the bytes written so far. The slice aliases the
// writer's buffer until the next write.
func (out *DataOutput) Bytes() []byte { return out.buf }

func (out *DataOutput) Len() int { return len(out.buf) }

// Reset discards the contents but keeps the allocation.
func (out *DataOutput) Reset() { out.buf = out.buf[:0] }

func (out *DataOutput) WriteUint8(v uint8) { out.grow(1)[0] = v }

func (out *DataOutput) WriteInt8(v int8) { out.WriteUint8(uint8(v)) }

func (out *DataOutput) WriteUint16(v uint16) { out.order.PutUint16(out.grow(2), v) }

func (out *DataOutput) WriteInt16(v int16) { out.WriteUint16(uint16(v)) }

func (out *DataOutput) WriteInt32(v int32) { out.order.PutUint32(out.grow(4), uint32(v)) }

func (out *DataOutput) WriteInt64(v int64) { out.order.PutUint64(out.grow(8), uint64(v)) }

func (out *DataOutput) WriteFloat32(v float32) {
	out.order.PutUint32(out.grow(4), math.Float32bits(v))
}

func (out *DataOutput) WriteFloat64(v float64) {
	out.order.PutUint64(out.grow(8), math.Float64bits(v))
}

func (out *DataOutput) WriteBytes(b []byte) { copy(out.grow(len(b)), b) }

// WriteString writes a 2 byte length prefix and the UTF-8 bytes of s.
func (out *DataOutput) WriteString(s string) error {
	if len(s) > MaxStringLength {
		return fmt.Errorf("%w: string of %d bytes exceeds %d", ErrInvalidData, len(s), MaxStringLength)
	}
	out.WriteUint16(uint16(len(s)))
	copy(out.grow(len(s)), s)
	return nil
}
