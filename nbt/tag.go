package nbt

import (
	"fmt"
	"math"
	"math/big"
)

// TagID is the one byte type id that prefixes every tag on the wire.
type TagID byte

const (
	TagEnd = TagID(iota)
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

var tagNames = [...]string{
	TagEnd:       "End",
	TagByte:      "Byte",
	TagShort:     "Short",
	TagInt:       "Int",
	TagLong:      "Long",
	TagFloat:     "Float",
	TagDouble:    "Double",
	TagByteArray: "ByteArray",
	TagString:    "String",
	TagList:      "List",
	TagCompound:  "Compound",
	TagIntArray:  "IntArray",
	TagLongArray: "LongArray",
}

func (id TagID) String() string {
	if id.Valid() {
		return tagNames[id]
	}
	return fmt.Sprintf("TagID(%d)", byte(id))
}

// Valid reports whether id is one of the thirteen known tag types.
func (id TagID) Valid() bool {
	return id <= TagLongArray
}

// Tag is a node of an NBT tree. The set of implementations is closed:
// End, Byte, Short, Int, Long, Float, Double, ByteArray, String, *List,
// *Compound, IntArray and LongArray.
//
// String returns the canonical text notation, which Parse accepts.
type Tag interface {
	ID() TagID
	String() string

	isTag()
}

type (
	End       struct{}
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []int8
	String    string
	IntArray  []int32
	LongArray []int64
)

func (End) ID() TagID       { return TagEnd }
func (Byte) ID() TagID      { return TagByte }
func (Short) ID() TagID     { return TagShort }
func (Int) ID() TagID       { return TagInt }
func (Long) ID() TagID      { return TagLong }
func (Float) ID() TagID     { return TagFloat }
func (Double) ID() TagID    { return TagDouble }
func (ByteArray) ID() TagID { return TagByteArray }
func (String) ID() TagID    { return TagString }
func (*List) ID() TagID     { return TagList }
func (*Compound) ID() TagID { return TagCompound }
func (IntArray) ID() TagID  { return TagIntArray }
func (LongArray) ID() TagID { return TagLongArray }

func (End) isTag()       {}
func (Byte) isTag()      {}
func (Short) isTag()     {}
func (Int) isTag()       {}
func (Long) isTag()      {}
func (Float) isTag()     {}
func (Double) isTag()    {}
func (ByteArray) isTag() {}
func (String) isTag()    {}
func (*List) isTag()     {}
func (*Compound) isTag() {}
func (IntArray) isTag()  {}
func (LongArray) isTag() {}

// Bool returns Byte(1) for true and Byte(0) for false.
func Bool(b bool) Byte {
	if b {
		return 1
	}
	return 0
}

var (
	minLong = big.NewInt(math.MinInt64)
	maxLong = big.NewInt(math.MaxInt64)
)

// LongFromBig converts an arbitrary precision integer to a Long. Values
// outside the signed 64-bit range are rejected.
func LongFromBig(v *big.Int) (Long, error) {
	if v == nil || v.Cmp(minLong) < 0 || v.Cmp(maxLong) > 0 {
		return 0, fmt.Errorf("%w: %v does not fit in a Long", ErrInvalidData, v)
	}
	return Long(v.Int64()), nil
}

// Big returns the value as a big.Int.
func (l Long) Big() *big.Int {
	return big.NewInt(int64(l))
}

// Pair splits the value into its high and low 32-bit halves, the form
// used by the JSON projections.
func (l Long) Pair() (hi, lo int32) {
	return int32(l >> 32), int32(l)
}

// LongFromPair joins a high/low pair produced by Pair.
func LongFromPair(hi, lo int32) Long {
	return Long(int64(hi)<<32 | int64(uint32(lo)))
}

// newTag returns the zero value for a tag id. It is used by decoders that
// know the type before they know the payload.
func newTag(id TagID) (Tag, error) {
	switch id {
	case TagEnd:
		return End{}, nil
	case TagByte:
		return Byte(0), nil
	case TagShort:
		return Short(0), nil
	case TagInt:
		return Int(0), nil
	case TagLong:
		return Long(0), nil
	case TagFloat:
		return Float(0), nil
	case TagDouble:
		return Double(0), nil
	case TagByteArray:
		return ByteArray{}, nil
	case TagString:
		return String(""), nil
	case TagList:
		return &List{}, nil
	case TagCompound:
		return NewCompound(), nil
	case TagIntArray:
		return IntArray{}, nil
	case TagLongArray:
		return LongArray{}, nil
	}
	return nil, fmt.Errorf("%w: unknown tag id %d", ErrInvalidData, byte(id))
}

// AsInt64 returns the value of any integer scalar (Byte, Short, Int,
// Long).
func AsInt64(t Tag) (int64, error) {
	switch v := t.(type) {
	case Byte:
		return int64(v), nil
	case Short:
		return int64(v), nil
	case Int:
		return int64(v), nil
	case Long:
		return int64(v), nil
	}
	return 0, invalidType(t, "integer")
}

// AsFloat64 returns the value of any numeric scalar.
func AsFloat64(t Tag) (float64, error) {
	switch v := t.(type) {
	case Float:
		return float64(v), nil
	case Double:
		return float64(v), nil
	}
	i, err := AsInt64(t)
	if err != nil {
		return 0, invalidType(t, "number")
	}
	return float64(i), nil
}

// AsString returns the text of a String tag.
func AsString(t Tag) (string, error) {
	if s, ok := t.(String); ok {
		return string(s), nil
	}
	return "", invalidType(t, "String")
}

func invalidType(t Tag, want string) error {
	if t == nil {
		return fmt.Errorf("%w: got nil, want %s", ErrInvalidTagType, want)
	}
	return fmt.Errorf("%w: got %v, want %s", ErrInvalidTagType, t.ID(), want)
}

// Equal reports whether a and b are the same variant holding structurally
// equal values. Floats are compared by their bit patterns. Compound key
// order does not affect equality.
func Equal(a, b Tag) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	if a.ID() != b.ID() {
		return false
	}

	switch av := a.(type) {
	case End:
		return true
	case Byte, Short, Int, Long, String:
		return a == b
	case Float:
		return math.Float32bits(float32(av)) == math.Float32bits(float32(b.(Float)))
	case Double:
		return math.Float64bits(float64(av)) == math.Float64bits(float64(b.(Double)))
	case ByteArray:
		return equalSlices(av, b.(ByteArray))
	case IntArray:
		return equalSlices(av, b.(IntArray))
	case LongArray:
		return equalSlices(av, b.(LongArray))
	case *List:
		bv := b.(*List)
		if av.elem != bv.elem || len(av.items) != len(bv.items) {
			return false
		}
		for i := range av.items {
			if !Equal(av.items[i], bv.items[i]) {
				return false
			}
		}
		return true
	case *Compound:
		bv := b.(*Compound)
		if len(av.keys) != len(bv.keys) {
			return false
		}
		for key, value := range av.values {
			other, ok := bv.values[key]
			if !ok || !Equal(value, other) {
				return false
			}
		}
		return true
	}
	return false
}

func equalSlices[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
