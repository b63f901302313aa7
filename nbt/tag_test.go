package nbt

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertTagEqual(t *testing.T, want, got Tag) {
	t.Helper()
	if !Equal(want, got) {
		t.Errorf("tags differ\nwant: %v\n got: %v", want, got)
	}
}

// sampleTree has one of every tag type, nested.
func sampleTree() *Compound {
	inner := NewCompound().
		Set("name", String("Steve")).
		Set("health", Float(19.5))

	return NewCompound().
		Set("byte", Byte(-3)).
		Set("short", Short(1234)).
		Set("int", Int(-100000)).
		Set("long", Long(math.MaxInt64)).
		Set("float", Float(0.25)).
		Set("double", Double(-1.5e300)).
		Set("bytes", ByteArray{1, -2, 3}).
		Set("string", String("héllo \"world\"\n")).
		Set("list", MustList(TagInt, Int(1), Int(2), Int(3))).
		Set("empty", MustList(TagEnd)).
		Set("nested", MustList(TagCompound, inner, NewCompound())).
		Set("lists", MustList(TagList, MustList(TagString, String("a")), MustList(TagByte, Byte(1)))).
		Set("compound", inner).
		Set("ints", IntArray{math.MinInt32, 0, math.MaxInt32}).
		Set("longs", LongArray{math.MinInt64, 42})
}

func TestTagIDString(t *testing.T) {
	assert.Equal(t, "End", TagEnd.String())
	assert.Equal(t, "Int", TagInt.String())
	assert.Equal(t, "LongArray", TagLongArray.String())
	assert.Equal(t, "TagID(13)", TagID(13).String())
	assert.False(t, TagID(13).Valid())
}

func TestVariantIDs(t *testing.T) {
	tags := []Tag{End{}, Byte(0), Short(0), Int(0), Long(0), Float(0), Double(0),
		ByteArray{}, String(""), &List{}, NewCompound(), IntArray{}, LongArray{}}
	for i, tag := range tags {
		assert.Equal(t, TagID(i), tag.ID())

		zero, err := newTag(TagID(i))
		require.NoError(t, err)
		assert.Equal(t, tag.ID(), zero.ID())
	}
	_, err := newTag(13)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestBool(t *testing.T) {
	assert.Equal(t, Byte(1), Bool(true))
	assert.Equal(t, Byte(0), Bool(false))
}

func TestLong(t *testing.T) {
	v := Long(-2)
	hi, lo := v.Pair()
	assert.Equal(t, int32(-1), hi)
	assert.Equal(t, int32(-2), lo)
	assert.Equal(t, v, LongFromPair(hi, lo))

	big1 := new(big.Int).Lsh(big.NewInt(1), 40)
	l, err := LongFromBig(big1)
	require.NoError(t, err)
	assert.Equal(t, Long(1<<40), l)
	assert.Equal(t, 0, l.Big().Cmp(big1))

	_, err = LongFromBig(new(big.Int).Lsh(big.NewInt(1), 63))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(sampleTree(), sampleTree()))
	assert.False(t, Equal(Int(1), Long(1)), "different variants never match")
	assert.False(t, Equal(Byte(1), Byte(2)))
	assert.True(t, Equal(Float(float32(math.NaN())), Float(float32(math.NaN()))))
	assert.False(t, Equal(IntArray{1}, IntArray{1, 2}))
	assert.False(t, Equal(MustList(TagEnd), MustList(TagInt)))

	a := NewCompound().Set("a", Int(1)).Set("b", Int(2))
	b := NewCompound().Set("b", Int(2)).Set("a", Int(1))
	assert.True(t, Equal(a, b), "key order does not affect equality")

	b.Set("a", Int(3))
	assert.False(t, Equal(a, b))
	assert.False(t, Equal(a, nil))
}

func TestListAppend(t *testing.T) {
	l := MustList(TagEnd)
	require.NoError(t, l.Append(Int(4)))
	assert.Equal(t, TagInt, l.ElemType())

	err := l.Append(Byte(2))
	assert.ErrorIs(t, err, ErrInvalidTagType)
	assert.Contains(t, err.Error(), "can't insert Byte into list of Int")
	assert.Equal(t, 1, l.Len())

	assert.ErrorIs(t, l.Append(End{}), ErrInvalidTagType)

	_, err = NewList(TagString, String("a"), Int(1))
	assert.ErrorIs(t, err, ErrInvalidTagType)

	items := l.Items()
	items[0] = Int(99)
	assert.Equal(t, Int(4), l.At(0), "Items returns a copy")
}

func TestNilContainersRejected(t *testing.T) {
	var (
		nilList     *List
		nilCompound *Compound
	)

	assert.ErrorIs(t, MustList(TagEnd).Append(nilList), ErrInvalidTagType)
	assert.ErrorIs(t, MustList(TagCompound).Append(nilCompound), ErrInvalidTagType)
	_, err := NewList(TagList, nilList)
	assert.ErrorIs(t, err, ErrInvalidTagType)

	for _, tag := range []Tag{nil, nilList, nilCompound} {
		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r, "Set(%#v) must panic", tag)
				err, ok := r.(error)
				require.True(t, ok)
				assert.ErrorIs(t, err, ErrInvalidTagType)
			}()
			NewCompound().Set("k", tag)
		}()
	}

	assert.True(t, Equal(nilList, nil))
	assert.False(t, Equal(nilList, MustList(TagEnd)))
}

func TestCompoundOrder(t *testing.T) {
	c := NewCompound()
	c.Set("z", Int(1)).Set("a", Int(2)).Set("m", Int(3))
	assert.Equal(t, []string{"z", "a", "m"}, c.Keys())

	c.Set("z", Int(10))
	assert.Equal(t, []string{"z", "a", "m"}, c.Keys(), "replacing keeps position")

	c.Delete("a")
	c.Delete("missing")
	assert.Equal(t, []string{"z", "m"}, c.Keys())
	assert.False(t, c.Has("a"))

	var seen []string
	c.Range(func(key string, _ Tag) bool {
		seen = append(seen, key)
		return false
	})
	assert.Equal(t, []string{"z"}, seen)
}

func TestCompoundAccessors(t *testing.T) {
	c := sampleTree()

	b, err := c.GetByte("byte")
	require.NoError(t, err)
	assert.Equal(t, int8(-3), b)

	i, err := c.GetInt("int")
	require.NoError(t, err)
	assert.Equal(t, int32(-100000), i)

	s, err := c.GetString("string")
	require.NoError(t, err)
	assert.Equal(t, "héllo \"world\"\n", s)

	inner, err := c.GetCompound("compound")
	require.NoError(t, err)
	name, err := inner.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "Steve", name)

	l, err := c.GetList("list")
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())

	longs, err := c.GetLongArray("longs")
	require.NoError(t, err)
	assert.Equal(t, []int64{math.MinInt64, 42}, longs)

	_, err = c.GetLong("int")
	assert.ErrorIs(t, err, ErrInvalidTagType)
	_, err = c.GetCompound("list")
	assert.ErrorIs(t, err, ErrInvalidTagType)
	_, err = c.GetInt("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	ok, err := NewCompound().Set("flag", Bool(true)).GetBool("flag")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFreeAccessors(t *testing.T) {
	n, err := AsInt64(Short(-7))
	require.NoError(t, err)
	assert.Equal(t, int64(-7), n)

	f, err := AsFloat64(Int(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	_, err = AsInt64(Double(1))
	assert.ErrorIs(t, err, ErrInvalidTagType)
	_, err = AsFloat64(String("1"))
	assert.ErrorIs(t, err, ErrInvalidTagType)
	_, err = AsString(Int(1))
	assert.ErrorIs(t, err, ErrInvalidTagType)

	s, err := AsString(String("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", s)
}
