package nbt

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var helloWorld = []byte{
	10, 0, 0, // Compound, ""
	8, 0, 3, 'f', 'o', 'o', // String, "foo"
	0, 6, 'H', 'e', 'l', 'l', 'o', '!',
	0, // End
}

func TestEncodeNamed(t *testing.T) {
	root := NewCompound().Set("foo", String("Hello!"))

	data, err := EncodeNamed("", root, nil)
	require.NoError(t, err)
	assert.Equal(t, helloWorld, data)
}

func TestDecodeNamed(t *testing.T) {
	name, tag, err := DecodeNamed(helloWorld, nil)
	require.NoError(t, err)
	assert.Equal(t, "", name)
	assertTagEqual(t, NewCompound().Set("foo", String("Hello!")), tag)
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		data, err := EncodeNamed("level", sampleTree(), order)
		require.NoError(t, err)

		name, tag, err := DecodeNamed(data, order)
		require.NoError(t, err)
		assert.Equal(t, "level", name)
		assertTagEqual(t, sampleTree(), tag)

		root := tag.(*Compound)
		assert.Equal(t, sampleTree().Keys(), root.Keys(), "key order survives")
	}
}

func TestEncodeScalarRoot(t *testing.T) {
	data, err := EncodeNamed("n", Int(258), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0, 1, 'n', 0, 0, 1, 2}, data)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"empty", nil, ErrUnexpectedEOF},
		{"end at top level", []byte{0}, ErrInvalidData},
		{"unknown id", []byte{13, 0, 0}, ErrInvalidData},
		{"truncated", helloWorld[:len(helloWorld)-1], ErrUnexpectedEOF},
		{"trailing bytes", append(append([]byte{}, helloWorld...), 0), ErrInvalidData},
		{"negative array length", []byte{7, 0, 0, 0xff, 0xff, 0xff, 0xff}, ErrInvalidData},
		{"array longer than input", []byte{11, 0, 0, 0, 0, 0, 2, 0, 0, 0, 1}, ErrUnexpectedEOF},
		{"list of End with items", []byte{9, 0, 0, 0, 0, 0, 0, 1, 0}, ErrInvalidData},
		{"list of unknown type", []byte{9, 0, 0, 20, 0, 0, 0, 0}, ErrInvalidData},
		{"unknown id inside compound", []byte{10, 0, 0, 99, 0, 0}, ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeNamed(tt.data, nil)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	nested := func(depth int) []byte {
		var data []byte
		data = append(data, byte(TagList), 0, 0)
		for i := 0; i < depth; i++ {
			data = append(data, byte(TagList), 0, 0, 0, 1)
		}
		data = append(data, byte(TagEnd), 0, 0, 0, 0)
		return data
	}

	_, _, err := DecodeNamed(nested(MaxDepth-1), nil)
	assert.NoError(t, err)

	_, _, err = DecodeNamed(nested(MaxDepth+10), nil)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestEncodeEmptyList(t *testing.T) {
	data, err := EncodeNamed("", NewCompound().Set("l", MustList(TagEnd)), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 0, 0, 9, 0, 1, 'l', 0, 0, 0, 0, 0, 0}, data)
}
