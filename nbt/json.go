package nbt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// orderedObject is a JSON object that keeps the key order of the
// compound it came from.
type orderedObject struct {
	keys   []string
	values map[string]interface{}
}

func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SimplifiedJSON projects t onto plain JSON values: numbers, strings,
// arrays and objects. Type information is lost; a Long becomes its
// [high, low] int32 pair, End becomes null.
func SimplifiedJSON(t Tag) interface{} {
	switch v := t.(type) {
	case End:
		return nil
	case Byte:
		return int8(v)
	case Short:
		return int16(v)
	case Int:
		return int32(v)
	case Long:
		hi, lo := v.Pair()
		return [2]int32{hi, lo}
	case Float:
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return nonFinite(f)
		}
		return float32(v)
	case Double:
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return nonFinite(f)
		}
		return float64(v)
	case String:
		return string(v)
	case ByteArray:
		return []int8(v)
	case IntArray:
		return []int32(v)
	case LongArray:
		return []int64(v)
	case *List:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = SimplifiedJSON(item)
		}
		return out
	case *Compound:
		obj := &orderedObject{keys: v.Keys(), values: make(map[string]interface{}, v.Len())}
		for key, child := range v.values {
			obj.values[key] = SimplifiedJSON(child)
		}
		return obj
	}
	return nil
}

// nonFinite names the float values JSON has no number for.
func nonFinite(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f > 0:
		return "Infinity"
	}
	return "-Infinity"
}

// parseJSONFloat reads a JSON number or one of the names from nonFinite.
func parseJSONFloat(raw json.RawMessage, id TagID) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return 0, fmt.Errorf("%w: %v value: %v", ErrInvalidData, id, err)
	}
	switch name {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	return 0, fmt.Errorf("%w: %v value: %q is not a number", ErrInvalidData, id, name)
}

// MarshalSimplifiedJSON encodes SimplifiedJSON(t).
func MarshalSimplifiedJSON(t Tag) ([]byte, error) {
	return json.Marshal(SimplifiedJSON(t))
}

// TypedJSON projects t onto JSON that keeps every type id:
// {"type": id, "value": ...}. Lists become {"type": elem, "items": [...]}
// with bare item values; compound values are objects of typed children.
// ParseTypedJSON reverses it.
func TypedJSON(t Tag) interface{} {
	return &orderedObject{
		keys: []string{"type", "value"},
		values: map[string]interface{}{
			"type":  uint8(t.ID()),
			"value": typedValue(t),
		},
	}
}

func typedValue(t Tag) interface{} {
	switch v := t.(type) {
	case *List:
		items := make([]interface{}, len(v.items))
		for i, item := range v.items {
			items[i] = typedValue(item)
		}
		return &orderedObject{
			keys:   []string{"type", "items"},
			values: map[string]interface{}{"type": uint8(v.elem), "items": items},
		}
	case *Compound:
		obj := &orderedObject{keys: v.Keys(), values: make(map[string]interface{}, v.Len())}
		for key, child := range v.values {
			obj.values[key] = TypedJSON(child)
		}
		return obj
	}
	return SimplifiedJSON(t)
}

// MarshalTypedJSON encodes TypedJSON(t).
func MarshalTypedJSON(t Tag) ([]byte, error) {
	return json.Marshal(TypedJSON(t))
}

// ParseTypedJSON decodes the output of MarshalTypedJSON.
func ParseTypedJSON(data []byte) (Tag, error) {
	var wrapper struct {
		Type  *uint8          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if wrapper.Type == nil {
		return nil, fmt.Errorf("%w: typed JSON without \"type\"", ErrInvalidData)
	}
	return parseTypedValue(TagID(*wrapper.Type), wrapper.Value)
}

func parseTypedValue(id TagID, raw json.RawMessage) (Tag, error) {
	switch id {
	case TagEnd:
		return End{}, nil
	case TagByte, TagShort, TagInt:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("%w: %v value: %v", ErrInvalidData, id, err)
		}
		bits := map[TagID]int{TagByte: 8, TagShort: 16, TagInt: 32}[id]
		v, err := strconv.ParseInt(n.String(), 10, bits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v value: %v", ErrInvalidData, id, err)
		}
		switch id {
		case TagByte:
			return Byte(v), nil
		case TagShort:
			return Short(v), nil
		}
		return Int(v), nil
	case TagLong:
		var pair [2]int32
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, fmt.Errorf("%w: Long value: %v", ErrInvalidData, err)
		}
		return LongFromPair(pair[0], pair[1]), nil
	case TagFloat:
		v, err := parseJSONFloat(raw, id)
		if err != nil {
			return nil, err
		}
		return Float(v), nil
	case TagDouble:
		v, err := parseJSONFloat(raw, id)
		if err != nil {
			return nil, err
		}
		return Double(v), nil
	case TagString:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: String value: %v", ErrInvalidData, err)
		}
		return String(v), nil
	case TagByteArray:
		var v []int8
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: ByteArray value: %v", ErrInvalidData, err)
		}
		return ByteArray(v), nil
	case TagIntArray:
		var v []int32
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: IntArray value: %v", ErrInvalidData, err)
		}
		return IntArray(v), nil
	case TagLongArray:
		var v []int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: LongArray value: %v", ErrInvalidData, err)
		}
		return LongArray(v), nil
	case TagList:
		var body struct {
			Type  uint8             `json:"type"`
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("%w: List value: %v", ErrInvalidData, err)
		}
		l, err := NewList(TagID(body.Type))
		if err != nil {
			return nil, err
		}
		for i, item := range body.Items {
			t, err := parseTypedValue(TagID(body.Type), item)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			if err := l.Append(t); err != nil {
				return nil, err
			}
		}
		return l, nil
	case TagCompound:
		return parseTypedCompound(raw)
	}
	return nil, fmt.Errorf("%w: unknown tag id %d", ErrInvalidData, byte(id))
}

// parseTypedCompound walks the object token by token so that key order
// survives.
func parseTypedCompound(raw json.RawMessage) (*Compound, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: Compound value: %v", ErrInvalidData, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: Compound value is not an object", ErrInvalidData)
	}

	c := NewCompound()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: Compound value: %v", ErrInvalidData, err)
		}
		key, _ := tok.(string)
		var child json.RawMessage
		if err := dec.Decode(&child); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidData, key, err)
		}
		t, err := ParseTypedJSON(child)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", key, err)
		}
		c.Set(key, t)
	}
	return c, nil
}
