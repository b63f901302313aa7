package nbt

import "fmt"

// List is an ordered sequence of tags that all share one type id.
type List struct {
	elem  TagID
	items []Tag
}

// NewList builds a list of the given element type. Passing TagEnd lets
// the first item decide the type, so NewList(TagEnd) is the empty list.
func NewList(elem TagID, items ...Tag) (*List, error) {
	if !elem.Valid() {
		return nil, fmt.Errorf("%w: list element type %d", ErrInvalidData, byte(elem))
	}
	l := &List{elem: elem, items: make([]Tag, 0, len(items))}
	for _, item := range items {
		if err := l.Append(item); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// MustList is like NewList but panics on a type mismatch. It is meant
// for literals in code and tests.
func MustList(elem TagID, items ...Tag) *List {
	l, err := NewList(elem, items...)
	if err != nil {
		panic(err)
	}
	return l
}

// ElemType returns the id shared by every element.
func (l *List) ElemType() TagID { return l.elem }

func (l *List) Len() int { return len(l.items) }

// At returns the i'th element; it panics when i is out of range.
func (l *List) At(i int) Tag { return l.items[i] }

// Items returns a copy of the elements.
func (l *List) Items() []Tag {
	out := make([]Tag, len(l.items))
	copy(out, l.items)
	return out
}

// Append adds t to the end of the list. An empty list of type End adopts
// the type of its first element; otherwise the ids must match.
func (l *List) Append(t Tag) error {
	if isNil(t) {
		return fmt.Errorf("%w: nil list element", ErrInvalidTagType)
	}
	id := t.ID()
	if id == TagEnd {
		return fmt.Errorf("%w: End cannot be a list element", ErrInvalidTagType)
	}
	if l.elem == TagEnd && len(l.items) == 0 {
		l.elem = id
	} else if id != l.elem {
		return fmt.Errorf("%w: can't insert %v into list of %v", ErrInvalidTagType, id, l.elem)
	}
	l.items = append(l.items, t)
	return nil
}

// isNil reports whether t is nil or a nil container pointer.
func isNil(t Tag) bool {
	switch v := t.(type) {
	case *List:
		return v == nil
	case *Compound:
		return v == nil
	}
	return t == nil
}

// Compound maps string keys to tags and remembers insertion order.
type Compound struct {
	keys   []string
	values map[string]Tag
}

func NewCompound() *Compound {
	return &Compound{values: make(map[string]Tag)}
}

func (c *Compound) Len() int { return len(c.keys) }

// Keys returns the keys in insertion order.
func (c *Compound) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c *Compound) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

func (c *Compound) Get(key string) (Tag, bool) {
	t, ok := c.values[key]
	return t, ok
}

// Set stores t under key. Replacing an existing key keeps its position.
// A nil t, including a nil *List or *Compound, panics with an error
// wrapping ErrInvalidTagType.
func (c *Compound) Set(key string, t Tag) *Compound {
	if isNil(t) {
		panic(fmt.Errorf("%w: nil tag stored under %q", ErrInvalidTagType, key))
	}
	if c.values == nil {
		c.values = make(map[string]Tag)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = t
	return c
}

func (c *Compound) Delete(key string) {
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for every entry in order until fn returns false.
func (c *Compound) Range(fn func(key string, t Tag) bool) {
	for _, key := range c.keys {
		if !fn(key, c.values[key]) {
			return
		}
	}
}

func (c *Compound) lookup(key string) (Tag, error) {
	t, ok := c.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return t, nil
}

func getAs[T Tag](c *Compound, key string) (T, error) {
	var zero T
	t, err := c.lookup(key)
	if err != nil {
		return zero, err
	}
	v, ok := t.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %v, want %v", ErrInvalidTagType, key, t.ID(), zero.ID())
	}
	return v, nil
}

func (c *Compound) GetByte(key string) (int8, error) {
	v, err := getAs[Byte](c, key)
	return int8(v), err
}

// GetBool reads a Byte and reports whether it is non-zero.
func (c *Compound) GetBool(key string) (bool, error) {
	v, err := getAs[Byte](c, key)
	return v != 0, err
}

func (c *Compound) GetShort(key string) (int16, error) {
	v, err := getAs[Short](c, key)
	return int16(v), err
}

func (c *Compound) GetInt(key string) (int32, error) {
	v, err := getAs[Int](c, key)
	return int32(v), err
}

func (c *Compound) GetLong(key string) (int64, error) {
	v, err := getAs[Long](c, key)
	return int64(v), err
}

func (c *Compound) GetFloat(key string) (float32, error) {
	v, err := getAs[Float](c, key)
	return float32(v), err
}

func (c *Compound) GetDouble(key string) (float64, error) {
	v, err := getAs[Double](c, key)
	return float64(v), err
}

func (c *Compound) GetString(key string) (string, error) {
	v, err := getAs[String](c, key)
	return string(v), err
}

func (c *Compound) GetByteArray(key string) ([]int8, error) {
	v, err := getAs[ByteArray](c, key)
	return v, err
}

func (c *Compound) GetIntArray(key string) ([]int32, error) {
	v, err := getAs[IntArray](c, key)
	return v, err
}

func (c *Compound) GetLongArray(key string) ([]int64, error) {
	v, err := getAs[LongArray](c, key)
	return v, err
}

func (c *Compound) GetList(key string) (*List, error) {
	return getAs[*List](c, key)
}

func (c *Compound) GetCompound(key string) (*Compound, error) {
	return getAs[*Compound](c, key)
}
