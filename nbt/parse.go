package nbt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// contextWindow is how many characters before the error position are
// quoted in a SyntaxError.
const contextWindow = 20

var (
	doubleNoSuffix = regexp.MustCompile(`(?i)^[-+]?(?:[0-9]+[.]|[0-9]*[.][0-9]+)(?:e[-+]?[0-9]+)?$`)
	doublePattern  = regexp.MustCompile(`(?i)^[-+]?(?:[0-9]+[.]?|[0-9]*[.][0-9]+)(?:e[-+]?[0-9]+)?d$`)
	floatPattern   = regexp.MustCompile(`(?i)^[-+]?(?:[0-9]+[.]?|[0-9]*[.][0-9]+)(?:e[-+]?[0-9]+)?f$`)
	bytePattern    = regexp.MustCompile(`(?i)^[-+]?(?:0|[1-9][0-9]*)b$`)
	shortPattern   = regexp.MustCompile(`(?i)^[-+]?(?:0|[1-9][0-9]*)s$`)
	longPattern    = regexp.MustCompile(`(?i)^[-+]?(?:0|[1-9][0-9]*)l$`)
	intPattern     = regexp.MustCompile(`^[-+]?(?:0|[1-9][0-9]*)$`)
)

// Parse reads a tag from its text notation, the format produced by
// Tag.String and Pretty. The whole input must be consumed.
func Parse(src string) (Tag, error) {
	p := &parser{src: []rune(src)}
	t, err := p.readValue(0)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.canRead() {
		return nil, p.errorAt(p.cursor, "Unexpected trailing data")
	}
	return t, nil
}

// ParseCompound is Parse for input whose top level must be a compound.
func ParseCompound(src string) (*Compound, error) {
	p := &parser{src: []rune(src)}
	p.skipWhitespace()
	if !p.canRead() || p.peek() != '{' {
		return nil, p.errorAt(p.cursor, "Expected '{'")
	}
	c, err := p.readCompound(0)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.canRead() {
		return nil, p.errorAt(p.cursor, "Unexpected trailing data")
	}
	return c, nil
}

type parser struct {
	src    []rune
	cursor int
}

func (p *parser) canRead() bool { return p.cursor < len(p.src) }

func (p *parser) peek() rune { return p.src[p.cursor] }

func (p *parser) skipWhitespace() {
	for p.canRead() && unicode.IsSpace(p.peek()) {
		p.cursor++
	}
}

func (p *parser) errorAt(cursor int, format string, args ...interface{}) *SyntaxError {
	if cursor > len(p.src) {
		cursor = len(p.src)
	}
	start := cursor - contextWindow
	var sb strings.Builder
	if start > 0 {
		sb.WriteString("...")
	} else {
		start = 0
	}
	sb.WriteString(string(p.src[start:cursor]))
	sb.WriteString("<--[HERE]")
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Cursor:  cursor,
		Context: sb.String(),
	}
}

func (p *parser) expect(r rune) error {
	p.skipWhitespace()
	if !p.canRead() || p.peek() != r {
		return p.errorAt(p.cursor, "Expected '%c'", r)
	}
	p.cursor++
	return nil
}

func isQuote(r rune) bool { return r == '"' || r == '\'' }

func isUnquoted(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' ||
		r == '_' || r == '-' || r == '.' || r == '+'
}

// readValue reads one value. depth counts the lists and compounds around
// it and is bounded by MaxDepth like the binary decoder.
func (p *parser) readValue(depth int) (Tag, error) {
	p.skipWhitespace()
	if !p.canRead() {
		return nil, p.errorAt(p.cursor, "Expected value")
	}

	switch r := p.peek(); {
	case r == '{':
		return p.readCompound(depth)
	case r == '[':
		if p.cursor+2 < len(p.src) && !isQuote(p.src[p.cursor+1]) && p.src[p.cursor+2] == ';' {
			return p.readArray(depth)
		}
		return p.readList(depth)
	case isQuote(r):
		s, err := p.readQuoted()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	}

	start := p.cursor
	s := p.readUnquoted()
	if s == "" {
		return nil, p.errorAt(p.cursor, "Expected value")
	}
	return p.typeToken(s, start)
}

func (p *parser) readUnquoted() string {
	start := p.cursor
	for p.canRead() && isUnquoted(p.peek()) {
		p.cursor++
	}
	return string(p.src[start:p.cursor])
}

func (p *parser) readQuoted() (string, error) {
	quote := p.peek()
	p.cursor++

	var sb strings.Builder
	escaped := false
	for p.canRead() {
		r := p.peek()
		if escaped {
			switch r {
			case '"', '\'', '\\':
				sb.WriteRune(r)
			case 'n':
				sb.WriteRune('\n')
			case 'r':
				sb.WriteRune('\r')
			case 't':
				sb.WriteRune('\t')
			case 'b':
				sb.WriteRune('\b')
			case 'f':
				sb.WriteRune('\f')
			case 's':
				sb.WriteRune(' ')
			default:
				return "", p.errorAt(p.cursor, "Invalid escape sequence '\\%c' in quoted string", r)
			}
			escaped = false
			p.cursor++
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case quote:
			p.cursor++
			return sb.String(), nil
		case '\n':
			return "", p.errorAt(p.cursor, "Unclosed quoted string")
		default:
			sb.WriteRune(r)
		}
		p.cursor++
	}
	return "", p.errorAt(p.cursor, "Unclosed quoted string")
}

// typeToken turns an unquoted token into a number, a boolean byte or,
// failing both, a String.
func (p *parser) typeToken(s string, start int) (Tag, error) {
	switch {
	case strings.EqualFold(s, "true"):
		return Byte(1), nil
	case strings.EqualFold(s, "false"):
		return Byte(0), nil
	case doubleNoSuffix.MatchString(s):
		return p.parseFloat(s, 64, start)
	case doublePattern.MatchString(s):
		return p.parseFloat(s[:len(s)-1], 64, start)
	case floatPattern.MatchString(s):
		return p.parseFloat(s[:len(s)-1], 32, start)
	case bytePattern.MatchString(s):
		return p.parseInt(s[:len(s)-1], 8, start)
	case shortPattern.MatchString(s):
		return p.parseInt(s[:len(s)-1], 16, start)
	case longPattern.MatchString(s):
		return p.parseInt(s[:len(s)-1], 64, start)
	case intPattern.MatchString(s):
		return p.parseInt(s, 32, start)
	}
	return String(s), nil
}

func (p *parser) parseInt(s string, bits int, start int) (Tag, error) {
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return nil, p.errorAt(start, "Number out of range")
	}
	switch bits {
	case 8:
		return Byte(v), nil
	case 16:
		return Short(v), nil
	case 32:
		return Int(v), nil
	}
	return Long(v), nil
}

func (p *parser) parseFloat(s string, bits int, start int) (Tag, error) {
	v, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return nil, p.errorAt(start, "Number out of range")
	}
	if bits == 32 {
		return Float(v), nil
	}
	return Double(v), nil
}

func (p *parser) readKey() (string, error) {
	p.skipWhitespace()
	if !p.canRead() {
		return "", p.errorAt(p.cursor, "Expected key")
	}
	start := p.cursor
	var (
		key string
		err error
	)
	if isQuote(p.peek()) {
		key, err = p.readQuoted()
		if err != nil {
			return "", err
		}
	} else {
		key = p.readUnquoted()
	}
	if key == "" {
		return "", p.errorAt(start, "Expected key")
	}
	return key, nil
}

func (p *parser) readCompound(depth int) (*Compound, error) {
	if depth >= MaxDepth {
		return nil, p.errorAt(p.cursor, "Tag nesting too deep")
	}
	p.cursor++ // {
	c := NewCompound()

	p.skipWhitespace()
	if p.canRead() && p.peek() == '}' {
		p.cursor++
		return c, nil
	}

	for {
		key, err := p.readKey()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)

		p.skipWhitespace()
		if p.canRead() && p.peek() == ',' {
			p.cursor++
			continue
		}
		break
	}

	if err := p.expect('}'); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) readList(depth int) (*List, error) {
	if depth >= MaxDepth {
		return nil, p.errorAt(p.cursor, "Tag nesting too deep")
	}
	p.cursor++ // [
	l := &List{}

	p.skipWhitespace()
	if p.canRead() && p.peek() == ']' {
		p.cursor++
		return l, nil
	}

	for {
		p.skipWhitespace()
		start := p.cursor
		v, err := p.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		if len(l.items) > 0 && v.ID() != l.elem {
			return nil, p.errorAt(start, "Can't insert %v into list of %v", v.ID(), l.elem)
		}
		if err := l.Append(v); err != nil {
			return nil, p.errorAt(start, "Can't insert %v into list of %v", v.ID(), l.elem)
		}

		p.skipWhitespace()
		if p.canRead() && p.peek() == ',' {
			p.cursor++
			continue
		}
		break
	}

	if err := p.expect(']'); err != nil {
		return nil, err
	}
	return l, nil
}

func (p *parser) readArray(depth int) (Tag, error) {
	// Arrays hold scalars only, so one may sit at MaxDepth itself.
	if depth > MaxDepth {
		return nil, p.errorAt(p.cursor, "Tag nesting too deep")
	}
	p.cursor++ // [
	typeStart := p.cursor
	marker := p.peek()
	p.cursor += 2 // type letter and ';'

	var arrayType TagID
	switch marker {
	case 'B':
		arrayType = TagByteArray
	case 'I':
		arrayType = TagIntArray
	case 'L':
		arrayType = TagLongArray
	default:
		return nil, p.errorAt(typeStart, "Invalid array type '%c'", marker)
	}

	var values []int64
	p.skipWhitespace()
	if p.canRead() && p.peek() == ']' {
		p.cursor++
		return makeArray(arrayType, values), nil
	}

	for {
		p.skipWhitespace()
		start := p.cursor
		v, err := p.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		if v.ID() != arrayElem(arrayType) {
			return nil, p.errorAt(start, "Can't insert %v into %v", v.ID(), arrayType)
		}
		n, _ := AsInt64(v)
		values = append(values, n)

		p.skipWhitespace()
		if p.canRead() && p.peek() == ',' {
			p.cursor++
			continue
		}
		break
	}

	if err := p.expect(']'); err != nil {
		return nil, err
	}
	return makeArray(arrayType, values), nil
}

func arrayElem(arrayType TagID) TagID {
	switch arrayType {
	case TagByteArray:
		return TagByte
	case TagIntArray:
		return TagInt
	}
	return TagLong
}

func makeArray(arrayType TagID, values []int64) Tag {
	switch arrayType {
	case TagByteArray:
		out := make(ByteArray, len(values))
		for i, v := range values {
			out[i] = int8(v)
		}
		return out
	case TagIntArray:
		out := make(IntArray, len(values))
		for i, v := range values {
			out[i] = int32(v)
		}
		return out
	}
	out := make(LongArray, len(values))
	copy(out, values)
	return out
}
