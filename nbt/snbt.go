package nbt

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

func (End) String() string     { return "END" }
func (v Byte) String() string  { return strconv.FormatInt(int64(v), 10) + "b" }
func (v Short) String() string { return strconv.FormatInt(int64(v), 10) + "s" }
func (v Int) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Long) String() string  { return strconv.FormatInt(int64(v), 10) + "L" }

func (v Float) String() string {
	return formatFloat(float64(v), 32) + "f"
}

func (v Double) String() string {
	return formatFloat(float64(v), 64) + "d"
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func (v String) String() string { return quote(string(v)) }

func (v ByteArray) String() string {
	var sb strings.Builder
	sb.WriteString("[B;")
	for i, b := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(Byte(b).String())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (v IntArray) String() string {
	var sb strings.Builder
	sb.WriteString("[I;")
	for i, n := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(int64(n), 10))
	}
	sb.WriteByte(']')
	return sb.String()
}

func (v LongArray) String() string {
	var sb strings.Builder
	sb.WriteString("[L;")
	for i, n := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(Long(n).String())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, item := range l.items {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(item.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (c *Compound) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(quoteKey(key))
		sb.WriteByte(':')
		sb.WriteString(c.values[key].String())
	}
	sb.WriteByte('}')
	return sb.String()
}

var bareKey = regexp.MustCompile(`^[0-9A-Za-z_\-.+]+$`)

func quoteKey(key string) string {
	if bareKey.MatchString(key) {
		return key
	}
	return quote(key)
}

func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Pretty renders t in text notation with one entry per line, indenting
// nested lists and compounds by indent. Lists of scalars and arrays stay
// on one line. The output parses back to an equal tree.
func Pretty(t Tag, indent string) string {
	var sb strings.Builder
	writePretty(&sb, t, indent, 0)
	return sb.String()
}

func writePretty(sb *strings.Builder, t Tag, indent string, depth int) {
	switch v := t.(type) {
	case *Compound:
		if v.Len() == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteString("{\n")
		for i, key := range v.keys {
			writeIndent(sb, indent, depth+1)
			sb.WriteString(quoteKey(key))
			sb.WriteString(": ")
			writePretty(sb, v.values[key], indent, depth+1)
			if i < len(v.keys)-1 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\n')
		}
		writeIndent(sb, indent, depth)
		sb.WriteByte('}')
	case *List:
		if v.elem != TagCompound && v.elem != TagList {
			sb.WriteByte('[')
			for i, item := range v.items {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(item.String())
			}
			sb.WriteByte(']')
			return
		}
		if len(v.items) == 0 {
			sb.WriteString("[]")
			return
		}
		sb.WriteString("[\n")
		for i, item := range v.items {
			writeIndent(sb, indent, depth+1)
			writePretty(sb, item, indent, depth+1)
			if i < len(v.items)-1 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\n')
		}
		writeIndent(sb, indent, depth)
		sb.WriteByte(']')
	default:
		sb.WriteString(t.String())
	}
}

func writeIndent(sb *strings.Builder, indent string, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString(indent)
	}
}
