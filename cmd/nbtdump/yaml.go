package main

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tmpim/anvil/v2/nbt"
)

// yamlNode converts a tag tree into a YAML document node. Nodes are built
// by hand so compound key order is preserved; arrays and scalar lists use
// flow style to keep block data readable.
func yamlNode(t nbt.Tag) *yaml.Node {
	switch v := t.(type) {
	case nbt.Byte, nbt.Short, nbt.Int, nbt.Long:
		n, _ := nbt.AsInt64(v)
		return scalar("!!int", strconv.FormatInt(n, 10))
	case nbt.Float:
		return scalar("!!float", yamlFloat(float64(v), 32))
	case nbt.Double:
		return scalar("!!float", yamlFloat(float64(v), 64))
	case nbt.String:
		return scalar("!!str", string(v))
	case nbt.ByteArray:
		seq := flowSeq()
		for _, b := range v {
			seq.Content = append(seq.Content, scalar("!!int", strconv.Itoa(int(b))))
		}
		return seq
	case nbt.IntArray:
		seq := flowSeq()
		for _, n := range v {
			seq.Content = append(seq.Content, scalar("!!int", strconv.Itoa(int(n))))
		}
		return seq
	case nbt.LongArray:
		seq := flowSeq()
		for _, n := range v {
			seq.Content = append(seq.Content, scalar("!!int", strconv.FormatInt(n, 10)))
		}
		return seq
	case *nbt.List:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if elem := v.ElemType(); elem != nbt.TagCompound && elem != nbt.TagList {
			seq.Style = yaml.FlowStyle
		}
		for _, item := range v.Items() {
			seq.Content = append(seq.Content, yamlNode(item))
		}
		return seq
	case *nbt.Compound:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.Range(func(key string, child nbt.Tag) bool {
			m.Content = append(m.Content, scalar("!!str", key), yamlNode(child))
			return true
		})
		return m
	}
	return scalar("!!null", "null")
}

// yamlFloat formats f so that it resolves as a float without an explicit
// tag.
func yamlFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func flowSeq() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
}

func renderYAML(root *nbt.Compound) (string, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{yamlNode(root)}}
	b, err := yaml.Marshal(doc)
	return string(b), err
}
