// Package frontmatter parses and serializes the YAML metadata block that
// prefixes agent, command and skill markdown files.
//
// A document looks like:
//
//	---
//	name: reviewer
//	description: Reviews code
//	---
//
//	Body text.
//
// Keys keep their insertion order so that serializing the same Data twice
// yields byte-identical output.
package frontmatter

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter is the marker line that opens and closes the metadata block.
const Delimiter = "---"

// Field is a single key/value pair of a metadata block.
// Value is a string, bool, int, float64 or []string.
type Field struct {
	Key   string
	Value any
}

// Data is an ordered metadata mapping.
type Data []Field

// Get returns the value stored under key.
func (d Data) Get(key string) (any, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (d Data) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Set replaces the value of an existing key in place, or appends a new one.
func (d *Data) Set(key string, value any) {
	for i := range *d {
		if (*d)[i].Key == key {
			(*d)[i].Value = value
			return
		}
	}
	*d = append(*d, Field{Key: key, Value: value})
}

// String returns the value of key as a string. Non-string scalars are
// formatted; missing keys and sequences yield "".
func (d Data) String(key string) string {
	v, ok := d.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []string, []any, map[string]any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Strings returns the value of key as a list. A scalar string is returned as
// a single-element list; callers that accept comma lists split it themselves.
func (d Data) Strings(key string) []string {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

// Bool returns the value of key as a bool. The strings "true" and "false"
// are accepted as well.
func (d Data) Bool(key string) (value, ok bool) {
	v, found := d.Get(key)
	if !found {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	default:
		return false, false
	}
}

// Float returns the value of key as a float64.
func (d Data) Float(key string) (float64, bool) {
	v, found := d.Get(key)
	if !found {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Keys returns the keys in order.
func (d Data) Keys() []string {
	keys := make([]string, len(d))
	for i, f := range d {
		keys[i] = f.Key
	}
	return keys
}

// Parse splits text into its metadata block and body.
//
// Text without an opening delimiter, without a closing delimiter, or whose
// block is not a YAML mapping is returned whole as the body with empty Data.
// A single blank line after the closing delimiter is consumed.
func Parse(text string) (Data, string) {
	block, body, ok := split(text)
	if !ok {
		return Data{}, text
	}

	data, ok := decode(block)
	if !ok {
		return Data{}, text
	}
	return data, body
}

// split locates the delimited block. It works on raw line offsets so that
// the body is returned byte-for-byte.
func split(text string) (block, body string, ok bool) {
	first, rest, found := cutLine(text)
	if !found || strings.TrimSpace(first) != Delimiter {
		return "", "", false
	}

	var lines []string
	for {
		line, next, more := cutLine(rest)
		if strings.TrimSpace(line) == Delimiter {
			rest = next
			break
		}
		if !more {
			return "", "", false
		}
		lines = append(lines, line)
		rest = next
	}

	body = rest
	if strings.HasPrefix(body, "\r\n") {
		body = body[2:]
	} else if strings.HasPrefix(body, "\n") {
		body = body[1:]
	}
	return strings.Join(lines, "\n"), body, true
}

// cutLine returns the first line of s (without its terminator) and the rest.
func cutLine(s string) (line, rest string, found bool) {
	line, rest, found = strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r"), rest, found
}

func decode(block string) (Data, bool) {
	if strings.TrimSpace(block) == "" {
		return Data{}, true
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, false
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, false
	}

	data := make(Data, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		v, err := decodeValue(value)
		if err != nil {
			return nil, false
		}
		data.Set(key.Value, v)
	}
	return data, true
}

func decodeValue(n *yaml.Node) (any, error) {
	if n.Kind == yaml.SequenceNode {
		items := make([]string, 0, len(n.Content))
		flat := true
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				flat = false
				break
			}
			items = append(items, item.Value)
		}
		if flat {
			return items, nil
		}
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// keepFloat makes a whole-number float64 render as "1.0" rather than "1",
// which would parse back as an int.
func keepFloat(n *yaml.Node, v any) {
	f, ok := v.(float64)
	if !ok || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return
	}
	if strings.ContainsAny(n.Value, ".eE") {
		return
	}
	n.Tag = "!!float"
	n.Value = strconv.FormatFloat(f, 'f', -1, 64) + ".0"
}

// Serialize renders data and body as a markdown document. It is the inverse
// of Parse: Parse(Serialize(d, b)) yields d and b again.
func Serialize(data Data, body string) string {
	var buf bytes.Buffer
	buf.WriteString(Delimiter + "\n")

	if len(data) > 0 {
		root := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range data {
			var value yaml.Node
			if err := value.Encode(f.Value); err != nil {
				// Unencodable values never come out of Parse.
				continue
			}
			keepFloat(&value, f.Value)
			root.Content = append(root.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
				&value,
			)
		}

		var out bytes.Buffer
		enc := yaml.NewEncoder(&out)
		enc.SetIndent(2)
		if err := enc.Encode(root); err == nil && enc.Close() == nil {
			buf.Write(out.Bytes())
		}
	}

	buf.WriteString(Delimiter + "\n\n")
	buf.WriteString(body)
	return buf.String()
}
