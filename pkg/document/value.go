package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Value is a free-form value for fields whose shape the document schema
// leaves open. Data holds one of: nil, bool, int64, float64, string,
// []Value or Object.
type Value struct {
	Data any
}

// Member is one key of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a mapping that remembers the order its keys were declared in.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool {
	return v.Data == nil
}

// String returns the value as a string when it holds one.
func (v Value) String() (string, bool) {
	s, ok := v.Data.(string)
	return s, ok
}

// Equal compares two values structurally. Objects compare without regard
// to key order and numbers compare by magnitude, so 1 equals 1.0.
func (v Value) Equal(o Value) bool {
	switch a := v.Data.(type) {
	case nil:
		return o.Data == nil
	case bool:
		b, ok := o.Data.(bool)
		return ok && a == b
	case string:
		b, ok := o.Data.(string)
		return ok && a == b
	case int64, float64:
		x, ok1 := toFloat(a)
		y, ok2 := toFloat(o.Data)
		if !ok1 || !ok2 {
			return false
		}
		if ai, ok := a.(int64); ok {
			if bi, ok := o.Data.(int64); ok {
				return ai == bi
			}
		}
		return x == y
	case []Value:
		b, ok := o.Data.([]Value)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case Object:
		b, ok := o.Data.(Object)
		if !ok || len(a) != len(b) {
			return false
		}
		for _, m := range a {
			other, found := b.Get(m.Key)
			if !found || !m.Value.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// MarshalJSON writes the value, keeping Object keys in declaration order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch d := v.Data.(type) {
	case nil:
		return []byte("null"), nil
	case float64:
		if math.IsInf(d, 0) || math.IsNaN(d) {
			return nil, fmt.Errorf("unsupported number %v", d)
		}
		return encodeJSON(d)
	case Object:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, m := range d {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := encodeJSON(m.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := m.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return encodeJSON(d)
	}
}

// encodeJSON marshals v compactly without HTML escaping. Scripts are full
// of '&&' and '>' and the artifacts must keep them readable.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (v *Value) decodeNode(d *decoder, n *yaml.Node, path string) {
	v.Data = d.freeform(n, path, 0)
}

// freeform converts a node tree into the plain data a Value carries.
func (d *decoder) freeform(n *yaml.Node, path string, depth int) any {
	n = resolveAlias(n)
	if depth > maxDepth {
		d.fail(path, "value nested too deeply")
		return nil
	}
	if !d.checkTag(n, path) {
		return nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalar(n, path)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for i, item := range n.Content {
			items = append(items, Value{Data: d.freeform(item, indexPath(path, i), depth+1)})
		}
		return items
	case yaml.MappingNode:
		entries, ok := d.mapping(n, path)
		if !ok {
			return nil
		}
		obj := make(Object, 0, len(entries))
		for _, e := range entries {
			obj = append(obj, Member{Key: e.key, Value: Value{Data: d.freeform(e.value, fieldPath(path, e.key), depth+1)}})
		}
		return obj
	}
	d.fail(path, "unsupported node")
	return nil
}

func (d *decoder) scalar(n *yaml.Node, path string) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			d.fail(path, "value is not a valid boolean")
			return nil
		}
		return b
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			d.fail(path, "integer out of range")
			return nil
		}
		return i
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			if err := n.Decode(&f); err != nil {
				d.fail(path, "value is not a valid number")
				return nil
			}
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			d.fail(path, "non-finite numbers are not supported")
			return nil
		}
		return f
	}
	return n.Value
}

// validDefaultShape reports whether v has one of the shapes a parameter
// default may take: bool, integer, string, list of strings, list of string
// maps, string map or map of string lists.
func validDefaultShape(v Value) bool {
	switch d := v.Data.(type) {
	case bool, int64, string:
		return true
	case []Value:
		return allValues(d, isString) || allValues(d, isStringMap)
	case Object:
		return isStringMap(v) || isStringListMap(d)
	}
	return false
}

func allValues(vs []Value, pred func(Value) bool) bool {
	for _, v := range vs {
		if !pred(v) {
			return false
		}
	}
	return true
}

func isString(v Value) bool {
	_, ok := v.Data.(string)
	return ok
}

func isStringMap(v Value) bool {
	obj, ok := v.Data.(Object)
	if !ok {
		return false
	}
	for _, m := range obj {
		if !isString(m.Value) {
			return false
		}
	}
	return true
}

func isStringListMap(obj Object) bool {
	for _, m := range obj {
		list, ok := m.Value.Data.([]Value)
		if !ok || !allValues(list, isString) {
			return false
		}
	}
	return true
}
