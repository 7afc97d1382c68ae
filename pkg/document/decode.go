package document

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// maxDepth bounds nesting so alias cycles cannot recurse forever.
const maxDepth = 256

// decoder builds typed records from a yaml node tree, collecting every
// structural failure with the path of the offending field.
type decoder struct {
	errs []ValidationError
}

// nodeDecoder is implemented by types that decode themselves instead of
// going through the struct-tag driven path.
type nodeDecoder interface {
	decodeNode(d *decoder, n *yaml.Node, path string)
}

type entry struct {
	key   string
	value *yaml.Node
}

// fieldSpec is the parsed form of a struct field's json and ssm tags.
type fieldSpec struct {
	name     string
	index    []int
	required bool
	enum     []string
	min      *int
}

func (d *decoder) fail(path, format string, args ...any) {
	if path == "" {
		path = "document"
	}
	d.errs = append(d.errs, ValidationError{Field: path, Message: fmt.Sprintf(format, args...)})
}

func (d *decoder) err() error {
	if len(d.errs) == 0 {
		return nil
	}
	return &ValidationErrors{Errors: d.errs}
}

func fieldPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for i := 0; n != nil && n.Kind == yaml.AliasNode && i < maxDepth; i++ {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	n = resolveAlias(n)
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

// checkTag rejects application tags that nothing resolved before decoding,
// such as an !IncludeScript handed straight to the model.
func (d *decoder) checkTag(n *yaml.Node, path string) bool {
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
		d.fail(path, "unresolved tag %s", n.Tag)
		return false
	}
	return true
}

// mapping returns the entries of a mapping node in declaration order. Merge
// keys (<<) are flattened: merged entries come first and explicit keys
// override them in place.
func (d *decoder) mapping(n *yaml.Node, path string) ([]entry, bool) {
	return d.mappingAt(n, path, 0)
}

func (d *decoder) mappingAt(n *yaml.Node, path string, depth int) ([]entry, bool) {
	n = resolveAlias(n)
	if depth > maxDepth {
		d.fail(path, "document nested too deeply")
		return nil, false
	}
	if n.Kind != yaml.MappingNode {
		d.fail(path, "expected a mapping")
		return nil, false
	}
	entries := make([]entry, 0, len(n.Content)/2)
	var merged []entry
	seen := make(map[string]bool, len(n.Content)/2)
	ok := true
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := resolveAlias(n.Content[i])
		if isMergeKey(k) {
			m, mok := d.mergeSources(n.Content[i+1], path, depth)
			ok = ok && mok
			merged = overlay(merged, m)
			continue
		}
		if k.Kind != yaml.ScalarNode || isNull(k) {
			d.fail(path, "mapping keys must be strings")
			ok = false
			continue
		}
		if seen[k.Value] {
			d.fail(fieldPath(path, k.Value), "duplicate key")
			ok = false
			continue
		}
		seen[k.Value] = true
		entries = append(entries, entry{key: k.Value, value: n.Content[i+1]})
	}
	if merged != nil {
		entries = overlay(merged, entries)
	}
	return entries, ok
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge"
}

// mergeSources returns the entries a merge key pulls in: one mapping, or a
// list of mappings where earlier ones win.
func (d *decoder) mergeSources(v *yaml.Node, path string, depth int) ([]entry, bool) {
	v = resolveAlias(v)
	switch v.Kind {
	case yaml.MappingNode:
		return d.mappingAt(v, path, depth+1)
	case yaml.SequenceNode:
		var out []entry
		ok := true
		for i := len(v.Content) - 1; i >= 0; i-- {
			item := resolveAlias(v.Content[i])
			if item.Kind != yaml.MappingNode {
				d.fail(path, "merge value must be a mapping or a list of mappings")
				ok = false
				continue
			}
			m, mok := d.mappingAt(item, path, depth+1)
			ok = ok && mok
			out = overlay(out, m)
		}
		return out, ok
	}
	d.fail(path, "merge value must be a mapping or a list of mappings")
	return nil, false
}

// overlay applies over on top of base: existing keys take the new value in
// their original position, new keys are appended.
func overlay(base, over []entry) []entry {
	out := append([]entry(nil), base...)
	index := make(map[string]int, len(out))
	for i, e := range out {
		index[e.key] = i
	}
	for _, e := range over {
		if i, ok := index[e.key]; ok {
			out[i].value = e.value
			continue
		}
		index[e.key] = len(out)
		out = append(out, e)
	}
	return out
}

var fieldCache sync.Map // reflect.Type -> []fieldSpec

// structFields lists the decodable fields of t, flattening embedded structs
// in declaration order.
func structFields(t reflect.Type) []fieldSpec {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]fieldSpec)
	}
	var fields []fieldSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			for _, inner := range structFields(f.Type) {
				inner.index = append([]int{i}, inner.index...)
				fields = append(fields, inner)
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		spec := fieldSpec{name: name, index: []int{i}}
		for _, opt := range strings.Split(f.Tag.Get("ssm"), ",") {
			switch {
			case opt == "required":
				spec.required = true
			case strings.HasPrefix(opt, "enum="):
				spec.enum = strings.Split(strings.TrimPrefix(opt, "enum="), "|")
			case strings.HasPrefix(opt, "min="):
				if m, err := strconv.Atoi(strings.TrimPrefix(opt, "min=")); err == nil {
					spec.min = &m
				}
			}
		}
		fields = append(fields, spec)
	}
	fieldCache.Store(t, fields)
	return fields
}

// decodeStruct fills rv from a mapping node. Records are closed: keys that
// match no field are reported.
func (d *decoder) decodeStruct(n *yaml.Node, path string, rv reflect.Value, depth int) {
	entries, ok := d.mapping(n, path)
	if !ok && entries == nil {
		return
	}
	fields := structFields(rv.Type())
	byName := make(map[string]fieldSpec, len(fields))
	for _, f := range fields {
		byName[f.name] = f
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		f, known := byName[e.key]
		p := fieldPath(path, e.key)
		if !known {
			d.fail(p, "unknown field")
			continue
		}
		seen[e.key] = true
		if isNull(e.value) {
			if f.required {
				d.fail(p, "none is not an allowed value")
			}
			continue
		}
		d.decodeValue(e.value, p, rv.FieldByIndex(f.index), f, depth+1)
	}

	for _, f := range fields {
		if f.required && !seen[f.name] {
			d.fail(fieldPath(path, f.name), "field required")
		}
	}
}

// decodeValue decodes a non-null node into rv according to its Go type.
func (d *decoder) decodeValue(n *yaml.Node, path string, rv reflect.Value, f fieldSpec, depth int) {
	n = resolveAlias(n)
	if depth > maxDepth {
		d.fail(path, "document nested too deeply")
		return
	}
	if rv.CanAddr() {
		if nd, ok := rv.Addr().Interface().(nodeDecoder); ok {
			if d.checkTag(n, path) {
				nd.decodeNode(d, n, path)
			}
			return
		}
	}
	if !d.checkTag(n, path) {
		return
	}

	switch rv.Kind() {
	case reflect.Pointer:
		elem := reflect.New(rv.Type().Elem())
		before := len(d.errs)
		d.decodeValue(n, path, elem.Elem(), f, depth)
		if len(d.errs) == before {
			rv.Set(elem)
		}
	case reflect.String:
		if n.Kind != yaml.ScalarNode {
			d.fail(path, "str type expected")
			return
		}
		if len(f.enum) > 0 && !contains(f.enum, n.Value) {
			d.fail(path, "unexpected value %q; permitted: %s", n.Value, quoteAll(f.enum))
			return
		}
		rv.SetString(n.Value)
	case reflect.Bool:
		var b bool
		if n.Kind != yaml.ScalarNode || n.Decode(&b) != nil {
			d.fail(path, "value is not a valid boolean")
			return
		}
		rv.SetBool(b)
	case reflect.Int:
		var i int
		if n.Kind != yaml.ScalarNode || n.Decode(&i) != nil {
			d.fail(path, "value is not a valid integer")
			return
		}
		if f.min != nil && i < *f.min {
			d.fail(path, "ensure this value is greater than or equal to %d", *f.min)
			return
		}
		rv.SetInt(int64(i))
	case reflect.Slice:
		if n.Kind != yaml.SequenceNode {
			d.fail(path, "value is not a valid list")
			return
		}
		out := reflect.MakeSlice(rv.Type(), len(n.Content), len(n.Content))
		for i, item := range n.Content {
			p := indexPath(path, i)
			if isNull(item) {
				d.fail(p, "none is not an allowed value")
				continue
			}
			d.decodeValue(item, p, out.Index(i), fieldSpec{}, depth+1)
		}
		rv.Set(out)
	case reflect.Map:
		entries, _ := d.mapping(n, path)
		if entries == nil && n.Kind != yaml.MappingNode {
			return
		}
		out := reflect.MakeMapWithSize(rv.Type(), len(entries))
		for _, e := range entries {
			p := fieldPath(path, e.key)
			if isNull(e.value) {
				d.fail(p, "none is not an allowed value")
				continue
			}
			val := reflect.New(rv.Type().Elem()).Elem()
			d.decodeValue(e.value, p, val, fieldSpec{}, depth+1)
			out.SetMapIndex(reflect.ValueOf(e.key), val)
		}
		rv.Set(out)
	case reflect.Struct:
		d.decodeStruct(n, path, rv, depth)
	default:
		d.fail(path, "unsupported field type %s", rv.Type())
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ", ")
}

// reflectValue returns the addressable value ptr points to.
func reflectValue(ptr any) reflect.Value {
	return reflect.ValueOf(ptr).Elem()
}
