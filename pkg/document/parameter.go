package document

import (
	"bytes"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// Parameter types accepted by the target runtime.
const (
	TypeBoolean    = "Boolean"
	TypeInteger    = "Integer"
	TypeMapList    = "MapList"
	TypeString     = "String"
	TypeStringList = "StringList"
	TypeStringMap  = "StringMap"
)

// Parameter describes one input a document accepts at run time. Only the
// shape of each field is validated; nothing checks that Default agrees
// with Type.
type Parameter struct {
	AllowedPattern *string  `json:"allowedPattern,omitzero"`
	AllowedValues  []string `json:"allowedValues,omitzero"`
	Default        Value    `json:"default,omitzero"`
	Description    *string  `json:"description,omitzero"`
	DisplayType    *string  `json:"displayType,omitzero" ssm:"enum=textarea|textfield"`
	MaxChars       *int     `json:"maxChars,omitzero" ssm:"min=0"`
	MaxItems       *int     `json:"maxItems,omitzero" ssm:"min=0"`
	MinChars       *int     `json:"minChars,omitzero" ssm:"min=0"`
	MinItems       *int     `json:"minItems,omitzero" ssm:"min=0"`
	Type           string   `json:"type" ssm:"required,enum=Boolean|Integer|MapList|String|StringList|StringMap"`
}

// NamedParameter pairs a parameter with the name it is declared under.
type NamedParameter struct {
	Name string
	Parameter
}

// Parameters is the parameter mapping of a document. It keeps declaration
// order for output; equality ignores order.
type Parameters []NamedParameter

// Get returns the parameter declared under name.
func (p Parameters) Get(name string) (*Parameter, bool) {
	for i := range p {
		if p[i].Name == name {
			return &p[i].Parameter, true
		}
	}
	return nil, false
}

// Names returns the parameter names in declaration order.
func (p Parameters) Names() []string {
	names := make([]string, len(p))
	for i, np := range p {
		names[i] = np.Name
	}
	return names
}

// Equal reports whether both mappings declare the same parameters.
func (p Parameters) Equal(o Parameters) bool {
	if len(p) != len(o) {
		return false
	}
	for _, np := range p {
		other, ok := o.Get(np.Name)
		if !ok || !cmp.Equal(np.Parameter, *other) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the mapping as a JSON object in declaration order.
func (p Parameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, np := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(np.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encodeJSON(np.Parameter)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Parameters) decodeNode(d *decoder, n *yaml.Node, path string) {
	entries, _ := d.mapping(n, path)
	params := make(Parameters, 0, len(entries))
	for _, e := range entries {
		np := NamedParameter{Name: e.key}
		fp := fieldPath(path, e.key)
		before := len(d.errs)
		d.decodeValue(e.value, fp, reflectValue(&np.Parameter), fieldSpec{}, 1)
		if len(d.errs) == before && !np.Default.IsZero() && !validDefaultShape(np.Default) {
			d.fail(fieldPath(fp, "default"), "value does not match any accepted default shape")
		}
		params = append(params, np)
	}
	*p = params
}
