package document

import (
	"bytes"
	"reflect"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// BaseInputs are the inputs every step accepts regardless of its action.
type BaseInputs struct {
	FinallyStep *bool   `json:"finallyStep,omitzero"`
	OnFailure   *string `json:"onFailure,omitzero" ssm:"enum=exit|successAndExit"`
	OnSuccess   *string `json:"onSuccess,omitzero" ssm:"enum=exit"`
}

func (b *BaseInputs) base() *BaseInputs { return b }

// StepInputs is the closed set of step input shapes. Each implementation
// belongs to exactly one action.
type StepInputs interface {
	Action() string
	base() *BaseInputs
}

// MainStep is one ordered unit of work in a document.
type MainStep struct {
	Action       string       `json:"action"`
	Inputs       StepInputs   `json:"inputs"`
	Name         string       `json:"name"`
	Precondition Precondition `json:"precondition,omitzero"`
}

// Condition is one precondition operator with its operands.
type Condition struct {
	Operator string
	Operands []string
}

// Precondition holds a step's conditions in declaration order.
type Precondition []Condition

// Get returns the operands of operator.
func (p Precondition) Get(operator string) ([]string, bool) {
	for _, c := range p {
		if c.Operator == operator {
			return c.Operands, true
		}
	}
	return nil, false
}

// Equal reports whether both declare the same conditions, in any order.
func (p Precondition) Equal(o Precondition) bool {
	if len(p) != len(o) {
		return false
	}
	for _, c := range p {
		operands, ok := o.Get(c.Operator)
		if !ok || !slices.Equal(c.Operands, operands) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the conditions as a JSON object in declaration order.
func (p Precondition) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(c.Operator)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encodeJSON(c.Operands)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Precondition) decodeNode(d *decoder, n *yaml.Node, path string) {
	entries, _ := d.mapping(n, path)
	out := make(Precondition, 0, len(entries))
	for _, e := range entries {
		fp := fieldPath(path, e.key)
		if isNull(e.value) {
			d.fail(fp, "none is not an allowed value")
			continue
		}
		c := Condition{Operator: e.key}
		d.decodeValue(e.value, fp, reflectValue(&c.Operands), fieldSpec{}, 1)
		out = append(out, c)
	}
	*p = out
}

// Base returns the inputs shared by all actions.
func (s *MainStep) Base() *BaseInputs {
	if s.Inputs == nil {
		return nil
	}
	return s.Inputs.base()
}

var actions = map[string]func() StepInputs{}

func register(newInputs func() StepInputs) {
	actions[newInputs().Action()] = newInputs
}

// Lookup returns the constructor for the inputs of action.
func Lookup(action string) (func() StepInputs, bool) {
	newInputs, ok := actions[action]
	return newInputs, ok
}

// Actions lists every supported step action, sorted.
func Actions() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *MainStep) decodeNode(d *decoder, n *yaml.Node, path string) {
	entries, ok := d.mapping(n, path)
	if !ok && entries == nil {
		return
	}

	var inputs *yaml.Node
	actionOK := false
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		p := fieldPath(path, e.key)
		seen[e.key] = true
		switch e.key {
		case "action":
			before := len(d.errs)
			d.decodeRequired(e.value, p, reflectValue(&s.Action))
			actionOK = len(d.errs) == before
		case "name":
			d.decodeRequired(e.value, p, reflectValue(&s.Name))
		case "inputs":
			if isNull(e.value) {
				d.fail(p, "none is not an allowed value")
				continue
			}
			inputs = e.value
		case "precondition":
			if !isNull(e.value) {
				d.decodeValue(e.value, p, reflectValue(&s.Precondition), fieldSpec{}, 1)
			}
		default:
			d.fail(p, "unknown field")
		}
	}
	for _, name := range []string{"action", "inputs", "name"} {
		if !seen[name] {
			d.fail(fieldPath(path, name), "field required")
		}
	}

	if !actionOK {
		return
	}
	newInputs, known := Lookup(s.Action)
	if !known {
		d.fail(fieldPath(path, "action"), "unknown step action %q", s.Action)
		return
	}
	if inputs == nil {
		return
	}
	in := newInputs()
	p := fieldPath(path, "inputs")
	if d.checkTag(resolveAlias(inputs), p) {
		d.decodeStruct(inputs, p, reflectValue(in), 1)
	}
	s.Inputs = in
}

func (d *decoder) decodeRequired(n *yaml.Node, path string, rv reflect.Value) {
	if isNull(n) {
		d.fail(path, "none is not an allowed value")
		return
	}
	d.decodeValue(n, path, rv, fieldSpec{required: true}, 1)
}
