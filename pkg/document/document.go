// Package document is the typed model of a compiled automation document.
// Documents are only ever produced by Parse (or its wrappers), which either
// returns a fully validated Document or a *ValidationErrors.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// Document is a validated automation document.
type Document struct {
	SchemaVersion string     `json:"schemaVersion" ssm:"required"`
	Description   string     `json:"description" ssm:"required"`
	Parameters    Parameters `json:"parameters" ssm:"required"`
	MainSteps     []MainStep `json:"mainSteps" ssm:"required"`
}

// Parse builds a Document from a node tree. Structural problems (missing
// fields, wrong types, enum violations, unknown keys or actions) are all
// reported before semantic rules such as the schemaVersion floor run.
func Parse(node *yaml.Node) (*Document, error) {
	root := node
	if root != nil && root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			root = nil
		} else {
			root = root.Content[0]
		}
	}
	if root == nil || root.Kind == 0 {
		return nil, &ValidationErrors{Errors: []ValidationError{{Field: "document", Message: "document is empty"}}}
	}

	d := &decoder{}
	var doc Document
	d.decodeStruct(root, "", reflectValue(&doc), 0)
	if err := d.err(); err != nil {
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseYAML parses YAML text and builds a Document from it. A syntax error
// is returned as-is; it is not a *ValidationErrors.
func ParseYAML(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return Parse(&node)
}

// ParseJSON builds a Document from JSON text. JSON is read through the
// YAML parser so both formats share one construction path.
func ParseJSON(data []byte) (*Document, error) {
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return ParseYAML(data)
}

// MarshalCanonical returns the canonical JSON form of the document: unset
// fields omitted, record keys in declaration order, parameters and steps in
// source order, four-space indentation and no trailing newline. The same
// document always produces the same bytes.
func (d *Document) MarshalCanonical() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Equal reports whether two documents are structurally equal.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	return cmp.Equal(*d, *o)
}

// Diff renders the structural difference between two documents, lines
// prefixed "-" for want and "+" for got. It is empty when they are equal.
func Diff(want, got *Document) string {
	if want == nil || got == nil {
		return cmp.Diff(want, got)
	}
	return cmp.Diff(*want, *got)
}
