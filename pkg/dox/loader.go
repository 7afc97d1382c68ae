package dox

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// IncludeTag inlines the lines of a script file as a list of strings.
const IncludeTag = "!IncludeScript"

// templateNames are checked in order; the first one present wins.
var templateNames = []string{"template.yaml", "template.yml"}

func templateNamesList() string {
	return strings.Join(templateNames, ", ")
}

// FindTemplate returns the template file of a source directory.
func FindTemplate(dir string) (string, error) {
	for _, name := range templateNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", &TemplateNotFoundError{Dir: dir}
}

// HasTemplate reports whether dir contains a template file.
func HasTemplate(dir string) bool {
	_, err := FindTemplate(dir)
	return err == nil
}

// LoadTemplate reads a template into a node tree and expands every
// !IncludeScript directive, resolving script paths against the template's
// own directory.
func LoadTemplate(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	inc := includeContext{dir: filepath.Dir(path)}
	if err := inc.resolve(&root); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &root, nil
}

// includeContext carries what directive resolution needs, keeping it out of
// the YAML parser itself.
type includeContext struct {
	dir string
}

func (c includeContext) resolve(n *yaml.Node) error {
	if n.Kind == yaml.AliasNode {
		// The anchored node is resolved where it is defined.
		return nil
	}
	if n.Tag == IncludeTag {
		return c.expand(n)
	}
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
		return fmt.Errorf("line %d: unsupported tag %s", n.Line, n.Tag)
	}
	for _, child := range n.Content {
		if err := c.resolve(child); err != nil {
			return err
		}
	}
	return nil
}

// expand turns an include scalar into a sequence of the script's lines.
func (c includeContext) expand(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode || n.Value == "" {
		return fmt.Errorf("line %d: %s expects a script path", n.Line, IncludeTag)
	}

	script := n.Value
	if !filepath.IsAbs(script) {
		script = filepath.Join(c.dir, script)
	}
	lines, err := ReadScript(script)
	if err != nil {
		return fmt.Errorf("line %d: include %s: %w", n.Line, n.Value, err)
	}

	content := make([]*yaml.Node, len(lines))
	for i, line := range lines {
		content[i] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: line, Line: n.Line, Column: n.Column}
	}
	n.Kind = yaml.SequenceNode
	n.Tag = "!!seq"
	n.Value = ""
	n.Style = 0
	n.Content = content
	return nil
}

// ReadScript returns the lines of a script file with line endings and
// trailing whitespace removed. A final newline does not produce an empty
// last line.
func ReadScript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := []string{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRightFunc(sc.Text(), unicode.IsSpace))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
