// Package dox turns a source directory into a built document and checks
// previously built documents for drift.
package dox

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cgast/ssmdox/pkg/document"
	"github.com/cgast/ssmdox/pkg/textdiff"
)

// Dox is a document source directory discovered under Root. Its content is
// loaded on first use and kept for the life of the value; a Dox is meant to
// be driven by one goroutine at a time.
type Dox struct {
	Name string
	Path string
	Root string

	log     *slog.Logger
	content *document.Document
}

// Option configures a Dox.
type Option func(*Dox)

// WithLogger sets the logger used for progress notices.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dox) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates a Dox for the directory path found under root. It does no
// I/O beyond resolving absolute paths.
func New(path, root string, opts ...Option) (*Dox, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	d := &Dox{
		Name: filepath.Base(absPath),
		Path: absPath,
		Root: absRoot,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Template returns the template file of the directory.
func (d *Dox) Template() (string, error) {
	path, err := FindTemplate(d.Path)
	if err != nil {
		return "", err
	}
	d.log.Debug("found template file", "file", filepath.Base(path), "dir", d.Path)
	return path, nil
}

// Loaded reports whether the content has been loaded.
func (d *Dox) Loaded() bool {
	return d.content != nil
}

// Content returns the validated document of the directory, loading it on
// the first call. Failures are not cached.
func (d *Dox) Content() (*document.Document, error) {
	if d.content != nil {
		return d.content, nil
	}

	tmpl, err := d.Template()
	if err != nil {
		return nil, err
	}
	d.log.Debug("loading template", "template", tmpl)
	node, err := LoadTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	d.log.Debug("parsing template with data model", "template", tmpl)
	doc, err := document.Parse(node)
	if err != nil {
		return nil, documentError(tmpl, err)
	}

	d.content = doc
	return doc, nil
}

// RelativePath is the location of the directory's parent below Root, used
// to mirror the source layout in the output. It is "." for directories
// directly under Root.
func (d *Dox) RelativePath() string {
	parent := filepath.Dir(d.Path)
	rel, err := filepath.Rel(d.Root, parent)
	if err != nil {
		rel = strings.TrimPrefix(strings.TrimPrefix(parent, d.Root), string(filepath.Separator))
	}
	if rel == "" {
		rel = "."
	}
	return rel
}

// BuiltDocumentPath is where the built document of this directory lives
// under outputRoot.
func (d *Dox) BuiltDocumentPath(outputRoot string) string {
	return filepath.Join(outputRoot, d.RelativePath(), d.Name+".json")
}

// BuiltDocument loads the built document of this directory from outputRoot.
func (d *Dox) BuiltDocument(outputRoot string) (*BuiltDocument, error) {
	return LoadBuiltDocument(d.BuiltDocumentPath(outputRoot))
}

// Build writes the canonical document to outputRoot, replacing whatever is
// there, and returns the path written.
func (d *Dox) Build(outputRoot string) (string, error) {
	path := d.BuiltDocumentPath(outputRoot)
	doc, err := d.Content()
	if err != nil {
		return "", err
	}
	data, err := doc.MarshalCanonical()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	d.log.Info("building", "dox", d.Name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	d.log.Info("output written", "dox", d.Name, "path", path)
	return path, nil
}

// Check compares the source document with its built document in
// outputRoot. It returns *DocumentDrift when they differ and an
// *ArtifactNotFoundError when nothing was built yet.
func (d *Dox) Check(outputRoot string) error {
	built, err := d.BuiltDocument(outputRoot)
	if err != nil {
		return err
	}
	content, err := d.Content()
	if err != nil {
		return err
	}

	if !content.Equal(built.Content) {
		return &DocumentDrift{
			DocumentPath:    built.Path,
			DocumentContent: built.Content,
			DoxPath:         d.Path,
			DoxContent:      content,
		}
	}
	d.log.Info("up to date", "path", built.Path)
	return nil
}

// Diff lists the canonical built document against the canonical source
// document line by line: "-" lines only exist in the built document, "+"
// lines only in the source.
func (d *Dox) Diff(outputRoot string) ([]textdiff.Line, error) {
	content, err := d.Content()
	if err != nil {
		return nil, err
	}
	built, err := d.BuiltDocument(outputRoot)
	if err != nil {
		return nil, err
	}

	source, err := content.MarshalCanonical()
	if err != nil {
		return nil, err
	}
	artifact, err := built.Content.MarshalCanonical()
	if err != nil {
		return nil, err
	}
	return textdiff.CompareText(string(artifact), string(source)), nil
}
