package dox

import (
	"fmt"

	"github.com/cgast/ssmdox/pkg/document"
)

// TemplateNotFoundError is returned when a source directory holds no
// recognised template file.
type TemplateNotFoundError struct {
	Dir string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("no template file (%s) found in %s", templateNamesList(), e.Dir)
}

// ParseError is returned when a template or artifact cannot be read as a
// node tree: malformed syntax, an unreadable included script or an
// unsupported tag. It is never a validation failure.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ArtifactNotFoundError is returned by check and diff when the expected
// built document does not exist or cannot be read.
type ArtifactNotFoundError struct {
	Path string
	Err  error
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("built document %s not found: %v", e.Path, e.Err)
}

func (e *ArtifactNotFoundError) Unwrap() error { return e.Err }

// InvalidDocumentError ties a model validation failure to the file it came
// from. Unwrap yields the *document.ValidationErrors.
type InvalidDocumentError struct {
	Path string
	Err  *document.ValidationErrors
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *InvalidDocumentError) Unwrap() error { return e.Err }

// DocumentDrift is returned by Check when the document built from source no
// longer equals the built document on disk.
type DocumentDrift struct {
	DocumentPath    string
	DocumentContent *document.Document
	DoxPath         string
	DoxContent      *document.Document
}

func (e *DocumentDrift) Error() string {
	return fmt.Sprintf("%s does not match its source %s", e.DocumentPath, e.DoxPath)
}

// Report renders the field-level difference, "-" lines from the built
// document and "+" lines from the source.
func (e *DocumentDrift) Report() string {
	return document.Diff(e.DocumentContent, e.DoxContent)
}
