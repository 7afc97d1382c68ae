package dox

import (
	"errors"
	"os"

	"github.com/cgast/ssmdox/pkg/document"
)

// BuiltDocument is a previously built artifact read back into the model.
type BuiltDocument struct {
	Path    string
	Content *document.Document
}

// LoadBuiltDocument reads the artifact at path.
func LoadBuiltDocument(path string) (*BuiltDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactNotFoundError{Path: path, Err: err}
	}
	doc, err := document.ParseJSON(data)
	if err != nil {
		return nil, documentError(path, err)
	}
	return &BuiltDocument{Path: path, Content: doc}, nil
}

// documentError classifies a document construction failure: validation
// failures stay distinguishable from syntax errors.
func documentError(path string, err error) error {
	var verr *document.ValidationErrors
	if errors.As(err, &verr) {
		return &InvalidDocumentError{Path: path, Err: verr}
	}
	return &ParseError{Path: path, Err: err}
}
