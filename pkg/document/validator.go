package document

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds every validation failure found while constructing
// a Document. A non-nil *ValidationErrors always has at least one entry.
type ValidationErrors struct {
	Errors []ValidationError
}

// Error returns a combined error message from all validation errors.
func (r *ValidationErrors) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Has reports whether a failure was recorded for the given field path.
func (r *ValidationErrors) Has(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// MinSchemaVersion is the oldest schemaVersion this tool can build.
var MinSchemaVersion = []int{2, 2}

// validate runs the semantic rules. It is only called on a document that
// already passed structural decoding.
func (d *Document) validate() error {
	var result ValidationErrors

	if err := validateSchemaVersion(d.SchemaVersion); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field: "schemaVersion", Message: err.Error(),
		})
	}

	if len(result.Errors) > 0 {
		return &result
	}
	return nil
}

// validateSchemaVersion checks that v is dotted-numeric and not older than
// MinSchemaVersion. Versions compare component-wise, a shorter version
// sorting before a longer one with the same prefix ("2" < "2.0").
func validateSchemaVersion(v string) error {
	parts := strings.Split(v, ".")
	version := make([]int, len(parts))
	for i, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return fmt.Errorf("invalid schemaVersion %q (expected dotted numbers)", v)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid schemaVersion %q (expected dotted numbers)", v)
		}
		version[i] = n
	}
	if compareVersions(version, MinSchemaVersion) < 0 {
		return fmt.Errorf("unsupported schemaVersion %q (this tool only supports schemaVersion >= %s)", v, formatVersion(MinSchemaVersion))
	}
	return nil
}

func compareVersions(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func formatVersion(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
