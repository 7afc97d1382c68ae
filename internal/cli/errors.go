// Package cli maps library errors to exit codes and user-facing messages.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cgast/ssmdox/pkg/document"
	"github.com/cgast/ssmdox/pkg/dox"
)

// Exit codes.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitInvalidDocument  = 2
	ExitTemplateNotFound = 3
	ExitParse            = 4
	ExitArtifactNotFound = 5
	ExitDrift            = 6
	ExitConfig           = 7
)

// ExitCoder is implemented by errors that carry their own exit code.
type ExitCoder interface {
	ExitCode() int
}

// ConfigError marks a failure to load or apply configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

// UnitError is a failure of one document unit in a multi-unit command.
type UnitError struct {
	Unit string
	Err  error
}

func (e *UnitError) Error() string { return fmt.Sprintf("%s: %v", e.Unit, e.Err) }

func (e *UnitError) Unwrap() error { return e.Err }

// Failures collects unit failures; its exit code is that of the first.
type Failures struct {
	Errs []*UnitError
}

func (f *Failures) Add(unit string, err error) {
	f.Errs = append(f.Errs, &UnitError{Unit: unit, Err: err})
}

// Err returns nil when nothing failed.
func (f *Failures) Err() error {
	if len(f.Errs) == 0 {
		return nil
	}
	return f
}

func (f *Failures) Error() string {
	if len(f.Errs) == 1 {
		return f.Errs[0].Error()
	}
	return fmt.Sprintf("%d documents failed, first: %v", len(f.Errs), f.Errs[0])
}

func (f *Failures) Unwrap() error {
	if len(f.Errs) == 0 {
		return nil
	}
	return f.Errs[0]
}

// ErrorAdapter handles error presentation and exit code determination.
type ErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewErrorAdapter creates a new adapter.
func NewErrorAdapter(verbose bool, logger *slog.Logger) *ErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor determines the exit code for err.
func (a *ErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		notFound *dox.TemplateNotFoundError
		parse    *dox.ParseError
		invalid  *document.ValidationErrors
		missing  *dox.ArtifactNotFoundError
		drift    *dox.DocumentDrift
		cfg      *ConfigError
		coder    ExitCoder
	)
	switch {
	case errors.As(err, &coder):
		return coder.ExitCode()
	case errors.As(err, &cfg):
		return ExitConfig
	case errors.As(err, &drift):
		return ExitDrift
	case errors.As(err, &missing):
		return ExitArtifactNotFound
	case errors.As(err, &notFound):
		return ExitTemplateNotFound
	case errors.As(err, &invalid):
		return ExitInvalidDocument
	case errors.As(err, &parse):
		return ExitParse
	default:
		return ExitFailure
	}
}

// FormatError renders err for display. Every unit failure gets its own
// line; drift includes the field-level report when verbose.
func (a *ErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	var failures *Failures
	if errors.As(err, &failures) {
		msg := ""
		for i, ue := range failures.Errs {
			if i > 0 {
				msg += "\n"
			}
			msg += a.formatOne(ue)
		}
		return msg
	}
	return a.formatOne(err)
}

func (a *ErrorAdapter) formatOne(err error) string {
	msg := fmt.Sprintf("Error: %v", err)
	var drift *dox.DocumentDrift
	if a.verbose && errors.As(err, &drift) {
		msg += "\n" + drift.Report()
	}
	return msg
}

// Handle logs err, writes its message to w and returns the exit code.
func (a *ErrorAdapter) Handle(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	code := a.ExitCodeFor(err)
	if a.verbose {
		a.logger.Debug("command failed", "error", err, "exit_code", code)
	}
	fmt.Fprintln(w, a.FormatError(err))
	return code
}
