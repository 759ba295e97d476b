// Package errors provides a lightweight structured error type (DocStageError)
// for category-based classification of stage failures in the host and CLI.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a DocStage error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Collaborator errors
	CategoryExtract ErrorCategory = "extract"
	CategoryEmit    ErrorCategory = "emit"
	CategoryGit     ErrorCategory = "git"
	CategoryNetwork ErrorCategory = "network"

	// Build and processing errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryStore      ErrorCategory = "store"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the build
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// DocStageError is a structured error with category, severity, and context
type DocStageError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for DocStageError
type ContextFields map[string]any

// Error implements the error interface
func (e *DocStageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping
func (e *DocStageError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DocStageError) WithContext(key string, value any) *DocStageError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// IsFatal reports whether the error should halt the build.
func (e *DocStageError) IsFatal() bool {
	return e.Severity == SeverityFatal
}

// New creates a new DocStageError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DocStageError {
	return &DocStageError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new DocStageError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocStageError {
	return &DocStageError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As returns the outermost DocStageError in err's chain.
func As(err error) (*DocStageError, bool) {
	var dse *DocStageError
	if stdErrors.As(err, &dse) {
		return dse, true
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if dse, ok := As(err); ok {
		return dse.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a DocStageError
func GetCategory(err error) ErrorCategory {
	if dse, ok := As(err); ok {
		return dse.Category
	}
	return CategoryInternal
}
