// Package errhandling provides error classification for the dashconfig tool.
// It maps the typed errors of the config and policy packages to categories and
// categories to process exit codes.
package errhandling

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/devopsdash/dashconfig/internal/config"
	"github.com/devopsdash/dashconfig/internal/policy"
)

// ErrorCategory represents the type/category of an error.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryIO represents file system errors (missing file, permission denied).
	CategoryIO ErrorCategory = "io"

	// CategoryUsage represents invalid command-line usage.
	CategoryUsage ErrorCategory = "usage"

	// CategoryMalformed represents text that is not valid JSON or YAML.
	CategoryMalformed ErrorCategory = "malformed"

	// CategorySchema represents a document with missing, unknown or wrongly typed fields.
	CategorySchema ErrorCategory = "schema"

	// CategoryValidation represents a well-formed configuration that breaks a
	// rule, including user policy rules.
	CategoryValidation ErrorCategory = "validation"

	// CategoryPolicy represents a policy file that cannot be compiled or run.
	CategoryPolicy ErrorCategory = "policy"

	// CategoryUnknown represents unclassified errors.
	CategoryUnknown ErrorCategory = "unknown"
)

// Exit codes of the dashconfig command.
const (
	// ExitOK is returned when the command succeeded.
	ExitOK = 0
	// ExitError is returned when the tool could not do its job (I/O, usage, bad policy).
	ExitError = 1
	// ExitInvalid is returned when the input document is invalid.
	ExitInvalid = 2
)

// ClassifiedError wraps an error with its category.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Message is a human-readable error message.
	Message string

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Category, e.Message)
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// ClassifyError analyzes an error and returns a ClassifiedError.
// Returns nil for nil errors. Already classified errors are returned as is.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	category := CategoryUnknown
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, config.ErrMalformedInput):
		category = CategoryMalformed
	case errors.Is(err, config.ErrSchemaViolation):
		category = CategorySchema
	case errors.Is(err, config.ErrInvalid):
		category = CategoryValidation
	case errors.Is(err, policy.ErrInvalidRule), errors.Is(err, policy.ErrEvaluation):
		category = CategoryPolicy
	case errors.As(err, &pathErr):
		category = CategoryIO
	}

	return &ClassifiedError{
		Category:    category,
		Message:     err.Error(),
		OriginalErr: err,
	}
}

// NewUsageError creates a ClassifiedError for invalid command-line usage.
func NewUsageError(message string) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryUsage,
		Message:     message,
		OriginalErr: errors.New(message),
	}
}

// GetErrorCategory returns the error category for a given error.
// Returns CategoryUnknown for nil errors.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	return ClassifyError(err).Category
}

// IsInvalidInput returns true if the error describes a problem with the input
// document rather than with the tool or its environment.
func IsInvalidInput(err error) bool {
	switch GetErrorCategory(err) {
	case CategoryMalformed, CategorySchema, CategoryValidation:
		return err != nil
	default:
		return false
	}
}

// ExitCode maps an error category to the process exit code.
func ExitCode(category ErrorCategory) int {
	switch category {
	case CategoryMalformed, CategorySchema, CategoryValidation:
		return ExitInvalid
	default:
		return ExitError
	}
}

// ExitCodeFor returns the process exit code for err, ExitOK when err is nil.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	return ExitCode(ClassifyError(err).Category)
}
