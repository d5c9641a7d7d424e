package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devopsdash/dashconfig/pkg/dashboard"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrMalformedInput  = errors.New("malformed input")
	ErrSchemaViolation = errors.New("schema violation")
	ErrInvalid         = errors.New("invalid configuration")
)

// ParseError type constants.
const (
	ErrorTypeSyntax = "syntax"
	ErrorTypeFormat = "format"
)

// ParseError reports text that is not a syntactically valid document.
type ParseError struct {
	// Path is the file path where the error occurred (empty if parsed from string)
	Path string
	// Line is the line number (1-based, 0 if unknown)
	Line int
	// Column is the column number (1-based, 0 if unknown)
	Column int
	// Offset is the byte offset in the text (0 if unknown)
	Offset int64
	// Format is the format the text was parsed as
	Format Format
	// Message is the error message
	Message string
	// Type categorizes the error (syntax, format)
	Type string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d", e.Line))
		if e.Column > 0 {
			sb.WriteString(fmt.Sprintf(", column %d", e.Column))
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	return sb.String()
}

// Is matches ErrMalformedInput.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedInput
}

// SchemaViolation is a document shape error: a missing, unknown or wrongly typed
// field.
type SchemaViolation struct {
	// Path is the document path of the offending value, e.g. "data_sources[0].credentials.token".
	// For missing and unknown fields it ends with the field name.
	Path string
	// Keyword is the schema keyword that failed (required, additionalProperties, type, enum, ...)
	Keyword string
	// Reason is a human-readable explanation
	Reason string
}

// Error implements the error interface.
func (v SchemaViolation) Error() string {
	if v.Path == "" {
		return v.Reason
	}
	return v.Path + ": " + v.Reason
}

// SchemaError collects every SchemaViolation found in a document.
type SchemaError struct {
	Violations []SchemaViolation
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return joinErrors("schema violation", e.Violations)
}

// Is matches ErrSchemaViolation.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaViolation
}

// Paths returns the path of every violation in report order.
func (e *SchemaError) Paths() []string {
	paths := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		paths[i] = v.Path
	}
	return paths
}

// Violation is a single rule breach found by the validator.
type Violation struct {
	// Code is a stable machine-readable identifier, e.g. "stage.unknown_dependency"
	Code string
	// Path is the document path of the offending value, e.g. "pipeline.stages[3].dependencies[0]"
	Path string
	// Message is a human-readable explanation
	Message string
	// Stage is the stage involved, for stage.* codes
	Stage string
	// Missing is the dependency name that has no matching stage (stage.unknown_dependency)
	Missing string
	// Cycle lists a dependency cycle in traversal order, first name repeated at the end
	// (stage.dependency_cycle)
	Cycle []string
}

// Error implements the error interface.
func (v Violation) Error() string {
	if v.Path == "" {
		return fmt.Sprintf("[%s] %s", v.Code, v.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", v.Path, v.Code, v.Message)
}

// ValidationError lists every violation found in one validation pass.
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return joinErrors("invalid configuration", e.Violations)
}

// Is matches ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Codes returns the code of every violation in report order.
func (e *ValidationError) Codes() []string {
	codes := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		codes[i] = v.Code
	}
	return codes
}

// Has reports whether any violation carries code.
func (e *ValidationError) Has(code string) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// ValidationResult is the outcome of validating a Config.
type ValidationResult struct {
	// Valid indicates whether the configuration passed every rule
	Valid bool
	// Violations lists every rule breach (empty when Valid)
	Violations []Violation
	// Order is the stage execution order: every stage after all of its
	// dependencies. Only set when Valid.
	Order []string
}

// Err returns a *ValidationError when the result is not valid, nil otherwise.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Violations: r.Violations}
}

// Document is a loaded, validated configuration.
type Document struct {
	// Config is the validated configuration
	Config *dashboard.Config
	// Order is the stage execution order computed during validation
	Order []string
	// Format is the format the document was loaded from
	Format Format
}

func joinErrors[T error](prefix string, errs []T) string {
	if len(errs) == 1 {
		return prefix + ": " + errs[0].Error()
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%s (%d problems): %s", prefix, len(errs), strings.Join(parts, "; "))
}
