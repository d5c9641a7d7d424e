// Package config loads, validates and dumps dashboard configuration documents
// (JSON/YAML).
//
// Loading runs in three steps, each with its own error type:
//
//   - parsing the text (ParseError, matches ErrMalformedInput)
//   - checking the document shape against the embedded JSON Schema
//     (SchemaError, matches ErrSchemaViolation)
//   - enforcing cross-field rules, including the stage dependency graph
//     (ValidationError, matches ErrInvalid)
//
// Store is the facade over these steps. Dumping refuses invalid values so that
// documents written by this package always load back.
package config

import (
	"path"
	"strings"
)

// Format is a document format.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat detects the document format from a file extension.
// Returns an empty Format if the extension is not recognized.
func DetectFormat(filepath string) Format {
	switch strings.ToLower(path.Ext(filepath)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, true
	case "yaml", "yml":
		return FormatYAML, true
	default:
		return "", false
	}
}
