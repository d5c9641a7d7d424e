package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devopsdash/dashconfig/internal/pathutil"
)

// Parse parses text as a document in the given format and returns the generic
// document tree. If format is empty it is detected from the content.
//
// The tree only contains map[string]interface{}, []interface{}, string, bool,
// nil and json.Number values (plus float64 for non-finite YAML numbers), so the
// schema check sees identical shapes for both formats.
func Parse(content string, format Format) (interface{}, Format, error) {
	if format == "" {
		format = detectContentFormat(content)
	}
	switch format {
	case FormatJSON:
		doc, err := ParseJSONString(content)
		return doc, FormatJSON, err
	case FormatYAML:
		doc, err := ParseYAMLString(content)
		return doc, FormatYAML, err
	default:
		return nil, format, &ParseError{
			Message: fmt.Sprintf("unsupported format: %s", format),
			Type:    ErrorTypeFormat,
		}
	}
}

// IsJSON checks if the content appears to be JSON format.
func IsJSON(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	// JSON must start with { or [
	return strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")
}

// detectContentFormat picks JSON for content that looks like JSON and YAML for
// everything else.
func detectContentFormat(content string) Format {
	if IsJSON(content) {
		return FormatJSON
	}
	return FormatYAML
}

// ============================================================================
// JSON Parsing
// ============================================================================

// ParseJSONString parses JSON content from a string.
func ParseJSONString(content string) (interface{}, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ParseError{
			Format:  FormatJSON,
			Message: "empty content: expected JSON object",
			Type:    ErrorTypeSyntax,
		}
	}

	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, parseJSONError(err, content)
	}

	// A document is exactly one JSON value
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		offset := dec.InputOffset()
		line, column := offsetToLineColumn(content, offset)
		return nil, &ParseError{
			Line:    line,
			Column:  column,
			Offset:  offset,
			Format:  FormatJSON,
			Message: "unexpected data after top-level JSON value",
			Type:    ErrorTypeSyntax,
		}
	}

	if err := checkDuplicateKeys(content); err != nil {
		return nil, err
	}
	return data, nil
}

// checkDuplicateKeys walks the token stream of already decoded content and
// rejects objects that repeat a key. encoding/json keeps the last value.
func checkDuplicateKeys(content string) *ParseError {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	return walkJSONValue(dec, content, "")
}

func walkJSONValue(dec *json.Decoder, content, path string) *ParseError {
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	switch tok {
	case json.Delim('{'):
		seen := make(map[string]bool)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil
			}
			key, _ := keyTok.(string)
			keyPath := pathutil.Field(path, key)
			if seen[key] {
				offset := dec.InputOffset()
				line, column := offsetToLineColumn(content, offset)
				return &ParseError{
					Line:    line,
					Column:  column,
					Offset:  offset,
					Format:  FormatJSON,
					Message: fmt.Sprintf("duplicate key %q at %s", key, keyPath),
					Type:    ErrorTypeSyntax,
				}
			}
			seen[key] = true
			if perr := walkJSONValue(dec, content, keyPath); perr != nil {
				return perr
			}
		}
		_, _ = dec.Token()
	case json.Delim('['):
		for i := 0; dec.More(); i++ {
			if perr := walkJSONValue(dec, content, pathutil.Index(path, i)); perr != nil {
				return perr
			}
		}
		_, _ = dec.Token()
	}
	return nil
}

// parseJSONError extracts detailed error information from a JSON decoding error.
func parseJSONError(err error, content string) *ParseError {
	parseErr := &ParseError{
		Format:  FormatJSON,
		Message: err.Error(),
		Type:    ErrorTypeSyntax,
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		parseErr.Offset = syntaxErr.Offset
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, syntaxErr.Offset)
		parseErr.Message = fmt.Sprintf("JSON syntax error at offset %d: %s", syntaxErr.Offset, syntaxErr.Error())
		return parseErr
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		parseErr.Offset = int64(len(content))
		parseErr.Line, parseErr.Column = offsetToLineColumn(content, parseErr.Offset)
		parseErr.Message = "JSON syntax error: unexpected end of input"
	}

	return parseErr
}

// offsetToLineColumn converts a byte offset to line and column numbers (1-based).
func offsetToLineColumn(content string, offset int64) (line, column int) {
	line = 1
	column = 1
	for i := int64(0); i < offset && i < int64(len(content)); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// ============================================================================
// YAML Parsing
// ============================================================================

// ParseYAMLString parses a single YAML document from a string.
func ParseYAMLString(content string) (interface{}, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ParseError{
			Format:  FormatYAML,
			Message: "empty content: expected YAML document",
			Type:    ErrorTypeSyntax,
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(content)))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{
				Format:  FormatYAML,
				Message: "empty content: YAML contains no document",
				Type:    ErrorTypeSyntax,
			}
		}
		return nil, parseYAMLError(err)
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, parseYAMLError(err)
		}
		return nil, &ParseError{
			Format:  FormatYAML,
			Message: "multiple YAML documents: expected exactly one",
			Type:    ErrorTypeFormat,
		}
	}

	literalScalars(&root)
	var data interface{}
	if err := root.Decode(&data); err != nil {
		return nil, parseYAMLError(err)
	}
	return normalizeYAML(data), nil
}

// literalScalars retags timestamp and binary scalars as strings so they keep
// the text written in the document instead of a decoded time or byte value.
func literalScalars(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		switch n.ShortTag() {
		case "!!timestamp", "!!binary":
			n.Tag = "!!str"
		}
		return
	}
	for _, c := range n.Content {
		literalScalars(c)
	}
}

// parseYAMLError extracts detailed error information from a YAML decoding error.
func parseYAMLError(err error) *ParseError {
	parseErr := &ParseError{
		Format:  FormatYAML,
		Message: err.Error(),
		Type:    ErrorTypeSyntax,
	}

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		parseErr.Message = fmt.Sprintf("YAML type error: %s", strings.Join(typeErr.Errors, "; "))
	}

	// yaml.v3 reports syntax errors as "yaml: line X: ..."
	if strings.HasPrefix(err.Error(), "yaml: line ") {
		var line int
		if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
			parseErr.Line = line
		}
	}

	return parseErr
}

// normalizeYAML converts yaml.v3 decoded values to the JSON-shaped tree.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return t
		}
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	default:
		return v
	}
}
