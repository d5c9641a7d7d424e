package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/devopsdash/dashconfig/internal/pathutil"
)

//go:embed schema/config-schema.json
var embeddedSchema []byte

const schemaURL = "https://devopsdash.dev/schemas/dashboard/v1/config-schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaInitErr  error
)

// GetEmbeddedSchema returns the embedded document schema.
func GetEmbeddedSchema() []byte {
	return embeddedSchema
}

// getCompiledSchema returns the compiled JSON schema, compiling it if necessary.
func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(embeddedSchema))
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		compiledSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", err)
		}
	})

	if schemaInitErr != nil {
		return nil, schemaInitErr
	}
	return compiledSchema, nil
}

// CheckSchema validates a parsed document tree against the embedded schema.
// It returns nil when the document has the right shape, a *SchemaError listing
// every violation otherwise.
func CheckSchema(doc interface{}) error {
	schema, err := getCompiledSchema()
	if err != nil {
		return err
	}

	validationErr := schema.Validate(doc)
	if validationErr == nil {
		return nil
	}

	var detailed *jsonschema.ValidationError
	if !errors.As(validationErr, &detailed) {
		return &SchemaError{Violations: []SchemaViolation{{
			Keyword: "validation",
			Reason:  validationErr.Error(),
		}}}
	}

	violations := convertValidationErrors(detailed, nil)
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Path < violations[j].Path
	})
	return &SchemaError{Violations: violations}
}

var printer = message.NewPrinter(language.English)

// convertValidationErrors flattens the jsonschema error tree into leaf
// violations. Missing and unknown fields get one violation per field name.
func convertValidationErrors(err *jsonschema.ValidationError, out []SchemaViolation) []SchemaViolation {
	if len(err.Causes) > 0 {
		for _, cause := range err.Causes {
			out = convertValidationErrors(cause, out)
		}
		return out
	}
	if err.ErrorKind == nil {
		return out
	}

	base := pathutil.FromSegments(err.InstanceLocation)

	switch k := err.ErrorKind.(type) {
	case *kind.AdditionalProperties:
		for _, name := range k.Properties {
			out = append(out, SchemaViolation{
				Path:    pathutil.Field(base, name),
				Keyword: "additionalProperties",
				Reason:  fmt.Sprintf("unknown field %q", name),
			})
		}
	case *kind.Required:
		for _, name := range k.Missing {
			out = append(out, SchemaViolation{
				Path:    pathutil.Field(base, name),
				Keyword: "required",
				Reason:  fmt.Sprintf("missing required field %q", name),
			})
		}
	case *kind.Type:
		out = append(out, SchemaViolation{
			Path:    base,
			Keyword: "type",
			Reason:  fmt.Sprintf("expected %s, got %s", strings.Join(k.Want, " or "), k.Got),
		})
	default:
		out = append(out, SchemaViolation{
			Path:    base,
			Keyword: keywordOf(err.ErrorKind),
			Reason:  err.ErrorKind.LocalizedString(printer),
		})
	}
	return out
}

// keywordOf returns the last keyword of the failing schema location.
func keywordOf(k jsonschema.ErrorKind) string {
	path := k.KeywordPath()
	if len(path) == 0 {
		return "validation"
	}
	return path[len(path)-1]
}
