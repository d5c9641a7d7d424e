// Package cli provides CLI output formatting and display functions.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/devopsdash/dashconfig/internal/config"
)

// PrintError prints err to the error stream, with a dedicated layout for the
// typed config errors.
func (p *Printer) PrintError(err error) {
	var (
		parseErr  *config.ParseError
		schemaErr *config.SchemaError
		validErr  *config.ValidationError
	)
	switch {
	case errors.As(err, &parseErr):
		p.PrintParseError(parseErr)
	case errors.As(err, &schemaErr):
		p.PrintSchemaViolations(schemaErr.Violations)
	case errors.As(err, &validErr):
		p.PrintViolations(validErr.Violations)
	default:
		p.failure(p.Err, "Error: %v", err)
	}
}

// PrintParseError prints a parse error with location information.
func (p *Printer) PrintParseError(err *config.ParseError) {
	p.failure(p.Err, "Parse error:")
	location := formatErrorLocation(err.Path, err.Line, err.Column)

	if location != "" {
		fmt.Fprintf(p.Err, "  %s: %s\n", location, err.Message)
	} else {
		fmt.Fprintf(p.Err, "  %s\n", err.Message)
	}

	if p.Opts.Verbose && err.Type != "" {
		fmt.Fprintf(p.Err, "    Type: %s\n", err.Type)
		if err.Format != "" {
			fmt.Fprintf(p.Err, "    Format: %s\n", err.Format)
		}
	}
}

// formatErrorLocation formats the error location string (path:line:column).
func formatErrorLocation(path string, line, column int) string {
	if path == "" {
		if line == 0 {
			return ""
		}
		path = "<input>"
	}

	location := path
	if line > 0 {
		location += fmt.Sprintf(":%d", line)
		if column > 0 {
			location += fmt.Sprintf(":%d", column)
		}
	}
	return location
}

// PrintSchemaViolations prints document shape errors.
func (p *Printer) PrintSchemaViolations(violations []config.SchemaViolation) {
	p.failure(p.Err, "Schema errors:")
	for _, v := range violations {
		path := displayPath(v.Path)
		if p.Opts.Verbose {
			fmt.Fprintf(p.Err, "  %s:\n", path)
			fmt.Fprintf(p.Err, "    Message: %s\n", v.Reason)
			if v.Keyword != "" {
				fmt.Fprintf(p.Err, "    Keyword: %s\n", v.Keyword)
			}
		} else {
			printCompactError(p.Err, path, v.Reason)
		}
	}
	p.printHint()
}

// PrintViolations prints validation and policy violations.
func (p *Printer) PrintViolations(violations []config.Violation) {
	p.failure(p.Err, "Validation errors:")
	for _, v := range violations {
		if p.Opts.Verbose {
			printVerboseViolation(p.Err, v)
		} else {
			printCompactError(p.Err, displayPath(v.Path), fmt.Sprintf("[%s] %s", v.Code, v.Message))
		}
	}
	p.printHint()
}

// printVerboseViolation prints detailed violation information.
func printVerboseViolation(w io.Writer, v config.Violation) {
	fmt.Fprintf(w, "  %s:\n", displayPath(v.Path))
	fmt.Fprintf(w, "    Code: %s\n", v.Code)
	fmt.Fprintf(w, "    Message: %s\n", v.Message)
	if v.Stage != "" {
		fmt.Fprintf(w, "    Stage: %s\n", v.Stage)
	}
	if v.Missing != "" {
		fmt.Fprintf(w, "    Missing: %s\n", v.Missing)
	}
	if len(v.Cycle) > 0 {
		fmt.Fprintf(w, "    Cycle: %s\n", strings.Join(v.Cycle, " -> "))
	}
}

// printCompactError prints a compact one-line error message.
func printCompactError(w io.Writer, path, message string) {
	shortMsg := message
	if runes := []rune(shortMsg); len(runes) > 80 {
		shortMsg = string(runes[:77]) + "..."
	}
	fmt.Fprintf(w, "  %s: %s\n", path, shortMsg)
}

// printHint prints a hint about verbose mode.
func (p *Printer) printHint() {
	if !p.Opts.Quiet && !p.Opts.Verbose {
		fmt.Fprintln(p.Err, "")
		fmt.Fprintln(p.Err, "Hint: Use --verbose for detailed error information")
	}
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
