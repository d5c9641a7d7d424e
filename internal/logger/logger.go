// Package logger provides structured logging functionality.
// It wraps the standard log/slog package for consistent logging across the tool.
//
// Logs are written to stderr so that stdout only ever carries documents.
// All helpers use structured logging with consistent field names (snake_case).
//
// The package supports two output formats:
//   - JSON (default): Machine-readable structured logging
//   - Human: Human-readable console output with colors and prefixes
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger is the default logger instance.
var Logger *slog.Logger

var (
	mu     sync.Mutex
	output io.Writer = os.Stderr
	level            = slog.LevelInfo
	format           = FormatJSON
)

func init() {
	rebuild()
}

// OutputFormat represents the log output format
type OutputFormat int

const (
	// FormatJSON is the default machine-readable JSON format
	FormatJSON OutputFormat = iota
	// FormatHuman is a human-readable console format with colors and prefixes
	FormatHuman
)

// ParseFormat converts a flag value ("json", "human") to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "human", "text":
		return FormatHuman, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q (expected json or human)", s)
	}
}

// SetLevel configures the logging level.
func SetLevel(l slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	rebuild()
}

// SetFormat sets the log output format.
func SetFormat(f OutputFormat) {
	mu.Lock()
	defer mu.Unlock()
	format = f
	rebuild()
}

// SetLevelAndFormat sets both the log level and format.
func SetLevelAndFormat(l slog.Level, f OutputFormat) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	format = f
	rebuild()
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// rebuild replaces Logger from the current settings. Callers hold mu.
func rebuild() {
	switch format {
	case FormatHuman:
		Logger = slog.New(NewHumanHandler(output, &HumanHandlerOptions{
			Level:     level,
			UseColors: isTerminal(output),
		}))
	default:
		Logger = slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{
			Level: level,
		}))
	}
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// WithDocument returns a logger with document context.
func WithDocument(path string) *slog.Logger {
	return Logger.With(slog.String("document", path))
}

// WithCommand returns a logger with CLI command context.
func WithCommand(name string) *slog.Logger {
	return Logger.With(slog.String("command", name))
}

// ValidationOutcome summarizes one validation run for logging.
type ValidationOutcome struct {
	// Document is the path or label of the validated document
	Document string
	// Format is the document format (json, yaml)
	Format string
	// Valid indicates whether validation succeeded
	Valid bool
	// Violations is the number of violations found
	Violations int
	// Stages is the number of pipeline stages
	Stages int
	// Duration is the time spent loading and validating
	Duration time.Duration
}

// LogValidation logs the outcome of a validation run. Failures log at warn
// level since the tool itself worked as intended.
func LogValidation(o ValidationOutcome) {
	attrs := []any{
		slog.String("document", o.Document),
		slog.Bool("valid", o.Valid),
		slog.Int("violations", o.Violations),
		slog.Duration("duration", o.Duration),
	}
	if o.Format != "" {
		attrs = append(attrs, slog.String("format", o.Format))
	}
	if o.Stages > 0 {
		attrs = append(attrs, slog.Int("stages", o.Stages))
	}
	if o.Valid {
		Logger.Info("validation succeeded", attrs...)
		return
	}
	Logger.Warn("validation failed", attrs...)
}

// isTerminal returns true if the writer is a terminal (supports colors)
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		fi, err := f.Stat()
		if err != nil {
			return false
		}
		return (fi.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// =============================================================================
// Human-Readable Log Format Support
// =============================================================================

// HumanHandlerOptions configures the human-readable log handler.
type HumanHandlerOptions struct {
	// Level is the minimum log level to output
	Level slog.Level
	// UseColors enables ANSI color codes
	UseColors bool
}

// HumanHandler is a slog handler that outputs human-readable log messages.
type HumanHandler struct {
	opts   HumanHandlerOptions
	writer io.Writer
	attrs  []slog.Attr
	group  string
}

// NewHumanHandler creates a new human-readable log handler.
func NewHumanHandler(w io.Writer, opts *HumanHandlerOptions) *HumanHandler {
	if opts == nil {
		opts = &HumanHandlerOptions{Level: slog.LevelInfo}
	}
	return &HumanHandler{
		opts:   *opts,
		writer: w,
	}
}

// Enabled returns true if the handler is enabled for the given level.
func (h *HumanHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// Handle outputs a log record in human-readable format.
func (h *HumanHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Time.Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(h.levelPrefix(r.Level, r.Message))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	for _, a := range h.attrs {
		sb.WriteString(" ")
		sb.WriteString(h.formatAttr(a))
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		sb.WriteString(" ")
		sb.WriteString(h.formatAttr(a))
		return true
	})

	sb.WriteString("\n")
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup returns a new handler that prefixes attribute keys with name.
func (h *HumanHandler) WithGroup(name string) slog.Handler {
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}

// levelPrefix returns a prefix for the log level, using ✓ for success messages.
func (h *HumanHandler) levelPrefix(level slog.Level, message string) string {
	msg := strings.ToLower(message)
	isSuccess := strings.Contains(msg, "succeeded") ||
		strings.Contains(msg, "loaded") ||
		strings.Contains(msg, "written")

	const (
		colorReset  = "\033[0m"
		colorRed    = "\033[31m"
		colorYellow = "\033[33m"
		colorGreen  = "\033[32m"
		colorCyan   = "\033[36m"
	)

	var prefix, color string
	switch {
	case level >= slog.LevelError:
		prefix, color = "✗", colorRed
	case level >= slog.LevelWarn:
		prefix, color = "⚠", colorYellow
	case level >= slog.LevelInfo && isSuccess:
		prefix, color = "✓", colorGreen
	case level >= slog.LevelInfo:
		prefix, color = "ℹ", colorCyan
	default:
		prefix, color = "·", colorReset
	}

	if h.opts.UseColors {
		return color + prefix + colorReset
	}
	return prefix
}

// formatAttr formats a single attribute for display.
func (h *HumanHandler) formatAttr(a slog.Attr) string {
	key := a.Key
	value := a.Value.Resolve().Any()

	if d, ok := value.(time.Duration); ok {
		return fmt.Sprintf("%s=%s", key, formatDuration(d))
	}
	if f, ok := value.(float64); ok {
		return fmt.Sprintf("%s=%.2f", key, f)
	}
	return fmt.Sprintf("%s=%v", key, value)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
