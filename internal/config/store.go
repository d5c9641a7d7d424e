package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/devopsdash/dashconfig/internal/logger"
	"github.com/devopsdash/dashconfig/pkg/dashboard"
)

// Store is the facade for obtaining, loading, validating and dumping
// configurations. Only validated values leave a Store. A Store holds no mutable
// state and is safe for concurrent use.
type Store struct {
	format Format
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFormat sets the format used by Dump. The default is JSON.
func WithFormat(format Format) StoreOption {
	return func(s *Store) {
		s.format = format
	}
}

// WithLogger sets the logger used by the Store. By default the package logger
// in internal/logger is used.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{format: FormatJSON}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Format returns the dump format of the Store.
func (s *Store) Format() Format {
	return s.format
}

func (s *Store) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Logger
}

// Default returns a fresh copy of the canonical example configuration.
func (s *Store) Default() *dashboard.Config {
	return dashboard.Default()
}

// Load parses text (JSON or YAML, detected from content), checks it against the
// schema, converts it and validates it.
func (s *Store) Load(text string) (*Document, error) {
	return s.LoadFormat(text, "")
}

// LoadFormat is Load with an explicit format. An empty format is detected from
// the content.
func (s *Store) LoadFormat(text string, format Format) (*Document, error) {
	doc, format, err := Parse(text, format)
	if err != nil {
		s.log().Debug("document parse failed", slog.String("format", string(format)), slog.String("error", err.Error()))
		return nil, err
	}

	if err := CheckSchema(doc); err != nil {
		s.logFailure("document schema check failed", format, err)
		return nil, err
	}

	cfg, err := ConvertToConfig(doc)
	if err != nil {
		s.logFailure("document conversion failed", format, err)
		return nil, err
	}

	result, err := s.Validate(cfg)
	if err != nil {
		return nil, err
	}

	s.log().Debug("document loaded",
		slog.String("format", string(format)),
		slog.Int("data_sources", len(cfg.DataSources)),
		slog.Int("models", len(cfg.Models)),
		slog.Int("stages", len(cfg.Pipeline.Stages)))

	return &Document{Config: cfg, Order: result.Order, Format: format}, nil
}

// Validate validates cfg. It returns the result together with a
// *ValidationError when cfg is invalid.
func (s *Store) Validate(cfg *dashboard.Config) (*ValidationResult, error) {
	result := Validate(cfg)
	if !result.Valid {
		s.log().Debug("configuration invalid", slog.Int("violations", len(result.Violations)))
		return result, result.Err()
	}
	s.log().Debug("configuration valid", slog.Any("order", result.Order))
	return result, nil
}

// Dump validates cfg and serializes it in the Store's format. Invalid values
// are refused.
func (s *Store) Dump(cfg *dashboard.Config) (string, error) {
	return s.DumpFormat(cfg, s.format)
}

// DumpFormat is Dump with an explicit format.
func (s *Store) DumpFormat(cfg *dashboard.Config, format Format) (string, error) {
	if _, err := s.Validate(cfg); err != nil {
		return "", err
	}
	return Encode(cfg, format)
}

// Update applies mutate to a copy of cfg and returns the copy if it is still
// valid. cfg itself is never modified.
func (s *Store) Update(cfg *dashboard.Config, mutate func(*dashboard.Config)) (*dashboard.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cannot update nil configuration")
	}
	next := cfg.Clone()
	mutate(next)
	if _, err := s.Validate(next); err != nil {
		return nil, err
	}
	return next, nil
}

// LoadFile reads and loads a document from path. The format comes from the
// file extension, falling back to content detection.
func (s *Store) LoadFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	doc, err := s.LoadFormat(string(content), DetectFormat(path))
	if err != nil {
		if pe, ok := err.(*ParseError); ok && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// DumpFile validates cfg and writes it to path, using the file extension to
// pick the format and the Store's format otherwise. The file is created with
// mode 0600 since credentials are stored in plaintext.
func (s *Store) DumpFile(cfg *dashboard.Config, path string) error {
	format := DetectFormat(path)
	if format == "" {
		format = s.format
	}
	text, err := s.DumpFormat(cfg, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	s.log().Debug("document written", slog.String("path", path), slog.String("format", string(format)))
	return nil
}

func (s *Store) logFailure(msg string, format Format, err error) {
	count := 1
	if se, ok := err.(*SchemaError); ok {
		count = len(se.Violations)
	}
	s.log().Debug(msg, slog.String("format", string(format)), slog.Int("violations", count))
}
