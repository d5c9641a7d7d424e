// Package main provides the CLI entry point for dashconfig.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/devopsdash/dashconfig/internal/cli"
	"github.com/devopsdash/dashconfig/internal/config"
	"github.com/devopsdash/dashconfig/internal/errhandling"
	"github.com/devopsdash/dashconfig/internal/logger"
	"github.com/devopsdash/dashconfig/internal/policy"
)

var (
	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app holds the flags and streams of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// Global flags
	verbose   bool
	quiet     bool
	logFormat string

	// Command flags
	format     string
	policyPath string
	write      bool
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	defer logger.SetOutput(os.Stderr)

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err != nil {
		a.printer().PrintError(err)
	}
	return errhandling.ExitCodeFor(err)
}

func (a *app) printer() *cli.Printer {
	return cli.NewPrinter(a.stdout, a.stderr, cli.OutputOptions{Verbose: a.verbose, Quiet: a.quiet})
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dashconfig",
		Short: "dashconfig - DevOps dashboard configuration tool",
		Long: `dashconfig validates, formats and describes AI DevOps dashboard
configurations (JSON/YAML format).

A configuration declares the dashboard settings, its data sources,
its machine-learning models with training data, and a pipeline of
stages with dependencies. The pipeline must form a DAG.

Examples:
  # Validate a configuration file
  dashconfig validate dashboard.yaml

  # Validate against extra policy rules
  dashconfig validate --policy rules.yaml dashboard.json

  # Print the default configuration as YAML
  dashconfig emit-default --format yaml`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.configureLogging()
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "json", "Log format on stderr: json or human")

	root.AddCommand(
		a.validateCommand(),
		a.emitDefaultCommand(),
		a.fmtCommand(),
		a.describeCommand(),
		a.schemaCommand(),
		a.versionCommand(),
	)
	return root
}

// configureLogging maps the global flags onto the package logger.
func (a *app) configureLogging() error {
	if a.verbose && a.quiet {
		return errhandling.NewUsageError("--verbose and --quiet are mutually exclusive")
	}
	format, err := logger.ParseFormat(a.logFormat)
	if err != nil {
		return errhandling.NewUsageError(err.Error())
	}

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	} else if a.quiet {
		level = slog.LevelError
	}
	logger.SetOutput(a.stderr)
	logger.SetLevelAndFormat(level, format)
	return nil
}

// parseFormat resolves the --format flag. An empty value yields fallback.
func (a *app) parseFormat(fallback config.Format) (config.Format, error) {
	if a.format == "" {
		return fallback, nil
	}
	format, ok := config.ParseFormat(a.format)
	if !ok {
		return "", errhandling.NewUsageError(fmt.Sprintf("unsupported format %q (expected json or yaml)", a.format))
	}
	return format, nil
}

func (a *app) validateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a dashboard configuration file",
		Long: `Validate a dashboard configuration file.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

The document is checked for syntax, for its shape (no missing or
unknown fields), and for every configuration rule: non-empty names,
absolute URLs, consistent training data, and an acyclic pipeline.
With --policy, the rules of a policy file are checked as well.

Exit codes:
  0 - Configuration is valid
  1 - The file or the policy could not be read
  2 - Configuration is invalid (syntax, shape, rules or policy)

Examples:
  dashconfig validate dashboard.json
  dashconfig validate --verbose dashboard.yaml
  dashconfig validate --policy rules.yaml dashboard.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: a.runValidate,
	}
	cmd.Flags().StringVar(&a.policyPath, "policy", "", "Policy rules file (YAML)")
	return cmd
}

func (a *app) runValidate(_ *cobra.Command, args []string) error {
	path := args[0]
	log := logger.WithCommand("validate")
	start := time.Now()

	var rules *policy.Policy
	if a.policyPath != "" {
		p, err := policy.LoadFile(a.policyPath)
		if err != nil {
			return err
		}
		rules = p
		if len(p.Rules()) == 0 {
			logger.Warn("policy file contains no rules", slog.String("policy", a.policyPath))
		}
		log.Debug("policy loaded", slog.String("policy", a.policyPath), slog.Int("rules", len(p.Rules())))
	}

	store := config.NewStore(config.WithLogger(logger.WithDocument(path)))
	doc, err := store.LoadFile(path)
	if err == nil && rules != nil {
		err = rules.Check(doc)
	}

	outcome := logger.ValidationOutcome{
		Document: path,
		Valid:    err == nil,
		Duration: time.Since(start),
	}
	if doc != nil {
		outcome.Format = string(doc.Format)
		outcome.Stages = len(doc.Order)
	}
	outcome.Violations = violationCount(err)
	if err != nil && !errhandling.IsInvalidInput(err) {
		logger.Error("validation aborted",
			slog.String("document", path),
			slog.String("category", string(errhandling.GetErrorCategory(err))),
			slog.String("error", err.Error()))
		return err
	}
	logger.LogValidation(outcome)
	if err != nil {
		return err
	}

	a.printer().PrintValid(doc)
	return nil
}

// violationCount returns the number of problems carried by a load error.
func violationCount(err error) int {
	switch e := err.(type) {
	case nil:
		return 0
	case *config.SchemaError:
		return len(e.Violations)
	case *config.ValidationError:
		return len(e.Violations)
	default:
		return 1
	}
}

func (a *app) emitDefaultCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit-default",
		Short: "Print the default configuration",
		Long: `Print the built-in default configuration to stdout.

The output is canonical: loading it and dumping it again yields the
same bytes.

Examples:
  dashconfig emit-default > dashboard.json
  dashconfig emit-default --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			format, err := a.parseFormat(config.FormatJSON)
			if err != nil {
				return err
			}
			store := config.NewStore(config.WithFormat(format))
			text, err := store.Dump(store.Default())
			if err != nil {
				return err
			}
			a.printer().PrintDocument(text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&a.format, "format", "f", "", "Output format: json (default) or yaml")
	return cmd
}

func (a *app) fmtCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt <config-file>",
		Short: "Rewrite a configuration in canonical form",
		Long: `Load and validate a configuration, then print it in canonical form.

Only valid configurations are formatted. The output keeps the input
format unless --format is given. With --write the file is rewritten
in place instead (its extension decides the format).

Examples:
  dashconfig fmt dashboard.yaml
  dashconfig fmt --format json dashboard.yaml > dashboard.json
  dashconfig fmt --write dashboard.json`,
		Args: cobra.ExactArgs(1),
		RunE: a.runFmt,
	}
	cmd.Flags().StringVarP(&a.format, "format", "f", "", "Output format: json or yaml (default: input format)")
	cmd.Flags().BoolVarP(&a.write, "write", "w", false, "Rewrite the file in place")
	return cmd
}

func (a *app) runFmt(_ *cobra.Command, args []string) error {
	path := args[0]
	store := config.NewStore(config.WithLogger(logger.WithDocument(path)))

	doc, err := store.LoadFile(path)
	if err != nil {
		return err
	}

	if a.write {
		if a.format != "" {
			return errhandling.NewUsageError("--format cannot be combined with --write")
		}
		if err := store.DumpFile(doc.Config, path); err != nil {
			return err
		}
		logger.Info("document written", slog.String("command", "fmt"), slog.String("document", path))
		return nil
	}

	format, err := a.parseFormat(doc.Format)
	if err != nil {
		return err
	}
	text, err := store.DumpFormat(doc.Config, format)
	if err != nil {
		return err
	}
	a.printer().PrintDocument(text)
	return nil
}

func (a *app) describeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <config-file>",
		Short: "Summarize a configuration",
		Long: `Load and validate a configuration, then print a summary: title,
refresh interval, data sources, models and the stage execution order.

Credentials are never printed.

Examples:
  dashconfig describe dashboard.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store := config.NewStore(config.WithLogger(logger.WithDocument(args[0])))
			doc, err := store.LoadFile(args[0])
			if err != nil {
				return err
			}
			a.printer().PrintSummary(doc)
			return nil
		},
	}
}

func (a *app) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of configuration documents",
		Long: `Print the JSON Schema (draft 2020-12) that configuration documents
are checked against. Editors can use it for completion and linting.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a.printer().PrintDocument(string(config.GetEmbeddedSchema()))
			return nil
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "Version: %s\n", version)
			fmt.Fprintf(a.stdout, "Commit: %s\n", commit)
			fmt.Fprintf(a.stdout, "Build Date: %s\n", buildDate)
		},
	}
}
