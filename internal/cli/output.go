package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/devopsdash/dashconfig/internal/config"
	"github.com/devopsdash/dashconfig/pkg/dashboard"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	boldColor    = color.New(color.Bold)
)

// summaryBox frames the describe output.
var summaryBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("86")).
	Padding(0, 1)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
}

// Printer writes command results to Out and diagnostics to Err.
type Printer struct {
	Out  io.Writer
	Err  io.Writer
	Opts OutputOptions
}

// NewPrinter creates a Printer.
func NewPrinter(out, errOut io.Writer, opts OutputOptions) *Printer {
	return &Printer{Out: out, Err: errOut, Opts: opts}
}

func (p *Printer) success(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func (p *Printer) failure(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// PrintValid reports a successful validation. In verbose mode the stage
// execution order follows.
func (p *Printer) PrintValid(doc *config.Document) {
	if p.Opts.Quiet {
		return
	}
	p.success(p.Out, "Configuration is valid (format: %s)", doc.Format)
	if p.Opts.Verbose {
		fmt.Fprintf(p.Out, "  Stage order: %s\n", formatOrder(doc.Order))
		fmt.Fprintf(p.Out, "  Data sources: %d\n", len(doc.Config.DataSources))
		fmt.Fprintf(p.Out, "  Models: %d\n", len(doc.Config.Models))
	}
}

// PrintDocument writes a serialized document to the output stream as is.
func (p *Printer) PrintDocument(text string) {
	fmt.Fprint(p.Out, text)
}

// PrintSummary prints a boxed overview of a loaded configuration.
// Credentials and tokens are never shown.
func (p *Printer) PrintSummary(doc *config.Document) {
	cfg := doc.Config

	var sb strings.Builder
	sb.WriteString(boldColor.Sprint(cfg.DashboardTitle))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Refresh interval: %ds\n", cfg.RefreshInterval)
	fmt.Fprintf(&sb, "API:              %s\n", cfg.APIURL)
	fmt.Fprintf(&sb, "Data sources:     %s\n", countedNames(len(cfg.DataSources), sourceNames(cfg.DataSources)))
	fmt.Fprintf(&sb, "Models:           %s\n", countedNames(len(cfg.Models), modelNames(cfg.Models)))
	fmt.Fprintf(&sb, "Stage order:      %s", formatOrder(doc.Order))

	fmt.Fprintln(p.Out, summaryBox.Render(sb.String()))
}

func formatOrder(order []string) string {
	if len(order) == 0 {
		return "(no stages)"
	}
	return strings.Join(order, " → ")
}

func countedNames(n int, names []string) string {
	if n == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%s)", n, strings.Join(names, ", "))
}

func sourceNames(sources []dashboard.DataSource) []string {
	names := make([]string, len(sources))
	for i, ds := range sources {
		names[i] = ds.Name
		if ds.Credentials.Anonymous() {
			names[i] += " [anonymous]"
		}
	}
	return names
}

func modelNames(models []dashboard.Model) []string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = fmt.Sprintf("%s [%s, %d samples]", m.Name, m.ModelType, len(m.TrainingData))
	}
	return names
}
