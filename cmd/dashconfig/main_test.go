package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/devopsdash/dashconfig/internal/errhandling"
)

// testFixturePath returns the path to test fixtures
func testFixturePath(filename string) string {
	return filepath.Join("..", "..", "internal", "config", "testdata", filename)
}

// runCLI runs the command line in-process and returns stdout, stderr, and exit code
func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = run(args, &stdoutBuf, &stderrBuf)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestCLI_Help(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "--help")

	if exitCode != errhandling.ExitOK {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	for _, want := range []string{"dashconfig", "validate", "emit-default", "describe"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestCLI_ValidateValidJSON(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "validate", testFixturePath("default.json"))

	if exitCode != errhandling.ExitOK {
		t.Errorf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "✓ Configuration is valid (format: json)") {
		t.Errorf("expected success message, got: %s", stdout)
	}
	if !strings.Contains(stderr, "validation succeeded") {
		t.Errorf("expected validation log on stderr, got: %s", stderr)
	}
}

func TestCLI_ValidateValidYAMLVerbose(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "validate", "--verbose", testFixturePath("valid-config.yaml"))

	if exitCode != errhandling.ExitOK {
		t.Errorf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "format: yaml") {
		t.Errorf("expected output to mention 'yaml' format, got: %s", stdout)
	}
	if !strings.Contains(stdout, "Stage order: Build → Test → Deploy") {
		t.Errorf("expected stage order, got: %s", stdout)
	}
}

func TestCLI_ValidateQuiet(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "validate", "--quiet", testFixturePath("default.json"))

	if exitCode != errhandling.ExitOK {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if stdout != "" || stderr != "" {
		t.Errorf("expected no output, got stdout %q stderr %q", stdout, stderr)
	}
}

func TestCLI_ValidateInvalid(t *testing.T) {
	tests := []struct {
		fixture string
		want    string
	}{
		{"invalid-json.json", "✗ Parse error:"},
		{"empty.json", "✗ Parse error:"},
		{"unknown-field.json", "data_sources[0].credentials.token"},
		{"missing-field.yaml", "pipeline.stages[0].script"},
		{"cycle.yaml", "[stage.dependency_cycle] dependency cycle: A -> B -> A"},
		{"invalid-rules.json", "[stage.unknown_dependency]"},
	}
	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			_, stderr, exitCode := runCLI(t, "validate", testFixturePath(tt.fixture))

			if exitCode != errhandling.ExitInvalid {
				t.Errorf("expected exit code %d, got %d\nstderr: %s", errhandling.ExitInvalid, exitCode, stderr)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("expected stderr to contain %q, got: %s", tt.want, stderr)
			}
		})
	}
}

func TestCLI_ValidateParseErrorLocation(t *testing.T) {
	path := testFixturePath("invalid-json.json")
	_, stderr, _ := runCLI(t, "validate", path)

	if !strings.Contains(stderr, path+":5:") {
		t.Errorf("expected file:line location, got: %s", stderr)
	}
}

func TestCLI_ValidateMissingFile(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate", filepath.Join(t.TempDir(), "nope.json"))

	if exitCode != errhandling.ExitError {
		t.Errorf("expected exit code %d, got %d", errhandling.ExitError, exitCode)
	}
	if !strings.Contains(stderr, "failed to read file") {
		t.Errorf("expected read error, got: %s", stderr)
	}
	for _, want := range []string{`"msg":"validation aborted"`, `"category":"io"`} {
		if !strings.Contains(stderr, want) {
			t.Errorf("expected %s in the error log, got: %s", want, stderr)
		}
	}
}

func TestCLI_ValidateEmptyPolicy(t *testing.T) {
	rules := writeFile(t, "rules.yaml", "rules: []\n")

	_, stderr, exitCode := runCLI(t, "validate", "--policy", rules, testFixturePath("default.json"))
	if exitCode != errhandling.ExitOK {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", errhandling.ExitOK, exitCode, stderr)
	}
	if !strings.Contains(stderr, `"msg":"policy file contains no rules"`) {
		t.Errorf("expected a warning for the empty policy, got: %s", stderr)
	}
}

func TestCLI_ValidateWithPolicy(t *testing.T) {
	rules := writeFile(t, "rules.yaml", `rules:
  - name: slow-refresh
    expr: refresh_interval >= 120
    message: refresh no more than every two minutes
  - name: has-build
    expr: '"Build" in order'
`)

	_, stderr, exitCode := runCLI(t, "validate", "--policy", rules, testFixturePath("default.json"))
	if exitCode != errhandling.ExitInvalid {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", errhandling.ExitInvalid, exitCode, stderr)
	}
	if !strings.Contains(stderr, "policy.slow-refresh: [policy.failed] refresh no more than every two minutes") {
		t.Errorf("expected policy violation, got: %s", stderr)
	}
	if strings.Contains(stderr, "policy.has-build") {
		t.Errorf("passing rule reported: %s", stderr)
	}

	stdout, stderr, exitCode := runCLI(t, "validate", "--policy", rules, testFixturePath("valid-config.yaml"))
	if exitCode != errhandling.ExitInvalid {
		t.Errorf("expected refresh 30 to fail the policy, got %d\nstdout: %s\nstderr: %s", exitCode, stdout, stderr)
	}
}

func TestCLI_ValidateBadPolicy(t *testing.T) {
	rules := writeFile(t, "rules.yaml", "rules:\n  - name: typo\n    expr: refresh > 0\n")

	_, stderr, exitCode := runCLI(t, "validate", "--policy", rules, testFixturePath("default.json"))
	if exitCode != errhandling.ExitError {
		t.Errorf("expected exit code %d, got %d", errhandling.ExitError, exitCode)
	}
	if !strings.Contains(stderr, "rules[0] (typo)") {
		t.Errorf("expected rule error, got: %s", stderr)
	}
}

func TestCLI_EmitDefault(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "emit-default")
	if exitCode != errhandling.ExitOK {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}

	golden, err := os.ReadFile(testFixturePath("default.json"))
	if err != nil {
		t.Fatalf("read golden file: %v", err)
	}
	if stdout != string(golden) {
		t.Errorf("emit-default differs from golden file:\n%s", stdout)
	}
}

func TestCLI_EmitDefaultRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			first, _, exitCode := runCLI(t, "emit-default", "--format", format)
			if exitCode != errhandling.ExitOK {
				t.Fatalf("emit-default failed with %d", exitCode)
			}

			path := writeFile(t, "dash."+format, first)
			second, stderr, exitCode := runCLI(t, "fmt", path)
			if exitCode != errhandling.ExitOK {
				t.Fatalf("fmt failed with %d: %s", exitCode, stderr)
			}
			if first != second {
				t.Errorf("fmt changed canonical output\nfirst:\n%s\nsecond:\n%s", first, second)
			}
		})
	}
}

func TestCLI_EmitDefaultBadFormat(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "emit-default", "--format", "xml")

	if exitCode != errhandling.ExitError {
		t.Errorf("expected exit code %d, got %d", errhandling.ExitError, exitCode)
	}
	if !strings.Contains(stderr, `unsupported format "xml"`) {
		t.Errorf("expected format error, got: %s", stderr)
	}
}

func TestCLI_FmtConvertsFormat(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "fmt", "--format", "json", testFixturePath("valid-config.yaml"))

	if exitCode != errhandling.ExitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, stderr)
	}
	if !strings.HasPrefix(stdout, "{\n  \"dashboard_title\": \"Release Dashboard\"") {
		t.Errorf("expected canonical JSON, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "12.25") || !strings.Contains(stdout, "10.0") {
		t.Errorf("expected real numbers in canonical form, got:\n%s", stdout)
	}
}

func TestCLI_FmtWrite(t *testing.T) {
	path := writeFile(t, "dash.yaml", "# hand written\n"+strings.ReplaceAll(mustRead(t, testFixturePath("valid-config.yaml")), "# Release dashboard\n", ""))

	stdout, stderr, exitCode := runCLI(t, "fmt", "--write", path)
	if exitCode != errhandling.ExitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, stderr)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, `"msg":"document written"`) {
		t.Errorf("expected a write log, got: %s", stderr)
	}
	rewritten := mustRead(t, path)
	if strings.Contains(rewritten, "# hand written") {
		t.Error("expected file to be rewritten")
	}
	if !strings.Contains(rewritten, "input: [1.0, 2.5]") {
		t.Errorf("expected canonical YAML, got:\n%s", rewritten)
	}
}

func TestCLI_FmtRefusesInvalid(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "fmt", testFixturePath("cycle.yaml"))

	if exitCode != errhandling.ExitInvalid {
		t.Errorf("expected exit code %d, got %d", errhandling.ExitInvalid, exitCode)
	}
	if stdout != "" {
		t.Errorf("expected no document for invalid input, got %q", stdout)
	}
}

func TestCLI_Describe(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "describe", testFixturePath("valid-config.yaml"))

	if exitCode != errhandling.ExitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, stderr)
	}
	for _, want := range []string{"Release Dashboard", "Refresh interval: 30s", "Public Metrics [anonymous]", "Build → Test → Deploy"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in summary:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "hunter2") || strings.Contains(stdout, "token-123") {
		t.Error("summary leaks credentials")
	}
}

func TestCLI_Schema(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "schema")

	if exitCode != errhandling.ExitOK {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stdout, `"$schema"`) || !strings.Contains(stdout, "model_type") {
		t.Errorf("expected JSON schema, got:\n%s", stdout)
	}
}

func TestCLI_Version(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "version")

	if exitCode != errhandling.ExitOK {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stdout, "Version: dev") {
		t.Errorf("expected version output, got: %s", stdout)
	}
}

func TestCLI_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"deploy"}},
		{"missing argument", []string{"validate"}},
		{"verbose and quiet", []string{"validate", "-v", "-q", testFixturePath("default.json")}},
		{"bad log format", []string{"--log-format", "xml", "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, exitCode := runCLI(t, tt.args...)
			if exitCode != errhandling.ExitError {
				t.Errorf("expected exit code %d, got %d\nstderr: %s", errhandling.ExitError, exitCode, stderr)
			}
			if !strings.Contains(stderr, "✗") {
				t.Errorf("expected an error message, got: %s", stderr)
			}
		})
	}
}

func TestCLI_HumanLogs(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "--log-format", "human", "validate", testFixturePath("default.json"))

	if exitCode != errhandling.ExitOK {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stderr, "✓ validation succeeded") {
		t.Errorf("expected human-readable log line, got: %s", stderr)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(content)
}
