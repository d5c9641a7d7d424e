package policy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devopsdash/dashconfig/internal/config"
	"github.com/devopsdash/dashconfig/pkg/dashboard"
)

func loadDocument(t *testing.T, cfg *dashboard.Config) *config.Document {
	t.Helper()
	text, err := config.NewStore().Dump(cfg)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	doc, err := config.NewStore().Load(text)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return doc
}

func TestLoadFile(t *testing.T) {
	p, err := LoadFile("testdata/rules.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rules := p.Rules()
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	if rules[0].Name != "fast-refresh" || rules[2].Message != "the Test stage must run before Deploy" {
		t.Errorf("unexpected rules %+v", rules)
	}
}

func TestEvaluate_DefaultPasses(t *testing.T) {
	p, err := LoadFile("testdata/rules.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	violations, err := p.Evaluate(loadDocument(t, dashboard.Default()))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("expected default to pass, got %v", violations)
	}
}

func TestEvaluate_ReportsEveryFailure(t *testing.T) {
	p, err := LoadFile("testdata/rules.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cfg := dashboard.Default()
	cfg.RefreshInterval = 900
	cfg.DataSources[0].URL = "http://api.github.com"
	cfg.Pipeline.Stages = []dashboard.PipelineStage{
		{Name: "Build", Script: "make", Dependencies: []string{}},
		{Name: "Deploy", Script: "ship", Dependencies: []string{"Build"}},
		{Name: "Test", Script: "make test", Dependencies: []string{"Build"}},
	}

	violations, err := p.Evaluate(loadDocument(t, cfg))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	want := []string{"policy.fast-refresh", "policy.https-only", "policy.tested-before-deploy"}
	if len(violations) != len(want) {
		t.Fatalf("expected %d violations, got %v", len(want), violations)
	}
	for i, v := range violations {
		if v.Code != CodePolicyFailed {
			t.Errorf("code = %q", v.Code)
		}
		if v.Path != want[i] {
			t.Errorf("path = %q, want %q", v.Path, want[i])
		}
	}
	if violations[0].Message != "dashboards must refresh at least every 5 minutes" {
		t.Errorf("message = %q", violations[0].Message)
	}
	if !strings.Contains(violations[1].Message, "https-only") {
		t.Errorf("expected default message naming the rule, got %q", violations[1].Message)
	}
}

func TestCheck(t *testing.T) {
	p, err := Compile([]Rule{{Name: "two-stages", Expr: "len(pipeline.stages) == 2"}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if err := p.Check(loadDocument(t, dashboard.Default())); err != nil {
		t.Errorf("expected pass, got %v", err)
	}

	cfg := dashboard.Default()
	cfg.Pipeline.Stages = cfg.Pipeline.Stages[:1]
	err = p.Check(loadDocument(t, cfg))
	var verr *config.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected *config.ValidationError, got %v", err)
	}
	if !verr.Has(CodePolicyFailed) {
		t.Errorf("codes = %v", verr.Codes())
	}
}

func TestCompile_Errors(t *testing.T) {
	_, err := LoadFile("testdata/bad-rules.yaml")
	if !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}

	msg := err.Error()
	for _, want := range []string{
		"rules[0] (typo)",
		"rules[1] (not-boolean)",
		"rules[2]: rule name must not be empty",
		"rules[3] (typo): duplicate rule name",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in error, got:\n%s", want, msg)
		}
	}
}

func TestParse_UnknownKey(t *testing.T) {
	content, err := os.ReadFile("testdata/unknown-key.yaml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := Parse(content); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected unknown key to be rejected, got %v", err)
	}
}

func TestParse_Empty(t *testing.T) {
	p, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	violations, err := p.Evaluate(loadDocument(t, dashboard.Default()))
	if err != nil || len(violations) != 0 {
		t.Errorf("expected empty policy to pass, got %v, %v", violations, err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestEvaluate_RuntimeError(t *testing.T) {
	p, err := Compile([]Rule{{Name: "third-stage", Expr: `pipeline.stages[2].name == "Deploy"`}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	_, err = p.Evaluate(loadDocument(t, dashboard.Default()))
	if !errors.Is(err, ErrEvaluation) {
		t.Errorf("expected evaluation error, got %v", err)
	}
	if _, err := p.Evaluate(nil); !errors.Is(err, ErrEvaluation) {
		t.Errorf("expected evaluation error for nil document, got %v", err)
	}
}
