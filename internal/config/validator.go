package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/devopsdash/dashconfig/internal/pathutil"
	"github.com/devopsdash/dashconfig/pkg/dashboard"
)

// Violation codes. These are stable and safe to match on.
const (
	CodeConfigMissing     = "config.missing"
	CodeTitleEmpty        = "dashboard_title.empty"
	CodeRefreshPositive   = "refresh_interval.positive"
	CodeAPIURLInvalid     = "api_url.invalid"
	CodeSourceNameEmpty   = "data_sources.name.empty"
	CodeSourceDuplicate   = "data_sources.duplicate_name"
	CodeSourceURLInvalid  = "data_sources.url.invalid"
	CodeModelNameEmpty    = "models.name.empty"
	CodeModelDuplicate    = "models.duplicate_name"
	CodeModelTypeInvalid  = "models.model_type.invalid"
	CodeInputEmpty        = "training_data.input.empty"
	CodeOutputEmpty       = "training_data.output.empty"
	CodeInputArity        = "training_data.input.arity"
	CodeOutputArity       = "training_data.output.arity"
	CodeNonFinite         = "training_data.non_finite"
	CodeStageNameEmpty    = "stage.name.empty"
	CodeStageDuplicate    = "stage.duplicate_name"
	CodeSelfDependency    = "stage.self_dependency"
	CodeUnknownDependency = "stage.unknown_dependency"
	CodeDependencyCycle   = "stage.dependency_cycle"
)

// Validate checks every field and cross-field rule of cfg and reports all
// violations found in one pass. When cfg is valid the result carries the stage
// execution order: dependencies first, independent stages in declaration order.
//
// Validate is stateless and does not modify cfg.
func Validate(cfg *dashboard.Config) *ValidationResult {
	if cfg == nil {
		return &ValidationResult{Violations: []Violation{{
			Code:    CodeConfigMissing,
			Message: "configuration is nil",
		}}}
	}

	v := &validator{}
	v.general(cfg)
	v.dataSources(cfg.DataSources)
	v.models(cfg.Models)
	order := v.pipeline(cfg.Pipeline)

	if len(v.violations) > 0 {
		return &ValidationResult{Violations: v.violations}
	}
	return &ValidationResult{Valid: true, Violations: []Violation{}, Order: order}
}

type validator struct {
	violations []Violation
}

func (v *validator) add(code, path, format string, args ...any) *Violation {
	v.violations = append(v.violations, Violation{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
	return &v.violations[len(v.violations)-1]
}

func (v *validator) general(cfg *dashboard.Config) {
	if strings.TrimSpace(cfg.DashboardTitle) == "" {
		v.add(CodeTitleEmpty, "dashboard_title", "dashboard title must not be empty")
	}
	if cfg.RefreshInterval < 1 {
		v.add(CodeRefreshPositive, "refresh_interval", "refresh interval must be at least 1 second, got %d", cfg.RefreshInterval)
	}
	if err := checkAbsoluteURL(cfg.APIURL); err != nil {
		v.add(CodeAPIURLInvalid, "api_url", "%v", err)
	}
}

func (v *validator) dataSources(sources []dashboard.DataSource) {
	seen := make(map[string]int, len(sources))
	for i, ds := range sources {
		base := pathutil.Index("data_sources", i)
		namePath := pathutil.Field(base, "name")
		switch first, dup := seen[ds.Name]; {
		case ds.Name == "":
			v.add(CodeSourceNameEmpty, namePath, "data source name must not be empty")
		case dup:
			v.add(CodeSourceDuplicate, namePath, "data source name %q already used by data_sources[%d]", ds.Name, first)
		default:
			seen[ds.Name] = i
		}
		if err := checkAbsoluteURL(ds.URL); err != nil {
			v.add(CodeSourceURLInvalid, pathutil.Field(base, "url"), "%v", err)
		}
	}
}

func (v *validator) models(models []dashboard.Model) {
	seen := make(map[string]int, len(models))
	for i, m := range models {
		base := pathutil.Index("models", i)
		namePath := pathutil.Field(base, "name")
		switch first, dup := seen[m.Name]; {
		case m.Name == "":
			v.add(CodeModelNameEmpty, namePath, "model name must not be empty")
		case dup:
			v.add(CodeModelDuplicate, namePath, "model name %q already used by models[%d]", m.Name, first)
		default:
			seen[m.Name] = i
		}
		if !m.ModelType.Valid() {
			_, err := dashboard.ParseModelType(string(m.ModelType))
			v.add(CodeModelTypeInvalid, pathutil.Field(base, "model_type"), "%v", err)
		}
		v.trainingData(m.TrainingData, pathutil.Field(base, "training_data"))
	}
}

// trainingData checks each sample and arity coherence. The first sample with a
// non-empty vector sets the expected arity for that vector.
func (v *validator) trainingData(samples []dashboard.TrainingData, base string) {
	inputRef, outputRef := -1, -1
	for j, td := range samples {
		samplePath := pathutil.Index(base, j)
		inputRef = v.vector(td.Input, samples, inputRef, j, pathutil.Field(samplePath, "input"), "input", CodeInputEmpty, CodeInputArity)
		outputRef = v.vector(td.Output, samples, outputRef, j, pathutil.Field(samplePath, "output"), "output", CodeOutputEmpty, CodeOutputArity)
	}
}

// vector validates one side of sample j and returns the index of the sample
// that defines the expected arity (-1 while none does).
func (v *validator) vector(values []float64, samples []dashboard.TrainingData, ref, j int, path, side, emptyCode, arityCode string) int {
	if len(values) == 0 {
		v.add(emptyCode, path, "%s must not be empty", side)
		return ref
	}
	for k, f := range values {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			v.add(CodeNonFinite, pathutil.Index(path, k), "%s value %v is not a finite number", side, f)
		}
	}
	if ref < 0 {
		return j
	}
	want := len(samples[ref].Input)
	if side == "output" {
		want = len(samples[ref].Output)
	}
	if len(values) != want {
		v.add(arityCode, path, "%s has %d values, expected %d (from training_data[%d])", side, len(values), want, ref)
	}
	return ref
}

func (v *validator) pipeline(p dashboard.Pipeline) []string {
	stagesPath := pathutil.Field("pipeline", "stages")
	names := make(map[string]int, len(p.Stages))
	for i, s := range p.Stages {
		namePath := pathutil.Field(pathutil.Index(stagesPath, i), "name")
		switch first, dup := names[s.Name]; {
		case s.Name == "":
			v.add(CodeStageNameEmpty, namePath, "stage name must not be empty")
		case dup:
			v.add(CodeStageDuplicate, namePath, "stage name %q already used by pipeline.stages[%d]", s.Name, first)
		default:
			names[s.Name] = i
		}
	}

	for i, s := range p.Stages {
		depsPath := pathutil.Field(pathutil.Index(stagesPath, i), "dependencies")
		seen := make(map[string]bool, len(s.Dependencies))
		for k, dep := range s.Dependencies {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			depPath := pathutil.Index(depsPath, k)
			if dep == s.Name {
				vi := v.add(CodeSelfDependency, depPath, "stage %q depends on itself", s.Name)
				vi.Stage = s.Name
				continue
			}
			if _, ok := names[dep]; !ok {
				vi := v.add(CodeUnknownDependency, depPath, "stage %q depends on unknown stage %q", s.Name, dep)
				vi.Stage = s.Name
				vi.Missing = dep
			}
		}
	}

	order, cycles := newDependencyGraph(p.Stages).sort()
	v.violations = append(v.violations, cycles...)
	return order
}

// checkAbsoluteURL accepts URLs with a scheme and a host, such as
// "https://api.example.com".
func checkAbsoluteURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("URL must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %v", raw, err)
	}
	if !u.IsAbs() || u.Scheme == "" {
		return fmt.Errorf("URL %q must be absolute (missing scheme)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return fmt.Errorf("URL %q contains whitespace", raw)
	}
	return nil
}
