package config

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/devopsdash/dashconfig/internal/pathutil"
	"github.com/devopsdash/dashconfig/pkg/dashboard"
)

// ConvertToConfig converts a schema-checked document tree to a Config.
//
// The document is expected to have this structure:
//
//	{
//	  "dashboard_title": "...",
//	  "refresh_interval": 60,
//	  "api_url": "...",
//	  "api_token": "...",
//	  "data_sources": [{"name": "...", "url": "...", "credentials": {...}}],
//	  "models": [{"name": "...", "model_type": "...", "training_data": [...]}],
//	  "pipeline": {"stages": [{"name": "...", "script": "...", "dependencies": [...]}]}
//	}
//
// Shape problems that slip past the schema (such as a refresh interval that
// overflows uint64) are returned as a *SchemaError.
func ConvertToConfig(doc interface{}) (*dashboard.Config, error) {
	c := &converter{}
	cfg := c.config(doc)
	if len(c.violations) > 0 {
		return nil, &SchemaError{Violations: c.violations}
	}
	return cfg, nil
}

type converter struct {
	violations []SchemaViolation
}

func (c *converter) fail(path, keyword, format string, args ...any) {
	c.violations = append(c.violations, SchemaViolation{
		Path:    path,
		Keyword: keyword,
		Reason:  fmt.Sprintf(format, args...),
	})
}

func (c *converter) object(v interface{}, path string) map[string]interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		c.fail(path, "type", "expected object, got %s", typeName(v))
		return map[string]interface{}{}
	}
	return m
}

func (c *converter) array(v interface{}, path string) []interface{} {
	a, ok := v.([]interface{})
	if !ok {
		c.fail(path, "type", "expected array, got %s", typeName(v))
		return nil
	}
	return a
}

func (c *converter) str(m map[string]interface{}, key, base string) string {
	path := pathutil.Field(base, key)
	s, ok := m[key].(string)
	if !ok {
		c.fail(path, "type", "expected string, got %s", typeName(m[key]))
	}
	return s
}

func (c *converter) config(doc interface{}) *dashboard.Config {
	root := c.object(doc, "")
	cfg := &dashboard.Config{
		DashboardTitle:  c.str(root, "dashboard_title", ""),
		RefreshInterval: c.unsigned(root["refresh_interval"], "refresh_interval"),
		APIURL:          c.str(root, "api_url", ""),
		APIToken:        c.str(root, "api_token", ""),
		DataSources:     []dashboard.DataSource{},
		Models:          []dashboard.Model{},
		Pipeline:        dashboard.Pipeline{Stages: []dashboard.PipelineStage{}},
	}

	for i, item := range c.array(root["data_sources"], "data_sources") {
		cfg.DataSources = append(cfg.DataSources, c.dataSource(item, pathutil.Index("data_sources", i)))
	}
	for i, item := range c.array(root["models"], "models") {
		cfg.Models = append(cfg.Models, c.model(item, pathutil.Index("models", i)))
	}

	pipeline := c.object(root["pipeline"], "pipeline")
	stagesPath := pathutil.Field("pipeline", "stages")
	for i, item := range c.array(pipeline["stages"], stagesPath) {
		cfg.Pipeline.Stages = append(cfg.Pipeline.Stages, c.stage(item, pathutil.Index(stagesPath, i)))
	}
	return cfg
}

func (c *converter) dataSource(v interface{}, path string) dashboard.DataSource {
	m := c.object(v, path)
	credsPath := pathutil.Field(path, "credentials")
	creds := c.object(m["credentials"], credsPath)
	return dashboard.DataSource{
		Name: c.str(m, "name", path),
		URL:  c.str(m, "url", path),
		Credentials: dashboard.Credentials{
			Username: c.str(creds, "username", credsPath),
			Password: c.str(creds, "password", credsPath),
		},
	}
}

func (c *converter) model(v interface{}, path string) dashboard.Model {
	m := c.object(v, path)
	model := dashboard.Model{
		Name:         c.str(m, "name", path),
		ModelType:    dashboard.ModelType(c.str(m, "model_type", path)),
		TrainingData: []dashboard.TrainingData{},
	}
	samplesPath := pathutil.Field(path, "training_data")
	for i, item := range c.array(m["training_data"], samplesPath) {
		samplePath := pathutil.Index(samplesPath, i)
		sample := c.object(item, samplePath)
		model.TrainingData = append(model.TrainingData, dashboard.TrainingData{
			Input:  c.reals(sample["input"], pathutil.Field(samplePath, "input")),
			Output: c.reals(sample["output"], pathutil.Field(samplePath, "output")),
		})
	}
	return model
}

func (c *converter) stage(v interface{}, path string) dashboard.PipelineStage {
	m := c.object(v, path)
	stage := dashboard.PipelineStage{
		Name:         c.str(m, "name", path),
		Script:       c.str(m, "script", path),
		Dependencies: []string{},
	}
	depsPath := pathutil.Field(path, "dependencies")
	for i, item := range c.array(m["dependencies"], depsPath) {
		dep, ok := item.(string)
		if !ok {
			c.fail(pathutil.Index(depsPath, i), "type", "expected string, got %s", typeName(item))
			continue
		}
		stage.Dependencies = append(stage.Dependencies, dep)
	}
	return stage
}

func (c *converter) reals(v interface{}, path string) []float64 {
	items := c.array(v, path)
	out := make([]float64, 0, len(items))
	for i, item := range items {
		f, err := toFloat(item)
		if err != nil {
			c.fail(pathutil.Index(path, i), "type", "%v", err)
			continue
		}
		out = append(out, f)
	}
	return out
}

// unsigned converts an integer document value to uint64.
func (c *converter) unsigned(v interface{}, path string) uint64 {
	n, ok := v.(json.Number)
	if !ok {
		c.fail(path, "type", "expected integer, got %s", typeName(v))
		return 0
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	// Integral values written with a fraction or exponent, e.g. 6e1
	r, ok := new(big.Rat).SetString(n.String())
	if !ok || !r.IsInt() || r.Sign() < 0 || !r.Num().IsUint64() {
		c.fail(path, "type", "expected unsigned 64-bit integer, got %s", n)
		return 0
	}
	return r.Num().Uint64()
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("number %s out of range", t)
		}
		return f, nil
	case float64:
		return t, nil
	default:
		return math.NaN(), fmt.Errorf("expected number, got %s", typeName(v))
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
