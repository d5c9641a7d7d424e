package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devopsdash/dashconfig/pkg/dashboard"
)

// Encode serializes cfg without validating it. Output is deterministic: fields
// follow declaration order, sequences keep their order, and real numbers are
// written in their shortest round-trip decimal form, always with a decimal
// point or exponent ("1.0", "0.25", "1e-07"). Credentials are written verbatim.
//
// Use Store.Dump to refuse invalid values.
func Encode(cfg *dashboard.Config, format Format) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("cannot encode nil configuration")
	}
	doc := newDocumentView(cfg)

	var buf bytes.Buffer
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return "", fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
	return buf.String(), nil
}

// ToDocument returns cfg as a generic document tree with the same keys as the
// serialized form.
func ToDocument(cfg *dashboard.Config) (map[string]interface{}, error) {
	text, err := Encode(cfg, FormatJSON)
	if err != nil {
		return nil, err
	}
	doc, err := ParseJSONString(text)
	if err != nil {
		return nil, err
	}
	return doc.(map[string]interface{}), nil
}

// documentView mirrors dashboard.Config for encoding, replacing nil sequences
// with empty ones and giving real numbers their canonical form.
type documentView struct {
	DashboardTitle  string                 `json:"dashboard_title" yaml:"dashboard_title"`
	RefreshInterval uint64                 `json:"refresh_interval" yaml:"refresh_interval"`
	APIURL          string                 `json:"api_url" yaml:"api_url"`
	APIToken        string                 `json:"api_token" yaml:"api_token"`
	DataSources     []dashboard.DataSource `json:"data_sources" yaml:"data_sources"`
	Models          []modelView            `json:"models" yaml:"models"`
	Pipeline        dashboard.Pipeline     `json:"pipeline" yaml:"pipeline"`
}

type modelView struct {
	Name         string              `json:"name" yaml:"name"`
	ModelType    dashboard.ModelType `json:"model_type" yaml:"model_type"`
	TrainingData []sampleView        `json:"training_data" yaml:"training_data"`
}

type sampleView struct {
	Input  reals `json:"input" yaml:"input"`
	Output reals `json:"output" yaml:"output"`
}

func newDocumentView(cfg *dashboard.Config) documentView {
	c := cfg.Clone()
	view := documentView{
		DashboardTitle:  c.DashboardTitle,
		RefreshInterval: c.RefreshInterval,
		APIURL:          c.APIURL,
		APIToken:        c.APIToken,
		DataSources:     c.DataSources,
		Models:          make([]modelView, len(c.Models)),
		Pipeline:        c.Pipeline,
	}
	for i, m := range c.Models {
		mv := modelView{
			Name:         m.Name,
			ModelType:    m.ModelType,
			TrainingData: make([]sampleView, len(m.TrainingData)),
		}
		for j, td := range m.TrainingData {
			mv.TrainingData[j] = sampleView{Input: td.Input, Output: td.Output}
		}
		view.Models[i] = mv
	}
	return view
}

// reals is a sequence of real numbers with a canonical text form.
type reals []float64

// MarshalJSON implements json.Marshaler.
func (r reals) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range r {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite number %v cannot be encoded", f)
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(formatReal(f))
	}
	sb.WriteByte(']')
	return []byte(sb.String()), nil
}

// MarshalYAML implements yaml.Marshaler, writing a flow sequence.
func (r reals) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Tag:     "!!seq",
		Style:   yaml.FlowStyle,
		Content: make([]*yaml.Node, 0, len(r)),
	}
	for _, f := range r {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!float",
			Value: formatYAMLReal(f),
		})
	}
	return node, nil
}

// formatReal returns the shortest decimal form of f that always reads back as
// a real number.
func formatReal(f float64) string {
	// Same cutoffs as encoding/json for switching to exponent form
	verb := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		verb = 'e'
	}
	s := strconv.FormatFloat(f, verb, -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func formatYAMLReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return formatReal(f)
	}
}
