// Package dashboard provides the public configuration types for the
// AI-powered DevOps pipeline dashboard.
//
// A Config owns its data sources, models and pipeline outright; stage
// dependencies refer to other stages by name. Values are treated as
// immutable once validated: copy with Clone before changing anything.
//
// Credentials and the API token are stored and serialized verbatim. Nothing in
// this package redacts or encrypts them.
package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the top-level dashboard configuration document.
type Config struct {
	// DashboardTitle is the title rendered at the top of the dashboard
	DashboardTitle string `json:"dashboard_title" yaml:"dashboard_title"`

	// RefreshInterval is the dashboard refresh period in seconds
	RefreshInterval uint64 `json:"refresh_interval" yaml:"refresh_interval"`

	// APIURL is the absolute URL of the backing API
	APIURL string `json:"api_url" yaml:"api_url"`

	// APIToken is the bearer token for the backing API (plaintext)
	APIToken string `json:"api_token" yaml:"api_token"`

	// DataSources is the ordered list of external data sources
	DataSources []DataSource `json:"data_sources" yaml:"data_sources"`

	// Models is the ordered list of machine-learning model descriptors
	Models []Model `json:"models" yaml:"models"`

	// Pipeline is the stage graph shown on the dashboard
	Pipeline Pipeline `json:"pipeline" yaml:"pipeline"`
}

// DataSource is a named external source of pipeline data.
type DataSource struct {
	Name        string      `json:"name" yaml:"name"`
	URL         string      `json:"url" yaml:"url"`
	Credentials Credentials `json:"credentials" yaml:"credentials"`
}

// Credentials is a username/password pair. Both empty means unauthenticated.
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Anonymous reports whether the credentials carry no identity.
func (c Credentials) Anonymous() bool {
	return c.Username == "" && c.Password == ""
}

// Model describes a machine-learning model and its training samples.
type Model struct {
	Name         string         `json:"name" yaml:"name"`
	ModelType    ModelType      `json:"model_type" yaml:"model_type"`
	TrainingData []TrainingData `json:"training_data" yaml:"training_data"`
}

// TrainingData is a single input/output training sample.
type TrainingData struct {
	Input  []float64 `json:"input" yaml:"input,flow"`
	Output []float64 `json:"output" yaml:"output,flow"`
}

// Pipeline is an ordered set of stages. Declaration order is not required to be
// a topological order.
type Pipeline struct {
	Stages []PipelineStage `json:"stages" yaml:"stages"`
}

// PipelineStage is a named unit of work with an opaque shell script and the
// names of the stages it depends on.
type PipelineStage struct {
	Name         string   `json:"name" yaml:"name"`
	Script       string   `json:"script" yaml:"script"`
	Dependencies []string `json:"dependencies" yaml:"dependencies,flow"`
}

// ModelType is the closed enumeration of supported model kinds.
type ModelType string

// Supported model types.
const (
	ModelLinearRegression ModelType = "linear_regression"
	ModelDecisionTree     ModelType = "decision_tree"
	ModelNeuralNet        ModelType = "neural_net"
	ModelOther            ModelType = "other"
)

// ModelTypes returns every supported model type in declaration order.
func ModelTypes() []ModelType {
	return []ModelType{ModelLinearRegression, ModelDecisionTree, ModelNeuralNet, ModelOther}
}

// Valid reports whether t is a member of the enumeration.
func (t ModelType) Valid() bool {
	switch t {
	case ModelLinearRegression, ModelDecisionTree, ModelNeuralNet, ModelOther:
		return true
	default:
		return false
	}
}

// ParseModelType converts a document string to a ModelType.
func ParseModelType(s string) (ModelType, error) {
	t := ModelType(s)
	if !t.Valid() {
		names := make([]string, 0, 4)
		for _, m := range ModelTypes() {
			names = append(names, string(m))
		}
		return "", fmt.Errorf("unknown model type %q (expected one of %s)", s, strings.Join(names, ", "))
	}
	return t, nil
}

// Per-field constructor errors.
var (
	ErrEmptyTitle      = errors.New("dashboard_title must not be empty")
	ErrZeroRefresh     = errors.New("refresh_interval must be at least 1 second")
	ErrEmptyName       = errors.New("name must not be empty")
	ErrEmptySample     = errors.New("training sample input and output must not be empty")
	ErrSelfDependency  = errors.New("stage must not depend on itself")
	ErrEmptyDependency = errors.New("dependency name must not be empty")
)

// NewConfig builds a Config from its scalar fields, rejecting an empty title or a
// zero refresh interval. URL syntax and cross-field rules are left to the
// validator in internal/config.
func NewConfig(title string, refresh uint64, apiURL, apiToken string) (*Config, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if refresh == 0 {
		return nil, ErrZeroRefresh
	}
	return &Config{
		DashboardTitle:  title,
		RefreshInterval: refresh,
		APIURL:          apiURL,
		APIToken:        apiToken,
		DataSources:     []DataSource{},
		Models:          []Model{},
		Pipeline:        Pipeline{Stages: []PipelineStage{}},
	}, nil
}

// NewDataSource builds a DataSource with a non-empty name.
func NewDataSource(name, url string, creds Credentials) (DataSource, error) {
	if name == "" {
		return DataSource{}, ErrEmptyName
	}
	return DataSource{Name: name, URL: url, Credentials: creds}, nil
}

// NewModel builds a Model with a non-empty name and a supported type.
func NewModel(name string, modelType ModelType, samples ...TrainingData) (Model, error) {
	if name == "" {
		return Model{}, ErrEmptyName
	}
	if !modelType.Valid() {
		_, err := ParseModelType(string(modelType))
		return Model{}, err
	}
	if samples == nil {
		samples = []TrainingData{}
	}
	return Model{Name: name, ModelType: modelType, TrainingData: samples}, nil
}

// NewTrainingData builds a sample with non-empty input and output vectors.
func NewTrainingData(input, output []float64) (TrainingData, error) {
	if len(input) == 0 || len(output) == 0 {
		return TrainingData{}, ErrEmptySample
	}
	return TrainingData{Input: input, Output: output}, nil
}

// NewStage builds a PipelineStage. Duplicate dependency names are kept as given;
// they collapse when the dependency graph is evaluated.
func NewStage(name, script string, deps ...string) (PipelineStage, error) {
	if name == "" {
		return PipelineStage{}, ErrEmptyName
	}
	for _, d := range deps {
		if d == "" {
			return PipelineStage{}, ErrEmptyDependency
		}
		if d == name {
			return PipelineStage{}, ErrSelfDependency
		}
	}
	if deps == nil {
		deps = []string{}
	}
	return PipelineStage{Name: name, Script: script, Dependencies: deps}, nil
}

// Default returns a fresh copy of the canonical example configuration.
func Default() *Config {
	return &Config{
		DashboardTitle:  "AI-powered DevOps Pipeline Dashboard",
		RefreshInterval: 60,
		APIURL:          "https://api.example.com",
		APIToken:        "my_secret_token",
		DataSources: []DataSource{
			{
				Name: "GitHub API",
				URL:  "https://api.github.com",
				Credentials: Credentials{
					Username: "my_username",
					Password: "my_password",
				},
			},
		},
		Models: []Model{
			{
				Name:      "Linear Regression",
				ModelType: ModelLinearRegression,
				TrainingData: []TrainingData{
					{Input: []float64{1.0, 2.0, 3.0}, Output: []float64{2.0, 4.0, 6.0}},
				},
			},
		},
		Pipeline: Pipeline{
			Stages: []PipelineStage{
				{Name: "Build", Script: "cargo build", Dependencies: []string{}},
				{Name: "Test", Script: "cargo test", Dependencies: []string{"Build"}},
			},
		},
	}
}

// StageNames returns the stage names in declaration order.
func (p Pipeline) StageNames() []string {
	names := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		names[i] = s.Name
	}
	return names
}

// Stage looks up a stage by name.
func (p Pipeline) Stage(name string) (PipelineStage, bool) {
	for _, s := range p.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return PipelineStage{}, false
}
