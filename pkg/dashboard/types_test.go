package dashboard

import (
	"errors"
	"testing"
)

func TestDefault_FreshCopy(t *testing.T) {
	a := Default()
	b := Default()

	if a == b {
		t.Fatal("Default should return a new value per call")
	}
	a.Pipeline.Stages[0].Name = "changed"
	if b.Pipeline.Stages[0].Name != "Build" {
		t.Errorf("mutating one default leaked into another: %q", b.Pipeline.Stages[0].Name)
	}
}

func TestDefault_Content(t *testing.T) {
	cfg := Default()

	if cfg.DashboardTitle != "AI-powered DevOps Pipeline Dashboard" {
		t.Errorf("unexpected title %q", cfg.DashboardTitle)
	}
	if cfg.RefreshInterval != 60 {
		t.Errorf("expected refresh 60, got %d", cfg.RefreshInterval)
	}
	if len(cfg.DataSources) != 1 || cfg.DataSources[0].Credentials.Username != "my_username" {
		t.Errorf("unexpected data sources: %+v", cfg.DataSources)
	}
	if len(cfg.Models) != 1 || cfg.Models[0].ModelType != ModelLinearRegression {
		t.Errorf("unexpected models: %+v", cfg.Models)
	}
	names := cfg.Pipeline.StageNames()
	if len(names) != 2 || names[0] != "Build" || names[1] != "Test" {
		t.Errorf("unexpected stages: %v", names)
	}
	test, ok := cfg.Pipeline.Stage("Test")
	if !ok || len(test.Dependencies) != 1 || test.Dependencies[0] != "Build" {
		t.Errorf("unexpected Test stage: %+v", test)
	}
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		refresh uint64
		wantErr error
	}{
		{"valid", "Dash", 30, nil},
		{"empty title", "", 30, ErrEmptyTitle},
		{"blank title", "   ", 30, ErrEmptyTitle},
		{"zero refresh", "Dash", 0, ErrZeroRefresh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfig(tt.title, tt.refresh, "https://api.example.com", "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewConfig err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (cfg.DataSources == nil || cfg.Pipeline.Stages == nil) {
				t.Error("expected sequences to be initialized")
			}
		})
	}
}

func TestNewStage(t *testing.T) {
	if _, err := NewStage("", "make"); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	if _, err := NewStage("A", "make", "A"); !errors.Is(err, ErrSelfDependency) {
		t.Errorf("expected ErrSelfDependency, got %v", err)
	}
	if _, err := NewStage("A", "make", ""); !errors.Is(err, ErrEmptyDependency) {
		t.Errorf("expected ErrEmptyDependency, got %v", err)
	}
	s, err := NewStage("Deploy", "", "Test", "Test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Dependencies) != 2 {
		t.Errorf("duplicates should be kept as given, got %v", s.Dependencies)
	}
}

func TestNewModel(t *testing.T) {
	if _, err := NewModel("m", ModelType("svm")); err == nil {
		t.Error("expected error for unknown model type")
	}
	m, err := NewModel("m", ModelNeuralNet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TrainingData == nil {
		t.Error("expected empty training data slice, got nil")
	}
	if _, err := NewTrainingData(nil, []float64{1}); !errors.Is(err, ErrEmptySample) {
		t.Errorf("expected ErrEmptySample, got %v", err)
	}
}

func TestParseModelType(t *testing.T) {
	for _, mt := range ModelTypes() {
		got, err := ParseModelType(string(mt))
		if err != nil || got != mt {
			t.Errorf("ParseModelType(%q) = %q, %v", mt, got, err)
		}
	}
	if _, err := ParseModelType("random_forest"); err == nil {
		t.Error("expected error for random_forest")
	}
}

func TestCloneAndEqual(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()

	if !cfg.Equal(clone) {
		t.Fatal("clone should equal original")
	}

	clone.Models[0].TrainingData[0].Input[0] = 42
	if cfg.Models[0].TrainingData[0].Input[0] != 1.0 {
		t.Error("clone shares training data with original")
	}
	if cfg.Equal(clone) {
		t.Error("expected configs to differ after mutation")
	}
}

func TestEqual_NilVersusEmpty(t *testing.T) {
	a := Default()
	b := Default()
	a.Pipeline.Stages[0].Dependencies = nil
	if !a.Equal(b) {
		t.Error("nil and empty dependencies should compare equal")
	}
	if !(*Config)(nil).Equal(nil) {
		t.Error("nil configs should compare equal")
	}
	if a.Equal(nil) {
		t.Error("non-nil config should not equal nil")
	}
}

func TestCredentials_Anonymous(t *testing.T) {
	if !(Credentials{}).Anonymous() {
		t.Error("empty credentials should be anonymous")
	}
	if (Credentials{Username: "u"}).Anonymous() {
		t.Error("credentials with a username are not anonymous")
	}
}
