package pathutil

import (
	"testing"
)

func TestFieldAndIndex(t *testing.T) {
	p := Index(Field(Index(Field(Field("", "pipeline"), "stages"), 3), "dependencies"), 0)
	if p != "pipeline.stages[3].dependencies[0]" {
		t.Errorf("unexpected path %q", p)
	}
}

func TestFromSegments(t *testing.T) {
	tests := []struct {
		name string
		segs []string
		want string
	}{
		{"empty", nil, ""},
		{"root only", []string{""}, ""},
		{"top field", []string{"api_url"}, "api_url"},
		{"nested index", []string{"data_sources", "0", "credentials", "username"}, "data_sources[0].credentials.username"},
		{"leading numeric key", []string{"0"}, "0"},
		{"deep", []string{"models", "1", "training_data", "2", "input", "0"}, "models[1].training_data[2].input[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromSegments(tt.segs); got != tt.want {
				t.Errorf("FromSegments(%v) = %q, want %q", tt.segs, got, tt.want)
			}
		})
	}
}
