package dashboard

// Clone returns a deep copy of c. Nil sequences become empty ones.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.DataSources = make([]DataSource, len(c.DataSources))
	copy(out.DataSources, c.DataSources)

	out.Models = make([]Model, len(c.Models))
	for i, m := range c.Models {
		out.Models[i] = m
		out.Models[i].TrainingData = make([]TrainingData, len(m.TrainingData))
		for j, td := range m.TrainingData {
			out.Models[i].TrainingData[j] = TrainingData{
				Input:  cloneFloats(td.Input),
				Output: cloneFloats(td.Output),
			}
		}
	}

	out.Pipeline.Stages = make([]PipelineStage, len(c.Pipeline.Stages))
	for i, s := range c.Pipeline.Stages {
		out.Pipeline.Stages[i] = s
		out.Pipeline.Stages[i].Dependencies = append([]string{}, s.Dependencies...)
	}
	return &out
}

func cloneFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

// Equal reports structural equality. A nil sequence equals an empty one, which
// is what a document round trip produces.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.DashboardTitle != other.DashboardTitle ||
		c.RefreshInterval != other.RefreshInterval ||
		c.APIURL != other.APIURL ||
		c.APIToken != other.APIToken {
		return false
	}

	if len(c.DataSources) != len(other.DataSources) {
		return false
	}
	for i := range c.DataSources {
		if c.DataSources[i] != other.DataSources[i] {
			return false
		}
	}

	if len(c.Models) != len(other.Models) {
		return false
	}
	for i := range c.Models {
		if !c.Models[i].equal(other.Models[i]) {
			return false
		}
	}

	if len(c.Pipeline.Stages) != len(other.Pipeline.Stages) {
		return false
	}
	for i := range c.Pipeline.Stages {
		if !c.Pipeline.Stages[i].equal(other.Pipeline.Stages[i]) {
			return false
		}
	}
	return true
}

func (m Model) equal(o Model) bool {
	if m.Name != o.Name || m.ModelType != o.ModelType || len(m.TrainingData) != len(o.TrainingData) {
		return false
	}
	for i := range m.TrainingData {
		if !floatsEqual(m.TrainingData[i].Input, o.TrainingData[i].Input) ||
			!floatsEqual(m.TrainingData[i].Output, o.TrainingData[i].Output) {
			return false
		}
	}
	return true
}

func (s PipelineStage) equal(o PipelineStage) bool {
	if s.Name != o.Name || s.Script != o.Script || len(s.Dependencies) != len(o.Dependencies) {
		return false
	}
	for i := range s.Dependencies {
		if s.Dependencies[i] != o.Dependencies[i] {
			return false
		}
	}
	return true
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
