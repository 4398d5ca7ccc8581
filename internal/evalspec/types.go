// Package evalspec loads the YAML description of an offline evaluation run:
// which rows to pull, how to grade them and how to aggregate the scores.
package evalspec

type EvalSpec struct {
	Name string `yaml:"name"`

	Policy            string    `yaml:"policy"`
	Cutoffs           []int     `yaml:"cutoffs"`
	MinSampleSize     int       `yaml:"min_sample_size"`
	Dimension         string    `yaml:"dimension"`
	Elasticity        float64   `yaml:"elasticity"`
	AttributionWindow string    `yaml:"attribution_window"`
	Order             string    `yaml:"order"`
	Targets           []float64 `yaml:"targets"`
	PeriodDays        int       `yaml:"period_days"`
	IncludeNoSignal   bool      `yaml:"include_no_signal"`

	Filters FiltersSpec `yaml:"filters"`
	Source  SourceSpec  `yaml:"source"`
}

type FiltersSpec struct {
	Surface  string `yaml:"surface"`
	Segment  string `yaml:"segment"`
	Category string `yaml:"category"`

	// From and To bound the evaluated date range, formatted 2006-01-02.
	// To is exclusive.
	From string `yaml:"from"`
	To   string `yaml:"to"`

	MaxPosition int `yaml:"max_position"`
	Limit       int `yaml:"limit"`
}

type SourceSpec struct {
	Type       string `yaml:"type"`
	Connection string `yaml:"connection"`
	Table      string `yaml:"table,omitempty"`
	Index      string `yaml:"index,omitempty"`
}
