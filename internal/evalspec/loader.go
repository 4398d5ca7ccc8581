package evalspec

import (
	"fmt"
	"os"
	"time"

	"github.com/ranklens/ranklens/internal/dimension"
	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/engine"
	"github.com/ranklens/ranklens/internal/relevance"
	"github.com/ranklens/ranklens/internal/storage"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

func LoadFromFile(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*EvalSpec, error) {
	var s EvalSpec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse spec YAML: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

var validSourceTypes = map[string]bool{
	"postgres":      true,
	"elasticsearch": true,
}

func validate(s *EvalSpec) error {
	if s.Name == "" {
		return fmt.Errorf("spec has no name")
	}
	for i, k := range s.Cutoffs {
		if k <= 0 {
			return fmt.Errorf("cutoff at index %d must be positive, got %d", i, k)
		}
	}
	if s.Source.Type != "" && !validSourceTypes[s.Source.Type] {
		return fmt.Errorf("unsupported source type %q", s.Source.Type)
	}
	if s.Source.Type != "" && s.Source.Connection == "" {
		return fmt.Errorf("source %q has no connection", s.Source.Type)
	}
	if _, err := parseDate(s.Filters.From); err != nil {
		return fmt.Errorf("invalid filters.from: %w", err)
	}
	if _, err := parseDate(s.Filters.To); err != nil {
		return fmt.Errorf("invalid filters.to: %w", err)
	}
	return nil
}

// ToEngineConfig builds the evaluation config, filling every omitted field
// from the engine defaults. The engine revalidates the result at its entry
// point, so a structurally bad spec still fails before row processing.
func (s *EvalSpec) ToEngineConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if s.Policy != "" {
		p, err := relevance.ParsePolicy(s.Policy)
		if err != nil {
			return cfg, err
		}
		cfg.Policy = p
	}
	if len(s.Cutoffs) > 0 {
		cfg.Cutoffs = s.Cutoffs
	}
	if s.MinSampleSize > 0 {
		cfg.MinSampleSize = s.MinSampleSize
	}
	if s.Dimension != "" {
		d, err := dimension.ParseDimension(s.Dimension)
		if err != nil {
			return cfg, err
		}
		cfg.Dimension = d
	}
	if s.Elasticity > 0 {
		cfg.Elasticity = s.Elasticity
	}
	if s.AttributionWindow != "" {
		w, err := domain.ParseAttributionWindow(s.AttributionWindow)
		if err != nil {
			return cfg, err
		}
		cfg.Window = w
	}
	if s.Order != "" {
		o, err := dimension.ParseOrder(s.Order)
		if err != nil {
			return cfg, err
		}
		cfg.Order = o
	}
	if len(s.Targets) > 0 {
		cfg.Targets = s.Targets
	}
	if s.PeriodDays > 0 {
		cfg.PeriodDays = s.PeriodDays
	}
	cfg.IncludeNoSignal = s.IncludeNoSignal

	from, _ := parseDate(s.Filters.From)
	to, _ := parseDate(s.Filters.To)
	cfg.Filter = domain.Filter{
		Surface:  s.Filters.Surface,
		Segment:  s.Filters.Segment,
		Category: s.Filters.Category,
		From:     from,
		To:       to,
	}

	return cfg, nil
}

// ToRowFilter builds the pushdown filter for the row source.
func (s *EvalSpec) ToRowFilter() storage.RowFilter {
	from, _ := parseDate(s.Filters.From)
	to, _ := parseDate(s.Filters.To)
	return storage.RowFilter{
		From:        from,
		To:          to,
		Surface:     s.Filters.Surface,
		Segment:     s.Filters.Segment,
		Category:    s.Filters.Category,
		MaxPosition: s.Filters.MaxPosition,
		Limit:       s.Filters.Limit,
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
