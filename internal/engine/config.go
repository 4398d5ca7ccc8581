package engine

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ranklens/ranklens/internal/apperr"
	"github.com/ranklens/ranklens/internal/dimension"
	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/opportunity"
	"github.com/ranklens/ranklens/internal/relevance"
)

const (
	DefaultMinSampleSize = 100
	DefaultPeriodDays    = 7
)

// DefaultCutoffs are the rank cutoffs evaluated when none are configured.
var DefaultCutoffs = []int{5, 10, 20}

// Config holds every knob of one evaluation request. A structurally invalid
// config is rejected before any row is processed; everything else that can
// go wrong during an evaluation is absorbed and counted, never fatal.
type Config struct {
	Policy        relevance.Policy         `validate:"required,oneof=binary graded"`
	Cutoffs       []int                    `validate:"required,min=1,dive,gt=0"`
	MinSampleSize int                      `validate:"gte=1"`
	Dimension     dimension.Dimension      `validate:"required,oneof=surface segment category source"`
	Elasticity    float64                  `validate:"gt=0"`
	Window        domain.AttributionWindow `validate:"required,oneof=1d 7d"`
	Order         dimension.Order          `validate:"omitempty,oneof=worst ndcg sessions"`

	// Targets are fixed NDCG levels to estimate opportunity against, in
	// addition to the median reference.
	Targets []float64 `validate:"dive,gt=0,lte=1"`

	// PeriodDays is the length of the evaluated window, for annualized
	// projections; zero disables them.
	PeriodDays int `validate:"gte=0"`

	// IncludeNoSignal keeps sessions with undefined NDCG in the per-session
	// listing. They are always excluded from aggregate statistics.
	IncludeNoSignal bool

	Filter domain.Filter
}

func DefaultConfig() Config {
	return Config{
		Policy:        relevance.PolicyGraded,
		Cutoffs:       DefaultCutoffs,
		MinSampleSize: DefaultMinSampleSize,
		Dimension:     dimension.BySource,
		Elasticity:    opportunity.DefaultElasticity,
		Window:        domain.Window1D,
		Order:         dimension.OrderWorstFirst,
		Targets:       opportunity.DefaultTargets,
		PeriodDays:    DefaultPeriodDays,
	}
}

// PrimaryK is the cutoff used for dimensional aggregation and opportunity
// estimates: the largest configured cutoff, so it does not depend on the
// order cutoffs were supplied in.
func (c Config) PrimaryK() int {
	k := 0
	for _, cutoff := range c.Cutoffs {
		if cutoff > k {
			k = cutoff
		}
	}
	return k
}

func (c Config) validate(v *validator.Validate) error {
	if err := v.Struct(c); err != nil {
		return apperr.NewValidationWrap("invalid evaluation config", err)
	}
	if len(c.Cutoffs) == 0 {
		return apperr.NewValidation("at least one cutoff is required")
	}
	if !c.Filter.From.IsZero() && !c.Filter.To.IsZero() && c.Filter.To.Before(c.Filter.From) {
		return apperr.NewValidation(fmt.Sprintf("date range is inverted: %s is before %s",
			c.Filter.To.Format("2006-01-02"), c.Filter.From.Format("2006-01-02")))
	}
	return nil
}
