// Package opportunity translates NDCG gaps into estimated revenue uplift.
//
// The translation is a modeling assumption, not a measured causal effect:
// an elasticity of 1.5 encodes "15% revenue increase per 10% relative NDCG
// improvement". Every estimate carries the elasticity it was computed with
// so consumers can label it accordingly.
package opportunity

import (
	"fmt"
	"sort"

	"github.com/ranklens/ranklens/internal/dimension"
)

const (
	DefaultElasticity = 1.5
	daysPerYear       = 365
)

// DefaultTargets are the fixed NDCG levels reported next to the to-median
// estimate.
var DefaultTargets = []float64{0.6, 0.7, 0.8}

// Estimate is the modeled revenue opportunity for one bucket.
type Estimate struct {
	Value         string  `json:"value"`
	Sessions      int     `json:"sessions"`
	NDCG          float64 `json:"ndcg"`
	ReferenceNDCG float64 `json:"reference_ndcg"`

	// GapPct is the relative NDCG shortfall versus the reference, in
	// percent; zero for buckets at or above the reference.
	GapPct float64 `json:"gap_pct"`

	// Revenue is the observed attributed revenue for the period.
	Revenue float64 `json:"revenue_usd"`

	// Uplift is the estimated incremental revenue from closing the gap to
	// the reference. Opportunity is one-sided: buckets at or above the
	// reference estimate zero, never a negative value.
	Uplift float64 `json:"uplift_usd"`

	// UpliftAnnualized projects Uplift to a full year from the evaluation
	// period length; zero when the period is unknown.
	UpliftAnnualized float64 `json:"uplift_annualized_usd"`

	// TargetUplift holds the estimated uplift of reaching each fixed NDCG
	// target, in the order the targets were configured.
	TargetUplift []TargetEstimate `json:"target_uplift"`

	Elasticity float64 `json:"elasticity"`
}

// TargetEstimate is the modeled uplift of lifting a bucket to one fixed
// NDCG target.
type TargetEstimate struct {
	Target float64 `json:"target"`
	Uplift float64 `json:"uplift_usd"`
}

// Summary aggregates the estimates of one dimensional breakdown.
type Summary struct {
	Estimates    []Estimate       `json:"estimates"`
	TotalUplift  float64          `json:"total_uplift_usd"`
	TotalRevenue float64          `json:"total_revenue_usd"`
	TargetTotals []TargetEstimate `json:"target_totals"`
	Elasticity   float64          `json:"elasticity"`

	// Label spells out the modeling assumption for any consumer that
	// renders the numbers.
	Label string `json:"model"`
}

// Model holds the opportunity parameters for one evaluation.
type Model struct {
	Elasticity float64
	Targets    []float64

	// PeriodDays is the length of the evaluated window, used only for the
	// annualized projection.
	PeriodDays int
}

// Estimate computes the opportunity for a single bucket against the given
// reference NDCG. Zero or unknown revenue yields a zero estimate rather
// than an error.
func (m Model) Estimate(b dimension.Bucket, reference float64) Estimate {
	e := Estimate{
		Value:         b.Value,
		Sessions:      b.Sessions,
		NDCG:          b.MeanNDCG,
		ReferenceNDCG: reference,
		Revenue:       b.Revenue,
		Elasticity:    m.Elasticity,
		TargetUplift:  make([]TargetEstimate, 0, len(m.Targets)),
	}

	e.Uplift = m.uplift(b.MeanNDCG, b.Revenue, reference)
	if reference > 0 && b.MeanNDCG < reference {
		e.GapPct = (reference - b.MeanNDCG) / reference * 100
	}
	if m.PeriodDays > 0 {
		e.UpliftAnnualized = e.Uplift * daysPerYear / float64(m.PeriodDays)
	}
	for _, target := range m.Targets {
		e.TargetUplift = append(e.TargetUplift, TargetEstimate{
			Target: target,
			Uplift: m.uplift(b.MeanNDCG, b.Revenue, target),
		})
	}

	return e
}

// uplift = revenue * elasticity * (target - ndcg) / target, one-sided.
func (m Model) uplift(ndcg, revenue, target float64) float64 {
	if target <= 0 || revenue <= 0 || ndcg >= target {
		return 0
	}
	return revenue * m.Elasticity * (target - ndcg) / target
}

// Summarize estimates every included bucket of the aggregation and totals
// the results, ordered by to-median uplift descending.
func (m Model) Summarize(agg dimension.Aggregation) Summary {
	s := Summary{
		Elasticity:   m.Elasticity,
		TargetTotals: make([]TargetEstimate, len(m.Targets)),
		Label: fmt.Sprintf("estimate: %.0f%% revenue increase per 10%% NDCG improvement (elasticity %.2f)",
			m.Elasticity*10, m.Elasticity),
	}
	for i, target := range m.Targets {
		s.TargetTotals[i].Target = target
	}

	for _, b := range agg.Buckets {
		e := m.Estimate(b, agg.ReferenceNDCG)
		s.Estimates = append(s.Estimates, e)
		s.TotalUplift += e.Uplift
		s.TotalRevenue += e.Revenue
		for i, t := range e.TargetUplift {
			s.TargetTotals[i].Uplift += t.Uplift
		}
	}

	sort.Slice(s.Estimates, func(i, j int) bool {
		if s.Estimates[i].Uplift != s.Estimates[j].Uplift {
			return s.Estimates[i].Uplift > s.Estimates[j].Uplift
		}
		return s.Estimates[i].Value < s.Estimates[j].Value
	})
	return s
}
