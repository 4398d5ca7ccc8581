package opportunity

import (
	"encoding/json"
	"testing"

	"github.com/ranklens/ranklens/internal/dimension"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateGapToReference(t *testing.T) {
	m := Model{Elasticity: 1.5, PeriodDays: 7}
	bucket := dimension.Bucket{Value: "search", Sessions: 200, MeanNDCG: 0.4, Revenue: 10000}

	e := m.Estimate(bucket, 0.6)

	// 10000 * 1.5 * (0.6-0.4)/0.6 = 5000.
	assert.InDelta(t, 5000.0, e.Uplift, 1e-6)
	assert.InDelta(t, 5000.0*365/7, e.UpliftAnnualized, 1e-6)
	assert.InDelta(t, 100.0/3, e.GapPct, 1e-6)
	assert.InDelta(t, 1.5, e.Elasticity, 1e-9)
}

func TestEstimateIsOneSided(t *testing.T) {
	m := Model{Elasticity: 1.5}

	above := m.Estimate(dimension.Bucket{Value: "home", MeanNDCG: 0.8, Revenue: 10000}, 0.6)
	assert.Zero(t, above.Uplift)
	assert.Zero(t, above.GapPct)

	at := m.Estimate(dimension.Bucket{Value: "feed", MeanNDCG: 0.6, Revenue: 10000}, 0.6)
	assert.Zero(t, at.Uplift)
}

func TestEstimateZeroRevenue(t *testing.T) {
	m := Model{Elasticity: 1.5}

	e := m.Estimate(dimension.Bucket{Value: "push", MeanNDCG: 0.2, Revenue: 0}, 0.6)
	assert.Zero(t, e.Uplift)
	// The gap is still reported even when no revenue can be attributed.
	assert.Greater(t, e.GapPct, 0.0)
}

func TestEstimateTargets(t *testing.T) {
	m := Model{Elasticity: 1.5, Targets: []float64{0.6, 0.7, 0.8}}

	e := m.Estimate(dimension.Bucket{Value: "search", MeanNDCG: 0.7, Revenue: 8000}, 0.5)
	require.Len(t, e.TargetUplift, 3)
	assert.Equal(t, TargetEstimate{Target: 0.6}, e.TargetUplift[0])
	assert.Equal(t, TargetEstimate{Target: 0.7}, e.TargetUplift[1])
	// 8000 * 1.5 * (0.8-0.7)/0.8 = 1500.
	assert.InDelta(t, 0.8, e.TargetUplift[2].Target, 1e-9)
	assert.InDelta(t, 1500.0, e.TargetUplift[2].Uplift, 1e-6)
	// One-sided versus the reference as well; 0.7 is above 0.5.
	assert.Zero(t, e.Uplift)
}

func TestSummarize(t *testing.T) {
	m := Model{Elasticity: 1.5, Targets: []float64{0.8}, PeriodDays: 7}
	agg := dimension.Aggregation{
		ReferenceNDCG:    0.6,
		ReferenceDefined: true,
		Buckets: []dimension.Bucket{
			{Value: "home", Sessions: 300, MeanNDCG: 0.8, Revenue: 20000},
			{Value: "search", Sessions: 200, MeanNDCG: 0.4, Revenue: 10000},
			{Value: "push", Sessions: 150, MeanNDCG: 0.5, Revenue: 6000},
		},
	}

	s := m.Summarize(agg)

	require.Len(t, s.Estimates, 3)
	// Ordered by uplift descending: search 5000, push 1500, home 0.
	assert.Equal(t, "search", s.Estimates[0].Value)
	assert.Equal(t, "push", s.Estimates[1].Value)
	assert.Equal(t, "home", s.Estimates[2].Value)

	assert.InDelta(t, 6500.0, s.TotalUplift, 1e-6)
	assert.InDelta(t, 36000.0, s.TotalRevenue, 1e-6)
	assert.Contains(t, s.Label, "elasticity 1.50")

	// 20000*1.5*0/... + 10000*1.5*0.4/0.8 + 6000*1.5*0.3/0.8 = 7500 + 3375.
	require.Len(t, s.TargetTotals, 1)
	assert.InDelta(t, 0.8, s.TargetTotals[0].Target, 1e-9)
	assert.InDelta(t, 10875.0, s.TargetTotals[0].Uplift, 1e-6)
}

func TestSummaryMarshalsToJSON(t *testing.T) {
	m := Model{Elasticity: 1.5, Targets: DefaultTargets, PeriodDays: 7}
	agg := dimension.Aggregation{
		ReferenceNDCG:    0.6,
		ReferenceDefined: true,
		Buckets: []dimension.Bucket{
			{Value: "search", Sessions: 200, MeanNDCG: 0.4, Revenue: 10000},
		},
	}

	data, err := json.Marshal(m.Summarize(agg))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"target_totals"`)
	assert.Contains(t, string(data), `"target":0.6`)
}
