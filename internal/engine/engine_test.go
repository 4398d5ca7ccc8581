package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/ranklens/ranklens/internal/apperr"
	"github.com/ranklens/ranklens/internal/dimension"
	"github.com/ranklens/ranklens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedRows builds n sessions on one surface, each a 5-slot feed with a click
// at position 2 and a purchase at position 4.
func feedRows(surface, source string, n int) []domain.Impression {
	var rows []domain.Impression
	for s := 0; s < n; s++ {
		id := fmt.Sprintf("%s-%d", surface, s)
		for pos := 1; pos <= 5; pos++ {
			imp := domain.Impression{
				SessionID: id,
				EntityID:  fmt.Sprintf("item-%d", pos),
				Position:  pos,
				Viewed:    true,
				Surface:   surface,
				Segment:   "returning",
				Sources:   []string{source},
			}
			switch pos {
			case 2:
				imp.Clicked = true
			case 4:
				imp.Purchased1D = true
				imp.Revenue = 50
			}
			rows = append(rows, imp)
		}
	}
	return rows
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Dimension = dimension.BySurface
	cfg.MinSampleSize = 1
	cfg.Cutoffs = []int{5, 10}
	return cfg
}

func TestEvaluateEndToEnd(t *testing.T) {
	rows := append(feedRows("home", "trending", 4), feedRows("search", "query", 2)...)

	ev, err := New().Evaluate(rows, testConfig())
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", ev.ID.String())

	assert.Equal(t, 6, ev.Funnel.Sessions)
	assert.Equal(t, 30, ev.Funnel.Impressions)
	assert.Equal(t, 6, ev.Funnel.Clicks)
	assert.Equal(t, 6, ev.Funnel.Purchases)
	assert.InDelta(t, 20.0, ev.Funnel.CTRPct, 1e-9)
	assert.InDelta(t, 100.0, ev.Funnel.ConversionPct, 1e-9)
	assert.InDelta(t, 100.0, ev.Funnel.RecallClickPct[5], 1e-9)
	assert.InDelta(t, 100.0, ev.Funnel.RecallPurchasePct[5], 1e-9)

	// Every session graded identically, so mean equals median and both
	// surfaces sit exactly at the reference.
	assert.InDelta(t, ev.Funnel.MeanNDCG[10], ev.Funnel.MedianNDCG[10], 1e-9)
	require.Len(t, ev.Dimensions.Buckets, 2)
	assert.Equal(t, 10, ev.Dimensions.K)
	for _, b := range ev.Dimensions.Buckets {
		assert.InDelta(t, 0.0, b.DeviationPct, 1e-9)
	}

	// No bucket below the median, so no opportunity to the reference.
	assert.Zero(t, ev.Opportunity.TotalUplift)
	assert.InDelta(t, 300.0, ev.Opportunity.TotalRevenue, 1e-9)

	assert.Len(t, ev.Sessions, 6)
}

func TestEvaluateRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no cutoffs", func(c *Config) { c.Cutoffs = nil }},
		{"negative cutoff", func(c *Config) { c.Cutoffs = []int{5, -1} }},
		{"unknown policy", func(c *Config) { c.Policy = "quadratic" }},
		{"unknown dimension", func(c *Config) { c.Dimension = "country" }},
		{"zero elasticity", func(c *Config) { c.Elasticity = 0 }},
		{"unknown window", func(c *Config) { c.Window = "30d" }},
		{"target above one", func(c *Config) { c.Targets = []float64{1.5} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			_, err := New().Evaluate(nil, cfg)
			require.Error(t, err)
			var ve *apperr.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestEvaluateRejectsInvertedDateRange(t *testing.T) {
	cfg := testConfig()
	cfg.Filter = domain.Filter{
		From: mustDate("2026-08-20"),
		To:   mustDate("2026-08-10"),
	}

	_, err := New().Evaluate(nil, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inverted")
}

func TestEvaluateNoSignalSessionListing(t *testing.T) {
	rows := feedRows("home", "trending", 2)
	// A session of unviewed impressions has no positive grade anywhere.
	rows = append(rows,
		domain.Impression{SessionID: "dead", EntityID: "x", Position: 1, Surface: "home"},
		domain.Impression{SessionID: "dead", EntityID: "y", Position: 2, Surface: "home"},
	)

	cfg := testConfig()
	ev, err := New().Evaluate(rows, cfg)
	require.NoError(t, err)
	assert.Len(t, ev.Sessions, 2)
	assert.Equal(t, 1, ev.Funnel.NoSignalSessions[10])

	cfg.IncludeNoSignal = true
	ev, err = New().Evaluate(rows, cfg)
	require.NoError(t, err)
	assert.Len(t, ev.Sessions, 3)
}

func TestEvaluateDailyTrends(t *testing.T) {
	day1 := feedRows("home", "trending", 2)
	for i := range day1 {
		day1[i].EventTime = mustDate("2026-08-10").Add(time.Duration(i) * time.Minute)
	}
	day2 := feedRows("search", "query", 1)
	for i := range day2 {
		day2[i].EventTime = mustDate("2026-08-12")
	}
	// A session without timestamps cannot land on any day.
	rows := append(append(day1, day2...), domain.Impression{
		SessionID: "untimed", EntityID: "x", Position: 1, Viewed: true, Surface: "home",
	})

	ev, err := New().Evaluate(rows, testConfig())
	require.NoError(t, err)
	require.Len(t, ev.Trends, 2)

	first, second := ev.Trends[0], ev.Trends[1]
	assert.Equal(t, "2026-08-10", first.Date)
	assert.Equal(t, 2, first.Sessions)
	assert.Equal(t, 10, first.Impressions)
	assert.Equal(t, 2, first.Clicks)
	assert.Equal(t, 2, first.Purchases)
	assert.InDelta(t, 20.0, first.CTRPct, 1e-9)
	assert.InDelta(t, 100.0, first.Revenue, 1e-9)
	assert.InDelta(t, first.MeanNDCG, first.MedianNDCG, 1e-9)

	assert.Equal(t, "2026-08-12", second.Date)
	assert.Equal(t, 1, second.Sessions)
	assert.InDelta(t, 50.0, second.Revenue, 1e-9)
}

func TestEvaluateEmptyInput(t *testing.T) {
	ev, err := New().Evaluate(nil, testConfig())
	require.NoError(t, err)

	assert.Zero(t, ev.Funnel.Sessions)
	assert.Empty(t, ev.Dimensions.Buckets)
	assert.False(t, ev.Dimensions.ReferenceDefined)
	assert.Zero(t, ev.Opportunity.TotalUplift)
}

func TestPrimaryK(t *testing.T) {
	cfg := testConfig()
	cfg.Cutoffs = []int{20, 5, 10}
	assert.Equal(t, 20, cfg.PrimaryK())
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}
