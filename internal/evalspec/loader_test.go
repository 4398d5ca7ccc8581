package evalspec

import (
	"testing"
	"time"

	"github.com/ranklens/ranklens/internal/dimension"
	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/relevance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid spec", func(t *testing.T) {
		yaml := `
name: "weekly-home-feed"
policy: graded
cutoffs: [5, 10, 20]
min_sample_size: 50
dimension: source
elasticity: 2.0
attribution_window: 7d
order: ndcg
targets: [0.6, 0.8]
period_days: 7

filters:
  surface: home
  from: "2026-08-01"
  to: "2026-08-08"
  max_position: 20
  limit: 100000

source:
  type: postgres
  connection: "postgresql://localhost/recs"
  table: recs_impressions
`
		s, err := Parse([]byte(yaml))
		require.NoError(t, err)
		assert.Equal(t, "weekly-home-feed", s.Name)
		assert.Equal(t, []int{5, 10, 20}, s.Cutoffs)
		assert.Equal(t, "postgres", s.Source.Type)
		assert.Equal(t, "recs_impressions", s.Source.Table)

		cfg, err := s.ToEngineConfig()
		require.NoError(t, err)
		assert.Equal(t, relevance.PolicyGraded, cfg.Policy)
		assert.Equal(t, dimension.BySource, cfg.Dimension)
		assert.Equal(t, dimension.OrderByNDCG, cfg.Order)
		assert.Equal(t, domain.Window7D, cfg.Window)
		assert.InDelta(t, 2.0, cfg.Elasticity, 1e-9)
		assert.Equal(t, 50, cfg.MinSampleSize)
		assert.Equal(t, []float64{0.6, 0.8}, cfg.Targets)
		assert.Equal(t, 20, cfg.PrimaryK())
		assert.Equal(t, "home", cfg.Filter.Surface)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), cfg.Filter.From)

		rf := s.ToRowFilter()
		assert.Equal(t, 20, rf.MaxPosition)
		assert.Equal(t, 100000, rf.Limit)
	})

	t.Run("defaults fill omitted fields", func(t *testing.T) {
		s, err := Parse([]byte(`name: "quick"`))
		require.NoError(t, err)

		cfg, err := s.ToEngineConfig()
		require.NoError(t, err)
		assert.Equal(t, relevance.PolicyGraded, cfg.Policy)
		assert.Equal(t, []int{5, 10, 20}, cfg.Cutoffs)
		assert.Equal(t, 100, cfg.MinSampleSize)
		assert.Equal(t, domain.Window1D, cfg.Window)
		assert.InDelta(t, 1.5, cfg.Elasticity, 1e-9)
	})

	t.Run("no name", func(t *testing.T) {
		_, err := Parse([]byte(`policy: graded`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no name")
	})

	t.Run("non-positive cutoff", func(t *testing.T) {
		_, err := Parse([]byte("name: x\ncutoffs: [5, 0]"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "positive")
	})

	t.Run("unsupported source type", func(t *testing.T) {
		yaml := `
name: x
source:
  type: bigquery
  connection: "bq://project"
`
		_, err := Parse([]byte(yaml))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported source type")
	})

	t.Run("source without connection", func(t *testing.T) {
		yaml := `
name: x
source:
  type: postgres
`
		_, err := Parse([]byte(yaml))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no connection")
	})

	t.Run("bad date", func(t *testing.T) {
		yaml := `
name: x
filters:
  from: "08/01/2026"
`
		_, err := Parse([]byte(yaml))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "filters.from")
	})

	t.Run("bad policy surfaces on conversion", func(t *testing.T) {
		s, err := Parse([]byte("name: x\npolicy: quadratic"))
		require.NoError(t, err)
		_, err = s.ToEngineConfig()
		assert.Error(t, err)
	})
}
