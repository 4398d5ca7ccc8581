// Package engine wires the relevance model, ranking evaluator, session and
// dimensional aggregators and the opportunity model into a single stateless
// evaluation. Each call is an independent transformation of its input rows;
// nothing is cached or shared between calls, so concurrent evaluations need
// no locking.
package engine

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ranklens/ranklens/internal/dimension"
	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/opportunity"
	"github.com/ranklens/ranklens/internal/session"
)

// Evaluation is the complete result of one evaluation request.
type Evaluation struct {
	ID     uuid.UUID `json:"id"`
	Config Config    `json:"-"`

	// Sessions is the per-session listing. Sessions with undefined NDCG at
	// the primary cutoff appear only when Config.IncludeNoSignal is set.
	Sessions []session.Result `json:"sessions"`

	Funnel      Funnel                `json:"funnel"`
	Dimensions  dimension.Aggregation `json:"dimensions"`
	Opportunity opportunity.Summary   `json:"opportunity"`

	// Trends is the daily funnel/NDCG series at the primary cutoff, sorted
	// by date. Sessions without an event time are absent from it.
	Trends []TrendPoint `json:"trends"`
}

type Engine struct {
	validate *validator.Validate
}

func New() *Engine {
	return &Engine{validate: validator.New()}
}

// Evaluate runs the full pipeline over the given rows. The config is
// checked up front; after that no condition in the run is fatal, since the
// worst outcome for a session or bucket is a counted exclusion.
func (e *Engine) Evaluate(rows []domain.Impression, cfg Config) (*Evaluation, error) {
	if err := cfg.validate(e.validate); err != nil {
		return nil, err
	}

	batch := session.Aggregate(rows, cfg.Policy, cfg.Window, cfg.Cutoffs, cfg.Filter)

	k := cfg.PrimaryK()
	funnel := computeFunnel(batch, cfg.Cutoffs)
	agg := dimension.Aggregate(batch.Results, cfg.Dimension, k, cfg.MinSampleSize, cfg.Order)

	model := opportunity.Model{
		Elasticity: cfg.Elasticity,
		Targets:    cfg.Targets,
		PeriodDays: cfg.PeriodDays,
	}

	ev := &Evaluation{
		ID:          uuid.New(),
		Config:      cfg,
		Sessions:    listSessions(batch.Results, k, cfg.IncludeNoSignal),
		Funnel:      funnel,
		Dimensions:  agg,
		Opportunity: model.Summarize(agg),
		Trends:      computeTrends(batch, k),
	}

	slog.Info("Evaluation complete",
		"id", ev.ID,
		"rows", len(rows),
		"sessions", funnel.Sessions,
		"buckets", len(agg.Buckets),
		"excluded_buckets", len(agg.Excluded),
		"k", k,
	)
	if funnel.MalformedRows > 0 || funnel.PositionCollisions > 0 || funnel.OrphanedRows > 0 {
		slog.Warn("Evaluation absorbed data-quality anomalies",
			"id", ev.ID,
			"malformed_rows", funnel.MalformedRows,
			"position_collisions", funnel.PositionCollisions,
			"orphaned_rows", funnel.OrphanedRows,
		)
	}

	return ev, nil
}

func listSessions(results []session.Result, k int, includeNoSignal bool) []session.Result {
	if includeNoSignal {
		return results
	}
	listed := make([]session.Result, 0, len(results))
	for _, r := range results {
		if r.HasSignal(k) {
			listed = append(listed, r)
		}
	}
	return listed
}
