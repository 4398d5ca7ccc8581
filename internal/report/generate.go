// Package report renders an evaluation as tabwriter tables or JSON for the
// offline CLI.
package report

import (
	"github.com/ranklens/ranklens/internal/engine"
	"github.com/ranklens/ranklens/pkg/utils"
)

const scoreDecimals = 4

func Generate(name string, ev *engine.Evaluation) *Report {
	cfg := ev.Config

	r := &Report{
		Name:  name,
		RunID: ev.ID.String(),
		Config: ReportConfig{
			Policy:        string(cfg.Policy),
			Cutoffs:       cfg.Cutoffs,
			PrimaryK:      cfg.PrimaryK(),
			Dimension:     string(cfg.Dimension),
			MinSampleSize: cfg.MinSampleSize,
			Elasticity:    cfg.Elasticity,
			Window:        string(cfg.Window),
			Targets:       cfg.Targets,
			PeriodDays:    cfg.PeriodDays,
		},
		Funnel: FunnelEntry{
			Sessions:          ev.Funnel.Sessions,
			Impressions:       ev.Funnel.Impressions,
			Clicks:            ev.Funnel.Clicks,
			Purchases:         ev.Funnel.Purchases,
			CTRPct:            utils.RoundDecimal(ev.Funnel.CTRPct, 2),
			PTRPct:            utils.RoundDecimal(ev.Funnel.PTRPct, 2),
			ConversionPct:     utils.RoundDecimal(ev.Funnel.ConversionPct, 2),
			MeanNDCG:          roundMap(ev.Funnel.MeanNDCG),
			MedianNDCG:        roundMap(ev.Funnel.MedianNDCG),
			RecallClickPct:    roundMap(ev.Funnel.RecallClickPct),
			RecallPurchasePct: roundMap(ev.Funnel.RecallPurchasePct),
			NoSignalSessions:  ev.Funnel.NoSignalSessions,
			MalformedRows:     ev.Funnel.MalformedRows,
			Collisions:        ev.Funnel.PositionCollisions,
			OrphanedRows:      ev.Funnel.OrphanedRows,
			Revenue:           utils.RoundDecimal(ev.Funnel.Revenue, 2),
		},
		ReferenceNDCG: utils.RoundDecimal(ev.Dimensions.ReferenceNDCG, scoreDecimals),
		TotalUplift:   utils.RoundDecimal(ev.Opportunity.TotalUplift, 2),
		Model:         ev.Opportunity.Label,
	}

	for _, b := range ev.Dimensions.Buckets {
		r.Buckets = append(r.Buckets, BucketRow{
			Value:        b.Value,
			Sessions:     b.Sessions,
			MeanNDCG:     utils.RoundDecimal(b.MeanNDCG, scoreDecimals),
			MedianNDCG:   utils.RoundDecimal(b.MedianNDCG, scoreDecimals),
			DeviationPct: utils.RoundDecimal(b.DeviationPct, 1),
			Revenue:      utils.RoundDecimal(b.Revenue, 2),
		})
	}
	for _, e := range ev.Dimensions.Excluded {
		r.Excluded = append(r.Excluded, ExcludedRow{Value: e.Value, Sessions: e.Sessions})
	}
	for _, o := range ev.Opportunity.Estimates {
		r.Opportunities = append(r.Opportunities, OpportunityRow{
			Value:            o.Value,
			NDCG:             utils.RoundDecimal(o.NDCG, scoreDecimals),
			GapPct:           utils.RoundDecimal(o.GapPct, 1),
			Revenue:          utils.RoundDecimal(o.Revenue, 2),
			Uplift:           utils.RoundDecimal(o.Uplift, 2),
			UpliftAnnualized: utils.RoundDecimal(o.UpliftAnnualized, 2),
		})
	}

	return r
}

func roundMap(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = utils.RoundDecimal(v, scoreDecimals)
	}
	return out
}
