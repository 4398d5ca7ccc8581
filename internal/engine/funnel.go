package engine

import (
	"github.com/ranklens/ranklens/internal/session"
	"github.com/ranklens/ranklens/pkg/utils"
)

// Funnel summarizes interaction volume and ranking quality across all
// sessions of one evaluation, the counters a dashboard headline needs.
type Funnel struct {
	Sessions    int `json:"sessions"`
	Impressions int `json:"impressions"`
	Clicks      int `json:"clicks"`
	Purchases   int `json:"purchases"`

	// CTRPct is clicks per impression and PTRPct purchases per impression,
	// both in percent. ConversionPct is purchases per click.
	CTRPct        float64 `json:"ctr_pct"`
	PTRPct        float64 `json:"ptr_pct"`
	ConversionPct float64 `json:"conversion_pct"`

	// RecallClickPct[k] is the share of sessions with a click inside the
	// top k positions. RecallPurchasePct[k] is the share of purchasing
	// sessions whose purchase sits inside the top k.
	RecallClickPct    map[int]float64 `json:"recall_click_pct"`
	RecallPurchasePct map[int]float64 `json:"recall_purchase_pct"`

	MeanNDCG   map[int]float64 `json:"mean_ndcg"`
	MedianNDCG map[int]float64 `json:"median_ndcg"`

	SessionsWithClicks    int `json:"sessions_with_clicks"`
	SessionsWithPurchases int `json:"sessions_with_purchases"`

	// NoSignalSessions[k] counts sessions whose NDCG is undefined at k and
	// therefore excluded from the NDCG means and medians.
	NoSignalSessions map[int]int `json:"no_signal_sessions"`

	FlaggedSessions    int `json:"flagged_sessions"`
	MalformedRows      int `json:"malformed_rows"`
	PositionCollisions int `json:"position_collisions"`
	OrphanedRows       int `json:"orphaned_rows"`
	FilteredRows       int `json:"filtered_rows"`

	Revenue float64 `json:"revenue_usd"`
}

func computeFunnel(batch session.Batch, cutoffs []int) Funnel {
	f := Funnel{
		Sessions:          len(batch.Results),
		OrphanedRows:      batch.OrphanedRows,
		FilteredRows:      batch.FilteredRows,
		RecallClickPct:    make(map[int]float64, len(cutoffs)),
		RecallPurchasePct: make(map[int]float64, len(cutoffs)),
		MeanNDCG:          make(map[int]float64, len(cutoffs)),
		MedianNDCG:        make(map[int]float64, len(cutoffs)),
		NoSignalSessions:  make(map[int]int, len(cutoffs)),
	}

	ndcgs := make(map[int][]float64, len(cutoffs))
	clickInTop := make(map[int]int, len(cutoffs))
	purchaseInTop := make(map[int]int, len(cutoffs))

	for i := range batch.Results {
		r := &batch.Results[i]

		f.Impressions += len(r.Items)
		f.Clicks += r.Clicks
		f.Purchases += r.Purchases
		f.Revenue += r.Revenue
		f.MalformedRows += r.Quality.MalformedRows
		f.PositionCollisions += r.Quality.PositionCollisions
		if r.Flagged() {
			f.FlaggedSessions++
		}
		if r.Clicks > 0 {
			f.SessionsWithClicks++
		}
		if r.Purchases > 0 {
			f.SessionsWithPurchases++
		}

		for _, k := range cutoffs {
			if s, ok := r.Scores[k]; ok && s.Defined {
				ndcgs[k] = append(ndcgs[k], s.NDCG)
			} else {
				f.NoSignalSessions[k]++
			}
			if hasEventInTop(r, k, func(it session.Item) bool { return it.Clicked }) {
				clickInTop[k]++
			}
			if hasEventInTop(r, k, func(it session.Item) bool { return it.Purchased }) {
				purchaseInTop[k]++
			}
		}
	}

	f.CTRPct = pct(f.Clicks, f.Impressions)
	f.PTRPct = pct(f.Purchases, f.Impressions)
	f.ConversionPct = pct(f.Purchases, f.Clicks)

	for _, k := range cutoffs {
		f.RecallClickPct[k] = pct(clickInTop[k], f.Sessions)
		f.RecallPurchasePct[k] = pct(purchaseInTop[k], f.SessionsWithPurchases)
		f.MeanNDCG[k] = utils.Mean(ndcgs[k])
		f.MedianNDCG[k] = utils.Median(ndcgs[k])
	}

	return f
}

func hasEventInTop(r *session.Result, k int, match func(session.Item) bool) bool {
	for _, it := range r.Items {
		if it.Position > k {
			// Items are sorted by position, nothing further can qualify.
			return false
		}
		if match(it) {
			return true
		}
	}
	return false
}

func pct(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}
