package engine

import (
	"sort"
	"time"

	"github.com/ranklens/ranklens/internal/session"
	"github.com/ranklens/ranklens/pkg/utils"
)

// TrendPoint is the funnel and quality snapshot of a single UTC day. Together
// the points form the daily time series behind a trend chart.
type TrendPoint struct {
	// Date is the UTC day in YYYY-MM-DD form.
	Date string `json:"date"`

	Sessions    int `json:"sessions"`
	Impressions int `json:"impressions"`
	Clicks      int `json:"clicks"`
	Purchases   int `json:"purchases"`

	CTRPct float64 `json:"ctr_pct"`
	PTRPct float64 `json:"ptr_pct"`

	// MeanNDCG and MedianNDCG are taken at the primary cutoff, over the
	// day's sessions with a defined score.
	MeanNDCG   float64 `json:"mean_ndcg"`
	MedianNDCG float64 `json:"median_ndcg"`

	// NoSignalSessions counts the day's sessions whose NDCG is undefined at
	// the primary cutoff.
	NoSignalSessions int `json:"no_signal_sessions"`

	Revenue float64 `json:"revenue_usd"`
}

// computeTrends buckets sessions by the UTC day of their event time and
// summarizes each day at cutoff k. Sessions without an event time cannot be
// placed on a day and are skipped. Points come back sorted by date ascending.
func computeTrends(batch session.Batch, k int) []TrendPoint {
	days := make(map[string]*TrendPoint)
	ndcgs := make(map[string][]float64)

	for i := range batch.Results {
		r := &batch.Results[i]
		if r.EventTime.IsZero() {
			continue
		}
		day := r.EventTime.UTC().Format(time.DateOnly)

		p, ok := days[day]
		if !ok {
			p = &TrendPoint{Date: day}
			days[day] = p
		}

		p.Sessions++
		p.Impressions += len(r.Items)
		p.Clicks += r.Clicks
		p.Purchases += r.Purchases
		p.Revenue += r.Revenue

		if s, ok := r.Scores[k]; ok && s.Defined {
			ndcgs[day] = append(ndcgs[day], s.NDCG)
		} else {
			p.NoSignalSessions++
		}
	}

	points := make([]TrendPoint, 0, len(days))
	for day, p := range days {
		p.CTRPct = pct(p.Clicks, p.Impressions)
		p.PTRPct = pct(p.Purchases, p.Impressions)
		p.MeanNDCG = utils.Mean(ndcgs[day])
		p.MedianNDCG = utils.Median(ndcgs[day])
		points = append(points, *p)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	return points
}
