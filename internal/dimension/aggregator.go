// Package dimension buckets session evaluation results by a chosen dimension
// and measures each bucket against the median of its peers.
package dimension

import (
	"fmt"
	"sort"

	"github.com/ranklens/ranklens/internal/session"
	"github.com/ranklens/ranklens/pkg/utils"
)

type Dimension string

const (
	BySurface  Dimension = "surface"
	BySegment  Dimension = "segment"
	ByCategory Dimension = "category"
	BySource   Dimension = "source"
)

func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case BySurface, BySegment, ByCategory, BySource:
		return Dimension(s), nil
	default:
		return "", fmt.Errorf("unsupported dimension: %q", s)
	}
}

type Order string

const (
	// OrderWorstFirst sorts by deviation ascending, so the buckets furthest
	// below the reference come first.
	OrderWorstFirst Order = "worst"
	OrderByNDCG     Order = "ndcg"
	OrderBySessions Order = "sessions"
)

func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", "deviation":
		return OrderWorstFirst, nil
	case OrderWorstFirst, OrderByNDCG, OrderBySessions:
		return Order(s), nil
	default:
		return "", fmt.Errorf("unsupported sort order: %q", s)
	}
}

// Bucket is the aggregate of all qualifying sessions sharing one dimension
// value. A session qualifies when its NDCG is defined at the chosen cutoff.
type Bucket struct {
	Value      string  `json:"value"`
	Sessions   int     `json:"sessions"`
	MeanNDCG   float64 `json:"mean_ndcg"`
	MedianNDCG float64 `json:"median_ndcg"`

	// DeviationPct is the signed percentage deviation of MeanNDCG from the
	// reference median, e.g. -33.3 for a bucket one third below it.
	DeviationPct float64 `json:"deviation_pct"`

	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Purchases   int     `json:"purchases"`
	Revenue     float64 `json:"revenue_usd"`
}

// Excluded records a bucket dropped from the ranked output for having fewer
// qualifying sessions than the minimum sample size.
type Excluded struct {
	Value    string `json:"value"`
	Sessions int    `json:"sessions"`
}

// Aggregation is the per-dimension breakdown of one evaluation.
//
// For the source dimension a session joins the bucket of every source label
// its items carry, so per-source session sums may exceed the total session
// count. That double counting is expected and must be read as such.
type Aggregation struct {
	Dimension Dimension  `json:"dimension"`
	K         int        `json:"k"`
	Buckets   []Bucket   `json:"buckets"`
	Excluded  []Excluded `json:"excluded"`

	// ReferenceNDCG is the median MeanNDCG across included buckets, computed
	// fresh per call; it is never cached across evaluations.
	ReferenceNDCG    float64 `json:"reference_ndcg"`
	ReferenceDefined bool    `json:"reference_defined"`

	// NoSignalSessions counts sessions skipped because NDCG was undefined at
	// the cutoff.
	NoSignalSessions int `json:"no_signal_sessions"`
}

type accumulator struct {
	ndcgs       []float64
	impressions int
	clicks      int
	purchases   int
	revenue     float64
}

// Aggregate buckets results by dim at cutoff k. Buckets under minSample
// qualifying sessions are moved to Excluded rather than silently dropped.
// The median reference and all deviations are computed over included
// buckets only, and the result is independent of input order.
func Aggregate(results []session.Result, dim Dimension, k, minSample int, order Order) Aggregation {
	agg := Aggregation{Dimension: dim, K: k}

	accs := make(map[string]*accumulator)
	for i := range results {
		r := &results[i]
		if !r.HasSignal(k) {
			agg.NoSignalSessions++
			continue
		}
		for _, key := range bucketKeys(r, dim) {
			acc, ok := accs[key]
			if !ok {
				acc = &accumulator{}
				accs[key] = acc
			}
			acc.ndcgs = append(acc.ndcgs, r.Scores[k].NDCG)
			acc.impressions += len(r.Items)
			acc.clicks += r.Clicks
			acc.purchases += r.Purchases
			acc.revenue += r.Revenue
		}
	}

	for value, acc := range accs {
		if len(acc.ndcgs) < minSample {
			agg.Excluded = append(agg.Excluded, Excluded{Value: value, Sessions: len(acc.ndcgs)})
			continue
		}
		agg.Buckets = append(agg.Buckets, Bucket{
			Value:       value,
			Sessions:    len(acc.ndcgs),
			MeanNDCG:    utils.Mean(acc.ndcgs),
			MedianNDCG:  utils.Median(acc.ndcgs),
			Impressions: acc.impressions,
			Clicks:      acc.clicks,
			Purchases:   acc.purchases,
			Revenue:     acc.revenue,
		})
	}

	sort.Slice(agg.Excluded, func(i, j int) bool {
		return agg.Excluded[i].Value < agg.Excluded[j].Value
	})

	if len(agg.Buckets) > 0 {
		ndcgs := make([]float64, len(agg.Buckets))
		for i, b := range agg.Buckets {
			ndcgs[i] = b.MeanNDCG
		}
		agg.ReferenceNDCG = utils.Median(ndcgs)
		agg.ReferenceDefined = true

		if agg.ReferenceNDCG > 0 {
			for i := range agg.Buckets {
				b := &agg.Buckets[i]
				b.DeviationPct = (b.MeanNDCG - agg.ReferenceNDCG) / agg.ReferenceNDCG * 100
			}
		}
	}

	sortBuckets(agg.Buckets, order)
	return agg
}

func bucketKeys(r *session.Result, dim Dimension) []string {
	switch dim {
	case BySurface:
		return labelOrUnknown(r.Surface)
	case BySegment:
		return labelOrUnknown(r.Segment)
	case ByCategory:
		return labelOrUnknown(r.Category)
	case BySource:
		seen := make(map[string]struct{})
		var keys []string
		for _, item := range r.Items {
			for _, src := range item.Sources {
				if src == "" {
					src = "unknown"
				}
				if _, ok := seen[src]; ok {
					continue
				}
				seen[src] = struct{}{}
				keys = append(keys, src)
			}
		}
		return keys
	default:
		return nil
	}
}

func labelOrUnknown(v string) []string {
	if v == "" {
		return []string{"unknown"}
	}
	return []string{v}
}

func sortBuckets(buckets []Bucket, order Order) {
	less := func(i, j int) bool {
		return buckets[i].DeviationPct < buckets[j].DeviationPct ||
			(buckets[i].DeviationPct == buckets[j].DeviationPct && buckets[i].Value < buckets[j].Value)
	}
	switch order {
	case OrderByNDCG:
		less = func(i, j int) bool {
			return buckets[i].MeanNDCG > buckets[j].MeanNDCG ||
				(buckets[i].MeanNDCG == buckets[j].MeanNDCG && buckets[i].Value < buckets[j].Value)
		}
	case OrderBySessions:
		less = func(i, j int) bool {
			return buckets[i].Sessions > buckets[j].Sessions ||
				(buckets[i].Sessions == buckets[j].Sessions && buckets[i].Value < buckets[j].Value)
		}
	}
	sort.Slice(buckets, less)
}
