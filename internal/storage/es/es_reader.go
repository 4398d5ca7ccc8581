package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/storage"
)

const defaultFetchSize = 10000

// Reader fetches impression rows from an Elasticsearch impression index.
type Reader struct {
	client    *elasticsearch.TypedClient
	indexName string
}

func NewReader(config ClientConfig) (*Reader, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &Reader{
		client:    client,
		indexName: config.IndexName,
	}, nil
}

// impressionDoc mirrors the impression event document stored in the index.
type impressionDoc struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	EntityID    string    `json:"entity_id"`
	Position    int       `json:"position"`
	Sources     []string  `json:"sources"`
	Viewed      bool      `json:"viewed"`
	Clicked     bool      `json:"clicked"`
	AddedToCart bool      `json:"added_to_cart"`
	Purchased1D bool      `json:"purchased_1d"`
	Purchased7D bool      `json:"purchased_7d"`
	Surface     string    `json:"surface"`
	Segment     string    `json:"segment"`
	Category    string    `json:"category"`
	Revenue     float64   `json:"revenue_usd"`
	EventTime   time.Time `json:"event_time"`
}

// FetchImpressions implements storage.RowSource with the filter expressed as
// an ES bool query. Hits are sorted by session and position so the row order
// is stable for downstream dedup.
func (r *Reader) FetchImpressions(ctx context.Context, f storage.RowFilter) ([]domain.Impression, error) {
	slog.Info("Fetching impressions from es",
		"index", r.indexName, "surface", f.Surface, "segment", f.Segment, "limit", f.Limit)

	size := f.Limit
	if size <= 0 || size > defaultFetchSize {
		size = defaultFetchSize
	}

	sortOrderAsc := sortorder.Asc
	res, err := r.client.Search().
		Index(r.indexName).
		Query(&types.Query{Bool: &types.BoolQuery{Filter: buildFilters(f)}}).
		Size(size).
		Sort(
			&types.SortOptions{SortOptions: map[string]types.FieldSort{
				"session_id": {Order: &sortOrderAsc},
			}},
			&types.SortOptions{SortOptions: map[string]types.FieldSort{
				"position": {Order: &sortOrderAsc},
			}},
		).
		Do(ctx)
	if err != nil {
		slog.Error("Elasticsearch query failed", "error", err, "index", r.indexName)
		return nil, fmt.Errorf("failed to fetch impressions: %w", err)
	}

	impressions := make([]domain.Impression, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc impressionDoc
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal impression doc: %w", err)
		}
		impressions = append(impressions, domain.Impression{
			SessionID:   doc.SessionID,
			UserID:      doc.UserID,
			EntityID:    doc.EntityID,
			Position:    doc.Position,
			Sources:     doc.Sources,
			Viewed:      doc.Viewed,
			Clicked:     doc.Clicked,
			AddedToCart: doc.AddedToCart,
			Purchased1D: doc.Purchased1D,
			Purchased7D: doc.Purchased7D,
			Surface:     doc.Surface,
			Segment:     doc.Segment,
			Category:    doc.Category,
			Revenue:     doc.Revenue,
			EventTime:   doc.EventTime,
		})
	}

	slog.Info("Impressions fetched from es", "count", len(impressions), "total_matches", res.Hits.Total.Value)
	return impressions, nil
}

func buildFilters(f storage.RowFilter) []types.Query {
	var filters []types.Query

	term := func(field, value string) {
		filters = append(filters, types.Query{
			Term: map[string]types.TermQuery{field: {Value: value}},
		})
	}
	if f.Surface != "" {
		term("surface", f.Surface)
	}
	if f.Segment != "" {
		term("segment", f.Segment)
	}
	if f.Category != "" {
		term("category", f.Category)
	}

	if !f.From.IsZero() || !f.To.IsZero() {
		rq := types.DateRangeQuery{}
		if !f.From.IsZero() {
			gte := f.From.Format(time.RFC3339)
			rq.Gte = &gte
		}
		if !f.To.IsZero() {
			lt := f.To.Format(time.RFC3339)
			rq.Lt = &lt
		}
		filters = append(filters, types.Query{
			Range: map[string]types.RangeQuery{"event_time": rq},
		})
	}

	if f.MaxPosition > 0 {
		maxPos := types.Float64(f.MaxPosition)
		one := types.Float64(1)
		filters = append(filters, types.Query{
			Range: map[string]types.RangeQuery{"position": types.NumberRangeQuery{
				Gte: &one,
				Lte: &maxPos,
			}},
		})
	}

	return filters
}

// FilterOptions implements storage.FilterOptionSource using terms
// aggregations over the label fields.
func (r *Reader) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	aggSize := 50
	aggs := make(map[string]types.Aggregations, 4)
	for name, field := range map[string]string{
		"surfaces":   "surface",
		"segments":   "segment",
		"categories": "category",
		"sources":    "sources",
	} {
		f := field
		aggs[name] = types.Aggregations{
			Terms: &types.TermsAggregation{Field: &f, Size: &aggSize},
		}
	}

	res, err := r.client.Search().
		Index(r.indexName).
		Size(0).
		Aggregations(aggs).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query filter options: %w", err)
	}

	return &domain.FilterOptions{
		Surfaces:   termKeys(res.Aggregations["surfaces"]),
		Segments:   termKeys(res.Aggregations["segments"]),
		Categories: termKeys(res.Aggregations["categories"]),
		Sources:    termKeys(res.Aggregations["sources"]),
	}, nil
}

func termKeys(agg types.Aggregate) []string {
	terms, ok := agg.(*types.StringTermsAggregate)
	if !ok {
		return nil
	}
	buckets, ok := terms.Buckets.([]types.StringTermsBucket)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(buckets))
	for _, b := range buckets {
		if key, ok := b.Key.(string); ok {
			keys = append(keys, key)
		}
	}
	return keys
}
