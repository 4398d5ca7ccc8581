package pg

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/storage"
)

// Reader fetches impression rows from the warehouse impressions table.
type Reader struct {
	db    *pgxpool.Pool
	table string
}

const defaultTable = "recs_impressions"

func NewReader(pool *ConnectionPool, table string) *Reader {
	if table == "" {
		table = defaultTable
	}
	return &Reader{db: pool.conn, table: table}
}

// FetchImpressions implements storage.RowSource. Filters are pushed into the
// query; ordering by session and position keeps the input order stable so
// first-seen-wins dedup downstream is deterministic.
func (r *Reader) FetchImpressions(ctx context.Context, f storage.RowFilter) ([]domain.Impression, error) {
	slog.Info("Fetching impressions from pg",
		"surface", f.Surface, "segment", f.Segment, "category", f.Category, "limit", f.Limit)

	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, "position > 0")
	if f.MaxPosition > 0 {
		where = append(where, "position <= "+arg(f.MaxPosition))
	}
	if !f.From.IsZero() {
		where = append(where, "event_time >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "event_time < "+arg(f.To))
	}
	if f.Surface != "" {
		where = append(where, "surface = "+arg(f.Surface))
	}
	if f.Segment != "" {
		where = append(where, "segment = "+arg(f.Segment))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}

	query := fmt.Sprintf(`
		SELECT
			session_id, user_id, entity_id, position, sources,
			viewed, clicked, added_to_cart, purchased_1d, purchased_7d,
			surface, segment, category, COALESCE(revenue_usd, 0), event_time
		FROM %s
		WHERE %s
		ORDER BY session_id, position
	`, r.table, strings.Join(where, " AND "))

	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query impressions: %w", err)
	}
	defer rows.Close()

	var impressions []domain.Impression
	for rows.Next() {
		var imp domain.Impression
		if err := rows.Scan(
			&imp.SessionID,
			&imp.UserID,
			&imp.EntityID,
			&imp.Position,
			&imp.Sources,
			&imp.Viewed,
			&imp.Clicked,
			&imp.AddedToCart,
			&imp.Purchased1D,
			&imp.Purchased7D,
			&imp.Surface,
			&imp.Segment,
			&imp.Category,
			&imp.Revenue,
			&imp.EventTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan impression: %w", err)
		}
		impressions = append(impressions, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read impressions: %w", err)
	}

	slog.Info("Impressions fetched from pg", "count", len(impressions))
	return impressions, nil
}

// FilterOptions implements storage.FilterOptionSource.
func (r *Reader) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	query := fmt.Sprintf(`
		SELECT
			ARRAY(SELECT DISTINCT surface FROM %[1]s WHERE surface <> '' ORDER BY surface),
			ARRAY(SELECT DISTINCT segment FROM %[1]s WHERE segment <> '' ORDER BY segment),
			ARRAY(SELECT DISTINCT category FROM %[1]s WHERE category <> '' ORDER BY category),
			ARRAY(SELECT DISTINCT s FROM %[1]s, UNNEST(sources) AS s WHERE s <> '' ORDER BY s)
	`, r.table)

	var opts domain.FilterOptions
	if err := r.db.QueryRow(ctx, query).Scan(
		&opts.Surfaces, &opts.Segments, &opts.Categories, &opts.Sources,
	); err != nil {
		return nil, fmt.Errorf("failed to query filter options: %w", err)
	}
	return &opts, nil
}
