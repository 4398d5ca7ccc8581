// Package storage defines how impression rows reach the evaluation engine.
// The engine never constructs queries itself; it consumes whatever row set
// a RowSource materializes for it.
package storage

import (
	"context"
	"time"

	"github.com/ranklens/ranklens/internal/domain"
)

// Type names a row source backend.
type Type string

const (
	PG Type = "postgres"
	ES Type = "elasticsearch"
)

// RowFilter is the pushdown filter a source applies before returning rows.
// Zero values match everything.
type RowFilter struct {
	From     time.Time
	To       time.Time
	Surface  string
	Segment  string
	Category string

	// MaxPosition drops rows beyond a feed depth; 0 keeps all positions.
	MaxPosition int

	// Limit caps the number of rows returned; 0 means no cap.
	Limit int
}

// RowSource fetches impression rows matching a filter.
type RowSource interface {
	FetchImpressions(ctx context.Context, f RowFilter) ([]domain.Impression, error)
}

// FilterOptionSource lists the distinct label values present in the data,
// for serving layers that populate filter dropdowns.
type FilterOptionSource interface {
	FilterOptions(ctx context.Context) (*domain.FilterOptions, error)
}
