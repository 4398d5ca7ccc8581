// Package factory builds a row source from a storage configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/ranklens/ranklens/internal/storage"
	"github.com/ranklens/ranklens/internal/storage/es"
	"github.com/ranklens/ranklens/internal/storage/pg"
	pkgserver "github.com/ranklens/ranklens/pkg/server"
)

// NewRowSource creates the configured row source together with a health
// checker bound to the backend and a cleanup func releasing its resources.
func NewRowSource(ctx context.Context, cfg *StorageConfig) (storage.RowSource, pkgserver.HealthChecker, func(), error) {
	switch cfg.Type {
	case storage.PG:
		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}
		reader := pg.NewReader(pool, cfg.Table)
		return reader, pkgserver.NewPingHealthChecker(pool.Ping), pool.Close, nil

	case storage.ES:
		reader, err := es.NewReader(*cfg.Es)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create Elasticsearch reader: %w", err)
		}
		return reader, pkgserver.NewOkHealthChecker(), func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
