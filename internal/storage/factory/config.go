package factory

import (
	"fmt"
	"os"

	"github.com/ranklens/ranklens/internal/storage"
	"github.com/ranklens/ranklens/internal/storage/es"
	"github.com/ranklens/ranklens/internal/storage/pg"
	"github.com/ranklens/ranklens/pkg/stringsutil"
)

// StorageConfig selects and configures the row source backend.
type StorageConfig struct {
	storage.Type
	Pg *pg.PoolConfig
	Es *es.ClientConfig

	// Table overrides the impressions table for the postgres backend.
	Table string
}

// LoadEnv reads the row source configuration from the environment.
// STORAGE_TYPE picks the backend; defaults to postgres when unset.
func LoadEnv() (*StorageConfig, error) {
	storageType := (storage.Type)(os.Getenv("STORAGE_TYPE"))
	if storageType == "" {
		storageType = storage.PG
	}
	if storageType != storage.PG && storageType != storage.ES {
		return nil, fmt.Errorf(
			"invalid STORAGE_TYPE %q, expected one of %v",
			storageType,
			[]storage.Type{storage.PG, storage.ES})
	}

	var esCfg *es.ClientConfig
	if storageType == storage.ES {
		esCfg = &es.ClientConfig{
			Addresses: stringsutil.SplitCSV(os.Getenv("ES_ADDRESSES")),
			IndexName: os.Getenv("ES_INDEX_NAME"),
			Username:  os.Getenv("ES_USERNAME"),
			Password:  os.Getenv("ES_PASSWORD"),
		}
		if len(esCfg.Addresses) == 0 || esCfg.IndexName == "" {
			return nil, fmt.Errorf("elasticsearch configuration is incomplete: addresses or index name is missing")
		}
	}

	var pgCfg *pg.PoolConfig
	if storageType == storage.PG {
		pgCfg = &pg.PoolConfig{
			ConnStr: os.Getenv("PG_CONNECTION_STRING"),
		}
		if pgCfg.ConnStr == "" {
			return nil, fmt.Errorf("PG_CONNECTION_STRING is not set")
		}
	}

	return &StorageConfig{
		Type:  storageType,
		Pg:    pgCfg,
		Es:    esCfg,
		Table: os.Getenv("PG_IMPRESSIONS_TABLE"),
	}, nil
}
