package main

import (
	"log/slog"
	"os"

	"github.com/ranklens/ranklens/internal/storage/factory"
	"github.com/ranklens/ranklens/pkg/config/env"
)

type AppConfig struct {
	ENV string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type RanklensAPIConfig struct {
	StorageConfig *factory.StorageConfig
}

func (as *AppConfig) Load() (*RanklensAPIConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/ranklens_api/.env")
	if err != nil {
		slog.Info("Failed to load .env, continuing with existing environment variables", "error", err)
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load storage configuration from environment", "error", err)
		return nil, err
	}

	return &RanklensAPIConfig{
		StorageConfig: storageCfg,
	}, nil
}
