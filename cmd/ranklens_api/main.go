// Package main Ranklens API: ranking quality evaluation over recommendation
// impression logs.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/ranklens/ranklens/internal/engine"
	"github.com/ranklens/ranklens/internal/router"
	"github.com/ranklens/ranklens/internal/server"
	"github.com/ranklens/ranklens/internal/storage/factory"
)

func main() {
	sCfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("Failed to load server config", "error", err)
		os.Exit(1)
	}

	appSettings := NewAppConfig()
	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
	}

	source, checker, cleanup, err := factory.NewRowSource(context.Background(), cfg.StorageConfig)
	if err != nil {
		slog.Error("Failed to create row source", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	s := server.New(sCfg, checker)

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Ranklens API is running")
	})

	evalRouter := router.NewEvaluationRouter(s.Echo, source, engine.New())
	evalRouter.Bind()

	slog.Info("Starting Ranklens API", "port", sCfg.Port, "storage", cfg.StorageConfig.Type)
	if err := s.Start(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
