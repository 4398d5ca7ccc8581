package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/ranklens/ranklens/internal/dimension"
	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/engine"
	"github.com/ranklens/ranklens/internal/evalspec"
	"github.com/ranklens/ranklens/internal/relevance"
	"github.com/ranklens/ranklens/internal/report"
	"github.com/ranklens/ranklens/internal/storage"
	"github.com/ranklens/ranklens/internal/storage/es"
	"github.com/ranklens/ranklens/internal/storage/pg"
	"github.com/ranklens/ranklens/pkg/stringsutil"
)

func main() {
	cfg := parseFlags()
	ctx := context.Background()

	if cfg.SpecPath != "" {
		runWithSpec(ctx, cfg)
	} else {
		runQuickMode(ctx, cfg)
	}
}

func runWithSpec(ctx context.Context, cfg cliConfig) {
	spec, err := evalspec.LoadFromFile(cfg.SpecPath)
	if err != nil {
		slog.Error("Failed to load spec", "path", cfg.SpecPath, "error", err)
		os.Exit(1)
	}

	engCfg, err := spec.ToEngineConfig()
	if err != nil {
		slog.Error("Invalid spec", "path", cfg.SpecPath, "error", err)
		os.Exit(1)
	}

	source, cleanup, err := specSource(ctx, cfg, spec.Source)
	if err != nil {
		slog.Error("Failed to create row source", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	run(ctx, spec.Name, source, spec.ToRowFilter(), engCfg, cfg.Output)
}

func runQuickMode(ctx context.Context, cfg cliConfig) {
	engCfg, err := quickConfig(cfg)
	if err != nil {
		slog.Error("Invalid flags", "error", err)
		os.Exit(1)
	}

	source, cleanup, err := flagSource(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create row source", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	filter := storage.RowFilter{
		From:        time.Now().AddDate(0, 0, -cfg.DaysBack),
		MaxPosition: cfg.MaxPosition,
		Limit:       cfg.RowLimit,
	}

	run(ctx, cfg.Name, source, filter, engCfg, cfg.Output)
}

func run(ctx context.Context, name string, source storage.RowSource, filter storage.RowFilter, engCfg engine.Config, output string) {
	rows, err := source.FetchImpressions(ctx, filter)
	if err != nil {
		slog.Error("Failed to fetch impressions", "error", err)
		os.Exit(1)
	}
	slog.Info("Fetched impressions", "rows", len(rows))

	ev, err := engine.New().Evaluate(rows, engCfg)
	if err != nil {
		slog.Error("Evaluation failed", "error", err)
		os.Exit(1)
	}

	rep := report.Generate(name, ev)
	report.WriteTable(rep, os.Stdout)

	if output != "" {
		if err := report.WriteJSON(rep, output); err != nil {
			slog.Error("Failed to write JSON report", "path", output, "error", err)
			os.Exit(1)
		}
		slog.Info("Report written", "path", output)
	}
}

func quickConfig(cfg cliConfig) (engine.Config, error) {
	engCfg := engine.DefaultConfig()

	kValues, err := cfg.parseKValues()
	if err != nil {
		return engCfg, err
	}
	engCfg.Cutoffs = kValues

	policy, err := relevance.ParsePolicy(cfg.Policy)
	if err != nil {
		return engCfg, err
	}
	engCfg.Policy = policy

	dim, err := dimension.ParseDimension(cfg.Dimension)
	if err != nil {
		return engCfg, err
	}
	engCfg.Dimension = dim

	window, err := domain.ParseAttributionWindow(cfg.Window)
	if err != nil {
		return engCfg, err
	}
	engCfg.Window = window

	order, err := dimension.ParseOrder(cfg.Order)
	if err != nil {
		return engCfg, err
	}
	engCfg.Order = order

	engCfg.MinSampleSize = cfg.MinSample
	if cfg.Elasticity > 0 {
		engCfg.Elasticity = cfg.Elasticity
	}
	engCfg.PeriodDays = cfg.DaysBack
	engCfg.IncludeNoSignal = cfg.IncludeNoSignal

	return engCfg, nil
}

// specSource builds the row source named by the spec, falling back to the
// connection flags when the spec leaves the source section out.
func specSource(ctx context.Context, cfg cliConfig, src evalspec.SourceSpec) (storage.RowSource, func(), error) {
	switch src.Type {
	case "postgres":
		return pgSource(ctx, src.Connection, src.Table)
	case "elasticsearch":
		return esSource(src.Connection, src.Index)
	default:
		return flagSource(ctx, cfg)
	}
}

func flagSource(ctx context.Context, cfg cliConfig) (storage.RowSource, func(), error) {
	if cfg.PgConnStr != "" {
		return pgSource(ctx, cfg.PgConnStr, cfg.Table)
	}
	if cfg.EsAddresses != "" {
		return esSource(cfg.EsAddresses, cfg.EsIndex)
	}
	slog.Error("No row source configured, pass -pg or -es-addresses (or a spec with a source section)")
	os.Exit(1)
	return nil, nil, nil
}

func pgSource(ctx context.Context, connStr, table string) (storage.RowSource, func(), error) {
	pool, err := pg.NewConnectionPool(ctx, pg.PoolConfig{ConnStr: connStr})
	if err != nil {
		return nil, nil, err
	}
	return pg.NewReader(pool, table), pool.Close, nil
}

func esSource(addresses, index string) (storage.RowSource, func(), error) {
	reader, err := es.NewReader(es.ClientConfig{
		Addresses: stringsutil.SplitCSV(addresses),
		IndexName: index,
	})
	if err != nil {
		return nil, nil, err
	}
	return reader, func() {}, nil
}
