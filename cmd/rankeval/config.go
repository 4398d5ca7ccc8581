package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

type cliConfig struct {
	SpecPath    string
	PgConnStr   string
	Table       string
	EsAddresses string
	EsIndex     string

	KValues    string
	Policy     string
	Dimension  string
	Window     string
	Order      string
	MinSample  int
	Elasticity float64
	DaysBack   int

	MaxPosition     int
	RowLimit        int
	IncludeNoSignal bool

	Name   string
	Output string
}

func parseFlags() cliConfig {
	cfg := cliConfig{}

	flag.StringVar(&cfg.SpecPath, "spec", "", "Path to evaluation spec YAML (overrides quick-mode flags)")
	flag.StringVar(&cfg.PgConnStr, "pg", "", "PostgreSQL connection string")
	flag.StringVar(&cfg.Table, "table", "", "Impressions table name (postgres)")
	flag.StringVar(&cfg.EsAddresses, "es-addresses", "", "Elasticsearch addresses, comma-separated")
	flag.StringVar(&cfg.EsIndex, "es-index", "impressions", "Elasticsearch index name")

	flag.StringVar(&cfg.KValues, "k", "5,10,20", "NDCG cutoffs, comma-separated")
	flag.StringVar(&cfg.Policy, "policy", "graded", "Relevance policy: binary or graded")
	flag.StringVar(&cfg.Dimension, "dimension", "source", "Breakdown dimension: surface, segment, category or source")
	flag.StringVar(&cfg.Window, "window", "1d", "Purchase attribution window: 1d or 7d")
	flag.StringVar(&cfg.Order, "order", "worst", "Bucket sort order: worst, ndcg or sessions")
	flag.IntVar(&cfg.MinSample, "min-sample", 100, "Minimum qualifying sessions per bucket")
	flag.Float64Var(&cfg.Elasticity, "elasticity", 0, "Revenue elasticity of NDCG (0 uses the default)")
	flag.IntVar(&cfg.DaysBack, "days", 7, "Evaluation window in days ending now")

	flag.IntVar(&cfg.MaxPosition, "max-position", 20, "Feed depth cutoff for fetched rows")
	flag.IntVar(&cfg.RowLimit, "row-limit", 200000, "Maximum rows fetched from the source")
	flag.BoolVar(&cfg.IncludeNoSignal, "include-no-signal", false, "List sessions with undefined NDCG as well")

	flag.StringVar(&cfg.Name, "name", "quick", "Evaluation name used in the report")
	flag.StringVar(&cfg.Output, "output", "", "Write the full report as JSON to this path")

	flag.Parse()
	return cfg
}

func (c cliConfig) parseKValues() ([]int, error) {
	parts := strings.Split(c.KValues, ",")
	vals := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid k value %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("k value must be positive, got %d", v)
		}
		vals = append(vals, v)
	}
	return vals, nil
}
