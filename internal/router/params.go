package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ranklens/ranklens/internal/apperr"
	"github.com/ranklens/ranklens/internal/dimension"
	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/engine"
	"github.com/ranklens/ranklens/internal/relevance"
	"github.com/ranklens/ranklens/internal/storage"
)

const (
	defaultDaysBack    = 7
	maxDaysBack        = 90
	defaultMaxPosition = 20
	defaultRowLimit    = 200000
)

// parseConfig turns query parameters into an evaluation config and the
// matching pushdown filter. "all" and empty both mean no filter, matching
// how the dashboard sends its dropdown values.
func parseConfig(c echo.Context) (engine.Config, storage.RowFilter, error) {
	cfg := engine.DefaultConfig()

	if p := c.QueryParam("policy"); p != "" {
		policy, err := relevance.ParsePolicy(p)
		if err != nil {
			return cfg, storage.RowFilter{}, apperr.NewValidationWrap("invalid policy", err)
		}
		cfg.Policy = policy
	}
	if d := c.QueryParam("dimension"); d != "" {
		dim, err := dimension.ParseDimension(d)
		if err != nil {
			return cfg, storage.RowFilter{}, apperr.NewValidationWrap("invalid dimension", err)
		}
		cfg.Dimension = dim
	}
	if w := c.QueryParam("window"); w != "" {
		window, err := domain.ParseAttributionWindow(w)
		if err != nil {
			return cfg, storage.RowFilter{}, apperr.NewValidationWrap("invalid attribution window", err)
		}
		cfg.Window = window
	}
	if o := c.QueryParam("order"); o != "" {
		order, err := dimension.ParseOrder(o)
		if err != nil {
			return cfg, storage.RowFilter{}, apperr.NewValidationWrap("invalid order", err)
		}
		cfg.Order = order
	}
	if ks := c.QueryParam("k"); ks != "" {
		cutoffs, err := parseCutoffs(ks)
		if err != nil {
			return cfg, storage.RowFilter{}, err
		}
		cfg.Cutoffs = cutoffs
	}
	if ms := c.QueryParam("min_sample"); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil || v < 1 {
			return cfg, storage.RowFilter{}, apperr.NewValidation("min_sample must be a positive integer")
		}
		cfg.MinSampleSize = v
	}
	if el := c.QueryParam("elasticity"); el != "" {
		v, err := strconv.ParseFloat(el, 64)
		if err != nil || v <= 0 {
			return cfg, storage.RowFilter{}, apperr.NewValidation("elasticity must be a positive number")
		}
		cfg.Elasticity = v
	}
	cfg.IncludeNoSignal = c.QueryParam("include_no_signal") == "true"

	daysBack := defaultDaysBack
	if db := c.QueryParam("days_back"); db != "" {
		v, err := strconv.Atoi(db)
		if err != nil || v < 1 || v > maxDaysBack {
			return cfg, storage.RowFilter{}, apperr.NewValidation("days_back must be between 1 and 90")
		}
		daysBack = v
	}
	cfg.PeriodDays = daysBack

	filter := storage.RowFilter{
		From:        time.Now().AddDate(0, 0, -daysBack),
		Surface:     labelParam(c, "surface"),
		Segment:     labelParam(c, "segment"),
		Category:    labelParam(c, "category"),
		MaxPosition: defaultMaxPosition,
		Limit:       defaultRowLimit,
	}
	cfg.Filter = domain.Filter{
		Surface:  filter.Surface,
		Segment:  filter.Segment,
		Category: filter.Category,
	}

	return cfg, filter, nil
}

func parseCutoffs(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	cutoffs := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return nil, apperr.NewValidation("k must be a comma-separated list of positive integers")
		}
		cutoffs = append(cutoffs, v)
	}
	return cutoffs, nil
}

func labelParam(c echo.Context, name string) string {
	v := c.QueryParam(name)
	if v == "all" {
		return ""
	}
	return v
}
