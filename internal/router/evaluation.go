// Package router exposes the evaluation engine over HTTP. The engine stays
// wire-agnostic; everything JSON-shaped lives here.
package router

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ranklens/ranklens/internal/apperr"
	"github.com/ranklens/ranklens/internal/engine"
	"github.com/ranklens/ranklens/internal/ranking"
	"github.com/ranklens/ranklens/internal/session"
	"github.com/ranklens/ranklens/internal/storage"
)

const defaultSessionLimit = 10

type EvaluationRouter struct {
	e      *echo.Echo
	source storage.RowSource
	engine *engine.Engine
}

func NewEvaluationRouter(e *echo.Echo, source storage.RowSource, eng *engine.Engine) *EvaluationRouter {
	return &EvaluationRouter{
		e:      e,
		source: source,
		engine: eng,
	}
}

func (r *EvaluationRouter) Bind() {
	registerMetrics()

	r.e.GET("/api/sessions", r.sessionsHandler)
	r.e.GET("/api/metrics", r.metricsHandler)
	r.e.GET("/api/optimization", r.optimizationHandler)
	r.e.GET("/api/gmv_opportunity", r.opportunityHandler)
	r.e.GET("/api/trends", r.trendsHandler)
	r.e.GET("/api/filters", r.filtersHandler)
	r.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (r *EvaluationRouter) evaluate(c echo.Context, endpoint string) (*engine.Evaluation, error) {
	cfg, filter, err := parseConfig(c)
	if err != nil {
		return nil, err
	}

	timer := time.Now()
	rows, err := r.source.FetchImpressions(c.Request().Context(), filter)
	if err != nil {
		return nil, err
	}
	rowsFetchedTotal.Add(float64(len(rows)))

	ev, err := r.engine.Evaluate(rows, cfg)
	if err != nil {
		return nil, err
	}

	evaluationDuration.WithLabelValues(endpoint).Observe(time.Since(timer).Seconds())
	evaluationsTotal.WithLabelValues(endpoint).Inc()
	return ev, nil
}

func (r *EvaluationRouter) metricsHandler(c echo.Context) error {
	ev, err := r.evaluate(c, "metrics")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id": ev.ID,
		"funnel": ev.Funnel,
	})
}

func (r *EvaluationRouter) optimizationHandler(c echo.Context) error {
	ev, err := r.evaluate(c, "optimization")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id":     ev.ID,
		"dimensions": ev.Dimensions,
		"funnel":     ev.Funnel,
	})
}

func (r *EvaluationRouter) opportunityHandler(c echo.Context) error {
	ev, err := r.evaluate(c, "gmv_opportunity")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id":         ev.ID,
		"dimension":      ev.Dimensions.Dimension,
		"reference_ndcg": ev.Dimensions.ReferenceNDCG,
		"opportunity":    ev.Opportunity,
	})
}

func (r *EvaluationRouter) trendsHandler(c echo.Context) error {
	ev, err := r.evaluate(c, "trends")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id": ev.ID,
		"k":      ev.Config.PrimaryK(),
		"trends": ev.Trends,
	})
}

func (r *EvaluationRouter) sessionsHandler(c echo.Context) error {
	ev, err := r.evaluate(c, "sessions")
	if err != nil {
		return err
	}

	limit := defaultSessionLimit
	if l := c.QueryParam("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 1 {
			return apperr.NewValidation("limit must be a positive integer")
		}
		limit = v
	}

	views := make([]sessionView, 0, limit)
	for i := range ev.Sessions {
		if len(views) >= limit {
			break
		}
		views = append(views, newSessionView(&ev.Sessions[i]))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id":   ev.ID,
		"count":    len(views),
		"sessions": views,
	})
}

func (r *EvaluationRouter) filtersHandler(c echo.Context) error {
	src, ok := r.source.(storage.FilterOptionSource)
	if !ok {
		return echo.NewHTTPError(http.StatusNotImplemented, "row source does not list filter options")
	}
	opts, err := src.FilterOptions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, opts)
}

type scoreView struct {
	DCG     float64 `json:"dcg"`
	IDCG    float64 `json:"idcg"`
	NDCG    float64 `json:"ndcg"`
	Defined bool    `json:"defined"`
}

type itemView struct {
	Position        int      `json:"position"`
	EntityID        string   `json:"entity_id"`
	Grade           int      `json:"grade"`
	Sources         []string `json:"sources,omitempty"`
	Clicked         bool     `json:"clicked"`
	Purchased       bool     `json:"purchased"`
	DCGContribution float64  `json:"dcg_contribution"`
}

type qualityView struct {
	MalformedRows      int `json:"malformed_rows"`
	PositionCollisions int `json:"position_collisions"`
}

type sessionView struct {
	SessionID string            `json:"session_id"`
	Surface   string            `json:"surface"`
	Segment   string            `json:"segment"`
	Category  string            `json:"category"`
	Scores    map[int]scoreView `json:"scores"`
	Items     []itemView        `json:"items"`
	Ideal     []itemView        `json:"ideal"`
	Flagged   bool              `json:"flagged"`
	Quality   qualityView       `json:"quality"`
}

func newSessionView(r *session.Result) sessionView {
	v := sessionView{
		SessionID: r.SessionID,
		Surface:   r.Surface,
		Segment:   r.Segment,
		Category:  r.Category,
		Scores:    make(map[int]scoreView, len(r.Scores)),
		Flagged:   r.Flagged(),
		Quality: qualityView{
			MalformedRows:      r.Quality.MalformedRows,
			PositionCollisions: r.Quality.PositionCollisions,
		},
	}
	for k, s := range r.Scores {
		v.Scores[k] = scoreView{DCG: s.DCG, IDCG: s.IDCG, NDCG: s.NDCG, Defined: s.Defined}
	}

	// Items keep their served slots; the ideal view reorders the same items
	// by grade descending and renumbers the slots.
	for i, it := range r.Items {
		v.Items = append(v.Items, itemView{
			Position:        it.Position,
			EntityID:        it.EntityID,
			Grade:           it.Grade,
			Sources:         it.Sources,
			Clicked:         it.Clicked,
			Purchased:       it.Purchased,
			DCGContribution: ranking.Contribution(it.Grade, i+1),
		})
	}

	ideal := make([]session.Item, len(r.Items))
	copy(ideal, r.Items)
	sort.SliceStable(ideal, func(i, j int) bool { return ideal[i].Grade > ideal[j].Grade })
	for i, it := range ideal {
		v.Ideal = append(v.Ideal, itemView{
			Position:        i + 1,
			EntityID:        it.EntityID,
			Grade:           it.Grade,
			Sources:         it.Sources,
			Clicked:         it.Clicked,
			Purchased:       it.Purchased,
			DCGContribution: ranking.Contribution(it.Grade, i+1),
		})
	}

	return v
}
