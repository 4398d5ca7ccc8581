package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	evaluationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ranklens_evaluation_duration_seconds",
		Help:    "Latency of evaluation requests by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ranklens_evaluations_total",
		Help: "Total evaluation requests served by endpoint",
	}, []string{"endpoint"})

	rowsFetchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ranklens_rows_fetched_total",
		Help: "Total impression rows fetched from the row source",
	})
)

var registerOnce sync.Once

func registerMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(evaluationDuration, evaluationsTotal, rowsFetchedTotal)
	})
}
