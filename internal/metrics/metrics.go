// Package metrics exposes the service's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trees_http_requests_total",
		Help: "HTTP requests served, by method and status",
	}, []string{"method", "status"})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trees_http_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trees_engine_events_total",
		Help: "Engine events dispatched, by kind",
	}, []string{"kind"})
	ExpressionPushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trees_expression_pushes_total",
		Help: "Style properties pushed to a render surface, by property",
	}, []string{"property"})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trees_sessions_active",
		Help: "Number of open map sessions",
	})
	DatasetFeatures = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trees_dataset_features",
		Help: "Features in the loaded datasets, by collection",
	}, []string{"collection"})
	DatasetLoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trees_dataset_load_duration_ms",
		Help:    "Dataset load duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(ExpressionPushesTotal)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(DatasetFeatures)
	prometheus.MustRegister(DatasetLoadDurationMs)
}

// EngineRecorder reports engine activity to the counters above.
type EngineRecorder struct{}

func (EngineRecorder) EventDispatched(kind string) {
	EventsTotal.WithLabelValues(kind).Inc()
}

func (EngineRecorder) ExpressionPushed(property string) {
	ExpressionPushesTotal.WithLabelValues(property).Inc()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(r *http.Request, status int, d time.Duration) {
	RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
	RequestDurationMs.Observe(float64(d.Milliseconds()))
}

// Handler serves the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
