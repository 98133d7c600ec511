package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	modelLoads       *prometheus.CounterVec
	modelLatency     prometheus.Histogram
	chatTurns        *prometheus.CounterVec
	analyticsQueries *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "market",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "market",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		modelLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "market",
			Name:      "model_loads_total",
			Help:      "Model load attempts by result.",
		}, []string{"result"}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "market",
			Name:      "model_generation_seconds",
			Help:      "Latency of model generation calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		chatTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "market",
			Name:      "chat_turns_total",
			Help:      "Chat turns by result.",
		}, []string{"result"}),
		analyticsQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "market",
			Name:      "analytics_queries_total",
			Help:      "Analytics queries by name and result.",
		}, []string{"query", "result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.modelLoads,
		m.modelLatency,
		m.chatTurns,
		m.analyticsQueries,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveModelLoad(err error) {
	if m == nil {
		return
	}
	m.modelLoads.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveGeneration(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.modelLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveChatTurn(err error) {
	if m == nil {
		return
	}
	m.chatTurns.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) ObserveQuery(query string, err error) {
	if m == nil {
		return
	}
	m.analyticsQueries.WithLabelValues(query, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
