// Package metrics holds the Prometheus collectors for the research service
// and exposes them over HTTP.
package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultBuckets are the research duration buckets (in seconds).
var DefaultBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// Registry owns a private prometheus.Registry and the research collectors.
type Registry struct {
	reg *prometheus.Registry

	Requests          *prometheus.CounterVec
	Duration          prometheus.Histogram
	CandidateFailures prometheus.Counter
	NewsFailures      prometheus.Counter
	SourcesPerReport  prometheus.Histogram
	BreakerState      *prometheus.GaugeVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates a Registry with all collectors registered, plus the Go and
// process collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "research_requests_total",
			Help: "Research requests by outcome (ok, no_results, timeout, unexpected).",
		}, []string{"outcome"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "research_duration_seconds",
			Help:    "End-to-end research latency.",
			Buckets: DefaultBuckets,
		}),
		CandidateFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "research_candidate_failures_total",
			Help: "Candidates dropped because fetching or scoring failed.",
		}),
		NewsFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "research_news_failures_total",
			Help: "News lookups that failed and degraded to an empty list.",
		}),
		SourcesPerReport: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "research_sources_per_report",
			Help:    "Number of sources cited per report.",
			Buckets: []float64{0, 1, 2, 3},
		}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "research_host_breaker_state",
			Help: "Per-host circuit breaker state (0=closed, 1=open, 2=half-open).",
		}, []string{"host"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveResearch records one finished research call.
func (r *Registry) ObserveResearch(outcome string, elapsed time.Duration, sources int) {
	r.Requests.WithLabelValues(outcome).Inc()
	r.Duration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		r.SourcesPerReport.Observe(float64(sources))
	}
}

// ObserveHTTP records one served HTTP request.
func (r *Registry) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	r.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// SetBreakerState records a host breaker transition.
func (r *Registry) SetBreakerState(host string, state int) {
	r.BreakerState.WithLabelValues(host).Set(float64(state))
}

// Handler returns an http.Handler that serves /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Serve starts an HTTP server on the given port serving /metrics.
func (r *Registry) Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

// ServeAsync starts the metrics server in a goroutine. Errors are logged.
func (r *Registry) ServeAsync(port int, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	go func() {
		if err := r.Serve(port); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", "port", port, "err", err)
		}
	}()
}
