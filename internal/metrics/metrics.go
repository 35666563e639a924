// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the moneyshare collectors. It is separate from the
	// default registry so tests can scrape it in isolation.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "moneyshare",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneyshare",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	rpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneyshare",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPCs handled, by procedure and result code.",
		},
		[]string{"procedure", "code"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moneyshare",
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "Duration of RPCs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"procedure"},
	)

	allocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneyshare",
			Subsystem: "calculator",
			Name:      "allocations_total",
			Help:      "Total number of balance allocations.",
		},
		[]string{"mode", "outcome"},
	)

	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneyshare",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of bill store operations.",
		},
		[]string{"op", "outcome"},
	)

	decodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneyshare",
			Subsystem: "decoder",
			Name:      "requests_total",
			Help:      "Total number of bill image decode requests.",
		},
		[]string{"outcome"},
	)

	decodeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "moneyshare",
			Subsystem: "decoder",
			Name:      "request_duration_seconds",
			Help:      "Duration of bill image decode requests.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		rpcRequests,
		rpcDuration,
		allocations,
		storeOps,
		decodes,
		decodeDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with HTTP request metrics.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(strings.ToUpper(r.Method), canonicalPath(r.URL.Path), strconv.Itoa(rec.status)).Inc()
	})
}

// RecordRPC records one finished RPC.
func RecordRPC(procedure, code string, duration time.Duration) {
	rpcRequests.WithLabelValues(procedure, code).Inc()
	rpcDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RecordAllocation records one balance computation.
func RecordAllocation(mode string, err error) {
	allocations.WithLabelValues(mode, outcome(err)).Inc()
}

// RecordStoreOp records one bill store operation.
func RecordStoreOp(op string, err error) {
	storeOps.WithLabelValues(op, outcome(err)).Inc()
}

// RecordDecode records one call to the bill image decoder.
func RecordDecode(duration time.Duration, err error) {
	decodes.WithLabelValues(outcome(err)).Inc()
	decodeDuration.Observe(duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// canonicalPath keeps label cardinality bounded: connect procedures are
// reported as-is, everything else by its first segment.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) == 2 && strings.Contains(parts[0], ".") {
		return "/" + parts[0] + "/" + parts[1]
	}
	return "/" + parts[0]
}
