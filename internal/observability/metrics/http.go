package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

type HTTPServerMetrics struct {
	service  string
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	fittingAttemptsTotal *prometheus.CounterVec
	fittingDuration      *prometheus.HistogramVec
	chatRepliesTotal     *prometheus.CounterVec
	catalogLoadsTotal    *prometheus.CounterVec
	catalogPatterns      prometheus.Gauge
	breakerState         *prometheus.GaugeVec
	activeSessions       prometheus.Gauge
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batikgram",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "batikgram",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "batikgram",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	fittingAttemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batikgram",
			Subsystem: "fitting",
			Name:      "attempts_total",
			Help:      "Finished fitting attempts by outcome and failure kind.",
		},
		[]string{"service", "outcome", "kind"},
	)
	fittingDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "batikgram",
			Subsystem: "fitting",
			Name:      "duration_seconds",
			Help:      "Fitting call duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"service", "outcome"},
	)
	chatRepliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batikgram",
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Chat replies by responder.",
		},
		[]string{"service", "source"},
	)
	catalogLoadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batikgram",
			Subsystem: "catalog",
			Name:      "loads_total",
			Help:      "Pattern catalog loads by status.",
		},
		[]string{"service", "status"},
	)
	catalogPatterns := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "batikgram",
			Subsystem:   "catalog",
			Name:        "patterns",
			Help:        "Number of patterns in the last successful catalog load.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "batikgram",
			Subsystem: "upstream",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	activeSessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "batikgram",
			Subsystem:   "session",
			Name:        "active",
			Help:        "Number of live try-on sessions.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		fittingAttemptsTotal,
		fittingDuration,
		chatRepliesTotal,
		catalogLoadsTotal,
		catalogPatterns,
		breakerState,
		activeSessions,
	)

	return &HTTPServerMetrics{
		service:              service,
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		fittingAttemptsTotal: fittingAttemptsTotal,
		fittingDuration:      fittingDuration,
		chatRepliesTotal:     chatRepliesTotal,
		catalogLoadsTotal:    catalogLoadsTotal,
		catalogPatterns:      catalogPatterns,
		breakerState:         breakerState,
		activeSessions:       activeSessions,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath folds session ids so label cardinality stays bounded.
func normalizePath(path string) string {
	const prefix = "/v1/sessions/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		return path
	}
	_, tail, found := strings.Cut(rest, "/")
	if !found {
		return prefix + "{session_id}"
	}
	return prefix + "{session_id}/" + tail
}

func (m *HTTPServerMetrics) ObserveFittingAttempt(outcome domain.FittingOutcome, kind domain.FailureKind, duration time.Duration) {
	kindLabel := string(kind)
	if kindLabel == "" {
		kindLabel = "none"
	}
	m.fittingAttemptsTotal.WithLabelValues(m.service, string(outcome), kindLabel).Inc()
	m.fittingDuration.WithLabelValues(m.service, string(outcome)).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) ObserveChatReply(source domain.ChatSource) {
	m.chatRepliesTotal.WithLabelValues(m.service, string(source)).Inc()
}

func (m *HTTPServerMetrics) ObserveCatalogLoad(patterns int, err error) {
	if err != nil {
		m.catalogLoadsTotal.WithLabelValues(m.service, "error").Inc()
		return
	}
	m.catalogLoadsTotal.WithLabelValues(m.service, "success").Inc()
	m.catalogPatterns.Set(float64(patterns))
}

func (m *HTTPServerMetrics) ObserveBreakerState(operation string, state gobreaker.State) {
	value := 0.0
	switch state {
	case gobreaker.StateHalfOpen:
		value = 1
	case gobreaker.StateOpen:
		value = 2
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}

func (m *HTTPServerMetrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
