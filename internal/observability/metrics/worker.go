package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/batikgram/internal/core/domain"
)

type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	eventsTotal     *prometheus.CounterVec
	handleDuration  *prometheus.HistogramVec
	handleInFlight  prometheus.Gauge
	queueLag        *prometheus.HistogramVec
	fittingDuration *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batikgram",
			Subsystem: "worker",
			Name:      "fitting_events_total",
			Help:      "Consumed fitting events by outcome and failure kind.",
		},
		[]string{"service", "outcome", "kind"},
	)
	handleDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "batikgram",
			Subsystem: "worker",
			Name:      "handle_duration_seconds",
			Help:      "Event handling duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	handleInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "batikgram",
			Subsystem:   "worker",
			Name:        "handle_in_flight",
			Help:        "Number of events being handled.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "batikgram",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between an attempt finishing and its event being consumed.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service"},
	)
	fittingDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "batikgram",
			Subsystem: "worker",
			Name:      "fitting_duration_seconds",
			Help:      "Reported fitting call duration by outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(eventsTotal, handleDuration, handleInFlight, queueLag, fittingDuration)

	return &WorkerMetrics{
		service:         service,
		registry:        registry,
		eventsTotal:     eventsTotal,
		handleDuration:  handleDuration,
		handleInFlight:  handleInFlight,
		queueLag:        queueLag,
		fittingDuration: fittingDuration,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartEvent() {
	m.handleInFlight.Inc()
}

func (m *WorkerMetrics) FinishEvent(duration time.Duration, err error) {
	m.handleInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.handleDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordFittingEvent(event domain.FittingEvent, lag time.Duration) {
	kind := string(event.FailureKind)
	if kind == "" {
		kind = "none"
	}
	m.eventsTotal.WithLabelValues(m.service, string(event.Outcome), kind).Inc()
	if event.DurationMS > 0 {
		m.fittingDuration.WithLabelValues(m.service, string(event.Outcome)).Observe(float64(event.DurationMS) / 1000.0)
	}
	if lag >= 0 {
		m.queueLag.WithLabelValues(m.service).Observe(lag.Seconds())
	}
}
