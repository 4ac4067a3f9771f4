package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Firing outcomes recorded by ObserveFiring.
const (
	OutcomeSkipped        = "skipped"
	OutcomePublished      = "published"
	OutcomeScanFailed     = "scan_failed"
	OutcomeDispatchFailed = "dispatch_failed"
)

type Metrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reminderFirings *prometheus.CounterVec
	reminderItems   prometheus.Gauge
}

func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		reminderFirings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_firings_total",
				Help: "Reminder schedule firings by outcome",
			},
			[]string{"outcome"},
		),
		reminderItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "reminder_eligible_items",
				Help: "Number of todos found eligible by the most recent firing",
			},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.reminderFirings,
		m.reminderItems,
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveFiring(outcome string, eligible int) {
	m.reminderFirings.WithLabelValues(outcome).Inc()
	if outcome != OutcomeScanFailed {
		m.reminderItems.Set(float64(eligible))
	}
}
