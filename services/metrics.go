package services

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"institute-seed/models"
)

// Metrics sind die Prometheus-Zähler eines Seed-Prozesses.
type Metrics struct {
	Documents      *prometheus.CounterVec
	RecordFailures *prometheus.CounterVec
	PublishFailed  *prometheus.CounterVec
	LastRun        prometheus.Gauge
	RunDuration    prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics erstellt die Zähler und registriert sie in reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seed_documents_total",
			Help: "Documents processed by the seed engine, by kind and action.",
		}, []string{"kind", "action"}),
		RecordFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seed_record_failures_total",
			Help: "Source records that failed to import.",
		}, []string{"kind"}),
		PublishFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seed_publish_failures_total",
			Help: "Publish requests that failed.",
		}, []string{"kind"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seed_last_run_timestamp_seconds",
			Help: "Unix time of the last completed seed run.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seed_last_run_duration_seconds",
			Help: "Duration of the last seed run.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.Documents, m.RecordFailures, m.PublishFailed, m.LastRun, m.RunDuration)
	return m
}

func (m *Metrics) observe(kind models.Kind, out Outcome) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(string(kind), out.Action.String()).Inc()
	if out.PublishErr != nil {
		m.publishFailed(kind)
	}
}

func (m *Metrics) publishFailed(kind models.Kind) {
	if m == nil {
		return
	}
	m.PublishFailed.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) failed(kind models.Kind) {
	if m == nil {
		return
	}
	m.RecordFailures.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) finished(s *Summary) {
	if m == nil {
		return
	}
	m.LastRun.Set(float64(s.FinishedAt.Unix()))
	m.RunDuration.Set(s.FinishedAt.Sub(s.StartedAt).Seconds())
}

// Push überträgt die Zähler an ein Prometheus-Pushgateway.
func (m *Metrics) Push(url string, timeout time.Duration) error {
	return push.New(url, "institute_seed").
		Gatherer(m.gatherer).
		Client(&http.Client{Timeout: timeout}).
		Push()
}
