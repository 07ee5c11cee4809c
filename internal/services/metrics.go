package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// Metrics holds the importer's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	participants  *prometheus.CounterVec
	jobs          *prometheus.CounterVec
	addDuration   prometheus.Histogram
	transitions   *prometheus.CounterVec
	activeImports prometheus.Gauge
	groupsLookups *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		participants: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wa_importer",
			Subsystem: "import",
			Name:      "participants_total",
			Help:      "Numbers processed by the importer, by outcome",
		}, []string{"status"}),
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wa_importer",
			Subsystem: "import",
			Name:      "jobs_total",
			Help:      "Import jobs by final status",
		}, []string{"status"}),
		addDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wa_importer",
			Subsystem: "import",
			Name:      "add_duration_seconds",
			Help:      "Latency of a single add-participant call",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wa_importer",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions, by target state",
		}, []string{"state"}),
		activeImports: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "wa_importer",
			Subsystem: "import",
			Name:      "active",
			Help:      "1 while an import job is running",
		}),
		groupsLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wa_importer",
			Subsystem: "session",
			Name:      "group_listings_total",
			Help:      "Group list requests, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observeAdd(status string, took time.Duration) {
	if m == nil {
		return
	}
	m.participants.WithLabelValues(status).Inc()
	m.addDuration.Observe(took.Seconds())
}

func (m *Metrics) jobStarted() {
	if m == nil {
		return
	}
	m.activeImports.Set(1)
}

func (m *Metrics) jobFinished(status string) {
	if m == nil {
		return
	}
	m.activeImports.Set(0)
	m.jobs.WithLabelValues(status).Inc()
}

func (m *Metrics) sessionTransition(state models.SessionState) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) groupsListed(outcome string) {
	if m == nil {
		return
	}
	m.groupsLookups.WithLabelValues(outcome).Inc()
}
