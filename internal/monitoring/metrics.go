package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for site checks.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SubchecksTotal   *prometheus.CounterVec
	SubcheckDuration *prometheus.HistogramVec
	BatchesTotal     prometheus.Counter
	SitesTotal       prometheus.Counter
}

// NewMetrics registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SubchecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitecheck_subchecks_total",
			Help: "Sub-checks run, by check and outcome.",
		}, []string{"check", "outcome"}), // outcome: ok, unavailable
		SubcheckDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitecheck_subcheck_duration_seconds",
			Help:    "Wall time of each sub-check.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 3, 5},
		}, []string{"check"}),
		BatchesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "sitecheck_batches_total",
			Help: "Batches of sites checked.",
		}),
		SitesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "sitecheck_sites_total",
			Help: "Sites checked across all batches.",
		}),
	}
}

// ObserveSubcheck records one sub-check run that started at start.
func (m *Metrics) ObserveSubcheck(check string, ok bool, start time.Time) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "unavailable"
	}
	m.SubchecksTotal.WithLabelValues(check, outcome).Inc()
	m.SubcheckDuration.WithLabelValues(check).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncBatch(sites int) {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
	m.SitesTotal.Add(float64(sites))
}
