package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveSubcheck(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveSubcheck("ping", true, time.Now())
	m.ObserveSubcheck("ping", false, time.Now())
	m.ObserveSubcheck("ping", false, time.Now())

	if got := testutil.ToFloat64(m.SubchecksTotal.WithLabelValues("ping", "ok")); got != 1 {
		t.Fatalf("want 1 ok, got %v", got)
	}
	if got := testutil.ToFloat64(m.SubchecksTotal.WithLabelValues("ping", "unavailable")); got != 2 {
		t.Fatalf("want 2 unavailable, got %v", got)
	}
}

func TestMetrics_IncBatch(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.IncBatch(3)
	m.IncBatch(2)
	if got := testutil.ToFloat64(m.BatchesTotal); got != 2 {
		t.Fatalf("want 2 batches, got %v", got)
	}
	if got := testutil.ToFloat64(m.SitesTotal); got != 5 {
		t.Fatalf("want 5 sites, got %v", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSubcheck("geo", true, time.Now())
	m.IncBatch(1)
}
