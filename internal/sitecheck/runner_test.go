package sitecheck

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/monitoring"
)

// echoChecker stamps each report with a call sequence number so tests can
// tell duplicate identifiers apart. Sites named "slow" finish last.
type echoChecker struct {
	seq      atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (e *echoChecker) Check(_ context.Context, q domain.SiteQuery, _ domain.CheckOptions) domain.SiteReport {
	n := e.inFlight.Add(1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer e.inFlight.Add(-1)

	code := int(e.seq.Add(1))
	if q == "slow" {
		time.Sleep(50 * time.Millisecond)
	} else {
		time.Sleep(5 * time.Millisecond)
	}
	rep := domain.NewSiteReport(q, "https://"+string(q), "https")
	rep.Code = &code
	return *rep
}

type panicChecker struct{}

func (panicChecker) Check(_ context.Context, q domain.SiteQuery, _ domain.CheckOptions) domain.SiteReport {
	if q == "bad" {
		panic("kaboom")
	}
	return *domain.NewSiteReport(q, "https://"+string(q), "https")
}

func queries(ids ...string) []domain.SiteQuery {
	out := make([]domain.SiteQuery, len(ids))
	for i, id := range ids {
		out[i] = domain.SiteQuery(id)
	}
	return out
}

func TestRunner_PreservesInputOrderWithDuplicates(t *testing.T) {
	r := NewRunner(zap.NewNop(), &echoChecker{}, nil, 0)
	in := queries("slow", "b.com", "slow", "c.com")

	out, err := r.Run(context.Background(), in, domain.NewCheckOptions(domain.OptStatus))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("want %d reports, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Query != in[i] {
			t.Fatalf("slot %d holds %q, want %q", i, out[i].Query, in[i])
		}
	}
	if *out[0].Code == *out[2].Code {
		t.Fatal("duplicate identifiers must each get their own report")
	}
}

func TestRunner_RejectsEmptyInput(t *testing.T) {
	chk := &echoChecker{}
	r := NewRunner(zap.NewNop(), chk, nil, 0)

	if _, err := r.Run(context.Background(), nil, domain.NewCheckOptions(domain.OptPing)); !errors.Is(err, ErrNoSites) {
		t.Fatalf("want ErrNoSites, got %v", err)
	}
	if _, err := r.Run(context.Background(), queries("a.com"), 0); !errors.Is(err, ErrNoOptions) {
		t.Fatalf("want ErrNoOptions, got %v", err)
	}
	if chk.seq.Load() != 0 {
		t.Fatal("no site may be checked for a rejected batch")
	}
}

func TestRunner_RespectsConcurrencyLimit(t *testing.T) {
	chk := &echoChecker{}
	r := NewRunner(zap.NewNop(), chk, nil, 2)

	if _, err := r.Run(context.Background(), queries("a", "b", "c", "d", "e", "f"), domain.NewCheckOptions(domain.OptPing)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if p := chk.peak.Load(); p > 2 {
		t.Fatalf("peak concurrency %d exceeds limit", p)
	}
}

func TestRunner_UnboundedRunsSitesInParallel(t *testing.T) {
	r := NewRunner(zap.NewNop(), &echoChecker{}, nil, 0)

	start := time.Now()
	if _, err := r.Run(context.Background(), queries("slow", "slow", "slow", "slow"), domain.NewCheckOptions(domain.OptPing)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if took := time.Since(start); took > 150*time.Millisecond {
		t.Fatalf("sites ran sequentially: %v", took)
	}
}

func TestRunner_PanickingSiteDoesNotAbortBatch(t *testing.T) {
	r := NewRunner(zap.NewNop(), panicChecker{}, nil, 0)

	out, err := r.Run(context.Background(), queries("a.com", "bad", "c.com"), domain.NewCheckOptions(domain.OptStatus))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out[1].Query != "bad" || out[1].Status != nil {
		t.Fatalf("panicking site report = %+v", out[1])
	}
	if out[2].FullURL != "https://c.com" {
		t.Fatalf("sibling lost: %+v", out[2])
	}
}

func TestRunner_CancelledContextReturnsReportsAndError(t *testing.T) {
	r := NewRunner(zap.NewNop(), &echoChecker{}, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := r.Run(ctx, queries("a.com"), domain.NewCheckOptions(domain.OptPing))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("reports dropped: %d", len(out))
	}
}

func TestRunner_CountsBatches(t *testing.T) {
	m := monitoring.NewMetrics(prometheus.NewRegistry())
	r := NewRunner(zap.NewNop(), &echoChecker{}, m, 0)

	if _, err := r.Run(context.Background(), queries("a", "b", "c"), domain.NewCheckOptions(domain.OptPing)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := testutil.ToFloat64(m.BatchesTotal); got != 1 {
		t.Fatalf("batches = %v", got)
	}
	if got := testutil.ToFloat64(m.SitesTotal); got != 3 {
		t.Fatalf("sites = %v", got)
	}
}
