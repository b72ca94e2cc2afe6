package sitecheck

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/probe"
)

// --- fakes ---

type fakeProtocol struct {
	proto string
	calls atomic.Int32
	host  atomic.Value
}

func (f *fakeProtocol) Resolve(_ context.Context, host string) string {
	f.calls.Add(1)
	f.host.Store(host)
	return f.proto
}

type fakeAddress struct {
	out   probe.Address
	calls atomic.Int32
}

func (f *fakeAddress) Resolve(context.Context, string) probe.Address {
	f.calls.Add(1)
	return f.out
}

type fakeLatency struct {
	out  probe.Latency
	mu   sync.Mutex
	host string
	port string
}

func (f *fakeLatency) Measure(_ context.Context, host, port string) probe.Latency {
	f.mu.Lock()
	f.host, f.port = host, port
	f.mu.Unlock()
	return f.out
}

type fakeStatus struct {
	out    probe.Status
	calls  atomic.Int32
	target atomic.Value
}

func (f *fakeStatus) Check(_ context.Context, target string) probe.Status {
	f.calls.Add(1)
	f.target.Store(target)
	return f.out
}

type fakeGeo struct {
	out   probe.Geo
	calls atomic.Int32
}

func (f *fakeGeo) Enrich(context.Context, string) probe.Geo {
	f.calls.Add(1)
	return f.out
}

type panicStatus struct{}

func (panicStatus) Check(context.Context, string) probe.Status { panic("boom") }

type fixture struct {
	proto *fakeProtocol
	addr  *fakeAddress
	lat   *fakeLatency
	st    *fakeStatus
	geo   *fakeGeo
	o     *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		proto: &fakeProtocol{proto: "https"},
		addr:  &fakeAddress{out: probe.Address{IP: "93.184.216.34", OK: true, Class: probe.DNSResolves}},
		lat:   &fakeLatency{out: probe.Latency{MS: 12.34, OK: true}},
		st:    &fakeStatus{out: probe.Status{Reachability: domain.StatusOnline, Code: 200, Received: true}},
		geo: &fakeGeo{out: probe.Geo{OK: true, Info: domain.GeoInfo{
			Country: domain.Str("United States"),
			City:    domain.Str("Norwell"),
		}}},
	}
	f.o = &Orchestrator{
		Protocol: f.proto,
		Address:  f.addr,
		Latency:  f.lat,
		Status:   f.st,
		Geo:      f.geo,
		Logger:   zap.NewNop(),
	}
	return f
}

// --- tests ---

func TestOrchestrator_BareHostGetsResolvedProtocol(t *testing.T) {
	f := newFixture()
	rep := f.o.Check(context.Background(), "example.com/docs", domain.NewCheckOptions(domain.OptStatus))

	if rep.Protocol != "https" || rep.FullURL != "https://example.com/docs" {
		t.Fatalf("unexpected target: %s %s", rep.Protocol, rep.FullURL)
	}
	if h := f.proto.host.Load(); h != "example.com" {
		t.Fatalf("protocol resolver got host %v", h)
	}
	if got := f.st.target.Load(); got != "https://example.com/docs" {
		t.Fatalf("status probed %v", got)
	}
}

func TestOrchestrator_SchemeIsUsedVerbatim(t *testing.T) {
	f := newFixture()
	rep := f.o.Check(context.Background(), "http://example.com:8080/x", domain.NewCheckOptions(domain.OptPing))

	if f.proto.calls.Load() != 0 {
		t.Fatal("protocol resolver must not run when a scheme is given")
	}
	if rep.Protocol != "http" || rep.FullURL != "http://example.com:8080/x" {
		t.Fatalf("unexpected target: %s %s", rep.Protocol, rep.FullURL)
	}
	f.lat.mu.Lock()
	defer f.lat.mu.Unlock()
	if f.lat.host != "example.com" || f.lat.port != "80" {
		t.Fatalf("ping dialed %s:%s", f.lat.host, f.lat.port)
	}
}

func TestOrchestrator_OnlyRequestedChecksRun(t *testing.T) {
	f := newFixture()
	rep := f.o.Check(context.Background(), "example.com", domain.NewCheckOptions(domain.OptPing))

	if f.st.calls.Load() != 0 || f.addr.calls.Load() != 0 || f.geo.calls.Load() != 0 {
		t.Fatal("unrequested sub-checks ran")
	}
	if rep.PingText() != "12.34" {
		t.Fatalf("ping = %s", rep.PingText())
	}
	if rep.Status != nil || rep.Code != nil || rep.IP != nil || rep.Geo.Known() {
		t.Fatalf("unrequested fields set: %+v", rep)
	}
}

func TestOrchestrator_CodeAloneRunsStatusProbe(t *testing.T) {
	f := newFixture()
	rep := f.o.Check(context.Background(), "example.com", domain.NewCheckOptions(domain.OptCode))
	if f.st.calls.Load() != 1 || rep.CodeText() != "200" {
		t.Fatalf("calls=%d code=%s", f.st.calls.Load(), rep.CodeText())
	}
}

func TestOrchestrator_GeoFollowsSuccessfulAddress(t *testing.T) {
	f := newFixture()
	rep := f.o.Check(context.Background(), "example.com", domain.NewCheckOptions(domain.OptIP, domain.OptGeo))

	if rep.IPText() != "93.184.216.34" {
		t.Fatalf("ip = %s", rep.IPText())
	}
	if domain.Text(rep.Geo.Country) != "United States" || rep.Geo.Region != nil {
		t.Fatalf("geo = %+v", rep.Geo)
	}
}

func TestOrchestrator_GeoNeedsIPOption(t *testing.T) {
	f := newFixture()
	rep := f.o.Check(context.Background(), "example.com", domain.NewCheckOptions(domain.OptGeo))
	if f.addr.calls.Load() != 0 || f.geo.calls.Load() != 0 {
		t.Fatal("geo without ip must not resolve or look anything up")
	}
	if rep.Geo.Known() {
		t.Fatalf("geo = %+v", rep.Geo)
	}
}

func TestOrchestrator_FailedAddressSkipsGeo(t *testing.T) {
	f := newFixture()
	f.addr.out = probe.Address{Class: probe.DNSNXDomain}
	rep := f.o.Check(context.Background(), "nope.invalid", domain.NewCheckOptions(domain.OptIP, domain.OptGeo))

	if f.geo.calls.Load() != 0 {
		t.Fatal("geo ran after a failed resolve")
	}
	if rep.IPText() != domain.NotAvailable {
		t.Fatalf("ip = %s", rep.IPText())
	}
}

func TestOrchestrator_OfflineLeavesCodeUnset(t *testing.T) {
	f := newFixture()
	f.st.out = probe.Status{Reachability: domain.StatusOffline, Message: "refused"}
	rep := f.o.Check(context.Background(), "example.com", domain.NewCheckOptions(domain.OptStatus, domain.OptCode))
	if rep.StatusText() != "Offline" || rep.CodeText() != domain.NotAvailable {
		t.Fatalf("status=%s code=%s", rep.StatusText(), rep.CodeText())
	}
}

func TestOrchestrator_PanicKeepsPartialReport(t *testing.T) {
	f := newFixture()
	f.o.Status = panicStatus{}
	rep := f.o.Check(context.Background(), "example.com",
		domain.NewCheckOptions(domain.OptStatus, domain.OptPing, domain.OptIP))

	if rep.FullURL != "https://example.com" {
		t.Fatalf("full url = %s", rep.FullURL)
	}
	if rep.Status != nil {
		t.Fatalf("status should be unset, got %s", rep.StatusText())
	}
	if rep.PingText() != "12.34" || rep.IPText() != "93.184.216.34" {
		t.Fatalf("siblings lost: ping=%s ip=%s", rep.PingText(), rep.IPText())
	}
}

func TestOrchestrator_SlowSiblingDoesNotSerialize(t *testing.T) {
	f := newFixture()
	slow := &sleepyStatus{d: 100 * time.Millisecond}
	f.o.Status = slow
	f.o.Latency = &sleepyLatency{d: 100 * time.Millisecond}

	start := time.Now()
	f.o.Check(context.Background(), "example.com", domain.NewCheckOptions(domain.OptStatus, domain.OptPing))
	if took := time.Since(start); took > 180*time.Millisecond {
		t.Fatalf("sub-checks ran sequentially: %v", took)
	}
}

type sleepyStatus struct{ d time.Duration }

func (s *sleepyStatus) Check(context.Context, string) probe.Status {
	time.Sleep(s.d)
	return probe.Status{Reachability: domain.StatusOnline, Code: 204, Received: true}
}

type sleepyLatency struct{ d time.Duration }

func (s *sleepyLatency) Measure(context.Context, string, string) probe.Latency {
	time.Sleep(s.d)
	return probe.Latency{MS: 1, OK: true}
}

// End to end against a local server with the real probes: status and ping
// requested, so ip and geo stay unset.
func TestOrchestrator_StatusAndPingAgainstLocalServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	_, port, _ := net.SplitHostPort(u.Host)

	o := NewOrchestrator(zap.NewNop(), nil, Timeouts{
		Protocol: time.Second,
		DNS:      time.Second,
		Latency:  time.Second,
		Status:   time.Second,
	}, nil)
	o.PortFor = func(string) string { return port }

	rep := o.Check(context.Background(), domain.SiteQuery(u.Host), domain.NewCheckOptions(domain.OptStatus, domain.OptPing))

	// httptest serves plain HTTP, so the secure attempt fails and http wins.
	if rep.Protocol != "http" {
		t.Fatalf("protocol = %s", rep.Protocol)
	}
	if rep.StatusText() != "Error" || rep.CodeText() != "404" {
		t.Fatalf("status=%s code=%s", rep.StatusText(), rep.CodeText())
	}
	if rep.LatencyMS == nil || *rep.LatencyMS < 0 {
		t.Fatalf("ping = %s", rep.PingText())
	}
	if rep.IP != nil || rep.Geo.Known() {
		t.Fatalf("ip/geo must be unset: %+v", rep)
	}
}
