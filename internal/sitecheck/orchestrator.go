package sitecheck

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/monitoring"
	"github.com/hamed0406/sitecheck/internal/probe"
)

// Sub-check ports. The probe package types satisfy them.
type (
	ProtocolDetector interface {
		Resolve(ctx context.Context, host string) string
	}
	AddressLookup interface {
		Resolve(ctx context.Context, target string) probe.Address
	}
	LatencyMeasurer interface {
		Measure(ctx context.Context, host, port string) probe.Latency
	}
	StatusChecker interface {
		Check(ctx context.Context, target string) probe.Status
	}
	GeoLookup interface {
		Enrich(ctx context.Context, ip string) probe.Geo
	}
)

// Orchestrator runs the requested sub-checks for one site and merges them into a report.
type Orchestrator struct {
	Protocol ProtocolDetector
	Address  AddressLookup
	Latency  LatencyMeasurer
	Status   StatusChecker
	Geo      GeoLookup

	// PortFor maps a protocol to the port the latency probe dials.
	PortFor func(protocol string) string

	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// Timeouts configures the per-sub-check bounds used by NewOrchestrator.
type Timeouts struct {
	Protocol time.Duration
	DNS      time.Duration
	Latency  time.Duration
	Status   time.Duration
}

// NewOrchestrator wires the real probes. geo may be nil when geo lookups are disabled.
func NewOrchestrator(logger *zap.Logger, m *monitoring.Metrics, t Timeouts, geo GeoLookup) *Orchestrator {
	return &Orchestrator{
		Protocol: probe.NewProtocolResolver(t.Protocol),
		Address:  probe.NewAddressResolver(t.DNS),
		Latency:  probe.NewLatencyProber(t.Latency),
		Status:   probe.NewStatusProber(t.Status),
		Geo:      geo,
		PortFor:  probe.DefaultPort,
		Logger:   logger,
		Metrics:  m,
	}
}

// target splits an identifier into protocol, host and the URL actually probed.
// Identifiers without a scheme get one from the protocol detector.
func (o *Orchestrator) target(ctx context.Context, raw string) (protocol, host, fullURL string) {
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
			return strings.ToLower(u.Scheme), u.Host, raw
		}
	}
	host = strings.SplitN(raw, "/", 2)[0]
	start := time.Now()
	protocol = o.Protocol.Resolve(ctx, host)
	o.Metrics.ObserveSubcheck("protocol", true, start)
	return protocol, host, protocol + "://" + raw
}

// Check never fails: sub-check failures leave their fields unset and a panic
// anywhere returns whatever was filled so far.
func (o *Orchestrator) Check(ctx context.Context, q domain.SiteQuery, opts domain.CheckOptions) (rep domain.SiteReport) {
	raw := strings.TrimSpace(string(q))
	rep = domain.SiteReport{Query: q, FullURL: raw}
	defer o.guard(raw, "site")

	protocol, host, fullURL := o.target(ctx, raw)
	r := domain.NewSiteReport(q, fullURL, protocol)
	// every branch below writes only its own fields of *r
	defer func() { rep = *r }()

	var g errgroup.Group

	if opts.Has(domain.OptIP) {
		g.Go(func() error {
			defer o.guard(raw, "ip")
			o.checkAddress(ctx, r, opts.Has(domain.OptGeo))
			return nil
		})
	}
	if opts.Has(domain.OptPing) {
		g.Go(func() error {
			defer o.guard(raw, "ping")
			o.checkLatency(ctx, r, probe.HostOf(host))
			return nil
		})
	}
	if opts.HasAny(domain.OptStatus, domain.OptCode) {
		g.Go(func() error {
			defer o.guard(raw, "status")
			o.checkStatus(ctx, r)
			return nil
		})
	}
	_ = g.Wait()

	o.Logger.Debug("site_checked",
		zap.String("site", raw),
		zap.String("url", r.FullURL),
		zap.String("options", opts.String()),
		zap.String("status", r.StatusText()),
		zap.String("code", r.CodeText()),
		zap.String("ping_ms", r.PingText()),
		zap.String("ip", r.IPText()),
	)
	return *r
}

// checkAddress owns r.IP and r.Geo; geo only runs after a successful resolve.
func (o *Orchestrator) checkAddress(ctx context.Context, r *domain.SiteReport, withGeo bool) {
	start := time.Now()
	addr := o.Address.Resolve(ctx, r.FullURL)
	o.Metrics.ObserveSubcheck("ip", addr.OK, start)
	if !addr.OK {
		o.Logger.Info("dns_unresolved",
			zap.String("url", r.FullURL),
			zap.String("class", addr.Class),
			zap.String("resolver_error", addr.Err),
		)
		return
	}
	r.IP = domain.Str(addr.IP)

	if !withGeo || o.Geo == nil {
		return
	}
	start = time.Now()
	geo := o.Geo.Enrich(ctx, addr.IP)
	o.Metrics.ObserveSubcheck("geo", geo.OK, start)
	if !geo.OK {
		o.Logger.Info("geo_lookup_failed", zap.String("ip", addr.IP))
		return
	}
	r.Geo = geo.Info
}

// checkLatency owns r.LatencyMS.
func (o *Orchestrator) checkLatency(ctx context.Context, r *domain.SiteReport, host string) {
	port := probe.DefaultPort(r.Protocol)
	if o.PortFor != nil {
		port = o.PortFor(r.Protocol)
	}
	start := time.Now()
	lat := o.Latency.Measure(ctx, host, port)
	o.Metrics.ObserveSubcheck("ping", lat.OK, start)
	if !lat.OK {
		o.Logger.Debug("ping_failed", zap.String("host", host), zap.String("port", port), zap.String("error", lat.Err))
		return
	}
	ms := lat.MS
	r.LatencyMS = &ms
}

// checkStatus owns r.Status and r.Code.
func (o *Orchestrator) checkStatus(ctx context.Context, r *domain.SiteReport) {
	start := time.Now()
	st := o.Status.Check(ctx, r.FullURL)
	o.Metrics.ObserveSubcheck("status", st.Received, start)
	reach := st.Reachability
	r.Status = &reach
	if st.Received {
		code := st.Code
		r.Code = &code
	}
}

func (o *Orchestrator) guard(site, stage string) {
	if v := recover(); v != nil {
		o.Logger.Error("site_check_panic",
			zap.String("site", site),
			zap.String("stage", stage),
			zap.String("panic", fmt.Sprint(v)),
		)
	}
}
