// Package app assembles the site checker from configuration. Both binaries use it.
package app

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	rediscache "github.com/hamed0406/sitecheck/internal/cache/redis"
	"github.com/hamed0406/sitecheck/internal/command"
	"github.com/hamed0406/sitecheck/internal/config"
	"github.com/hamed0406/sitecheck/internal/monitoring"
	"github.com/hamed0406/sitecheck/internal/probe"
	"github.com/hamed0406/sitecheck/internal/sitecheck"
)

// App holds the wired components and whatever needs closing on exit.
type App struct {
	Metrics  *monitoring.Metrics
	Runner   *sitecheck.Runner
	Commands *command.Handler

	closers []io.Closer
}

// New builds the probes, the geo backend (mmdb or HTTP, optionally cached in
// Redis), the runner and the command handler. reg may be nil to skip metrics.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{}
	if reg != nil {
		a.Metrics = monitoring.NewMetrics(reg)
	}

	geo, err := a.geoEnricher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	orch := sitecheck.NewOrchestrator(logger, a.Metrics, sitecheck.Timeouts{
		Protocol: cfg.ProtocolTimeout,
		DNS:      cfg.DNSTimeout,
		Latency:  cfg.LatencyTimeout,
		Status:   cfg.StatusTimeout,
	}, geo)
	a.Runner = sitecheck.NewRunner(logger, orch, a.Metrics, cfg.MaxConcurrentSites)
	a.Commands = command.NewHandler(logger, a.Runner, cfg.PageSize)
	return a, nil
}

func (a *App) geoEnricher(ctx context.Context, cfg config.Config, logger *zap.Logger) (*probe.GeoEnricher, error) {
	g := &probe.GeoEnricher{}

	if cfg.GeoMMDBPath != "" {
		db, err := probe.OpenMMDB(cfg.GeoMMDBPath, cfg.GeoASNMMDBPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		g.Source = db
		logger.Info("geo_backend", zap.String("kind", "mmdb"), zap.String("path", cfg.GeoMMDBPath))
	} else {
		g.Source = probe.NewIPAPI(cfg.GeoEndpoint, cfg.GeoTimeout)
		logger.Info("geo_backend", zap.String("kind", "http"), zap.String("endpoint", cfg.GeoEndpoint))
	}

	if cfg.RedisAddr != "" {
		cache := rediscache.NewGeoCache(cfg.RedisAddr, cfg.GeoCacheTTL)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := cache.Ping(pctx); err != nil {
			// lookups still work uncached
			logger.Warn("geo_cache_unavailable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = cache.Close()
		} else {
			a.closers = append(a.closers, cache)
			g.Cache = cache
		}
	}
	return g, nil
}

// Close releases the geo database and cache connections.
func (a *App) Close() error {
	var err error
	for _, c := range a.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
