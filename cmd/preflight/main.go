// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/sitecheck/internal/cache/redis"
	"github.com/hamed0406/sitecheck/internal/config"
	"github.com/hamed0406/sitecheck/internal/probe"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.FromEnv()
	if err != nil {
		fail(err.Error())
	}

	if strings.TrimSpace(os.Getenv("API_ADDR")) == "" {
		warn("API_ADDR is empty; default " + cfg.Addr + " will be used.")
	} else {
		ok("API_ADDR=" + cfg.Addr)
	}

	for name, d := range map[string]time.Duration{
		"PROTOCOL_TIMEOUT": cfg.ProtocolTimeout,
		"LATENCY_TIMEOUT":  cfg.LatencyTimeout,
		"STATUS_TIMEOUT":   cfg.StatusTimeout,
		"GEO_TIMEOUT":      cfg.GeoTimeout,
		"DNS_TIMEOUT":      cfg.DNSTimeout,
	} {
		if d <= 0 {
			fail(name + " must be positive")
		}
	}
	ok("probe timeouts valid")

	if cfg.GeoMMDBPath != "" {
		db, err := probe.OpenMMDB(cfg.GeoMMDBPath, cfg.GeoASNMMDBPath)
		if err != nil {
			fail("GEO_MMDB_PATH: " + err.Error())
		}
		_ = db.Close()
		ok("GEO_MMDB_PATH readable")
	} else {
		ok("geo lookups via " + cfg.GeoEndpoint)
	}

	if cfg.RedisAddr == "" {
		warn("REDIS_ADDR empty — geo lookups will not be cached.")
	} else {
		cache := redis.NewGeoCache(cfg.RedisAddr, cfg.GeoCacheTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := cache.Ping(ctx)
		cancel()
		_ = cache.Close()
		if err != nil {
			warn("REDIS_ADDR unreachable (" + err.Error() + "); the API will run uncached.")
		} else {
			ok("REDIS_ADDR reachable")
		}
	}

	if cfg.SlackWebhookURL == "" {
		warn("SLACK_WEBHOOK_URL empty — pages will not be published to Slack.")
	} else {
		ok("SLACK_WEBHOOK_URL present")
	}

	ok("preflight passed")
}
