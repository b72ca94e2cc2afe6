package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr     string `mapstructure:"API_ADDR"` // e.g. "127.0.0.1:8080" or ":8080" (Docker)
	LogDir   string `mapstructure:"LOG_DIR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Per sub-check bounds.
	ProtocolTimeout time.Duration `mapstructure:"PROTOCOL_TIMEOUT"`
	LatencyTimeout  time.Duration `mapstructure:"LATENCY_TIMEOUT"`
	StatusTimeout   time.Duration `mapstructure:"STATUS_TIMEOUT"`
	GeoTimeout      time.Duration `mapstructure:"GEO_TIMEOUT"`
	DNSTimeout      time.Duration `mapstructure:"DNS_TIMEOUT"`

	// Geo backend: the HTTP service unless a City mmdb path is set.
	GeoEndpoint    string        `mapstructure:"GEO_ENDPOINT"`
	GeoMMDBPath    string        `mapstructure:"GEO_MMDB_PATH"`
	GeoASNMMDBPath string        `mapstructure:"GEO_ASN_MMDB_PATH"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"` // empty disables the geo cache
	GeoCacheTTL    time.Duration `mapstructure:"GEO_CACHE_TTL"`

	MaxConcurrentSites int           `mapstructure:"MAX_CONCURRENT_SITES"` // 0 = unbounded
	PageSize           int           `mapstructure:"PAGE_SIZE"`
	NavigatorIdle      time.Duration `mapstructure:"NAVIGATOR_IDLE"`

	SlackWebhookURL string `mapstructure:"SLACK_WEBHOOK_URL"`

	RateLimitRPM   int `mapstructure:"RATE_LIMIT_RPM"`
	RateLimitBurst int `mapstructure:"RATE_LIMIT_BURST"`
}

var defaults = map[string]any{
	"API_ADDR":             "127.0.0.1:8080",
	"LOG_DIR":              "logs",
	"LOG_LEVEL":            "info",
	"PROTOCOL_TIMEOUT":     3 * time.Second,
	"LATENCY_TIMEOUT":      3 * time.Second,
	"STATUS_TIMEOUT":       5 * time.Second,
	"GEO_TIMEOUT":          5 * time.Second,
	"DNS_TIMEOUT":          5 * time.Second,
	"GEO_ENDPOINT":         "http://ip-api.com/json/",
	"GEO_MMDB_PATH":        "",
	"GEO_ASN_MMDB_PATH":    "",
	"REDIS_ADDR":           "",
	"GEO_CACHE_TTL":        time.Hour,
	"MAX_CONCURRENT_SITES": 0,
	"PAGE_SIZE":            5,
	"NAVIGATOR_IDLE":       120 * time.Second,
	"SLACK_WEBHOOK_URL":    "",
	"RATE_LIMIT_RPM":       120,
	"RATE_LIMIT_BURST":     30,
}

// FromEnv reads an optional .env file in the working directory, then the
// environment, which wins over the file.
func FromEnv() (Config, error) {
	return load(".env")
}

func load(envFile string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// a missing file is fine; configuration can come purely from the environment
	_ = v.ReadInConfig()

	// every key needs a default so AutomaticEnv picks it up during Unmarshal
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	if cfg.MaxConcurrentSites < 0 {
		cfg.MaxConcurrentSites = 0
	}
	return cfg, nil
}
