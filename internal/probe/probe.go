// Package probe implements the sub-checks run against a single site: protocol
// detection, address resolution, TCP connect latency, HTTP status and geo lookup.
//
// Every sub-check is total: it returns a value result carrying an OK flag and
// never an error. A failed or timed-out sub-check degrades to "not available".
package probe

import (
	"math"
	"net"
	"net/url"
	"strings"
	"time"
)

// Default per-sub-check timeouts.
const (
	DefaultProtocolTimeout = 3 * time.Second
	DefaultLatencyTimeout  = 3 * time.Second
	DefaultStatusTimeout   = 5 * time.Second
	DefaultGeoTimeout      = 5 * time.Second
	DefaultDNSTimeout      = 5 * time.Second
)

// DefaultPort derives the TCP port probed for a protocol.
func DefaultPort(protocol string) string {
	if strings.EqualFold(protocol, "https") {
		return "443"
	}
	return "80"
}

// HostOf pulls the bare hostname out of a URL, a host:port pair or a bare host.
func HostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	// bare "host[:port][/path]"
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		raw = raw[:i]
	}
	if h, _, err := net.SplitHostPort(raw); err == nil {
		return h
	}
	return strings.Trim(raw, "[]")
}

// roundMS converts d to milliseconds rounded to two decimals.
func roundMS(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
