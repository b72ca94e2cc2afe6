package probe

import (
	"context"
	"net"
	"time"
)

// Latency is the outcome of a TCP connect measurement.
type Latency struct {
	MS  float64
	OK  bool
	Err string
}

// LatencyProber times a bare TCP handshake to host:port.
type LatencyProber struct {
	Timeout time.Duration
}

func NewLatencyProber(timeout time.Duration) *LatencyProber {
	if timeout <= 0 {
		timeout = DefaultLatencyTimeout
	}
	return &LatencyProber{Timeout: timeout}
}

// Measure dials host:port and reports the time until the connection was
// established, rounded to two decimals. The connection is closed right away.
func (l *LatencyProber) Measure(ctx context.Context, host, port string) Latency {
	d := &net.Dialer{Timeout: l.Timeout}
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	elapsed := time.Since(start)
	if err != nil {
		return Latency{Err: err.Error()}
	}
	_ = conn.Close()
	return Latency{MS: roundMS(elapsed), OK: true}
}
