package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNS outcome classes, logged alongside unresolved addresses.
const (
	DNSResolves      = "RESOLVES"
	DNSNXDomain      = "NXDOMAIN"
	DNSNoARecord     = "NO_A_RECORD"
	DNSServfailOrTTL = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName   = "INVALID_NAME"
)

// IPLookuper is satisfied by *net.Resolver.
type IPLookuper interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Address is the outcome of resolving a site's host.
type Address struct {
	IP    string
	OK    bool
	Class string
	Err   string
}

// AddressResolver resolves the host part of a URL to one textual address.
// Lookups run on the calling goroutine; the runtime parks only that goroutine
// while the resolver (pure Go or cgo) waits, so sibling probes keep running.
type AddressResolver struct {
	Resolver IPLookuper
	Timeout  time.Duration
}

func NewAddressResolver(timeout time.Duration) *AddressResolver {
	if timeout <= 0 {
		timeout = DefaultDNSTimeout
	}
	return &AddressResolver{Resolver: net.DefaultResolver, Timeout: timeout}
}

// Resolve strips scheme, path and port from target and looks the host up,
// preferring an IPv4 answer. Failure yields OK=false and a DNS class.
func (a *AddressResolver) Resolve(ctx context.Context, target string) Address {
	host := HostOf(target)
	if host == "" || strings.ContainsAny(host, " /") {
		return Address{Class: DNSInvalidName}
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	ips, err := a.Resolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return Address{Class: classifyDNSError(err), Err: err.Error()}
	}
	if len(ips) == 0 {
		return Address{Class: DNSNoARecord}
	}
	pick := ips[0]
	for _, ip := range ips {
		if ip.To4() != nil {
			pick = ip
			break
		}
	}
	return Address{IP: pick.String(), OK: true, Class: DNSResolves}
}

func classifyDNSError(err error) string {
	var de *net.DNSError
	if errors.As(err, &de) {
		switch {
		case de.IsNotFound:
			return DNSNXDomain
		case de.IsTimeout, de.IsTemporary:
			return DNSServfailOrTTL
		}
	}
	// context deadline, refused connection to the resolver, etc.
	return DNSServfailOrTTL
}
