package probe

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/hamed0406/sitecheck/internal/domain"
)

// MMDB answers geo lookups from local MaxMind databases instead of a remote service.
type MMDB struct {
	city *geoip2.Reader
	asn  *geoip2.Reader
}

// OpenMMDB opens a City database and, when asnPath is not empty, an ASN
// database used for the ISP and organisation fields.
func OpenMMDB(cityPath, asnPath string) (*MMDB, error) {
	city, err := geoip2.Open(cityPath)
	if err != nil {
		return nil, fmt.Errorf("open city mmdb: %w", err)
	}
	m := &MMDB{city: city}
	if asnPath != "" {
		asn, err := geoip2.Open(asnPath)
		if err != nil {
			city.Close()
			return nil, fmt.Errorf("open asn mmdb: %w", err)
		}
		m.asn = asn
	}
	return m, nil
}

func (m *MMDB) Close() error {
	var err error
	if m.asn != nil {
		err = m.asn.Close()
	}
	if cerr := m.city.Close(); cerr != nil {
		err = cerr
	}
	return err
}

func (m *MMDB) Lookup(_ context.Context, ip string) (domain.GeoInfo, bool) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return domain.GeoInfo{}, false
	}
	rec, err := m.city.City(addr)
	if err != nil || rec == nil {
		return domain.GeoInfo{}, false
	}
	info := domain.GeoInfo{
		Country: domain.Str(rec.Country.Names["en"]),
		City:    domain.Str(rec.City.Names["en"]),
	}
	if len(rec.Subdivisions) > 0 {
		info.Region = domain.Str(rec.Subdivisions[0].Names["en"])
	}
	if m.asn != nil {
		if a, err := m.asn.ASN(addr); err == nil && a != nil {
			info.ISP = domain.Str(a.AutonomousSystemOrganization)
			info.Org = domain.Str(a.AutonomousSystemOrganization)
		}
	}
	return info, info.Known()
}
