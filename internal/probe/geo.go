package probe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hamed0406/sitecheck/internal/domain"
)

// DefaultGeoEndpoint is the ip-api.com JSON endpoint; the address is appended.
const DefaultGeoEndpoint = "http://ip-api.com/json/"

// GeoLookup resolves an address to location metadata. ok=false means nothing usable came back.
type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (domain.GeoInfo, bool)
}

// GeoCache stores successful lookups by address.
type GeoCache interface {
	Get(ctx context.Context, ip string) (domain.GeoInfo, bool, error)
	Set(ctx context.Context, ip string, g domain.GeoInfo) error
}

// Geo is the outcome of enriching one address.
type Geo struct {
	Info   domain.GeoInfo
	OK     bool
	Cached bool
}

// GeoEnricher looks addresses up through Source, consulting Cache first when set.
type GeoEnricher struct {
	Source GeoLookup
	Cache  GeoCache
}

// Enrich never issues a lookup for an unset or error-marked address; it
// returns the all-unset record instead. Cache failures fall through to Source.
func (g *GeoEnricher) Enrich(ctx context.Context, ip string) Geo {
	if !lookupable(ip) || g.Source == nil {
		return Geo{}
	}
	if g.Cache != nil {
		if info, ok, err := g.Cache.Get(ctx, ip); err == nil && ok {
			return Geo{Info: info, OK: true, Cached: true}
		}
	}
	info, ok := g.Source.Lookup(ctx, ip)
	if !ok {
		return Geo{}
	}
	if g.Cache != nil {
		_ = g.Cache.Set(ctx, ip, info)
	}
	return Geo{Info: info, OK: true}
}

func lookupable(ip string) bool {
	ip = strings.TrimSpace(ip)
	return ip != "" && ip != domain.NotAvailable && !strings.HasPrefix(ip, "Error")
}

// IPAPI queries an ip-api.com compatible JSON service.
type IPAPI struct {
	Endpoint string
	Client   *http.Client
}

func NewIPAPI(endpoint string, timeout time.Duration) *IPAPI {
	if endpoint == "" {
		endpoint = DefaultGeoEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultGeoTimeout
	}
	return &IPAPI{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

type ipAPIResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	ISP        string `json:"isp"`
	Org        string `json:"org"`
}

// Lookup succeeds only on HTTP 200 with an embedded status of "success".
// Missing payload fields stay unset.
func (c *IPAPI) Lookup(ctx context.Context, ip string) (domain.GeoInfo, bool) {
	target := strings.TrimRight(c.Endpoint, "/") + "/" + url.PathEscape(ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.GeoInfo{}, false
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return domain.GeoInfo{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return domain.GeoInfo{}, false
	}

	var body ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return domain.GeoInfo{}, false
	}
	if body.Status != "success" {
		return domain.GeoInfo{}, false
	}
	return domain.GeoInfo{
		Country: domain.Str(body.Country),
		Region:  domain.Str(body.RegionName),
		City:    domain.Str(body.City),
		ISP:     domain.Str(body.ISP),
		Org:     domain.Str(body.Org),
	}, true
}
