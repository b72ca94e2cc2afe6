package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NotAvailable marks a report field whose check was not requested or did not succeed.
const NotAvailable = "N/A"

// SiteQuery is a site identifier as the caller typed it, with or without a scheme.
type SiteQuery string

// Option is one check a caller can request for every site in a batch.
type Option uint8

const (
	OptStatus Option = 1 << iota
	OptCode
	OptPing
	OptIP
	OptGeo
)

var optionNames = []struct {
	opt  Option
	name string
}{
	{OptStatus, "status"},
	{OptCode, "code"},
	{OptPing, "ping"},
	{OptIP, "ip"},
	{OptGeo, "geo"},
}

// aliases maps every accepted token (without the flag marker) to its option.
var aliases = map[string]Option{
	"s":      OptStatus,
	"status": OptStatus,
	"c":      OptCode,
	"code":   OptCode,
	"p":      OptPing,
	"ping":   OptPing,
	"ip":     OptIP,
	"geo":    OptGeo,
}

// ParseOption normalises an alias such as "s" or "ping". Unknown tokens return false.
func ParseOption(token string) (Option, bool) {
	o, ok := aliases[strings.ToLower(strings.TrimSpace(token))]
	return o, ok
}

func (o Option) String() string {
	for _, n := range optionNames {
		if n.opt == o {
			return n.name
		}
	}
	return "option(" + strconv.Itoa(int(o)) + ")"
}

// CheckOptions is a set of Options.
type CheckOptions Option

// NewCheckOptions builds a set from the given options.
func NewCheckOptions(opts ...Option) CheckOptions {
	var c CheckOptions
	for _, o := range opts {
		c |= CheckOptions(o)
	}
	return c
}

// ParseCheckOptions normalises tokens through the alias table; unrecognised tokens are dropped.
func ParseCheckOptions(tokens []string) CheckOptions {
	var c CheckOptions
	for _, t := range tokens {
		if o, ok := ParseOption(t); ok {
			c |= CheckOptions(o)
		}
	}
	return c
}

func (c CheckOptions) Has(o Option) bool { return c&CheckOptions(o) != 0 }

// HasAny reports whether at least one of opts is in the set.
func (c CheckOptions) HasAny(opts ...Option) bool {
	for _, o := range opts {
		if c.Has(o) {
			return true
		}
	}
	return false
}

func (c CheckOptions) Empty() bool { return c == 0 }

// Names lists the set members in their canonical order.
func (c CheckOptions) Names() []string {
	out := make([]string, 0, len(optionNames))
	for _, n := range optionNames {
		if c.Has(n.opt) {
			out = append(out, n.name)
		}
	}
	return out
}

func (c CheckOptions) String() string { return strings.Join(c.Names(), ",") }

// Reachability classifies the outcome of the status check.
type Reachability string

const (
	StatusOnline  Reachability = "Online"
	StatusOffline Reachability = "Offline"
	StatusError   Reachability = "Error"
)

// GeoInfo holds coarse location metadata for an address. Nil fields are unknown.
type GeoInfo struct {
	Country *string `json:"country"`
	Region  *string `json:"region"`
	City    *string `json:"city"`
	ISP     *string `json:"isp"`
	Org     *string `json:"org"`
}

// Known reports whether any field of the lookup was filled.
func (g GeoInfo) Known() bool {
	return g.Country != nil || g.Region != nil || g.City != nil || g.ISP != nil || g.Org != nil
}

// SiteReport is the merged outcome of every sub-check run for one site.
// Each sub-check owns a disjoint set of fields; nil means "N/A".
type SiteReport struct {
	Query    SiteQuery
	FullURL  string
	Protocol string

	Status    *Reachability
	Code      *int
	LatencyMS *float64
	IP        *string
	Geo       GeoInfo
}

// NewSiteReport returns a report with every check field unset.
func NewSiteReport(q SiteQuery, fullURL, protocol string) *SiteReport {
	return &SiteReport{Query: q, FullURL: fullURL, Protocol: protocol}
}

// StatusText and friends render a field or NotAvailable.
func (r *SiteReport) StatusText() string {
	if r.Status == nil {
		return NotAvailable
	}
	return string(*r.Status)
}

func (r *SiteReport) CodeText() string {
	if r.Code == nil {
		return NotAvailable
	}
	return strconv.Itoa(*r.Code)
}

// PingText renders the latency with exactly two decimals.
func (r *SiteReport) PingText() string {
	if r.LatencyMS == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*r.LatencyMS, 'f', 2, 64)
}

func (r *SiteReport) IPText() string { return Text(r.IP) }

// Text dereferences s or returns NotAvailable.
func Text(s *string) string {
	if s == nil {
		return NotAvailable
	}
	return *s
}

// Str returns a pointer to s, or nil when s is empty.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MarshalJSON writes every absent field as "N/A" rather than null or zero.
func (r SiteReport) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"site":     string(r.Query),
		"full_url": r.FullURL,
		"protocol": r.Protocol,
		"status":   r.StatusText(),
		"code":     NotAvailable,
		"ping":     NotAvailable,
		"ip":       r.IPText(),
		"country":  Text(r.Geo.Country),
		"region":   Text(r.Geo.Region),
		"city":     Text(r.Geo.City),
		"isp":      Text(r.Geo.ISP),
		"org":      Text(r.Geo.Org),
	}
	if r.Code != nil {
		out["code"] = *r.Code
	}
	if r.LatencyMS != nil {
		out["ping"] = json.Number(r.PingText())
	}
	return json.Marshal(out)
}
