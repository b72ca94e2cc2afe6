package report

import (
	"strconv"
	"strings"

	"github.com/hamed0406/sitecheck/internal/domain"
)

// NoData is shown on a page where no site has anything displayable.
const NoData = "No data to display."

// Field is one site's block on a page, titled with the URL that was probed.
type Field struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
}

// Page is one display unit. Index is 1-based.
type Page struct {
	Index  int     `json:"index"`
	Total  int     `json:"total"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields,omitempty"`
	Notice string  `json:"notice,omitempty"`
}

// Label is the "i/n" position of the page.
func (p Page) Label() string {
	return strconv.Itoa(p.Index) + "/" + strconv.Itoa(p.Total)
}

// Text renders the page as plain text for terminals and chat webhooks.
func (p Page) Text() string {
	var b strings.Builder
	b.WriteString(p.Title)
	b.WriteByte('\n')
	if p.Notice != "" {
		b.WriteString(p.Notice)
		b.WriteByte('\n')
	}
	for _, f := range p.Fields {
		b.WriteString(f.Name)
		b.WriteByte('\n')
		for _, l := range f.Lines {
			b.WriteString("  ")
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Build dedupes reports, splits them into pages of size and renders each page
// with only the requested, available fields. No reports means no pages.
func Build(reports []domain.SiteReport, opts domain.CheckOptions, size int) []Page {
	chunks := Paginate(Dedupe(reports), size)
	pages := make([]Page, 0, len(chunks))
	for i, chunk := range chunks {
		p := Page{Index: i + 1, Total: len(chunks)}
		p.Title = "Check Results (" + p.Label() + ")"
		for _, r := range chunk {
			if lines := Lines(r, opts); len(lines) > 0 {
				p.Fields = append(p.Fields, Field{Name: r.FullURL, Lines: lines})
			}
		}
		if len(p.Fields) == 0 {
			p.Notice = NoData
		}
		pages = append(pages, p)
	}
	return pages
}

// Lines lists the labelled values of r that were requested in opts and are set.
func Lines(r domain.SiteReport, opts domain.CheckOptions) []string {
	var out []string
	if opts.Has(domain.OptStatus) && r.Status != nil {
		out = append(out, "Status: "+r.StatusText())
	}
	if opts.Has(domain.OptCode) && r.Code != nil {
		out = append(out, "Code: "+r.CodeText())
	}
	if opts.Has(domain.OptPing) && r.LatencyMS != nil {
		out = append(out, "Ping: "+r.PingText()+"ms")
	}
	if opts.Has(domain.OptIP) && r.IP != nil {
		out = append(out, "IP: "+*r.IP)
	}
	if opts.Has(domain.OptGeo) {
		out = append(out, geoLines(r.Geo)...)
	}
	return out
}

func geoLines(g domain.GeoInfo) []string {
	var out []string
	var loc []string
	if g.Country != nil {
		loc = append(loc, *g.Country)
	}
	if g.City != nil && (g.Country == nil || *g.City != *g.Country) {
		loc = append(loc, *g.City)
	}
	if len(loc) > 0 {
		out = append(out, "Location: "+strings.Join(loc, ", "))
	}
	if g.ISP != nil {
		out = append(out, "ISP: "+*g.ISP)
	}
	if g.Org != nil && (g.ISP == nil || *g.Org != *g.ISP) {
		out = append(out, "Org: "+*g.Org)
	}
	return out
}
