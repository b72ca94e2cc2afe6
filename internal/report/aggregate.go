// Package report turns a batch of site reports into numbered display pages
// and tracks which page a viewer is looking at.
package report

import "github.com/hamed0406/sitecheck/internal/domain"

// DefaultPageSize is the number of sites per page.
const DefaultPageSize = 5

// Dedupe keeps the first report for each identifier, in input order.
func Dedupe(reports []domain.SiteReport) []domain.SiteReport {
	seen := make(map[domain.SiteQuery]struct{}, len(reports))
	out := make([]domain.SiteReport, 0, len(reports))
	for _, r := range reports {
		if _, dup := seen[r.Query]; dup {
			continue
		}
		seen[r.Query] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Paginate splits reports into consecutive chunks of size; the last chunk may be shorter.
func Paginate(reports []domain.SiteReport, size int) [][]domain.SiteReport {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := make([][]domain.SiteReport, 0, (len(reports)+size-1)/size)
	for start := 0; start < len(reports); start += size {
		end := min(start+size, len(reports))
		pages = append(pages, reports[start:end])
	}
	return pages
}
