package report

import (
	"sort"
	"time"

	"github.com/ctp-sec/linkextractor/internal/metrics"
	"github.com/ctp-sec/linkextractor/internal/store"
	"github.com/ctp-sec/linkextractor/internal/urlutil"
)

// Summary holds everything the writers need about a finished crawl.
type Summary struct {
	// Seed is the starting URL.
	Seed string

	// ScopeMode names the crawl scope ("all", "auto", "custom").
	ScopeMode string

	// ScopeRoot is the scope root domain, empty in all-domains mode.
	ScopeRoot string

	// OutputPath is where the links were written.
	OutputPath string

	// SessionID is the database session, empty when no database was used.
	SessionID string

	// StartedAt is when the crawl began.
	StartedAt time.Time

	// Duration is the total crawl time.
	Duration time.Duration

	// Interrupted is true when the crawl ended on a signal rather than by
	// draining the frontier.
	Interrupted bool

	// Stats is the final metrics snapshot.
	Stats metrics.Snapshot

	// Domains are per-domain link totals, most links first.
	Domains []DomainCount
}

// DomainCount is one domain's share of the collected links.
type DomainCount struct {
	Domain string
	Links  int
}

// DomainCounts aggregates stored link records by domain, most links
// first. Ties break alphabetically so output is stable.
func DomainCounts(recs []store.Record) []DomainCount {
	byDomain := make(map[string]int)
	for _, rec := range recs {
		if host := urlutil.Host(rec.URL); host != "" {
			byDomain[host]++
		}
	}

	counts := make([]DomainCount, 0, len(byDomain))
	for domain, n := range byDomain {
		counts = append(counts, DomainCount{Domain: domain, Links: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Links != counts[j].Links {
			return counts[i].Links > counts[j].Links
		}
		return counts[i].Domain < counts[j].Domain
	})
	return counts
}
