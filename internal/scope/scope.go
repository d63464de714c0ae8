package scope

import (
	"strings"

	"github.com/ctp-sec/linkextractor/internal/urlutil"
)

// Mode selects how the classifier limits recursive crawling.
type Mode int

const (
	// ModeAll crawls every domain that is not on the ignore list.
	ModeAll Mode = iota

	// ModeAuto restricts crawling to the seed's root domain and its
	// subdomains. The root is derived from the seed with RootFromSeed.
	ModeAuto

	// ModeCustom restricts crawling to an explicitly given domain and its
	// subdomains.
	ModeCustom
)

// String returns a human-readable mode name for logs and reports.
func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeAuto:
		return "auto"
	case ModeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Classifier makes scope and ignore decisions for discovered URLs.
//
// The ignore list always wins over scope: a URL whose host is ignored is
// still collected into the link store by the caller, but IsCrawlable
// reports false for it so it is never fetched.
type Classifier struct {
	// root is the scope root domain. Empty in ModeAll.
	root string

	// ignored holds ignore-list entries, lowercased with any leading
	// "www." removed.
	ignored map[string]struct{}
}

// New creates a Classifier for the given mode.
//
// For ModeAuto the scope root is derived from the seed. For ModeCustom the
// custom domain is used as given (normalized the same way as the seed).
// The ignored set may be nil.
func New(mode Mode, seed, custom string, ignored map[string]struct{}) *Classifier {
	c := &Classifier{ignored: ignored}
	switch mode {
	case ModeAuto:
		c.root = RootFromSeed(seed)
	case ModeCustom:
		c.root = RootFromSeed(custom)
	}
	return c
}

// RootFromSeed extracts the scope root domain from a seed value.
// It strips the scheme, any path, the port, and a leading "www.":
//
//	https://sub.example.com:8080/x -> sub.example.com
//	www.example.com:8080           -> example.com
func RootFromSeed(seed string) string {
	s := seed
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "www.")
	return s
}

// IsIgnored reports whether the URL's host equals or is a subdomain of any
// ignore-list entry. A leading "www." on the host is not significant.
func (c *Classifier) IsIgnored(rawURL string) bool {
	if len(c.ignored) == 0 {
		return false
	}

	host := strings.TrimPrefix(urlutil.Host(rawURL), "www.")
	if host == "" {
		return false
	}

	for entry := range c.ignored {
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// IsCrawlable reports whether the URL may be fetched and recursed into.
//
// Ignored hosts are never crawlable regardless of scope. With no scope root
// (ModeAll) everything else is crawlable. Otherwise the host must equal the
// root or be one of its subdomains.
func (c *Classifier) IsCrawlable(rawURL string) bool {
	if c.IsIgnored(rawURL) {
		return false
	}
	if c.root == "" {
		return true
	}

	host := strings.TrimPrefix(urlutil.Host(rawURL), "www.")
	if host == "" {
		return false
	}
	return host == c.root || strings.HasSuffix(host, "."+c.root)
}

// Root returns the scope root domain, or an empty string in ModeAll.
func (c *Classifier) Root() string {
	return c.root
}
