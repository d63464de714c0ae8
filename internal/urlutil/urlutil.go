package urlutil

import (
	"net/url"
	"strings"
)

// maxURLLength is the longest URL the crawler will accept.
// Longer URLs are almost always generated junk (session tokens, tracking
// parameters repeated by broken templates) and some servers reject them.
const maxURLLength = 2000

// skipExtensions lists file extensions that never contain hyperlinks.
// Fetching these wastes bandwidth and, through proxies, time.
var skipExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".css", ".js",
	".ico", ".svg", ".woff", ".woff2", ".ttf", ".eot", ".zip",
	".rar", ".exe", ".dmg", ".mp4", ".mp3", ".avi", ".mov",
	".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
}

// Normalize converts a URL to its canonical form used for deduplication:
// lowercase scheme and host, default port stripped, fragment removed,
// trailing slash removed from the path.
//
// Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
// If the input cannot be parsed it is returned unchanged; IsValid rejects
// such values separately.
func Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	// Strip the default port for the scheme.
	// http://example.com:80/ and http://example.com/ are the same resource.
	host := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	}

	// Trailing slash normalization: /path/ and /path are treated as the
	// same page, and the root path collapses to no path at all.
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String()
}

// Host returns the lowercase host (without port) of a URL, or an empty
// string if the URL cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsValid reports whether a URL is an absolute http or https URL the
// crawler should consider at all. It rejects other schemes (javascript:,
// mailto:, data:), relative references, overlong URLs, and URLs pointing
// at static assets that cannot contain links.
func IsValid(rawURL string) bool {
	if len(rawURL) > maxURLLength {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}

	lower := strings.ToLower(u.Path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}
