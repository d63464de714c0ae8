package crawler

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/ctp-sec/linkextractor/internal/urlutil"
)

// maxLinksPerPage caps extraction per page. Pages with thousands of links
// are almost always generated navigation; the first hundred carry the
// signal.
const maxLinksPerPage = 100

// metaRefreshRe pulls the target out of a meta refresh content attribute,
// e.g. "5; url=https://example.com/next".
var metaRefreshRe = regexp.MustCompile(`(?i)url\s*=\s*['"]?([^'";]+)`)

// scriptURLRe finds absolute URLs embedded in inline script text. Only
// quoted http(s) URLs are considered; anything needing JS evaluation to
// assemble is out of reach for a static parser.
var scriptURLRe = regexp.MustCompile(`https?://[^\s'"<>\\]+`)

// ExtractLinks parses an HTML page and returns the absolute URLs it links
// to, in document order, deduplicated, capped at maxLinksPerPage.
//
// The body is decoded according to the Content-Type charset (or the
// document's own meta declaration) before parsing, so non-UTF-8 pages
// yield usable URLs. Anchor, link and area hrefs, meta refresh targets,
// and absolute URLs in inline scripts are all collected.
func ExtractLinks(baseURL, contentType string, body io.Reader) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	decoded, err := charset.NewReader(body, contentType)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]struct{})

	add := func(raw string) {
		if len(links) >= maxLinksPerPage {
			return
		}
		resolved, ok := resolveLink(base, raw)
		if !ok {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	}

	doc.Find("a[href], link[href], area[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			add(href)
		}
	})

	doc.Find("meta[http-equiv]").Each(func(_ int, s *goquery.Selection) {
		if !strings.EqualFold(s.AttrOr("http-equiv", ""), "refresh") {
			return
		}
		if m := metaRefreshRe.FindStringSubmatch(s.AttrOr("content", "")); m != nil {
			add(m[1])
		}
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if len(links) >= maxLinksPerPage {
			return
		}
		for _, m := range scriptURLRe.FindAllString(s.Text(), -1) {
			add(m)
		}
	})

	return links, nil
}

// resolveLink turns one raw href into a normalized absolute URL. Pseudo
// links (javascript:, mailto:, tel:, data:) and same-page fragments
// resolve to nothing.
func resolveLink(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", false
	}

	lower := strings.ToLower(raw)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	abs := urlutil.Normalize(base.ResolveReference(ref).String())
	if !urlutil.IsValid(abs) {
		return "", false
	}
	return abs, true
}
