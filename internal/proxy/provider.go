package proxy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Anonymity is the minimum anonymity level requested from the provider.
// Transparent proxies leak the client address and are never requested.
type Anonymity string

const (
	// AnonymityAnonymous hides the client address but identifies itself
	// as a proxy.
	AnonymityAnonymous Anonymity = "anonymous"

	// AnonymityElite hides both the client address and the fact that a
	// proxy is in use.
	AnonymityElite Anonymity = "elite"
)

// Provider supplies fresh proxy candidates. Implementations must be safe
// for concurrent use; the manager may re-query at any time.
type Provider interface {
	// Candidates returns proxies matching the country filter and minimum
	// anonymity level. Order is the provider's preference order.
	Candidates(ctx context.Context, countries []string, level Anonymity) ([]Proxy, error)
}

// DefaultProviderEndpoint is a free proxy-list API that returns one
// "host:port" per line, filterable by country and anonymity.
const DefaultProviderEndpoint = "https://api.proxyscrape.com/v2/"

// providerTimeout bounds one provider query. The provider is on the
// clearnet and should answer quickly; a hung provider must not stall a
// proxy acquisition longer than a failed candidate would.
const providerTimeout = 15 * time.Second

// maxProviderBody caps the provider response read. A list of a few
// thousand "host:port" lines fits comfortably.
const maxProviderBody = 1 << 20

// HTTPProvider fetches candidates from a line-oriented proxy-list API.
type HTTPProvider struct {
	// Endpoint is the list API base URL.
	Endpoint string

	// Client is the HTTP client used for queries. Provider queries go
	// direct, never through the pool: a dead pool must not prevent
	// refilling itself.
	Client *http.Client
}

// NewHTTPProvider creates a provider for the given endpoint. An empty
// endpoint selects DefaultProviderEndpoint.
func NewHTTPProvider(endpoint string) *HTTPProvider {
	if endpoint == "" {
		endpoint = DefaultProviderEndpoint
	}
	return &HTTPProvider{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: providerTimeout},
	}
}

// Candidates queries the list API and parses its response.
func (hp *HTTPProvider) Candidates(ctx context.Context, countries []string, level Anonymity) ([]Proxy, error) {
	u, err := url.Parse(hp.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid provider endpoint: %w", err)
	}

	q := u.Query()
	q.Set("request", "displayproxies")
	q.Set("protocol", "http")
	q.Set("anonymity", string(level))
	if len(countries) > 0 {
		q.Set("country", strings.Join(countries, ","))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := hp.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider query failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close on read path

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	proxies, err := parseProxyList(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return nil, err
	}
	if len(proxies) == 0 {
		return nil, ErrNoCandidates
	}
	return proxies, nil
}

// parseProxyList reads one proxy per line, skipping blanks and lines that
// fail to parse. A provider glitch that garbles some lines should not
// discard the rest of the list.
func parseProxyList(r io.Reader) ([]Proxy, error) {
	var proxies []Proxy
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p, err := ParseProxy(line)
		if err != nil {
			continue
		}
		proxies = append(proxies, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}
	return proxies, nil
}

// StaticProvider serves a fixed candidate list. Used by tests and by the
// --proxy-list flag where the user supplies their own proxies.
type StaticProvider struct {
	// Proxies is returned by every Candidates call, minus country
	// filtering when the entries carry country tags.
	Proxies []Proxy
}

// Candidates returns the static list filtered by country where tags are
// present. Untagged entries always pass the filter.
func (sp *StaticProvider) Candidates(_ context.Context, countries []string, _ Anonymity) ([]Proxy, error) {
	if len(countries) == 0 {
		return append([]Proxy(nil), sp.Proxies...), nil
	}

	allowed := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		allowed[strings.ToUpper(c)] = struct{}{}
	}

	var out []Proxy
	for _, p := range sp.Proxies {
		if p.Country == "" {
			out = append(out, p)
			continue
		}
		if _, ok := allowed[strings.ToUpper(p.Country)]; ok {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoCandidates
	}
	return out, nil
}
