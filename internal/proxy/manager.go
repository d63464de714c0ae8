package proxy

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Default manager tuning values.
const (
	// DefaultAttemptBudget is how many candidates one Acquire call probes
	// before backing off and re-querying the provider.
	DefaultAttemptBudget = 10

	// DefaultRetryDelay is the pause between failed candidates within one
	// attempt budget.
	DefaultRetryDelay = 2 * time.Second

	// DefaultProbeTimeout bounds one liveness probe.
	DefaultProbeTimeout = 10 * time.Second

	// refillBackoffStart is the initial sleep after an exhausted attempt
	// budget. Doubles per round up to refillBackoffMax.
	refillBackoffStart = 5 * time.Second
	refillBackoffMax   = time.Minute
)

// Handle is a live proxy held by one worker. Workers keep their handle
// across successful fetches and only come back to Acquire after their
// proxy fails.
type Handle struct {
	// Proxy is the pool entry backing this handle.
	Proxy Proxy

	// Transport routes HTTP traffic through the proxy.
	Transport *http.Transport
}

// Manager owns the candidate pool and the run-scoped blacklist.
//
// All workers share one Manager. Candidate selection and blacklisting are
// serialized under a mutex; probes and backoff sleeps happen outside it so
// one worker's slow probe never blocks another worker's rotation.
type Manager struct {
	provider  Provider
	countries []string
	level     Anonymity

	probeURL      string
	probeTimeout  time.Duration
	attemptBudget int
	retryDelay    time.Duration

	logger *slog.Logger

	mu         sync.Mutex
	candidates []Proxy
	blacklist  map[string]struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCountries sets the provider country filter.
func WithCountries(countries []string) ManagerOption {
	return func(m *Manager) { m.countries = countries }
}

// WithAnonymity sets the minimum anonymity level requested from the
// provider. Default is AnonymityAnonymous.
func WithAnonymity(level Anonymity) ManagerOption {
	return func(m *Manager) { m.level = level }
}

// WithProbeURL sets the liveness probe endpoint.
func WithProbeURL(probeURL string) ManagerOption {
	return func(m *Manager) { m.probeURL = probeURL }
}

// WithProbeTimeout sets the per-probe timeout.
func WithProbeTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.probeTimeout = d
		}
	}
}

// WithAttemptBudget sets how many candidates one Acquire call tries before
// backing off to the provider.
func WithAttemptBudget(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.attemptBudget = n
		}
	}
}

// WithRetryDelay sets the pause between failed candidates.
func WithRetryDelay(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d >= 0 {
			m.retryDelay = d
		}
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager drawing candidates from the given provider.
func NewManager(provider Provider, opts ...ManagerOption) *Manager {
	m := &Manager{
		provider:      provider,
		level:         AnonymityAnonymous,
		probeTimeout:  DefaultProbeTimeout,
		attemptBudget: DefaultAttemptBudget,
		retryDelay:    DefaultRetryDelay,
		blacklist:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Acquire returns a probed, working proxy.
//
// It tries up to the attempt budget of candidates, probing each and
// blacklisting failures. When the budget is exhausted it sleeps with
// doubling backoff, re-queries the provider, and starts over. The only way
// Acquire returns an error is context cancellation, so a dry spell in the
// free-proxy ecosystem stalls the crawl instead of killing it.
func (m *Manager) Acquire(ctx context.Context) (*Handle, error) {
	backoff := refillBackoffStart

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for attempt := 1; attempt <= m.attemptBudget; attempt++ {
			candidate, ok := m.nextCandidate(ctx)
			if !ok {
				break
			}

			if err := m.probe(ctx, candidate); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				m.blacklistProxy(candidate)
				m.logger.Debug("proxy failed liveness probe",
					"proxy", candidate.String(),
					"attempt", attempt,
					"error", err,
				)
				if !sleepCtx(ctx, m.retryDelay) {
					return nil, ctx.Err()
				}
				continue
			}

			tr, err := candidate.Transport(m.probeTimeout)
			if err != nil {
				m.blacklistProxy(candidate)
				continue
			}

			m.logger.Debug("acquired proxy", "proxy", candidate.String())
			return &Handle{Proxy: candidate, Transport: tr}, nil
		}

		// Budget exhausted: back off, then pull a fresh list.
		m.logger.Debug("proxy attempt budget exhausted, backing off",
			"budget", m.attemptBudget,
			"backoff", backoff,
		)
		if !sleepCtx(ctx, backoff) {
			return nil, ctx.Err()
		}
		if backoff < refillBackoffMax {
			backoff *= 2
			if backoff > refillBackoffMax {
				backoff = refillBackoffMax
			}
		}
		m.refill(ctx)
	}
}

// ReportFailure blacklists a proxy after a transport error during a fetch.
// The proxy is never probed or returned again this run.
func (m *Manager) ReportFailure(p Proxy) {
	m.blacklistProxy(p)
	m.logger.Debug("proxy blacklisted after transport failure", "proxy", p.String())
}

// Blacklisted reports whether an address is on the run-scoped blacklist.
func (m *Manager) Blacklisted(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blacklist[address]
	return ok
}

// BlacklistSize returns how many proxies have failed this run.
func (m *Manager) BlacklistSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blacklist)
}

// nextCandidate pops the next non-blacklisted candidate, refilling from
// the provider when the local list runs out.
func (m *Manager) nextCandidate(ctx context.Context) (Proxy, bool) {
	for {
		m.mu.Lock()
		for len(m.candidates) > 0 {
			c := m.candidates[0]
			m.candidates = m.candidates[1:]
			if _, bad := m.blacklist[c.Address]; bad {
				continue
			}
			m.mu.Unlock()
			return c, true
		}
		m.mu.Unlock()

		if !m.refill(ctx) {
			return Proxy{}, false
		}
	}
}

// refill queries the provider and appends non-blacklisted candidates.
// Returns false when the query failed or yielded nothing new.
func (m *Manager) refill(ctx context.Context) bool {
	candidates, err := m.provider.Candidates(ctx, m.countries, m.level)
	if err != nil {
		m.logger.Debug("provider query failed", "error", err)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, c := range candidates {
		if _, bad := m.blacklist[c.Address]; bad {
			continue
		}
		m.candidates = append(m.candidates, c)
		added++
	}
	return added > 0
}

// probe performs a lightweight GET through the candidate. Any transport
// error or non-2xx status fails the probe.
func (m *Manager) probe(ctx context.Context, p Proxy) error {
	if m.probeURL == "" {
		return nil
	}

	tr, err := p.Transport(m.probeTimeout)
	if err != nil {
		return err
	}
	defer tr.CloseIdleConnections()

	client := &http.Client{Transport: tr, Timeout: m.probeTimeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // probe body is discarded

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ErrProbeFailed
	}
	return nil
}

// blacklistProxy adds a proxy to the run-scoped blacklist.
func (m *Manager) blacklistProxy(p Proxy) {
	m.mu.Lock()
	m.blacklist[p.Address] = struct{}{}
	m.mu.Unlock()
}

// sleepCtx sleeps for d or until the context is canceled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
