package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ctp-sec/linkextractor/internal/frontier"
	"github.com/ctp-sec/linkextractor/internal/metrics"
	"github.com/ctp-sec/linkextractor/internal/proxy"
	"github.com/ctp-sec/linkextractor/internal/scope"
	"github.com/ctp-sec/linkextractor/internal/store"
	"github.com/ctp-sec/linkextractor/internal/urlutil"
)

// Fetch tuning values.
const (
	// maxFetchAttempts bounds retries for one URL. A URL that fails this
	// many times is abandoned and never requeued.
	maxFetchAttempts = 3

	// maxBodyBytes caps how much of a response body is read. Pages larger
	// than this are parsed from their first chunk only.
	maxBodyBytes = 5 << 20

	// idleWait is how long one Dequeue call waits before the worker
	// re-checks for completion.
	idleWait = 500 * time.Millisecond

	// idleDebounce is how many consecutive idle observations a worker
	// needs before declaring the crawl finished. One observation is not
	// enough: another worker's in-flight fetch may still produce links.
	idleDebounce = 3
)

// TransportSource yields proxy-backed transports for workers. A worker
// keeps its handle across successful fetches and reports it on transport
// failure, after which the next fetch acquires a fresh one.
type TransportSource interface {
	Acquire(ctx context.Context) (*proxy.Handle, error)
	ReportFailure(p proxy.Proxy)
}

// Config holds the pool's tuning knobs.
type Config struct {
	// Workers is the number of concurrent fetch workers.
	Workers int

	// MaxLinks stops the crawl once this many links are recorded.
	// Zero means unlimited.
	MaxLinks int

	// Timeout bounds one page fetch.
	Timeout time.Duration

	// CrawlDelay is the per-host politeness interval.
	CrawlDelay time.Duration

	// MaxBody caps how many response bytes are read per page.
	MaxBody int64

	// RandomHeaders rotates the User-Agent per request.
	RandomHeaders bool

	// UserAgents overrides the built-in rotation table when non-empty.
	UserAgents []string
}

// Pool runs the fetch workers over a shared frontier.
type Pool struct {
	cfg       Config
	frontier  *frontier.Frontier
	scope     *scope.Classifier
	writer    *store.Writer
	collector *metrics.Collector
	limiter   *domainLimiter

	source TransportSource
	base   http.RoundTripper
	logger *slog.Logger

	stopOnce sync.Once
	stop     context.CancelFunc
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithTransportSource routes fetches through acquired proxies. Without
// one the pool fetches directly.
func WithTransportSource(source TransportSource) PoolOption {
	return func(p *Pool) { p.source = source }
}

// WithBaseTransport sets the transport used for direct fetches.
func WithBaseTransport(rt http.RoundTripper) PoolOption {
	return func(p *Pool) { p.base = rt }
}

// WithPoolLogger sets the pool's logger.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = logger }
}

// NewPool creates a worker pool over the given frontier, scope classifier,
// link writer, and metrics collector.
func NewPool(cfg Config, f *frontier.Frontier, c *scope.Classifier, w *store.Writer, m *metrics.Collector, opts ...PoolOption) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = maxBodyBytes
	}

	p := &Pool{
		cfg:       cfg,
		frontier:  f,
		scope:     c,
		writer:    w,
		collector: m,
		limiter:   newDomainLimiter(cfg.CrawlDelay),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Run starts the workers and blocks until the crawl completes or the
// context is canceled. Cancellation is a normal way to end a crawl, not
// an error: in-flight fetches finish or time out, then workers exit.
func (p *Pool) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.stop = cancel

	g, gctx := errgroup.WithContext(runCtx)
	for range p.cfg.Workers {
		g.Go(func() error {
			return p.worker(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// winddown asks all workers to stop once their current URL is done.
func (p *Pool) winddown(reason string) {
	p.stopOnce.Do(func() {
		p.logger.Debug("winding down crawl", "reason", reason)
		if p.stop != nil {
			p.stop()
		}
	})
}

func (p *Pool) worker(ctx context.Context) error {
	var handle *proxy.Handle
	idleRounds := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		u, ok := p.frontier.Dequeue(ctx, idleWait)
		if !ok {
			if ctx.Err() != nil {
				return nil
			}
			if p.frontier.Idle() {
				idleRounds++
				if idleRounds >= idleDebounce {
					p.winddown("frontier drained")
					return nil
				}
			} else {
				idleRounds = 0
			}
			continue
		}

		idleRounds = 0
		p.processURL(ctx, u, &handle)
	}
}

// processURL fetches one page and feeds its links back into the system.
// Fetch failures are logged and counted, never propagated: one bad page
// must not end the crawl.
func (p *Pool) processURL(ctx context.Context, pageURL string, handle **proxy.Handle) {
	p.collector.WorkerStarted()
	defer p.collector.WorkerStopped()
	defer p.frontier.Done()

	if err := p.limiter.Wait(ctx, urlutil.Host(pageURL)); err != nil {
		return
	}

	body, contentType, err := p.fetch(ctx, pageURL, handle)
	if err != nil {
		if ctx.Err() == nil {
			p.collector.AddFetchError()
			p.logger.Debug("fetch failed", "url", pageURL, "error", err)
		}
		return
	}

	p.collector.AddURLProcessed()

	if !isHTML(contentType) {
		return
	}

	links, err := ExtractLinks(pageURL, contentType, bytes.NewReader(body))
	if err != nil {
		p.logger.Debug("parse failed", "url", pageURL, "error", err)
		return
	}

	hash := fmt.Sprintf("%016x", xxhash.Sum64(body))
	for _, link := range links {
		added, err := p.writer.Record(ctx, store.Record{
			URL:         link,
			Source:      pageURL,
			ContentHash: hash,
		})
		if err != nil {
			p.logger.Warn("failed to record link", "url", link, "error", err)
			continue
		}
		if added {
			p.collector.AddLinkFound()
		}

		// The writer enforces the cap atomically; this check only decides
		// when to stop the crawl.
		if p.cfg.MaxLinks > 0 && p.writer.Count() >= p.cfg.MaxLinks {
			p.winddown("link cap reached")
			return
		}

		if p.scope.IsCrawlable(link) {
			result := p.frontier.Enqueue(link)
			p.logger.Debug("classified link",
				"url", link,
				"crawlable", true,
				"enqueue", result.String(),
			)
		}
	}
}

// fetch retrieves one page, rotating proxies on transport errors. An HTTP
// error status is terminal: the server answered, so retrying through a
// different proxy would just repeat the same refusal.
func (p *Pool) fetch(ctx context.Context, pageURL string, handle **proxy.Handle) ([]byte, string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		if attempt > 1 {
			p.collector.AddRetry()
		}

		rt, err := p.transport(ctx, handle)
		if err != nil {
			return nil, "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, "", err
		}
		setRequestHeaders(req, p.cfg.RandomHeaders, p.cfg.UserAgents)

		client := &http.Client{Transport: rt, Timeout: p.cfg.Timeout}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			p.failTransport(handle)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_ = resp.Body.Close() //nolint:errcheck // error body is discarded
			return nil, "", fmt.Errorf("server returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBody))
		_ = resp.Body.Close() //nolint:errcheck // body fully read or limited
		if err != nil {
			lastErr = err
			p.failTransport(handle)
			continue
		}

		return body, resp.Header.Get("Content-Type"), nil
	}

	return nil, "", fmt.Errorf("all %d fetch attempts failed: %w", maxFetchAttempts, lastErr)
}

// transport returns the RoundTripper for the next fetch, acquiring a
// proxy handle first when the pool is proxied and the worker lost its
// previous one.
func (p *Pool) transport(ctx context.Context, handle **proxy.Handle) (http.RoundTripper, error) {
	if p.source == nil {
		if p.base != nil {
			return p.base, nil
		}
		return http.DefaultTransport, nil
	}

	if *handle == nil {
		h, err := p.source.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		*handle = h
		p.collector.AddProxyRotation()
		p.collector.SetCurrentProxy(h.Proxy.Address)
	}
	return (*handle).Transport, nil
}

// failTransport blacklists the worker's current proxy after a transport
// error and drops the handle so the next attempt rotates.
func (p *Pool) failTransport(handle **proxy.Handle) {
	if p.source == nil || *handle == nil {
		return
	}
	p.source.ReportFailure((*handle).Proxy)
	p.collector.AddProxyFailure()
	*handle = nil
}

// isHTML reports whether a Content-Type is worth parsing for links. An
// empty value is treated as HTML since many small servers omit it.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
