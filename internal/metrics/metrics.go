package metrics

import (
	"sync"
	"sync/atomic"
)

// Collector accumulates crawl statistics. The zero value is not usable;
// create one with New.
type Collector struct {
	linksFound     atomic.Int64
	urlsProcessed  atomic.Int64
	fetchErrors    atomic.Int64
	retries        atomic.Int64
	proxyFailures  atomic.Int64
	proxyRotations atomic.Int64
	activeWorkers  atomic.Int64

	mu           sync.Mutex
	currentProxy string

	// queueLen reports the frontier depth. Set once at wiring time before
	// any worker starts; nil means depth is reported as zero.
	queueLen func() int
}

// New creates a Collector. queueLen may be nil.
func New(queueLen func() int) *Collector {
	return &Collector{queueLen: queueLen}
}

// AddLinkFound increments the unique-links counter.
func (c *Collector) AddLinkFound() { c.linksFound.Add(1) }

// AddURLProcessed increments the processed-pages counter.
func (c *Collector) AddURLProcessed() { c.urlsProcessed.Add(1) }

// AddFetchError increments the fetch-error counter.
func (c *Collector) AddFetchError() { c.fetchErrors.Add(1) }

// AddRetry increments the retry counter.
func (c *Collector) AddRetry() { c.retries.Add(1) }

// AddProxyFailure increments the blacklisted-proxy counter.
func (c *Collector) AddProxyFailure() { c.proxyFailures.Add(1) }

// AddProxyRotation increments the proxy-rotation counter.
func (c *Collector) AddProxyRotation() { c.proxyRotations.Add(1) }

// WorkerStarted marks one worker as actively processing a URL.
func (c *Collector) WorkerStarted() { c.activeWorkers.Add(1) }

// WorkerStopped marks one worker as idle again.
func (c *Collector) WorkerStopped() { c.activeWorkers.Add(-1) }

// SetCurrentProxy records the most recently acquired proxy address for
// display purposes.
func (c *Collector) SetCurrentProxy(addr string) {
	c.mu.Lock()
	c.currentProxy = addr
	c.mu.Unlock()
}

// LinksFound returns the number of unique links recorded so far.
func (c *Collector) LinksFound() int64 { return c.linksFound.Load() }

// Snapshot is a point-in-time view of the crawl, consumed by the status
// display and the final report.
type Snapshot struct {
	LinksFound     int64
	URLsProcessed  int64
	FetchErrors    int64
	Retries        int64
	ProxyFailures  int64
	ProxyRotations int64
	ActiveWorkers  int64
	QueueDepth     int
	CurrentProxy   string
}

// Snapshot recomputes the current view. It is safe to call from any
// goroutine at any time.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		LinksFound:     c.linksFound.Load(),
		URLsProcessed:  c.urlsProcessed.Load(),
		FetchErrors:    c.fetchErrors.Load(),
		Retries:        c.retries.Load(),
		ProxyFailures:  c.proxyFailures.Load(),
		ProxyRotations: c.proxyRotations.Load(),
		ActiveWorkers:  c.activeWorkers.Load(),
	}
	if c.queueLen != nil {
		s.QueueDepth = c.queueLen()
	}
	c.mu.Lock()
	s.CurrentProxy = c.currentProxy
	c.mu.Unlock()
	return s
}
