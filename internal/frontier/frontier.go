package frontier

import (
	"context"
	"sync"
	"time"

	"github.com/ctp-sec/linkextractor/internal/urlutil"
)

// Default sizing values. Both can be overridden via New.
const (
	// DefaultCapacity bounds the queue. When full, new URLs are dropped
	// rather than blocking the discovering worker.
	DefaultCapacity = 10000

	// DefaultMaxPerDomain caps how many URLs from a single domain are ever
	// admitted. This stops calendar pages and faceted search from trapping
	// the crawl on one site.
	DefaultMaxPerDomain = 1000
)

// Result describes the outcome of an Enqueue call.
type Result int

const (
	// Admitted means the URL was new, in budget, and queued for fetching.
	Admitted Result = iota

	// SkippedDuplicate means the URL was already admitted earlier this run.
	SkippedDuplicate

	// SkippedDomainCap means the URL's domain reached its admission cap.
	SkippedDomainCap

	// DroppedFull means the queue was at capacity and the URL was lost.
	// Dropped URLs are not marked visited, so they can still be admitted
	// if rediscovered after the queue drains.
	DroppedFull
)

// String returns the result name for verbose logging.
func (r Result) String() string {
	switch r {
	case Admitted:
		return "admitted"
	case SkippedDuplicate:
		return "duplicate"
	case SkippedDomainCap:
		return "domain-cap"
	case DroppedFull:
		return "dropped-full"
	default:
		return "unknown"
	}
}

// Frontier is the shared crawl queue with exact-membership deduplication.
//
// The queue itself is a buffered channel so workers can block on Dequeue
// without polling. All admission bookkeeping (visited set, domain counters,
// capacity check) happens under one mutex; because the capacity check and
// the channel send occur under that mutex, and receivers only ever shrink
// the channel, the send can never block.
type Frontier struct {
	queue chan string

	mu           sync.Mutex
	visited      map[string]struct{}
	domainCounts map[string]int
	maxPerDomain int

	// pending counts URLs admitted but not yet marked Done. It covers both
	// queued and dequeued URLs, so Idle never reports true while a worker
	// holds a URL it has not finished.
	pending int
}

// New creates a Frontier. Non-positive arguments fall back to the package
// defaults.
func New(capacity, maxPerDomain int) *Frontier {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxPerDomain <= 0 {
		maxPerDomain = DefaultMaxPerDomain
	}
	return &Frontier{
		queue:        make(chan string, capacity),
		visited:      make(map[string]struct{}),
		domainCounts: make(map[string]int),
		maxPerDomain: maxPerDomain,
	}
}

// Enqueue normalizes the URL and admits it to the frontier if it is new,
// its domain is under the admission cap, and the queue has room. The checks
// and the insertion are atomic with respect to other callers.
func (f *Frontier) Enqueue(rawURL string) Result {
	u := urlutil.Normalize(rawURL)
	host := urlutil.Host(u)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[u]; ok {
		return SkippedDuplicate
	}
	if f.domainCounts[host] >= f.maxPerDomain {
		return SkippedDomainCap
	}
	if len(f.queue) == cap(f.queue) {
		return DroppedFull
	}

	f.visited[u] = struct{}{}
	f.domainCounts[host]++
	f.pending++
	f.queue <- u
	return Admitted
}

// Dequeue pops the next URL, waiting up to wait for one to arrive. It
// returns false if the wait elapses or the context is canceled. A dequeued
// URL stays pending until the worker calls Done.
func (f *Frontier) Dequeue(ctx context.Context, wait time.Duration) (string, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case u := <-f.queue:
		return u, true
	case <-timer.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// Done marks one previously dequeued URL as finished. Every successful
// Dequeue must be paired with exactly one Done, or Idle will never report
// true.
func (f *Frontier) Done() {
	f.mu.Lock()
	f.pending--
	f.mu.Unlock()
}

// Idle reports whether every admitted URL has been marked Done. A URL is
// pending from the moment Enqueue admits it, so there is no instant between
// a Dequeue returning and its bookkeeping where Idle could report true.
// Callers should still observe Idle across a debounce window before
// treating the crawl as complete: a worker that just went idle may be about
// to enqueue links discovered by another worker's in-flight fetch.
func (f *Frontier) Idle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending == 0
}

// Len returns the current queue depth.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// VisitedCount returns how many unique URLs have been admitted this run.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// DomainCount returns how many URLs have been admitted for a host.
func (f *Frontier) DomainCount(host string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.domainCounts[host]
}

// Pending returns the number of admitted URLs not yet marked Done.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}
