package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// domainLimiter spaces out requests per host. One limiter per host,
// created lazily; the shared interval comes from the crawl-delay setting.
type domainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

func newDomainLimiter(interval time.Duration) *domainLimiter {
	return &domainLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until the host's next request slot, or until the context is
// canceled. A zero interval never blocks.
func (l *domainLimiter) Wait(ctx context.Context, host string) error {
	if l.interval <= 0 {
		return nil
	}

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
