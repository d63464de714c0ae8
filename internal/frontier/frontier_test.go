package frontier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestEnqueueResults tests the admission outcomes.
func TestEnqueueResults(t *testing.T) {
	t.Parallel()

	t.Run("admits new URL", func(t *testing.T) {
		t.Parallel()

		f := New(10, 10)
		if got := f.Enqueue("http://example.com/a"); got != Admitted {
			t.Errorf("expected Admitted, got %v", got)
		}
		if f.Len() != 1 {
			t.Errorf("expected queue length 1, got %d", f.Len())
		}
	})

	t.Run("skips duplicate", func(t *testing.T) {
		t.Parallel()

		f := New(10, 10)
		f.Enqueue("http://example.com/a")
		if got := f.Enqueue("http://example.com/a"); got != SkippedDuplicate {
			t.Errorf("expected SkippedDuplicate, got %v", got)
		}
	})

	t.Run("deduplicates on normalized form", func(t *testing.T) {
		t.Parallel()

		f := New(10, 10)
		f.Enqueue("http://example.com/a")
		if got := f.Enqueue("HTTP://EXAMPLE.COM:80/a/#top"); got != SkippedDuplicate {
			t.Errorf("expected SkippedDuplicate for normalized-equal URL, got %v", got)
		}
	})

	t.Run("enforces domain cap", func(t *testing.T) {
		t.Parallel()

		f := New(100, 3)
		for i := 0; i < 3; i++ {
			f.Enqueue(fmt.Sprintf("http://example.com/p%d", i))
		}
		if got := f.Enqueue("http://example.com/one-more"); got != SkippedDomainCap {
			t.Errorf("expected SkippedDomainCap, got %v", got)
		}
		// Other domains are unaffected.
		if got := f.Enqueue("http://other.com/a"); got != Admitted {
			t.Errorf("expected Admitted for other domain, got %v", got)
		}
	})

	t.Run("drops when full without blocking", func(t *testing.T) {
		t.Parallel()

		f := New(2, 100)
		f.Enqueue("http://example.com/a")
		f.Enqueue("http://example.com/b")

		done := make(chan Result, 1)
		go func() { done <- f.Enqueue("http://example.com/c") }()

		select {
		case got := <-done:
			if got != DroppedFull {
				t.Errorf("expected DroppedFull, got %v", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Enqueue blocked on a full queue")
		}

		// A dropped URL was never marked visited, so it can be admitted
		// once the queue has room again.
		ctx := context.Background()
		if _, ok := f.Dequeue(ctx, time.Second); !ok {
			t.Fatal("expected dequeue to succeed")
		}
		f.Done()
		if got := f.Enqueue("http://example.com/c"); got != Admitted {
			t.Errorf("expected dropped URL to be admittable later, got %v", got)
		}
	})
}

// TestDequeue tests the bounded blocking pop.
func TestDequeue(t *testing.T) {
	t.Parallel()

	t.Run("returns queued URL in FIFO order", func(t *testing.T) {
		t.Parallel()

		f := New(10, 10)
		f.Enqueue("http://example.com/first")
		f.Enqueue("http://example.com/second")

		u, ok := f.Dequeue(context.Background(), time.Second)
		if !ok || u != "http://example.com/first" {
			t.Errorf("expected first URL, got %q ok=%v", u, ok)
		}
	})

	t.Run("times out on empty queue", func(t *testing.T) {
		t.Parallel()

		f := New(10, 10)
		start := time.Now()
		_, ok := f.Dequeue(context.Background(), 50*time.Millisecond)
		if ok {
			t.Error("expected timeout on empty queue")
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("dequeue waited too long: %v", elapsed)
		}
	})

	t.Run("wakes on context cancellation", func(t *testing.T) {
		t.Parallel()

		f := New(10, 10)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan bool, 1)
		go func() {
			_, ok := f.Dequeue(ctx, time.Minute)
			done <- ok
		}()

		cancel()
		select {
		case ok := <-done:
			if ok {
				t.Error("expected dequeue to fail after cancellation")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("dequeue did not wake on cancellation")
		}
	})
}

// TestIdle tests completion detection via queue depth and in-flight count.
func TestIdle(t *testing.T) {
	t.Parallel()

	f := New(10, 10)
	if !f.Idle() {
		t.Error("new frontier should be idle")
	}

	f.Enqueue("http://example.com/a")
	if f.Idle() {
		t.Error("frontier with queued URL should not be idle")
	}

	if _, ok := f.Dequeue(context.Background(), time.Second); !ok {
		t.Fatal("expected dequeue to succeed")
	}
	if f.Idle() {
		t.Error("frontier with in-flight URL should not be idle")
	}

	f.Done()
	if !f.Idle() {
		t.Error("frontier should be idle after Done")
	}
}

// TestIdleNeverTrueWhileURLHeld verifies there is no instant where a URL
// has been handed to a worker but Idle already reports true. Each cycle
// enqueues the next URL before calling Done, so the frontier must stay
// busy for the whole loop no matter when the observer samples it.
func TestIdleNeverTrueWhileURLHeld(t *testing.T) {
	t.Parallel()

	f := New(10, 1000)
	f.Enqueue("http://example.com/p0")

	var sawIdle atomic.Bool
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				if f.Idle() {
					sawIdle.Store(true)
				}
			}
		}
	}()

	ctx := context.Background()
	for i := 1; i <= 200; i++ {
		if _, ok := f.Dequeue(ctx, time.Second); !ok {
			t.Fatal("expected dequeue to succeed")
		}
		f.Enqueue(fmt.Sprintf("http://example.com/p%d", i))
		f.Done()
	}

	close(stop)
	wg.Wait()

	if sawIdle.Load() {
		t.Error("Idle reported true while a URL was admitted or held")
	}
	if f.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", f.Pending())
	}
}

// TestConcurrentAdmission stresses the admission gate: many goroutines
// racing on the same URLs must produce exactly one admission per URL and
// never exceed the domain cap.
func TestConcurrentAdmission(t *testing.T) {
	t.Parallel()

	const (
		workers      = 50
		urlsPerBatch = 100
		domainCap    = 40
	)

	f := New(10000, domainCap)

	var wg sync.WaitGroup
	admitted := make([]int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < urlsPerBatch; i++ {
				// All workers race on the same URL set.
				if f.Enqueue(fmt.Sprintf("http://stress.test/p%d", i)) == Admitted {
					admitted[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, n := range admitted {
		total += n
	}
	if total != domainCap {
		t.Errorf("expected exactly %d admissions, got %d", domainCap, total)
	}
	if got := f.DomainCount("stress.test"); got != domainCap {
		t.Errorf("domain count = %d, want %d", got, domainCap)
	}
	if f.Len() != domainCap {
		t.Errorf("queue length = %d, want %d", f.Len(), domainCap)
	}
}

// TestQueueNeverExceedsCapacity verifies the Qmax bound under concurrent
// enqueues from distinct domains.
func TestQueueNeverExceedsCapacity(t *testing.T) {
	t.Parallel()

	const capacity = 64

	f := New(capacity, 1000)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f.Enqueue(fmt.Sprintf("http://d%d-%d.test/p", w, i))
			}
		}(w)
	}
	wg.Wait()

	if f.Len() > capacity {
		t.Errorf("queue length %d exceeds capacity %d", f.Len(), capacity)
	}
}
