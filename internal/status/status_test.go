package status

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ctp-sec/linkextractor/internal/metrics"
)

// syncBuffer guards a bytes.Buffer for cross-goroutine use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestDisplayRun verifies the status line shows the counters and clears
// on shutdown.
func TestDisplayRun(t *testing.T) {
	t.Parallel()

	m := metrics.New(func() int { return 7 })
	m.AddLinkFound()
	m.AddLinkFound()
	m.AddURLProcessed()
	m.SetCurrentProxy("10.0.0.1:8080")

	var out syncBuffer
	d := New(&out, m, WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("display did not stop after cancellation")
	}

	got := out.String()
	for _, want := range []string{"links: 2", "pages: 1", "queue: 7", "proxy: 10.0.0.1:8080"} {
		if !strings.Contains(got, want) {
			t.Errorf("status line missing %q:\n%q", want, got)
		}
	}
	if !strings.HasSuffix(got, "\r") {
		t.Error("display should clear the line on shutdown")
	}
}
