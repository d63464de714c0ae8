package status

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ctp-sec/linkextractor/internal/metrics"
)

// DefaultInterval is how often the status line refreshes.
const DefaultInterval = 2 * time.Second

// spinnerFrames animate while the crawl is running.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Display writes a carriage-return status line with the current crawl
// counters. It owns the terminal line while running; nothing else should
// print to the same writer until Run returns.
type Display struct {
	out       io.Writer
	collector *metrics.Collector
	interval  time.Duration
}

// Option configures a Display.
type Option func(*Display)

// WithInterval overrides the refresh cadence.
func WithInterval(d time.Duration) Option {
	return func(s *Display) {
		if d > 0 {
			s.interval = d
		}
	}
}

// New creates a Display over the given collector.
func New(out io.Writer, collector *metrics.Collector, opts ...Option) *Display {
	d := &Display{
		out:       out,
		collector: collector,
		interval:  DefaultInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run refreshes the status line until the context is canceled, then
// clears it so the final summary starts on a clean line.
func (d *Display) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-ticker.C:
			d.render(spinnerFrames[frame%len(spinnerFrames)])
			frame++
		case <-ctx.Done():
			// Clear the line.
			fmt.Fprintf(d.out, "\r%s\r", spaces(120))
			return
		}
	}
}

func (d *Display) render(frame string) {
	s := d.collector.Snapshot()

	line := fmt.Sprintf("%s links: %d | pages: %d | queue: %d | workers: %d | errors: %d",
		frame, s.LinksFound, s.URLsProcessed, s.QueueDepth, s.ActiveWorkers, s.FetchErrors)
	if s.CurrentProxy != "" {
		line += " | proxy: " + s.CurrentProxy
	}
	if len(line) < 120 {
		line += spaces(120 - len(line))
	}
	fmt.Fprintf(d.out, "\r%s", line)
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
