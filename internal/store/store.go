package store

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultBackupInterval is how often Run writes the backup copy.
const DefaultBackupInterval = 5 * time.Minute

// Record is one collected link with its provenance.
type Record struct {
	// URL is the normalized link.
	URL string

	// Source is the page the link was found on.
	Source string

	// ContentHash is the hash of the source page body, shared by all
	// links found on the same fetch.
	ContentHash string
}

// Writer is the durable link sink shared by all workers.
//
// Every new link is appended to the output file and flushed immediately,
// so the file is useful even if the process dies mid-crawl. The in-memory
// recorded set makes Record idempotent across workers that find the same
// link on different pages.
type Writer struct {
	mu       sync.Mutex
	file     *os.File
	buf      *bufio.Writer
	path     string
	recorded map[string]struct{}
	order    []string
	maxLinks int

	db     *DB
	logger *slog.Logger

	backupInterval time.Duration
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithDB attaches a session database. Every recorded link is also
// inserted there.
func WithDB(db *DB) WriterOption {
	return func(w *Writer) { w.db = db }
}

// WithBackupInterval overrides the backup cadence used by Run.
func WithBackupInterval(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.backupInterval = d
		}
	}
}

// WithWriterLogger sets the writer's logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

// WithMaxLinks caps how many links the writer accepts. Record rejects
// everything past the cap, so the cap holds even when several workers race
// on the last slot. Zero means unlimited.
func WithMaxLinks(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.maxLinks = n
		}
	}
}

// NewWriter opens path for writing, truncating any previous content. Each
// run starts from an empty output file; the backup from the previous run
// survives until the first backup of the new run overwrites it.
func NewWriter(path string, opts ...WriterOption) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	w := &Writer{
		file:           f,
		buf:            bufio.NewWriter(f),
		path:           path,
		recorded:       make(map[string]struct{}),
		backupInterval: DefaultBackupInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w, nil
}

// Record persists one link. Returns true when the link was new, false when
// it had already been recorded this run or the link cap is reached. Exactly
// one worker wins when several record the same link concurrently.
func (w *Writer) Record(ctx context.Context, rec Record) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.recorded[rec.URL]; ok {
		return false, nil
	}
	if w.maxLinks > 0 && len(w.recorded) >= w.maxLinks {
		return false, nil
	}
	w.recorded[rec.URL] = struct{}{}
	w.order = append(w.order, rec.URL)

	if _, err := w.buf.WriteString(rec.URL + "\n"); err != nil {
		return false, fmt.Errorf("failed to write link: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return false, fmt.Errorf("failed to flush link: %w", err)
	}

	if w.db != nil {
		if err := w.db.InsertLink(ctx, rec); err != nil {
			// The file write already succeeded; a database hiccup must
			// not fail the crawl.
			w.logger.Warn("failed to insert link into session database",
				"url", rec.URL,
				"error", err,
			)
		}
	}
	return true, nil
}

// Count returns how many distinct links have been recorded this run.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.recorded)
}

// Backup writes a point-in-time copy of every recorded link to
// path + ".bak". The copy is rebuilt from the in-memory set, never from the
// output file, so a truncated or corrupted incremental write cannot poison
// it. It is written to a temp file and renamed into place so a crash during
// backup never corrupts the previous backup either.
func (w *Writer) Backup() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var b strings.Builder
	for _, u := range w.order {
		b.WriteString(u)
		b.WriteByte('\n')
	}

	tmp := w.path + ".bak.tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmp, w.path+".bak"); err != nil {
		return fmt.Errorf("failed to finalize backup: %w", err)
	}
	return nil
}

// Run performs periodic backups until the context is canceled, then takes
// one final backup so the backup is never staler than the last tick.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.backupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Backup(); err != nil {
				w.logger.Warn("periodic backup failed", "error", err)
			}
		case <-ctx.Done():
			if err := w.Backup(); err != nil {
				w.logger.Warn("final backup failed", "error", err)
			}
			return
		}
	}
}

// Close flushes buffered output and closes the file. The attached database,
// if any, is closed by its owner.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close() //nolint:errcheck // flush error takes precedence
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	return w.file.Close()
}
