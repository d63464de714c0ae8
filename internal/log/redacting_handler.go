package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// MaskValue replaces redacted values in log output.
const MaskValue = "***"

// authKeywords flags attribute keys whose values are masked outright.
// Proxy credentials arrive under different names depending on the code
// path, so matching is by substring on the lowercased key.
var authKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential",
}

// RedactingHandler wraps an slog.Handler and sanitizes records before
// they reach it. String values that parse as URLs have their userinfo
// stripped; attributes with auth-like keys are masked entirely.
//
// A handler wrapper keeps the standard slog API intact, works with any
// underlying handler, and covers log lines emitted by libraries that
// accept a *slog.Logger.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler wraps the given handler. A nil handler falls back
// to slog.Default().Handler().
func NewRedactingHandler(handler slog.Handler) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added,
// sanitized first.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = h.sanitizeAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

func (h *RedactingHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = h.sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isAuthKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		if redacted, changed := RedactURL(a.Value.String()); changed {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}

func isAuthKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range authKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// RedactURL strips userinfo from a URL string. Returns the input
// unchanged when it is not a URL or carries no credentials.
func RedactURL(s string) (string, bool) {
	if !strings.Contains(s, "@") || !strings.Contains(s, "://") {
		return s, false
	}
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s, false
	}
	u.User = url.User(MaskValue)
	return u.String(), true
}

// NewLogger creates a redacting text logger writing to w. Verbose mode
// enables debug output; the default level keeps the terminal quiet for
// the status line.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(textHandler))
}
