// Package log provides slog helpers for the crawler. The redacting
// handler strips credentials from logged URLs and masks auth-bearing
// attributes so proxy passwords never end up in terminal scrollback or
// log files.
package log
