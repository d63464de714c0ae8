// Package report renders the end-of-crawl summary. The text writer prints
// a short terminal summary; the markdown writer produces a shareable
// report file with the session details, counters, and per-domain totals.
package report
