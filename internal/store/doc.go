// Package store persists collected links. A Writer appends each new link
// to the output file as it arrives and keeps a periodic backup copy, so an
// interrupted crawl loses at most the buffered tail. An optional SQLite
// database keeps per-session link records for later querying and reports.
package store
