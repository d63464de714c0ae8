// Package metrics aggregates crawl counters shared by all workers.
//
// Counters are plain atomics so workers never serialize on a lock for
// bookkeeping. Snapshots are recomputed on demand and consumed only by the
// status display and the final summary; nothing in the crawl path reads
// them.
package metrics
