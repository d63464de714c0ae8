// Package frontier implements the crawl frontier: a bounded FIFO queue of
// URLs awaiting fetch, the visited set used for deduplication, and
// per-domain admission counters.
//
// The frontier owns all three structures exclusively. Admission is atomic
// with respect to concurrent callers, so a URL is admitted at most once per
// run no matter how many workers discover it simultaneously.
package frontier
