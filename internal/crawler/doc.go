// Package crawler runs the fetch workers. Each worker repeatedly takes a
// URL from the frontier, fetches it through its current transport, parses
// the page for links, records every link, and enqueues the crawlable ones.
// The pool winds down cooperatively when the frontier stays idle, when the
// link cap is reached, or when the run context is canceled.
package crawler
