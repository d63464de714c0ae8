// Package urlutil provides URL normalization and validation for the crawler.
//
// Every URL that enters the frontier, the visited set, or the link store
// passes through Normalize first, so the canonical form defined here is the
// identity used for all deduplication decisions.
package urlutil
