package config

import "errors"

// Configuration validation errors. These are the only errors that terminate
// the process; everything after startup is handled locally per URL.
var (
	// ErrNoSeed is returned when no seed domain is given.
	ErrNoSeed = errors.New("no seed domain specified")

	// ErrInvalidSeed is returned when the seed cannot be reduced to a
	// non-empty host name.
	ErrInvalidSeed = errors.New("invalid seed domain")

	// ErrInvalidWorkerCount is returned when the worker count is not positive.
	ErrInvalidWorkerCount = errors.New("invalid worker count: must be at least 1")

	// ErrNoOutputPath is returned when the output file path is empty.
	ErrNoOutputPath = errors.New("no output file path specified")

	// ErrInvalidMaxLinks is returned when the max-links cap is negative.
	// Zero means unlimited.
	ErrInvalidMaxLinks = errors.New("invalid max links: must be non-negative")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	ErrInvalidDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrConflictingTransports is returned when both the rotating proxy
	// pool and the embedded Tor transport are requested. A fetch goes
	// through exactly one of them.
	ErrConflictingTransports = errors.New("conflicting transports: --use-proxy and --tor cannot be used together")

	// ErrIgnoreListUnreadable is returned when an ignore-list path was
	// given but the file cannot be read.
	ErrIgnoreListUnreadable = errors.New("ignore list file is unreadable")
)
