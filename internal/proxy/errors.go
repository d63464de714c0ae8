package proxy

import "errors"

var (
	// ErrInvalidProxyAddress is returned when a proxy address is not in
	// "host:port" form or carries an unsupported scheme.
	ErrInvalidProxyAddress = errors.New("invalid proxy address")

	// ErrNoCandidates is returned by a provider query that yields no
	// usable proxies for the requested filter.
	ErrNoCandidates = errors.New("provider returned no proxy candidates")

	// ErrProbeFailed is returned when a proxy answers the liveness probe
	// with a non-success status.
	ErrProbeFailed = errors.New("proxy liveness probe failed")

	// ErrTorNotRunning is returned when the embedded Tor transport is used
	// before Start has succeeded.
	ErrTorNotRunning = errors.New("embedded Tor daemon is not running")
)
