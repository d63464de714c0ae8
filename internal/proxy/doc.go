// Package proxy manages the rotating pool of outbound proxies.
//
// Candidates come from an external provider, are probed for liveness
// before first use, and are blacklisted for the rest of the run on any
// failure. Acquisition never fails permanently: when the pool runs dry the
// manager backs off and re-queries the provider until shutdown is
// signaled.
//
// The package also provides the embedded-Tor transport used by --tor,
// which replaces the rotating pool with a single Tor SOCKS circuit.
package proxy
