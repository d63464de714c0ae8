package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// TorTransport manages an embedded Tor daemon and exposes it as a single
// fixed transport. It replaces the rotating pool when --tor is used: every
// fetch goes through the daemon's SOCKS port and rotation happens inside
// the Tor network instead of across pool entries.
type TorTransport struct {
	process        *tornago.TorProcess
	socksAddr      string
	startupTimeout time.Duration
	fetchTimeout   time.Duration
}

// TorOption configures a TorTransport.
type TorOption func(*TorTransport)

// WithStartupTimeout bounds the Tor bootstrap. Bootstrapping needs to
// download directory information and build circuits, which takes one to
// three minutes on most connections.
func WithStartupTimeout(d time.Duration) TorOption {
	return func(t *TorTransport) {
		if d > 0 {
			t.startupTimeout = d
		}
	}
}

// WithFetchTimeout sets the dial timeout used by Transport.
func WithFetchTimeout(d time.Duration) TorOption {
	return func(t *TorTransport) {
		if d > 0 {
			t.fetchTimeout = d
		}
	}
}

// NewTorTransport creates an embedded-Tor manager. Call Start before
// requesting a transport.
func NewTorTransport(opts ...TorOption) *TorTransport {
	t := &TorTransport{
		startupTimeout: 3 * time.Minute,
		fetchTimeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the Tor daemon and waits for it to bootstrap. The ":0"
// addresses let the OS pick free ports so multiple runs can coexist.
func (t *TorTransport) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(t.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	select {
	case <-ctx.Done():
		_ = process.Stop() //nolint:errcheck // best effort cleanup
		return ctx.Err()
	default:
	}

	t.process = process
	t.socksAddr = process.SocksAddr()
	return nil
}

// Stop shuts the daemon down. Safe to call repeatedly or before Start.
func (t *TorTransport) Stop() error {
	if t.process == nil {
		return nil
	}
	err := t.process.Stop()
	t.process = nil
	return err
}

// Handle returns a pool-compatible handle routing through the daemon's
// SOCKS port. The crawler treats it like any acquired proxy, except that
// failures are not blacklisted: there is only one Tor endpoint.
func (t *TorTransport) Handle() (*Handle, error) {
	if t.process == nil {
		return nil, ErrTorNotRunning
	}

	p := Proxy{Address: t.socksAddr, Scheme: SchemeSOCKS5}
	tr, err := p.Transport(t.fetchTimeout)
	if err != nil {
		return nil, err
	}
	return &Handle{Proxy: p, Transport: tr}, nil
}

// Acquire returns the fixed Tor handle. It exists so a TorTransport can
// stand in wherever a rotating pool is expected.
func (t *TorTransport) Acquire(_ context.Context) (*Handle, error) {
	return t.Handle()
}

// ReportFailure is a no-op. A failed fetch through Tor says nothing about
// the daemon; the circuit rotates on its own.
func (t *TorTransport) ReportFailure(Proxy) {}

// SocksAddr returns the daemon's SOCKS address, empty before Start.
func (t *TorTransport) SocksAddr() string {
	return t.socksAddr
}
