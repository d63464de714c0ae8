package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	xproxy "golang.org/x/net/proxy"
)

// Scheme identifies the proxy protocol.
type Scheme string

const (
	// SchemeHTTP is a plain HTTP CONNECT proxy. It serves both http and
	// https targets.
	SchemeHTTP Scheme = "http"

	// SchemeSOCKS5 is a SOCKS5 proxy.
	SchemeSOCKS5 Scheme = "socks5"
)

// Proxy is one entry in the pool: an address, its protocol, and the
// country tag reported by the provider.
type Proxy struct {
	// Address is the proxy endpoint in "host:port" form.
	Address string

	// Scheme is the proxy protocol. Defaults to SchemeHTTP when empty.
	Scheme Scheme

	// Country is the ISO country code reported by the provider, if any.
	Country string
}

// String returns the proxy in scheme://host:port form for logs and the
// status display.
func (p Proxy) String() string {
	scheme := p.Scheme
	if scheme == "" {
		scheme = SchemeHTTP
	}
	return string(scheme) + "://" + p.Address
}

// ParseProxy parses a provider line into a Proxy. Accepted forms are
// "host:port" (assumed HTTP) and "scheme://host:port" for http or socks5.
func ParseProxy(line string) (Proxy, error) {
	p := Proxy{Scheme: SchemeHTTP}

	s := strings.TrimSpace(line)
	if i := strings.Index(s, "://"); i >= 0 {
		switch s[:i] {
		case "http", "https":
			p.Scheme = SchemeHTTP
		case "socks5":
			p.Scheme = SchemeSOCKS5
		default:
			return Proxy{}, fmt.Errorf("%w: %s", ErrInvalidProxyAddress, line)
		}
		s = s[i+3:]
	}

	if !isValidHostPort(s) {
		return Proxy{}, fmt.Errorf("%w: %s", ErrInvalidProxyAddress, line)
	}
	p.Address = s
	return p, nil
}

// isValidHostPort checks "host:port" with a port in [1, 65535].
func isValidHostPort(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// Transport builds an http.Transport that routes through this proxy.
// HTTP proxies use the standard Proxy hook; SOCKS5 proxies get a dialer
// from golang.org/x/net/proxy.
func (p Proxy) Transport(timeout time.Duration) (*http.Transport, error) {
	switch p.Scheme {
	case SchemeSOCKS5:
		dialer, err := xproxy.SOCKS5("tcp", p.Address, nil, &net.Dialer{Timeout: timeout})
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", p.Address, err)
		}
		tr := &http.Transport{
			DisableKeepAlives: true,
		}
		if cd, ok := dialer.(xproxy.ContextDialer); ok {
			tr.DialContext = cd.DialContext
		} else {
			tr.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		return tr, nil
	case SchemeHTTP, "":
		u := &url.URL{Scheme: "http", Host: p.Address}
		return &http.Transport{
			Proxy:             http.ProxyURL(u),
			DisableKeepAlives: true,
			DialContext: (&net.Dialer{
				Timeout: timeout,
			}).DialContext,
		}, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidProxyAddress, p.Scheme)
	}
}
