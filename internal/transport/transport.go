// Package transport provides the HTTP round trippers used for upstream calls.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// =============================================================================
// UPSTREAM TRANSPORT
// =============================================================================
//
// The NBA and the media library sit behind a CDN that throttles clients with
// Go's default TLS fingerprint. With fingerprinting enabled the handshake is
// done by uTLS using Chrome's ClientHello:
//
//   1. uTLS with HelloChrome_Auto for the handshake
//   2. ALPN negotiates h2 or http/1.1
//   3. http2.Transport frames h2 connections; http.Transport handles the rest
//
// Without fingerprinting a tuned clone of http.DefaultTransport is used.
// =============================================================================

// New returns the round tripper for upstream requests. Dial and TLS
// handshake are bounded by timeout.
func New(timeout time.Duration, fingerprint bool) http.RoundTripper {
	if fingerprint {
		return newChromeTransport(timeout)
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = timeout
	t.MaxIdleConnsPerHost = 16
	return t
}

// NewLoader wraps New in an http.Client that follows redirects, for fetching
// the content behind a target location.
func NewLoader(timeout time.Duration, fingerprint bool) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: New(timeout, fingerprint),
	}
}

// NewClient wraps New in an http.Client that never follows redirects, so
// callers see upstream 3xx responses as they are.
func NewClient(timeout time.Duration, fingerprint bool) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: New(timeout, fingerprint),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func newChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2 := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
	}

	h1 := &http.Transport{
		DialContext: dialer.DialContext,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialChromeTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2: false,
	}

	return &chromeTransport{h2: h2, h1: h1}
}

// chromeTransport tries HTTP/2 first and falls back to HTTP/1.1.
type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper. Plain http URLs go straight to the
// HTTP/1.1 transport.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	// Server did not negotiate h2.
	return t.h1.RoundTrip(req)
}

// dialChromeTLS establishes a TLS connection with Chrome's fingerprint.
func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}

	return tlsConn, nil
}
