package forwarder

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/pori-tunnel/pori/internal/protocol"
)

// HTTPVersionPolicy selects which HTTP protocol version the forwarder uses
// against the local origin.
type HTTPVersionPolicy string

const (
	// HTTPVersionAuto lets the transport negotiate (h2c is not attempted;
	// only TLS ALPN negotiation applies to https origins).
	HTTPVersionAuto  HTTPVersionPolicy = "auto"
	HTTPVersionHTTP1 HTTPVersionPolicy = "http1"
	HTTPVersionHTTP2 HTTPVersionPolicy = "http2"
)

// Config configures a Forwarder.
type Config struct {
	// BaseURL is the local origin, e.g. "http://localhost:3000".
	BaseURL string
	// Timeout bounds a single forwarded request, origin connect through
	// full response body read. Zero means no per-request timeout beyond
	// the caller's context.
	Timeout time.Duration
	// MaxConnections caps idle connections kept open to the local origin.
	MaxConnections int
	VerifySSL      bool
	HTTPVersion    HTTPVersionPolicy
}

// Forwarder replays decoded tunnel HTTP requests against a local origin
// server and packages the response (or a classified Failure) for return
// over the tunnel.
type Forwarder struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// New builds a Forwarder from cfg.
func New(cfg Config) (*Forwarder, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("forwarder: base URL is required")
	}
	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 100
	}

	transport := &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        maxConns,
		MaxIdleConnsPerHost: maxConns,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !cfg.VerifySSL},
	}

	switch cfg.HTTPVersion {
	case HTTPVersionHTTP1:
		transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	case HTTPVersionHTTP2:
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("forwarder: configure http2: %w", err)
		}
	default: // HTTPVersionAuto / unset
		// Negotiate h2 over TLS ALPN. net/http leaves HTTP/2 off for a
		// transport with a custom dialer or TLS config unless forced.
		transport.ForceAttemptHTTP2 = true
	}

	return &Forwarder{
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		client:  &http.Client{Transport: transport},
	}, nil
}

// Forward replays req against the local origin and returns the response it
// got back, or a *Failure classifying what went wrong.
func (f *Forwarder) Forward(ctx context.Context, req *protocol.HTTPRequest) (*protocol.HTTPResponse, *Failure) {
	dest, err := targetURL(f.baseURL, req.URL, req.QueryParams)
	if err != nil {
		return nil, err.(*Failure)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, dest, bodyReader)
	if err != nil {
		return nil, &Failure{Category: CategoryParse, Status: http.StatusBadGateway, Message: "could not build local request", Cause: err}
	}
	httpReq.Header = expandHeaders(req.Headers)
	sanitizeRequestHeaders(httpReq.Header)
	if httpReq.Header.Get("X-Request-Id") == "" {
		httpReq.Header.Set("X-Request-Id", req.RequestID)
	}
	if httpReq.Header.Get("X-Forwarded-By") == "" {
		httpReq.Header.Set("X-Forwarded-By", "pori-tunnel")
	}

	resp, doErr := f.client.Do(httpReq)
	if doErr != nil {
		if failure := classifyOriginError(doErr); failure != nil {
			return nil, failure
		}
		return nil, &Failure{Category: CategoryServer, Status: http.StatusBadGateway, Message: "local request cancelled", Cause: doErr}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		if failure := classifyOriginError(readErr); failure != nil {
			return nil, failure
		}
		return nil, &Failure{Category: CategoryServer, Status: http.StatusBadGateway, Message: "local request cancelled", Cause: readErr}
	}

	sanitizeResponseHeaders(resp.Header)

	return &protocol.HTTPResponse{
		Status:     resp.StatusCode,
		StatusText: reasonPhrase(resp.StatusCode),
		Headers:    flattenHeaders(resp.Header),
		Body:       protocol.Body(body),
		RequestID:  req.RequestID,
	}, nil
}
