// Package httputil provides the HTTP client used to talk to DNS provider APIs.
package httputil

import (
	"log/slog"
	"net/http"
	"time"
)

// Default HTTP client configuration values.
const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is used when no custom user agent is specified.
	DefaultUserAgent = "ddns6/1.0"
)

// ObserveFunc receives the outcome of every round trip.
// status is 0 when the request failed before a response was received.
type ObserveFunc func(method string, status int, elapsed time.Duration)

// ClientConfig contains configuration for creating an HTTP client.
type ClientConfig struct {
	// Timeout bounds every request including reading the body. Defaults to 30 seconds.
	Timeout time.Duration

	// UserAgent is the User-Agent header to set on requests.
	// Defaults to "ddns6/1.0" if not specified.
	UserAgent string

	// Logger enables debug logging for HTTP requests.
	// Only the method, path and status are logged; headers never are.
	Logger *slog.Logger

	// Observe is called after each round trip, e.g. to feed a latency histogram.
	Observe ObserveFunc

	// Base overrides the underlying transport. Defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// instrumentedTransport wraps an http.RoundTripper to add the User-Agent header,
// log requests at debug level and report timings.
type instrumentedTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
	observe   ObserveFunc
}

// RoundTrip implements http.RoundTripper.
func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	if t.logger != nil {
		t.logger.Debug("HTTP request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
		)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	if t.logger != nil {
		attrs := []any{
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", status),
			slog.Duration("elapsed", elapsed),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		t.logger.Debug("HTTP response", attrs...)
	}

	if t.observe != nil {
		t.observe(req.Method, status, elapsed)
	}

	return resp, err
}

// NewClient creates an HTTP client with the specified configuration.
// If cfg is nil, defaults are used.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &instrumentedTransport{
			base:      base,
			userAgent: userAgent,
			logger:    cfg.Logger,
			observe:   cfg.Observe,
		},
	}
}
