// Package cloudflare implements the record gateway for Cloudflare DNS.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"gitlab.bluewillows.net/root/ddns6/pkg/httputil"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
	"gitlab.bluewillows.net/root/ddns6/pkg/secret"
)

const (
	// DefaultAPIEndpoint is the base URL for Cloudflare API v4.
	DefaultAPIEndpoint = "https://api.cloudflare.com/client/v4"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// apiError represents an error from the Cloudflare API.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// apiResponse is the standard Cloudflare API response wrapper.
// messages is decoded loosely since the API returns both strings and objects there.
type apiResponse struct {
	Success  bool            `json:"success"`
	Errors   []apiError      `json:"errors"`
	Messages json.RawMessage `json:"messages"`
	Result   json.RawMessage `json:"result"`
}

func (r *apiResponse) apiMessages() []provider.APIMessage {
	out := make([]provider.APIMessage, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, provider.APIMessage{Code: e.Code, Message: e.Message})
	}
	return out
}

// dnsRecord represents a DNS record from the Cloudflare API.
type dnsRecord struct {
	ID       string `json:"id"`
	ZoneID   string `json:"zone_id"`
	ZoneName string `json:"zone_name"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	TTL      int    `json:"ttl"`
	Proxied  bool   `json:"proxied"`
}

// updateRecordRequest is the request body for replacing a DNS record.
type updateRecordRequest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
	Comment string `json:"comment"`
}

// Client is a Cloudflare DNS API client authenticating with an account email and global API key.
type Client struct {
	apiEndpoint string
	email       secret.String
	key         secret.String
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAPIEndpoint sets a custom API endpoint (useful for testing).
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.apiEndpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// NewClient creates a new Cloudflare API client.
func NewClient(email, key secret.String, opts ...ClientOption) *Client {
	c := &Client{
		apiEndpoint: DefaultAPIEndpoint,
		email:       email,
		key:         key,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = httputil.NewClient(&httputil.ClientConfig{Logger: c.logger})
	}

	return c
}

func recordPath(zoneID, recordID string) string {
	return fmt.Sprintf("/zones/%s/dns_records/%s", url.PathEscape(zoneID), url.PathEscape(recordID))
}

// doRequest performs an HTTP request to the Cloudflare API.
// Every failure is returned as a *provider.RemoteError tagged with op.
func (c *Client) doRequest(ctx context.Context, op, method, path string, body io.Reader) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiEndpoint+path, body)
	if err != nil {
		return nil, &provider.RemoteError{Operation: op, Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("X-Auth-Email", c.email.Expose())
	req.Header.Set("X-Auth-Key", c.key.Expose())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.RemoteError{
			Operation: op,
			Err:       fmt.Errorf("%w: %w", provider.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &provider.RemoteError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: reading response body: %w", provider.ErrProviderUnavailable, err),
		}
	}

	var apiResp apiResponse
	decodeErr := json.Unmarshal(respBody, &apiResp)

	// Handle non-2xx status codes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := &provider.RemoteError{Operation: op, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			rerr.Messages = apiResp.apiMessages()
		}
		return nil, rerr
	}

	if decodeErr != nil {
		return nil, &provider.RemoteError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %w", provider.ErrMalformedResponse, decodeErr),
		}
	}

	if !apiResp.Success {
		return nil, &provider.RemoteError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Messages:   apiResp.apiMessages(),
		}
	}

	return &apiResp, nil
}

// GetRecord reads a single DNS record.
func (c *Client) GetRecord(ctx context.Context, zoneID, recordID string) (*dnsRecord, error) {
	const op = "fetch record"

	resp, err := c.doRequest(ctx, op, http.MethodGet, recordPath(zoneID, recordID), nil)
	if err != nil {
		return nil, err
	}

	var rec dnsRecord
	if len(resp.Result) == 0 || bytes.Equal(resp.Result, []byte("null")) {
		return nil, &provider.RemoteError{Operation: op, Err: fmt.Errorf("%w: empty result", provider.ErrMalformedResponse)}
	}
	if err := json.Unmarshal(resp.Result, &rec); err != nil {
		return nil, &provider.RemoteError{Operation: op, Err: fmt.Errorf("%w: %w", provider.ErrMalformedResponse, err)}
	}
	if rec.ID == "" || rec.Name == "" || rec.Type == "" {
		return nil, &provider.RemoteError{Operation: op, Err: fmt.Errorf("%w: record is missing id, name or type", provider.ErrMalformedResponse)}
	}

	c.logger.Debug("fetched record",
		slog.String("zone_id", zoneID),
		slog.String("record_id", recordID),
		slog.String("name", rec.Name),
		slog.String("content", rec.Content),
	)

	return &rec, nil
}

// PutRecord replaces a DNS record in full.
func (c *Client) PutRecord(ctx context.Context, zoneID, recordID string, body updateRecordRequest) error {
	const op = "update record"

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return &provider.RemoteError{Operation: op, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	if _, err := c.doRequest(ctx, op, http.MethodPut, recordPath(zoneID, recordID), bytes.NewReader(bodyBytes)); err != nil {
		return err
	}

	c.logger.Debug("replaced record",
		slog.String("zone_id", zoneID),
		slog.String("record_id", recordID),
		slog.String("type", body.Type),
		slog.String("name", body.Name),
		slog.String("content", body.Content),
	)

	return nil
}
