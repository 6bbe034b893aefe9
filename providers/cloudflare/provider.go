package cloudflare

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"gitlab.bluewillows.net/root/ddns6/pkg/httputil"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

// Provider implements provider.Gateway and provider.Pinger for a single Cloudflare zone.
type Provider struct {
	zoneID   string
	recordID string
	ttl      int
	proxied  bool
	comment  string
	client   *Client
	logger   *slog.Logger
	observe  httputil.ObserveFunc
	httpc    *http.Client
}

var (
	_ provider.Gateway = (*Provider)(nil)
	_ provider.Pinger  = (*Provider)(nil)
)

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRequestObserver reports every API round trip to fn.
func WithRequestObserver(fn httputil.ObserveFunc) ProviderOption {
	return func(p *Provider) {
		p.observe = fn
	}
}

// WithProviderHTTPClient replaces the HTTP client built from the configuration.
func WithProviderHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpc = c
	}
}

// New creates a new Cloudflare provider instance.
func New(config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := *config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		zoneID:   cfg.ZoneID,
		recordID: cfg.RecordID,
		ttl:      cfg.TTL,
		proxied:  cfg.Proxied,
		comment:  cfg.Comment,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.httpc == nil {
		p.httpc = httputil.NewClient(&httputil.ClientConfig{
			Timeout: cfg.Timeout,
			Logger:  p.logger,
			Observe: p.observe,
		})
	}

	p.client = NewClient(cfg.AuthEmail, cfg.AuthKey,
		WithAPIEndpoint(cfg.BaseURL),
		WithHTTPClient(p.httpc),
		WithLogger(p.logger),
	)

	return p, nil
}

// FetchRecord reads the managed record.
func (p *Provider) FetchRecord(ctx context.Context, recordID string) (*provider.ManagedRecord, error) {
	rec, err := p.client.GetRecord(ctx, p.zoneID, recordID)
	if err != nil {
		return nil, err
	}

	zoneID := rec.ZoneID
	if zoneID == "" {
		zoneID = p.zoneID
	}

	return &provider.ManagedRecord{
		ID:       rec.ID,
		ZoneID:   zoneID,
		ZoneName: rec.ZoneName,
		Name:     rec.Name,
		Type:     provider.RecordType(rec.Type),
		Content:  rec.Content,
	}, nil
}

// UpdateRecord replaces the managed record with the given content,
// using the configured TTL, proxy flag and comment.
func (p *Provider) UpdateRecord(ctx context.Context, recordID string, recordType provider.RecordType, name, content string) error {
	return p.client.PutRecord(ctx, p.zoneID, recordID, updateRecordRequest{
		Type:    string(recordType),
		Name:    name,
		Content: content,
		TTL:     p.ttl,
		Proxied: p.proxied,
		Comment: p.comment,
	})
}

// Ping verifies connectivity and credentials by re-reading the managed record.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.client.GetRecord(ctx, p.zoneID, p.recordID); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// RecordID returns the configured managed record identifier.
func (p *Provider) RecordID() string {
	return p.recordID
}
