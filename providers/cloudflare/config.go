package cloudflare

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/secret"
)

const (
	// DefaultTTL asks Cloudflare for an automatic TTL.
	DefaultTTL = 1

	// DefaultComment is attached to every record written.
	DefaultComment = "managed by ddns6"

	// DefaultTimeout bounds each API request.
	DefaultTimeout = 30 * time.Second
)

// Config holds Cloudflare-specific configuration.
type Config struct {
	BaseURL   string        // API base URL (defaults to DefaultAPIEndpoint)
	ZoneID    string        // Zone holding the managed record
	RecordID  string        // Managed record identifier
	AuthEmail secret.String // Account email (X-Auth-Email)
	AuthKey   secret.String // Global API key (X-Auth-Key)
	TTL       int           // Record TTL; 1 means automatic
	Proxied   bool          // Whether to proxy the record through Cloudflare
	Comment   string        // Record comment
	Timeout   time.Duration // Per-request timeout
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultAPIEndpoint
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Comment == "" {
		c.Comment = DefaultComment
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks that all required configuration is present.
// Error text names missing fields only and never includes credential values.
func (c *Config) Validate() error {
	var errs []string

	if c.ZoneID == "" {
		errs = append(errs, "zone_id is required")
	}
	if c.RecordID == "" {
		errs = append(errs, "record_id is required")
	}
	if c.AuthEmail.IsEmpty() {
		errs = append(errs, "auth_email is required")
	}
	if c.AuthKey.IsEmpty() {
		errs = append(errs, "auth_key is required")
	}
	if c.TTL < 0 {
		errs = append(errs, "ttl must be non-negative")
	}
	// Cloudflare minimum TTL is 60 seconds (1 = automatic)
	if c.TTL > 1 && c.TTL < 60 {
		errs = append(errs, "ttl must be at least 60 seconds (or 1 for automatic)")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("base_url %q must be an absolute http(s) URL", c.BaseURL))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cloudflare config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
