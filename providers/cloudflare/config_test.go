package cloudflare

import (
	"strings"
	"testing"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/secret"
)

func validConfig() *Config {
	return &Config{
		ZoneID:    "zone-123",
		RecordID:  "rec-456",
		AuthEmail: secret.New("ops@example.com"),
		AuthKey:   secret.New("0123456789abcdef"),
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.BaseURL != DefaultAPIEndpoint {
		t.Errorf("expected BaseURL %q, got %q", DefaultAPIEndpoint, cfg.BaseURL)
	}
	if cfg.TTL != DefaultTTL {
		t.Errorf("expected TTL %d, got %d", DefaultTTL, cfg.TTL)
	}
	if cfg.Comment != DefaultComment {
		t.Errorf("expected Comment %q, got %q", DefaultComment, cfg.Comment)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected Timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.Proxied {
		t.Error("expected Proxied to default to false")
	}
}

func TestConfig_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.TTL = 120
	cfg.Comment = "home router"
	cfg.Timeout = 5 * time.Second
	cfg.ApplyDefaults()

	if cfg.TTL != 120 || cfg.Comment != "home router" || cfg.Timeout != 5*time.Second {
		t.Errorf("explicit values were overwritten: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "automatic ttl", mutate: func(c *Config) { c.TTL = 1 }},
		{name: "ttl 60", mutate: func(c *Config) { c.TTL = 60 }},
		{name: "missing zone", mutate: func(c *Config) { c.ZoneID = "" }, wantErr: "zone_id is required"},
		{name: "missing record", mutate: func(c *Config) { c.RecordID = "" }, wantErr: "record_id is required"},
		{name: "missing email", mutate: func(c *Config) { c.AuthEmail = secret.String{} }, wantErr: "auth_email is required"},
		{name: "missing key", mutate: func(c *Config) { c.AuthKey = secret.String{} }, wantErr: "auth_key is required"},
		{name: "negative ttl", mutate: func(c *Config) { c.TTL = -1 }, wantErr: "non-negative"},
		{name: "ttl too low", mutate: func(c *Config) { c.TTL = 30 }, wantErr: "at least 60"},
		{name: "relative base url", mutate: func(c *Config) { c.BaseURL = "/client/v4" }, wantErr: "base_url"},
		{name: "bad scheme", mutate: func(c *Config) { c.BaseURL = "ftp://example.com" }, wantErr: "base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected validation error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestConfig_Validate_NeverPrintsCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.ZoneID = ""
	cfg.TTL = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, s := range []string{"ops@example.com", "0123456789abcdef"} {
		if strings.Contains(err.Error(), s) {
			t.Errorf("validation error leaked credential %q: %v", s, err)
		}
	}
}
