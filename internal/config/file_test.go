package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const yamlConfig = `
provider:
  zone_id: zone-123
  record_id: rec-456
  auth_email: ${CF_EMAIL}
  auth_key: ${CF_KEY:-fallback-key}
  ttl: 300
  proxied: false
  comment: home router
  timeout: 10s
interface:
  name: eth0
  source: native
  query_timeout: 3s
probe:
  port: 51820
  method: tcp
  timeout: 500ms
reconciler:
  poll_interval: 20s
  failure_backoff: 1m
  no_candidate_backoff: 2m
propagation:
  nameservers: ["1.1.1.1", "8.8.8.8"]
  timeout: 2s
logging:
  level: debug
  format: text
server:
  port: 9090
`

const tomlConfig = `
[provider]
zone_id = "zone-123"
record_id = "rec-456"
auth_email = "ops@example.com"
auth_key = "toml-key"
ttl = 1
proxied = true

[interface]
name = "wg0"

[probe]
port = 443

[reconciler]
poll_interval = "5s"

[server]
port = 0
`

func TestLoad_YAMLFile(t *testing.T) {
	t.Setenv("CF_EMAIL", "ops@example.com")
	path := writeFile(t, "ddns6.yaml", yamlConfig, 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider.AuthEmail.Expose() != "ops@example.com" {
		t.Errorf("expected interpolated email, got %q", cfg.Provider.AuthEmail.Expose())
	}
	if cfg.Provider.AuthKey.Expose() != "fallback-key" {
		t.Errorf("expected default from ${VAR:-default}, got %q", cfg.Provider.AuthKey.Expose())
	}
	if cfg.Provider.TTL != 300 || cfg.Provider.Comment != "home router" || cfg.Provider.Timeout != 10*time.Second {
		t.Errorf("unexpected provider config: %+v", cfg.Provider)
	}
	if cfg.Interface.Source != SourceNative || cfg.Interface.QueryTimeout != 3*time.Second {
		t.Errorf("unexpected interface config: %+v", cfg.Interface)
	}
	if cfg.Probe.Port != 51820 || cfg.Probe.Method != "tcp" || cfg.Probe.Timeout != 500*time.Millisecond {
		t.Errorf("unexpected probe config: %+v", cfg.Probe)
	}
	if cfg.Reconciler.PollInterval != 20*time.Second ||
		cfg.Reconciler.FailureBackoff != time.Minute ||
		cfg.Reconciler.NoCandidateBackoff != 2*time.Minute {
		t.Errorf("unexpected reconciler config: %+v", cfg.Reconciler)
	}
	if len(cfg.Propagation.Nameservers) != 2 || cfg.Propagation.Timeout != 2*time.Second {
		t.Errorf("unexpected propagation config: %+v", cfg.Propagation)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := writeFile(t, "ddns6.toml", tomlConfig, 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Interface.Name != "wg0" || cfg.Probe.Port != 443 {
		t.Errorf("unexpected config: %+v %+v", cfg.Interface, cfg.Probe)
	}
	if !cfg.Provider.Proxied || cfg.Provider.AuthKey.Expose() != "toml-key" {
		t.Errorf("unexpected provider config: %+v", cfg.Provider)
	}
	if cfg.Reconciler.PollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %v", cfg.Reconciler.PollInterval)
	}
	if cfg.Server.Port != 0 {
		t.Errorf("expected server disabled, got %d", cfg.Server.Port)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CF_EMAIL", "ops@example.com")
	t.Setenv("DDNS6_INTERFACE", "wg1")
	t.Setenv("DDNS6_PORT", "8443")
	path := writeFile(t, "ddns6.yml", yamlConfig, 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Interface.Name != "wg1" || cfg.Probe.Port != 8443 {
		t.Errorf("expected env to win, got %+v %+v", cfg.Interface, cfg.Probe)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{name: "bad yaml", file: "c.yaml", content: "provider: [", want: "parsing YAML"},
		{name: "bad toml", file: "c.toml", content: "[provider", want: "parsing TOML"},
		{name: "unknown extension", file: "c.json", content: "{}", want: "unsupported config file extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content, 0o644))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_FileInvalidValues(t *testing.T) {
	setRequiredEnv(t)
	path := writeFile(t, "c.yaml", `
probe:
  port: 99999
  timeout: fast
reconciler:
  poll_interval: -5s
interface:
  source: netlink
`, 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	errs := validationErrors(t, err)
	for _, want := range []string{"probe.port", "probe.timeout", "reconciler.poll_interval", "interface.source"} {
		if !containsError(errs, want) {
			t.Errorf("expected error mentioning %q, got %v", want, errs)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/ddns6.yaml")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInterpolateEnvVars(t *testing.T) {
	t.Setenv("DDNS6_TEST_SET", "value")
	os.Unsetenv("DDNS6_TEST_UNSET")

	tests := []struct {
		in, want string
	}{
		{"${DDNS6_TEST_SET}", "value"},
		{"${DDNS6_TEST_UNSET}", ""},
		{"${DDNS6_TEST_UNSET:-dflt}", "dflt"},
		{"${DDNS6_TEST_SET:-dflt}", "value"},
		{"prefix-${DDNS6_TEST_SET}-suffix", "prefix-value-suffix"},
		{"no vars", "no vars"},
	}
	for _, tt := range tests {
		if got := InterpolateEnvVars(tt.in); got != tt.want {
			t.Errorf("InterpolateEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "YES": true, "on": true, "1": true, "false": false, "off": false} {
		if got := parseBool(in, !want); got != want {
			t.Errorf("parseBool(%q) = %v, want %v", in, got, want)
		}
	}
	if !parseBool("maybe", true) {
		t.Error("expected default on unknown input")
	}
}
