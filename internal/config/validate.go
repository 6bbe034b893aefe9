package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// validate checks required fields and value ranges. Messages name the field,
// never a credential value.
func validate(cfg *Config) []string {
	var errs []string

	p := cfg.Provider
	if p.ZoneID == "" {
		errs = append(errs, "provider.zone_id (DDNS6_ZONE_ID) is required")
	}
	if p.RecordID == "" {
		errs = append(errs, "provider.record_id (DDNS6_RECORD_ID) is required")
	}
	if p.AuthEmail.IsEmpty() {
		errs = append(errs, "provider.auth_email (DDNS6_AUTH_EMAIL) is required")
	}
	if p.AuthKey.IsEmpty() && p.AuthKeyFile == "" {
		errs = append(errs, "provider.auth_key or provider.auth_key_file (DDNS6_AUTH_KEY) is required")
	}
	if u, err := url.Parse(p.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("provider.base_url: %q must be an absolute http(s) URL", p.BaseURL))
	}
	if p.TTL < 0 || (p.TTL > 1 && p.TTL < 60) {
		errs = append(errs, "provider.ttl: must be 1 (automatic) or at least 60")
	}

	if cfg.Interface.Name == "" {
		errs = append(errs, "interface.name (DDNS6_INTERFACE) is required")
	}
	switch cfg.Interface.Source {
	case SourceIPRoute, SourceNative:
	default:
		errs = append(errs, fmt.Sprintf("interface.source: invalid value %q (must be ip or native)", cfg.Interface.Source))
	}

	if cfg.Probe.Port == 0 {
		errs = append(errs, "probe.port (DDNS6_PORT) is required")
	}
	switch cfg.Probe.Method {
	case "udp", "tcp":
	default:
		errs = append(errs, fmt.Sprintf("probe.method: invalid value %q (must be udp or tcp)", cfg.Probe.Method))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level: invalid value %q (must be debug, info, warn, or error)", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("logging.format: invalid value %q (must be json or text)", cfg.Logging.Format))
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: %d is out of range 0-65535", cfg.Server.Port))
	}

	return errs
}
