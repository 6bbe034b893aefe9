package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/secret"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "DDNS6_CONFIG"

// ConfigPathFromEnv returns the config file path from the environment, or "".
func ConfigPathFromEnv() string {
	return getEnv(EnvConfigPath)
}

// Load builds the configuration: defaults, then the file at path (if any),
// then DDNS6_* environment variables. Every problem found is reported in a
// single *ValidationError.
func Load(path string) (*Config, error) {
	cfg := Default()
	var errs []string

	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, &ValidationError{Errors: []string{"config file: " + err.Error()}}
		}
		slog.Debug("loaded configuration from file", slog.String("path", path))
		errs = append(errs, fileCfg.applyTo(cfg)...)
	}

	errs = append(errs, applyEnv(cfg)...)

	if cfg.Provider.AuthKeyFile != "" {
		key, err := ReadKeyFile(cfg.Provider.AuthKeyFile)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			cfg.Provider.AuthKey = secret.New(key)
		}
	}

	errs = append(errs, validate(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// applyEnv overrides cfg with DDNS6_* environment variables that are set.
func applyEnv(cfg *Config) []string {
	var errs []string

	if v := getEnv("DDNS6_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := getEnv("DDNS6_ZONE_ID"); v != "" {
		cfg.Provider.ZoneID = v
	}
	if v := getEnv("DDNS6_RECORD_ID"); v != "" {
		cfg.Provider.RecordID = v
	}

	email, err := getEnvOrFile("DDNS6_AUTH_EMAIL", "DDNS6_AUTH_EMAIL_FILE")
	if err != nil {
		errs = append(errs, err.Error())
	} else if email != "" {
		cfg.Provider.AuthEmail = secret.New(email)
	}

	// The key file goes through the permission check in Load.
	if v := getEnv("DDNS6_AUTH_KEY_FILE"); v != "" {
		cfg.Provider.AuthKeyFile = v
	} else if v := getEnv("DDNS6_AUTH_KEY"); v != "" {
		cfg.Provider.AuthKey = secret.New(v)
		cfg.Provider.AuthKeyFile = ""
	}

	if v := getEnv("DDNS6_PROXIED"); v != "" {
		cfg.Provider.Proxied = parseBool(v, cfg.Provider.Proxied)
	}

	if v := getEnv("DDNS6_INTERFACE"); v != "" {
		cfg.Interface.Name = v
	}

	if v := getEnv("DDNS6_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port >= 1 && port <= 65535 {
			cfg.Probe.Port = uint16(port)
		} else {
			errs = append(errs, "DDNS6_PORT: invalid port number")
		}
	}

	if v := getEnv("DDNS6_PROBE_METHOD"); v != "" {
		cfg.Probe.Method = strings.ToLower(v)
	}

	if v := getEnv("DDNS6_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Reconciler.PollInterval = d
		} else {
			errs = append(errs, "DDNS6_POLL_INTERVAL: invalid duration")
		}
	}

	if v := getEnv("DDNS6_NAMESERVERS"); v != "" {
		cfg.Propagation.Nameservers = nil
		for _, ns := range strings.Split(v, ",") {
			if ns = strings.TrimSpace(ns); ns != "" {
				cfg.Propagation.Nameservers = append(cfg.Propagation.Nameservers, ns)
			}
		}
	}

	if v := getEnv("DDNS6_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := getEnv("DDNS6_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}

	if v := getEnv("DDNS6_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port >= 0 && port <= 65535 {
			cfg.Server.Port = port
		} else {
			errs = append(errs, "DDNS6_HEALTH_PORT: invalid port number")
		}
	}

	return errs
}

// Summary returns loggable attributes describing cfg. Credentials are redacted.
func (c *Config) Summary() []any {
	return []any{
		slog.String("interface", c.Interface.Name),
		slog.String("address_source", c.Interface.Source),
		slog.Int("probe_port", int(c.Probe.Port)),
		slog.String("probe_method", c.Probe.Method),
		slog.String("zone_id", c.Provider.ZoneID),
		slog.String("record_id", c.Provider.RecordID),
		slog.Any("auth_email", c.Provider.AuthEmail),
		slog.Any("auth_key", c.Provider.AuthKey),
		slog.Duration("poll_interval", c.Reconciler.PollInterval),
		slog.Int("health_port", c.Server.Port),
		slog.Int("nameservers", len(c.Propagation.Nameservers)),
	}
}

// String implements fmt.Stringer for debugging; credentials are redacted.
func (c *Config) String() string {
	return fmt.Sprintf("interface=%s port=%d zone=%s record=%s email=%s key=%s",
		c.Interface.Name, c.Probe.Port, c.Provider.ZoneID, c.Provider.RecordID,
		c.Provider.AuthEmail, c.Provider.AuthKey)
}
