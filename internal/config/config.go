// Package config loads ddns6 configuration from defaults, an optional YAML or
// TOML file, and DDNS6_* environment variables, in that order of precedence.
package config

import (
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/secret"
)

// Defaults.
const (
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultBaseURL            = "https://api.cloudflare.com/client/v4"
	DefaultTTL                = 1
	DefaultComment            = "managed by ddns6"
	DefaultProviderTimeout    = 30 * time.Second
	DefaultAddressSource      = SourceIPRoute
	DefaultQueryTimeout       = 5 * time.Second
	DefaultProbeMethod        = "udp"
	DefaultProbeTimeout       = 2 * time.Second
	DefaultPollInterval       = 10 * time.Second
	DefaultFailureBackoff     = 15 * time.Second
	DefaultNoCandidateBackoff = 30 * time.Second
	DefaultPropagationTimeout = 5 * time.Second
	DefaultHealthPort         = 8080
)

// Address source names.
const (
	SourceIPRoute = "ip"
	SourceNative  = "native"
)

// Config is the complete runtime configuration.
type Config struct {
	Provider    ProviderConfig
	Interface   InterfaceConfig
	Probe       ProbeConfig
	Reconciler  ReconcilerConfig
	Propagation PropagationConfig
	Logging     LoggingConfig
	Server      ServerConfig
}

// ProviderConfig describes the managed Cloudflare record and credentials.
type ProviderConfig struct {
	BaseURL     string
	ZoneID      string
	RecordID    string
	AuthEmail   secret.String
	AuthKey     secret.String
	AuthKeyFile string // when set, AuthKey was read from this file
	TTL         int
	Proxied     bool
	Comment     string
	Timeout     time.Duration
}

// InterfaceConfig selects the interface and how its addresses are listed.
type InterfaceConfig struct {
	Name         string
	Source       string // ip or native
	QueryTimeout time.Duration
}

// ProbeConfig controls candidate reachability probes.
type ProbeConfig struct {
	Port    uint16
	Method  string // udp or tcp
	Timeout time.Duration
}

// ReconcilerConfig holds the loop intervals.
type ReconcilerConfig struct {
	PollInterval       time.Duration
	FailureBackoff     time.Duration
	NoCandidateBackoff time.Duration
}

// PropagationConfig lists nameservers checked after an update. Empty disables the check.
type PropagationConfig struct {
	Nameservers []string
	Timeout     time.Duration
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// ServerConfig holds health/metrics server settings. Port 0 disables the server.
type ServerConfig struct {
	Port int
}

// Default returns a Config with every default applied and nothing required set.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL: DefaultBaseURL,
			TTL:     DefaultTTL,
			Comment: DefaultComment,
			Timeout: DefaultProviderTimeout,
		},
		Interface: InterfaceConfig{
			Source:       DefaultAddressSource,
			QueryTimeout: DefaultQueryTimeout,
		},
		Probe: ProbeConfig{
			Method:  DefaultProbeMethod,
			Timeout: DefaultProbeTimeout,
		},
		Reconciler: ReconcilerConfig{
			PollInterval:       DefaultPollInterval,
			FailureBackoff:     DefaultFailureBackoff,
			NoCandidateBackoff: DefaultNoCandidateBackoff,
		},
		Propagation: PropagationConfig{
			Timeout: DefaultPropagationTimeout,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Server: ServerConfig{
			Port: DefaultHealthPort,
		},
	}
}
