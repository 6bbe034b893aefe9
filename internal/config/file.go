package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gitlab.bluewillows.net/root/ddns6/pkg/secret"
)

// FileConfig represents the configuration file structure.
// Durations are Go duration strings such as "10s".
type FileConfig struct {
	Provider    *FileProviderConfig    `yaml:"provider,omitempty" toml:"provider"`
	Interface   *FileInterfaceConfig   `yaml:"interface,omitempty" toml:"interface"`
	Probe       *FileProbeConfig       `yaml:"probe,omitempty" toml:"probe"`
	Reconciler  *FileReconcilerConfig  `yaml:"reconciler,omitempty" toml:"reconciler"`
	Propagation *FilePropagationConfig `yaml:"propagation,omitempty" toml:"propagation"`
	Logging     *FileLoggingConfig     `yaml:"logging,omitempty" toml:"logging"`
	Server      *FileServerConfig      `yaml:"server,omitempty" toml:"server"`
}

// FileProviderConfig holds the Cloudflare record settings.
type FileProviderConfig struct {
	BaseURL     string `yaml:"base_url,omitempty" toml:"base_url"`
	ZoneID      string `yaml:"zone_id,omitempty" toml:"zone_id"`
	RecordID    string `yaml:"record_id,omitempty" toml:"record_id"`
	AuthEmail   string `yaml:"auth_email,omitempty" toml:"auth_email"`
	AuthKey     string `yaml:"auth_key,omitempty" toml:"auth_key"`
	AuthKeyFile string `yaml:"auth_key_file,omitempty" toml:"auth_key_file"`
	TTL         *int   `yaml:"ttl,omitempty" toml:"ttl"`
	Proxied     *bool  `yaml:"proxied,omitempty" toml:"proxied"`
	Comment     string `yaml:"comment,omitempty" toml:"comment"`
	Timeout     string `yaml:"timeout,omitempty" toml:"timeout"`
}

// FileInterfaceConfig holds interface settings.
type FileInterfaceConfig struct {
	Name         string `yaml:"name,omitempty" toml:"name"`
	Source       string `yaml:"source,omitempty" toml:"source"` // ip, native
	QueryTimeout string `yaml:"query_timeout,omitempty" toml:"query_timeout"`
}

// FileProbeConfig holds probe settings.
type FileProbeConfig struct {
	Port    int    `yaml:"port,omitempty" toml:"port"`
	Method  string `yaml:"method,omitempty" toml:"method"` // udp, tcp
	Timeout string `yaml:"timeout,omitempty" toml:"timeout"`
}

// FileReconcilerConfig holds loop intervals.
type FileReconcilerConfig struct {
	PollInterval       string `yaml:"poll_interval,omitempty" toml:"poll_interval"`
	FailureBackoff     string `yaml:"failure_backoff,omitempty" toml:"failure_backoff"`
	NoCandidateBackoff string `yaml:"no_candidate_backoff,omitempty" toml:"no_candidate_backoff"`
}

// FilePropagationConfig holds post-update nameserver checks.
type FilePropagationConfig struct {
	Nameservers []string `yaml:"nameservers,omitempty" toml:"nameservers"`
	Timeout     string   `yaml:"timeout,omitempty" toml:"timeout"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format"` // json, text
}

// FileServerConfig holds health/metrics server settings.
type FileServerConfig struct {
	Port *int `yaml:"port,omitempty" toml:"port"` // 0 disables the server
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if value := os.Getenv(groups[1]); value != "" {
			return value
		}
		if len(groups) >= 3 {
			return groups[2]
		}
		return ""
	})
}

func interpolateAll(fields ...*string) {
	for _, f := range fields {
		*f = InterpolateEnvVars(*f)
	}
}

// interpolateEnvVars interpolates environment variables in every string field.
func (c *FileConfig) interpolateEnvVars() {
	if p := c.Provider; p != nil {
		interpolateAll(&p.BaseURL, &p.ZoneID, &p.RecordID, &p.AuthEmail, &p.AuthKey, &p.AuthKeyFile, &p.Comment, &p.Timeout)
	}
	if i := c.Interface; i != nil {
		interpolateAll(&i.Name, &i.Source, &i.QueryTimeout)
	}
	if p := c.Probe; p != nil {
		interpolateAll(&p.Method, &p.Timeout)
	}
	if r := c.Reconciler; r != nil {
		interpolateAll(&r.PollInterval, &r.FailureBackoff, &r.NoCandidateBackoff)
	}
	if p := c.Propagation; p != nil {
		for j := range p.Nameservers {
			p.Nameservers[j] = InterpolateEnvVars(p.Nameservers[j])
		}
		interpolateAll(&p.Timeout)
	}
	if l := c.Logging; l != nil {
		interpolateAll(&l.Level, &l.Format)
	}
}

// LoadFile reads and parses a YAML (.yaml, .yml) or TOML (.toml) configuration file.
// Environment variables in ${VAR} format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .yaml, .yml or .toml)", ext)
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// parseDuration parses a positive duration, appending a message to errs on failure.
func parseDuration(field, value string, dst *time.Duration, errs *[]string) {
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s: invalid duration %q", field, value))
		return
	}
	*dst = d
}

// applyTo overlays values set in the file onto cfg.
// Problems are returned as messages so they can be reported together.
func (c *FileConfig) applyTo(cfg *Config) []string {
	var errs []string

	if p := c.Provider; p != nil {
		setString(&cfg.Provider.BaseURL, p.BaseURL)
		setString(&cfg.Provider.ZoneID, p.ZoneID)
		setString(&cfg.Provider.RecordID, p.RecordID)
		if p.AuthEmail != "" {
			cfg.Provider.AuthEmail = secret.New(p.AuthEmail)
		}
		if p.AuthKey != "" {
			cfg.Provider.AuthKey = secret.New(p.AuthKey)
		}
		setString(&cfg.Provider.AuthKeyFile, p.AuthKeyFile)
		if p.TTL != nil {
			cfg.Provider.TTL = *p.TTL
		}
		if p.Proxied != nil {
			cfg.Provider.Proxied = *p.Proxied
		}
		setString(&cfg.Provider.Comment, p.Comment)
		parseDuration("provider.timeout", p.Timeout, &cfg.Provider.Timeout, &errs)
	}

	if i := c.Interface; i != nil {
		setString(&cfg.Interface.Name, i.Name)
		setString(&cfg.Interface.Source, strings.ToLower(i.Source))
		parseDuration("interface.query_timeout", i.QueryTimeout, &cfg.Interface.QueryTimeout, &errs)
	}

	if p := c.Probe; p != nil {
		if p.Port != 0 {
			if p.Port < 1 || p.Port > 65535 {
				errs = append(errs, fmt.Sprintf("probe.port: %d is out of range 1-65535", p.Port))
			} else {
				cfg.Probe.Port = uint16(p.Port)
			}
		}
		setString(&cfg.Probe.Method, strings.ToLower(p.Method))
		parseDuration("probe.timeout", p.Timeout, &cfg.Probe.Timeout, &errs)
	}

	if r := c.Reconciler; r != nil {
		parseDuration("reconciler.poll_interval", r.PollInterval, &cfg.Reconciler.PollInterval, &errs)
		parseDuration("reconciler.failure_backoff", r.FailureBackoff, &cfg.Reconciler.FailureBackoff, &errs)
		parseDuration("reconciler.no_candidate_backoff", r.NoCandidateBackoff, &cfg.Reconciler.NoCandidateBackoff, &errs)
	}

	if p := c.Propagation; p != nil {
		if len(p.Nameservers) > 0 {
			cfg.Propagation.Nameservers = append([]string(nil), p.Nameservers...)
		}
		parseDuration("propagation.timeout", p.Timeout, &cfg.Propagation.Timeout, &errs)
	}

	if l := c.Logging; l != nil {
		setString(&cfg.Logging.Level, strings.ToLower(l.Level))
		setString(&cfg.Logging.Format, strings.ToLower(l.Format))
	}

	if s := c.Server; s != nil && s.Port != nil {
		cfg.Server.Port = *s.Port
	}

	return errs
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
