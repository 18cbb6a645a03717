// Package config loads quill connection settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coregx/quill/internal/dialects"
)

// Default values applied by Parse and Load.
const (
	DefaultMaxOpenConns      = 10
	DefaultMaxIdleConns      = 5
	DefaultStmtCacheCapacity = 1000
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "none"
	DefaultAuditLevel        = "none"
)

// Config describes one database connection.
//
//	driver: sqlite
//	dsn: file:app.db?_pragma=foreign_keys(1)
//	table_prefix: app_
//	max_open_conns: 10
//	log:
//	  level: debug
//	  format: json
//	security:
//	  validate_queries: true
//	  audit: writes
type Config struct {
	Driver            string         `yaml:"driver"`
	DSN               string         `yaml:"dsn"`
	TablePrefix       string         `yaml:"table_prefix"`
	MaxOpenConns      int            `yaml:"max_open_conns"`
	MaxIdleConns      int            `yaml:"max_idle_conns"`
	ConnMaxLifetime   time.Duration  `yaml:"conn_max_lifetime"`
	StmtCacheCapacity int            `yaml:"stmt_cache_capacity"`
	SensitiveFields   []string       `yaml:"sensitive_fields"`
	Log               LogConfig      `yaml:"log"`
	Security          SecurityConfig `yaml:"security"`

	// HealthCheckInterval enables background pings when positive.
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// LogConfig selects the statement logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is none, json (zerolog), console (zerolog pretty) or slog.
	Format string `yaml:"format"`
}

// SecurityConfig enables statement validation and auditing.
type SecurityConfig struct {
	// ValidateQueries rejects statements matching injection patterns.
	ValidateQueries bool `yaml:"validate_queries"`
	// Strict adds patterns with known false positives.
	Strict bool `yaml:"strict"`
	// CheckParams also inspects bound string values.
	CheckParams bool `yaml:"check_params"`
	// Audit is none, writes, reads or all.
	Audit string `yaml:"audit"`
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is chosen by the application, not by end users.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references in the DSN, applies
// defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.DSN = os.ExpandEnv(cfg.DSN)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero-valued settings.
func (c *Config) ApplyDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.StmtCacheCapacity == 0 {
		c.StmtCacheCapacity = DefaultStmtCacheCapacity
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Security.Audit == "" {
		c.Security.Audit = DefaultAuditLevel
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Driver == "" {
		errs = append(errs, errors.New("driver is required"))
	} else if _, ok := dialects.Lookup(c.Driver); !ok {
		errs = append(errs, fmt.Errorf("unsupported driver %q (known: %v)", c.Driver, dialects.Names()))
	}
	if c.DSN == "" {
		errs = append(errs, errors.New("dsn is required"))
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.StmtCacheCapacity < 0 || c.HealthCheckInterval < 0 {
		errs = append(errs, errors.New("pool sizes, cache capacity and intervals must not be negative"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "none", "json", "console", "slog":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	switch c.Security.Audit {
	case "none", "writes", "reads", "all":
	default:
		errs = append(errs, fmt.Errorf("unknown audit level %q", c.Security.Audit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
