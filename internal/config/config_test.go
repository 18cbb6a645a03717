package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
driver: postgres
dsn: postgres://localhost/app
table_prefix: app_
max_open_conns: 20
conn_max_lifetime: 5m
sensitive_fields: [pin, otp]
health_check_interval: 30s
log:
  level: debug
  format: json
security:
  validate_queries: true
  check_params: true
  audit: writes
`))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "postgres://localhost/app", cfg.DSN)
	assert.Equal(t, "app_", cfg.TablePrefix)
	assert.Equal(t, 20, cfg.MaxOpenConns)
	assert.Equal(t, DefaultMaxIdleConns, cfg.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, DefaultStmtCacheCapacity, cfg.StmtCacheCapacity)
	assert.Equal(t, []string{"pin", "otp"}, cfg.SensitiveFields)
	assert.Equal(t, 30*time.Second, cfg.HealthCheckInterval)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, SecurityConfig{ValidateQueries: true, CheckParams: true, Audit: "writes"}, cfg.Security)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("driver: sqlite\ndsn: \":memory:\"\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxOpenConns, cfg.MaxOpenConns)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, SecurityConfig{Audit: DefaultAuditLevel}, cfg.Security)
}

func TestParse_ExpandsEnvInDSN(t *testing.T) {
	t.Setenv("QUILL_TEST_PASSWORD", "s3cret")

	cfg, err := Parse([]byte("driver: mysql\ndsn: root:${QUILL_TEST_PASSWORD}@tcp(localhost)/app\n"))
	require.NoError(t, err)
	assert.Equal(t, "root:s3cret@tcp(localhost)/app", cfg.DSN)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing driver", "dsn: x\n", "driver is required"},
		{"unknown driver", "driver: oracle\ndsn: x\n", `unsupported driver "oracle"`},
		{"missing dsn", "driver: sqlite\n", "dsn is required"},
		{"negative pool", "driver: sqlite\ndsn: x\nmax_open_conns: -1\n", "must not be negative"},
		{"negative health interval", "driver: sqlite\ndsn: x\nhealth_check_interval: -1s\n", "must not be negative"},
		{"bad log level", "driver: sqlite\ndsn: x\nlog: {level: loud}\n", `unknown log level "loud"`},
		{"bad log format", "driver: sqlite\ndsn: x\nlog: {format: xml}\n", `unknown log format "xml"`},
		{"bad audit level", "driver: sqlite\ndsn: x\nsecurity: {audit: everything}\n", `unknown audit level "everything"`},
		{"bad yaml", "driver: [\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: sqlite3\ndsn: file::memory:\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
