package quill

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/coregx/quill/internal/config"
	"github.com/coregx/quill/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestOpenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	cfg, err := ParseConfig([]byte("driver: sqlite\ndsn: " + path + "\ntable_prefix: app_\nmax_open_conns: 1\n"))
	require.NoError(t, err)

	db, err := OpenConfig(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.SQLDB().ExecContext(ctx, `create table app_notes (id integer primary key, body text)`)
	require.NoError(t, err)

	_, err = db.Table("notes").Insert(ctx, map[string]interface{}{"body": "hello"})
	require.NoError(t, err)

	body, err := db.Table("notes").Value(ctx, "body")
	require.NoError(t, err)
	assert.Equal(t, "hello", body)
	assert.Equal(t, "app_", db.Grammar().TablePrefix())
	assert.Equal(t, 1, db.SQLDB().Stats().MaxOpenConnections)
}

func TestOpenConfig_UnsupportedDriver(t *testing.T) {
	_, err := OpenConfig(&Config{Driver: "oracle", DSN: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
}

func TestOpenConfig_ExtraOptionsWin(t *testing.T) {
	cfg := &Config{Driver: "sqlite", DSN: ":memory:", TablePrefix: "cfg_"}
	cfg.ApplyDefaults()

	db, err := OpenConfig(cfg, WithTablePrefix("extra_"))
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, `select * from "extra_users"`, db.Table("users").ToSQL())
}

func TestOpenConfig_HealthCheck(t *testing.T) {
	cfg := &Config{Driver: "sqlite", DSN: ":memory:", HealthCheckInterval: 10 * time.Millisecond}
	cfg.ApplyDefaults()

	db, err := OpenConfig(cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.Eventually(t, func() bool {
		return !db.LastHealthCheck().IsZero()
	}, time.Second, 5*time.Millisecond)
	assert.True(t, db.IsHealthy())
}

func TestConfigOptions(t *testing.T) {
	cfg := &Config{Driver: "sqlite", DSN: ":memory:"}
	cfg.ApplyDefaults()
	assert.Len(t, ConfigOptions(cfg), 3)

	cfg.ConnMaxLifetime = time.Minute
	cfg.TablePrefix = "p_"
	cfg.SensitiveFields = []string{"pin"}
	cfg.HealthCheckInterval = time.Minute
	cfg.Log.Format = "json"
	assert.Len(t, ConfigOptions(cfg), 8)

	cfg.Security = config.SecurityConfig{ValidateQueries: true, Audit: "all"}
	assert.Len(t, ConfigOptions(cfg), 10)
}

func TestOpenConfig_Security(t *testing.T) {
	cfg, err := ParseConfig([]byte("driver: sqlite\ndsn: \":memory:\"\nsecurity:\n  validate_queries: true\n  audit: writes\n"))
	require.NoError(t, err)

	db, err := OpenConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Table("users").WhereRaw("1 = 1; drop table users").Get(context.Background())
	assert.ErrorIs(t, err, ErrUnsafeQuery)
}

func TestConfigLogger(t *testing.T) {
	tests := []struct {
		format string
		want   interface{}
	}{
		{"json", &logger.ZerologAdapter{}},
		{"console", &logger.ZerologAdapter{}},
		{"slog", &logger.SlogAdapter{}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			l := configLogger(config.LogConfig{Level: "warn", Format: tt.format})
			require.NotNil(t, l)
			assert.IsType(t, tt.want, l)
		})
	}

	assert.Nil(t, configLogger(config.LogConfig{Level: "info", Format: "none"}))
}

func TestFacade_BuildsWithoutConnection(t *testing.T) {
	q := NewBuilder(nil, NewPostgresGrammar()).
		From("users").
		Where("votes", ">", 100).
		OrWhere("name", "John").
		OrderBy("name")

	assert.Equal(t, `select * from "users" where "votes" > ? or "name" = ? order by "name" asc`, q.ToSQL())
	assert.Equal(t, []interface{}{100, "John"}, q.GetBindings())

	_, err := q.Get(context.Background())
	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestFacade_RawExpression(t *testing.T) {
	q := NewBuilder(nil, DefaultGrammar()).From("orders").Select(Raw("count(*) as total"), "status").GroupBy("status")

	assert.Equal(t, `select count(*) as total, "status" from "orders" group by "status"`, q.ToSQL())
}
