//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coregx/quill"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO required)
)

// DatabaseSetup encapsulates database connection and cleanup.
type DatabaseSetup struct {
	DB        *quill.DB
	Container testcontainers.Container
	Dialect   string
}

// Close cleans up database resources.
func (ds *DatabaseSetup) Close() {
	if ds.DB != nil {
		ds.DB.Close() //nolint:errcheck
	}
	if ds.Container != nil {
		ds.Container.Terminate(context.Background()) //nolint:errcheck
	}
}

// SetupPostgreSQLTestDB creates a PostgreSQL test database.
// Uses testcontainers if available, falls back to env DSN.
func SetupPostgreSQLTestDB(t *testing.T) *DatabaseSetup {
	ctx := context.Background()

	// Check for manual DSN first (allows testing without Docker)
	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		db, err := quill.Open("postgres", dsn)
		require.NoError(t, err)
		return &DatabaseSetup{DB: db, Dialect: "postgres"}
	}

	// Start PostgreSQL in Docker via testcontainers
	pgContainer, err := postgres.Run(
		ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skip("Docker not available for PostgreSQL integration tests: " + err.Error())
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := quill.Open("postgres", dsn)
	require.NoError(t, err)

	return &DatabaseSetup{
		DB:        db,
		Container: pgContainer,
		Dialect:   "postgres",
	}
}

// SetupMySQLTestDB creates a MySQL test database.
// Uses testcontainers if available, falls back to env DSN.
func SetupMySQLTestDB(t *testing.T) *DatabaseSetup {
	ctx := context.Background()

	// Check for manual DSN first
	if dsn := os.Getenv("MYSQL_TEST_DSN"); dsn != "" {
		db, err := quill.Open("mysql", withParseTime(dsn))
		require.NoError(t, err)
		return &DatabaseSetup{DB: db, Dialect: "mysql"}
	}

	// Start MySQL in Docker via testcontainers
	mysqlContainer, err := mysql.Run(
		ctx,
		"mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("user"),
		mysql.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skip("Docker not available for MySQL integration tests: " + err.Error())
	}

	dsn, err := mysqlContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := quill.Open("mysql", withParseTime(dsn))
	require.NoError(t, err)

	return &DatabaseSetup{
		DB:        db,
		Container: mysqlContainer,
		Dialect:   "mysql",
	}
}

// withParseTime enables time.Time parsing for DATETIME/TIMESTAMP columns.
// Without it the MySQL driver returns []uint8.
// See: https://github.com/go-sql-driver/mysql#parsetime
func withParseTime(dsn string) string {
	if strings.Contains(dsn, "parseTime=true") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// SetupSQLiteTestDB creates an in-memory SQLite database.
// Always works, no external dependencies.
func SetupSQLiteTestDB(t *testing.T) *DatabaseSetup {
	db, err := quill.Open("sqlite", ":memory:", quill.WithMaxOpenConns(1))
	require.NoError(t, err)

	return &DatabaseSetup{
		DB:      db,
		Dialect: "sqlite",
	}
}

// setups lists every engine, each one skipped when unavailable.
var setups = map[string]func(*testing.T) *DatabaseSetup{
	"sqlite":   SetupSQLiteTestDB,
	"postgres": SetupPostgreSQLTestDB,
	"mysql":    SetupMySQLTestDB,
}

// forEachEngine runs fn against every available engine with fresh tables.
func forEachEngine(t *testing.T, fn func(t *testing.T, ds *DatabaseSetup)) {
	for _, name := range []string{"sqlite", "postgres", "mysql"} {
		t.Run(name, func(t *testing.T) {
			ds := setups[name](t)
			t.Cleanup(ds.Close)
			CreateTables(t, ds.DB, ds.Dialect)
			fn(t, ds)
		})
	}
}

var schemas = map[string][]string{
	"postgres": {
		`DROP TABLE IF EXISTS messages, attachments, mailboxes CASCADE`,
		`CREATE TABLE mailboxes (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			settings JSONB
		)`,
		`CREATE TABLE messages (
			id SERIAL PRIMARY KEY,
			mailbox_id INTEGER NOT NULL,
			uid INTEGER NOT NULL,
			status INTEGER DEFAULT 1,
			size INTEGER DEFAULT 0,
			subject TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE attachments (
			id SERIAL PRIMARY KEY,
			message_id INTEGER NOT NULL,
			filename VARCHAR(255),
			size INTEGER DEFAULT 0
		)`,
	},
	"mysql": {
		`DROP TABLE IF EXISTS messages, attachments, mailboxes`,
		`CREATE TABLE mailboxes (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			settings JSON
		)`,
		`CREATE TABLE messages (
			id INT AUTO_INCREMENT PRIMARY KEY,
			mailbox_id INT NOT NULL,
			uid INT NOT NULL,
			status INT DEFAULT 1,
			size INT DEFAULT 0,
			subject TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE attachments (
			id INT AUTO_INCREMENT PRIMARY KEY,
			message_id INT NOT NULL,
			filename VARCHAR(255),
			size INT DEFAULT 0
		)`,
	},
	"sqlite": {
		`DROP TABLE IF EXISTS messages`,
		`DROP TABLE IF EXISTS attachments`,
		`DROP TABLE IF EXISTS mailboxes`,
		`CREATE TABLE mailboxes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(255) UNIQUE NOT NULL,
			settings TEXT
		)`,
		`CREATE TABLE messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mailbox_id INTEGER NOT NULL,
			uid INTEGER NOT NULL,
			status INTEGER DEFAULT 1,
			size INTEGER DEFAULT 0,
			subject TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE attachments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id INTEGER NOT NULL,
			filename VARCHAR(255),
			size INTEGER DEFAULT 0
		)`,
	},
}

// CreateTables creates the mailbox schema for dialect.
func CreateTables(t *testing.T, db *quill.DB, dialect string) {
	for _, stmt := range schemas[dialect] {
		_, err := db.SQLDB().ExecContext(context.Background(), stmt)
		require.NoError(t, err)
	}
}

// InsertTestMessages inserts count messages into a mailbox in one statement.
func InsertTestMessages(t *testing.T, db *quill.DB, count, mailboxID int) {
	records := make([]map[string]interface{}, 0, count)
	for i := 1; i <= count; i++ {
		records = append(records, map[string]interface{}{
			"mailbox_id": mailboxID,
			"uid":        i,
			"status":     1,
			"size":       1024 * (i % 10), // 0KB to 9KB
			"subject":    fmt.Sprintf("Test Message %d", i),
		})
	}
	_, err := db.Table("messages").Insert(context.Background(), records...)
	require.NoError(t, err)
}

// InsertTestAttachments inserts attachments for the first messageCount messages.
func InsertTestAttachments(t *testing.T, db *quill.DB, messageCount, attachmentsPerMessage int) {
	var records []map[string]interface{}
	for msgID := 1; msgID <= messageCount; msgID++ {
		for i := 0; i < attachmentsPerMessage; i++ {
			records = append(records, map[string]interface{}{
				"message_id": msgID,
				"filename":   fmt.Sprintf("file%d.pdf", i),
				"size":       1024 * (i + 1), // 1KB, 2KB, 3KB, etc.
			})
		}
	}
	_, err := db.Table("attachments").Insert(context.Background(), records...)
	require.NoError(t, err)
}
