// Package quill is a fluent SQL query builder for Go. A Builder accumulates the
// clauses of one statement; a Grammar compiles it to SQL with "?" placeholders
// for SQLite, PostgreSQL or MySQL; and a Connection executes it. The DB type is
// a database/sql Connection with prepared statement caching, structured logging
// and OpenTelemetry tracing.
//
//	db, err := quill.Open("sqlite", "file:app.db")
//	rows, err := db.Table("users").
//	    Where("votes", ">", 100).
//	    OrWhere("name", "John").
//	    OrderBy("name").
//	    Get(ctx)
package quill

import (
	"log/slog"
	"os"

	"github.com/coregx/quill/internal/config"
	"github.com/coregx/quill/internal/core"
	"github.com/coregx/quill/internal/logger"
	"github.com/coregx/quill/internal/security"
	"github.com/coregx/quill/internal/tracer"
)

type (
	// Builder is the fluent model of one SQL statement.
	Builder = core.Builder
	// JoinClause holds the ON conditions of one join.
	JoinClause = core.JoinClause
	// Grammar compiles builders into SQL.
	Grammar = core.Grammar
	// Expression is literal SQL that is inlined rather than bound.
	Expression = core.Expression
	// Connection executes compiled statements.
	Connection = core.Connection
	// Row is one result row keyed by column name.
	Row = core.Row
	// Statement is compiled SQL with its bindings.
	Statement = core.Statement
	// BindingType names a binding bucket.
	BindingType = core.BindingType
	// Bindings holds bucketed binding values.
	Bindings = core.Bindings
	// Component names a clause for CloneWithout.
	Component = core.Component
	// Where is one compiled where condition.
	Where = core.Where

	// DB is a database/sql backed Connection.
	DB = core.DB
	// Tx is a Connection bound to a transaction.
	Tx = core.Tx
	// TxOptions configures a transaction.
	TxOptions = core.TxOptions
	// Option configures a DB.
	Option = core.Option
	// QueryEvent describes an executed statement.
	QueryEvent = core.QueryEvent
	// QueryHook observes executed statements.
	QueryHook = core.QueryHook
	// QueryPlan summarizes an EXPLAIN result.
	QueryPlan = core.QueryPlan

	// Logger is the structured logger used by DB.
	Logger = logger.Logger
	// Tracer starts tracing spans for DB statements.
	Tracer = tracer.Tracer
	// Config is a YAML-loadable connection configuration.
	Config = config.Config

	// Validator rejects statements containing injection patterns.
	Validator = security.Validator
	// Auditor writes an audit trail of executed statements.
	Auditor = security.Auditor
	// AuditLevel selects which statements are audited.
	AuditLevel = security.AuditLevel
)

// Audit levels.
const (
	AuditNone   = security.AuditNone
	AuditWrites = security.AuditWrites
	AuditReads  = security.AuditReads
	AuditAll    = security.AuditAll
)

// Binding buckets.
const (
	BindingSelect = core.BindingSelect
	BindingJoin   = core.BindingJoin
	BindingWhere  = core.BindingWhere
	BindingHaving = core.BindingHaving
	BindingOrder  = core.BindingOrder
	BindingUnion  = core.BindingUnion
)

// Clause components.
const (
	ComponentAggregate   = core.ComponentAggregate
	ComponentColumns     = core.ComponentColumns
	ComponentJoins       = core.ComponentJoins
	ComponentWheres      = core.ComponentWheres
	ComponentGroups      = core.ComponentGroups
	ComponentHavings     = core.ComponentHavings
	ComponentOrders      = core.ComponentOrders
	ComponentLimit       = core.ComponentLimit
	ComponentOffset      = core.ComponentOffset
	ComponentUnions      = core.ComponentUnions
	ComponentUnionOrders = core.ComponentUnionOrders
	ComponentUnionLimit  = core.ComponentUnionLimit
	ComponentUnionOffset = core.ComponentUnionOffset
	ComponentLock        = core.ComponentLock
)

// Re-export core functions.
var (
	Raw = core.Raw

	NewBuilder         = core.NewBuilder
	DefaultGrammar     = core.DefaultGrammar
	NewSQLiteGrammar   = core.NewSQLiteGrammar
	NewPostgresGrammar = core.NewPostgresGrammar
	NewMySQLGrammar    = core.NewMySQLGrammar
	GrammarFor         = core.GrammarFor

	Open                  = core.Open
	WrapDB                = core.WrapDB
	WithMaxOpenConns      = core.WithMaxOpenConns
	WithMaxIdleConns      = core.WithMaxIdleConns
	WithConnMaxLifetime   = core.WithConnMaxLifetime
	WithStmtCacheCapacity = core.WithStmtCacheCapacity
	WithLogger            = core.WithLogger
	WithSensitiveFields   = core.WithSensitiveFields
	WithTracer            = core.WithTracer
	WithQueryHook         = core.WithQueryHook
	WithTablePrefix       = core.WithTablePrefix
	WithGrammar           = core.WithGrammar
	WithHealthCheck       = core.WithHealthCheck
	WithValidator         = core.WithValidator
	WithAuditLog          = core.WithAuditLog

	NewValidator    = security.NewValidator
	WithStrict      = security.WithStrict
	WithParamChecks = security.WithParamChecks
	NewAuditor      = security.NewAuditor
	WithUser        = security.WithUser
	WithClientIP    = security.WithClientIP
	WithRequestID   = security.WithRequestID

	NewSlogAdapter            = logger.NewSlogAdapter
	NewZerologAdapter         = logger.NewZerologAdapter
	NewOtelTracer             = tracer.NewOtelTracer
	NewOtelTracerFromProvider = tracer.NewOtelTracerFromProvider

	LoadConfig  = config.Load
	ParseConfig = config.Parse
)

// Predefined errors.
var (
	ErrInvalidBindingType = core.ErrInvalidBindingType
	ErrInvalidDirection   = core.ErrInvalidDirection
	ErrInvalidSubquery    = core.ErrInvalidSubquery
	ErrNonNumericAmount   = core.ErrNonNumericAmount
	ErrUnsupportedDialect = core.ErrUnsupportedDialect
	ErrMismatchedRecords  = core.ErrMismatchedRecords
	ErrRowValuesMismatch  = core.ErrRowValuesMismatch
	ErrInvalidJSONValue   = core.ErrInvalidJSONValue
	ErrNoConnection       = core.ErrNoConnection
	ErrTxDone             = core.ErrTxDone
	ErrUnsafeQuery        = security.ErrUnsafeQuery
	ErrUnsafeParam        = security.ErrUnsafeParam
)

// OpenConfig opens a DB from a configuration. extra options are applied after
// the ones derived from cfg.
func OpenConfig(cfg *Config, extra ...Option) (*DB, error) {
	return Open(cfg.Driver, cfg.DSN, append(ConfigOptions(cfg), extra...)...)
}

// ConfigOptions translates cfg into DB options.
func ConfigOptions(cfg *Config) []Option {
	opts := []Option{
		WithMaxOpenConns(cfg.MaxOpenConns),
		WithMaxIdleConns(cfg.MaxIdleConns),
		WithStmtCacheCapacity(cfg.StmtCacheCapacity),
	}
	if cfg.ConnMaxLifetime > 0 {
		opts = append(opts, WithConnMaxLifetime(cfg.ConnMaxLifetime))
	}
	if cfg.HealthCheckInterval > 0 {
		opts = append(opts, WithHealthCheck(cfg.HealthCheckInterval))
	}
	if cfg.TablePrefix != "" {
		opts = append(opts, WithTablePrefix(cfg.TablePrefix))
	}
	if len(cfg.SensitiveFields) > 0 {
		opts = append(opts, WithSensitiveFields(cfg.SensitiveFields...))
	}
	l := configLogger(cfg.Log)
	if l != nil {
		opts = append(opts, WithLogger(l))
	}
	if cfg.Security.ValidateQueries {
		opts = append(opts, WithValidator(NewValidator(
			WithStrict(cfg.Security.Strict),
			WithParamChecks(cfg.Security.CheckParams),
		)))
	}
	if level, _ := security.ParseAuditLevel(cfg.Security.Audit); level != AuditNone {
		if l == nil {
			l = logger.NewSlogAdapter(nil)
		}
		opts = append(opts, WithAuditLog(NewAuditor(l, level)))
	}
	return opts
}

func configLogger(cfg config.LogConfig) Logger {
	switch cfg.Format {
	case "json":
		return logger.New(logger.Config{Level: cfg.Level})
	case "console":
		return logger.New(logger.Config{Level: cfg.Level, Pretty: true})
	case "slog":
		var level slog.Level
		_ = level.UnmarshalText([]byte(cfg.Level))
		return logger.NewSlogAdapter(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}
	return nil
}
