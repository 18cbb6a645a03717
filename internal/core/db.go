package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coregx/quill/internal/cache"
	"github.com/coregx/quill/internal/logger"
	"github.com/coregx/quill/internal/security"
	"github.com/coregx/quill/internal/tracer"
)

// DB is a Connection backed by database/sql. It caches prepared statements,
// logs and traces every statement, and renumbers placeholders for engines that
// use positional parameters.
type DB struct {
	session

	sqlDB      *sql.DB
	driverName string
	grammar    *Grammar
	stmtCache  *cache.StmtCache
	logger     logger.Logger
	sanitizer  *logger.Sanitizer
	tracer     tracer.Tracer
	queryHook  QueryHook
	validator  *security.Validator
	auditor    *security.Auditor
	ownsSQLDB  bool

	healthInterval time.Duration
	health         *healthChecker
}

// TxOptions configures a transaction.
type TxOptions struct {
	// Isolation level for the transaction (e.g., sql.LevelReadCommitted)
	Isolation sql.IsolationLevel
	// ReadOnly indicates whether the transaction is read-only
	ReadOnly bool
}

// Option configures a DB.
type Option func(*DB)

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(db *DB) {
		db.sqlDB.SetMaxOpenConns(n)
	}
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) Option {
	return func(db *DB) {
		db.sqlDB.SetMaxIdleConns(n)
	}
}

// WithConnMaxLifetime sets the maximum lifetime of a pooled connection.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(db *DB) {
		db.sqlDB.SetConnMaxLifetime(d)
	}
}

// WithStmtCacheCapacity sets the prepared statement cache capacity.
func WithStmtCacheCapacity(capacity int) Option {
	return func(db *DB) {
		db.stmtCache = cache.NewStmtCacheWithCapacity(capacity)
	}
}

// WithLogger logs every statement to l.
func WithLogger(l logger.Logger) Option {
	return func(db *DB) {
		if l == nil {
			l = &logger.NoopLogger{}
		}
		db.logger = l
	}
}

// WithSensitiveFields overrides the column names whose bindings are masked in logs.
func WithSensitiveFields(fields ...string) Option {
	return func(db *DB) {
		db.sanitizer = logger.NewSanitizer(fields)
	}
}

// WithTracer wraps every statement in a span.
func WithTracer(t tracer.Tracer) Option {
	return func(db *DB) {
		if t == nil {
			t = &tracer.NoopTracer{}
		}
		db.tracer = t
	}
}

// WithQueryHook calls h after every statement.
func WithQueryHook(h QueryHook) Option {
	return func(db *DB) {
		db.queryHook = h
	}
}

// WithValidator rejects statements v finds unsafe before they are prepared.
func WithValidator(v *security.Validator) Option {
	return func(db *DB) {
		db.validator = v
	}
}

// WithAuditLog writes an audit event for every statement a accepts.
func WithAuditLog(a *security.Auditor) Option {
	return func(db *DB) {
		db.auditor = a
	}
}

// WithTablePrefix prefixes every table name compiled for this DB.
func WithTablePrefix(prefix string) Option {
	return func(db *DB) {
		db.grammar = db.grammar.WithTablePrefix(prefix)
	}
}

// WithGrammar replaces the grammar derived from the driver name.
func WithGrammar(g *Grammar) Option {
	return func(db *DB) {
		if g != nil {
			db.grammar = g
		}
	}
}

// WithHealthCheck pings the pool every interval in the background.
// A zero interval disables the check.
func WithHealthCheck(interval time.Duration) Option {
	return func(db *DB) {
		db.healthInterval = interval
	}
}

// Open opens a database/sql pool for driverName and wraps it.
// The driver must be registered by the caller (blank import).
func Open(driverName, dsn string, opts ...Option) (*DB, error) {
	grammar, err := GrammarFor(driverName)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("quill: open: %w", err)
	}
	db := newDB(sqlDB, driverName, grammar, opts)
	db.ownsSQLDB = true
	return db, nil
}

// WrapDB wraps an existing pool. Close does not close sqlDB.
func WrapDB(sqlDB *sql.DB, driverName string, opts ...Option) (*DB, error) {
	grammar, err := GrammarFor(driverName)
	if err != nil {
		return nil, err
	}
	return newDB(sqlDB, driverName, grammar, opts), nil
}

func newDB(sqlDB *sql.DB, driverName string, grammar *Grammar, opts []Option) *DB {
	db := &DB{
		sqlDB:      sqlDB,
		driverName: driverName,
		grammar:    grammar,
		stmtCache:  cache.NewStmtCache(),
		logger:     &logger.NoopLogger{},
		sanitizer:  logger.NewSanitizer(nil),
		tracer:     &tracer.NoopTracer{},
	}
	db.session = session{db: db}
	for _, opt := range opts {
		opt(db)
	}
	if db.healthInterval > 0 {
		db.health = newHealthChecker(sqlDB, db.logger, db.healthInterval, db.stmtCache.Clear)
		db.health.start()
	}
	return db
}

// Close releases cached statements and, when the pool was opened by Open, the pool.
func (db *DB) Close() error {
	if db.health != nil {
		db.health.stop()
		db.health = nil
	}
	db.stmtCache.Clear()
	if !db.ownsSQLDB {
		return nil
	}
	return db.sqlDB.Close()
}

// IsHealthy reports whether the most recent background ping succeeded.
// It is always true when no health check is configured.
func (db *DB) IsHealthy() bool {
	if db.health == nil {
		return true
	}
	return db.health.healthy()
}

// LastHealthCheck returns the time of the most recent background ping.
func (db *DB) LastHealthCheck() time.Time {
	if db.health == nil {
		return time.Time{}
	}
	return db.health.lastCheck()
}

// SQLDB returns the underlying pool.
func (db *DB) SQLDB() *sql.DB {
	return db.sqlDB
}

// DriverName returns the database/sql driver name.
func (db *DB) DriverName() string {
	return db.driverName
}

// Grammar returns the grammar builders of this DB compile with.
func (db *DB) Grammar() *Grammar {
	return db.grammar
}

// StmtCacheStats returns prepared statement cache counters.
func (db *DB) StmtCacheStats() cache.Stats {
	return db.stmtCache.Stats()
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

// Query returns an empty builder bound to this DB.
func (db *DB) Query() *Builder {
	return NewBuilder(db, db.grammar)
}

// Table returns a builder targeting table.
func (db *DB) Table(table interface{}, as ...string) *Builder {
	return db.Query().From(table, as...)
}

// Begin starts a transaction with default options.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	return db.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with the given options.
func (db *DB) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	var sqlOpts *sql.TxOptions
	if opts != nil {
		sqlOpts = &sql.TxOptions{
			Isolation: opts.Isolation,
			ReadOnly:  opts.ReadOnly,
		}
	}

	sqlTx, err := db.sqlDB.BeginTx(ctx, sqlOpts)
	if err != nil {
		return nil, fmt.Errorf("quill: begin: %w", err)
	}
	tx := &Tx{}
	tx.session = session{db: db, tx: sqlTx, done: &tx.done}
	return tx, nil
}

// Transaction runs fn inside a transaction, committing when fn returns nil and
// rolling back when it returns an error or panics.
func (db *DB) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Tx is a Connection bound to one database transaction.
type Tx struct {
	session
	done atomic.Bool
}

// Query returns an empty builder bound to this transaction.
func (tx *Tx) Query() *Builder {
	return NewBuilder(tx, tx.db.grammar)
}

// Table returns a builder targeting table inside this transaction.
func (tx *Tx) Table(table interface{}, as ...string) *Builder {
	return tx.Query().From(table, as...)
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	if !tx.done.CompareAndSwap(false, true) {
		return ErrTxDone
	}
	if err := tx.tx.Commit(); err != nil {
		return fmt.Errorf("quill: commit: %w", err)
	}
	return nil
}

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error {
	if !tx.done.CompareAndSwap(false, true) {
		return ErrTxDone
	}
	if err := tx.tx.Rollback(); err != nil {
		return fmt.Errorf("quill: rollback: %w", err)
	}
	return nil
}

// session executes statements on the pool or, when tx is set, on a transaction.
// It implements Connection for both DB and Tx.
type session struct {
	db   *DB
	tx   *sql.Tx
	done *atomic.Bool
}

// Get runs a query and materializes every row.
func (s *session) Get(ctx context.Context, query string, params []interface{}) ([]Row, error) {
	var rows []Row
	err := s.run(ctx, query, params, func(ctx context.Context, stmt *sql.Stmt, args []interface{}) (int64, error) {
		r, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return 0, err
		}
		defer func() { _ = r.Close() }()
		rows, err = scanRows(r, -1)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// First runs a query and returns its first row, or nil when there is none.
func (s *session) First(ctx context.Context, query string, params []interface{}) (Row, error) {
	var rows []Row
	err := s.run(ctx, query, params, func(ctx context.Context, stmt *sql.Stmt, args []interface{}) (int64, error) {
		r, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return 0, err
		}
		defer func() { _ = r.Close() }()
		rows, err = scanRows(r, 1)
		return int64(len(rows)), err
	})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Insert runs an INSERT.
func (s *session) Insert(ctx context.Context, query string, params []interface{}) (bool, error) {
	if _, err := s.AffectingStatement(ctx, query, params); err != nil {
		return false, err
	}
	return true, nil
}

// AffectingStatement runs a statement and returns the number of affected rows.
func (s *session) AffectingStatement(ctx context.Context, query string, params []interface{}) (int64, error) {
	var affected int64
	err := s.run(ctx, query, params, func(ctx context.Context, stmt *sql.Stmt, args []interface{}) (int64, error) {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, err
		}
		affected, err = res.RowsAffected()
		return affected, err
	})
	return affected, err
}

// Update runs an UPDATE.
func (s *session) Update(ctx context.Context, query string, params []interface{}) (int64, error) {
	return s.AffectingStatement(ctx, query, params)
}

// Delete runs a DELETE.
func (s *session) Delete(ctx context.Context, query string, params []interface{}) (int64, error) {
	return s.AffectingStatement(ctx, query, params)
}

// ProcessInsertGetID runs an INSERT and returns the generated key, read from
// the RETURNING row on PostgreSQL and from LastInsertId elsewhere.
func (s *session) ProcessInsertGetID(ctx context.Context, query string, params []interface{}, _ string) (int64, error) {
	var id int64
	err := s.run(ctx, query, params, func(ctx context.Context, stmt *sql.Stmt, args []interface{}) (int64, error) {
		if s.db.grammar.Name() == "postgres" {
			return 1, stmt.QueryRowContext(ctx, args...).Scan(&id)
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, err
		}
		id, err = res.LastInsertId()
		return 1, err
	})
	return id, err
}

// Statement runs several statements in order inside one transaction. On a
// Tx the statements join the open transaction.
func (s *session) Statement(ctx context.Context, sqls []string, params [][]interface{}) error {
	if s.tx != nil {
		return s.statements(ctx, sqls, params)
	}
	return s.db.Transaction(ctx, func(tx *Tx) error {
		return tx.statements(ctx, sqls, params)
	})
}

func (s *session) statements(ctx context.Context, sqls []string, params [][]interface{}) error {
	for i, query := range sqls {
		var args []interface{}
		if i < len(params) {
			args = params[i]
		}
		if _, err := s.AffectingStatement(ctx, query, args); err != nil {
			return err
		}
	}
	return nil
}

type stmtFunc func(ctx context.Context, stmt *sql.Stmt, args []interface{}) (int64, error)

// run prepares query, executes fn and reports the outcome to the tracer,
// logger and query hook.
func (s *session) run(ctx context.Context, query string, params []interface{}, fn stmtFunc) error {
	if s.done != nil && s.done.Load() {
		return ErrTxDone
	}
	if ctx == nil {
		ctx = context.Background()
	}

	operation := tracer.DetectOperation(query)
	ctx, span := s.db.tracer.StartSpan(ctx, tracer.SpanName(operation))
	defer span.End()

	start := time.Now()
	native := s.db.rebind(query)
	var rows int64
	err := s.db.validate(ctx, query, params)
	if err == nil {
		var stmt *sql.Stmt
		var release func()
		stmt, release, err = s.prepare(ctx, native)
		if err == nil {
			rows, err = fn(ctx, stmt, params)
			release()
		}
	}
	elapsed := time.Since(start)

	s.db.report(ctx, span, query, &tracer.QueryMetadata{
		SQL:          native,
		Args:         params,
		Duration:     elapsed,
		RowsAffected: rows,
		Error:        err,
		Database:     s.db.grammar.Name(),
		Operation:    operation,
		Table:        tracer.DetectTable(query),
	})
	if err != nil {
		return fmt.Errorf("quill: %s: %w", strings.ToLower(operation), err)
	}
	return nil
}

// prepare returns a prepared statement and its release func. Transactions
// prepare per call; the pool shares statements through the LRU cache, which
// keeps a statement open until every caller holding it has released it.
func (s *session) prepare(ctx context.Context, query string) (*sql.Stmt, func(), error) {
	if s.tx != nil {
		stmt, err := s.tx.PrepareContext(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		return stmt, func() { _ = stmt.Close() }, nil
	}

	if stmt, release, ok := s.db.stmtCache.Acquire(query); ok {
		return stmt, release, nil
	}
	stmt, err := s.db.sqlDB.PrepareContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	cached, release, stored := s.db.stmtCache.SetAndAcquire(query, stmt)
	if !stored {
		_ = stmt.Close()
	}
	return cached, release, nil
}

// report forwards the outcome of one statement to the tracer, logger and hook.
// query is the statement before placeholder renumbering, used to locate the
// bindings that must be masked.
func (db *DB) report(ctx context.Context, span tracer.Span, query string, meta *tracer.QueryMetadata) {
	tracer.AddQueryAttributes(span, meta)

	params := db.sanitizer.FormatParams(db.sanitizer.MaskParams(query, meta.Args))
	if meta.Error != nil {
		db.logger.Error("query execution failed",
			"sql", meta.SQL,
			"params", params,
			"duration_ms", meta.Duration.Milliseconds(),
			"database", db.driverName,
			"error", meta.Error,
		)
	} else {
		countKey := "rows_affected"
		if meta.Operation == "SELECT" || meta.Operation == "EXPLAIN" {
			countKey = "rows"
		}
		db.logger.Info("query executed",
			"sql", meta.SQL,
			"params", params,
			"duration_ms", meta.Duration.Milliseconds(),
			countKey, meta.RowsAffected,
			"database", db.driverName,
		)
	}

	if db.auditor != nil {
		db.auditor.LogOperation(ctx, meta.Operation, meta.Table, meta.SQL, meta.Args, meta.RowsAffected, meta.Error, meta.Duration)
	}

	db.invokeHook(ctx, QueryEvent{
		SQL:          meta.SQL,
		Args:         meta.Args,
		Duration:     meta.Duration,
		RowsAffected: meta.RowsAffected,
		Error:        meta.Error,
		Operation:    meta.Operation,
		Table:        meta.Table,
	})
}

// validate checks a statement against the configured validator. Rejections
// are recorded as security events.
func (db *DB) validate(ctx context.Context, query string, params []interface{}) error {
	if db.validator == nil {
		return nil
	}
	err := db.validator.Validate(query, params)
	if err != nil && db.auditor != nil {
		eventType := "query_blocked"
		if errors.Is(err, security.ErrUnsafeParam) {
			eventType = "params_blocked"
		}
		db.auditor.LogSecurityEvent(ctx, eventType, query, err)
	}
	return err
}

// rebind rewrites "?" placeholders into the dialect's positional form.
// Placeholders inside quoted strings and identifiers are left alone.
func (db *DB) rebind(query string) string {
	d := db.grammar.Dialect()
	if d.Placeholder(1) == "?" {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			n++
			sb.WriteString(d.Placeholder(n))
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// scanRows reads at most limit rows (all when limit < 0) into Row maps.
// []byte column values are converted to string.
func scanRows(rows *sql.Rows, limit int) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0)
	for rows.Next() {
		if limit >= 0 && len(out) >= limit {
			break
		}
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
