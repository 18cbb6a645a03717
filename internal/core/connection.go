package core

import "context"

// Row is one materialized result row keyed by bare column name.
type Row map[string]interface{}

// Connection executes compiled statements. The builder core never talks to a
// database directly: every terminal method performs exactly one Connection call.
// Implementations must return driver errors unchanged or wrapped with %w.
type Connection interface {
	// Get runs a query and returns every row.
	Get(ctx context.Context, sql string, params []interface{}) ([]Row, error)
	// First runs a query and returns its first row, or nil when there are none.
	First(ctx context.Context, sql string, params []interface{}) (Row, error)
	// Insert runs an INSERT statement.
	Insert(ctx context.Context, sql string, params []interface{}) (bool, error)
	// AffectingStatement runs a statement and returns the number of affected rows.
	AffectingStatement(ctx context.Context, sql string, params []interface{}) (int64, error)
	// Update runs an UPDATE statement and returns the number of affected rows.
	Update(ctx context.Context, sql string, params []interface{}) (int64, error)
	// Delete runs a DELETE statement and returns the number of affected rows.
	Delete(ctx context.Context, sql string, params []interface{}) (int64, error)
	// ProcessInsertGetID runs an INSERT and returns the generated id.
	ProcessInsertGetID(ctx context.Context, sql string, params []interface{}, sequence string) (int64, error)
	// Statement runs several statements, pairing sqls[i] with params[i].
	Statement(ctx context.Context, sqls []string, params [][]interface{}) error
}

// Statement is one compiled SQL statement with its ordered bindings.
type Statement struct {
	SQL      string
	Bindings []interface{}
}
