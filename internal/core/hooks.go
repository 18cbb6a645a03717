package core

import (
	"context"
	"time"
)

// QueryEvent describes one executed statement.
type QueryEvent struct {
	// SQL is the statement as sent to the driver
	SQL string
	// Args are the bound values
	Args []interface{}
	// Duration covers prepare and execution
	Duration time.Duration
	// RowsAffected is the affected row count, or the returned row count for SELECT
	RowsAffected int64
	// Error is the failure, nil on success
	Error error
	// Operation is SELECT, INSERT, UPDATE, DELETE, TRUNCATE, EXPLAIN or UNKNOWN
	Operation string
	// Table is the first table the statement touches, "" when unknown
	Table string
}

// QueryHook is called after every statement a DB or Tx executes.
//
// Example:
//
//	db, _ := quill.Open("sqlite", ":memory:",
//	    quill.WithQueryHook(func(ctx context.Context, e quill.QueryEvent) {
//	        metrics.Observe(e.Operation, e.Duration)
//	    }))
type QueryHook func(ctx context.Context, event QueryEvent)

func (db *DB) invokeHook(ctx context.Context, event QueryEvent) {
	if db.queryHook != nil {
		db.queryHook(ctx, event)
	}
}
