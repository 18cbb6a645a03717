// Package analyzer turns EXPLAIN output into a QueryPlan. It builds the
// EXPLAIN statement for PostgreSQL, MySQL and SQLite and parses the rows
// the database returns; running the statement is left to the caller.
package analyzer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnsupported is returned for engines or modes without an EXPLAIN form.
var ErrUnsupported = errors.New("explain not supported")

// QueryPlan is the engine-independent summary of an execution plan.
type QueryPlan struct {
	Cost          float64       // Estimated query cost (database-specific units)
	EstimatedRows int64         // Estimated number of rows to be processed
	ActualRows    int64         // Actual rows processed (analyze only)
	ActualTime    time.Duration // Actual execution time (analyze only)

	UsesIndex bool   // true if query uses any index
	IndexName string // First index found in the plan
	FullScan  bool   // true if any table is scanned sequentially

	RawOutput string // Full EXPLAIN output from database
	Database  string // postgres, mysql or sqlite

	BuffersHit   int64 // PostgreSQL: buffer cache hits
	BuffersMiss  int64 // PostgreSQL: buffer cache misses
	RowsExamined int64 // MySQL: rows examined during execution
	RowsProduced int64 // MySQL: rows produced by the query
}

// Statement prefixes query with the EXPLAIN form of database. With analyze
// the query is executed and actual metrics are collected.
func Statement(database, query string, analyze bool) (string, error) {
	switch database {
	case "postgres":
		if analyze {
			return "explain (analyze, format json, buffers) " + query, nil
		}
		return "explain (format json) " + query, nil
	case "mysql":
		if analyze {
			// Requires MySQL 8.0.18+; the output is a text tree.
			return "explain analyze " + query, nil
		}
		return "explain format=json " + query, nil
	case "sqlite":
		if analyze {
			return "", fmt.Errorf("%w: sqlite has no explain analyze", ErrUnsupported)
		}
		return "explain query plan " + query, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, database)
}

// Parse builds a QueryPlan from the rows returned by the statement
// produced by Statement for the same database and mode.
func Parse(database string, rows []map[string]interface{}, analyze bool) (*QueryPlan, error) {
	var (
		plan *QueryPlan
		raw  string
		err  error
	)
	switch database {
	case "postgres":
		raw = firstColumn(rows)
		plan, err = parsePostgresExplain(raw, analyze)
	case "mysql":
		raw = firstColumn(rows)
		if analyze {
			plan = parseMySQLAnalyze(raw)
		} else {
			plan, err = parseMySQLExplain(raw)
		}
	case "sqlite":
		lines := detailLines(rows)
		plan = parseSQLiteExplain(lines)
		raw = strings.Join(lines, "\n")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, database)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse EXPLAIN output: %w", err)
	}

	plan.RawOutput = raw
	plan.Database = database
	return plan, nil
}

// firstColumn returns the single value of a one-row, one-column result.
func firstColumn(rows []map[string]interface{}) string {
	if len(rows) == 0 {
		return ""
	}
	for _, v := range rows[0] {
		return text(v)
	}
	return ""
}

// detailLines collects the "detail" column of SQLite EXPLAIN QUERY PLAN rows.
func detailLines(rows []map[string]interface{}) []string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, text(row["detail"]))
	}
	return lines
}

func text(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}
