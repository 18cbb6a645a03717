// Package dialects provides the low-level, per-database SQL conventions used by the
// query grammars: identifier quoting, positional placeholder format and UPSERT suffixes
// for PostgreSQL, MySQL, and SQLite.
package dialects

import (
	"sort"
	"sync"
)

// Dialect defines database-specific lexical behaviors.
type Dialect interface {
	// Name returns the canonical dialect name (sqlite, postgres, mysql).
	Name() string
	// QuoteIdentifier quotes a single identifier segment, escaping embedded quotes.
	QuoteIdentifier(string) string
	// Placeholder returns the positional placeholder for the 1-based parameter index.
	Placeholder(int) string
	// UpsertSQL returns the conflict-resolution suffix appended to an INSERT statement.
	// A nil update list means "do nothing" on conflict.
	UpsertSQL(table string, uniqueBy, update []string) string
}

var (
	mu       sync.RWMutex
	dialects = make(map[string]Dialect)
)

// RegisterDialect registers a database dialect by driver name.
func RegisterDialect(name string, d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	dialects[name] = d
}

// GetDialect retrieves a registered dialect by driver name, panics if not found.
func GetDialect(name string) Dialect {
	d, ok := Lookup(name)
	if !ok {
		panic("unsupported dialect: " + name)
	}
	return d
}

// Lookup retrieves a registered dialect by driver name.
func Lookup(name string) (Dialect, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := dialects[name]
	return d, ok
}

// Names returns the registered driver names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// quoteAll quotes every column with the dialect.
func quoteAll(d Dialect, cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = d.QuoteIdentifier(col)
	}
	return quoted
}
