package dialects

import (
	"fmt"
	"strings"
)

// SQLiteDialect implements SQLite-specific SQL dialect.
type SQLiteDialect struct{}

func init() {
	RegisterDialect("sqlite", &SQLiteDialect{})
	RegisterDialect("sqlite3", &SQLiteDialect{})
}

// Name returns "sqlite".
func (d *SQLiteDialect) Name() string { return "sqlite" }

// QuoteIdentifier quotes a SQLite identifier using double quotes.
func (d *SQLiteDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Placeholder returns SQLite placeholder format (always "?").
func (d *SQLiteDialect) Placeholder(_ int) string {
	return "?"
}

// UpsertSQL generates SQLite UPSERT syntax using ON CONFLICT.
func (d *SQLiteDialect) UpsertSQL(_ string, uniqueBy, update []string) string {
	target := ""
	if len(uniqueBy) > 0 {
		target = " (" + strings.Join(quoteAll(d, uniqueBy), ", ") + ")"
	}
	if update == nil {
		return " on conflict" + target + " do nothing"
	}

	sets := make([]string, len(update))
	for i, col := range update {
		q := d.QuoteIdentifier(col)
		sets[i] = fmt.Sprintf("%s = excluded.%s", q, q)
	}
	return " on conflict" + target + " do update set " + strings.Join(sets, ", ")
}
