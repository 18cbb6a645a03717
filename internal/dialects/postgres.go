package dialects

import (
	"fmt"
	"strings"
)

// PostgresDialect implements PostgreSQL-specific SQL dialect.
type PostgresDialect struct{}

func init() {
	RegisterDialect("postgres", &PostgresDialect{})
	RegisterDialect("postgresql", &PostgresDialect{})
}

// Name returns "postgres".
func (d *PostgresDialect) Name() string { return "postgres" }

// QuoteIdentifier quotes a PostgreSQL identifier using double quotes.
func (d *PostgresDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Placeholder returns PostgreSQL placeholder format ($1, $2, etc.).
func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// UpsertSQL generates PostgreSQL UPSERT syntax using ON CONFLICT.
func (d *PostgresDialect) UpsertSQL(_ string, uniqueBy, update []string) string {
	target := ""
	if len(uniqueBy) > 0 {
		target = " (" + strings.Join(quoteAll(d, uniqueBy), ", ") + ")"
	}
	if update == nil {
		return " on conflict" + target + " do nothing"
	}
	return " on conflict" + target + " do update set " + buildUpdateSet(d, update)
}

// buildUpdateSet builds the SET list assigning each column from EXCLUDED.
func buildUpdateSet(d Dialect, cols []string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		q := d.QuoteIdentifier(col)
		parts[i] = fmt.Sprintf("%s = excluded.%s", q, q)
	}
	return strings.Join(parts, ", ")
}
