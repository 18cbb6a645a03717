package dialects

import (
	"fmt"
	"strings"
)

// MySQLDialect implements MySQL-specific SQL dialect.
type MySQLDialect struct{}

func init() {
	RegisterDialect("mysql", &MySQLDialect{})
}

// Name returns "mysql".
func (d *MySQLDialect) Name() string { return "mysql" }

// QuoteIdentifier quotes a MySQL identifier using backticks.
func (d *MySQLDialect) QuoteIdentifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Placeholder returns MySQL placeholder format (always "?").
func (d *MySQLDialect) Placeholder(_ int) string {
	return "?"
}

// UpsertSQL generates MySQL UPSERT syntax using ON DUPLICATE KEY UPDATE.
// MySQL resolves conflicts against every unique key, so uniqueBy is ignored.
func (d *MySQLDialect) UpsertSQL(_ string, _, update []string) string {
	if len(update) == 0 {
		// No DO NOTHING form exists; callers use insert ignore instead.
		return ""
	}

	updates := make([]string, len(update))
	for i, col := range update {
		q := d.QuoteIdentifier(col)
		updates[i] = fmt.Sprintf("%s = values(%s)", q, q)
	}
	return " on duplicate key update " + strings.Join(updates, ", ")
}
