package core

import (
	"strings"

	"github.com/coregx/quill/internal/util"
)

// CompileInsert compiles a multi-row INSERT. columns are the shared record
// keys in emission order; an empty column list inserts a row of defaults.
func (g *Grammar) CompileInsert(q *Builder, columns []string, records []map[string]interface{}) string {
	table := g.WrapTable(q.from)
	if len(columns) == 0 {
		return g.rules.compileInsertDefaults(g, table)
	}
	rows := make([]string, len(records))
	for i, record := range records {
		values := make([]interface{}, len(columns))
		for j, col := range columns {
			values[j] = record[col]
		}
		rows[i] = "(" + g.Parameterize(values) + ")"
	}
	return "insert into " + table + " (" + g.columnizeNames(columns) + ") values " + strings.Join(rows, ", ")
}

// CompileInsertOrIgnore compiles an INSERT that skips conflicting rows.
func (g *Grammar) CompileInsertOrIgnore(q *Builder, columns []string, records []map[string]interface{}) string {
	return g.rules.compileInsertOrIgnore(g, q, columns, records)
}

// CompileInsertGetID compiles an INSERT whose generated key is read back.
func (g *Grammar) CompileInsertGetID(q *Builder, columns []string, records []map[string]interface{}, sequence string) string {
	return g.rules.compileInsertGetID(g, q, columns, records, sequence)
}

// CompileInsertUsing compiles "insert into t (cols) <select>".
func (g *Grammar) CompileInsertUsing(q *Builder, columns []string, sql string) string {
	table := g.WrapTable(q.from)
	if len(columns) == 0 {
		return "insert into " + table + " " + sql
	}
	return "insert into " + table + " (" + g.columnizeNames(columns) + ") " + sql
}

// CompileUpsert compiles an INSERT with a conflict-resolution suffix.
func (g *Grammar) CompileUpsert(q *Builder, columns []string, records []map[string]interface{}, uniqueBy, update []string) string {
	return g.rules.compileUpsert(g, q, columns, records, uniqueBy, update)
}

// CompileUpdate compiles an UPDATE of values (emitted in sorted key order).
func (g *Grammar) CompileUpdate(q *Builder, values map[string]interface{}) string {
	return g.rules.compileUpdate(g, q, values)
}

// PrepareBindingsForUpdate orders the bindings of an UPDATE to match its SQL.
func (g *Grammar) PrepareBindingsForUpdate(bindings Bindings, values map[string]interface{}) []interface{} {
	return g.rules.prepareBindingsForUpdate(g, bindings, updateValues(values))
}

// CompileDelete compiles a DELETE.
func (g *Grammar) CompileDelete(q *Builder) string {
	return g.rules.compileDelete(g, q)
}

// PrepareBindingsForDelete orders the bindings of a DELETE to match its SQL.
func (g *Grammar) PrepareBindingsForDelete(bindings Bindings) []interface{} {
	return bindings.Flatten(BindingSelect)
}

// CompileTruncate compiles the statements that empty the target table.
func (g *Grammar) CompileTruncate(q *Builder) []Statement {
	return g.rules.compileTruncate(g, q)
}

// columnizeNames wraps plain column names.
func (g *Grammar) columnizeNames(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = g.Wrap(c)
	}
	return strings.Join(parts, ", ")
}

// compileUpdateColumns emits "col = ?" assignments in sorted key order.
// unqualified drops any "table." qualifier from the assigned column.
func (g *Grammar) compileUpdateColumns(values map[string]interface{}, unqualified bool) string {
	keys := util.SortedKeys(values)
	parts := make([]string, len(keys))
	for i, key := range keys {
		column := key
		if unqualified {
			if idx := strings.LastIndex(column, "."); idx >= 0 {
				column = column[idx+1:]
			}
		}
		parts[i] = g.Wrap(column) + " = " + g.Parameter(values[key])
	}
	return strings.Join(parts, ", ")
}

// updateValues returns the bindable update values in sorted key order.
func updateValues(values map[string]interface{}) []interface{} {
	keys := util.SortedKeys(values)
	out := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		if !isExpression(values[key]) {
			out = append(out, values[key])
		}
	}
	return out
}

// compileUpdateWithRowKey compiles an UPDATE whose target rows are picked by
// a key subquery ("rowid" on SQLite, "ctid" on PostgreSQL), used when the
// engine cannot join or limit an UPDATE directly.
func (g *Grammar) compileUpdateWithRowKey(q *Builder, values map[string]interface{}, key string) string {
	return "update " + g.WrapTable(q.from) + " set " + g.compileUpdateColumns(values, true) +
		" where " + g.wrapValue(key) + " in (" + g.compileRowKeySelect(q, key) + ")"
}

// compileDeleteWithRowKey is the DELETE counterpart of compileUpdateWithRowKey.
func (g *Grammar) compileDeleteWithRowKey(q *Builder, key string) string {
	return "delete from " + g.WrapTable(q.from) +
		" where " + g.wrapValue(key) + " in (" + g.compileRowKeySelect(q, key) + ")"
}

func (g *Grammar) compileRowKeySelect(q *Builder, key string) string {
	sub := q.CloneWithout(ComponentAggregate, ComponentLock)
	sub.columns = []interface{}{q.tableAlias() + "." + key}
	sub.distinct = false
	return g.CompileSelect(sub)
}
