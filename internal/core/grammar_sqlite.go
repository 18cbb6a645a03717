package core

import (
	"strings"
)

// sqliteRules compiles the SQLite dialect.
type sqliteRules struct {
	standardRules
}

// wrapUnion selects from each branch so branches may carry their own
// order and limit clauses.
func (sqliteRules) wrapUnion(_ *Grammar, sql string) string {
	return "select * from (" + sql + ")"
}

// compileOffset emits "limit -1" when there is no limit, since SQLite
// rejects an OFFSET on its own.
func (sqliteRules) compileOffset(_ *Grammar, offset int, hasLimit bool) string {
	if hasLimit {
		return "offset " + itoa(offset)
	}
	return "limit -1 offset " + itoa(offset)
}

// compileLock is empty: SQLite has no row-level locks.
func (sqliteRules) compileLock(*Grammar, interface{}) string {
	return ""
}

var sqliteDateFormats = map[WhereKind]string{
	WhereDate:  "%Y-%m-%d",
	WhereTime:  "%H:%M:%S",
	WhereDay:   "%d",
	WhereMonth: "%m",
	WhereYear:  "%Y",
}

func (sqliteRules) dateBasedWhere(g *Grammar, w *Where) string {
	return "strftime('" + sqliteDateFormats[w.Kind] + "', " + g.Wrap(w.Column) + ") " +
		w.Operator + " cast(" + g.Parameter(w.Value) + " as text)"
}

func (sqliteRules) wrapJSONSelector(g *Grammar, value string) string {
	field, path := g.wrapJSONFieldAndPath(value)
	return "json_extract(" + field + path + ")"
}

func (sqliteRules) compileJSONLength(g *Grammar, column, operator, value string) string {
	field, path := g.wrapJSONFieldAndPath(column)
	return "json_array_length(" + field + path + ") " + operator + " " + value
}

func (sqliteRules) compileInsertOrIgnore(g *Grammar, q *Builder, columns []string, records []map[string]interface{}) string {
	return strings.Replace(g.CompileInsert(q, columns, records), "insert", "insert or ignore", 1)
}

func (sqliteRules) compileUpsert(g *Grammar, q *Builder, columns []string, records []map[string]interface{}, uniqueBy, update []string) string {
	return compileUpsertWithDialect(g, q, columns, records, uniqueBy, update)
}

func (sqliteRules) compileUpdate(g *Grammar, q *Builder, values map[string]interface{}) string {
	if len(q.joins) > 0 || q.limit != nil {
		return g.compileUpdateWithRowKey(q, values, "rowid")
	}
	return joinNonEmpty("update "+g.WrapTable(q.from), "set", g.compileUpdateColumns(values, true), g.compileWheres(q, "where"))
}

func (sqliteRules) prepareBindingsForUpdate(_ *Grammar, bindings Bindings, values []interface{}) []interface{} {
	return valuesFirstBindings(bindings, values)
}

func (sqliteRules) compileDelete(g *Grammar, q *Builder) string {
	if len(q.joins) > 0 || q.limit != nil {
		return g.compileDeleteWithRowKey(q, "rowid")
	}
	return joinNonEmpty("delete from", g.WrapTable(q.from), g.compileWheres(q, "where"))
}

// compileTruncate resets the autoincrement counter and deletes every row.
func (sqliteRules) compileTruncate(g *Grammar, q *Builder) []Statement {
	table := g.tablePrefix + q.tableName()
	return []Statement{
		{SQL: "delete from sqlite_sequence where name = ?", Bindings: []interface{}{table}},
		{SQL: "delete from " + g.WrapTable(q.from), Bindings: []interface{}{}},
	}
}
