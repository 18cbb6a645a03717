package core

import (
	"strings"
)

// mysqlRules compiles the MySQL dialect.
type mysqlRules struct {
	standardRules
}

func (mysqlRules) compileLock(_ *Grammar, lock interface{}) string {
	switch l := lock.(type) {
	case bool:
		if l {
			return "for update"
		}
		return "lock in share mode"
	case string:
		return l
	}
	return ""
}

func (mysqlRules) compileRandom(seed string) string {
	return "RAND(" + seed + ")"
}

func (mysqlRules) wrapJSONSelector(g *Grammar, value string) string {
	field, path := g.wrapJSONFieldAndPath(value)
	return "json_unquote(json_extract(" + field + path + "))"
}

func (mysqlRules) wrapJSONBooleanSelector(g *Grammar, value string) string {
	field, path := g.wrapJSONFieldAndPath(value)
	return "json_extract(" + field + path + ")"
}

func (mysqlRules) compileJSONContains(g *Grammar, column, value string) string {
	field, path := g.wrapJSONFieldAndPath(column)
	return "json_contains(" + field + ", " + value + path + ")"
}

func (mysqlRules) compileJSONLength(g *Grammar, column, operator, value string) string {
	field, path := g.wrapJSONFieldAndPath(column)
	return "json_length(" + field + path + ") " + operator + " " + value
}

func (mysqlRules) compileInsertDefaults(_ *Grammar, table string) string {
	return "insert into " + table + " () values ()"
}

func (mysqlRules) compileInsertOrIgnore(g *Grammar, q *Builder, columns []string, records []map[string]interface{}) string {
	return strings.Replace(g.CompileInsert(q, columns, records), "insert", "insert ignore", 1)
}

func (mysqlRules) compileUpsert(g *Grammar, q *Builder, columns []string, records []map[string]interface{}, uniqueBy, update []string) string {
	return compileUpsertWithDialect(g, q, columns, records, uniqueBy, update)
}

// compileUpdate appends ORDER BY and LIMIT to single-table updates, which
// MySQL supports natively.
func (r mysqlRules) compileUpdate(g *Grammar, q *Builder, values map[string]interface{}) string {
	sql := r.standardRules.compileUpdate(g, q, values)
	if len(q.joins) > 0 {
		return sql
	}
	return joinNonEmpty(sql, g.compileOrders(q.orders), limitClause(g, q))
}

func (r mysqlRules) compileDelete(g *Grammar, q *Builder) string {
	sql := r.standardRules.compileDelete(g, q)
	if len(q.joins) > 0 {
		return sql
	}
	return joinNonEmpty(sql, g.compileOrders(q.orders), limitClause(g, q))
}

func limitClause(g *Grammar, q *Builder) string {
	if q.limit == nil {
		return ""
	}
	return g.compileLimit(*q.limit)
}
