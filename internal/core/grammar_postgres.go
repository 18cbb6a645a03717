package core

import (
	"strings"
)

// postgresRules compiles the PostgreSQL dialect.
type postgresRules struct {
	standardRules
}

func (postgresRules) compileLock(_ *Grammar, lock interface{}) string {
	switch l := lock.(type) {
	case bool:
		if l {
			return "for update"
		}
		return "for share"
	case string:
		return l
	}
	return ""
}

func (postgresRules) dateBasedWhere(g *Grammar, w *Where) string {
	column := g.Wrap(w.Column)
	switch w.Kind {
	case WhereDate:
		column += "::date"
	case WhereTime:
		column += "::time"
	default:
		column = "extract(" + strings.ToLower(w.Kind.String()) + " from " + column + ")"
	}
	return column + " " + w.Operator + " " + g.Parameter(w.Value)
}

// wrapJSONSelector compiles "meta->a->b" into "meta"->'a'->>'b'.
func (postgresRules) wrapJSONSelector(g *Grammar, value string) string {
	path := strings.Split(value, "->")
	field := g.wrapSegments(strings.Split(path[0], "."))

	attributes := make([]string, 0, len(path)-1)
	for _, attr := range path[1:] {
		if isDigits(attr) {
			attributes = append(attributes, attr)
			continue
		}
		attributes = append(attributes, "'"+strings.ReplaceAll(attr, "'", "''")+"'")
	}

	last := attributes[len(attributes)-1]
	if rest := attributes[:len(attributes)-1]; len(rest) > 0 {
		return field + "->" + strings.Join(rest, "->") + "->>" + last
	}
	return field + "->>" + last
}

func (r postgresRules) wrapJSONBooleanSelector(g *Grammar, value string) string {
	return "(" + strings.ReplaceAll(r.wrapJSONSelector(g, value), "->>", "->") + ")::jsonb"
}

func (postgresRules) wrapJSONBooleanValue(_ *Grammar, value string) string {
	return "'" + value + "'::jsonb"
}

func (postgresRules) compileJSONContains(g *Grammar, column, value string) string {
	return "(" + strings.ReplaceAll(g.Wrap(column), "->>", "->") + ")::jsonb @> " + value
}

func (postgresRules) compileJSONLength(g *Grammar, column, operator, value string) string {
	column = strings.ReplaceAll(g.Wrap(column), "->>", "->")
	return "json_array_length((" + column + ")::json) " + operator + " " + value
}

func (postgresRules) compileInsertOrIgnore(g *Grammar, q *Builder, columns []string, records []map[string]interface{}) string {
	return g.CompileInsert(q, columns, records) + " on conflict do nothing"
}

func (postgresRules) compileInsertGetID(g *Grammar, q *Builder, columns []string, records []map[string]interface{}, sequence string) string {
	if sequence == "" {
		sequence = "id"
	}
	return g.CompileInsert(q, columns, records) + " returning " + g.Wrap(sequence)
}

func (postgresRules) compileUpsert(g *Grammar, q *Builder, columns []string, records []map[string]interface{}, uniqueBy, update []string) string {
	return compileUpsertWithDialect(g, q, columns, records, uniqueBy, update)
}

// compileUpdate targets joined or limited updates through the ctid system column.
func (postgresRules) compileUpdate(g *Grammar, q *Builder, values map[string]interface{}) string {
	if len(q.joins) > 0 || q.limit != nil {
		return g.compileUpdateWithRowKey(q, values, "ctid")
	}
	return joinNonEmpty("update "+g.WrapTable(q.from), "set", g.compileUpdateColumns(values, true), g.compileWheres(q, "where"))
}

func (postgresRules) prepareBindingsForUpdate(_ *Grammar, bindings Bindings, values []interface{}) []interface{} {
	return valuesFirstBindings(bindings, values)
}

func (postgresRules) compileDelete(g *Grammar, q *Builder) string {
	if len(q.joins) > 0 || q.limit != nil {
		return g.compileDeleteWithRowKey(q, "ctid")
	}
	return joinNonEmpty("delete from", g.WrapTable(q.from), g.compileWheres(q, "where"))
}

func (postgresRules) compileTruncate(g *Grammar, q *Builder) []Statement {
	return []Statement{{SQL: "truncate " + g.WrapTable(q.from) + " restart identity cascade", Bindings: []interface{}{}}}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
