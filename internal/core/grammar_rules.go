package core

import (
	"strconv"
	"strings"
)

// dialectRules holds the grammar fragments that differ between engines.
// Each method receives the grammar so overrides can reuse its helpers and
// reach the other rules through g.rules.
type dialectRules interface {
	wrapUnion(g *Grammar, sql string) string
	compileOffset(g *Grammar, offset int, hasLimit bool) string
	compileLock(g *Grammar, lock interface{}) string
	compileRandom(seed string) string

	dateBasedWhere(g *Grammar, w *Where) string
	wrapJSONSelector(g *Grammar, value string) string
	wrapJSONBooleanSelector(g *Grammar, value string) string
	wrapJSONBooleanValue(g *Grammar, value string) string
	compileJSONContains(g *Grammar, column, value string) string
	compileJSONLength(g *Grammar, column, operator, value string) string

	compileInsertDefaults(g *Grammar, table string) string
	compileInsertOrIgnore(g *Grammar, q *Builder, columns []string, records []map[string]interface{}) string
	compileInsertGetID(g *Grammar, q *Builder, columns []string, records []map[string]interface{}, sequence string) string
	compileUpsert(g *Grammar, q *Builder, columns []string, records []map[string]interface{}, uniqueBy, update []string) string
	compileUpdate(g *Grammar, q *Builder, values map[string]interface{}) string
	prepareBindingsForUpdate(g *Grammar, bindings Bindings, values []interface{}) []interface{}
	compileDelete(g *Grammar, q *Builder) string
	compileTruncate(g *Grammar, q *Builder) []Statement
}

// standardRules is the generic ANSI rule set. Operations without a portable
// form raise ErrUnsupportedDialect.
type standardRules struct{}

func (standardRules) wrapUnion(_ *Grammar, sql string) string {
	return "(" + sql + ")"
}

func (standardRules) compileOffset(_ *Grammar, offset int, _ bool) string {
	return "offset " + strconv.Itoa(offset)
}

func (standardRules) compileLock(_ *Grammar, lock interface{}) string {
	if s, ok := lock.(string); ok {
		return s
	}
	return ""
}

func (standardRules) compileRandom(string) string {
	return "RANDOM()"
}

func (standardRules) dateBasedWhere(g *Grammar, w *Where) string {
	fn := strings.ToLower(w.Kind.String())
	return fn + "(" + g.Wrap(w.Column) + ") " + w.Operator + " " + g.Parameter(w.Value)
}

func (standardRules) wrapJSONSelector(_ *Grammar, _ string) string {
	unsupported("json selectors")
	return ""
}

func (standardRules) wrapJSONBooleanSelector(g *Grammar, value string) string {
	return g.rules.wrapJSONSelector(g, value)
}

func (standardRules) wrapJSONBooleanValue(_ *Grammar, value string) string {
	return value
}

func (standardRules) compileJSONContains(_ *Grammar, _, _ string) string {
	unsupported("json contains")
	return ""
}

func (standardRules) compileJSONLength(_ *Grammar, _, _, _ string) string {
	unsupported("json length")
	return ""
}

func (standardRules) compileInsertDefaults(_ *Grammar, table string) string {
	return "insert into " + table + " default values"
}

func (standardRules) compileInsertOrIgnore(_ *Grammar, _ *Builder, _ []string, _ []map[string]interface{}) string {
	unsupported("insert or ignore")
	return ""
}

func (standardRules) compileInsertGetID(g *Grammar, q *Builder, columns []string, records []map[string]interface{}, _ string) string {
	return g.CompileInsert(q, columns, records)
}

func (standardRules) compileUpsert(_ *Grammar, _ *Builder, _ []string, _ []map[string]interface{}, _, _ []string) string {
	unsupported("upserts")
	return ""
}

func (standardRules) compileUpdate(g *Grammar, q *Builder, values map[string]interface{}) string {
	parts := []string{"update", g.WrapTable(q.from)}
	if joins := g.compileJoins(q.joins); joins != "" {
		parts = append(parts, joins)
	}
	parts = append(parts, "set", g.compileUpdateColumns(values, false))
	if where := g.compileWheres(q, "where"); where != "" {
		parts = append(parts, where)
	}
	return strings.Join(parts, " ")
}

// prepareBindingsForUpdate places join bindings first, then the assigned
// values, then the remaining buckets except select.
func (standardRules) prepareBindingsForUpdate(_ *Grammar, bindings Bindings, values []interface{}) []interface{} {
	out := append([]interface{}{}, bindings[BindingJoin]...)
	out = append(out, values...)
	return append(out, bindings.Flatten(BindingSelect, BindingJoin)...)
}

func (standardRules) compileDelete(g *Grammar, q *Builder) string {
	table := g.WrapTable(q.from)
	where := g.compileWheres(q, "where")
	if len(q.joins) > 0 {
		aliased := aliasRegex.Split(table, -1)
		alias := aliased[len(aliased)-1]
		return joinNonEmpty("delete", alias, "from", table, g.compileJoins(q.joins), where)
	}
	return joinNonEmpty("delete from", table, where)
}

func (standardRules) compileTruncate(g *Grammar, q *Builder) []Statement {
	return []Statement{{SQL: "truncate table " + g.WrapTable(q.from), Bindings: []interface{}{}}}
}

// compileUpsertWithDialect appends the dialect's conflict clause to a plain INSERT.
func compileUpsertWithDialect(g *Grammar, q *Builder, columns []string, records []map[string]interface{}, uniqueBy, update []string) string {
	return g.CompileInsert(q, columns, records) + g.dialect.UpsertSQL(g.WrapTable(q.from), uniqueBy, update)
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// valuesFirstBindings puts the assigned values before every other bucket,
// matching UPDATE statements whose joins only appear in a row key subquery.
func valuesFirstBindings(bindings Bindings, values []interface{}) []interface{} {
	return append(append([]interface{}{}, values...), bindings.Flatten(BindingSelect)...)
}
