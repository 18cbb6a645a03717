// Package core provides the statement model, the fluent query builder, the SQL grammars
// and the database/sql connection used by quill.
package core

import (
	"regexp"
	"strings"

	"github.com/coregx/quill/internal/util"
)

// aliasRegex splits "table as alias" and "column as alias" identifiers.
var aliasRegex = regexp.MustCompile(`(?i)\s+as\s+`)

// Builder is the mutable model of one SQL statement plus its fluent construction API.
// Every clause method mutates the builder in place and returns it for chaining;
// use Clone, CloneWithout or CloneWithoutBindings to branch a statement.
//
// A Builder is owned by a single goroutine and lives for one logical statement.
type Builder struct {
	conn    Connection
	grammar *Grammar
	factory func() *Builder // produces plain builders for subqueries

	bindings Bindings
	// fromBindings counts the leading join-bucket values that belong to a raw
	// or subquery FROM; the FROM text precedes every join.
	fromBindings int

	aggregate   *aggregate
	columns     []interface{}
	distinct    bool
	from        interface{}
	joins       []*JoinClause
	wheres      []Where
	groups      []interface{}
	havings     []Having
	orders      []Order
	limit       *int
	offset      *int
	unions      []Union
	unionLimit  *int
	unionOffset *int
	unionOrders []Order
	lock        interface{}
}

// NewBuilder creates an empty builder compiling with grammar and executing on conn.
// A nil grammar falls back to the generic ANSI grammar; conn may be nil for
// builders that are only compiled.
func NewBuilder(conn Connection, grammar *Grammar) *Builder {
	if grammar == nil {
		grammar = DefaultGrammar()
	}
	return &Builder{
		conn:     conn,
		grammar:  grammar,
		bindings: newBindings(),
	}
}

// NewQuery returns a fresh builder sharing this builder's connection and grammar.
func (b *Builder) NewQuery() *Builder {
	return b.newQuery()
}

func (b *Builder) newQuery() *Builder {
	if b.factory != nil {
		return b.factory()
	}
	return NewBuilder(b.conn, b.grammar)
}

// forSubQuery creates the builder handed to subquery callbacks.
func (b *Builder) forSubQuery() *Builder {
	return b.newQuery()
}

// Grammar returns the grammar used to compile this builder.
func (b *Builder) Grammar() *Grammar {
	return b.grammar
}

// Connection returns the connection used by terminal methods.
func (b *Builder) Connection() Connection {
	return b.conn
}

// Select sets the columns to be selected, replacing earlier columns and select bindings.
func (b *Builder) Select(columns ...interface{}) *Builder {
	b.columns = flattenColumns(columns)
	b.bindings[BindingSelect] = []interface{}{}
	return b
}

// AddSelect appends columns to the select list.
func (b *Builder) AddSelect(columns ...interface{}) *Builder {
	b.columns = append(b.columns, flattenColumns(columns)...)
	return b
}

// SelectRaw appends a raw select expression with optional bindings.
func (b *Builder) SelectRaw(expression string, bindings ...interface{}) *Builder {
	b.AddSelect(Raw(expression))
	if len(bindings) > 0 {
		b.AddBinding(bindings, BindingSelect)
	}
	return b
}

// SelectSub selects a subquery as an aliased column. The subquery is compiled
// immediately; its SQL is inlined and its bindings join the select bucket.
func (b *Builder) SelectSub(query interface{}, as string) *Builder {
	sql, bindings := b.createSub(query)
	return b.SelectRaw("("+sql+") as "+b.grammar.Wrap(as), bindings...)
}

// Distinct forces the query to return distinct results.
func (b *Builder) Distinct() *Builder {
	b.distinct = true
	return b
}

// From sets the table the query targets, optionally aliased.
func (b *Builder) From(table interface{}, as ...string) *Builder {
	if len(as) > 0 && as[0] != "" {
		if s, ok := table.(string); ok {
			table = s + " as " + as[0]
		}
	}
	b.from = table
	b.setFromBindings(nil)
	return b
}

// Table is an alias of From.
func (b *Builder) Table(table interface{}, as ...string) *Builder {
	return b.From(table, as...)
}

// FromSub makes a subquery the source of the query. The subquery bindings lead
// the join bucket so they precede every join and where binding, whenever
// FromSub is called.
func (b *Builder) FromSub(query interface{}, as string) *Builder {
	sql, bindings := b.createSub(query)
	return b.FromRaw("("+sql+") as "+b.grammar.WrapTable(as), bindings...)
}

// FromRaw sets a raw FROM expression.
func (b *Builder) FromRaw(expression string, bindings ...interface{}) *Builder {
	b.from = Raw(expression)
	b.setFromBindings(bindings)
	return b
}

// setFromBindings replaces the FROM values at the head of the join bucket.
func (b *Builder) setFromBindings(values []interface{}) {
	join := b.bindings[BindingJoin]
	n := b.fromBindings
	if n > len(join) {
		n = len(join)
	}
	if n == 0 && len(values) == 0 {
		return
	}
	out := make([]interface{}, 0, len(values)+len(join)-n)
	out = append(out, values...)
	b.bindings[BindingJoin] = append(out, join[n:]...)
	b.fromBindings = len(values)
}

// createSub compiles a subquery argument into SQL and its flattened bindings.
func (b *Builder) createSub(query interface{}) (string, []interface{}) {
	if fn, ok := query.(func(*Builder)); ok {
		sub := b.forSubQuery()
		fn(sub)
		query = sub
	}
	return parseSub(query)
}

// parseSub extracts SQL and bindings from a builder, raw expression or string.
func parseSub(query interface{}) (string, []interface{}) {
	switch q := query.(type) {
	case *Builder:
		return q.ToSQL(), q.GetBindings()
	case *JoinClause:
		return q.ToSQL(), q.GetBindings()
	case string:
		return q, []interface{}{}
	case Expression:
		return q.Value(), []interface{}{}
	}
	fail(ErrInvalidSubquery, "subquery must be a builder, callback or string, got %T", query)
	return "", nil
}

// AddBinding appends a value (or every element of a slice) to the named bucket.
func (b *Builder) AddBinding(value interface{}, typ BindingType) *Builder {
	if !typ.valid() {
		fail(ErrInvalidBindingType, "%q", string(typ))
	}
	if values, ok := util.ToSlice(value); ok {
		b.bindings[typ] = append(b.bindings[typ], values...)
	} else {
		b.bindings[typ] = append(b.bindings[typ], value)
	}
	return b
}

// SetBindings replaces the contents of one bucket.
func (b *Builder) SetBindings(values []interface{}, typ BindingType) *Builder {
	if !typ.valid() {
		fail(ErrInvalidBindingType, "%q", string(typ))
	}
	b.bindings[typ] = append([]interface{}{}, values...)
	if typ == BindingJoin {
		b.fromBindings = 0
	}
	return b
}

// MergeBindings appends every bucket of other onto the same bucket of b.
func (b *Builder) MergeBindings(other *Builder) *Builder {
	for _, t := range bindingOrder {
		b.bindings[t] = append(b.bindings[t], other.bindings[t]...)
	}
	return b
}

// GetBindings returns the bindings flattened in bucket order, ready for execution.
func (b *Builder) GetBindings() []interface{} {
	return b.bindings.Flatten()
}

// GetRawBindings returns a copy of the bucketed bindings.
func (b *Builder) GetRawBindings() Bindings {
	return b.bindings.clone()
}

// ToSQL compiles the builder into a SELECT statement with "?" placeholders.
func (b *Builder) ToSQL() string {
	return b.grammar.CompileSelect(b)
}

// Clone returns a copy whose clause lists and bindings can be changed without
// affecting b. Nested subquery builders are shared.
func (b *Builder) Clone() *Builder {
	c := *b
	c.bindings = b.bindings.clone()
	c.columns = cloneSlice(b.columns)
	c.joins = cloneSlice(b.joins)
	c.wheres = cloneSlice(b.wheres)
	c.groups = cloneSlice(b.groups)
	c.havings = cloneSlice(b.havings)
	c.orders = cloneSlice(b.orders)
	c.unions = cloneSlice(b.unions)
	c.unionOrders = cloneSlice(b.unionOrders)
	if b.aggregate != nil {
		agg := *b.aggregate
		c.aggregate = &agg
	}
	return &c
}

// CloneWithout clones the builder and resets the given components.
func (b *Builder) CloneWithout(components ...Component) *Builder {
	c := b.Clone()
	for _, comp := range components {
		switch comp {
		case ComponentAggregate:
			c.aggregate = nil
		case ComponentColumns:
			c.columns = nil
		case ComponentJoins:
			c.joins = nil
		case ComponentWheres:
			c.wheres = nil
		case ComponentGroups:
			c.groups = nil
		case ComponentHavings:
			c.havings = nil
		case ComponentOrders:
			c.orders = nil
		case ComponentLimit:
			c.limit = nil
		case ComponentOffset:
			c.offset = nil
		case ComponentUnions:
			c.unions = nil
		case ComponentUnionOrders:
			c.unionOrders = nil
		case ComponentUnionLimit:
			c.unionLimit = nil
		case ComponentUnionOffset:
			c.unionOffset = nil
		case ComponentLock:
			c.lock = nil
		}
	}
	return c
}

// CloneWithoutBindings clones the builder and empties the given buckets.
func (b *Builder) CloneWithoutBindings(types ...BindingType) *Builder {
	c := b.Clone()
	for _, t := range types {
		if !t.valid() {
			fail(ErrInvalidBindingType, "%q", string(t))
		}
		c.bindings[t] = []interface{}{}
		if t == BindingJoin {
			c.fromBindings = 0
		}
	}
	return c
}

// tableAlias returns the alias of the target table, or the table itself.
func (b *Builder) tableAlias() string {
	parts := aliasRegex.Split(b.fromString(), -1)
	return strings.TrimSpace(parts[len(parts)-1])
}

// tableName returns the target table without its alias.
func (b *Builder) tableName() string {
	parts := aliasRegex.Split(b.fromString(), -1)
	return strings.TrimSpace(parts[0])
}

func (b *Builder) fromString() string {
	switch f := b.from.(type) {
	case string:
		return f
	case Expression:
		return f.Value()
	}
	return ""
}

// flattenColumns expands []string and other lists passed as a single column.
func flattenColumns(columns []interface{}) []interface{} {
	out := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		if list, ok := util.ToSlice(col); ok {
			out = append(out, list...)
			continue
		}
		out = append(out, col)
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func intPtr(n int) *int {
	return &n
}
