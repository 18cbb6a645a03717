package core

import "strings"

// GroupBy adds GROUP BY columns.
func (b *Builder) GroupBy(groups ...interface{}) *Builder {
	b.groups = append(b.groups, flattenColumns(groups)...)
	return b
}

// GroupByRaw adds a raw GROUP BY expression.
func (b *Builder) GroupByRaw(sql string) *Builder {
	b.groups = append(b.groups, Raw(sql))
	return b
}

// Having adds a HAVING condition with the same call shapes as Where.
func (b *Builder) Having(column interface{}, args ...interface{}) *Builder {
	return b.having(column, "and", args)
}

// OrHaving adds a HAVING condition joined with "or".
func (b *Builder) OrHaving(column interface{}, args ...interface{}) *Builder {
	return b.having(column, "or", args)
}

func (b *Builder) having(column interface{}, boolean string, args []interface{}) *Builder {
	operator, value, ok := prepareValueAndOperator(args)
	if !ok {
		return b
	}
	value = flattenValue(value)
	b.havings = append(b.havings, Having{
		Kind:     HavingBasic,
		Column:   column,
		Operator: operator,
		Value:    value,
		Boolean:  boolean,
	})
	if !isExpression(value) {
		b.bindings[BindingHaving] = append(b.bindings[BindingHaving], value)
	}
	return b
}

// HavingBetween adds a "having column between ? and ?" condition.
func (b *Builder) HavingBetween(column interface{}, from, to interface{}) *Builder {
	return b.havingBetween(column, from, to, "and", false)
}

// OrHavingBetween adds a between condition joined with "or".
func (b *Builder) OrHavingBetween(column interface{}, from, to interface{}) *Builder {
	return b.havingBetween(column, from, to, "or", false)
}

// HavingNotBetween adds a "having column not between ? and ?" condition.
func (b *Builder) HavingNotBetween(column interface{}, from, to interface{}) *Builder {
	return b.havingBetween(column, from, to, "and", true)
}

func (b *Builder) havingBetween(column interface{}, from, to interface{}, boolean string, not bool) *Builder {
	kind := HavingBetween
	if not {
		kind = HavingNotBetween
	}
	values := []interface{}{from, to}
	b.havings = append(b.havings, Having{Kind: kind, Column: column, Values: values, Boolean: boolean})
	b.AddBinding(cleanBindings(values), BindingHaving)
	return b
}

// HavingRaw adds a raw HAVING condition.
func (b *Builder) HavingRaw(sql string, bindings ...interface{}) *Builder {
	return b.havingRaw(sql, bindings, "and")
}

// OrHavingRaw adds a raw HAVING condition joined with "or".
func (b *Builder) OrHavingRaw(sql string, bindings ...interface{}) *Builder {
	return b.havingRaw(sql, bindings, "or")
}

func (b *Builder) havingRaw(sql string, bindings []interface{}, boolean string) *Builder {
	b.havings = append(b.havings, Having{Kind: HavingRaw, SQL: sql, Boolean: boolean})
	if len(bindings) > 0 {
		b.AddBinding(bindings, BindingHaving)
	}
	return b
}

// OrderBy adds an ORDER BY term. column may be a name, an Expression, a
// *Builder or a func(*Builder); subqueries are compiled immediately and their
// bindings stored in the order bucket. Once a union exists, orders apply to
// the union as a whole.
func (b *Builder) OrderBy(column interface{}, direction ...string) *Builder {
	dir := "asc"
	if len(direction) > 0 {
		dir = strings.ToLower(direction[0])
	}
	if dir != "asc" && dir != "desc" {
		fail(ErrInvalidDirection, "got %q", direction[0])
	}

	if isSubquery(column) {
		sql, bindings := b.createSub(column)
		column = Raw("(" + sql + ")")
		b.AddBinding(bindings, b.orderBindingType())
	}

	order := Order{Column: column, Direction: dir}
	if b.unions != nil {
		b.unionOrders = append(b.unionOrders, order)
	} else {
		b.orders = append(b.orders, order)
	}
	return b
}

// OrderByDesc adds a descending ORDER BY term.
func (b *Builder) OrderByDesc(column interface{}) *Builder {
	return b.OrderBy(column, "desc")
}

// Latest orders by column (created_at by default) descending.
func (b *Builder) Latest(column ...string) *Builder {
	return b.OrderBy(defaultTimestamp(column), "desc")
}

// Oldest orders by column (created_at by default) ascending.
func (b *Builder) Oldest(column ...string) *Builder {
	return b.OrderBy(defaultTimestamp(column), "asc")
}

func defaultTimestamp(column []string) string {
	if len(column) > 0 && column[0] != "" {
		return column[0]
	}
	return "created_at"
}

// InRandomOrder orders the results randomly using the dialect's random function.
func (b *Builder) InRandomOrder(seed ...string) *Builder {
	s := ""
	if len(seed) > 0 {
		s = seed[0]
	}
	return b.OrderByRaw(b.grammar.compileRandom(s))
}

// OrderByRaw adds a raw ORDER BY term.
func (b *Builder) OrderByRaw(sql string, bindings ...interface{}) *Builder {
	order := Order{SQL: sql}
	if b.unions != nil {
		b.unionOrders = append(b.unionOrders, order)
	} else {
		b.orders = append(b.orders, order)
	}
	if len(bindings) > 0 {
		b.AddBinding(bindings, b.orderBindingType())
	}
	return b
}

// Reorder removes every existing order and optionally adds a new one.
func (b *Builder) Reorder(column ...interface{}) *Builder {
	b.orders = nil
	b.unionOrders = nil
	b.bindings[BindingOrder] = []interface{}{}
	if len(column) == 0 || column[0] == nil {
		return b
	}
	direction := []string{}
	if len(column) > 1 {
		if dir, ok := column[1].(string); ok {
			direction = append(direction, dir)
		}
	}
	return b.OrderBy(column[0], direction...)
}

func (b *Builder) orderBindingType() BindingType {
	if b.unions != nil {
		return BindingUnion
	}
	return BindingOrder
}

// Skip sets the OFFSET. Negative values clamp to zero.
func (b *Builder) Skip(n int) *Builder {
	if n < 0 {
		n = 0
	}
	if b.unions != nil {
		b.unionOffset = intPtr(n)
	} else {
		b.offset = intPtr(n)
	}
	return b
}

// Offset is an alias of Skip.
func (b *Builder) Offset(n int) *Builder {
	return b.Skip(n)
}

// Take sets the LIMIT. Negative values leave the limit unchanged.
func (b *Builder) Take(n int) *Builder {
	if n < 0 {
		return b
	}
	if b.unions != nil {
		b.unionLimit = intPtr(n)
	} else {
		b.limit = intPtr(n)
	}
	return b
}

// Limit is an alias of Take.
func (b *Builder) Limit(n int) *Builder {
	return b.Take(n)
}

// ForPage sets offset and limit for a 1-based page of perPage rows.
func (b *Builder) ForPage(page, perPage int) *Builder {
	return b.Skip((page - 1) * perPage).Take(perPage)
}

// Union appends a UNION branch. query is a *Builder or a func(*Builder).
func (b *Builder) Union(query interface{}, all ...bool) *Builder {
	var q *Builder
	switch v := query.(type) {
	case *Builder:
		q = v
	case func(*Builder):
		q = b.newQuery()
		v(q)
	default:
		fail(ErrInvalidSubquery, "union expects a builder or callback, got %T", query)
	}
	b.unions = append(b.unions, Union{Query: q, All: len(all) > 0 && all[0]})
	b.AddBinding(q.GetBindings(), BindingUnion)
	return b
}

// UnionAll appends a UNION ALL branch.
func (b *Builder) UnionAll(query interface{}) *Builder {
	return b.Union(query, true)
}

// Lock sets a row lock: true for an exclusive lock, false for a shared lock,
// or a string for a raw lock clause.
func (b *Builder) Lock(value interface{}) *Builder {
	b.lock = value
	return b
}

// LockForUpdate locks the selected rows for update.
func (b *Builder) LockForUpdate() *Builder {
	return b.Lock(true)
}

// SharedLock takes a shared lock on the selected rows.
func (b *Builder) SharedLock() *Builder {
	return b.Lock(false)
}

func isSubquery(v interface{}) bool {
	switch v.(type) {
	case *Builder, func(*Builder):
		return true
	}
	return false
}
