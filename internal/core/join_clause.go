package core

// Join types.
const (
	JoinInner = "inner"
	JoinLeft  = "left"
	JoinRight = "right"
	JoinCross = "cross"
)

// JoinClause is a Builder specialized for the ON conditions of one join.
// Its where clauses compile after the "on" keyword.
type JoinClause struct {
	*Builder

	Type  string
	Table interface{}

	parent *Builder
}

func newJoinClause(parent *Builder, joinType string, table interface{}) *JoinClause {
	q := NewBuilder(parent.conn, parent.grammar)
	q.factory = parent.newQuery
	return &JoinClause{Builder: q, Type: joinType, Table: table, parent: parent}
}

// On adds an "on" condition comparing two columns. first may also be a
// func(*JoinClause) building a parenthesized group of conditions.
//
//	j.On("users.id", "=", "contacts.user_id")
//	j.On("users.id", "contacts.user_id")
func (j *JoinClause) On(first interface{}, args ...interface{}) *JoinClause {
	return j.on(first, "and", args)
}

// OrOn adds an "or on" condition.
func (j *JoinClause) OrOn(first interface{}, args ...interface{}) *JoinClause {
	return j.on(first, "or", args)
}

func (j *JoinClause) on(first interface{}, boolean string, args []interface{}) *JoinClause {
	if fn, ok := first.(func(*JoinClause)); ok {
		nested := newJoinClause(j.parent, j.Type, j.Table)
		fn(nested)
		j.AddNestedWhereQuery(nested.Builder, boolean)
		return j
	}
	j.whereColumnArgs(first, boolean, args)
	return j
}

// Join adds an inner join. first is either the left column of the ON
// comparison (followed by an optional operator and the right column) or a
// func(*JoinClause) configuring the conditions.
func (b *Builder) Join(table interface{}, first interface{}, args ...interface{}) *Builder {
	return b.join(table, first, args, JoinInner, false)
}

// LeftJoin adds a left join.
func (b *Builder) LeftJoin(table interface{}, first interface{}, args ...interface{}) *Builder {
	return b.join(table, first, args, JoinLeft, false)
}

// RightJoin adds a right join.
func (b *Builder) RightJoin(table interface{}, first interface{}, args ...interface{}) *Builder {
	return b.join(table, first, args, JoinRight, false)
}

// CrossJoin adds a cross join, with optional ON conditions.
func (b *Builder) CrossJoin(table interface{}, args ...interface{}) *Builder {
	if len(args) > 0 {
		return b.join(table, args[0], args[1:], JoinCross, false)
	}
	b.joins = append(b.joins, newJoinClause(b, JoinCross, table))
	return b
}

// JoinWhere adds an inner join whose condition compares a column to a bound value.
func (b *Builder) JoinWhere(table interface{}, first interface{}, args ...interface{}) *Builder {
	return b.join(table, first, args, JoinInner, true)
}

// LeftJoinWhere adds a left join comparing a column to a bound value.
func (b *Builder) LeftJoinWhere(table interface{}, first interface{}, args ...interface{}) *Builder {
	return b.join(table, first, args, JoinLeft, true)
}

// RightJoinWhere adds a right join comparing a column to a bound value.
func (b *Builder) RightJoinWhere(table interface{}, first interface{}, args ...interface{}) *Builder {
	return b.join(table, first, args, JoinRight, true)
}

// JoinSub joins an aliased subquery.
func (b *Builder) JoinSub(query interface{}, as string, first interface{}, args ...interface{}) *Builder {
	return b.joinSub(query, as, first, args, JoinInner)
}

// LeftJoinSub left joins an aliased subquery.
func (b *Builder) LeftJoinSub(query interface{}, as string, first interface{}, args ...interface{}) *Builder {
	return b.joinSub(query, as, first, args, JoinLeft)
}

// RightJoinSub right joins an aliased subquery.
func (b *Builder) RightJoinSub(query interface{}, as string, first interface{}, args ...interface{}) *Builder {
	return b.joinSub(query, as, first, args, JoinRight)
}

func (b *Builder) joinSub(query interface{}, as string, first interface{}, args []interface{}, joinType string) *Builder {
	sql, bindings := b.createSub(query)
	expr := Raw("(" + sql + ") as " + b.grammar.WrapTable(as))
	b.AddBinding(bindings, BindingJoin)
	return b.join(expr, first, args, joinType, false)
}

func (b *Builder) join(table interface{}, first interface{}, args []interface{}, joinType string, where bool) *Builder {
	j := newJoinClause(b, joinType, table)
	fn, isFunc := first.(func(*JoinClause))
	switch {
	case first == nil:
	case isFunc:
		fn(j)
	case where:
		j.Where(first, args...)
	default:
		j.On(first, args...)
	}
	b.joins = append(b.joins, j)
	b.AddBinding(j.GetBindings(), BindingJoin)
	return b
}
