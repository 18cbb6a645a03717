package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/coregx/quill/internal/util"
)

// prepareValueAndOperator resolves the call shape of a comparison:
// one argument is the value of an "=" comparison, two arguments are an operator
// and a value. An operator outside the whitelist is reinterpreted as the value.
// ok is false when no comparison can be derived from args.
func prepareValueAndOperator(args []interface{}) (operator string, value interface{}, ok bool) {
	switch len(args) {
	case 0:
		return "", nil, false
	case 1:
		return "=", args[0], true
	}
	if !isOperator(args[0]) {
		return "=", args[0], true
	}
	return args[0].(string), args[1], true
}

// Where adds a basic where clause joined with "and".
//
// Supported call shapes:
//
//	Where("votes", 100)                         // votes = ?
//	Where("votes", ">", 100)                    // votes > ?
//	Where("deleted_at", nil)                    // deleted_at is null
//	Where(map[string]interface{}{"a": 1})       // (a = ?)
//	Where([][]interface{}{{"a", ">", 1}})       // (a > ?)
//	Where(func(q *Builder) { ... })             // ( ...nested... )
//	Where("id", "in", func(q *Builder) { ... }) // id in (select ...)
func (b *Builder) Where(column interface{}, args ...interface{}) *Builder {
	return b.where(column, "and", args...)
}

// OrWhere adds a basic where clause joined with "or".
func (b *Builder) OrWhere(column interface{}, args ...interface{}) *Builder {
	return b.where(column, "or", args...)
}

// WhereNot adds a negated nested where group.
func (b *Builder) WhereNot(fn func(*Builder)) *Builder {
	return b.WhereNested(fn, "and not")
}

// OrWhereNot adds a negated nested where group joined with "or".
func (b *Builder) OrWhereNot(fn func(*Builder)) *Builder {
	return b.WhereNested(fn, "or not")
}

func (b *Builder) where(column interface{}, boolean string, args ...interface{}) *Builder {
	switch c := column.(type) {
	case map[string]interface{}:
		return b.addMapOfWheres(c, boolean, false)
	case [][]interface{}:
		return b.addListOfWheres(c, boolean, false)
	case func(*Builder):
		return b.WhereNested(c, boolean)
	}

	operator, value, ok := prepareValueAndOperator(args)
	if !ok {
		return b
	}

	switch v := value.(type) {
	case func(*Builder):
		return b.whereSub(column, operator, v, boolean)
	case *Builder:
		return b.whereSubQuery(column, operator, v, boolean)
	case nil:
		return b.whereNull(column, boolean, operator != "=")
	}

	kind := WhereBasic
	if col, isString := column.(string); isString && strings.Contains(col, "->") {
		if flag, isBool := value.(bool); isBool {
			kind = WhereJSONBoolean
			if flag {
				value = Raw("true")
			} else {
				value = Raw("false")
			}
		}
	}

	value = flattenValue(value)
	b.wheres = append(b.wheres, Where{
		Kind:     kind,
		Column:   column,
		Operator: operator,
		Value:    value,
		Boolean:  boolean,
	})
	if !isExpression(value) {
		b.bindings[BindingWhere] = append(b.bindings[BindingWhere], value)
	}
	return b
}

// flattenValue reduces a list to its first scalar so that a comparison binds
// exactly one value for its one placeholder. An empty list binds nil.
func flattenValue(value interface{}) interface{} {
	for {
		values, ok := util.ToSlice(value)
		if !ok {
			return value
		}
		if len(values) == 0 {
			return nil
		}
		value = values[0]
	}
}

// addMapOfWheres turns a column/value map into a nested group of equalities.
// Keys are visited in sorted order so the SQL is deterministic.
func (b *Builder) addMapOfWheres(values map[string]interface{}, boolean string, columns bool) *Builder {
	return b.WhereNested(func(q *Builder) {
		for _, key := range util.SortedKeys(values) {
			if columns {
				q.whereColumn(key, "=", values[key], "and")
			} else {
				q.where(key, "and", values[key])
			}
		}
	}, boolean)
}

// addListOfWheres turns [column, value] or [column, operator, value] triples into a nested group.
func (b *Builder) addListOfWheres(items [][]interface{}, boolean string, columns bool) *Builder {
	return b.WhereNested(func(q *Builder) {
		for _, item := range items {
			if len(item) == 0 {
				continue
			}
			if columns {
				q.WhereColumn(item[0], item[1:]...)
			} else {
				q.where(item[0], "and", item[1:]...)
			}
		}
	}, boolean)
}

// WhereNested adds a parenthesized group built by fn. Groups that end up
// empty are dropped.
func (b *Builder) WhereNested(fn func(*Builder), boolean string) *Builder {
	q := b.forNestedWhere()
	fn(q)
	return b.AddNestedWhereQuery(q, boolean)
}

// forNestedWhere creates the builder handed to nested where callbacks.
func (b *Builder) forNestedWhere() *Builder {
	return b.newQuery().From(b.from)
}

// AddNestedWhereQuery adds q's where clauses as one parenthesized group and
// moves its where bindings into this builder.
func (b *Builder) AddNestedWhereQuery(q *Builder, boolean string) *Builder {
	if len(q.wheres) == 0 {
		return b
	}
	b.wheres = append(b.wheres, Where{Kind: WhereNested, Query: q, Boolean: boolean})
	b.AddBinding(q.bindings[BindingWhere], BindingWhere)
	return b
}

func (b *Builder) whereSub(column interface{}, operator string, fn func(*Builder), boolean string) *Builder {
	q := b.forSubQuery()
	fn(q)
	return b.whereSubQuery(column, operator, q, boolean)
}

func (b *Builder) whereSubQuery(column interface{}, operator string, q *Builder, boolean string) *Builder {
	b.wheres = append(b.wheres, Where{
		Kind:     WhereSub,
		Column:   column,
		Operator: operator,
		Query:    q,
		Boolean:  boolean,
	})
	b.AddBinding(q.GetBindings(), BindingWhere)
	return b
}

// WhereColumn compares two columns.
//
//	WhereColumn("first_name", "last_name")
//	WhereColumn("updated_at", ">", "created_at")
func (b *Builder) WhereColumn(first interface{}, args ...interface{}) *Builder {
	return b.whereColumnArgs(first, "and", args)
}

// OrWhereColumn compares two columns, joined with "or".
func (b *Builder) OrWhereColumn(first interface{}, args ...interface{}) *Builder {
	return b.whereColumnArgs(first, "or", args)
}

func (b *Builder) whereColumnArgs(first interface{}, boolean string, args []interface{}) *Builder {
	switch c := first.(type) {
	case map[string]interface{}:
		return b.addMapOfWheres(c, boolean, true)
	case [][]interface{}:
		return b.addListOfWheres(c, boolean, true)
	}
	operator, second, ok := prepareValueAndOperator(args)
	if !ok {
		return b
	}
	return b.whereColumn(first, operator, second, boolean)
}

func (b *Builder) whereColumn(first interface{}, operator string, second interface{}, boolean string) *Builder {
	b.wheres = append(b.wheres, Where{
		Kind:     WhereColumn,
		First:    first,
		Operator: operator,
		Second:   second,
		Boolean:  boolean,
	})
	return b
}

// WhereRaw adds a raw where clause.
func (b *Builder) WhereRaw(sql string, bindings ...interface{}) *Builder {
	return b.whereRaw(sql, bindings, "and")
}

// OrWhereRaw adds a raw where clause joined with "or".
func (b *Builder) OrWhereRaw(sql string, bindings ...interface{}) *Builder {
	return b.whereRaw(sql, bindings, "or")
}

func (b *Builder) whereRaw(sql string, bindings []interface{}, boolean string) *Builder {
	b.wheres = append(b.wheres, Where{Kind: WhereRaw, SQL: sql, Boolean: boolean})
	if len(bindings) > 0 {
		b.AddBinding(bindings, BindingWhere)
	}
	return b
}

// WhereIn adds a "column in (...)" clause. values may be a slice, a *Builder or
// a func(*Builder) producing a subquery.
func (b *Builder) WhereIn(column interface{}, values interface{}) *Builder {
	return b.whereIn(column, values, "and", false)
}

// OrWhereIn adds an "in" clause joined with "or".
func (b *Builder) OrWhereIn(column interface{}, values interface{}) *Builder {
	return b.whereIn(column, values, "or", false)
}

// WhereNotIn adds a "column not in (...)" clause.
func (b *Builder) WhereNotIn(column interface{}, values interface{}) *Builder {
	return b.whereIn(column, values, "and", true)
}

// OrWhereNotIn adds a "not in" clause joined with "or".
func (b *Builder) OrWhereNotIn(column interface{}, values interface{}) *Builder {
	return b.whereIn(column, values, "or", true)
}

func (b *Builder) whereIn(column interface{}, values interface{}, boolean string, not bool) *Builder {
	var sub *Builder
	switch v := values.(type) {
	case *Builder:
		sub = v
	case func(*Builder):
		sub = b.forSubQuery()
		v(sub)
	}
	if sub != nil {
		kind := WhereInSub
		if not {
			kind = WhereNotInSub
		}
		b.wheres = append(b.wheres, Where{Kind: kind, Column: column, Query: sub, Boolean: boolean})
		b.AddBinding(sub.GetBindings(), BindingWhere)
		return b
	}

	list, ok := util.ToSlice(values)
	if !ok {
		list = []interface{}{values}
	}
	kind := WhereIn
	if not {
		kind = WhereNotIn
	}
	b.wheres = append(b.wheres, Where{Kind: kind, Column: column, Values: list, Boolean: boolean})
	b.AddBinding(cleanBindings(list), BindingWhere)
	return b
}

// WhereIntegerInRaw adds an "in" clause whose values are cast to integers and
// inlined into the SQL rather than bound.
func (b *Builder) WhereIntegerInRaw(column interface{}, values interface{}) *Builder {
	return b.whereIntegerInRaw(column, values, "and", false)
}

// WhereIntegerNotInRaw adds an inlined integer "not in" clause.
func (b *Builder) WhereIntegerNotInRaw(column interface{}, values interface{}) *Builder {
	return b.whereIntegerInRaw(column, values, "and", true)
}

func (b *Builder) whereIntegerInRaw(column interface{}, values interface{}, boolean string, not bool) *Builder {
	list, ok := util.ToSlice(values)
	if !ok {
		list = []interface{}{values}
	}
	ints := make([]interface{}, len(list))
	for i, v := range list {
		n, _ := util.ToInt64(v)
		ints[i] = n
	}
	kind := WhereInRaw
	if not {
		kind = WhereNotInRaw
	}
	b.wheres = append(b.wheres, Where{Kind: kind, Column: column, Values: ints, Boolean: boolean})
	return b
}

// WhereNull adds an "is null" clause.
func (b *Builder) WhereNull(column interface{}) *Builder {
	return b.whereNull(column, "and", false)
}

// OrWhereNull adds an "is null" clause joined with "or".
func (b *Builder) OrWhereNull(column interface{}) *Builder {
	return b.whereNull(column, "or", false)
}

// WhereNotNull adds an "is not null" clause.
func (b *Builder) WhereNotNull(column interface{}) *Builder {
	return b.whereNull(column, "and", true)
}

// OrWhereNotNull adds an "is not null" clause joined with "or".
func (b *Builder) OrWhereNotNull(column interface{}) *Builder {
	return b.whereNull(column, "or", true)
}

func (b *Builder) whereNull(column interface{}, boolean string, not bool) *Builder {
	kind := WhereNull
	if not {
		kind = WhereNotNull
	}
	b.wheres = append(b.wheres, Where{Kind: kind, Column: column, Boolean: boolean})
	return b
}

// WhereBetween adds a "column between ? and ?" clause.
func (b *Builder) WhereBetween(column interface{}, from, to interface{}) *Builder {
	return b.whereBetween(column, from, to, "and", false)
}

// OrWhereBetween adds a "between" clause joined with "or".
func (b *Builder) OrWhereBetween(column interface{}, from, to interface{}) *Builder {
	return b.whereBetween(column, from, to, "or", false)
}

// WhereNotBetween adds a "column not between ? and ?" clause.
func (b *Builder) WhereNotBetween(column interface{}, from, to interface{}) *Builder {
	return b.whereBetween(column, from, to, "and", true)
}

// OrWhereNotBetween adds a "not between" clause joined with "or".
func (b *Builder) OrWhereNotBetween(column interface{}, from, to interface{}) *Builder {
	return b.whereBetween(column, from, to, "or", true)
}

func (b *Builder) whereBetween(column interface{}, from, to interface{}, boolean string, not bool) *Builder {
	kind := WhereBetween
	if not {
		kind = WhereNotBetween
	}
	values := []interface{}{from, to}
	b.wheres = append(b.wheres, Where{Kind: kind, Column: column, Values: values, Boolean: boolean})
	b.AddBinding(cleanBindings(values), BindingWhere)
	return b
}

// WhereDate compares the date part of a column. time.Time values are
// formatted as 2006-01-02.
func (b *Builder) WhereDate(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereDate, column, "and", args)
}

// OrWhereDate compares the date part of a column, joined with "or".
func (b *Builder) OrWhereDate(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereDate, column, "or", args)
}

// WhereTime compares the time part of a column. time.Time values are
// formatted as 15:04:05.
func (b *Builder) WhereTime(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereTime, column, "and", args)
}

// OrWhereTime compares the time part of a column, joined with "or".
func (b *Builder) OrWhereTime(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereTime, column, "or", args)
}

// WhereDay compares the day of month of a column.
func (b *Builder) WhereDay(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereDay, column, "and", args)
}

// OrWhereDay compares the day of month of a column, joined with "or".
func (b *Builder) OrWhereDay(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereDay, column, "or", args)
}

// WhereMonth compares the month of a column.
func (b *Builder) WhereMonth(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereMonth, column, "and", args)
}

// OrWhereMonth compares the month of a column, joined with "or".
func (b *Builder) OrWhereMonth(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereMonth, column, "or", args)
}

// WhereYear compares the year of a column.
func (b *Builder) WhereYear(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereYear, column, "and", args)
}

// OrWhereYear compares the year of a column, joined with "or".
func (b *Builder) OrWhereYear(column interface{}, args ...interface{}) *Builder {
	return b.addDateBasedWhere(WhereYear, column, "or", args)
}

var dateLayouts = map[WhereKind]string{
	WhereDate:  "2006-01-02",
	WhereTime:  "15:04:05",
	WhereDay:   "02",
	WhereMonth: "01",
	WhereYear:  "2006",
}

func (b *Builder) addDateBasedWhere(kind WhereKind, column interface{}, boolean string, args []interface{}) *Builder {
	operator, value, ok := prepareValueAndOperator(args)
	if !ok {
		return b
	}
	value = flattenValue(value)
	if t, isTime := value.(time.Time); isTime {
		value = t.Format(dateLayouts[kind])
	}
	b.wheres = append(b.wheres, Where{
		Kind:     kind,
		Column:   column,
		Operator: operator,
		Value:    value,
		Boolean:  boolean,
	})
	if !isExpression(value) {
		b.bindings[BindingWhere] = append(b.bindings[BindingWhere], value)
	}
	return b
}

// WhereExists adds an "exists (subquery)" clause built by fn.
func (b *Builder) WhereExists(fn func(*Builder)) *Builder {
	return b.whereExists(fn, "and", false)
}

// OrWhereExists adds an "exists" clause joined with "or".
func (b *Builder) OrWhereExists(fn func(*Builder)) *Builder {
	return b.whereExists(fn, "or", false)
}

// WhereNotExists adds a "not exists (subquery)" clause.
func (b *Builder) WhereNotExists(fn func(*Builder)) *Builder {
	return b.whereExists(fn, "and", true)
}

// OrWhereNotExists adds a "not exists" clause joined with "or".
func (b *Builder) OrWhereNotExists(fn func(*Builder)) *Builder {
	return b.whereExists(fn, "or", true)
}

func (b *Builder) whereExists(fn func(*Builder), boolean string, not bool) *Builder {
	q := b.forSubQuery()
	fn(q)
	return b.AddWhereExistsQuery(q, boolean, not)
}

// AddWhereExistsQuery adds an existing builder as an exists clause.
func (b *Builder) AddWhereExistsQuery(q *Builder, boolean string, not bool) *Builder {
	kind := WhereExists
	if not {
		kind = WhereNotExists
	}
	b.wheres = append(b.wheres, Where{Kind: kind, Query: q, Boolean: boolean})
	b.AddBinding(q.GetBindings(), BindingWhere)
	return b
}

// WhereRowValues compares a tuple of columns against a tuple of values:
//
//	WhereRowValues([]string{"last_update", "order_number"}, "<", []interface{}{1, 2})
func (b *Builder) WhereRowValues(columns []string, operator string, values []interface{}) *Builder {
	return b.whereRowValues(columns, operator, values, "and")
}

// OrWhereRowValues compares tuples, joined with "or".
func (b *Builder) OrWhereRowValues(columns []string, operator string, values []interface{}) *Builder {
	return b.whereRowValues(columns, operator, values, "or")
}

func (b *Builder) whereRowValues(columns []string, operator string, values []interface{}, boolean string) *Builder {
	if len(columns) != len(values) {
		fail(ErrRowValuesMismatch, "%d columns, %d values", len(columns), len(values))
	}
	b.wheres = append(b.wheres, Where{
		Kind:     WhereRowValues,
		Columns:  columns,
		Operator: operator,
		Values:   values,
		Boolean:  boolean,
	})
	b.AddBinding(cleanBindings(values), BindingWhere)
	return b
}

// WhereJSONContains checks that a JSON column contains value. The value is
// bound JSON-encoded.
func (b *Builder) WhereJSONContains(column string, value interface{}) *Builder {
	return b.whereJSONContains(column, value, "and", false)
}

// OrWhereJSONContains checks JSON containment, joined with "or".
func (b *Builder) OrWhereJSONContains(column string, value interface{}) *Builder {
	return b.whereJSONContains(column, value, "or", false)
}

// WhereJSONDoesntContain checks that a JSON column does not contain value.
func (b *Builder) WhereJSONDoesntContain(column string, value interface{}) *Builder {
	return b.whereJSONContains(column, value, "and", true)
}

func (b *Builder) whereJSONContains(column string, value interface{}, boolean string, not bool) *Builder {
	kind := WhereJSONContains
	if not {
		kind = WhereJSONNotContains
	}
	var encoded []byte
	if !isExpression(value) {
		var err error
		if encoded, err = json.Marshal(value); err != nil {
			fail(ErrInvalidJSONValue, "%v", err)
		}
	}
	b.wheres = append(b.wheres, Where{Kind: kind, Column: column, Value: value, Boolean: boolean})
	if encoded != nil {
		b.bindings[BindingWhere] = append(b.bindings[BindingWhere], string(encoded))
	}
	return b
}

// WhereJSONLength compares the length of a JSON array.
func (b *Builder) WhereJSONLength(column string, args ...interface{}) *Builder {
	return b.whereJSONLength(column, "and", args)
}

// OrWhereJSONLength compares the length of a JSON array, joined with "or".
func (b *Builder) OrWhereJSONLength(column string, args ...interface{}) *Builder {
	return b.whereJSONLength(column, "or", args)
}

func (b *Builder) whereJSONLength(column string, boolean string, args []interface{}) *Builder {
	operator, value, ok := prepareValueAndOperator(args)
	if !ok {
		return b
	}
	value = flattenValue(value)
	b.wheres = append(b.wheres, Where{
		Kind:     WhereJSONLength,
		Column:   column,
		Operator: operator,
		Value:    value,
		Boolean:  boolean,
	})
	if !isExpression(value) {
		b.bindings[BindingWhere] = append(b.bindings[BindingWhere], value)
	}
	return b
}
