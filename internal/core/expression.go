// Copyright (c) 2025 COREGX. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

// Expression marks a fragment of literal SQL. Wherever a value is expected, an
// Expression is inlined verbatim instead of being bound as a "?" parameter, and
// wherever an identifier is expected it bypasses quoting.
//
// Example:
//
//	db.Table("users").Where("created_at", ">", quill.Raw("current_timestamp"))
type Expression struct {
	value string
}

// Raw creates a new literal SQL expression.
func Raw(value string) Expression {
	return Expression{value: value}
}

// Value returns the literal SQL text.
func (e Expression) Value() string {
	return e.value
}

// String implements fmt.Stringer.
func (e Expression) String() string {
	return e.value
}

// asExpression reports whether v is an Expression (by value or pointer).
func asExpression(v interface{}) (Expression, bool) {
	switch e := v.(type) {
	case Expression:
		return e, true
	case *Expression:
		if e != nil {
			return *e, true
		}
	}
	return Expression{}, false
}

// isExpression reports whether v must be inlined rather than bound.
func isExpression(v interface{}) bool {
	_, ok := asExpression(v)
	return ok
}

// cleanBindings removes expressions from a list of values destined for bindings.
func cleanBindings(values []interface{}) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		if !isExpression(v) {
			out = append(out, v)
		}
	}
	return out
}
