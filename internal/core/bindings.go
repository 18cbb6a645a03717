package core

// BindingType names one of the fixed binding buckets of a Builder.
type BindingType string

// Binding buckets, listed in the order their values are flattened for execution.
// This order mirrors the order in which the grammar emits the matching clauses.
const (
	BindingSelect BindingType = "select"
	BindingJoin   BindingType = "join"
	BindingWhere  BindingType = "where"
	BindingHaving BindingType = "having"
	BindingOrder  BindingType = "order"
	BindingUnion  BindingType = "union"
)

// bindingOrder is the flattening order of the binding buckets.
var bindingOrder = [...]BindingType{
	BindingSelect, BindingJoin, BindingWhere, BindingHaving, BindingOrder, BindingUnion,
}

// Bindings holds the bound values of a statement, bucketed by the clause kind
// that produced them.
type Bindings map[BindingType][]interface{}

func newBindings() Bindings {
	b := make(Bindings, len(bindingOrder))
	for _, t := range bindingOrder {
		b[t] = []interface{}{}
	}
	return b
}

// valid reports whether t names one of the fixed buckets.
func (t BindingType) valid() bool {
	for _, known := range bindingOrder {
		if t == known {
			return true
		}
	}
	return false
}

// Flatten concatenates the buckets in declaration order, skipping the excluded ones.
func (b Bindings) Flatten(except ...BindingType) []interface{} {
	out := make([]interface{}, 0)
	for _, t := range bindingOrder {
		if containsBinding(except, t) {
			continue
		}
		out = append(out, b[t]...)
	}
	return out
}

// clone copies every bucket so the result can be appended to independently.
func (b Bindings) clone() Bindings {
	c := make(Bindings, len(bindingOrder))
	for _, t := range bindingOrder {
		c[t] = append([]interface{}{}, b[t]...)
	}
	return c
}

func containsBinding(list []BindingType, t BindingType) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}
