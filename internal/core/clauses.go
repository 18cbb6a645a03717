package core

// WhereKind tags the variant of a Where node.
type WhereKind int

// Where node variants. The grammar compiles each with its own arm.
const (
	WhereBasic WhereKind = iota
	WhereJSONBoolean
	WhereNull
	WhereNotNull
	WhereBetween
	WhereNotBetween
	WhereIn
	WhereNotIn
	WhereInSub
	WhereNotInSub
	WhereInRaw
	WhereNotInRaw
	WhereDate
	WhereTime
	WhereDay
	WhereMonth
	WhereYear
	WhereColumn
	WhereNested
	WhereSub
	WhereExists
	WhereNotExists
	WhereRowValues
	WhereJSONContains
	WhereJSONNotContains
	WhereJSONLength
	WhereRaw
)

var whereKindNames = [...]string{
	"Basic", "JsonBoolean", "Null", "NotNull", "Between", "NotBetween", "In", "NotIn",
	"InSub", "NotInSub", "InRaw", "NotInRaw", "Date", "Time", "Day", "Month", "Year",
	"Column", "Nested", "Sub", "Exists", "NotExists", "RowValues", "JsonContains",
	"JsonNotContains", "JsonLength", "Raw",
}

// String returns the variant name.
func (k WhereKind) String() string {
	if int(k) < len(whereKindNames) {
		return whereKindNames[k]
	}
	return "Unknown"
}

// Where is one condition of a WHERE (or join ON) clause. Only the fields
// relevant to Kind are populated.
type Where struct {
	Kind     WhereKind
	Column   interface{} // string or Expression
	Columns  []string    // RowValues
	Operator string
	Value    interface{}
	Values   []interface{}
	First    interface{} // Column: left-hand identifier
	Second   interface{} // Column: right-hand identifier
	Query    *Builder    // Nested, Sub, Exists, InSub
	SQL      string      // Raw
	Boolean  string      // "and" / "or"
}

// HavingKind tags the variant of a Having node.
type HavingKind int

// Having node variants.
const (
	HavingBasic HavingKind = iota
	HavingBetween
	HavingNotBetween
	HavingRaw
)

// Having is one condition of a HAVING clause.
type Having struct {
	Kind     HavingKind
	Column   interface{}
	Operator string
	Value    interface{}
	Values   []interface{}
	SQL      string
	Boolean  string
}

// Order is one ORDER BY term: either a column with a direction or raw SQL.
type Order struct {
	Column    interface{}
	Direction string
	SQL       string
}

// Union is one UNION branch.
type Union struct {
	Query *Builder
	All   bool
}

// aggregate describes an aggregate function selected in place of the columns.
type aggregate struct {
	function string
	columns  []interface{}
}

// Component names a clause of the statement model, for CloneWithout.
type Component int

// Statement components that can be dropped when cloning.
const (
	ComponentAggregate Component = iota
	ComponentColumns
	ComponentJoins
	ComponentWheres
	ComponentGroups
	ComponentHavings
	ComponentOrders
	ComponentLimit
	ComponentOffset
	ComponentUnions
	ComponentUnionOrders
	ComponentUnionLimit
	ComponentUnionOffset
	ComponentLock
)

// operators is the whitelist of recognized comparison operators. Anything else
// passed in operator position is treated as the value of an "=" comparison.
var operators = map[string]struct{}{
	"=": {}, "<": {}, ">": {}, "<=": {}, ">=": {}, "<>": {}, "!=": {}, "<=>": {},
	"like": {}, "like binary": {}, "not like": {}, "ilike": {},
	"&": {}, "|": {}, "^": {}, "<<": {}, ">>": {},
	"rlike": {}, "regexp": {}, "not regexp": {},
	"~": {}, "~*": {}, "!~": {}, "!~*": {},
	"similar to": {}, "not similar to": {}, "not ilike": {}, "~~*": {}, "!~~*": {},
}

// isOperator reports whether s is a recognized operator (case-sensitive).
func isOperator(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, ok = operators[s]
	return ok
}
