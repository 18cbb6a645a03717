package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coregx/quill/internal/dialects"
)

// Grammar compiles Builder state into SQL text with "?" placeholders.
// The generic grammar emits ANSI SQL; dialect grammars override individual
// fragments through their rule set.
type Grammar struct {
	dialect     dialects.Dialect
	tablePrefix string
	rules       dialectRules
}

// DefaultGrammar returns the generic ANSI grammar, quoting with double quotes.
func DefaultGrammar() *Grammar {
	return &Grammar{dialect: dialects.GetDialect("sqlite"), rules: standardRules{}}
}

// NewSQLiteGrammar returns the SQLite grammar.
func NewSQLiteGrammar() *Grammar {
	return &Grammar{dialect: dialects.GetDialect("sqlite"), rules: sqliteRules{}}
}

// NewPostgresGrammar returns the PostgreSQL grammar.
func NewPostgresGrammar() *Grammar {
	return &Grammar{dialect: dialects.GetDialect("postgres"), rules: postgresRules{}}
}

// NewMySQLGrammar returns the MySQL grammar.
func NewMySQLGrammar() *Grammar {
	return &Grammar{dialect: dialects.GetDialect("mysql"), rules: mysqlRules{}}
}

// GrammarFor returns the grammar matching a database/sql driver name.
func GrammarFor(driverName string) (*Grammar, error) {
	d, ok := dialects.Lookup(driverName)
	if !ok {
		return nil, fmt.Errorf("%w: driver %q", ErrUnsupportedDialect, driverName)
	}
	switch d.Name() {
	case "postgres":
		return NewPostgresGrammar(), nil
	case "mysql":
		return NewMySQLGrammar(), nil
	default:
		return NewSQLiteGrammar(), nil
	}
}

// WithTablePrefix returns a copy of the grammar that prefixes every table name.
func (g *Grammar) WithTablePrefix(prefix string) *Grammar {
	c := *g
	c.tablePrefix = prefix
	return &c
}

// TablePrefix returns the table prefix.
func (g *Grammar) TablePrefix() string {
	return g.tablePrefix
}

// Dialect returns the lexical dialect used for quoting and placeholders.
func (g *Grammar) Dialect() dialects.Dialect {
	return g.dialect
}

// Name returns the dialect name.
func (g *Grammar) Name() string {
	return g.dialect.Name()
}

// CompileSelect compiles a SELECT statement.
func (g *Grammar) CompileSelect(q *Builder) string {
	if (q.unions != nil || len(q.havings) > 0) && q.aggregate != nil {
		return g.compileUnionAggregate(q)
	}

	sql := g.compileComponents(q)
	if q.unions != nil {
		sql = g.rules.wrapUnion(g, sql) + " " + g.compileUnions(q)
	}
	return sql
}

// compileComponents emits each present component in fixed order.
func (g *Grammar) compileComponents(q *Builder) string {
	parts := make([]string, 0, 11)
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	if q.aggregate != nil {
		add(g.compileAggregate(q, q.aggregate))
	} else {
		add(g.compileColumns(q))
	}
	if q.from != nil {
		add("from " + g.WrapTable(q.from))
	}
	add(g.compileJoins(q.joins))
	add(g.compileWheres(q, "where"))
	if len(q.groups) > 0 {
		add("group by " + g.Columnize(q.groups))
	}
	add(g.compileHavings(q.havings))
	add(g.compileOrders(q.orders))
	if q.limit != nil {
		add(g.compileLimit(*q.limit))
	}
	if q.offset != nil {
		add(g.rules.compileOffset(g, *q.offset, q.limit != nil))
	}
	if q.lock != nil {
		add(g.rules.compileLock(g, q.lock))
	}
	return strings.Join(parts, " ")
}

func (g *Grammar) compileAggregate(q *Builder, agg *aggregate) string {
	column := g.Columnize(agg.columns)
	if q.distinct && column != "*" {
		column = "distinct " + column
	}
	return "select " + agg.function + "(" + column + ") as aggregate"
}

func (g *Grammar) compileColumns(q *Builder) string {
	columns := q.columns
	if len(columns) == 0 {
		columns = []interface{}{"*"}
	}
	selectKw := "select "
	if q.distinct {
		selectKw = "select distinct "
	}
	return selectKw + g.Columnize(columns)
}

func (g *Grammar) compileJoins(joins []*JoinClause) string {
	if len(joins) == 0 {
		return ""
	}
	parts := make([]string, 0, len(joins))
	for _, j := range joins {
		table := g.WrapTable(j.Table)
		if len(j.joins) > 0 {
			table = "(" + table + " " + g.compileJoins(j.joins) + ")"
		}
		sql := j.Type + " join " + table
		if on := g.compileWheres(j.Builder, "on"); on != "" {
			sql += " " + on
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " ")
}

// compileWheres emits the where list of q after keyword ("where" or "on").
func (g *Grammar) compileWheres(q *Builder, keyword string) string {
	if len(q.wheres) == 0 {
		return ""
	}
	return keyword + " " + g.compileWhereList(q.wheres)
}

// compileWhereList joins the clauses with their booleans and drops the leading one.
func (g *Grammar) compileWhereList(wheres []Where) string {
	parts := make([]string, len(wheres))
	for i := range wheres {
		w := &wheres[i]
		parts[i] = w.Boolean + " " + g.compileWhere(w)
	}
	return removeLeadingBoolean(strings.Join(parts, " "))
}

func (g *Grammar) compileWhere(w *Where) string {
	switch w.Kind {
	case WhereBasic:
		return g.Wrap(w.Column) + " " + w.Operator + " " + g.Parameter(w.Value)
	case WhereJSONBoolean:
		column := g.rules.wrapJSONBooleanSelector(g, fmt.Sprint(w.Column))
		value := g.rules.wrapJSONBooleanValue(g, g.Parameter(w.Value))
		return column + " " + w.Operator + " " + value
	case WhereNull:
		return g.Wrap(w.Column) + " is null"
	case WhereNotNull:
		return g.Wrap(w.Column) + " is not null"
	case WhereBetween, WhereNotBetween:
		between := " between "
		if w.Kind == WhereNotBetween {
			between = " not between "
		}
		return g.Wrap(w.Column) + between + g.Parameter(w.Values[0]) + " and " + g.Parameter(w.Values[1])
	case WhereIn:
		if len(w.Values) == 0 {
			return "0 = 1"
		}
		return g.Wrap(w.Column) + " in (" + g.Parameterize(w.Values) + ")"
	case WhereNotIn:
		if len(w.Values) == 0 {
			return "1 = 1"
		}
		return g.Wrap(w.Column) + " not in (" + g.Parameterize(w.Values) + ")"
	case WhereInSub:
		return g.Wrap(w.Column) + " in (" + g.CompileSelect(w.Query) + ")"
	case WhereNotInSub:
		return g.Wrap(w.Column) + " not in (" + g.CompileSelect(w.Query) + ")"
	case WhereInRaw, WhereNotInRaw:
		in := " in ("
		if w.Kind == WhereNotInRaw {
			in = " not in ("
		}
		if len(w.Values) == 0 {
			if w.Kind == WhereInRaw {
				return "0 = 1"
			}
			return "1 = 1"
		}
		ints := make([]string, len(w.Values))
		for i, v := range w.Values {
			ints[i] = fmt.Sprint(v)
		}
		return g.Wrap(w.Column) + in + strings.Join(ints, ", ") + ")"
	case WhereDate, WhereTime, WhereDay, WhereMonth, WhereYear:
		return g.rules.dateBasedWhere(g, w)
	case WhereColumn:
		return g.Wrap(w.First) + " " + w.Operator + " " + g.Wrap(w.Second)
	case WhereNested:
		return "(" + g.compileWhereList(w.Query.wheres) + ")"
	case WhereSub:
		return g.Wrap(w.Column) + " " + w.Operator + " (" + g.CompileSelect(w.Query) + ")"
	case WhereExists:
		return "exists (" + g.CompileSelect(w.Query) + ")"
	case WhereNotExists:
		return "not exists (" + g.CompileSelect(w.Query) + ")"
	case WhereRowValues:
		columns := make([]interface{}, len(w.Columns))
		for i, c := range w.Columns {
			columns[i] = c
		}
		return "(" + g.Columnize(columns) + ") " + w.Operator + " (" + g.Parameterize(w.Values) + ")"
	case WhereJSONContains:
		return g.rules.compileJSONContains(g, fmt.Sprint(w.Column), g.Parameter(w.Value))
	case WhereJSONNotContains:
		return "not " + g.rules.compileJSONContains(g, fmt.Sprint(w.Column), g.Parameter(w.Value))
	case WhereJSONLength:
		return g.rules.compileJSONLength(g, fmt.Sprint(w.Column), w.Operator, g.Parameter(w.Value))
	case WhereRaw:
		return w.SQL
	}
	panic(fmt.Sprintf("quill: unknown where kind %v", w.Kind))
}

func (g *Grammar) compileHavings(havings []Having) string {
	if len(havings) == 0 {
		return ""
	}
	parts := make([]string, len(havings))
	for i := range havings {
		parts[i] = g.compileHaving(&havings[i])
	}
	return "having " + removeLeadingBoolean(strings.Join(parts, " "))
}

func (g *Grammar) compileHaving(h *Having) string {
	switch h.Kind {
	case HavingRaw:
		return h.Boolean + " " + h.SQL
	case HavingBetween, HavingNotBetween:
		between := " between "
		if h.Kind == HavingNotBetween {
			between = " not between "
		}
		return h.Boolean + " " + g.Wrap(h.Column) + between + g.Parameter(h.Values[0]) + " and " + g.Parameter(h.Values[1])
	}
	return h.Boolean + " " + g.Wrap(h.Column) + " " + h.Operator + " " + g.Parameter(h.Value)
}

func (g *Grammar) compileOrders(orders []Order) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		if o.SQL != "" {
			parts[i] = o.SQL
			continue
		}
		parts[i] = g.Wrap(o.Column) + " " + o.Direction
	}
	return "order by " + strings.Join(parts, ", ")
}

func (g *Grammar) compileLimit(limit int) string {
	return "limit " + strconv.Itoa(limit)
}

func (g *Grammar) compileUnions(q *Builder) string {
	var sb strings.Builder
	for i, u := range q.unions {
		if i > 0 {
			sb.WriteString(" ")
		}
		if u.All {
			sb.WriteString("union all ")
		} else {
			sb.WriteString("union ")
		}
		sb.WriteString(g.rules.wrapUnion(g, g.CompileSelect(u.Query)))
	}
	if s := g.compileOrders(q.unionOrders); s != "" {
		sb.WriteString(" " + s)
	}
	if q.unionLimit != nil {
		sb.WriteString(" " + g.compileLimit(*q.unionLimit))
	}
	if q.unionOffset != nil {
		sb.WriteString(" " + g.rules.compileOffset(g, *q.unionOffset, q.unionLimit != nil))
	}
	return sb.String()
}

// compileUnionAggregate aggregates over the full select wrapped as a derived table.
func (g *Grammar) compileUnionAggregate(q *Builder) string {
	sql := g.compileAggregate(q, q.aggregate)
	inner := q.CloneWithout(ComponentAggregate)
	return sql + " from (" + g.CompileSelect(inner) + ") as " + g.WrapTable("temp_table")
}

// CompileExists compiles "select exists(<select>) as exists".
func (g *Grammar) CompileExists(q *Builder) string {
	return "select exists(" + g.CompileSelect(q) + ") as " + g.Wrap("exists")
}

// compileRandom returns the random ordering expression of the dialect.
func (g *Grammar) compileRandom(seed string) string {
	return g.rules.compileRandom(seed)
}

// Wrap quotes a column reference. Expressions pass through verbatim,
// "x as y" aliases are wrapped on both sides, "a->b" selects a JSON path, and
// "table.column" segments are quoted individually with the table prefixed.
func (g *Grammar) Wrap(value interface{}) string {
	return g.wrap(value, false)
}

func (g *Grammar) wrap(value interface{}, prefixAlias bool) string {
	if e, ok := asExpression(value); ok {
		return e.Value()
	}
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}
	if aliasRegex.MatchString(s) {
		return g.wrapAliasedValue(s, prefixAlias)
	}
	if strings.Contains(s, "->") {
		return g.rules.wrapJSONSelector(g, s)
	}
	return g.wrapSegments(strings.Split(s, "."))
}

func (g *Grammar) wrapAliasedValue(value string, prefixAlias bool) string {
	segments := aliasRegex.Split(value, 2)
	alias := strings.TrimSpace(segments[1])
	if prefixAlias {
		alias = g.tablePrefix + alias
	}
	return g.wrap(strings.TrimSpace(segments[0]), false) + " as " + g.wrapValue(alias)
}

func (g *Grammar) wrapSegments(segments []string) string {
	out := make([]string, len(segments))
	for i, seg := range segments {
		if i == 0 && len(segments) > 1 {
			out[i] = g.WrapTable(seg)
		} else {
			out[i] = g.wrapValue(seg)
		}
	}
	return strings.Join(out, ".")
}

// wrapValue quotes a single identifier segment; "*" is never quoted.
func (g *Grammar) wrapValue(value string) string {
	if value == "*" {
		return value
	}
	return g.dialect.QuoteIdentifier(value)
}

// WrapTable quotes a table reference, applying the table prefix.
func (g *Grammar) WrapTable(table interface{}) string {
	if e, ok := asExpression(table); ok {
		return e.Value()
	}
	return g.wrap(g.tablePrefix+fmt.Sprint(table), true)
}

// Columnize wraps and comma-joins a list of columns.
func (g *Grammar) Columnize(columns []interface{}) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = g.Wrap(c)
	}
	return strings.Join(parts, ", ")
}

// Parameter returns the placeholder for value: the literal SQL of an
// Expression, otherwise "?".
func (g *Grammar) Parameter(value interface{}) string {
	if e, ok := asExpression(value); ok {
		return e.Value()
	}
	return "?"
}

// Parameterize returns comma-joined placeholders for values.
func (g *Grammar) Parameterize(values []interface{}) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = g.Parameter(v)
	}
	return strings.Join(parts, ", ")
}

// wrapJSONFieldAndPath splits "column->a->b" into the wrapped column and a
// ", '$."a"."b"'" path argument.
func (g *Grammar) wrapJSONFieldAndPath(column string) (string, string) {
	parts := strings.SplitN(column, "->", 2)
	field := g.wrap(parts[0], false)
	if len(parts) == 1 {
		return field, ""
	}
	return field, ", " + g.wrapJSONPath(parts[1], "->")
}

// wrapJSONPath converts "a->b" into '$."a"."b"'.
func (g *Grammar) wrapJSONPath(value, delimiter string) string {
	value = strings.ReplaceAll(value, "'", "''")
	return `'$."` + strings.ReplaceAll(value, delimiter, `"."`) + `"'`
}

// removeLeadingBoolean strips the first "and " or "or " of a compiled list.
func removeLeadingBoolean(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "and "):
		return s[4:]
	case strings.HasPrefix(lower, "or "):
		return s[3:]
	}
	return s
}
