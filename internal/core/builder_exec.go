package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/coregx/quill/internal/util"
)

func (b *Builder) connection() (Connection, error) {
	if b.conn == nil {
		return nil, ErrNoConnection
	}
	return b.conn, nil
}

// withColumns returns b, or a clone selecting columns when b selects nothing yet.
func (b *Builder) withColumns(columns []interface{}) *Builder {
	if len(columns) == 0 || len(b.columns) > 0 {
		return b
	}
	c := b.Clone()
	c.columns = flattenColumns(columns)
	return c
}

// Get executes the query and returns every row.
func (b *Builder) Get(ctx context.Context, columns ...interface{}) ([]Row, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	q := b.withColumns(columns)
	return conn.Get(ctx, q.ToSQL(), q.GetBindings())
}

// First executes the query with limit 1 and returns the first row, or nil.
func (b *Builder) First(ctx context.Context, columns ...interface{}) (Row, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	q := b.withColumns(columns)
	if q == b {
		q = b.Clone()
	}
	q.Take(1)
	return conn.First(ctx, q.ToSQL(), q.GetBindings())
}

// Find returns the row whose id equals id, or nil.
func (b *Builder) Find(ctx context.Context, id interface{}, columns ...interface{}) (Row, error) {
	return b.Clone().Where("id", "=", id).First(ctx, columns...)
}

// Value returns a single column of the first row, or nil.
func (b *Builder) Value(ctx context.Context, column string) (interface{}, error) {
	row, err := b.First(ctx, column)
	if err != nil || row == nil {
		return nil, err
	}
	return row[stripTableForPluck(column)], nil
}

// Pluck returns the values of one column across all rows.
func (b *Builder) Pluck(ctx context.Context, column string) ([]interface{}, error) {
	rows, err := b.Get(ctx, column)
	if err != nil {
		return nil, err
	}
	key := stripTableForPluck(column)
	out := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		out = append(out, row[key])
	}
	return out, nil
}

// PluckKeyed returns column values keyed by the textual form of key.
func (b *Builder) PluckKeyed(ctx context.Context, column, key string) (map[string]interface{}, error) {
	rows, err := b.Get(ctx, column, key)
	if err != nil {
		return nil, err
	}
	col, k := stripTableForPluck(column), stripTableForPluck(key)
	out := make(map[string]interface{}, len(rows))
	for _, row := range rows {
		out[fmt.Sprint(row[k])] = row[col]
	}
	return out, nil
}

// stripTableForPluck returns the result key of a selected column:
// "users.name" reads "name" and "name as n" reads "n".
func stripTableForPluck(column string) string {
	if parts := aliasRegex.Split(column, -1); len(parts) > 1 {
		return strings.TrimSpace(parts[len(parts)-1])
	}
	if i := strings.LastIndex(column, "."); i >= 0 {
		return column[i+1:]
	}
	return column
}

// Exists reports whether the query matches any row.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	conn, err := b.connection()
	if err != nil {
		return false, err
	}
	rows, err := conn.Get(ctx, b.grammar.CompileExists(b), b.GetBindings())
	if err != nil || len(rows) == 0 {
		return false, err
	}
	return truthy(rows[0]["exists"]), nil
}

// DoesntExist reports whether the query matches no row.
func (b *Builder) DoesntExist(ctx context.Context) (bool, error) {
	exists, err := b.Exists(ctx)
	return !exists, err
}

// ExistsOr returns true when rows exist, otherwise runs fn and returns false.
func (b *Builder) ExistsOr(ctx context.Context, fn func()) (bool, error) {
	exists, err := b.Exists(ctx)
	if err != nil {
		return false, err
	}
	if !exists {
		fn()
	}
	return exists, nil
}

// DoesntExistOr returns true when no rows exist, otherwise runs fn and returns false.
func (b *Builder) DoesntExistOr(ctx context.Context, fn func()) (bool, error) {
	missing, err := b.DoesntExist(ctx)
	if err != nil {
		return false, err
	}
	if !missing {
		fn()
	}
	return missing, nil
}

func truthy(v interface{}) bool {
	if flag, ok := v.(bool); ok {
		return flag
	}
	n, ok := util.ToInt64(v)
	return ok && n != 0
}

// Count returns the number of matching rows.
func (b *Builder) Count(ctx context.Context, columns ...string) (int64, error) {
	cols := []interface{}{"*"}
	if len(columns) > 0 {
		cols = make([]interface{}, len(columns))
		for i, c := range columns {
			cols[i] = c
		}
	}
	v, err := b.Aggregate(ctx, "count", cols...)
	if err != nil {
		return 0, err
	}
	n, _ := util.ToInt64(v)
	return n, nil
}

// Min returns the minimum value of column, or nil when no rows match.
func (b *Builder) Min(ctx context.Context, column string) (interface{}, error) {
	return b.Aggregate(ctx, "min", column)
}

// Max returns the maximum value of column, or nil when no rows match.
func (b *Builder) Max(ctx context.Context, column string) (interface{}, error) {
	return b.Aggregate(ctx, "max", column)
}

// Sum returns the sum of column; no rows sum to 0.
func (b *Builder) Sum(ctx context.Context, column string) (interface{}, error) {
	v, err := b.Aggregate(ctx, "sum", column)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return int64(0), nil
	}
	return v, nil
}

// Avg returns the average of column, or nil when no rows match.
func (b *Builder) Avg(ctx context.Context, column string) (interface{}, error) {
	return b.Aggregate(ctx, "avg", column)
}

// Average is an alias of Avg.
func (b *Builder) Average(ctx context.Context, column string) (interface{}, error) {
	return b.Avg(ctx, column)
}

// Aggregate runs an aggregate function over the query and returns the
// "aggregate" column of the first row.
func (b *Builder) Aggregate(ctx context.Context, function string, columns ...interface{}) (interface{}, error) {
	q := b.cloneForAggregate()
	q.setAggregate(function, columns)
	rows, err := q.Get(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0]["aggregate"], nil
}

// cloneForAggregate drops the selected columns and their bindings unless the
// aggregate has to wrap the full select (unions or havings).
func (b *Builder) cloneForAggregate() *Builder {
	if b.unions != nil || len(b.havings) > 0 {
		return b.Clone()
	}
	return b.CloneWithout(ComponentColumns).CloneWithoutBindings(BindingSelect)
}

func (b *Builder) setAggregate(function string, columns []interface{}) {
	if len(columns) == 0 {
		columns = []interface{}{"*"}
	}
	b.aggregate = &aggregate{function: function, columns: columns}
	if len(b.groups) == 0 {
		b.orders = nil
		b.bindings[BindingOrder] = []interface{}{}
	}
}

// prepareRecords sorts the shared column list of a batch and collects the
// bindings row by row.
func prepareRecords(records []map[string]interface{}) ([]string, []interface{}) {
	columns := util.SortedKeys(records[0])
	bindings := make([]interface{}, 0, len(columns)*len(records))
	for i, record := range records {
		if len(record) != len(columns) {
			fail(ErrMismatchedRecords, "record %d has %d columns, expected %d", i, len(record), len(columns))
		}
		for _, col := range columns {
			v, ok := record[col]
			if !ok {
				fail(ErrMismatchedRecords, "record %d is missing column %q", i, col)
			}
			if !isExpression(v) {
				bindings = append(bindings, v)
			}
		}
	}
	return columns, bindings
}

// InsertStatement compiles an INSERT of records without executing it.
func (b *Builder) InsertStatement(records ...map[string]interface{}) Statement {
	columns, bindings := prepareRecords(records)
	return Statement{SQL: b.grammar.CompileInsert(b, columns, records), Bindings: bindings}
}

// Insert inserts one or more records. Every record must have the same keys;
// columns are emitted in sorted key order. Inserting nothing succeeds.
func (b *Builder) Insert(ctx context.Context, records ...map[string]interface{}) (bool, error) {
	if len(records) == 0 {
		return true, nil
	}
	conn, err := b.connection()
	if err != nil {
		return false, err
	}
	stmt := b.InsertStatement(records...)
	return conn.Insert(ctx, stmt.SQL, stmt.Bindings)
}

// InsertOrIgnore inserts records, skipping rows that violate constraints.
func (b *Builder) InsertOrIgnore(ctx context.Context, records ...map[string]interface{}) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	columns, bindings := prepareRecords(records)
	return conn.AffectingStatement(ctx, b.grammar.CompileInsertOrIgnore(b, columns, records), bindings)
}

// InsertGetID inserts one record and returns the generated key. sequence names
// the key column on engines that return it explicitly.
func (b *Builder) InsertGetID(ctx context.Context, values map[string]interface{}, sequence ...string) (int64, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	seq := ""
	if len(sequence) > 0 {
		seq = sequence[0]
	}
	records := []map[string]interface{}{values}
	columns, bindings := prepareRecords(records)
	sql := b.grammar.CompileInsertGetID(b, columns, records, seq)
	return conn.ProcessInsertGetID(ctx, sql, bindings, seq)
}

// InsertUsing inserts the rows selected by query into columns.
func (b *Builder) InsertUsing(ctx context.Context, columns []string, query interface{}) (int64, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	sql, bindings := b.createSub(query)
	return conn.AffectingStatement(ctx, b.grammar.CompileInsertUsing(b, columns, sql), cleanBindings(bindings))
}

// Upsert inserts records, updating the update columns of rows that collide on
// uniqueBy. A nil update list updates every inserted column except uniqueBy;
// an empty one ignores conflicting rows.
func (b *Builder) Upsert(ctx context.Context, records []map[string]interface{}, uniqueBy, update []string) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	columns, bindings := prepareRecords(records)
	if update == nil {
		update = filterKeys(columns, uniqueBy)
	}
	if len(update) == 0 {
		return b.InsertOrIgnore(ctx, records...)
	}
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	sql := b.grammar.CompileUpsert(b, columns, records, uniqueBy, update)
	return conn.AffectingStatement(ctx, sql, bindings)
}

// filterKeys returns keys that are not in exclude.
func filterKeys(keys, exclude []string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		excluded[k] = true
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !excluded[k] {
			out = append(out, k)
		}
	}
	return out
}

// UpdateStatement compiles an UPDATE without executing it.
func (b *Builder) UpdateStatement(values map[string]interface{}) Statement {
	return Statement{
		SQL:      b.grammar.CompileUpdate(b, values),
		Bindings: b.grammar.PrepareBindingsForUpdate(b.bindings, values),
	}
}

// Update sets values on the matching rows and returns the affected row count.
func (b *Builder) Update(ctx context.Context, values map[string]interface{}) (int64, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	stmt := b.UpdateStatement(values)
	return conn.Update(ctx, stmt.SQL, stmt.Bindings)
}

// Increment adds amount to column, optionally updating extra columns too.
func (b *Builder) Increment(ctx context.Context, column string, amount interface{}, extra ...map[string]interface{}) (int64, error) {
	return b.Update(ctx, b.incrementValues(column, "+", amount, extra))
}

// Decrement subtracts amount from column, optionally updating extra columns too.
func (b *Builder) Decrement(ctx context.Context, column string, amount interface{}, extra ...map[string]interface{}) (int64, error) {
	return b.Update(ctx, b.incrementValues(column, "-", amount, extra))
}

func (b *Builder) incrementValues(column, sign string, amount interface{}, extra []map[string]interface{}) map[string]interface{} {
	if !util.IsNumeric(amount) {
		fail(ErrNonNumericAmount, "got %T", amount)
	}
	values := map[string]interface{}{
		column: Raw(b.grammar.Wrap(column) + " " + sign + " " + util.FormatNumber(amount)),
	}
	for _, m := range extra {
		for k, v := range m {
			values[k] = v
		}
	}
	return values
}

// DeleteStatement compiles a DELETE without executing it.
func (b *Builder) DeleteStatement() Statement {
	return Statement{
		SQL:      b.grammar.CompileDelete(b),
		Bindings: b.grammar.PrepareBindingsForDelete(b.bindings),
	}
}

// Delete removes the matching rows and returns the affected row count.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	stmt := b.DeleteStatement()
	return conn.Delete(ctx, stmt.SQL, stmt.Bindings)
}

// DeleteByID removes the row of the target table whose id equals id.
func (b *Builder) DeleteByID(ctx context.Context, id interface{}) (int64, error) {
	return b.Where(b.tableAlias()+".id", "=", id).Delete(ctx)
}

// Truncate empties the target table.
func (b *Builder) Truncate(ctx context.Context) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	stmts := b.grammar.CompileTruncate(b)
	sqls := make([]string, len(stmts))
	params := make([][]interface{}, len(stmts))
	for i, s := range stmts {
		sqls[i] = s.SQL
		params[i] = s.Bindings
	}
	return conn.Statement(ctx, sqls, params)
}
