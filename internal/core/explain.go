package core

import (
	"context"

	"github.com/coregx/quill/internal/analyzer"
)

// QueryPlan summarizes an execution plan.
type QueryPlan = analyzer.QueryPlan

// Explain runs EXPLAIN on the compiled select and returns the rows exactly
// as the database reports them.
func (b *Builder) Explain(ctx context.Context) ([]Row, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	return conn.Get(ctx, "explain "+b.ToSQL(), b.GetBindings())
}

// ExplainPlan runs the dialect's structured EXPLAIN and summarizes it. With
// analyze the query is executed to collect actual metrics; SQLite does not
// support that mode.
func (b *Builder) ExplainPlan(ctx context.Context, analyze bool) (*QueryPlan, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	database := b.grammar.Name()
	stmt, err := analyzer.Statement(database, b.ToSQL(), analyze)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Get(ctx, stmt, b.GetBindings())
	if err != nil {
		return nil, err
	}

	raw := make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		raw[i] = r
	}
	return analyzer.Parse(database, raw, analyze)
}
