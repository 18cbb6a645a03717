package benchmark

import (
	"context"
	"testing"

	"github.com/coregx/quill"
	_ "modernc.org/sqlite"
)

func BenchmarkCompileSelect(b *testing.B) {
	grammars := map[string]*quill.Grammar{
		"sqlite":   quill.NewSQLiteGrammar(),
		"postgres": quill.NewPostgresGrammar(),
		"mysql":    quill.NewMySQLGrammar(),
	}

	for name, g := range grammars {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				q := quill.NewBuilder(nil, g).
					From("users as u").
					Select("u.id", "u.name", quill.Raw("count(p.id) as posts")).
					LeftJoin("posts as p", "p.user_id", "u.id").
					Where("u.active", true).
					Where(func(w *quill.Builder) {
						w.Where("u.role", "admin").OrWhereIn("u.id", []int{1, 2, 3})
					}).
					GroupBy("u.id", "u.name").
					Having("posts", ">", 5).
					OrderBy("u.name").
					Limit(10)
				_ = q.ToSQL()
				_ = q.GetBindings()
			}
		})
	}
}

func BenchmarkSelectQuery(b *testing.B) {
	db, _ := quill.Open("sqlite", ":memory:", quill.WithMaxOpenConns(1))
	defer db.Close()

	_, _ = db.SQLDB().ExecContext(context.Background(), `
        CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)
    `)

	// Insert test data
	_, _ = db.SQLDB().ExecContext(context.Background(), `
        INSERT INTO items (id, name) VALUES (1, 'test')
    `)

	ctx := context.Background()

	b.Run("SimpleSelect", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = db.Table("items").Select("id", "name").Get(ctx)
		}
	})

	b.Run("ReusedBuilder", func(b *testing.B) {
		query := db.Table("items").Select("id", "name")
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = query.Get(ctx)
		}
	})

	b.Run("WithoutStmtCache", func(b *testing.B) {
		uncached, _ := quill.WrapDB(db.SQLDB(), "sqlite", quill.WithStmtCacheCapacity(1))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			// Alternate statements so the single-slot cache always misses.
			_, _ = uncached.Table("items").Select("id").Get(ctx)
			_, _ = uncached.Table("items").Select("name").Get(ctx)
		}
	})
}
