package cache

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestStmtCache_ClosesEvictedStatements tests that evicted statements can no longer run.
func TestStmtCache_ClosesEvictedStatements(t *testing.T) {
	db := openMemory(t)
	c := NewStmtCacheWithCapacity(1)

	first, err := db.Prepare("select 1")
	require.NoError(t, err)
	second, err := db.Prepare("select 2")
	require.NoError(t, err)

	c.Set("select 1", first)
	c.Set("select 2", second)

	_, ok := c.Get("select 1")
	assert.False(t, ok)

	var n int
	assert.Error(t, first.QueryRow().Scan(&n))
	require.NoError(t, second.QueryRow().Scan(&n))
	assert.Equal(t, 2, n)
}

func TestStmtCache_Clear(t *testing.T) {
	db := openMemory(t)
	c := NewStmtCache()

	stmt, err := db.Prepare("select 1")
	require.NoError(t, err)
	c.Set("select 1", stmt)
	c.Clear()

	assert.Equal(t, 0, c.Len())
	var n int
	assert.Error(t, stmt.QueryRow().Scan(&n))
}

// TestStmtCache_HeldStatementSurvivesEviction tests that an evicted statement
// stays open until the caller holding it releases it.
func TestStmtCache_HeldStatementSurvivesEviction(t *testing.T) {
	db := openMemory(t)
	c := NewStmtCacheWithCapacity(1)

	first, err := db.Prepare("select 1")
	require.NoError(t, err)
	held, release, stored := c.SetAndAcquire("select 1", first)
	require.True(t, stored)

	second, err := db.Prepare("select 2")
	require.NoError(t, err)
	c.Set("select 2", second)
	c.Clear()

	var n int
	require.NoError(t, held.QueryRow().Scan(&n))
	assert.Equal(t, 1, n)

	release()
	assert.Error(t, held.QueryRow().Scan(&n))
	assert.Error(t, second.QueryRow().Scan(&n))
}
