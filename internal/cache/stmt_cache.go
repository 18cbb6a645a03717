package cache

import (
	"database/sql"
)

// DefaultStmtCacheCapacity is the default number of cached prepared statements.
const DefaultStmtCacheCapacity = 1000

// StmtCache caches prepared statements keyed by their SQL text. Statements
// leaving the cache are closed.
type StmtCache struct {
	*LRU[*sql.Stmt]
}

// NewStmtCache creates a statement cache with the default capacity.
func NewStmtCache() *StmtCache {
	return NewStmtCacheWithCapacity(DefaultStmtCacheCapacity)
}

// NewStmtCacheWithCapacity creates a statement cache holding at most capacity statements.
func NewStmtCacheWithCapacity(capacity int) *StmtCache {
	return &StmtCache{LRU: NewLRU(capacity, func(_ string, stmt *sql.Stmt) {
		if stmt != nil {
			_ = stmt.Close()
		}
	})}
}
