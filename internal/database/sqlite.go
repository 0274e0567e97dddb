package database

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/keyxmakerx/tasktags/internal/config"
)

func init() {
	// SQLite's built-in lower() only folds ASCII. Replacing it on every
	// connection makes LOWER(...) in queries and migrations agree with
	// MariaDB's utf8mb4 collation and with strings.ToLower.
	sqlite.MustRegisterDeterministicScalarFunction("lower", 1, unicodeLower)
}

// unicodeLower implements lower(X) with full Unicode case folding. NULL
// and non-text values pass through unchanged.
func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return bytes.ToLower(v), nil
	default:
		return v, nil
	}
}

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// NewSQLite opens (or creates) the SQLite database at cfg.Path. Foreign keys
// are enabled on every connection so todo_tags rows cascade.
//
// The pool is pinned to a single connection that never expires: SQLite
// serializes writers anyway, and each new connection to ":memory:" would
// see a fresh empty database.
func NewSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if cfg.Path != MemoryPath {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	return db, nil
}
