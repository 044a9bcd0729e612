package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Sqlite is the local single-file database used for client-side persistence.
type Sqlite struct {
	Path string
	conn *sql.DB
}

// NewSqlite opens (and creates, if needed) the database at path.
// ":memory:" gives a throwaway database for tests.
func NewSqlite(path string) (*Sqlite, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: creating directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database lives only as long as its connection
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	return &Sqlite{Path: path, conn: conn}, nil
}

func (s *Sqlite) Conn() *sql.DB {
	return s.conn
}

func (s *Sqlite) Close() error {
	return s.conn.Close()
}
