// Package store holds the persisted key/value blobs used by the snapshot
// cache and the validation token store.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/pkg/db"
)

// Store reads and writes opaque blobs by key. Read reports false for a
// missing key.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	Close() error
}

// New builds the backend named by Cache.Driver.
func New(config *cfg.Config) (Store, error) {
	switch strings.ToLower(config.Cache.Driver) {
	case "memory":
		return NewMemoryStore(), nil
	case "", "sqlite":
		sqlite, err := db.NewSqlite(config.Cache.SqlitePath)
		if err != nil {
			return nil, err
		}
		return NewSqliteStore(sqlite)
	case "mysql":
		mysql, err := db.NewMysql(config)
		if err != nil {
			return nil, err
		}
		return NewMysqlStore(mysql)
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", config.Cache.Driver)
	}
}
