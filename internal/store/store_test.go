package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/pkg/db"
)

func newTestSqliteStore(t *testing.T) *SqliteStore {
	t.Helper()
	sqlite, err := db.NewSqlite(":memory:")
	require.NoError(t, err)
	s, err := NewSqliteStore(sqlite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStores(t *testing.T) {
	backends := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newTestSqliteStore(t),
	}

	for name, s := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := s.Read(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Write(ctx, "k", []byte(`{"a":1}`)))
			got, ok, err := s.Read(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"a":1}`, string(got))

			// last write wins
			require.NoError(t, s.Write(ctx, "k", []byte(`{"a":2}`)))
			got, _, err = s.Read(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(got))
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, s.Write(ctx, "k", value))
	value[0] = 'z'

	got, _, _ := s.Read(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestNew_Drivers(t *testing.T) {
	config := &cfg.Config{Cache: cfg.Cache{Driver: "memory"}}
	s, err := New(config)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	config.Cache.Driver = "sqlite"
	config.Cache.SqlitePath = ":memory:"
	s, err = New(config)
	require.NoError(t, err)
	assert.IsType(t, &SqliteStore{}, s)
	_ = s.Close()

	config.Cache.Driver = "redis"
	_, err = New(config)
	assert.Error(t, err)
}
