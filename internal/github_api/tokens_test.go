package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/github-portfolio-sync/internal/apperror"
	"github.com/thep200/github-portfolio-sync/internal/store"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

// flakyStore fails the first failReads reads.
type flakyStore struct {
	*store.MemoryStore
	failReads int
}

func (s *flakyStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if s.failReads > 0 {
		s.failReads--
		return nil, false, errors.New("disk busy")
	}
	return s.MemoryStore.Read(ctx, key)
}

func seedTokens(t *testing.T, s store.Store, urls ...string) {
	t.Helper()
	entries := make(map[string]TokenEntry, len(urls))
	for _, u := range urls {
		entries[u] = TokenEntry{Token: `"` + u + `"`, Body: []byte(u), CapturedAt: time.Unix(0, 0).UTC()}
	}
	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), "tokens", raw))
}

func persistedTokens(t *testing.T, s store.Store) map[string]TokenEntry {
	t.Helper()
	raw, ok, err := s.Read(context.Background(), "tokens")
	require.NoError(t, err)
	require.True(t, ok)
	entries := make(map[string]TokenEntry)
	require.NoError(t, json.Unmarshal(raw, &entries))
	return entries
}

func TestTokenStore_FailedReadKeepsPersistedTokens(t *testing.T) {
	logger, _ := log.NewCslLogger()
	s := &flakyStore{MemoryStore: store.NewMemoryStore()}
	seedTokens(t, s, "a", "b", "c")
	s.failReads = 1
	ctx := context.Background()

	tokens := NewTokenStore(logger, s, "tokens")
	err := tokens.Save(ctx, "d", TokenEntry{Token: `"d"`, Body: []byte("d")})
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))
	assert.Len(t, persistedTokens(t, s), 3, "unreadable store is not overwritten")

	entry, ok := tokens.Lookup(ctx, "a")
	require.True(t, ok, "read is retried on the next access")
	assert.Equal(t, `"a"`, entry.Token)

	require.NoError(t, tokens.Save(ctx, "e", TokenEntry{Token: `"e"`}))
	persisted := persistedTokens(t, s)
	assert.Len(t, persisted, 5)
	assert.Contains(t, persisted, "d")
}

func TestTokenStore_MissingBlobStartsEmpty(t *testing.T) {
	logger, _ := log.NewCslLogger()
	s := store.NewMemoryStore()
	ctx := context.Background()

	tokens := NewTokenStore(logger, s, "tokens")
	assert.Equal(t, 0, tokens.Len(ctx))
	require.NoError(t, tokens.Save(ctx, "a", TokenEntry{Token: `"a"`}))
	assert.Len(t, persistedTokens(t, s), 1)
}
