package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/thep200/github-portfolio-sync/internal/apperror"
	"github.com/thep200/github-portfolio-sync/internal/store"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

var errTokensUnreadable = errors.New("persisted tokens unreadable, write skipped")

// TokenEntry is the last validation token seen for a URL and the body it
// validated.
type TokenEntry struct {
	Token      string    `json:"token"`
	Body       []byte    `json:"body"`
	CapturedAt time.Time `json:"captured_at"`
}

// TokenStore maps request URLs to TokenEntry. All entries live in a single
// blob under one key; the blob is loaded lazily and rewritten on every save.
type TokenStore struct {
	Logger  log.Logger
	store   store.Store
	key     string
	mu      sync.Mutex
	loaded  bool
	entries map[string]TokenEntry
}

func NewTokenStore(logger log.Logger, s store.Store, key string) *TokenStore {
	return &TokenStore{
		Logger:  logger,
		store:   s,
		key:     key,
		entries: make(map[string]TokenEntry),
	}
}

// load reads the persisted mapping once. A failed read leaves the store
// unloaded so the next access tries again.
func (t *TokenStore) load(ctx context.Context) bool {
	if t.loaded {
		return true
	}

	raw, ok, err := t.store.Read(ctx, t.key)
	if err != nil {
		t.Logger.Warn(ctx, "Cannot read validation tokens: %v", err)
		return false
	}
	t.loaded = true
	if !ok {
		return true
	}
	entries := make(map[string]TokenEntry)
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Logger.Warn(ctx, "Discarding unreadable validation tokens: %v", err)
		return true
	}
	// keep entries saved while the store was unreadable
	for url, entry := range t.entries {
		entries[url] = entry
	}
	t.entries = entries
	return true
}

// Lookup returns the entry stored for url.
func (t *TokenStore) Lookup(ctx context.Context, url string) (TokenEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load(ctx)
	entry, ok := t.entries[url]
	return entry, ok
}

// Save records entry for url and persists the whole mapping. The in-memory
// mapping is updated even when persisting fails. Nothing is written while
// the persisted mapping cannot be read.
func (t *TokenStore) Save(ctx context.Context, url string, entry TokenEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	loaded := t.load(ctx)
	t.entries[url] = entry
	if !loaded {
		return apperror.StorageFailure("read validation tokens", errTokensUnreadable)
	}

	raw, err := json.Marshal(t.entries)
	if err != nil {
		return apperror.StorageFailure("encode validation tokens", err)
	}
	if err := t.store.Write(ctx, t.key, raw); err != nil {
		return apperror.StorageFailure("write validation tokens", err)
	}
	return nil
}

// Len is the number of known URLs.
func (t *TokenStore) Len(ctx context.Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load(ctx)
	return len(t.entries)
}
