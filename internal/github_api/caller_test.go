package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/internal/apperror"
	"github.com/thep200/github-portfolio-sync/internal/store"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

// countingStore records writes so tests can assert the store was not touched.
type countingStore struct {
	*store.MemoryStore
	writes atomic.Int32
}

func (s *countingStore) Write(ctx context.Context, key string, value []byte) error {
	s.writes.Add(1)
	return s.MemoryStore.Write(ctx, key, value)
}

func newTestCaller(t *testing.T, apiURL string) (*Caller, *countingStore) {
	t.Helper()
	loader := &cfg.MockLoader{Username: "octo", ApiUrl: apiURL}
	config, err := loader.Load()
	require.NoError(t, err)
	config.GithubApi.RequestsPerSecond = 1000
	config.GithubApi.RawContentUrl = apiURL + "/raw"

	logger, _ := log.NewCslLogger()
	s := &countingStore{MemoryStore: store.NewMemoryStore()}
	tokens := NewTokenStore(logger, s, "tokens")
	return NewCaller(logger, config, tokens), s
}

func TestGet_StoresTokenAndReusesBodyOnNotModified(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(`{"login":"octo"}`))
	}))
	defer srv.Close()

	c, s := newTestCaller(t, srv.URL)
	ctx := context.Background()
	url := c.Endpoints.User()

	body, err := c.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, `{"login":"octo"}`, string(body))
	require.Equal(t, int32(1), s.writes.Load())

	before, ok := c.Tokens.Lookup(ctx, url)
	require.True(t, ok)
	assert.Equal(t, `"v1"`, before.Token)

	body, err = c.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, before.Body, body)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), s.writes.Load(), "304 must not write the store")

	after, _ := c.Tokens.Lookup(ctx, url)
	assert.Equal(t, before.CapturedAt, after.CapturedAt)
}

func TestGet_NoETagDoesNotWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, s := newTestCaller(t, srv.URL)
	body, err := c.Get(context.Background(), c.Endpoints.Repos())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(0), s.writes.Load())
}

func TestGet_Throttled(t *testing.T) {
	reset := time.Now().Add(5 * time.Second).Unix()

	tests := []struct {
		name    string
		status  int
		headers map[string]string
		want    func(now time.Time) time.Time
	}{
		{
			name:    "retry-after wins",
			status:  http.StatusTooManyRequests,
			headers: map[string]string{"Retry-After": "120", "X-RateLimit-Reset": fmt.Sprint(reset)},
			want:    func(now time.Time) time.Time { return now.Add(120 * time.Second) },
		},
		{
			name:    "x-ratelimit-reset epoch",
			status:  http.StatusForbidden,
			headers: map[string]string{"X-RateLimit-Reset": fmt.Sprint(reset), "X-RateLimit-Remaining": "0"},
			want:    func(time.Time) time.Time { return time.Unix(reset, 0) },
		},
		{
			name:   "fallback",
			status: http.StatusForbidden,
			want:   func(now time.Time) time.Time { return now.Add(60 * time.Second) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c, s := newTestCaller(t, srv.URL)
			now := time.Now()
			_, err := c.Get(context.Background(), c.Endpoints.User())
			require.Error(t, err)

			resetAt, limited := apperror.IsRateLimited(err)
			require.True(t, limited)
			assert.WithinDuration(t, tt.want(now), resetAt, time.Second)
			assert.Equal(t, apperror.KindRateLimited, apperror.KindOf(err))
			assert.Equal(t, int32(0), s.writes.Load())
		})
	}
}

func TestGet_OtherFailuresAreAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, _ := newTestCaller(t, srv.URL)
	body, err := c.Get(context.Background(), c.Endpoints.User())
	assert.NoError(t, err)
	assert.Nil(t, body)

	var v map[string]any
	ok, err := c.GetJSON(context.Background(), c.Endpoints.User(), &v)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_TransportErrorIsEndpointUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c, _ := newTestCaller(t, srv.URL)
	srv.Close()

	_, err := c.Get(context.Background(), c.Endpoints.User())
	require.Error(t, err)
	assert.Equal(t, apperror.KindEndpointUnavailable, apperror.KindOf(err))
}

func TestGet_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/user/42", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/user/42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login":"octo"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, _ := newTestCaller(t, srv.URL)
	var u UserResponse
	ok, err := c.GetJSON(context.Background(), c.Endpoints.User(), &u)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "octo", u.Login)
}

func TestGet_RedirectLoopIsCapped(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	}))
	defer srv.Close()

	c, _ := newTestCaller(t, srv.URL)
	_, err := c.Get(context.Background(), c.Endpoints.User())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrEndpointUnavailable)
	assert.Equal(t, int32(c.Config.GithubApi.MaxRedirects+1), calls.Load())
}

func TestGetJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c, _ := newTestCaller(t, srv.URL)
	var v map[string]any
	ok, err := c.GetJSON(context.Background(), c.Endpoints.User(), &v)
	assert.False(t, ok)
	assert.ErrorIs(t, err, apperror.ErrEndpointUnavailable)
}

func TestAuthorizationOnlyForAPI(t *testing.T) {
	var gotAuth atomic.Value
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()
	other := httptest.NewServer(handler)
	defer other.Close()

	c, _ := newTestCaller(t, srv.URL)
	c.Config.GithubApi.AccessToken = "secret"

	_, err := c.Get(context.Background(), c.Endpoints.Repos())
	require.NoError(t, err)
	assert.Equal(t, "token secret", gotAuth.Load())

	_, err = c.Get(context.Background(), other.URL+"/pins")
	require.NoError(t, err)
	assert.Equal(t, "", gotAuth.Load())
}

func TestParticipation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/busy/stats/participation", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/repos/octo/ready/stats/participation", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ParticipationResponse{All: []int{1, 2}, Owner: []int{1, 0}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, _ := newTestCaller(t, srv.URL)
	ctx := context.Background()

	p, err := c.Participation(ctx, "busy")
	assert.NoError(t, err)
	assert.Nil(t, p)

	p, err = c.Participation(ctx, "ready")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []int{1, 2}, p.All)

	p, err = c.Participation(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestReadme_BranchFallback(t *testing.T) {
	var tried []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tried = append(tried, r.URL.Path)
		if r.URL.Path == "/raw/octo/tool/master/README.md" {
			_, _ = w.Write([]byte("# tool"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, _ := newTestCaller(t, srv.URL)
	readme, err := c.Readme(context.Background(), "tool", "dev")
	require.NoError(t, err)
	require.NotNil(t, readme)
	assert.Equal(t, "# tool", readme.Content)
	assert.Equal(t, "master", readme.Branch)
	assert.Equal(t, []string{"/raw/octo/tool/dev/README.md", "/raw/octo/tool/master/README.md"}, tried)

	readme, err = c.Readme(context.Background(), "none", "main")
	assert.NoError(t, err)
	assert.Nil(t, readme)
}

func TestReadmeBranches(t *testing.T) {
	assert.Equal(t, []string{"main", "master"}, readmeBranches("main"))
	assert.Equal(t, []string{"master", "main"}, readmeBranches(""))
	assert.Equal(t, []string{"develop", "master", "main"}, readmeBranches("develop"))
}

func TestLatestTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/tagged/tags", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`[{"name":"v1.2.0"}]`))
	})
	mux.HandleFunc("/repos/octo/bare/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, _ := newTestCaller(t, srv.URL)
	tag, err := c.LatestTag(context.Background(), "tagged")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", tag)

	tag, err = c.LatestTag(context.Background(), "bare")
	require.NoError(t, err)
	assert.Equal(t, "", tag)
}
