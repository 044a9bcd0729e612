package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/internal/recovery"
)

func newGithub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login":"octo","created_at":"2020-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"tool","full_name":"octo/tool","default_branch":"trunk","stargazers_count":3}]`))
	})
	mux.HandleFunc("/users/octo/followers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/raw/octo/tool/trunk/README.md", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# tool"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testLoader struct {
	apiURL string
}

func (l testLoader) Load() (*cfg.Config, error) {
	config, err := (&cfg.MockLoader{Username: "octo", ApiUrl: l.apiURL}).Load()
	if err != nil {
		return nil, err
	}
	config.GithubApi.PinnedApiUrl = l.apiURL + "/pinned"
	config.GithubApi.RawContentUrl = l.apiURL + "/raw"
	config.GithubApi.RequestsPerSecond = 1000
	return config, nil
}

func TestPortfolioAPI_EndToEnd(t *testing.T) {
	srv := newGithub(t)
	a := NewPortfolioAPI(testLoader{apiURL: srv.URL})
	ctx := context.Background()
	require.NoError(t, a.Initialize(ctx))
	defer a.Close()

	assert.Equal(t, recovery.Idle, a.Status().State)
	require.True(t, a.Controller().Load(ctx))

	st := a.Status()
	assert.Equal(t, recovery.Ready, st.State)
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, 3, st.Snapshot.Stats.TotalStars)
	require.Len(t, st.Snapshot.PinnedRepos, 1)
	assert.Equal(t, "tool", st.Snapshot.PinnedRepos[0].Name)

	readme, err := a.Readme(ctx, "tool")
	require.NoError(t, err)
	require.NotNil(t, readme)
	assert.Equal(t, "trunk", readme.Branch)

	snap, err := a.Snapshot(ctx, false)
	require.NoError(t, err)
	assert.True(t, snap.CapturedAt.Equal(st.Snapshot.CapturedAt), "served from cache")
}

func TestPortfolioAPI_NotInitialized(t *testing.T) {
	a := NewPortfolioAPI(nil)
	_, err := a.Snapshot(context.Background(), false)
	assert.Error(t, err)
	assert.False(t, a.Refresh(context.Background()))
	assert.Equal(t, recovery.Idle, a.Status().State)
	assert.NoError(t, a.Close())
}

func TestPortfolioAPI_RequiresUsername(t *testing.T) {
	a := NewPortfolioAPI(&cfg.MockLoader{})
	assert.Error(t, a.Initialize(context.Background()))
}
