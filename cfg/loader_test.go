package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYaml = `
githubApi:
  username: yaml-user
  tagWorkers: 8
cache:
  driver: memory
kafka:
  brokers:
    - localhost:9092
`

func TestViperLoader_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mode.yaml"), []byte(testYaml), 0o644))
	t.Setenv("PORTFOLIO_GITHUBAPI_USERNAME", "env-user")
	t.Setenv("GITHUB_TOKEN", "tok")

	loader, err := NewViperLoader()
	require.NoError(t, err)
	config, err := loader.WithConfigDir(dir).WithWatch(false).Load()
	require.NoError(t, err)

	assert.Equal(t, "env-user", config.GithubApi.Username)
	assert.Equal(t, "tok", config.GithubApi.AccessToken)
	assert.Equal(t, 8, config.GithubApi.TagWorkers)
	assert.Equal(t, "memory", config.Cache.Driver)
	assert.Equal(t, []string{"localhost:9092"}, config.Kafka.Brokers)

	// unset values fall back to defaults
	assert.Equal(t, "https://api.github.com", config.GithubApi.ApiUrl)
	assert.Equal(t, 60, config.GithubApi.RateLimitFallbackSec)

	again, err := loader.Load()
	require.NoError(t, err)
	assert.Same(t, config, again)
}

func TestViperLoader_MissingFile(t *testing.T) {
	loader, err := NewViperLoader()
	require.NoError(t, err)
	_, err = loader.WithConfigDir(t.TempDir()).WithWatch(false).Load()
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	c := &Config{GithubApi: GithubApi{ReposPerPage: 30}}
	c.Defaults()

	assert.Equal(t, 30, c.GithubApi.ReposPerPage)
	assert.Equal(t, 100, c.GithubApi.FollowersPerPage)
	assert.Equal(t, 5, c.GithubApi.MaxRedirects)
	assert.Equal(t, 6, c.GithubApi.PinnedFallbackCount)
	assert.Equal(t, "gh_portfolio_v1", c.Cache.SnapshotKey)
	assert.Equal(t, "gh_portfolio_etags_v1", c.Cache.TokenKey)
	assert.Equal(t, 60, c.Cache.SnapshotTTLMin)
	assert.Equal(t, 30, c.Recovery.RetryIntervalSec)
	assert.Equal(t, "sqlite", c.Cache.Driver)
	assert.Equal(t, 5, c.GithubApi.TagRepoLimit)

	neg := &Config{GithubApi: GithubApi{TagRepoLimit: -3}}
	neg.Defaults()
	assert.Equal(t, 0, neg.GithubApi.TagRepoLimit)
}

func TestMockLoader(t *testing.T) {
	ml, err := NewMockLoader()
	require.NoError(t, err)
	config, err := ml.Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", config.Cache.Driver)
	assert.NotEmpty(t, config.GithubApi.Username)
}
