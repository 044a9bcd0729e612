package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/github-portfolio-sync/internal/apperror"
	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

type stubSource struct {
	pins []model.Repository
	err  error
}

func (s stubSource) Fetch(context.Context) ([]model.Repository, error) {
	return s.pins, s.err
}

func repo(name string, stars int) model.Repository {
	return model.Repository{Name: name, FullName: "octo/" + name, StargazersCount: stars, Topics: []string{}}
}

func TestResolve_Reconciles(t *testing.T) {
	logger, _ := log.NewCslLogger()
	r := NewPinnedResolver(logger, stubSource{}, 6)

	general := []model.Repository{repo("a", 1), repo("b", 2), repo("c", 3)}
	general[1].Description = "from the api"
	pins := []model.Repository{
		{ID: 999000, Name: "b", PreviewImage: "pin.png"},
		{ID: 999001, Name: "z"},
		{ID: 999002, Name: "c"},
	}

	got := r.Resolve(pins, general)
	require.Len(t, got, 3)

	matched := 0
	for _, p := range got {
		if p.ID < 999000 {
			matched++
		}
	}
	assert.Equal(t, 2, matched)
	assert.Equal(t, "from the api", got[0].Description)
	assert.Equal(t, "pin.png", got[0].PreviewImage)
	assert.Equal(t, int64(999001), got[1].ID)
	assert.Equal(t, "octo/c", got[2].FullName)
}

func TestResolve_FallbackTopStarred(t *testing.T) {
	logger, _ := log.NewCslLogger()
	r := NewPinnedResolver(logger, stubSource{}, 3)

	general := []model.Repository{repo("a", 1), repo("b", 9), repo("c", 4), repo("d", 9), repo("e", 0)}
	got := r.Resolve(nil, general)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "d", "c"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, "a", general[0].Name, "input order is untouched")

	assert.Empty(t, r.Resolve(nil, nil))
}

func TestPinnedResolverFetch_SwallowsErrors(t *testing.T) {
	logger, _ := log.NewCslLogger()

	r := NewPinnedResolver(logger, stubSource{err: errors.New("boom")}, 6)
	assert.Nil(t, r.Fetch(context.Background()))

	r = NewPinnedResolver(logger, stubSource{err: apperror.RateLimited(time.Now().Add(time.Minute))}, 6)
	assert.Nil(t, r.Fetch(context.Background()))

	pins := []model.Repository{repo("x", 0)}
	r = NewPinnedResolver(logger, stubSource{pins: pins}, 6)
	assert.Equal(t, pins, r.Fetch(context.Background()))
}

func TestTagTargets(t *testing.T) {
	pinned := []model.Repository{repo("a", 0), repo("b", 0)}
	general := []model.Repository{repo("b", 0), repo("c", 0), repo("d", 0), repo("e", 0), repo("f", 0), repo("g", 0)}

	got := TagTargets(pinned, general, 5)
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, names)

	assert.Len(t, TagTargets(nil, general[:2], 5), 2)
	assert.Len(t, TagTargets(pinned, general, -1), 2, "negative limit tags only pinned")
}

func TestAnnotatePreviews(t *testing.T) {
	repos := []model.Repository{repo("a", 0), {Name: "b", FullName: "octo/b", PreviewImage: "keep.png"}}
	AnnotatePreviews(repos)
	assert.Equal(t, "https://opengraph.githubassets.com/1/octo/a", repos[0].PreviewImage)
	assert.Equal(t, "keep.png", repos[1].PreviewImage)
}

const profileFixture = `<html><body>
<ol>
  <li><div class="pinned-item-list-item-content">
    <a href="/octo/alpha"><span class="repo">alpha</span></a>
    <p class="pinned-item-desc"> A fast tool </p>
    <span itemprop="programmingLanguage">Go</span>
    <a href="/octo/alpha/stargazers"> 1.2k </a>
    <a href="/octo/alpha/forks"> 34 </a>
  </div></li>
  <li><div class="pinned-item-list-item-content">
    <a href="/other-org/beta"><span class="repo">beta</span></a>
  </div></li>
</ol>
</body></html>`

func TestParseProfilePins(t *testing.T) {
	pins, err := ParseProfilePins([]byte(profileFixture))
	require.NoError(t, err)
	require.Len(t, pins, 2)

	assert.Equal(t, "alpha", pins[0].Name)
	assert.Equal(t, "octo/alpha", pins[0].FullName)
	assert.Equal(t, "A fast tool", pins[0].Description)
	assert.Equal(t, "Go", pins[0].Language)
	assert.Equal(t, 1200, pins[0].StargazersCount)
	assert.Equal(t, 34, pins[0].ForksCount)
	assert.Equal(t, int64(999000), pins[0].ID)

	assert.Equal(t, "other-org/beta", pins[1].FullName)
	assert.Equal(t, int64(999001), pins[1].ID)
}

func TestFactoryPinnedSource(t *testing.T) {
	s, err := FactoryPinnedSource("service", nil)
	require.NoError(t, err)
	assert.IsType(t, &ServiceSource{}, s)

	s, err = FactoryPinnedSource("profile", nil)
	require.NoError(t, err)
	assert.IsType(t, &ProfileSource{}, s)

	_, err = FactoryPinnedSource("carrier-pigeon", nil)
	assert.Error(t, err)
}
