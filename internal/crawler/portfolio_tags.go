package crawler

import (
	"context"
	"sync"

	githubapi "github.com/thep200/github-portfolio-sync/internal/github_api"
	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

type TagEnricher struct {
	Logger  log.Logger
	Caller  *githubapi.Caller
	workers int
}

func NewTagEnricher(logger log.Logger, caller *githubapi.Caller, workers int) *TagEnricher {
	if workers < 1 {
		workers = 1
	}
	return &TagEnricher{Logger: logger, Caller: caller, workers: workers}
}

// TagTargets is the pinned set followed by the first limit general
// repositories, without repeating a name.
func TagTargets(pinned, repos []model.Repository, limit int) []model.Repository {
	if limit < 0 {
		limit = 0
	}
	if limit > len(repos) {
		limit = len(repos)
	}
	seen := make(map[string]bool, len(pinned)+limit)
	targets := make([]model.Repository, 0, len(pinned)+limit)
	for _, r := range append(append([]model.Repository{}, pinned...), repos[:limit]...) {
		if r.Name == "" || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		targets = append(targets, r)
	}
	return targets
}

// Enrich looks up the latest tag of every repository concurrently.
// Repositories without a tag, or whose lookup failed, are left out.
func (t *TagEnricher) Enrich(ctx context.Context, repos []model.Repository) model.TagMap {
	tags := make(model.TagMap, len(repos))
	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, t.workers)

	for _, repo := range repos {
		semaphore <- struct{}{}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			tag, err := t.Caller.LatestTag(ctx, name)
			if err != nil {
				t.Logger.Warn(ctx, "Skipping tag of %s: %v", name, err)
				return
			}
			if tag == "" {
				return
			}
			mu.Lock()
			tags[name] = tag
			mu.Unlock()
		}(repo.Name)
	}

	wg.Wait()
	return tags
}

// ApplyTags copies tags onto the matching repositories.
func ApplyTags(repos []model.Repository, tags model.TagMap) {
	for i := range repos {
		if tag, ok := tags[repos[i].Name]; ok {
			repos[i].LatestTag = tag
		}
	}
}
