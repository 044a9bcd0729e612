package crawler

import (
	"context"
	"sort"

	githubapi "github.com/thep200/github-portfolio-sync/internal/github_api"
	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

// PinnedSource lists the repositories the account pinned on its profile.
type PinnedSource interface {
	Fetch(ctx context.Context) ([]model.Repository, error)
}

// ServiceSource reads pins from the third-party pinned repository service.
type ServiceSource struct {
	Caller *githubapi.Caller
}

func NewServiceSource(caller *githubapi.Caller) *ServiceSource {
	return &ServiceSource{Caller: caller}
}

func (s *ServiceSource) Fetch(ctx context.Context) ([]model.Repository, error) {
	var resp []githubapi.PinnedResponse
	ok, err := s.Caller.GetJSON(ctx, s.Caller.Endpoints.Pinned(), &resp)
	if err != nil || !ok {
		return nil, err
	}
	pins := make([]model.Repository, 0, len(resp))
	for i, p := range resp {
		if p.Repo == "" {
			continue
		}
		pins = append(pins, p.ToModel(i))
	}
	return pins, nil
}

type PinnedResolver struct {
	Logger        log.Logger
	Source        PinnedSource
	FallbackCount int
}

func NewPinnedResolver(logger log.Logger, source PinnedSource, fallbackCount int) *PinnedResolver {
	return &PinnedResolver{
		Logger:        logger,
		Source:        source,
		FallbackCount: fallbackCount,
	}
}

// Fetch never fails: any source error, rate limits included, is logged and
// reported as no pins so that Resolve falls back.
func (r *PinnedResolver) Fetch(ctx context.Context) []model.Repository {
	pins, err := r.Source.Fetch(ctx)
	if err != nil {
		r.Logger.Warn(ctx, "Pinned repositories unavailable, using fallback: %v", err)
		return nil
	}
	if len(pins) == 0 {
		r.Logger.Info(ctx, "No pinned repositories returned, using fallback")
	}
	return pins
}

// Resolve reconciles pins against the general repository list. A pin whose
// name matches a general repository is replaced by that repository, keeping
// only the pin's preview image. Without pins the most starred repositories
// stand in.
func (r *PinnedResolver) Resolve(pins, repos []model.Repository) []model.Repository {
	if len(pins) == 0 {
		return TopStarred(repos, r.FallbackCount)
	}

	byName := make(map[string]model.Repository, len(repos))
	for _, repo := range repos {
		if _, seen := byName[repo.Name]; !seen {
			byName[repo.Name] = repo
		}
	}

	resolved := make([]model.Repository, 0, len(pins))
	for _, pin := range pins {
		general, ok := byName[pin.Name]
		if !ok {
			resolved = append(resolved, pin)
			continue
		}
		if pin.PreviewImage != "" {
			general.PreviewImage = pin.PreviewImage
		}
		general.Topics = append([]string{}, general.Topics...)
		resolved = append(resolved, general)
	}
	return resolved
}

// TopStarred returns copies of the n most starred repositories; equal star
// counts keep their listing order.
func TopStarred(repos []model.Repository, n int) []model.Repository {
	sorted := make([]model.Repository, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StargazersCount > sorted[j].StargazersCount
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
