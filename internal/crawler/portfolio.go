// Package crawler assembles a portfolio snapshot for the configured account:
// the account profile, its repositories, followers, pinned repositories and
// their latest tags, merged and summarised.

package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/internal/apperror"
	"github.com/thep200/github-portfolio-sync/internal/cache"
	githubapi "github.com/thep200/github-portfolio-sync/internal/github_api"
	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/internal/stats"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

// Publisher receives a summary of every freshly assembled snapshot.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

type Portfolio struct {
	Logger    log.Logger
	Config    *cfg.Config
	Caller    *githubapi.Caller
	Snapshots *cache.SnapshotCache
	Pinned    *PinnedResolver
	Tags      *TagEnricher
	Publisher Publisher
	now       func() time.Time
}

func NewPortfolio(logger log.Logger, config *cfg.Config, caller *githubapi.Caller, snapshots *cache.SnapshotCache, publisher Publisher) (*Portfolio, error) {
	source, err := FactoryPinnedSource(config.GithubApi.PinnedSource, caller)
	if err != nil {
		return nil, err
	}

	return &Portfolio{
		Logger:    logger,
		Config:    config,
		Caller:    caller,
		Snapshots: snapshots,
		Pinned:    NewPinnedResolver(logger, source, config.GithubApi.PinnedFallbackCount),
		Tags:      NewTagEnricher(logger, caller, config.GithubApi.TagWorkers),
		Publisher: publisher,
		now:       time.Now,
	}, nil
}

// listing holds the joined results of the concurrent fetch phase.
type listing struct {
	user        *model.UserProfile
	userErr     error
	repos       []model.Repository
	reposErr    error
	followers   []model.FollowerProfile
	followerErr error
	pins        []model.Repository
}

// GetSnapshot returns the cached snapshot when fresh, otherwise fetches and
// assembles a new one. Nothing is cached when an error is returned.
func (p *Portfolio) GetSnapshot(ctx context.Context, forceRefresh bool) (*model.Snapshot, error) {
	ctx = log.WithCycle(ctx, xid.New().String())

	if !forceRefresh {
		if snap, ok := p.Snapshots.Read(ctx); ok {
			p.Logger.Debug(ctx, "Serving cached snapshot from %s", snap.CapturedAt.Format(time.RFC3339))
			return snap, nil
		}
	}

	start := p.now()
	p.Logger.Info(ctx, "Refreshing portfolio of %s (forced: %v)", p.Caller.Endpoints.Username(), forceRefresh)

	l := p.fetchAll(ctx)
	if err := l.primaryError(); err != nil {
		p.Logger.Warn(ctx, "Refresh aborted: %v", err)
		return nil, err
	}

	repos := l.repos
	AnnotatePreviews(repos)
	pinned := p.Pinned.Resolve(l.pins, repos)

	tags := p.Tags.Enrich(ctx, TagTargets(pinned, repos, p.Config.GithubApi.TagRepoLimit))
	ApplyTags(repos, tags)
	ApplyTags(pinned, tags)

	snap := &model.Snapshot{
		User:        *l.user,
		Repos:       repos,
		PinnedRepos: pinned,
		Followers:   l.followers,
		Tags:        tags,
		Stats:       stats.Calculate(*l.user, repos, p.now()),
	}

	p.Snapshots.Write(ctx, snap)
	p.publish(ctx, snap)

	p.Logger.Info(ctx, "Snapshot ready: %d repos, %d pinned, %d followers, %d tags in %v",
		len(repos), len(pinned), len(l.followers), len(tags), p.now().Sub(start))
	return snap, nil
}

func (p *Portfolio) fetchAll(ctx context.Context) *listing {
	l := &listing{}
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		l.user, l.userErr = p.fetchUser(ctx)
	}()

	go func() {
		defer wg.Done()
		l.repos, l.reposErr = p.fetchRepos(ctx)
	}()

	go func() {
		defer wg.Done()
		l.followers, l.followerErr = p.fetchFollowers(ctx)
	}()

	go func() {
		defer wg.Done()
		l.pins = p.Pinned.Fetch(ctx)
	}()

	wg.Wait()
	return l
}

// primaryError applies the failure policy of the fetch phase: rate limits
// from any listing surface unchanged, a missing user fails the refresh and
// missing repositories or followers degrade to empty lists.
func (l *listing) primaryError() error {
	for _, err := range []error{l.userErr, l.reposErr, l.followerErr} {
		if _, limited := apperror.IsRateLimited(err); limited {
			return err
		}
	}
	if l.userErr != nil {
		return apperror.PrimaryFetchFailed("user profile", l.userErr)
	}
	if l.user == nil {
		return apperror.PrimaryFetchFailed("user profile", errors.New("no data"))
	}
	if l.reposErr != nil || l.repos == nil {
		l.repos = []model.Repository{}
	}
	if l.followerErr != nil || l.followers == nil {
		l.followers = []model.FollowerProfile{}
	}
	return nil
}

func (p *Portfolio) fetchUser(ctx context.Context) (*model.UserProfile, error) {
	var resp githubapi.UserResponse
	ok, err := p.Caller.GetJSON(ctx, p.Caller.Endpoints.User(), &resp)
	if err != nil || !ok {
		return nil, err
	}
	user := resp.ToModel()
	return &user, nil
}

func (p *Portfolio) fetchRepos(ctx context.Context) ([]model.Repository, error) {
	var resp []githubapi.GithubAPIResponse
	ok, err := p.Caller.GetJSON(ctx, p.Caller.Endpoints.Repos(), &resp)
	if err != nil {
		p.Logger.Warn(ctx, "Repositories unavailable: %v", err)
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	repos := make([]model.Repository, 0, len(resp))
	for _, r := range resp {
		repos = append(repos, r.ToModel())
	}
	return repos, nil
}

func (p *Portfolio) fetchFollowers(ctx context.Context) ([]model.FollowerProfile, error) {
	var resp []githubapi.UserResponse
	ok, err := p.Caller.GetJSON(ctx, p.Caller.Endpoints.Followers(), &resp)
	if err != nil {
		p.Logger.Warn(ctx, "Followers unavailable: %v", err)
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	followers := make([]model.FollowerProfile, 0, len(resp))
	for _, f := range resp {
		followers = append(followers, f.ToFollower())
	}
	return followers, nil
}

func (p *Portfolio) publish(ctx context.Context, snap *model.Snapshot) {
	if p.Publisher == nil {
		return
	}
	if err := p.Publisher.Publish(ctx, snap.User.Login, model.NewSnapshotMessage(snap)); err != nil {
		p.Logger.Warn(ctx, "Cannot publish snapshot event: %v", err)
	}
}
