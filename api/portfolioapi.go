// Package api wires the portfolio sync layer into a single facade for the
// executables and the HTTP surface.
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/internal/cache"
	"github.com/thep200/github-portfolio-sync/internal/crawler"
	githubapi "github.com/thep200/github-portfolio-sync/internal/github_api"
	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/internal/recovery"
	"github.com/thep200/github-portfolio-sync/internal/store"
	kafkapkg "github.com/thep200/github-portfolio-sync/pkg/kafka"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

var errNotInitialized = errors.New("portfolio api not initialized")

type PortfolioAPI struct {
	loader     cfg.Loader
	config     *cfg.Config
	logger     log.Logger
	store      store.Store
	caller     *githubapi.Caller
	portfolio  *crawler.Portfolio
	controller *recovery.Controller
	producer   *kafkapkg.Producer
}

// NewPortfolioAPI uses loader for configuration; nil means the yaml/env
// loader.
func NewPortfolioAPI(loader cfg.Loader) *PortfolioAPI {
	return &PortfolioAPI{loader: loader}
}

// Initialize builds config, logger, store, fetcher, orchestrator and
// controller in that order.
func (a *PortfolioAPI) Initialize(ctx context.Context) error {
	var err error

	// Load configuration
	if a.loader == nil {
		vl, err := cfg.NewViperLoader()
		if err != nil {
			return fmt.Errorf("failed to create config loader: %w", err)
		}
		a.loader = vl
	}
	a.config, err = a.loader.Load()
	if err != nil {
		logger, _ := log.NewCslLogger()
		logger.Error(ctx, "Failed to load configuration: %v", err)
		return err
	}
	if a.config.GithubApi.Username == "" {
		return errors.New("no GitHub username configured")
	}

	// Set up logger
	a.logger, err = log.NewLoggerFromConfig(a.config)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	// Set up store
	a.store, err = store.New(a.config)
	if err != nil {
		a.logger.Error(ctx, "Failed to open %s store: %v", a.config.Cache.Driver, err)
		return fmt.Errorf("failed to open store: %w", err)
	}

	tokens := githubapi.NewTokenStore(a.logger, a.store, a.config.Cache.TokenKey)
	a.caller = githubapi.NewCaller(a.logger, a.config, tokens)
	snapshots := cache.NewSnapshotCache(a.logger, a.store, a.config.Cache.SnapshotKey,
		time.Duration(a.config.Cache.SnapshotTTLMin)*time.Minute)

	// Snapshot events are optional
	var publisher crawler.Publisher
	if len(a.config.Kafka.Brokers) > 0 {
		a.producer, err = kafkapkg.NewProducer(a.config, a.logger, a.config.Kafka.Producer.TopicSnapshot)
		if err != nil {
			a.logger.Warn(ctx, "Snapshot events disabled: %v", err)
		} else {
			publisher = a.producer
		}
	}

	a.portfolio, err = crawler.NewPortfolio(a.logger, a.config, a.caller, snapshots, publisher)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	a.controller = recovery.NewController(a.logger, a.config, a.portfolio)

	a.logger.Info(ctx, "Portfolio sync ready for %s (store: %s)", a.config.GithubApi.Username, a.config.Cache.Driver)
	return nil
}

func (a *PortfolioAPI) Config() *cfg.Config {
	return a.config
}

func (a *PortfolioAPI) Logger() log.Logger {
	return a.logger
}

func (a *PortfolioAPI) Controller() *recovery.Controller {
	return a.controller
}

// Snapshot runs one orchestrated fetch outside the controller.
func (a *PortfolioAPI) Snapshot(ctx context.Context, force bool) (*model.Snapshot, error) {
	if a.portfolio == nil {
		return nil, errNotInitialized
	}
	return a.portfolio.GetSnapshot(ctx, force)
}

func (a *PortfolioAPI) Status() recovery.Status {
	if a.controller == nil {
		return recovery.Status{State: recovery.Idle, StateName: recovery.Idle.String()}
	}
	return a.controller.Status()
}

func (a *PortfolioAPI) Refresh(ctx context.Context) bool {
	if a.controller == nil {
		return false
	}
	return a.controller.Refresh(ctx)
}

func (a *PortfolioAPI) RefreshAsync(ctx context.Context) bool {
	if a.controller == nil {
		return false
	}
	return a.controller.RefreshAsync(ctx)
}

// Readme fetches the README of repo, starting at its default branch when the
// current snapshot knows it.
func (a *PortfolioAPI) Readme(ctx context.Context, repo string) (*githubapi.Readme, error) {
	if a.caller == nil {
		return nil, errNotInitialized
	}
	return a.caller.Readme(ctx, repo, a.defaultBranch(repo))
}

func (a *PortfolioAPI) Participation(ctx context.Context, repo string) (*githubapi.ParticipationResponse, error) {
	if a.caller == nil {
		return nil, errNotInitialized
	}
	return a.caller.Participation(ctx, repo)
}

func (a *PortfolioAPI) defaultBranch(repo string) string {
	if snap := a.Status().Snapshot; snap != nil {
		for _, r := range snap.Repos {
			if r.Name == repo {
				return r.DefaultBranch
			}
		}
	}
	return model.DefaultBranch
}

func (a *PortfolioAPI) Close() error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close producer: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
