package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/thep200/github-portfolio-sync/api"
	"github.com/thep200/github-portfolio-sync/internal/apperror"
)

const (
	exitFailed      = 1
	exitRateLimited = 2
)

func main() {
	force := flag.Bool("force", false, "Ignore the cached snapshot and fetch everything again")
	flag.Parse()

	ctx := context.Background()
	portfolio := api.NewPortfolioAPI(nil)
	if err := portfolio.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(exitFailed)
	}

	code := run(ctx, portfolio, *force)
	if err := portfolio.Close(); err != nil {
		portfolio.Logger().Warn(ctx, "Close: %v", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, portfolio *api.PortfolioAPI, force bool) int {
	logger := portfolio.Logger()
	logger.Info(ctx, "Fetching portfolio snapshot")

	snap, err := portfolio.Snapshot(ctx, force)
	if err != nil {
		if resetAt, limited := apperror.IsRateLimited(err); limited {
			logger.Error(ctx, "Rate limited until %s (%s)", resetAt.Format(time.RFC3339),
				time.Until(resetAt).Round(time.Second))
			return exitRateLimited
		}
		logger.Error(ctx, "Failed! %v", err)
		return exitFailed
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		logger.Error(ctx, "Failed to encode snapshot: %v", err)
		return exitFailed
	}
	logger.Info(ctx, "Successfully!")
	return 0
}
