package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thep200/github-portfolio-sync/internal/apperror"
)

type Readme struct {
	Content string `json:"content"`
	Branch  string `json:"branch"`
}

// Readme fetches README.md of repo from the raw content host, trying branch
// first and then master and main. Nil means no branch had one.
func (c *Caller) Readme(ctx context.Context, repo, branch string) (*Readme, error) {
	for _, b := range readmeBranches(branch) {
		url := c.Endpoints.Readme(repo, b)
		out, err := c.fetch(ctx, url, 0, false)
		if err != nil {
			if _, limited := apperror.IsRateLimited(err); limited {
				return nil, err
			}
			c.Logger.Debug(ctx, "README not available on %s: %v", b, err)
			continue
		}
		if out.status == http.StatusOK {
			return &Readme{Content: string(out.body), Branch: b}, nil
		}
	}
	return nil, nil
}

func readmeBranches(first string) []string {
	seen := make(map[string]bool, 3)
	branches := make([]string, 0, 3)
	for _, b := range []string{first, "master", "main"} {
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		branches = append(branches, b)
	}
	return branches
}

// Participation returns weekly commit counts for repo. GitHub answers 202
// while it is still computing; that and any other failure except throttling
// are reported as nil.
func (c *Caller) Participation(ctx context.Context, repo string) (*ParticipationResponse, error) {
	url := c.Endpoints.Participation(repo)
	out, err := c.fetch(ctx, url, 0, false)
	if err != nil {
		if _, limited := apperror.IsRateLimited(err); limited {
			return nil, err
		}
		c.Logger.Warn(ctx, "Participation for %s unavailable: %v", repo, err)
		return nil, nil
	}
	if out.status == http.StatusAccepted {
		c.Logger.Debug(ctx, "Participation for %s still computing", repo)
		return nil, nil
	}
	if out.status != http.StatusOK {
		return nil, nil
	}

	var p ParticipationResponse
	if err := json.Unmarshal(out.body, &p); err != nil {
		c.Logger.Warn(ctx, "Participation for %s malformed: %v", repo, err)
		return nil, nil
	}
	return &p, nil
}

// LatestTag returns the newest tag name of repo, or "" when there is none.
func (c *Caller) LatestTag(ctx context.Context, repo string) (string, error) {
	var tags []TagResponse
	ok, err := c.GetJSON(ctx, c.Endpoints.Tags(repo), &tags)
	if err != nil {
		return "", fmt.Errorf("tags of %s: %w", repo, err)
	}
	if !ok || len(tags) == 0 {
		return "", nil
	}
	return tags[0].Name, nil
}
