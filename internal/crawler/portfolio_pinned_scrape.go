package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	githubapi "github.com/thep200/github-portfolio-sync/internal/github_api"
	"github.com/thep200/github-portfolio-sync/internal/model"
)

// ProfileSource reads pins straight from the public profile page.
type ProfileSource struct {
	Caller *githubapi.Caller
}

func NewProfileSource(caller *githubapi.Caller) *ProfileSource {
	return &ProfileSource{Caller: caller}
}

func (s *ProfileSource) Fetch(ctx context.Context) ([]model.Repository, error) {
	body, err := s.Caller.Get(ctx, s.Caller.Endpoints.Profile())
	if err != nil || body == nil {
		return nil, err
	}
	return ParseProfilePins(body)
}

// ParseProfilePins extracts pinned items from a profile page.
func ParseProfilePins(page []byte) ([]model.Repository, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse profile page: %w", err)
	}

	pins := make([]model.Repository, 0, 6)
	doc.Find(".pinned-item-list-item-content").Each(func(_ int, item *goquery.Selection) {
		href, _ := item.Find("a[href]").First().Attr("href")
		owner, repo := splitRepoPath(href)
		if repo == "" {
			return
		}

		stars, _ := githubapi.ParseCount(item.Find(`a[href$="/stargazers"]`).Text())
		forks, _ := githubapi.ParseCount(item.Find(`a[href$="/forks"]`).Text())

		p := githubapi.PinnedResponse{
			Owner:       owner,
			Repo:        repo,
			Link:        "https://github.com/" + owner + "/" + repo,
			Description: strings.TrimSpace(item.Find(".pinned-item-desc").Text()),
			Language:    strings.TrimSpace(item.Find(`[itemprop="programmingLanguage"]`).Text()),
			Stars:       githubapi.FlexInt(stars),
			Forks:       githubapi.FlexInt(forks),
		}
		pins = append(pins, p.ToModel(len(pins)))
	})
	return pins, nil
}

func splitRepoPath(href string) (string, string) {
	parts := strings.Split(strings.Trim(href, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}
