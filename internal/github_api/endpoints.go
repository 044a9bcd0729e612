package githubapi

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/thep200/github-portfolio-sync/cfg"
)

// Endpoints builds every URL the sync layer requests for one account.
type Endpoints struct {
	api      string
	pinned   string
	profile  string
	raw      string
	username string
	config   cfg.GithubApi
}

func NewEndpoints(config *cfg.Config) *Endpoints {
	g := config.GithubApi
	return &Endpoints{
		api:      strings.TrimRight(g.ApiUrl, "/"),
		pinned:   g.PinnedApiUrl,
		profile:  strings.TrimRight(g.ProfileUrl, "/"),
		raw:      strings.TrimRight(g.RawContentUrl, "/"),
		username: g.Username,
		config:   g,
	}
}

func (e *Endpoints) Username() string {
	return e.username
}

func (e *Endpoints) user() string {
	return url.PathEscape(e.username)
}

func (e *Endpoints) User() string {
	return fmt.Sprintf("%s/users/%s", e.api, e.user())
}

func (e *Endpoints) Repos() string {
	return fmt.Sprintf("%s/users/%s/repos?sort=updated&per_page=%d", e.api, e.user(), e.config.ReposPerPage)
}

func (e *Endpoints) Followers() string {
	return fmt.Sprintf("%s/users/%s/followers?per_page=%d", e.api, e.user(), e.config.FollowersPerPage)
}

func (e *Endpoints) Tags(repo string) string {
	return fmt.Sprintf("%s/repos/%s/%s/tags?per_page=1", e.api, e.user(), url.PathEscape(repo))
}

func (e *Endpoints) Participation(repo string) string {
	return fmt.Sprintf("%s/repos/%s/%s/stats/participation", e.api, e.user(), url.PathEscape(repo))
}

func (e *Endpoints) Pinned() string {
	sep := "?"
	if strings.Contains(e.pinned, "?") {
		sep = "&"
	}
	return e.pinned + sep + "username=" + url.QueryEscape(e.username)
}

func (e *Endpoints) Profile() string {
	return fmt.Sprintf("%s/%s", e.profile, e.user())
}

func (e *Endpoints) Readme(repo, branch string) string {
	return fmt.Sprintf("%s/%s/%s/%s/README.md", e.raw, e.user(), url.PathEscape(repo), url.PathEscape(branch))
}

// IsAPI reports whether u targets the GitHub REST API, the only host that
// receives the access token.
func (e *Endpoints) IsAPI(u string) bool {
	return strings.HasPrefix(u, e.api+"/")
}
