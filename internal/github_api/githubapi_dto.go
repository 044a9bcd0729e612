// DTOs for the GitHub REST API and the pinned repository service. Each one
// converts to the validated model type at the fetch boundary.

package githubapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thep200/github-portfolio-sync/internal/model"
)

type Owner struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

type UserResponse struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	Bio         string    `json:"bio"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	PublicRepos int       `json:"public_repos"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u UserResponse) ToModel() model.UserProfile {
	return model.UserProfile{
		Login:       u.Login,
		Name:        u.Name,
		AvatarURL:   u.AvatarURL,
		HTMLURL:     u.HTMLURL,
		Bio:         u.Bio,
		Followers:   u.Followers,
		Following:   u.Following,
		PublicRepos: u.PublicRepos,
		CreatedAt:   u.CreatedAt,
	}
}

func (u UserResponse) ToFollower() model.FollowerProfile {
	return model.FollowerProfile{
		Login:       u.Login,
		Name:        u.Name,
		AvatarURL:   u.AvatarURL,
		HTMLURL:     u.HTMLURL,
		Followers:   u.Followers,
		PublicRepos: u.PublicRepos,
	}
}

type GithubAPIResponse struct {
	Id              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Owner           Owner     `json:"owner"`
	HTMLURL         string    `json:"html_url"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	UpdatedAt       time.Time `json:"updated_at"`
	DefaultBranch   string    `json:"default_branch"`
	CloneURL        string    `json:"clone_url"`
	Topics          []string  `json:"topics"`
}

func (r GithubAPIResponse) ToModel() model.Repository {
	repo := model.Repository{
		ID:              r.Id,
		Name:            r.Name,
		FullName:        r.FullName,
		HTMLURL:         r.HTMLURL,
		Description:     r.Description,
		Language:        r.Language,
		StargazersCount: r.StargazersCount,
		ForksCount:      r.ForksCount,
		OpenIssuesCount: r.OpenIssuesCount,
		UpdatedAt:       r.UpdatedAt,
		DefaultBranch:   r.DefaultBranch,
		CloneURL:        r.CloneURL,
		Topics:          r.Topics,
	}
	if repo.FullName == "" && r.Owner.Login != "" {
		repo.FullName = r.Owner.Login + "/" + r.Name
	}
	repo.Normalize()
	return repo
}

type TagResponse struct {
	Name string `json:"name"`
}

type ParticipationResponse struct {
	All   []int `json:"all"`
	Owner []int `json:"owner"`
}

// PinnedResponse is one entry of the pinned repository service.
type PinnedResponse struct {
	Owner       string  `json:"owner"`
	Repo        string  `json:"repo"`
	Link        string  `json:"link"`
	Description string  `json:"description"`
	Language    string  `json:"language"`
	Stars       FlexInt `json:"stars"`
	Forks       FlexInt `json:"forks"`
	Image       string  `json:"image"`
}

// PinnedIDBase offsets the synthetic ids given to pinned entries.
const PinnedIDBase = 999000

func (p PinnedResponse) ToModel(index int) model.Repository {
	fullName := p.Owner + "/" + p.Repo
	link := p.Link
	if link == "" {
		link = "https://github.com/" + fullName
	}
	repo := model.Repository{
		ID:              int64(PinnedIDBase + index),
		Name:            p.Repo,
		FullName:        fullName,
		HTMLURL:         link,
		Description:     p.Description,
		Language:        p.Language,
		StargazersCount: int(p.Stars),
		ForksCount:      int(p.Forks),
		CloneURL:        "https://github.com/" + fullName + ".git",
		PreviewImage:    p.Image,
	}
	repo.Normalize()
	return repo
}

// FlexInt accepts a JSON number or a string such as "1,234" or "1.2k".
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("flexint: %s is neither number nor string", data)
	}
	v, err := ParseCount(s)
	if err != nil {
		return err
	}
	*f = FlexInt(v)
	return nil
}

// ParseCount parses human formatted counts ("1,234", "1.2k", " 42 ").
// Blank input is zero.
func ParseCount(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	if s == "" {
		return 0, nil
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1e6, strings.TrimSuffix(s, "m")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("flexint: invalid count %q", s)
	}
	return int(v*mult + 0.5), nil
}
