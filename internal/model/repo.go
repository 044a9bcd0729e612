package model

import "time"

// Repository is the validated shape of a repository. Optional upstream fields
// are normalised once at the fetch boundary so nothing downstream re-checks them.
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
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
	LatestTag       string    `json:"latest_tag,omitempty"`
	PreviewImage    string    `json:"preview_image,omitempty"`
}

const DefaultBranch = "main"

// Normalize fills defaults for fields the upstream may omit.
func (r *Repository) Normalize() {
	if r.DefaultBranch == "" {
		r.DefaultBranch = DefaultBranch
	}
	if r.Topics == nil {
		r.Topics = []string{}
	}
	if r.StargazersCount < 0 {
		r.StargazersCount = 0
	}
	if r.ForksCount < 0 {
		r.ForksCount = 0
	}
	if r.OpenIssuesCount < 0 {
		r.OpenIssuesCount = 0
	}
}

// Owner returns the account part of FullName.
func (r Repository) Owner() string {
	for i := 0; i < len(r.FullName); i++ {
		if r.FullName[i] == '/' {
			return r.FullName[:i]
		}
	}
	return ""
}
