package ui

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gorilla/feeds"
	"github.com/thep200/github-portfolio-sync/internal/model"
)

const feedSize = 20

// BuildFeed lists the most recently updated repositories of snap.
func BuildFeed(snap *model.Snapshot) *feeds.Feed {
	user := snap.User
	link := user.HTMLURL
	if link == "" {
		link = "https://github.com/" + user.Login
	}

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("%s on GitHub", user.Login),
		Description: user.Bio,
		Link:        &feeds.Link{Href: link, Rel: "alternate", Type: "text/html"},
		Id:          link,
		Author:      &feeds.Author{Name: displayName(user)},
		Created:     user.CreatedAt,
		Updated:     snap.CapturedAt,
	}

	repos := make([]model.Repository, len(snap.Repos))
	copy(repos, snap.Repos)
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].UpdatedAt.After(repos[j].UpdatedAt)
	})
	if len(repos) > feedSize {
		repos = repos[:feedSize]
	}

	for _, repo := range repos {
		description := repo.Description
		if repo.LatestTag != "" {
			description = fmt.Sprintf("%s (latest: %s)", description, repo.LatestTag)
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       repo.FullName,
			Link:        &feeds.Link{Href: repo.HTMLURL, Rel: "alternate", Type: "text/html"},
			Id:          repo.HTMLURL,
			Description: description,
			Updated:     repo.UpdatedAt,
			Created:     repo.UpdatedAt,
		})
	}
	return feed
}

func displayName(u model.UserProfile) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}

func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Status().Snapshot
	if snap == nil {
		h.writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: "snapshot not available yet"})
		return
	}

	atom, err := BuildFeed(snap).ToAtom()
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to render feed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	_, _ = w.Write([]byte(atom))
}
