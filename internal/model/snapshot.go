package model

import "time"

// TagMap maps repository name to its latest tag. Missing keys mean no tag
// was found or the repository was not queried.
type TagMap map[string]string

type LanguageCount struct {
	Language string `json:"lang"`
	Count    int    `json:"count"`
}

type DerivedStats struct {
	TotalStars      int             `json:"total_stars"`
	TotalForks      int             `json:"total_forks"`
	TopLanguages    []LanguageCount `json:"top_languages"`
	MostStarredRepo string          `json:"most_starred_repo"`
	AccountAgeDays  int             `json:"account_age_days"`
	Tier            string          `json:"tier"`
}

// Snapshot is the unit of caching and the unit handed to the rendering layer.
type Snapshot struct {
	User        UserProfile       `json:"user"`
	Repos       []Repository      `json:"repos"`
	PinnedRepos []Repository      `json:"pinned_repos"`
	Followers   []FollowerProfile `json:"followers"`
	Tags        TagMap            `json:"tags"`
	Stats       DerivedStats      `json:"stats"`
	CapturedAt  time.Time         `json:"captured_at"`
}

// FreshAt reports whether the snapshot is still within ttl at now. A capture
// time later than now is treated as stale.
func (s *Snapshot) FreshAt(now time.Time, ttl time.Duration) bool {
	if s == nil || s.CapturedAt.IsZero() || now.Before(s.CapturedAt) {
		return false
	}
	return now.Sub(s.CapturedAt) < ttl
}

// RateLimitState is held by the recovery controller while throttled.
type RateLimitState struct {
	ResetAt    time.Time `json:"reset_at"`
	CycleStart time.Time `json:"cycle_start"`
}

// Remaining is the time left until ResetAt, never negative.
func (s RateLimitState) Remaining(now time.Time) time.Duration {
	d := s.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Progress is the elapsed fraction of the current wait cycle in [0, 1].
func (s RateLimitState) Progress(now time.Time) float64 {
	total := s.ResetAt.Sub(s.CycleStart)
	if total <= 0 {
		return 1
	}
	elapsed := now.Sub(s.CycleStart)
	switch {
	case elapsed <= 0:
		return 0
	case elapsed >= total:
		return 1
	}
	return float64(elapsed) / float64(total)
}
