package model

import "time"

// SnapshotMessage is the summary of a snapshot published to Kafka
type SnapshotMessage struct {
	Login         string    `json:"login"`
	TotalStars    int       `json:"total_stars"`
	TotalForks    int       `json:"total_forks"`
	RepoCount     int       `json:"repo_count"`
	FollowerCount int       `json:"follower_count"`
	PinnedCount   int       `json:"pinned_count"`
	Tier          string    `json:"tier"`
	CapturedAt    time.Time `json:"captured_at"`
}

func NewSnapshotMessage(s *Snapshot) SnapshotMessage {
	return SnapshotMessage{
		Login:         s.User.Login,
		TotalStars:    s.Stats.TotalStars,
		TotalForks:    s.Stats.TotalForks,
		RepoCount:     len(s.Repos),
		FollowerCount: len(s.Followers),
		PinnedCount:   len(s.PinnedRepos),
		Tier:          s.Stats.Tier,
		CapturedAt:    s.CapturedAt,
	}
}
