// Package stats derives the portfolio summary figures from a user profile
// and the general repository list.
package stats

import (
	"time"

	"github.com/thep200/github-portfolio-sync/internal/model"
)

const (
	TierDoubleEspresso = "Double Espresso"
	TierRistretto      = "Ristretto"
	TierMildRoast      = "Mild Roast"

	// NoRepository is reported as the most starred repository of an empty list.
	NoRepository = "N/A"

	topLanguageCount = 5
)

// Calculate is pure: the same inputs always produce the same stats.
func Calculate(user model.UserProfile, repos []model.Repository, now time.Time) model.DerivedStats {
	var stars, forks int
	for _, r := range repos {
		stars += r.StargazersCount
		forks += r.ForksCount
	}

	return model.DerivedStats{
		TotalStars:      stars,
		TotalForks:      forks,
		TopLanguages:    TopLanguages(repos, topLanguageCount),
		MostStarredRepo: MostStarred(repos),
		AccountAgeDays:  AccountAgeDays(user.CreatedAt, now),
		Tier:            Tier(stars),
	}
}

// TopLanguages counts non-empty languages and returns the n most used,
// busiest first. Ties keep the order in which languages were first seen.
func TopLanguages(repos []model.Repository, n int) []model.LanguageCount {
	index := make(map[string]int)
	counts := make([]model.LanguageCount, 0)
	for _, r := range repos {
		if r.Language == "" {
			continue
		}
		if i, ok := index[r.Language]; ok {
			counts[i].Count++
			continue
		}
		index[r.Language] = len(counts)
		counts = append(counts, model.LanguageCount{Language: r.Language, Count: 1})
	}

	// insertion sort is stable
	for i := 1; i < len(counts); i++ {
		for j := i; j > 0 && counts[j].Count > counts[j-1].Count; j-- {
			counts[j], counts[j-1] = counts[j-1], counts[j]
		}
	}

	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// MostStarred returns the name of the first repository with the highest star count.
func MostStarred(repos []model.Repository) string {
	if len(repos) == 0 {
		return NoRepository
	}
	best := repos[0]
	for _, r := range repos[1:] {
		if r.StargazersCount > best.StargazersCount {
			best = r
		}
	}
	return best.Name
}

// AccountAgeDays counts whole days since createdAt. An unknown creation date
// counts as now.
func AccountAgeDays(createdAt, now time.Time) int {
	if createdAt.IsZero() || createdAt.After(now) {
		return 0
	}
	return int(now.Sub(createdAt) / (24 * time.Hour))
}

func Tier(totalStars int) string {
	switch {
	case totalStars > 500:
		return TierDoubleEspresso
	case totalStars > 100:
		return TierRistretto
	default:
		return TierMildRoast
	}
}
