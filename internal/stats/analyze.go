package stats

import (
	"fmt"

	"github.com/thep200/github-portfolio-sync/internal/model"
)

// Analysis is the short label shown next to a single repository.
type Analysis struct {
	Repo        string `json:"repo"`
	Score       int    `json:"score"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func AnalyzeRepo(r model.Repository) Analysis {
	score := r.StargazersCount*3 + r.ForksCount*2

	label := "Medium Roast"
	switch {
	case score > 100:
		label = "Double Shot Signature"
	case score > 50:
		label = "Espresso Blend"
	case score > 20:
		label = "Dark Roast"
	}

	lang := r.Language
	if lang == "" {
		lang = "Unknown"
	}

	return Analysis{
		Repo:        r.Name,
		Score:       score,
		Label:       label,
		Description: fmt.Sprintf("A robust %s creation.", lang),
	}
}
