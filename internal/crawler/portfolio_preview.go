package crawler

import "github.com/thep200/github-portfolio-sync/internal/model"

const previewImageBase = "https://opengraph.githubassets.com/1/"

// AnnotatePreviews gives every repository without a preview image the
// generated social card of its full name.
func AnnotatePreviews(repos []model.Repository) {
	for i := range repos {
		if repos[i].PreviewImage == "" && repos[i].FullName != "" {
			repos[i].PreviewImage = previewImageBase + repos[i].FullName
		}
	}
}
