package crawler

import (
	"fmt"

	githubapi "github.com/thep200/github-portfolio-sync/internal/github_api"
)

func FactoryPinnedSource(name string, caller *githubapi.Caller) (PinnedSource, error) {
	switch name {
	case "", "service":
		return NewServiceSource(caller), nil
	case "profile":
		return NewProfileSource(caller), nil
	default:
		return nil, fmt.Errorf("unsupported pinned source: %s", name)
	}
}
