// Package release looks up the newest published plugin release.
package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v59/github"
)

type Release struct {
	Version string
	Tag     string
	URL     string
}

func getOwnerRepo(fullRepo string) (string, string) {
	owner, repo, found := strings.Cut(fullRepo, "/")
	if !found {
		return "", ""
	}

	return owner, repo
}

// NormalizeVersion strips a leading v and a -SNAPSHOT suffix.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
	return strings.ReplaceAll(v, "-SNAPSHOT", "")
}

// Latest returns the latest non-draft release of fullRepo ("owner/repo").
func Latest(ctx context.Context, ghClient *github.Client, fullRepo string) (*Release, error) {
	owner, repo := getOwnerRepo(fullRepo)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q", fullRepo)
	}
	release, _, err := ghClient.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	if release.GetDraft() {
		return nil, fmt.Errorf("release is a draft")
	}
	version := NormalizeVersion(release.GetTagName())
	if _, err := semver.NewVersion(version); err != nil {
		return nil, fmt.Errorf("release is not a valid semver version: %w", err)
	}
	return &Release{
		Version: version,
		Tag:     release.GetTagName(),
		URL:     release.GetHTMLURL(),
	}, nil
}

// IsNewer reports whether version a is newer than b. Versions that do not
// parse are never newer.
func IsNewer(a, b string) bool {
	av, err := semver.NewVersion(NormalizeVersion(a))
	if err != nil {
		return false
	}
	bv, err := semver.NewVersion(NormalizeVersion(b))
	if err != nil {
		return true
	}
	return av.GreaterThan(bv)
}
