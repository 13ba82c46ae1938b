// Package version checks the running build against the latest published release.
package version

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cinesrc/cinesrc/constant"
	"github.com/cinesrc/cinesrc/filesystem"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/where"
	"github.com/samber/lo"
)

// ReleasesURL is the GitHub API endpoint of the latest release.
var ReleasesURL = "https://api.github.com/repos/" + constant.Repository + "/releases/latest"

var latestCache = filesystem.NewCache[string](filepath.Join(where.Cache(), "version.json"), 48*time.Hour)

// Semver is a parsed major.minor.patch release number.
type Semver struct {
	Major, Minor, Patch int
}

func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Parse reads "1.2.3" or a release tag such as "v1.2.3". Anything after the
// patch number, e.g. "-rc.1", is ignored.
func Parse(s string) (Semver, error) {
	var v Semver
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch); err != nil {
		return Semver{}, fmt.Errorf("parse version %q: %w", s, err)
	}
	return v, nil
}

// Compare returns 1 if a is newer than b, -1 if older and 0 if equal.
func Compare(a, b string) (int, error) {
	av, err := Parse(a)
	if err != nil {
		return 0, err
	}
	bv, err := Parse(b)
	if err != nil {
		return 0, err
	}

	for _, pair := range []lo.Tuple2[int, int]{
		lo.T2(av.Major, bv.Major),
		lo.T2(av.Minor, bv.Minor),
		lo.T2(av.Patch, bv.Patch),
	} {
		switch {
		case pair.A > pair.B:
			return 1, nil
		case pair.A < pair.B:
			return -1, nil
		}
	}
	return 0, nil
}

// Latest retrieves the most recent release from the GitHub releases API,
// normalized through Parse. The result is cached for two days.
func Latest() (string, error) {
	ver, expired, err := latestCache.Get()
	if err != nil {
		return "", err
	}

	if !expired && ver != "" {
		return ver, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	release, err := network.JSON[struct {
		TagName string `json:"tag_name"`
	}](ctx, network.NewHTTPFetcher(network.Client, ""), ReleasesURL, network.Options{
		Headers: map[string]string{"Accept": "application/vnd.github+json"},
	})
	if err != nil {
		return "", err
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	parsed, err := Parse(release.TagName)
	if err != nil {
		return "", err
	}

	ver = parsed.String()
	_ = latestCache.Set(ver)
	return ver, nil
}
