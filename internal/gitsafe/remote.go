package gitsafe

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Remote identifies a repository by organization and name, independent of
// the remote syntax it was written in.
type Remote struct {
	Org  string
	Repo string
}

// scpLikePattern matches SCP-like remotes: user@host:path (no scheme).
var scpLikePattern = regexp.MustCompile(`^[^/@]+@[^/:]+:(.+)$`)

// ParseRemote extracts org and repository name from a clone target,
// supporting both URL syntax (https://host/org/repo.git, ssh://...) and
// SCP-like syntax (git@host:org/repo.git).
func ParseRemote(raw string) (Remote, error) {
	var path string

	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Remote{}, fmt.Errorf("parse remote %q: %w", raw, err)
		}
		path = u.Path
	default:
		m := scpLikePattern.FindStringSubmatch(raw)
		if m == nil {
			// A bare local path also clones; treat it as the path itself.
			path = raw
		} else {
			path = m[1]
		}
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")
	if path == "" {
		return Remote{}, fmt.Errorf("remote %q has no repository path", raw)
	}

	parts := strings.Split(path, "/")
	r := Remote{Repo: parts[len(parts)-1]}
	if len(parts) > 1 {
		r.Org = parts[len(parts)-2]
	}
	if r.Repo == "" {
		return Remote{}, fmt.Errorf("remote %q has no repository name", raw)
	}
	return r, nil
}
