package gitsafe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Per-check bypass flags. Bypass handling is per check: one flag never
// suppresses an unrelated check.
const (
	BypassDuplicateClone = "--allow-duplicate-clone"
	BypassDepsChange     = "--allow-deps-change"
	BypassLargeFiles     = "--allow-large-files"
	BypassLargeCommit    = "--allow-large-commit"
	BypassSecrets        = "--allow-secrets"
)

// CheckBypassFlags returns the pipeline's own bypass flags (the rule
// registry contributes the rest).
func CheckBypassFlags() []string {
	return []string{
		BypassDuplicateClone,
		BypassDepsChange,
		BypassLargeFiles,
		BypassLargeCommit,
		BypassSecrets,
	}
}

// largeFileThreshold is the large-file limit. Strictly greater-than: a
// file of exactly 5 MiB passes.
const largeFileThreshold = 5 * 1024 * 1024

// commitTier is one row of the large-commit classification table.
type commitTier struct {
	name  string
	files int
	lines int
}

// commitTiers from lowest to highest. A changeset lands in the highest
// tier whose file or line threshold it meets.
var commitTiers = []commitTier{
	{"info", 15, 1000},
	{"warning", 25, 3000},
	{"extreme", 76, 5001},
}

// defaultManifestPatterns are the built-in dependency-manifest globs,
// matched against staged file basenames.
var defaultManifestPatterns = []string{
	"package.json",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"bun.lockb",
	"go.mod",
	"go.sum",
	"requirements*.txt",
	"Pipfile",
	"Pipfile.lock",
	"pyproject.toml",
	"poetry.lock",
	"uv.lock",
	"Gemfile",
	"Gemfile.lock",
	"Cargo.toml",
	"Cargo.lock",
	"composer.json",
	"composer.lock",
}

// CheckResult is one check's verdict.
type CheckResult struct {
	Name     string
	Blocked  bool
	Bypassed bool
	Messages []string
}

// checkDependencyChange denies when any staged file is a dependency
// manifest, listing every match. Content is irrelevant; touching the
// manifest at all is the signal.
func checkDependencyChange(cs *Changeset, extraPatterns []string, bypassed bool) CheckResult {
	res := CheckResult{Name: "dependency-change"}
	patterns := append(append([]string{}, defaultManifestPatterns...), extraPatterns...)

	var matched []string
	for _, fc := range cs.Files {
		base := filepath.Base(fc.Path)
		for _, p := range patterns {
			ok, err := doublestar.Match(p, base)
			if err != nil {
				continue // bad extra pattern; config validation is the real gate
			}
			if ok {
				matched = append(matched, fc.Path)
				break
			}
		}
	}

	if len(matched) == 0 {
		return res
	}
	if bypassed {
		res.Bypassed = true
		return res
	}
	res.Blocked = true
	res.Messages = append(res.Messages, fmt.Sprintf(
		"dependency manifests in this commit: %s\nReview them separately, or re-run with %s.",
		strings.Join(matched, ", "), BypassDepsChange))
	return res
}

// checkLargeFiles denies when a newly added file is strictly larger than
// the threshold, listing every offender with its size.
func checkLargeFiles(cs *Changeset, bypassed bool) CheckResult {
	res := CheckResult{Name: "large-file"}

	var offenders []string
	for _, fc := range cs.Files {
		if fc.Status == "A" && fc.Size > largeFileThreshold {
			offenders = append(offenders, fmt.Sprintf("%s (%.1f MiB)",
				fc.Path, float64(fc.Size)/(1024*1024)))
		}
	}

	if len(offenders) == 0 {
		return res
	}
	if bypassed {
		res.Bypassed = true
		return res
	}
	res.Blocked = true
	res.Messages = append(res.Messages, fmt.Sprintf(
		"files over 5 MiB: %s\nLarge binaries belong in LFS or artifact storage. Re-run with %s to commit anyway.",
		strings.Join(offenders, ", "), BypassLargeFiles))
	return res
}

// checkLargeCommit classifies the changeset into the highest tier whose
// file or line threshold is met. An empty changeset always proceeds.
func checkLargeCommit(cs *Changeset, bypassed bool) CheckResult {
	res := CheckResult{Name: "large-commit"}
	if cs.Empty() {
		return res
	}

	files := len(cs.Files)
	lines := cs.TotalLines()

	var hit *commitTier
	for i := range commitTiers {
		t := commitTiers[i]
		if files >= t.files || lines >= t.lines {
			hit = &t
		}
	}
	if hit == nil {
		return res
	}
	if bypassed {
		res.Bypassed = true
		return res
	}
	res.Blocked = true
	res.Messages = append(res.Messages, fmt.Sprintf(
		"%s: this commit touches %d files and %d lines. Smaller commits review better and bisect cleaner. Re-run with %s to proceed.",
		hit.name, files, lines, BypassLargeCommit))
	return res
}

// checkDuplicateClone denies cloning a repository that already has a
// directory under the workspace root (direct children plus one org level).
func checkDuplicateClone(workspaceRoot string, target string, bypassed bool) CheckResult {
	res := CheckResult{Name: "duplicate-clone"}
	if target == "" {
		return res
	}

	remote, err := ParseRemote(target)
	if err != nil {
		return res // unparseable target is git's problem, not policy's
	}

	candidates := []string{filepath.Join(workspaceRoot, remote.Repo)}
	if globbed, err := doublestar.FilepathGlob(filepath.Join(workspaceRoot, "*", remote.Repo)); err == nil {
		candidates = append(candidates, globbed...)
	}

	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || !info.IsDir() {
			continue
		}
		if bypassed {
			res.Bypassed = true
			return res
		}
		res.Blocked = true
		res.Messages = append(res.Messages, fmt.Sprintf(
			"%q already exists at %s. cd there instead, or re-run with %s.",
			remote.Repo, c, BypassDuplicateClone))
		return res
	}
	return res
}

// valueTakingCloneFlags are clone options that consume the following token
// as their value in the split form. Without the skip, "--depth 1" would
// surface "1" as the clone target and the duplicate check would miss.
var valueTakingCloneFlags = map[string]bool{
	"--depth":             true,
	"-b":                  true,
	"--branch":            true,
	"-o":                  true,
	"--origin":            true,
	"--reference":         true,
	"--reference-if-able": true,
	"-c":                  true,
	"--config":            true,
	"-u":                  true,
	"--upload-pack":       true,
	"--template":          true,
	"--separate-git-dir":  true,
	"-j":                  true,
	"--jobs":              true,
	"--shallow-since":     true,
	"--shallow-exclude":   true,
	"--filter":            true,
	"--server-option":     true,
	"--bundle-uri":        true,
}

// cloneTarget extracts the clone URL from the vector: the first non-flag
// token after the clone subcommand that is not a policy bypass flag and
// not the value of a value-taking clone option.
func cloneTarget(args []string, bypassFlags map[string]bool) string {
	seenClone := false
	skipNext := false
	for _, a := range args {
		if !seenClone {
			if a == "clone" {
				seenClone = true
			}
			continue
		}
		if skipNext {
			skipNext = false
			continue
		}
		if bypassFlags[a] {
			continue
		}
		if valueTakingCloneFlags[a] {
			skipNext = true
			continue
		}
		if strings.HasPrefix(a, "-") {
			// Joined key=value forms and boolean flags consume one token.
			continue
		}
		return a
	}
	return ""
}
