package gitsafe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// GitRunner executes git plumbing commands. An interface so checks can be
// tested against canned output.
type GitRunner interface {
	// Output runs git with the given args in dir and returns stdout.
	Output(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecGit runs the real git binary.
type ExecGit struct{}

// Output implements GitRunner.
func (ExecGit) Output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

var _ GitRunner = ExecGit{}

// FileChange is one staged file in the pending changeset.
type FileChange struct {
	Path string
	// Status is the git name-status letter (A added, M modified, ...).
	Status string
	// Insertions and Deletions from numstat; zero for binary files.
	Insertions int
	Deletions  int
	Binary     bool
	// Size is the on-disk size in bytes, populated for added files.
	Size int64
}

// Changeset is a read-only snapshot of the pending (staged) change. All
// pipeline checks share one snapshot, so concurrent checks never observe
// different states.
type Changeset struct {
	Files      []FileChange
	Insertions int
	Deletions  int
	// Fingerprint is a stable hash of the staged diff, used to key the
	// secret-scan result cache.
	Fingerprint string
}

// Empty reports whether nothing is staged.
func (c *Changeset) Empty() bool { return len(c.Files) == 0 }

// TotalLines returns insertions plus deletions.
func (c *Changeset) TotalLines() int { return c.Insertions + c.Deletions }

// LoadStaged builds the changeset snapshot from git plumbing output:
// name-status for per-file status, numstat for line counts, a stat for the
// size of each newly added file, and an xxhash of the full staged diff as
// the fingerprint.
func LoadStaged(ctx context.Context, git GitRunner, dir string) (*Changeset, error) {
	nameStatus, err := git.Output(ctx, dir, "diff", "--cached", "--name-status")
	if err != nil {
		return nil, fmt.Errorf("load staged files: %w", err)
	}

	cs := &Changeset{}
	// Index by position, not pointer: appends reallocate the backing array.
	byPath := make(map[string]int)
	for _, line := range strings.Split(strings.TrimSpace(nameStatus), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		fc := FileChange{Status: fields[0][:1], Path: fields[len(fields)-1]}
		if fc.Status == "A" {
			if info, err := os.Stat(filepath.Join(dir, fc.Path)); err == nil {
				fc.Size = info.Size()
			}
		}
		cs.Files = append(cs.Files, fc)
		byPath[fc.Path] = len(cs.Files) - 1
	}

	numstat, err := git.Output(ctx, dir, "diff", "--cached", "--numstat")
	if err != nil {
		return nil, fmt.Errorf("load staged numstat: %w", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(numstat), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		path := fields[len(fields)-1]
		idx, known := byPath[path]
		if fields[0] == "-" || fields[1] == "-" {
			if known {
				cs.Files[idx].Binary = true
			}
			continue
		}
		ins, _ := strconv.Atoi(fields[0])
		del, _ := strconv.Atoi(fields[1])
		if known {
			cs.Files[idx].Insertions = ins
			cs.Files[idx].Deletions = del
		}
		cs.Insertions += ins
		cs.Deletions += del
	}

	diff, err := git.Output(ctx, dir, "diff", "--cached")
	if err != nil {
		return nil, fmt.Errorf("load staged diff: %w", err)
	}
	cs.Fingerprint = fmt.Sprintf("%016x", xxhash.Sum64String(diff))

	return cs, nil
}
