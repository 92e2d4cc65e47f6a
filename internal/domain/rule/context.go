package rule

import (
	"os"
	"path/filepath"
)

// ContextFunc evaluates an environmental predicate for a working directory.
type ContextFunc func(dir string) bool

// BuiltinContexts returns the named context predicates rules may reference.
func BuiltinContexts() map[string]ContextFunc {
	return map[string]ContextFunc{
		"git_repo": insideGitRepo,
	}
}

// insideGitRepo walks up from dir looking for a .git entry.
func insideGitRepo(dir string) bool {
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

// ContextCache memoizes context predicate results for one working directory
// at a time. Changing the directory invalidates all cached results; checks
// run against a single directory per invocation, so a single entry
// suffices. Not safe for concurrent use across different directories.
type ContextCache struct {
	checks  map[string]ContextFunc
	dir     string
	results map[string]bool
}

// NewContextCache creates a cache over the given named checks.
func NewContextCache(checks map[string]ContextFunc) *ContextCache {
	return &ContextCache{
		checks:  checks,
		results: make(map[string]bool),
	}
}

// Check evaluates the named predicate for dir, memoized until dir changes.
// Unknown names evaluate false; the registry rejects them at load time, so
// this only happens when a caller bypasses registration.
func (c *ContextCache) Check(name, dir string) bool {
	if dir != c.dir {
		c.dir = dir
		c.results = make(map[string]bool)
	}
	if v, ok := c.results[name]; ok {
		return v
	}
	fn, ok := c.checks[name]
	if !ok {
		return false
	}
	v := fn(dir)
	c.results[name] = v
	return v
}
