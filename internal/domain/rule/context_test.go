package rule

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContextCacheMemoizesPerDirectory(t *testing.T) {
	calls := 0
	cache := NewContextCache(map[string]ContextFunc{
		"counted": func(string) bool {
			calls++
			return true
		},
	})

	for i := 0; i < 3; i++ {
		if !cache.Check("counted", "/a") {
			t.Fatal("Check returned false, want true")
		}
	}
	if calls != 1 {
		t.Errorf("predicate ran %d times for one directory, want 1", calls)
	}

	// Changing the directory invalidates the memo.
	cache.Check("counted", "/b")
	if calls != 2 {
		t.Errorf("predicate ran %d times after directory change, want 2", calls)
	}

	// Returning to the first directory re-evaluates; only one entry is kept.
	cache.Check("counted", "/a")
	if calls != 3 {
		t.Errorf("predicate ran %d times after returning to first directory, want 3", calls)
	}
}

func TestContextCacheUnknownName(t *testing.T) {
	cache := NewContextCache(map[string]ContextFunc{})
	if cache.Check("nope", "/tmp") {
		t.Error("unknown context name evaluated true, want false")
	}
}

func TestInsideGitRepo(t *testing.T) {
	root := t.TempDir()
	repo := filepath.Join(root, "repo")
	nested := filepath.Join(repo, "a", "b")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(root, "plain")
	if err := os.MkdirAll(outside, 0o755); err != nil {
		t.Fatal(err)
	}

	if !insideGitRepo(repo) {
		t.Error("repo root not detected as git repo")
	}
	if !insideGitRepo(nested) {
		t.Error("nested directory not detected as inside git repo")
	}
	if insideGitRepo(outside) {
		t.Error("directory without .git detected as git repo")
	}
}
