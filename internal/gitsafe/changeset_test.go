package gitsafe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeGit serves canned plumbing output.
type fakeGit struct {
	nameStatus string
	numstat    string
	diff       string
	calls      int
}

func (f *fakeGit) Output(_ context.Context, _ string, args ...string) (string, error) {
	f.calls++
	switch strings.Join(args, " ") {
	case "diff --cached --name-status":
		return f.nameStatus, nil
	case "diff --cached --numstat":
		return f.numstat, nil
	case "diff --cached":
		return f.diff, nil
	}
	return "", fmt.Errorf("unexpected git invocation: %v", args)
}

func TestLoadStaged(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "new.bin"), make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}

	git := &fakeGit{
		nameStatus: "M\tmain.go\nA\tnew.bin\nD\told.go\n",
		numstat:    "10\t2\tmain.go\n-\t-\tnew.bin\n0\t30\told.go\n",
		diff:       "diff --git a/main.go b/main.go\n+added line\n",
	}

	cs, err := LoadStaged(context.Background(), git, dir)
	if err != nil {
		t.Fatalf("LoadStaged: %v", err)
	}

	if len(cs.Files) != 3 {
		t.Fatalf("got %d files, want 3", len(cs.Files))
	}
	if cs.Insertions != 10 || cs.Deletions != 32 {
		t.Errorf("Insertions/Deletions = %d/%d, want 10/32", cs.Insertions, cs.Deletions)
	}
	if cs.TotalLines() != 42 {
		t.Errorf("TotalLines() = %d, want 42", cs.TotalLines())
	}

	byPath := map[string]FileChange{}
	for _, fc := range cs.Files {
		byPath[fc.Path] = fc
	}

	if fc := byPath["main.go"]; fc.Status != "M" || fc.Insertions != 10 || fc.Deletions != 2 {
		t.Errorf("main.go = %+v", fc)
	}
	if fc := byPath["new.bin"]; fc.Status != "A" || !fc.Binary || fc.Size != 2048 {
		t.Errorf("new.bin = %+v, want added binary of 2048 bytes", fc)
	}
	if fc := byPath["old.go"]; fc.Status != "D" || fc.Deletions != 30 {
		t.Errorf("old.go = %+v", fc)
	}

	if cs.Fingerprint == "" || len(cs.Fingerprint) != 16 {
		t.Errorf("Fingerprint = %q, want 16 hex chars", cs.Fingerprint)
	}
}

func TestLoadStagedPerFileCountsSurviveGrowth(t *testing.T) {
	// Earlier entries must keep their counts as the file list grows.
	git := &fakeGit{
		nameStatus: "M\ta.go\nM\tb.go\nM\tc.go\n",
		numstat:    "10\t2\ta.go\n3\t4\tb.go\n5\t6\tc.go\n",
		diff:       "diff body",
	}

	cs, err := LoadStaged(context.Background(), git, t.TempDir())
	if err != nil {
		t.Fatalf("LoadStaged: %v", err)
	}

	want := map[string][2]int{
		"a.go": {10, 2},
		"b.go": {3, 4},
		"c.go": {5, 6},
	}
	for _, fc := range cs.Files {
		w, ok := want[fc.Path]
		if !ok {
			t.Errorf("unexpected file %q", fc.Path)
			continue
		}
		if fc.Insertions != w[0] || fc.Deletions != w[1] {
			t.Errorf("%s: Insertions/Deletions = %d/%d, want %d/%d",
				fc.Path, fc.Insertions, fc.Deletions, w[0], w[1])
		}
	}
	if cs.Insertions != 18 || cs.Deletions != 12 {
		t.Errorf("totals = %d/%d, want 18/12", cs.Insertions, cs.Deletions)
	}
}

func TestLoadStagedFingerprintTracksDiff(t *testing.T) {
	dir := t.TempDir()

	first := &fakeGit{nameStatus: "M\ta.go\n", numstat: "1\t0\ta.go\n", diff: "diff one"}
	second := &fakeGit{nameStatus: "M\ta.go\n", numstat: "1\t0\ta.go\n", diff: "diff two"}
	same := &fakeGit{nameStatus: "M\ta.go\n", numstat: "1\t0\ta.go\n", diff: "diff one"}

	a, err := LoadStaged(context.Background(), first, dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := LoadStaged(context.Background(), second, dir)
	if err != nil {
		t.Fatal(err)
	}
	c, err := LoadStaged(context.Background(), same, dir)
	if err != nil {
		t.Fatal(err)
	}

	if a.Fingerprint == b.Fingerprint {
		t.Error("different diffs produced the same fingerprint")
	}
	if a.Fingerprint != c.Fingerprint {
		t.Error("identical diffs produced different fingerprints")
	}
}

func TestLoadStagedEmpty(t *testing.T) {
	git := &fakeGit{nameStatus: "\n", numstat: "", diff: ""}
	cs, err := LoadStaged(context.Background(), git, t.TempDir())
	if err != nil {
		t.Fatalf("LoadStaged: %v", err)
	}
	if !cs.Empty() {
		t.Errorf("Empty() = false for empty staging area, files %v", cs.Files)
	}
}
