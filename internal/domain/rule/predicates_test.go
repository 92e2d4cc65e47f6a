package rule

import "testing"

func evalPredicate(t *testing.T, name string, args []string) bool {
	t.Helper()
	got, err := NewPredicateTable().Eval(name, args)
	if err != nil {
		t.Fatalf("Eval(%s, %v): %v", name, args, err)
	}
	return got
}

func TestRmRecursiveForce(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"combined rf", []string{"-rf", "dir"}, true},
		{"combined fr", []string{"-fr", "dir"}, true},
		{"separate flags", []string{"-r", "-f", "dir"}, true},
		{"long forms", []string{"--recursive", "--force", "dir"}, true},
		{"uppercase R", []string{"-Rf", "dir"}, true},
		{"recursive only", []string{"-r", "dir"}, false},
		{"force only", []string{"-f", "file"}, false},
		{"no flags", []string{"file"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalPredicate(t, "rm_recursive_force", tt.args); got != tt.want {
				t.Errorf("rm_recursive_force(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestRmDangerousPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"root", []string{"-rf", "/"}, true},
		{"root glob", []string{"-rf", "/*"}, true},
		{"home tilde", []string{"-rf", "~"}, true},
		{"git dir", []string{"-rf", ".git"}, true},
		{"nested git dir", []string{"-rf", "project/.git"}, true},
		{"inside git dir", []string{"-rf", "repo/.git/hooks"}, true},
		{"ordinary path", []string{"-rf", "build"}, false},
		{"gitignore is fine", []string{".gitignore"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalPredicate(t, "rm_dangerous_path", tt.args); got != tt.want {
				t.Errorf("rm_dangerous_path(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestTruncateZero(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"joined short", []string{"-s0", "file"}, true},
		{"split short", []string{"-s", "0", "file"}, true},
		{"joined long", []string{"--size=0", "file"}, true},
		{"split long", []string{"--size", "0", "file"}, true},
		{"nonzero size", []string{"-s", "100", "file"}, false},
		{"size flag last", []string{"file", "-s"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalPredicate(t, "truncate_zero", tt.args); got != tt.want {
				t.Errorf("truncate_zero(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestDdDeviceTarget(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"device target", []string{"if=image.iso", "of=/dev/sda"}, true},
		{"file target", []string{"if=/dev/urandom", "of=out.bin"}, false},
		{"no of", []string{"if=/dev/zero"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalPredicate(t, "dd_device_target", tt.args); got != tt.want {
				t.Errorf("dd_device_target(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestChmodWorldWritable(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"numeric", []string{"777", "file"}, true},
		{"numeric with leading zero", []string{"0777", "file"}, true},
		{"symbolic", []string{"a+rwx", "file"}, true},
		{"recursive numeric", []string{"-R", "777", "dir"}, true},
		{"safe mode", []string{"644", "file"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalPredicate(t, "chmod_world_writable", tt.args); got != tt.want {
				t.Errorf("chmod_world_writable(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestGitCleanForce(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"plain force", []string{"clean", "-f"}, true},
		{"clustered fd", []string{"clean", "-fd"}, true},
		{"clustered fdx", []string{"clean", "-fdx"}, true},
		{"long force", []string{"clean", "--force"}, true},
		{"dry run", []string{"clean", "-n"}, false},
		{"not clean", []string{"status", "-f"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalPredicate(t, "git_clean_force", tt.args); got != tt.want {
				t.Errorf("git_clean_force(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestGitBranchForceDelete(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"capital D", []string{"branch", "-D", "feature"}, true},
		{"d plus f", []string{"branch", "-d", "-f", "feature"}, true},
		{"clustered df", []string{"branch", "-df", "feature"}, true},
		{"long forms", []string{"branch", "--delete", "--force", "feature"}, true},
		{"plain delete", []string{"branch", "-d", "feature"}, false},
		{"list", []string{"branch", "-a"}, false},
		{"not branch", []string{"checkout", "-D"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalPredicate(t, "git_branch_force_delete", tt.args); got != tt.want {
				t.Errorf("git_branch_force_delete(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestPredicateTableRegister(t *testing.T) {
	table := NewPredicateTable()

	if err := table.Register("custom_ok", func([]string) (bool, error) { return true, nil }); err != nil {
		t.Fatalf("Register(custom_ok): %v", err)
	}
	if !table.Has("custom_ok") {
		t.Error("Has(custom_ok) = false after Register")
	}

	if err := table.Register("custom_ok", func([]string) (bool, error) { return true, nil }); err == nil {
		t.Error("duplicate Register succeeded, want error")
	}
	if err := table.Register("bad name", nil); err == nil {
		t.Error("Register with invalid name succeeded, want error")
	}

	if _, err := table.Eval("missing", nil); err == nil {
		t.Error("Eval(missing) succeeded, want error")
	}
}
