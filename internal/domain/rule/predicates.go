package rule

import (
	"fmt"
	"strings"
)

// PredicateFunc evaluates a condition over a full argument vector.
// Predicates are pure: no side effects, no environment access.
type PredicateFunc func(args []string) (bool, error)

// PredicateTable is the closed, enumerated set of predicate implementations
// referenced by name from rule data. Names are validated with the same
// allow-list as rule IDs; registration of an invalid or duplicate name is a
// configuration error.
type PredicateTable struct {
	preds map[string]PredicateFunc
}

// NewPredicateTable returns a table pre-populated with the built-in
// predicates.
func NewPredicateTable() *PredicateTable {
	t := &PredicateTable{preds: make(map[string]PredicateFunc)}
	for name, fn := range builtinPredicates {
		t.preds[name] = fn
	}
	return t
}

// Register adds a named predicate. Used by the config layer to install
// compiled custom predicates before the registry is built.
func (t *PredicateTable) Register(name string, fn PredicateFunc) error {
	if !ValidRuleID(name) {
		return fmt.Errorf("%w: %q", ErrInvalidRuleID, name)
	}
	if _, exists := t.preds[name]; exists {
		return fmt.Errorf("predicate %q already registered", name)
	}
	t.preds[name] = fn
	return nil
}

// Has reports whether a predicate name is registered.
func (t *PredicateTable) Has(name string) bool {
	_, ok := t.preds[name]
	return ok
}

// Eval runs the named predicate against the argument vector.
func (t *PredicateTable) Eval(name string, args []string) (bool, error) {
	fn, ok := t.preds[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownPredicate, name)
	}
	return fn(args)
}

// builtinPredicates is the closed set of hand-written predicates for
// conditions a flat token pattern cannot express.
var builtinPredicates = map[string]PredicateFunc{
	"rm_recursive_force":      rmRecursiveForce,
	"rm_dangerous_path":       rmDangerousPath,
	"truncate_zero":           truncateZero,
	"dd_device_target":        ddDeviceTarget,
	"chmod_world_writable":    chmodWorldWritable,
	"git_clean_force":         gitCleanForce,
	"git_branch_force_delete": gitBranchForceDelete,
}

// hasShortFlags reports whether every wanted short flag appears among the
// argument vector's short-flag clusters. "-rf", "-fr" and "-r -f" are all
// equivalent.
func hasShortFlags(args []string, wanted ...rune) bool {
	found := make(map[rune]bool, len(wanted))
	for _, a := range args {
		if len(a) < 2 || a[0] != '-' || a[1] == '-' {
			continue
		}
		for _, c := range a[1:] {
			found[c] = true
		}
	}
	for _, w := range wanted {
		if !found[w] {
			return false
		}
	}
	return true
}

// hasFlagValue reports whether flag appears with the given value, in either
// the "--flag=value" joined form or the "--flag value" split form.
func hasFlagValue(args []string, flag, value string) bool {
	joined := flag + "=" + value
	for i, a := range args {
		if a == joined {
			return true
		}
		if a == flag && i+1 < len(args) && args[i+1] == value {
			return true
		}
	}
	return false
}

// rmRecursiveForce matches recursive+force deletion in any short-flag
// clustering or the long forms.
func rmRecursiveForce(args []string) (bool, error) {
	recursive := hasShortFlags(args, 'r') || hasShortFlags(args, 'R') || containsArg(args, "--recursive")
	force := hasShortFlags(args, 'f') || containsArg(args, "--force")
	return recursive && force, nil
}

// rmDangerousPath matches deletion targets that point at a filesystem root,
// a home directory, or a version-control metadata directory.
func rmDangerousPath(args []string) (bool, error) {
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		if a == "/" || a == "/*" || a == "~" || a == "~/" {
			return true, nil
		}
		if a == ".git" || strings.HasSuffix(a, "/.git") || strings.Contains(a, "/.git/") {
			return true, nil
		}
	}
	return false, nil
}

// truncateZero matches truncation to zero length in both the joined "-s0"
// and the split "-s 0" spellings.
func truncateZero(args []string) (bool, error) {
	for i, a := range args {
		if a == "-s0" || a == "--size=0" {
			return true, nil
		}
		if (a == "-s" || a == "--size") && i+1 < len(args) && args[i+1] == "0" {
			return true, nil
		}
	}
	return false, nil
}

// ddDeviceTarget matches dd writing straight to a block device.
func ddDeviceTarget(args []string) (bool, error) {
	for _, a := range args {
		if strings.HasPrefix(a, "of=/dev/") {
			return true, nil
		}
	}
	return false, nil
}

// chmodWorldWritable matches chmod granting world-writable permissions,
// with or without -R / --recursive.
func chmodWorldWritable(args []string) (bool, error) {
	for _, a := range args {
		if a == "777" || a == "0777" || a == "a+rwx" {
			return true, nil
		}
	}
	return hasFlagValue(args, "--mode", "777"), nil
}

// gitCleanForce matches "git clean" with force in any short-flag cluster
// (-f, -fd, -fdx, ...) or the long form.
func gitCleanForce(args []string) (bool, error) {
	if !containsArg(args, "clean") {
		return false, nil
	}
	return hasShortFlags(args, 'f') || containsArg(args, "--force"), nil
}

// gitBranchForceDelete matches forced branch deletion: -D in any cluster,
// or -d combined with -f, or the long forms.
func gitBranchForceDelete(args []string) (bool, error) {
	if !containsArg(args, "branch") {
		return false, nil
	}
	if hasShortFlags(args, 'D') {
		return true, nil
	}
	del := hasShortFlags(args, 'd') || containsArg(args, "--delete")
	force := hasShortFlags(args, 'f') || containsArg(args, "--force")
	return del && force, nil
}

func containsArg(args []string, s string) bool {
	for _, a := range args {
		if a == s {
			return true
		}
	}
	return false
}
