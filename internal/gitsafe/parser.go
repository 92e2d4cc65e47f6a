// Package gitsafe implements the version-control safety pipeline: real
// subcommand extraction from a noisy argument vector, the independent risk
// checks, and their aggregation into a single proceed/blocked verdict.
package gitsafe

import (
	"errors"
	"strings"
)

// ErrNoSubcommand is returned when the argument vector contains no
// subcommand token. Callers treat it as "nothing to check".
var ErrNoSubcommand = errors.New("no git subcommand found")

// valueTakingGlobalFlags are git's global flags that consume the following
// token as their value unless written in the key=value joined form.
var valueTakingGlobalFlags = map[string]bool{
	"-C":             true,
	"-c":             true,
	"--git-dir":      true,
	"--work-tree":    true,
	"--namespace":    true,
	"--super-prefix": true,
	"--config-env":   true,
}

// ParseSubcommand recovers the real subcommand from an argument vector
// that interleaves policy-bypass flags and git's own global flags.
//
// The scan is left to right with a skip-next flag: bypass flags are
// skipped, a value-taking global flag skips itself and its value token
// (one token only in the joined form), and any other leading-dash token is
// skipped. The first surviving non-flag token is the subcommand.
//
// The result is invariant under flag reordering: a bypass flag must never
// be mistaken for the subcommand, and a global flag's value token must
// never be mistaken for the subcommand. That is a security property, not a
// parsing nicety; getting it wrong lets a crafted vector dodge every check.
func ParseSubcommand(args []string, bypassFlags map[string]bool) (string, error) {
	skipNext := false
	for _, tok := range args {
		if skipNext {
			skipNext = false
			continue
		}
		if bypassFlags[tok] {
			continue
		}
		if valueTakingGlobalFlags[tok] {
			skipNext = true
			continue
		}
		if eq := strings.IndexByte(tok, '='); eq > 0 && valueTakingGlobalFlags[tok[:eq]] {
			// Joined form consumes only this token.
			continue
		}
		if strings.HasPrefix(tok, "-") {
			continue
		}
		return tok, nil
	}
	return "", ErrNoSubcommand
}

// safeSubcommands are inspection-only operations: the fast path skips all
// checks for them.
var safeSubcommands = map[string]bool{
	"status":    true,
	"log":       true,
	"show":      true,
	"diff":      true,
	"blame":     true,
	"shortlog":  true,
	"describe":  true,
	"rev-parse": true,
	"ls-files":  true,
	"ls-remote": true,
	"grep":      true,
	"help":      true,
	"version":   true,
}

// IsSafeSubcommand reports whether the subcommand is inspection-only.
func IsSafeSubcommand(sub string) bool { return safeSubcommands[sub] }

// StripBypassFlags removes policy bypass flags from the vector before the
// real command executes. Only policy artifacts are removed; real git flags
// such as --force-with-lease pass through verbatim.
func StripBypassFlags(args []string, bypassFlags map[string]bool) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if bypassFlags[a] {
			continue
		}
		out = append(out, a)
	}
	return out
}
