// Package rules holds the declarative rule definitions, one file per
// category, and the registration entrypoint that loads them into a
// registry.
package rules

import (
	"fmt"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
)

// Category names accepted by the disabled_categories config key.
const (
	CategoryGit      = "git"
	CategoryPackages = "packages"
	CategoryFiles    = "files"
)

// categories maps category names to their rule lists. Order within a
// category matters: earlier, more general rules defer to later, more
// specific ones via exempt flags.
var categories = []struct {
	name  string
	rules func() []rule.Rule
}{
	{CategoryFiles, fileRules},
	{CategoryPackages, packageRules},
	{CategoryGit, gitRules},
}

// RegisterAll loads every enabled category plus any user-defined extra
// rules into the registry, then freezes it. Category disabling happens
// here, before the snapshot is frozen; the registry is never mutated
// afterwards. Any registration error is fatal.
func RegisterAll(reg *rule.Registry, disabled []string, extra ...rule.Rule) error {
	skip := make(map[string]bool, len(disabled))
	for _, d := range disabled {
		skip[d] = true
	}

	for _, cat := range categories {
		if skip[cat.name] {
			continue
		}
		for _, r := range cat.rules() {
			if err := reg.Register(r); err != nil {
				return fmt.Errorf("category %s: %w", cat.name, err)
			}
		}
	}

	for _, r := range extra {
		if err := reg.Register(r); err != nil {
			return fmt.Errorf("custom rule: %w", err)
		}
	}

	reg.Freeze()
	return nil
}

// CategoryNames returns all known category names.
func CategoryNames() []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.name)
	}
	return out
}
