package rules

import "github.com/cmdsafe/cmdsafe/internal/domain/rule"

// fileRules covers destructive file operations. Most of these need
// predicates: combined short flags and path conditions are not expressible
// as flat token patterns.
func fileRules() []rule.Rule {
	return []rule.Rule{
		{
			ID:          "rm_in_repo",
			Command:     "rm",
			Pattern:     &rule.Pattern{}, // any rm invocation
			ExemptFlags: []string{"-r", "-rf", "-fr", "-f", "--recursive", "--force"},
			Context:     "git_repo",
			Action:      rule.ActionWarn,
			Severity:    rule.SeverityInfo,
			Description: "inside a repository, git rm keeps the deletion in history",
			Alternatives: []string{
				"git rm <path>",
			},
		},
		{
			ID:          "rm_recursive_force",
			Command:     "rm",
			Predicate:   "rm_recursive_force",
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-recursive-delete",
			Severity:    rule.SeverityCritical,
			Description: "recursive forced deletion removes whole trees without confirmation",
			Detail: "rm -rf answers no questions and follows no safety net. List what\n" +
				"would go first, or move it to the trash where it can come back.",
			Alternatives: []string{
				"trash <path>",
				"find <path> -print  # review first",
			},
			VerifyCommands: []string{
				"ls -la <path>",
			},
		},
		{
			ID:          "rm_dangerous_path",
			Command:     "rm",
			Predicate:   "rm_dangerous_path",
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-dangerous-path",
			Severity:    rule.SeverityCritical,
			Description: "deletion target is a root, home, or repository metadata path",
		},
		{
			ID:          "truncate_zero",
			Command:     "truncate",
			Predicate:   "truncate_zero",
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-truncate",
			Severity:    rule.SeverityWarning,
			Description: "truncating to zero erases the file contents in place",
			Alternatives: []string{
				"cp <file> <file>.bak && truncate -s 0 <file>",
			},
		},
		{
			ID:          "dd_device_write",
			Command:     "dd",
			Predicate:   "dd_device_target",
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-raw-device-write",
			Severity:    rule.SeverityCritical,
			Description: "dd writing to a raw device destroys whatever is on it",
			VerifyCommands: []string{
				"lsblk",
			},
		},
		{
			ID:          "chmod_world_writable",
			Command:     "chmod",
			Predicate:   "chmod_world_writable",
			Action:      rule.ActionWarn,
			Severity:    rule.SeverityWarning,
			Description: "world-writable permissions let any local user modify these files",
			Alternatives: []string{
				"chmod 755 (directories) / 644 (files)",
			},
		},
		{
			ID:          "shred_any",
			Command:     "shred",
			Pattern:     &rule.Pattern{}, // any shred invocation
			Action:      rule.ActionWarn,
			Severity:    rule.SeverityWarning,
			Description: "shred overwrites file contents beyond recovery",
		},
	}
}
