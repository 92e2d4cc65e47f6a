package rules

import "github.com/cmdsafe/cmdsafe/internal/domain/rule"

// gitRules covers the destructive version-control subcommands. The safety
// pipeline's dangerous-subcommand check delegates to these through the
// policy engine.
func gitRules() []rule.Rule {
	return []rule.Rule{
		{
			ID:      "git_reset_hard",
			Command: "git",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Lit("reset"), rule.Lit("--hard")},
				Mode:   rule.MatchSubsequence,
			},
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-reset-hard",
			Severity:    rule.SeverityCritical,
			Description: "git reset --hard discards uncommitted work permanently",
			Detail: "Hard resets throw away staged and unstaged changes with no way back.\n" +
				"If you want a clean tree, stash instead; the stash survives the reset.",
			Alternatives: []string{
				"git stash",
				"git reset --soft HEAD~1",
			},
			VerifyCommands: []string{
				"git status",
				"git stash list",
			},
			DocsURL: "https://git-scm.com/docs/git-reset",
		},
		{
			ID:      "git_push_force",
			Command: "git",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Lit("push"), rule.Any("--force", "-f")},
				Mode:   rule.MatchSubsequence,
			},
			// The lease-based form refuses to clobber unseen remote work;
			// it is a real git flag, never stripped, and fully exempt here.
			ExemptFlags: []string{"--force-with-lease"},
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-force-push",
			Severity:    rule.SeverityCritical,
			Description: "forced push can overwrite commits other people already pulled",
			Detail: "A raw --force replaces the remote branch unconditionally. If anyone\n" +
				"pushed since your last fetch, their commits are gone.",
			Alternatives: []string{
				"git push --force-with-lease",
			},
			VerifyCommands: []string{
				"git log --oneline @{upstream}..HEAD",
			},
			DocsURL: "https://git-scm.com/docs/git-push#Documentation/git-push.txt---force-with-lease",
		},
		{
			ID:      "git_filter_branch",
			Command: "git",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Lit("filter-branch")},
				Mode:   rule.MatchAnywhere,
			},
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-history-rewrite",
			Severity:    rule.SeverityCritical,
			Description: "filter-branch rewrites history for every ref it touches",
			Alternatives: []string{
				"git filter-repo",
			},
			DocsURL: "https://git-scm.com/docs/git-filter-branch",
		},
		{
			ID:          "git_clean_force",
			Command:     "git",
			Predicate:   "git_clean_force",
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-clean",
			Severity:    rule.SeverityWarning,
			Description: "git clean -f deletes untracked files irreversibly",
			Alternatives: []string{
				"git clean -n",
				"git stash --include-untracked",
			},
			VerifyCommands: []string{
				"git clean -n",
			},
		},
		{
			ID:          "git_branch_force_delete",
			Command:     "git",
			Predicate:   "git_branch_force_delete",
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-branch-delete",
			Severity:    rule.SeverityWarning,
			Description: "forced branch deletion drops commits not merged anywhere",
			Alternatives: []string{
				"git branch -d",
			},
			VerifyCommands: []string{
				"git log --oneline -5 <branch>",
			},
		},
		{
			ID:      "git_checkout_force",
			Command: "git",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Lit("checkout"), rule.Any("-f", "--force")},
				Mode:   rule.MatchSubsequence,
			},
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-checkout-force",
			Severity:    rule.SeverityWarning,
			Description: "forced checkout throws away local modifications",
			Alternatives: []string{
				"git stash",
				"git switch <branch>",
			},
		},
	}
}
