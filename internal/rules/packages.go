package rules

import "github.com/cmdsafe/cmdsafe/internal/domain/rule"

// packageRules covers package-manager invocations. The general npm install
// warn rule carries exempt flags so the specific global-install block rule
// fires alone instead of double-reporting.
func packageRules() []rule.Rule {
	return []rule.Rule{
		{
			ID:      "npm_install",
			Command: "npm",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Any("install", "i", "add")},
				Mode:   rule.MatchSubsequence,
			},
			ExemptFlags: []string{"-g", "--global"},
			Action:      rule.ActionWarn,
			Severity:    rule.SeverityInfo,
			Description: "this machine standardizes on pnpm",
			Alternatives: []string{
				"pnpm install",
			},
		},
		{
			ID:      "npm_install_global",
			Command: "npm",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Any("install", "i", "add"), rule.Any("-g", "--global")},
				Mode:   rule.MatchSubsequence,
			},
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-global-install",
			Severity:    rule.SeverityWarning,
			Description: "global npm installs drift between machines and shadow project versions",
			Alternatives: []string{
				"npx <package>",
				"pnpm dlx <package>",
			},
			VerifyCommands: []string{
				"npm ls -g --depth=0",
			},
		},
		{
			ID:      "npm_publish",
			Command: "npm",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Lit("publish")},
				Mode:   rule.MatchSubsequence,
			},
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-publish",
			Severity:    rule.SeverityCritical,
			Description: "publishing to the public registry is irreversible",
			Detail: "A published version can be deprecated but never fully removed.\n" +
				"Dry-run first and check the files that would ship.",
			Alternatives: []string{
				"npm publish --dry-run",
				"npm pack",
			},
		},
		{
			ID:      "yarn_add",
			Command: "yarn",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Any("add", "install")},
				Mode:   rule.MatchSubsequence,
			},
			Action:      rule.ActionWarn,
			Severity:    rule.SeverityInfo,
			Description: "this machine standardizes on pnpm",
			Alternatives: []string{
				"pnpm add",
			},
		},
		{
			ID:      "pip_install",
			Command: "pip",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Lit("install")},
				Mode:   rule.MatchSubsequence,
			},
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-pip-system",
			Severity:    rule.SeverityWarning,
			Description: "pip installs outside a managed environment pollute the system python",
			Alternatives: []string{
				"uv pip install",
				"python -m venv .venv && .venv/bin/pip install",
			},
		},
		{
			ID:      "pip3_install",
			Command: "pip3",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Lit("install")},
				Mode:   rule.MatchSubsequence,
			},
			Action:      rule.ActionBlock,
			BypassFlag:  "--allow-pip-system",
			Severity:    rule.SeverityWarning,
			Description: "pip installs outside a managed environment pollute the system python",
			Alternatives: []string{
				"uv pip install",
			},
		},
		{
			ID:      "brew_install",
			Command: "brew",
			Pattern: &rule.Pattern{
				Tokens: []rule.Token{rule.Lit("install")},
				Mode:   rule.MatchSubsequence,
			},
			Action:      rule.ActionWarn,
			Severity:    rule.SeverityInfo,
			Description: "ad-hoc brew installs are not tracked in the Brewfile",
			Alternatives: []string{
				"add the formula to ~/Brewfile and run brew bundle",
			},
		},
	}
}
