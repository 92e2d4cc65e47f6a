// Package rule contains the domain model for command policy rules:
// the Rule definition, the immutable Registry with its reverse index,
// the Matcher, the built-in predicate table, and the per-directory
// context cache.
package rule

import "time"

// Action represents what happens when a rule matches an invocation.
type Action string

const (
	// ActionBlock denies the invocation unless its bypass flag is present.
	ActionBlock Action = "block"
	// ActionWarn reports the rule's message but allows the invocation.
	ActionWarn Action = "warn"
)

// Severity classifies how risky a matched invocation is. Presentation only.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// MatchMode controls how a token pattern is applied to an argument vector.
type MatchMode int

const (
	// MatchSubsequence requires the pattern tokens to appear in order,
	// not necessarily adjacent (e.g. "push ... --force").
	MatchSubsequence MatchMode = iota
	// MatchAnywhere requires each token to be present somewhere in the
	// vector, in any order.
	MatchAnywhere
)

// Token is a single pattern position. It matches an argument when the
// argument equals any of the alternatives (e.g. "add" OR "install" OR "i").
type Token struct {
	Alternatives []string
}

// Lit builds a single-literal token.
func Lit(s string) Token { return Token{Alternatives: []string{s}} }

// Any builds a token matching any of the given literals.
func Any(alts ...string) Token { return Token{Alternatives: alts} }

// Pattern is a declarative token pattern. A pattern with zero tokens
// matches every invocation of the rule's command.
type Pattern struct {
	Tokens []Token
	Mode   MatchMode
}

// Rule is the atomic policy unit: one match condition mapped to one action.
// Exactly one of Pattern or Predicate must be set.
type Rule struct {
	// ID is the stable identifier, restricted to [A-Za-z0-9_].
	ID string
	// Command is the invocation name this rule applies to (e.g. "git", "rm").
	Command string
	// Pattern is the declarative token pattern, if this rule uses one.
	Pattern *Pattern
	// Predicate names a registered predicate function for conditions a
	// flat pattern cannot express (combined short flags, -s0 vs -s 0,
	// path substrings, --flag=value forms).
	Predicate string
	// ExemptFlags disable this rule when any of them is present; a more
	// specific rule is expected to fire instead.
	ExemptFlags []string
	// Context names an environmental predicate (e.g. "git_repo") that must
	// hold for the rule to apply. Evaluated through the ContextCache.
	Context string
	// Action is block or warn.
	Action Action
	// BypassFlag converts a block into allow-with-audit when present.
	// May repeat across related rules.
	BypassFlag string

	// Presentation fields, shown on deny or warn.
	Severity     Severity
	Description  string
	Detail       string
	Alternatives []string
	// VerifyCommands are suggested commands for checking the state the
	// blocked command would have changed.
	VerifyCommands []string
	DocsURL        string
}

// Invocation is the ephemeral value a verdict is produced for.
type Invocation struct {
	Command string
	Args    []string
	Dir     string
}

// CommandLine returns the literal command line for logging.
func (inv Invocation) CommandLine() string {
	line := inv.Command
	for _, a := range inv.Args {
		line += " " + a
	}
	return line
}

// Outcome is the aggregate result of policy evaluation.
type Outcome string

const (
	// OutcomeAllow permits the invocation with no side effects.
	OutcomeAllow Outcome = "allow"
	// OutcomeAllowAudited permits a bypassed block and records an audit entry.
	OutcomeAllowAudited Outcome = "allow_audited"
	// OutcomeDeny blocks the invocation.
	OutcomeDeny Outcome = "deny"
)

// Verdict is the ephemeral result of evaluating one invocation.
type Verdict struct {
	Outcome Outcome
	// RuleID identifies the blocking (or bypassed) rule, if any.
	RuleID string
	// Message is the formatted deny message, empty otherwise.
	Message string
	// Warnings collects messages from warn rules that matched. A warn
	// never suppresses a later block and never changes the outcome.
	Warnings []string
}

// Entry is a persisted audit or violation record.
type Entry struct {
	Timestamp time.Time
	// Kind is "audit" (bypass used) or "violation" (blocked).
	Kind string
	// Ref is the rule ID for violations or the bypass flag for audits.
	Ref string
	// CommandLine is the literal invocation.
	CommandLine string
	// Dir is the working directory of the invocation.
	Dir string
}

// Entry kinds.
const (
	KindAudit     = "audit"
	KindViolation = "violation"
)
