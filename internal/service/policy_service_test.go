package service

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
)

// recordingSink captures every entry appended during a test.
type recordingSink struct {
	entries []rule.Entry
	err     error
}

func (s *recordingSink) Append(e rule.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildService(t *testing.T, sink rule.Sink, rules ...rule.Rule) *PolicyService {
	t.Helper()
	preds := rule.NewPredicateTable()
	reg := rule.NewRegistry(preds, rule.BuiltinContexts())
	for _, r := range rules {
		if err := reg.Register(r); err != nil {
			t.Fatalf("Register(%s): %v", r.ID, err)
		}
	}
	reg.Freeze()
	matcher := rule.NewMatcher(preds, rule.NewContextCache(rule.BuiltinContexts()), discardLogger())
	return NewPolicyService(reg, matcher, sink, discardLogger())
}

func forcePushRule() rule.Rule {
	return rule.Rule{
		ID:          "git_push_force",
		Command:     "git",
		Pattern:     &rule.Pattern{Tokens: []rule.Token{rule.Lit("push"), rule.Any("--force", "-f")}},
		ExemptFlags: []string{"--force-with-lease"},
		Action:      rule.ActionBlock,
		BypassFlag:  "--allow-force-push",
		Severity:    rule.SeverityCritical,
		Description: "force push rewrites remote history",
	}
}

func TestEvaluateAllowWhenNoCandidates(t *testing.T) {
	sink := &recordingSink{}
	svc := buildService(t, sink, forcePushRule())

	v := svc.Evaluate(rule.Invocation{Command: "ls", Args: []string{"-la"}})
	if v.Outcome != rule.OutcomeAllow {
		t.Errorf("Outcome = %s, want allow", v.Outcome)
	}
	if len(sink.entries) != 0 {
		t.Errorf("sink received %d entries, want 0", len(sink.entries))
	}
}

func TestEvaluateDenyRecordsOneViolation(t *testing.T) {
	sink := &recordingSink{}
	svc := buildService(t, sink, forcePushRule())

	inv := rule.Invocation{Command: "git", Args: []string{"push", "--force"}, Dir: "/work"}
	v := svc.Evaluate(inv)

	if v.Outcome != rule.OutcomeDeny {
		t.Fatalf("Outcome = %s, want deny", v.Outcome)
	}
	if v.RuleID != "git_push_force" {
		t.Errorf("RuleID = %s, want git_push_force", v.RuleID)
	}
	if !strings.Contains(v.Message, "BLOCKED [CRITICAL]") {
		t.Errorf("Message missing severity header: %q", v.Message)
	}
	if !strings.Contains(v.Message, "--allow-force-push") {
		t.Errorf("Message missing bypass hint: %q", v.Message)
	}

	if len(sink.entries) != 1 {
		t.Fatalf("sink received %d entries, want exactly 1", len(sink.entries))
	}
	e := sink.entries[0]
	if e.Kind != rule.KindViolation {
		t.Errorf("entry Kind = %s, want violation", e.Kind)
	}
	if e.Ref != "git_push_force" {
		t.Errorf("entry Ref = %s, want the rule ID", e.Ref)
	}
	if e.CommandLine != "git push --force" {
		t.Errorf("entry CommandLine = %q", e.CommandLine)
	}
	if e.Dir != "/work" {
		t.Errorf("entry Dir = %q, want /work", e.Dir)
	}
}

func TestEvaluateBypassRecordsOneAudit(t *testing.T) {
	sink := &recordingSink{}
	svc := buildService(t, sink, forcePushRule())

	inv := rule.Invocation{
		Command: "git",
		Args:    []string{"push", "--force", "--allow-force-push"},
		Dir:     "/work",
	}
	v := svc.Evaluate(inv)

	if v.Outcome != rule.OutcomeAllowAudited {
		t.Fatalf("Outcome = %s, want allow_audited", v.Outcome)
	}
	if v.Message != "" {
		t.Errorf("bypassed verdict carries a deny message: %q", v.Message)
	}

	if len(sink.entries) != 1 {
		t.Fatalf("sink received %d entries, want exactly 1 audit entry", len(sink.entries))
	}
	e := sink.entries[0]
	if e.Kind != rule.KindAudit {
		t.Errorf("entry Kind = %s, want audit", e.Kind)
	}
	if e.Ref != "--allow-force-push" {
		t.Errorf("entry Ref = %s, want the bypass flag", e.Ref)
	}
}

func TestEvaluateExemptFlagPreemptsBlock(t *testing.T) {
	sink := &recordingSink{}
	svc := buildService(t, sink, forcePushRule())

	v := svc.Evaluate(rule.Invocation{
		Command: "git",
		Args:    []string{"push", "--force-with-lease", "origin", "main"},
	})
	if v.Outcome != rule.OutcomeAllow {
		t.Errorf("Outcome = %s, want allow for --force-with-lease", v.Outcome)
	}
	if len(sink.entries) != 0 {
		t.Errorf("sink received %d entries, want 0", len(sink.entries))
	}
}

func TestEvaluateWarnDoesNotSuppressLaterBlock(t *testing.T) {
	warnRule := rule.Rule{
		ID:          "npm_install_warn",
		Command:     "npm",
		Pattern:     &rule.Pattern{Tokens: []rule.Token{rule.Any("install", "i")}},
		Action:      rule.ActionWarn,
		Severity:    rule.SeverityInfo,
		Description: "review new dependencies before installing",
	}
	blockRule := rule.Rule{
		ID:          "npm_install_global",
		Command:     "npm",
		Pattern:     &rule.Pattern{Tokens: []rule.Token{rule.Any("install", "i"), rule.Any("-g", "--global")}},
		Action:      rule.ActionBlock,
		BypassFlag:  "--allow-global-install",
		Severity:    rule.SeverityWarning,
		Description: "global installs mutate shared state",
	}

	sink := &recordingSink{}
	svc := buildService(t, sink, warnRule, blockRule)

	v := svc.Evaluate(rule.Invocation{Command: "npm", Args: []string{"install", "-g", "left-pad"}})
	if v.Outcome != rule.OutcomeDeny {
		t.Fatalf("Outcome = %s, want deny even after an earlier warn", v.Outcome)
	}
	if len(v.Warnings) != 1 {
		t.Errorf("got %d warnings, want 1", len(v.Warnings))
	}
	if v.RuleID != "npm_install_global" {
		t.Errorf("RuleID = %s, want npm_install_global", v.RuleID)
	}
}

func TestEvaluateWarnOnlyAllowsWithWarnings(t *testing.T) {
	warnRule := rule.Rule{
		ID:          "brew_install",
		Command:     "brew",
		Pattern:     &rule.Pattern{Tokens: []rule.Token{rule.Lit("install")}},
		Action:      rule.ActionWarn,
		Severity:    rule.SeverityInfo,
		Description: "brew mutates the system environment",
	}
	sink := &recordingSink{}
	svc := buildService(t, sink, warnRule)

	v := svc.Evaluate(rule.Invocation{Command: "brew", Args: []string{"install", "jq"}})
	if v.Outcome != rule.OutcomeAllow {
		t.Errorf("Outcome = %s, want allow", v.Outcome)
	}
	if len(v.Warnings) != 1 {
		t.Errorf("got %d warnings, want 1", len(v.Warnings))
	}
	if len(sink.entries) != 0 {
		t.Errorf("warn rule wrote %d sink entries, want 0", len(sink.entries))
	}
}

func TestEvaluateSinkFailureDoesNotChangeVerdict(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	svc := buildService(t, sink, forcePushRule())

	v := svc.Evaluate(rule.Invocation{Command: "git", Args: []string{"push", "--force"}})
	if v.Outcome != rule.OutcomeDeny {
		t.Errorf("Outcome = %s, want deny despite sink failure", v.Outcome)
	}
}

func TestFormatDenialSections(t *testing.T) {
	r := rule.Rule{
		ID:             "demo",
		Severity:       rule.SeverityWarning,
		Description:    "does a risky thing",
		Detail:         "Longer explanation of the risk.",
		Alternatives:   []string{"safer-cmd --flag"},
		VerifyCommands: []string{"check-state"},
		BypassFlag:     "--allow-demo",
		DocsURL:        "https://example.com/docs",
	}
	msg := FormatDenial(r)

	for _, want := range []string{
		"BLOCKED [WARNING] does a risky thing",
		"Longer explanation of the risk.",
		"Safer alternatives:",
		"  - safer-cmd --flag",
		"Check first:",
		"  - check-state",
		"re-run with --allow-demo",
		"Docs: https://example.com/docs",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("FormatDenial missing %q in:\n%s", want, msg)
		}
	}
}
