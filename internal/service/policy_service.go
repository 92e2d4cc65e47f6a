// Package service contains application services orchestrating the domain.
package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
)

// PolicyService is the dispatcher: it resolves candidate rules through the
// registry's reverse index, runs the matcher, applies bypass semantics, and
// records audit/violation entries. It never mutates the registry.
type PolicyService struct {
	registry *rule.Registry
	matcher  *rule.Matcher
	sink     rule.Sink
	logger   *slog.Logger
	now      func() time.Time
}

// NewPolicyService creates the dispatcher. The registry must already be
// frozen; the sink receives one entry per bypass or denial.
func NewPolicyService(registry *rule.Registry, matcher *rule.Matcher, sink rule.Sink, logger *slog.Logger) *PolicyService {
	return &PolicyService{
		registry: registry,
		matcher:  matcher,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
	}
}

// Evaluate produces a verdict for one invocation.
//
// Candidate rules are evaluated in registration order. Warn rules emit
// their message and evaluation continues; a warn never suppresses a later
// block. The first matching block rule decides the outcome: with its bypass
// flag present the invocation is allowed and audited, otherwise it is
// denied with a formatted message and a violation entry.
func (s *PolicyService) Evaluate(inv rule.Invocation) rule.Verdict {
	invID := uuid.NewString()
	candidates := s.registry.RulesFor(inv.Command)
	if len(candidates) == 0 {
		return rule.Verdict{Outcome: rule.OutcomeAllow}
	}

	var warnings []string
	for _, r := range candidates {
		if !s.matcher.Matches(r, inv) {
			continue
		}

		if r.Action == rule.ActionWarn {
			warnings = append(warnings, FormatWarning(r))
			s.logger.Debug("warn rule matched",
				"invocation", invID, "rule", r.ID, "command", inv.Command)
			continue
		}

		if r.BypassFlag != "" && containsArg(inv.Args, r.BypassFlag) {
			s.append(rule.Entry{
				Timestamp:   s.now(),
				Kind:        rule.KindAudit,
				Ref:         r.BypassFlag,
				CommandLine: inv.CommandLine(),
				Dir:         inv.Dir,
			})
			s.logger.Info("block bypassed",
				"invocation", invID, "rule", r.ID, "bypass", r.BypassFlag)
			return rule.Verdict{
				Outcome:  rule.OutcomeAllowAudited,
				RuleID:   r.ID,
				Warnings: warnings,
			}
		}

		s.append(rule.Entry{
			Timestamp:   s.now(),
			Kind:        rule.KindViolation,
			Ref:         r.ID,
			CommandLine: inv.CommandLine(),
			Dir:         inv.Dir,
		})
		s.logger.Info("command blocked",
			"invocation", invID, "rule", r.ID, "command", inv.Command)
		return rule.Verdict{
			Outcome:  rule.OutcomeDeny,
			RuleID:   r.ID,
			Message:  FormatDenial(r),
			Warnings: warnings,
		}
	}

	return rule.Verdict{Outcome: rule.OutcomeAllow, Warnings: warnings}
}

// Registry exposes the underlying rule set for introspection commands.
func (s *PolicyService) Registry() *rule.Registry { return s.registry }

func (s *PolicyService) append(e rule.Entry) {
	if err := s.sink.Append(e); err != nil {
		// Log failures must never change the verdict.
		s.logger.Error("failed to append log entry", "kind", e.Kind, "error", err)
	}
}

func containsArg(args []string, s string) bool {
	for _, a := range args {
		if a == s {
			return true
		}
	}
	return false
}
