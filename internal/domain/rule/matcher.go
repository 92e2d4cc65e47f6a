package rule

import "log/slog"

// Matcher evaluates single rules against invocations. It consults the
// predicate table for custom predicates and the context cache for
// environmental checks.
type Matcher struct {
	preds  *PredicateTable
	ctx    *ContextCache
	logger *slog.Logger
}

// NewMatcher creates a matcher over the given predicate table and context
// cache.
func NewMatcher(preds *PredicateTable, ctx *ContextCache, logger *slog.Logger) *Matcher {
	return &Matcher{preds: preds, ctx: ctx, logger: logger}
}

// Matches reports whether the rule applies to the invocation.
//
// Order matters: exempt flags short-circuit first (a more specific rule is
// expected to fire instead), then the context predicate, then the pattern
// or custom predicate. A predicate error is fail-open for this one rule but
// logged as a warning, since silent fail-open would erode policy guarantees.
func (m *Matcher) Matches(r Rule, inv Invocation) bool {
	for _, exempt := range r.ExemptFlags {
		if containsArg(inv.Args, exempt) {
			return false
		}
	}

	if r.Context != "" && !m.ctx.Check(r.Context, inv.Dir) {
		return false
	}

	if r.Predicate != "" {
		ok, err := m.preds.Eval(r.Predicate, inv.Args)
		if err != nil {
			m.logger.Warn("predicate evaluation failed, treating rule as non-matching",
				"rule", r.ID, "predicate", r.Predicate, "error", err)
			return false
		}
		return ok
	}

	return matchPattern(r.Pattern, inv.Args)
}

// matchPattern applies a token pattern to the argument vector. All tokens
// must be found honoring the mode; there is no partial credit. An empty
// pattern matches every invocation of the rule's command.
func matchPattern(p *Pattern, args []string) bool {
	switch p.Mode {
	case MatchAnywhere:
		for _, tok := range p.Tokens {
			if tokenIndexFrom(tok, args, 0) < 0 {
				return false
			}
		}
		return true
	default: // MatchSubsequence
		pos := 0
		for _, tok := range p.Tokens {
			idx := tokenIndexFrom(tok, args, pos)
			if idx < 0 {
				return false
			}
			pos = idx + 1
		}
		return true
	}
}

// tokenIndexFrom returns the first index at or after start where any
// alternative of the token matches, or -1.
func tokenIndexFrom(tok Token, args []string, start int) int {
	for i := start; i < len(args); i++ {
		for _, alt := range tok.Alternatives {
			if args[i] == alt {
				return i
			}
		}
	}
	return -1
}
