package rule

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// Registry errors. All of them are configuration errors: the engine must
// refuse to start rather than run with a partially-valid rule set.
var (
	ErrDuplicateRule    = errors.New("duplicate rule id")
	ErrInvalidRuleID    = errors.New("invalid rule id")
	ErrInvalidMatchSpec = errors.New("rule must set exactly one of pattern or predicate")
	ErrUnknownPredicate = errors.New("unknown predicate")
	ErrUnknownContext   = errors.New("unknown context predicate")
	ErrFrozen           = errors.New("registry is frozen")
)

// ruleIDPattern is the allow-list for rule identifiers. IDs participate in
// dynamic lookups, so anything outside this set is rejected at load time.
var ruleIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidRuleID reports whether id is safe to use as a lookup key.
func ValidRuleID(id string) bool {
	return id != "" && ruleIDPattern.MatchString(id)
}

// Registry is an ordered collection of rules plus a reverse index from
// command name to rule IDs in registration order. It is built once at
// startup, frozen, and read-only thereafter; RulesFor is safe for
// concurrent use once Freeze has been called.
type Registry struct {
	rules     map[string]Rule
	order     []string
	byCommand map[string][]string
	preds     *PredicateTable
	contexts  map[string]ContextFunc
	frozen    bool
}

// NewRegistry creates an empty registry bound to a predicate table and the
// named context predicates it will accept references to.
func NewRegistry(preds *PredicateTable, contexts map[string]ContextFunc) *Registry {
	return &Registry{
		rules:     make(map[string]Rule),
		byCommand: make(map[string][]string),
		preds:     preds,
		contexts:  contexts,
	}
}

// Register inserts a rule and appends its ID to the reverse-index bucket
// for its command. Any validation failure is fatal to registry construction.
func (r *Registry) Register(rule Rule) error {
	if r.frozen {
		return ErrFrozen
	}
	if !ValidRuleID(rule.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidRuleID, rule.ID)
	}
	if _, exists := r.rules[rule.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRule, rule.ID)
	}
	if rule.Command == "" {
		return fmt.Errorf("rule %q: command name is required", rule.ID)
	}
	hasPattern := rule.Pattern != nil
	hasPredicate := rule.Predicate != ""
	if hasPattern == hasPredicate {
		return fmt.Errorf("rule %q: %w", rule.ID, ErrInvalidMatchSpec)
	}
	if hasPredicate && !r.preds.Has(rule.Predicate) {
		return fmt.Errorf("rule %q: %w: %q", rule.ID, ErrUnknownPredicate, rule.Predicate)
	}
	if rule.Context != "" {
		if _, ok := r.contexts[rule.Context]; !ok {
			return fmt.Errorf("rule %q: %w: %q", rule.ID, ErrUnknownContext, rule.Context)
		}
	}

	r.rules[rule.ID] = rule
	r.order = append(r.order, rule.ID)
	r.byCommand[rule.Command] = append(r.byCommand[rule.Command], rule.ID)
	return nil
}

// Freeze marks the registry immutable. Must be called before the registry
// is shared across goroutines.
func (r *Registry) Freeze() { r.frozen = true }

// RulesFor returns the rules registered for a command, in registration
// order. Unknown commands yield an empty slice, not an error.
func (r *Registry) RulesFor(command string) []Rule {
	ids := r.byCommand[command]
	if len(ids) == 0 {
		return nil
	}
	out := make([]Rule, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.rules[id])
	}
	return out
}

// Rule returns a rule by ID.
func (r *Registry) Rule(id string) (Rule, bool) {
	rl, ok := r.rules[id]
	return rl, ok
}

// All returns every rule in registration order.
func (r *Registry) All() []Rule {
	out := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

// Commands returns the sorted set of command names with at least one rule.
func (r *Registry) Commands() []string {
	out := make([]string, 0, len(r.byCommand))
	for c := range r.byCommand {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// BypassFlags returns the deduplicated set of bypass flags declared across
// all rules. The command parser skips these when recovering a subcommand,
// and they are stripped before the real command executes.
func (r *Registry) BypassFlags() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range r.order {
		flag := r.rules[id].BypassFlag
		if flag != "" && !seen[flag] {
			seen[flag] = true
			out = append(out, flag)
		}
	}
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int { return len(r.order) }
