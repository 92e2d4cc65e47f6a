package gitsafe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
	"github.com/cmdsafe/cmdsafe/internal/service"
)

// tracerName identifies pipeline spans when tracing is enabled.
const tracerName = "github.com/cmdsafe/cmdsafe/internal/gitsafe"

// ScanCache caches clean secret-scan results by changeset fingerprint.
type ScanCache interface {
	IsClean(ctx context.Context, fingerprint string) (bool, error)
	MarkClean(ctx context.Context, fingerprint string) error
}

// Config holds the pipeline's tunables.
type Config struct {
	// WorkspaceRoot is searched by the duplicate-clone check.
	WorkspaceRoot string
	// ManifestPatterns extends the built-in dependency-manifest globs.
	ManifestPatterns []string
}

// Result is the pipeline's aggregate verdict.
type Result struct {
	// Proceed is false when any check denied.
	Proceed bool
	// Subcommand is the parsed real subcommand, empty when none was found.
	Subcommand string
	// Messages holds every deny message, not just the first.
	Messages []string
	// Warnings holds non-blocking notes (warn rules, scanner hints).
	Warnings []string
}

// Pipeline runs the fixed sequence of independent risk checks for git
// invocations. Checks share one read-only changeset snapshot and run
// concurrently; the pipeline joins on all of them so the user sees every
// problem at once rather than one per attempt.
type Pipeline struct {
	policy  *service.PolicyService
	sink    rule.Sink
	git     GitRunner
	scanner SecretScanner
	cache   ScanCache
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewPipeline wires the pipeline. cache may be nil (scan results are then
// never reused); scanner may be nil to disable secret scanning entirely.
func NewPipeline(policy *service.PolicyService, sink rule.Sink, git GitRunner, scanner SecretScanner, cache ScanCache, cfg Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		policy:  policy,
		sink:    sink,
		git:     git,
		scanner: scanner,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// BypassFlags returns every bypass flag the pipeline honors: the rule
// registry's flags plus the per-check flags.
func (p *Pipeline) BypassFlags() map[string]bool {
	flags := make(map[string]bool)
	for _, f := range p.policy.Registry().BypassFlags() {
		flags[f] = true
	}
	for _, f := range CheckBypassFlags() {
		flags[f] = true
	}
	return flags
}

// Run evaluates one git invocation and returns the aggregate verdict.
func (p *Pipeline) Run(ctx context.Context, args []string, dir string) (Result, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()

	bypass := p.BypassFlags()

	sub, err := ParseSubcommand(args, bypass)
	if err != nil {
		// No subcommand means nothing to check; git will complain on its own.
		p.logger.Debug("no subcommand found, proceeding", "args", args)
		return Result{Proceed: true}, nil
	}
	span.SetAttributes(attribute.String("git.subcommand", sub))

	if IsSafeSubcommand(sub) {
		return Result{Proceed: true, Subcommand: sub}, nil
	}

	if sub == "clone" {
		return p.runClone(ctx, tracer, args, dir, bypass), nil
	}

	return p.runChecks(ctx, tracer, sub, args, dir, bypass)
}

// runClone handles the clone-only duplicate check.
func (p *Pipeline) runClone(ctx context.Context, tracer trace.Tracer, args []string, dir string, bypass map[string]bool) Result {
	_, span := tracer.Start(ctx, "check.duplicate-clone")
	defer span.End()

	target := cloneTarget(args, bypass)
	res := checkDuplicateClone(p.cfg.WorkspaceRoot, target, containsFlag(args, BypassDuplicateClone))
	p.recordBypass(res, BypassDuplicateClone, args, dir)

	return p.aggregate("clone", []CheckResult{res}, nil)
}

// runChecks fans out the independent checks and joins on all of them.
func (p *Pipeline) runChecks(ctx context.Context, tracer trace.Tracer, sub string, args []string, dir string, bypass map[string]bool) (Result, error) {
	type namedCheck struct {
		name string
		run  func(ctx context.Context) CheckResult
	}

	checks := []namedCheck{
		{"dangerous-subcommand", func(ctx context.Context) CheckResult {
			return p.dangerousCheck(args, dir)
		}},
	}

	var warnings []string
	if sub == "commit" {
		cs, err := LoadStaged(ctx, p.git, dir)
		if err != nil {
			return Result{}, fmt.Errorf("load changeset: %w", err)
		}

		checks = append(checks,
			namedCheck{"dependency-change", func(context.Context) CheckResult {
				res := checkDependencyChange(cs, p.cfg.ManifestPatterns, containsFlag(args, BypassDepsChange))
				p.recordBypass(res, BypassDepsChange, args, dir)
				return res
			}},
			namedCheck{"large-file", func(context.Context) CheckResult {
				res := checkLargeFiles(cs, containsFlag(args, BypassLargeFiles))
				p.recordBypass(res, BypassLargeFiles, args, dir)
				return res
			}},
			namedCheck{"large-commit", func(context.Context) CheckResult {
				res := checkLargeCommit(cs, containsFlag(args, BypassLargeCommit))
				p.recordBypass(res, BypassLargeCommit, args, dir)
				return res
			}},
			namedCheck{"secret-scan", func(ctx context.Context) CheckResult {
				res := p.secretScanCheck(ctx, cs, args, dir)
				p.recordBypass(res, BypassSecrets, args, dir)
				return res
			}},
		)
	}

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c namedCheck) {
			defer wg.Done()
			cctx, span := tracer.Start(ctx, "check."+c.name)
			defer span.End()
			results[i] = c.run(cctx)
			span.SetAttributes(
				attribute.Bool("check.blocked", results[i].Blocked),
				attribute.Bool("check.bypassed", results[i].Bypassed),
			)
		}(i, c)
	}
	wg.Wait()

	return p.aggregate(sub, results, warnings), nil
}

// dangerousCheck delegates to the policy engine with the git rule set.
func (p *Pipeline) dangerousCheck(args []string, dir string) CheckResult {
	res := CheckResult{Name: "dangerous-subcommand"}
	verdict := p.policy.Evaluate(rule.Invocation{Command: "git", Args: args, Dir: dir})

	res.Messages = append(res.Messages, verdict.Warnings...)
	switch verdict.Outcome {
	case rule.OutcomeDeny:
		res.Blocked = true
		res.Messages = append(res.Messages, verdict.Message)
	case rule.OutcomeAllowAudited:
		res.Bypassed = true
	}
	return res
}

// secretScanCheck scans the staged changeset, reusing a cached clean
// result when the fingerprint is fresh. A missing or timed-out scanner
// degrades to a setup hint and never blocks.
func (p *Pipeline) secretScanCheck(ctx context.Context, cs *Changeset, args []string, dir string) CheckResult {
	res := CheckResult{Name: "secret-scan"}
	if cs.Empty() {
		return res
	}
	if containsFlag(args, BypassSecrets) {
		res.Bypassed = true
		return res
	}
	if p.scanner == nil || !p.scanner.Available() {
		res.Messages = append(res.Messages,
			"hint: no secret scanner found; install gitleaks to scan commits for credentials")
		return res
	}

	if p.cache != nil {
		clean, err := p.cache.IsClean(ctx, cs.Fingerprint)
		if err != nil {
			p.logger.Warn("scan cache lookup failed", "error", err)
		} else if clean {
			p.logger.Debug("secret scan skipped, clean fingerprint cached",
				"fingerprint", cs.Fingerprint)
			return res
		}
	}

	outcome, err := p.scanner.Scan(ctx, dir)
	if err != nil {
		// Unavailable (including timeout) is a hint, never a deny.
		res.Messages = append(res.Messages,
			"hint: secret scanner unavailable or timed out; commit not scanned")
		return res
	}

	if outcome.Clean {
		if p.cache != nil {
			if err := p.cache.MarkClean(ctx, cs.Fingerprint); err != nil {
				p.logger.Warn("scan cache store failed", "error", err)
			}
		}
		return res
	}

	res.Blocked = true
	res.Messages = append(res.Messages, fmt.Sprintf(
		"possible secrets in the staged changes:\n%s\nRotate anything real, then re-run with %s if this is a false positive.",
		outcome.Report, BypassSecrets))
	return res
}

// aggregate folds check results into the pipeline verdict: blocked if any
// check denied, with every deny message surfaced.
func (p *Pipeline) aggregate(sub string, results []CheckResult, warnings []string) Result {
	out := Result{Proceed: true, Subcommand: sub, Warnings: warnings}
	for _, r := range results {
		if r.Blocked {
			out.Proceed = false
			out.Messages = append(out.Messages, r.Messages...)
			continue
		}
		// Non-blocking messages (hints, warn rules) surface as warnings.
		out.Warnings = append(out.Warnings, r.Messages...)
	}
	return out
}

// recordBypass appends one audit entry when a check was bypassed.
func (p *Pipeline) recordBypass(res CheckResult, flag string, args []string, dir string) {
	if !res.Bypassed {
		return
	}
	e := rule.Entry{
		Timestamp:   p.now(),
		Kind:        rule.KindAudit,
		Ref:         flag,
		CommandLine: rule.Invocation{Command: "git", Args: args}.CommandLine(),
		Dir:         dir,
	}
	if err := p.sink.Append(e); err != nil {
		p.logger.Error("failed to append audit entry", "check", res.Name, "error", err)
	}
}

func containsFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}
