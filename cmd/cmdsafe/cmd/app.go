package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cmdsafe/cmdsafe/internal/adapter/outbound/auditlog"
	"github.com/cmdsafe/cmdsafe/internal/adapter/outbound/celpred"
	"github.com/cmdsafe/cmdsafe/internal/adapter/outbound/scancache"
	"github.com/cmdsafe/cmdsafe/internal/config"
	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
	"github.com/cmdsafe/cmdsafe/internal/gitsafe"
	"github.com/cmdsafe/cmdsafe/internal/rules"
	"github.com/cmdsafe/cmdsafe/internal/service"
	"github.com/cmdsafe/cmdsafe/internal/telemetry"
)

// app bundles the wired engine for the CLI commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	policy   *service.PolicyService
	pipeline *gitsafe.Pipeline
	shutdown func(context.Context) error
	closers  []func() error
}

// buildApp loads config and wires the engine. Any configuration error is
// fatal: the engine refuses to start with a partially-valid rule set.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a := &app{cfg: cfg, logger: logger}

	if cfg.Trace {
		shutdown, err := telemetry.Init()
		if err != nil {
			return nil, err
		}
		a.shutdown = shutdown
	}

	preds := rule.NewPredicateTable()
	var exprs []celpred.NamedExpression
	for _, p := range cfg.CustomPredicates {
		exprs = append(exprs, celpred.NamedExpression{Name: p.Name, Expression: p.Expression})
	}
	if err := celpred.Install(preds, exprs); err != nil {
		return nil, fmt.Errorf("install custom predicates: %w", err)
	}

	contexts := rule.BuiltinContexts()
	registry := rule.NewRegistry(preds, contexts)
	if err := rules.RegisterAll(registry, cfg.DisabledCategories, customRules(cfg)...); err != nil {
		return nil, fmt.Errorf("build rule registry: %w", err)
	}

	sink, err := auditlog.NewFileStore(auditlog.Config{
		Dir:         cfg.Log.Dir,
		MaxFileSize: int64(cfg.Log.MaxFileSizeKB) * 1024,
		MaxRotated:  cfg.Log.MaxRotated,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open log sinks: %w", err)
	}

	matcher := rule.NewMatcher(preds, rule.NewContextCache(contexts), logger)
	a.policy = service.NewPolicyService(registry, matcher, sink, logger)

	var cache gitsafe.ScanCache
	if store, err := scancache.Open(cfg.ScanCache.Path, cfg.ScanCacheTTL()); err != nil {
		// A broken cache only costs rescans; it must not break the pipeline.
		logger.Warn("scan cache unavailable", "error", err)
	} else {
		cache = store
		a.closers = append(a.closers, store.Close)
	}

	scanner := gitsafe.GitleaksScanner{
		Command: cfg.Scanner.Command,
		Timeout: cfg.ScannerTimeout(),
	}

	a.pipeline = gitsafe.NewPipeline(a.policy, sink, gitsafe.ExecGit{}, scanner, cache, gitsafe.Config{
		WorkspaceRoot:    cfg.WorkspaceRoot,
		ManifestPatterns: cfg.ManifestPatterns,
	}, logger)

	return a, nil
}

// customRules converts config-defined rules into domain rules.
func customRules(cfg *config.Config) []rule.Rule {
	out := make([]rule.Rule, 0, len(cfg.CustomRules))
	for _, c := range cfg.CustomRules {
		severity := rule.Severity(c.Severity)
		if severity == "" {
			severity = rule.SeverityWarning
		}
		out = append(out, rule.Rule{
			ID:           c.ID,
			Command:      c.Command,
			Predicate:    c.Predicate,
			Action:       rule.Action(c.Action),
			BypassFlag:   c.BypassFlag,
			Severity:     severity,
			Description:  c.Description,
			Alternatives: c.Alternatives,
			DocsURL:      c.DocsURL,
		})
	}
	return out
}

// close flushes tracing and releases resources.
func (a *app) close(ctx context.Context) {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			a.logger.Warn("trace shutdown failed", "error", err)
		}
	}
}
