// Package celpred compiles config-defined CEL expressions into predicate
// functions for the rule predicate table. Compilation happens once at load
// time; a compile failure is a fatal configuration error, while a runtime
// evaluation failure is fail-open for the single rule using the predicate.
package celpred

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
)

// maxExpressionLength bounds config-supplied expressions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit, guarding against
// cost-exhaustion from a pathological expression.
const maxCostBudget = 100_000

// evalTimeout bounds a single predicate evaluation.
const evalTimeout = 2 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) context
// cancellation is checked.
const interruptCheckFreq = 100

// Compiler builds predicate functions from CEL expressions over the single
// variable "args" (list of string), keeping predicates pure over the
// argument vector.
type Compiler struct {
	env *cel.Env
}

// NewCompiler creates a compiler with the predicate environment.
func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("args", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create predicate environment: %w", err)
	}
	return &Compiler{env: env}, nil
}

// Compile parses and type-checks an expression and wraps the program as a
// rule.PredicateFunc. The expression must produce a bool.
func (c *Compiler) Compile(name, expression string) (rule.PredicateFunc, error) {
	if len(expression) > maxExpressionLength {
		return nil, fmt.Errorf("predicate %q: expression exceeds %d characters", name, maxExpressionLength)
	}

	ast, issues := c.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("predicate %q: compile: %w", name, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("predicate %q: expression must evaluate to bool, got %s", name, ast.OutputType())
	}

	prg, err := c.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("predicate %q: program: %w", name, err)
	}

	return func(args []string) (bool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
		defer cancel()
		out, _, err := prg.ContextEval(ctx, map[string]any{"args": args})
		if err != nil {
			return false, fmt.Errorf("predicate %q: eval: %w", name, err)
		}
		b, ok := out.(types.Bool)
		if !ok {
			return false, errors.New("predicate result is not a bool")
		}
		return bool(b), nil
	}, nil
}

// NamedExpression pairs a predicate name with its CEL source.
type NamedExpression struct {
	Name       string
	Expression string
}

// Install compiles each named expression in order and registers it into
// the table. Any failure aborts: the engine refuses to start with a
// partially-valid predicate set.
func Install(table *rule.PredicateTable, preds []NamedExpression) error {
	if len(preds) == 0 {
		return nil
	}
	c, err := NewCompiler()
	if err != nil {
		return err
	}
	for _, p := range preds {
		fn, err := c.Compile(p.Name, p.Expression)
		if err != nil {
			return err
		}
		if err := table.Register(p.Name, fn); err != nil {
			return err
		}
	}
	return nil
}
