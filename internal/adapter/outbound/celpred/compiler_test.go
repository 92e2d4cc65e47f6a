package celpred

import (
	"strings"
	"testing"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
)

func compile(t *testing.T, expr string) rule.PredicateFunc {
	t.Helper()
	c, err := NewCompiler()
	if err != nil {
		t.Fatalf("NewCompiler: %v", err)
	}
	fn, err := c.Compile("test_pred", expr)
	if err != nil {
		t.Fatalf("Compile(%q): %v", expr, err)
	}
	return fn
}

func TestCompileAndEvaluate(t *testing.T) {
	tests := []struct {
		name string
		expr string
		args []string
		want bool
	}{
		{
			"membership",
			`"--force" in args`,
			[]string{"push", "--force"},
			true,
		},
		{
			"membership miss",
			`"--force" in args`,
			[]string{"push"},
			false,
		},
		{
			"exists with prefix",
			`args.exists(a, a.startsWith("of=/dev/"))`,
			[]string{"if=x", "of=/dev/sda"},
			true,
		},
		{
			"conjunction",
			`"reset" in args && "--hard" in args`,
			[]string{"reset", "--hard"},
			true,
		},
		{
			"size check",
			`args.size() > 3`,
			[]string{"a", "b"},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := compile(t, tt.expr)
			got, err := fn(tt.args)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}
			if got != tt.want {
				t.Errorf("eval(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestCompileRejectsInvalidExpressions(t *testing.T) {
	c, err := NewCompiler()
	if err != nil {
		t.Fatalf("NewCompiler: %v", err)
	}

	tests := []struct {
		name string
		expr string
	}{
		{"syntax error", `"--force" in`},
		{"unknown variable", `argv.size() > 0`},
		{"non-bool result", `args.size()`},
		{"over length limit", `"x" in args || ` + strings.Repeat(`"padpadpad" in args || `, 60) + `false`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Compile("bad", tt.expr); err == nil {
				t.Errorf("Compile(%q) succeeded, want error", tt.expr)
			}
		})
	}
}

func TestInstallRegistersInOrder(t *testing.T) {
	table := rule.NewPredicateTable()
	err := Install(table, []NamedExpression{
		{Name: "custom_force", Expression: `"--force" in args`},
		{Name: "custom_hard", Expression: `"--hard" in args`},
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	for _, name := range []string{"custom_force", "custom_hard"} {
		if !table.Has(name) {
			t.Errorf("predicate %s not installed", name)
		}
	}

	got, err := table.Eval("custom_force", []string{"push", "--force"})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got {
		t.Error("installed predicate returned false, want true")
	}
}

func TestInstallRejectsBadExpressionOrName(t *testing.T) {
	table := rule.NewPredicateTable()

	if err := Install(table, []NamedExpression{
		{Name: "broken", Expression: `not valid cel (`},
	}); err == nil {
		t.Error("Install accepted an invalid expression")
	}

	if err := Install(table, []NamedExpression{
		{Name: "bad name", Expression: `true`},
	}); err == nil {
		t.Error("Install accepted an invalid predicate name")
	}

	// Colliding with a built-in predicate name is a configuration error.
	if err := Install(table, []NamedExpression{
		{Name: "rm_recursive_force", Expression: `true`},
	}); err == nil {
		t.Error("Install accepted a name colliding with a built-in predicate")
	}
}
