package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
)

var evalCmd = &cobra.Command{
	Use:   "eval <command> [args...]",
	Short: "Evaluate one command invocation against the rule set",
	Long: `Evaluate an invocation (command name plus argument vector) and print
the verdict. Exit code 0 means allow (including allowed-with-audit after a
bypass flag); exit code 1 means the invocation was blocked and the reason
was printed to stderr.`,
	Args: cobra.MinimumNArgs(1),
	// The vector after the command name belongs to the evaluated command;
	// none of it is a cmdsafe flag.
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer a.close(context.Background())

		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		verdict := a.policy.Evaluate(rule.Invocation{
			Command: args[0],
			Args:    args[1:],
			Dir:     cwd,
		})

		for _, w := range verdict.Warnings {
			fmt.Fprintln(os.Stderr, w)
		}

		if verdict.Outcome == rule.OutcomeDeny {
			fmt.Fprintln(os.Stderr, verdict.Message)
			a.close(context.Background())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
}
