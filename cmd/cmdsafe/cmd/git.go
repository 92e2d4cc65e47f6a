package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmdsafe/cmdsafe/internal/gitsafe"
)

var gitCmd = &cobra.Command{
	Use:   "git [args...]",
	Short: "Run the git safety pipeline for an argument vector",
	Long: `Run the full argument vector through the git safety pipeline:
subcommand extraction, the dangerous-subcommand policy check, and (for
commits) the duplicate-clone, dependency-change, large-file, large-commit
and secret-scan checks.

On proceed, the argument vector with all policy bypass flags stripped is
printed to stdout, one argument per line, for the interposition layer to
exec. Real git flags such as --force-with-lease pass through verbatim.
Exit code 0 means proceed; 1 means blocked with reasons on stderr.`,
	// The whole vector belongs to git; none of it is a cmdsafe flag.
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		res, err := a.pipeline.Run(cmd.Context(), args, cwd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			a.close(context.Background())
			os.Exit(2)
		}

		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, w)
		}

		if !res.Proceed {
			fmt.Fprintln(os.Stderr, strings.Join(res.Messages, "\n\n"))
			a.close(context.Background())
			os.Exit(1)
		}

		for _, arg := range gitsafe.StripBypassFlags(args, a.pipeline.BypassFlags()) {
			fmt.Println(arg)
		}
		a.close(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(gitCmd)
}
