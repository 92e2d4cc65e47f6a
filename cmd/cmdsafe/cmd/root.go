// Package cmd provides the CLI commands for cmdsafe.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmdsafe/cmdsafe/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cmdsafe",
	Short: "cmdsafe - command interposition and policy enforcement",
	Long: `cmdsafe intercepts invocations of risky commands (package managers,
destructive file operations, git) before they reach the real executable,
matches them against a declarative rule set, and blocks, warns, or allows
them.

The shell interposition layer calls cmdsafe; exit code 0 means run the
real command, non-zero means it was blocked and the reason was printed.

Configuration:
  Config is loaded from cmdsafe.yaml in the current directory,
  $HOME/.cmdsafe/, or /etc/cmdsafe/.

  Environment variables override config values with the CMDSAFE_ prefix.
  Example: CMDSAFE_WORKSPACE_ROOT=~/code

Commands:
  eval        Evaluate one command invocation against the rule set
  git         Run the git safety pipeline for an argument vector
  rules       Inspect the loaded rule set
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./cmdsafe.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
