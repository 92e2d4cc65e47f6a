package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rulesOutput string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the loaded rule set",
}

// ruleSummary is the yaml shape for rules list output.
type ruleSummary struct {
	ID           string   `yaml:"id"`
	Command      string   `yaml:"command"`
	Action       string   `yaml:"action"`
	Severity     string   `yaml:"severity"`
	BypassFlag   string   `yaml:"bypass_flag,omitempty"`
	ExemptFlags  []string `yaml:"exempt_flags,omitempty"`
	Context      string   `yaml:"context,omitempty"`
	Description  string   `yaml:"description,omitempty"`
	Alternatives []string `yaml:"alternatives,omitempty"`
	DocsURL      string   `yaml:"docs_url,omitempty"`
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered rule in registration order",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := buildApp()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		all := a.policy.Registry().All()

		if rulesOutput == "yaml" {
			summaries := make([]ruleSummary, 0, len(all))
			for _, r := range all {
				summaries = append(summaries, ruleSummary{
					ID:           r.ID,
					Command:      r.Command,
					Action:       string(r.Action),
					Severity:     string(r.Severity),
					BypassFlag:   r.BypassFlag,
					ExemptFlags:  r.ExemptFlags,
					Context:      r.Context,
					Description:  r.Description,
					Alternatives: r.Alternatives,
					DocsURL:      r.DocsURL,
				})
			}
			out, err := yaml.Marshal(summaries)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			fmt.Print(string(out))
			return
		}

		for _, r := range all {
			bypass := ""
			if r.BypassFlag != "" {
				bypass = "  bypass: " + r.BypassFlag
			}
			fmt.Printf("%-26s %-8s %-8s %-10s %s%s\n",
				r.ID, r.Command, r.Action, r.Severity, r.Description, bypass)
		}
	},
}

func init() {
	rulesListCmd.Flags().StringVarP(&rulesOutput, "output", "o", "text", "output format: text or yaml")
	rulesCmd.AddCommand(rulesListCmd)
	rootCmd.AddCommand(rulesCmd)
}
