package service

import (
	"fmt"
	"strings"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
)

// FormatDenial renders the user-facing message for a blocked invocation:
// severity, description, long-form guidance, the exact bypass flag that
// would allow the action, suggested safer alternatives, verification
// commands, and a documentation reference.
func FormatDenial(r rule.Rule) string {
	var b strings.Builder

	fmt.Fprintf(&b, "BLOCKED [%s] %s\n", strings.ToUpper(string(r.Severity)), r.Description)
	if r.Detail != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimRight(r.Detail, "\n"))
	}
	if len(r.Alternatives) > 0 {
		b.WriteString("\nSafer alternatives:\n")
		for _, alt := range r.Alternatives {
			fmt.Fprintf(&b, "  - %s\n", alt)
		}
	}
	if len(r.VerifyCommands) > 0 {
		b.WriteString("\nCheck first:\n")
		for _, v := range r.VerifyCommands {
			fmt.Fprintf(&b, "  - %s\n", v)
		}
	}
	if r.BypassFlag != "" {
		fmt.Fprintf(&b, "\nTo proceed anyway, re-run with %s (recorded to the audit log).\n", r.BypassFlag)
	}
	if r.DocsURL != "" {
		fmt.Fprintf(&b, "Docs: %s\n", r.DocsURL)
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatWarning renders the message for a warn rule. Warnings never change
// the verdict.
func FormatWarning(r rule.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "warning [%s] %s", r.Severity, r.Description)
	for _, alt := range r.Alternatives {
		fmt.Fprintf(&b, "\n  consider: %s", alt)
	}
	return b.String()
}
