// cmdsafe intercepts invocations of risky commands, matches them against a
// declarative rule set, and blocks, warns, or allows them. The shell-level
// interposition layer calls into this binary; it never executes the real
// command itself.
package main

import "github.com/cmdsafe/cmdsafe/cmd/cmdsafe/cmd"

func main() {
	cmd.Execute()
}
