package gitsafe

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// ScanOutcome is the result of a secret scan over the staged changeset.
type ScanOutcome struct {
	Clean bool
	// Report holds the scanner's findings output when not clean.
	Report string
}

// SecretScanner runs an external secret scanner over the pending change.
type SecretScanner interface {
	// Available reports whether the scanner binary can be found.
	Available() bool
	// Scan scans the staged changeset in dir. ErrScannerUnavailable
	// (including on timeout) means the result must degrade to a hint,
	// never to a deny.
	Scan(ctx context.Context, dir string) (ScanOutcome, error)
}

// ErrScannerUnavailable marks a missing, broken, or timed-out scanner.
var ErrScannerUnavailable = errors.New("secret scanner unavailable")

// GitleaksScanner shells out to gitleaks over the staged changeset.
type GitleaksScanner struct {
	// Command is the binary name, normally "gitleaks".
	Command string
	// Timeout bounds one scan; expiry degrades to unavailable.
	Timeout time.Duration
}

// leaksExitCode is the exit code gitleaks is told to use for findings, so
// findings are distinguishable from scanner failures.
const leaksExitCode = 9

// Available implements SecretScanner.
func (s GitleaksScanner) Available() bool {
	_, err := exec.LookPath(s.Command)
	return err == nil
}

// Scan implements SecretScanner.
func (s GitleaksScanner) Scan(ctx context.Context, dir string) (ScanOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.Command,
		"protect", "--staged", "--no-banner", "--redact",
		"--exit-code", "9")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()

	if ctx.Err() != nil {
		return ScanOutcome{}, ErrScannerUnavailable
	}
	if err == nil {
		return ScanOutcome{Clean: true}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == leaksExitCode {
		return ScanOutcome{Clean: false, Report: string(out)}, nil
	}

	// Any other failure mode counts as unavailable, never as a deny.
	return ScanOutcome{}, ErrScannerUnavailable
}

var _ SecretScanner = GitleaksScanner{}
