// Package procexec runs external tools behind a small interface so adapters
// can be exercised with fakes in tests and the engines swapped without
// touching callers.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a command and returns its captured output streams.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. A non-zero exit is reported as an error that
// includes the trimmed stderr tail.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("%s: %w", name, ctxErr)
		}
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("%s: %w%s", name, err, tail(stderr.String()))
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

// ExitCode extracts the process exit code from an error returned by Run.
// It returns -1 when the error does not carry one.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

const maxStderrTail = 512

func tail(stderr string) string {
	trimmed := strings.TrimSpace(stderr)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) > maxStderrTail {
		trimmed = "..." + trimmed[len(trimmed)-maxStderrTail:]
	}
	return "\n" + trimmed
}
