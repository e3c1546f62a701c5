// Package deps reports whether the external programs ghearing shells out to
// are installed, and which version each one reports.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"ghearing/internal/procexec"
)

// Requirement defines an external program the pipeline invokes.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are run to capture the first output line.
	VersionArgs []string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// A nil runner skips version probing.
func CheckBinaries(ctx context.Context, runner procexec.Runner, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		if runner != nil && len(req.VersionArgs) > 0 {
			stdout, stderr, err := runner.Run(ctx, resolved, req.VersionArgs...)
			if err != nil {
				status.Detail = fmt.Sprintf("version probe failed: %v", err)
			} else {
				status.Version = firstLine(stdout)
				if status.Version == "" {
					status.Version = firstLine(stderr)
				}
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			out = append(out, status)
		}
	}
	return out
}

func firstLine(output []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
