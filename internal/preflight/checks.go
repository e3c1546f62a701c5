package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"ghearing/internal/config"
	"ghearing/internal/deps"
	"ghearing/internal/procexec"
	"ghearing/internal/services/llm"
)

// CheckLLM verifies that the fallback LLM API is reachable and the key is
// valid. It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.Fallback) Result {
	if !cfg.Enabled {
		return Result{Name: name, Skipped: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckRecognition verifies the fingerprint endpoint answers HTTP. The
// token itself is only validated by a real recognition call.
func CheckRecognition(ctx context.Context, cfg config.Recognition) Result {
	const name = "Fingerprint service"

	if strings.TrimSpace(cfg.APIToken) == "" {
		return Result{Name: name, Skipped: true, Detail: "API token missing (fallback only)"}
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api token)"}
	case resp.StatusCode >= http.StatusInternalServerError:
		return Result{Name: name, Detail: fmt.Sprintf("service error (%d)", resp.StatusCode)}
	default:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFile verifies that a regular file exists and is readable. A blank
// path is skipped.
func CheckFile(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Skipped: true, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates the programs the pipeline shells out to.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, runner procexec.Runner) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Transcode.FFmpegBinary,
			Description: "Required for audio extraction and cutting",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Transcode.FFprobeBinary,
			Description: "Required for stream inspection",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "Segment detector",
			Command:     cfg.Detector.Command,
			Description: "Runs the music segment detector",
			VersionArgs: []string{"--version"},
		},
	}
	return deps.CheckBinaries(ctx, runner, requirements)
}

// summarizeNetError produces a human-readable summary for health check failures.
func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
