package preflight

import (
	"context"
	"fmt"
	"strings"

	"ghearing/internal/config"
	"ghearing/internal/deps"
	"ghearing/internal/procexec"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// RunAll executes every applicable check. Network checks run only when
// includeServices is set.
func RunAll(ctx context.Context, cfg *config.Config, runner procexec.Runner, includeServices bool) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckDirectories(cfg)
	for _, status := range CheckSystemDeps(ctx, cfg, runner) {
		results = append(results, fromStatus(status))
	}
	results = append(results, CheckFile("Detector script", cfg.Detector.Script))

	if !includeServices {
		return results
	}
	results = append(results, CheckRecognition(ctx, cfg.Recognition))
	results = append(results, CheckLLM(ctx, "Fallback LLM", cfg.Fallback))
	return results
}

// CheckDirectories verifies every configured working directory.
func CheckDirectories(cfg *config.Config) []Result {
	dirs := []struct {
		name string
		path string
	}{
		{"Data directory", cfg.Paths.DataDir},
		{"Upload directory", cfg.Paths.UploadDir},
		{"Audio directory", cfg.Paths.AudioDir},
		{"Work directory", cfg.Paths.WorkDir},
		{"Export directory", cfg.Paths.ExportDir},
		{"Log directory", cfg.Paths.LogDir},
	}
	results := make([]Result, 0, len(dirs))
	for _, dir := range dirs {
		results = append(results, CheckDirectoryAccess(dir.name, dir.path))
	}
	return results
}

// Failed returns the checks that neither passed nor were skipped.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}

func fromStatus(status deps.Status) Result {
	detail := status.Command
	if status.Version != "" {
		detail = fmt.Sprintf("%s (%s)", status.Command, status.Version)
	}
	if !status.Available {
		detail = status.Detail
	} else if status.Detail != "" {
		detail = strings.TrimSpace(detail + "; " + status.Detail)
	}
	return Result{
		Name:    status.Name,
		Passed:  status.Available,
		Skipped: !status.Available && status.Optional,
		Detail:  detail,
	}
}
