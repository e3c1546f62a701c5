// Package segments runs the external music segment detector and parses the
// time ranges it reports.
package segments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"ghearing/internal/config"
	"ghearing/internal/logging"
	"ghearing/internal/procexec"
	"ghearing/internal/services"
)

// ErrDetectionFailed covers non-zero exits and unparsable detector output.
var ErrDetectionFailed = errors.New("segment detection failed")

// Segment is a detected music range expressed as the detector's timestamp strings.
type Segment struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Options configures the detector invocation.
type Options struct {
	Command     string
	Script      string
	Sensitivity string
}

// OptionsFromConfig maps the detector section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Command:     cfg.Detector.Command,
		Script:      cfg.Detector.Script,
		Sensitivity: cfg.Detector.Sensitivity,
	}
}

// Detector invokes `<command> <script> <audio> <sensitivity>`.
type Detector struct {
	opts   Options
	runner procexec.Runner
	logger *slog.Logger
}

// NewDetector constructs a Detector. A nil runner uses os/exec.
func NewDetector(opts Options, runner procexec.Runner, logger *slog.Logger) *Detector {
	if strings.TrimSpace(opts.Command) == "" {
		opts.Command = "python3"
	}
	if strings.TrimSpace(opts.Sensitivity) == "" {
		opts.Sensitivity = "medium"
	}
	if runner == nil {
		runner = procexec.ExecRunner{}
	}
	return &Detector{opts: opts, runner: runner, logger: logging.NewComponentLogger(logger, "segments")}
}

// Detect returns the music segments of audioPath in detector order.
func (d *Detector) Detect(ctx context.Context, audioPath string) ([]Segment, error) {
	args := make([]string, 0, 3)
	if d.opts.Script != "" {
		args = append(args, d.opts.Script)
	}
	args = append(args, audioPath, d.opts.Sensitivity)

	stdout, _, err := d.runner.Run(ctx, d.opts.Command, args...)
	if err != nil {
		return nil, services.Wrap(ErrDetectionFailed, "segments", "run detector", filepath.Base(audioPath), err)
	}
	segments, err := Parse(string(stdout))
	if err != nil {
		return nil, services.Wrap(ErrDetectionFailed, "segments", "parse output", filepath.Base(audioPath), err)
	}
	d.logger.Info("segments detected",
		logging.String("audio", filepath.Base(audioPath)),
		logging.Int("count", len(segments)),
	)
	return segments, nil
}

var segmentsLine = regexp.MustCompile(`SEGMENTS:\s*(\[.*\])`)

// Parse extracts the SEGMENTS: payload from detector output. Single-quoted
// lists are accepted.
func Parse(output string) ([]Segment, error) {
	match := segmentsLine.FindStringSubmatch(output)
	if match == nil {
		return nil, errors.New("SEGMENTS marker not found in detector output")
	}
	payload := strings.ReplaceAll(match[1], "'", `"`)

	var pairs [][]any
	if err := json.Unmarshal([]byte(payload), &pairs); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}

	segments := make([]Segment, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("segment %d: expected [start, end], got %d values", i+1, len(pair))
		}
		start, okStart := pair[0].(string)
		end, okEnd := pair[1].(string)
		if !okStart || !okEnd {
			return nil, fmt.Errorf("segment %d: start and end must be strings", i+1)
		}
		segments = append(segments, Segment{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)})
	}
	return segments, nil
}
