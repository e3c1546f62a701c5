// Package transcode extracts audio streams from uploaded media and cuts
// time ranges out of extracted audio using ffmpeg and ffprobe.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"ghearing/internal/config"
	"ghearing/internal/logging"
	"ghearing/internal/media/ffprobe"
	"ghearing/internal/procexec"
	"ghearing/internal/services"
)

var (
	// ErrProbe indicates ffprobe failed or returned unusable output.
	ErrProbe = errors.New("probe failed")
	// ErrInvalidContainer indicates the audio stream layout matches no extraction policy.
	ErrInvalidContainer = errors.New("unsupported audio stream layout")
	// ErrExtractFailed indicates ffmpeg could not write an audio stream.
	ErrExtractFailed = errors.New("audio extraction failed")
	// ErrInvalidRange indicates a cut with start < 0 or end <= start.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrCutFailed indicates both the stream copy and re-encode attempts failed.
	ErrCutFailed = errors.New("cut failed")
)

// Stream identifies an audio or video stream by absolute container index.
type Stream struct {
	Index     int
	CodecType string
}

// Probe summarizes a media file.
type Probe struct {
	Streams         []Stream
	DurationSeconds float64
}

// Extraction lists the audio files written by ExtractAudio in stream order.
type Extraction struct {
	Paths           []string
	StreamIndices   []int
	DurationSeconds float64
}

// Options configures the transcoder.
type Options struct {
	FFmpegBinary      string
	FFprobeBinary     string
	DualStreamIndices [2]int
	AudioBitrate      string
	SampleRate        int
}

// OptionsFromConfig maps the transcode section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		FFmpegBinary:      cfg.Transcode.FFmpegBinary,
		FFprobeBinary:     cfg.Transcode.FFprobeBinary,
		DualStreamIndices: [2]int{1, 2},
		AudioBitrate:      cfg.Transcode.AudioBitrate,
		SampleRate:        cfg.Transcode.SampleRate,
	}
	if len(cfg.Transcode.DualStreamIndices) == 2 {
		opts.DualStreamIndices = [2]int{cfg.Transcode.DualStreamIndices[0], cfg.Transcode.DualStreamIndices[1]}
	}
	return opts
}

// Transcoder wraps ffmpeg and ffprobe invocations.
type Transcoder struct {
	opts   Options
	runner procexec.Runner
	logger *slog.Logger
}

// New constructs a Transcoder. A nil runner uses os/exec.
func New(opts Options, runner procexec.Runner, logger *slog.Logger) *Transcoder {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(opts.FFprobeBinary) == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	if strings.TrimSpace(opts.AudioBitrate) == "" {
		opts.AudioBitrate = "192k"
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.DualStreamIndices == [2]int{} {
		opts.DualStreamIndices = [2]int{1, 2}
	}
	if runner == nil {
		runner = procexec.ExecRunner{}
	}
	return &Transcoder{opts: opts, runner: runner, logger: logging.NewComponentLogger(logger, "transcode")}
}

// ProbeStreams lists the streams of path with their absolute indices.
func (t *Transcoder) ProbeStreams(ctx context.Context, path string) (Probe, error) {
	result, err := ffprobe.Inspect(ctx, t.runner, t.opts.FFprobeBinary, path)
	if err != nil {
		return Probe{}, services.Wrap(ErrProbe, "transcode", "probe", filepath.Base(path), err)
	}
	probe := Probe{DurationSeconds: result.DurationSeconds()}
	for _, stream := range result.Streams {
		probe.Streams = append(probe.Streams, Stream{Index: stream.Index, CodecType: strings.ToLower(stream.CodecType)})
	}
	return probe, nil
}

// SelectAudioStreams applies the extraction policy: a single audio stream is
// taken as is; otherwise both configured indices must carry audio.
func (t *Transcoder) SelectAudioStreams(probe Probe) ([]int, error) {
	var audio []int
	for _, stream := range probe.Streams {
		if stream.CodecType == "audio" {
			audio = append(audio, stream.Index)
		}
	}
	if len(audio) == 1 {
		return audio, nil
	}
	first, second := t.opts.DualStreamIndices[0], t.opts.DualStreamIndices[1]
	if slices.Contains(audio, first) && slices.Contains(audio, second) {
		return []int{first, second}, nil
	}
	return nil, fmt.Errorf("%w: %d audio stream(s) %v, want 1 or indices %d and %d", ErrInvalidContainer, len(audio), audio, first, second)
}

// ExtractAudio writes one mp3 per selected audio stream into outDir. Any
// failure removes files already written so no partial extraction survives.
func (t *Transcoder) ExtractAudio(ctx context.Context, path, outDir string) (Extraction, error) {
	probe, err := t.ProbeStreams(ctx, path)
	if err != nil {
		return Extraction{}, err
	}
	indices, err := t.SelectAudioStreams(probe)
	if err != nil {
		return Extraction{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Extraction{}, services.Wrap(ErrExtractFailed, "transcode", "create output dir", outDir, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	extraction := Extraction{DurationSeconds: probe.DurationSeconds}
	for _, index := range indices {
		outPath := filepath.Join(outDir, fmt.Sprintf("%s_a%d.mp3", base, index))
		args := []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", path,
			"-map", "0:" + strconv.Itoa(index),
			"-vn",
			"-acodec", "libmp3lame",
			"-b:a", t.opts.AudioBitrate,
			"-ar", strconv.Itoa(t.opts.SampleRate),
			outPath,
		}
		if _, _, err := t.runner.Run(ctx, t.opts.FFmpegBinary, args...); err != nil {
			removeAll(extraction.Paths)
			_ = os.Remove(outPath)
			// Only removes outDir when nothing else lives there.
			_ = os.Remove(outDir)
			return Extraction{}, services.Wrap(ErrExtractFailed, "transcode", "extract audio", fmt.Sprintf("stream %d", index), err)
		}
		extraction.Paths = append(extraction.Paths, outPath)
		extraction.StreamIndices = append(extraction.StreamIndices, index)
	}

	t.logger.Info("audio extracted",
		logging.String("source", filepath.Base(path)),
		logging.Int("streams", len(extraction.Paths)),
		logging.Float64("duration_seconds", extraction.DurationSeconds),
	)
	return extraction, nil
}

// CutSegment writes [start, end) of audioPath to outPath. A stream copy is
// attempted first; on failure the range is re-encoded once.
func (t *Transcoder) CutSegment(ctx context.Context, audioPath string, start, end float64, outPath string) (string, error) {
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: start=%.3f end=%.3f", ErrInvalidRange, start, end)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", services.Wrap(ErrCutFailed, "transcode", "create clip dir", filepath.Dir(outPath), err)
	}

	common := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", audioPath,
	}
	copyArgs := append(append([]string{}, common...), "-c:a", "copy", outPath)
	_, _, err := t.runner.Run(ctx, t.opts.FFmpegBinary, copyArgs...)
	if err == nil {
		return outPath, nil
	}
	t.logger.Debug("stream copy cut failed; re-encoding",
		logging.String("clip", filepath.Base(outPath)),
		logging.Error(err),
	)

	encodeArgs := append(append([]string{}, common...),
		"-acodec", "libmp3lame",
		"-b:a", t.opts.AudioBitrate,
		"-ar", strconv.Itoa(t.opts.SampleRate),
		outPath,
	)
	if _, _, err := t.runner.Run(ctx, t.opts.FFmpegBinary, encodeArgs...); err != nil {
		_ = os.Remove(outPath)
		return "", services.Wrap(ErrCutFailed, "transcode", "cut segment", filepath.Base(outPath), err)
	}
	return outPath, nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func removeAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
