package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"ghearing/internal/config"
	"ghearing/internal/describe"
	"ghearing/internal/logging"
	"ghearing/internal/notifications"
	"ghearing/internal/procexec"
	"ghearing/internal/recognition"
	"ghearing/internal/segments"
	"ghearing/internal/store"
	"ghearing/internal/transcode"
)

// JobStore is the persistence surface the pipeline writes through.
type JobStore interface {
	CreateJob(ctx context.Context, input store.NewJob) (*store.Job, error)
	SetJobAudio(ctx context.Context, id int64, paths []string, durationSeconds float64) error
	UpdateJobStatus(ctx context.Context, id int64, status store.Status, unrecognized *int, message string) error
	UpsertTrack(ctx context.Context, input store.TrackInput) (*store.Track, error)
	CreateTrackLink(ctx context.Context, input store.LinkInput) (*store.TrackLink, error)
}

// AudioTool extracts audio streams and cuts clips.
type AudioTool interface {
	ExtractAudio(ctx context.Context, path, outDir string) (transcode.Extraction, error)
	CutSegment(ctx context.Context, audioPath string, start, end float64, outPath string) (string, error)
}

// SegmentDetector finds music ranges in an audio file.
type SegmentDetector interface {
	Detect(ctx context.Context, audioPath string) ([]segments.Segment, error)
}

// Recognizer identifies clips with the fingerprint service.
type Recognizer interface {
	Available() bool
	RecognizeAll(ctx context.Context, clips []string) []recognition.Outcome
}

// Describer is the generative fallback. Describe never fails.
type Describer interface {
	Available() bool
	Describe(ctx context.Context, clipPath string) recognition.Match
}

// Notifier announces finished jobs. Errors are logged and ignored.
type Notifier interface {
	NotifyJobCompleted(ctx context.Context, summary notifications.JobSummary) error
	NotifyJobFailed(ctx context.Context, jobID int64, title string, err error) error
}

// Options controls where a run writes and what it keeps.
type Options struct {
	AudioDir     string
	WorkDir      string
	RetainClips  bool
	RemoveSource bool
}

// OptionsFromConfig maps paths and pipeline settings onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AudioDir:     cfg.Paths.AudioDir,
		WorkDir:      cfg.Paths.WorkDir,
		RetainClips:  cfg.Pipeline.RetainClips,
		RemoveSource: cfg.Pipeline.RemoveSource,
	}
}

// Pipeline wires the adapters together.
type Pipeline struct {
	opts       Options
	store      JobStore
	audio      AudioTool
	detector   SegmentDetector
	recognizer Recognizer
	describer  Describer
	notifier   Notifier
	logger     *slog.Logger
	newRunID   func() string
}

// New constructs a Pipeline from explicit collaborators.
func New(opts Options, st JobStore, audio AudioTool, detector SegmentDetector, recognizer Recognizer, describer Describer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		opts:       opts,
		store:      st,
		audio:      audio,
		detector:   detector,
		recognizer: recognizer,
		describer:  describer,
		notifier:   notifications.Noop(),
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		newRunID:   uuid.NewString,
	}
}

// NewFromConfig builds the production pipeline backed by ffmpeg, the
// configured detector, and the configured HTTP services.
func NewFromConfig(cfg *config.Config, st JobStore, logger *slog.Logger) *Pipeline {
	runner := procexec.ExecRunner{}
	p := New(
		OptionsFromConfig(cfg),
		st,
		transcode.New(transcode.OptionsFromConfig(cfg), runner, logger),
		segments.NewDetector(segments.OptionsFromConfig(cfg), runner, logger),
		recognition.NewClient(recognition.OptionsFromConfig(cfg), logger),
		describe.NewFromConfig(cfg, logger),
		logger,
	)
	return p.WithNotifier(notifications.NewService(cfg))
}

// WithNotifier replaces the notifier. A nil notifier disables notifications.
func (p *Pipeline) WithNotifier(n Notifier) *Pipeline {
	if n == nil {
		n = notifications.Noop()
	}
	p.notifier = n
	return p
}
