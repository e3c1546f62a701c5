// Package edl renders a job's track links as a CMX3600-style edit decision
// list and writes it to the export directory.
package edl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ghearing/internal/config"
	"ghearing/internal/logging"
	"ghearing/internal/services"
	"ghearing/internal/store"
	"ghearing/internal/textutil"
	"ghearing/internal/timecode"
)

// ErrNoData is returned when a job has no track links to export.
var ErrNoData = fmt.Errorf("%w: no track links to export", services.ErrNotFound)

const (
	DefaultReelName   = "TONE:_1000_HZ_@_-20.0_DB.1"
	DefaultTrackLabel = "A4"
	DefaultBaseHours  = 1
)

// Options controls rendering. A blank Title uses the job title. A zero
// Options (apart from Title) renders with DefaultOptions.
type Options struct {
	FPS int
	// BaseHours is the hour offset added to every timecode. Once any other
	// field is set, 0 means no offset.
	BaseHours  int
	ReelName   string
	TrackLabel string
	Title      string
}

// DefaultOptions returns 25 fps starting at 01:00:00:00.
func DefaultOptions() Options {
	return Options{
		FPS:        timecode.DefaultFPS,
		BaseHours:  DefaultBaseHours,
		ReelName:   DefaultReelName,
		TrackLabel: DefaultTrackLabel,
	}
}

// OptionsFromConfig maps the export section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FPS:        cfg.Export.FPS,
		BaseHours:  cfg.Export.BaseHours,
		ReelName:   cfg.Export.ReelName,
		TrackLabel: cfg.Export.TrackLabel,
	}
}

func (o Options) withDefaults() Options {
	if (o == Options{Title: o.Title}) {
		defaults := DefaultOptions()
		defaults.Title = o.Title
		return defaults
	}
	if o.FPS <= 0 {
		o.FPS = timecode.DefaultFPS
	}
	if o.BaseHours < 0 {
		o.BaseHours = DefaultBaseHours
	}
	if strings.TrimSpace(o.ReelName) == "" {
		o.ReelName = DefaultReelName
	}
	if strings.TrimSpace(o.TrackLabel) == "" {
		o.TrackLabel = DefaultTrackLabel
	}
	return o
}

// Entry is one edit: a time range and the song that plays in it.
type Entry struct {
	StartSeconds float64
	EndSeconds   float64
	Artist       string
	Title        string
}

// Render produces the EDL text. Source and record timecodes are identical.
func Render(title string, entries []Entry, opts Options) string {
	opts = opts.withDefaults()
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", title)
	b.WriteString("FCM: NON-DROP FRAME\n\n")
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		in := timecode.SecondsToTimecode(entry.StartSeconds, opts.FPS, opts.BaseHours)
		out := timecode.SecondsToTimecode(entry.EndSeconds, opts.FPS, opts.BaseHours)
		fmt.Fprintf(&b, "%06d %s %s     C        %s %s %s %s\n",
			i+1, opts.ReelName, opts.TrackLabel, in, out, in, out)
		fmt.Fprintf(&b, "* FROM CLIP NAME: %s\n", textutil.ClipName(entry.Artist, entry.Title))
	}
	return b.String()
}

// LinkReader is the read-only store surface the exporter needs.
type LinkReader interface {
	GetJob(ctx context.Context, id int64) (*store.Job, error)
	ListTrackLinks(ctx context.Context, jobID int64) ([]store.TrackLink, error)
}

// Exporter writes EDL files for stored jobs.
type Exporter struct {
	reader    LinkReader
	exportDir string
	logger    *slog.Logger
	now       func() time.Time
}

// NewExporter constructs an Exporter writing into exportDir.
func NewExporter(reader LinkReader, exportDir string, logger *slog.Logger) *Exporter {
	return &Exporter{
		reader:    reader,
		exportDir: exportDir,
		logger:    logging.NewComponentLogger(logger, "edl"),
		now:       time.Now,
	}
}

// Export renders the job's links ordered by start and returns the written
// file path. Nothing in the store is modified.
func (e *Exporter) Export(ctx context.Context, jobID int64, opts Options) (string, error) {
	job, err := e.reader.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	links, err := e.reader.ListTrackLinks(ctx, jobID)
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "", fmt.Errorf("job %d: %w", jobID, ErrNoData)
	}

	entries := make([]Entry, 0, len(links))
	for _, link := range links {
		start, err := timecode.ParseSeconds(link.StartTime)
		if err != nil {
			return "", fmt.Errorf("link %d start: %w", link.ID, err)
		}
		end, err := timecode.ParseSeconds(link.EndTime)
		if err != nil {
			return "", fmt.Errorf("link %d end: %w", link.ID, err)
		}
		entries = append(entries, Entry{
			StartSeconds: start,
			EndSeconds:   end,
			Artist:       link.Track.Artist,
			Title:        link.Track.Title,
		})
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = textutil.SanitizeFileName(job.Title)
		if title == "" {
			title = fmt.Sprintf("job_%d", jobID)
		}
		title += ".edl"
	}
	content := Render(title, entries, opts)

	if err := os.MkdirAll(e.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("job_%d_music_edl_%d.edl", jobID, e.now().UnixMilli())
	path := filepath.Join(e.exportDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write edl: %w", err)
	}
	logging.WithContext(services.WithJobID(ctx, jobID), e.logger).Info("edl exported",
		logging.String("path", path),
		logging.Int("entries", len(entries)),
	)
	return path, nil
}
