package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"ghearing/internal/logging"
	"ghearing/internal/notifications"
	"ghearing/internal/recognition"
	"ghearing/internal/segments"
	"ghearing/internal/store"
	"ghearing/internal/testsupport"
	"ghearing/internal/transcode"
)

type fakeAudio struct {
	streams    int
	extractErr error
	failCuts   map[string]bool
	cuts       []string
}

func (f *fakeAudio) ExtractAudio(_ context.Context, path, outDir string) (transcode.Extraction, error) {
	if f.extractErr != nil {
		return transcode.Extraction{}, f.extractErr
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return transcode.Extraction{}, err
	}
	var out transcode.Extraction
	for i := 1; i <= f.streams; i++ {
		p := filepath.Join(outDir, fmt.Sprintf("show_a%d.mp3", i))
		if err := os.WriteFile(p, []byte("audio"), 0o644); err != nil {
			return transcode.Extraction{}, err
		}
		out.Paths = append(out.Paths, p)
		out.StreamIndices = append(out.StreamIndices, i)
	}
	out.DurationSeconds = 3600
	return out, nil
}

func (f *fakeAudio) CutSegment(_ context.Context, _ string, start, end float64, outPath string) (string, error) {
	key := fmt.Sprintf("%g-%g", start, end)
	if f.failCuts[key] {
		return "", transcode.ErrCutFailed
	}
	if err := os.WriteFile(outPath, []byte("clip"), 0o644); err != nil {
		return "", err
	}
	f.cuts = append(f.cuts, outPath)
	return outPath, nil
}

type fakeDetector struct {
	byFile map[string][]segments.Segment
	err    error
}

func (f *fakeDetector) Detect(_ context.Context, audioPath string) ([]segments.Segment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byFile[filepath.Base(audioPath)], nil
}

type fakeRecognizer struct {
	available bool
	matches   map[int]recognition.Match
	calls     int
}

func (f *fakeRecognizer) Available() bool { return f.available }

func (f *fakeRecognizer) RecognizeAll(_ context.Context, clips []string) []recognition.Outcome {
	f.calls++
	out := make([]recognition.Outcome, len(clips))
	for i, clip := range clips {
		if m, ok := f.matches[i]; ok {
			out[i] = recognition.Matched(clip, m)
			continue
		}
		out[i] = recognition.Unmatched(clip, errors.New("no match"))
	}
	return out
}

type fakeDescriber struct {
	available bool
	match     recognition.Match
	calls     int
}

func (f *fakeDescriber) Available() bool { return f.available }

func (f *fakeDescriber) Describe(context.Context, string) recognition.Match {
	f.calls++
	return f.match
}

type fakeNotifier struct {
	completed []notifications.JobSummary
	failed    []int64
	err       error
}

func (f *fakeNotifier) NotifyJobCompleted(_ context.Context, summary notifications.JobSummary) error {
	f.completed = append(f.completed, summary)
	return f.err
}

func (f *fakeNotifier) NotifyJobFailed(_ context.Context, jobID int64, _ string, _ error) error {
	f.failed = append(f.failed, jobID)
	return f.err
}

// flakyLinkStore fails CreateTrackLink on the given call number.
type flakyLinkStore struct {
	*store.Store
	failOn int
	calls  int
}

func (f *flakyLinkStore) CreateTrackLink(ctx context.Context, input store.LinkInput) (*store.TrackLink, error) {
	f.calls++
	if f.calls == f.failOn {
		return nil, errors.New("disk I/O error")
	}
	return f.Store.CreateTrackLink(ctx, input)
}

type harness struct {
	store    *store.Store
	pipeline *Pipeline
	source   string
	workDir  string
}

func newHarness(t *testing.T, audio *fakeAudio, detector *fakeDetector, rec *fakeRecognizer, desc *fakeDescriber, retain bool) harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	source := filepath.Join(cfg.Paths.UploadDir, "show.mxf")
	testsupport.WriteMedia(t, source, 2048)

	opts := OptionsFromConfig(cfg)
	opts.RetainClips = retain
	opts.RemoveSource = true
	p := New(opts, st, audio, detector, rec, desc, logging.NewNop())
	p.newRunID = func() string { return "fixed" }
	return harness{store: st, pipeline: p, source: source, workDir: cfg.Paths.WorkDir}
}

func TestRunRecognizesAndFallsBackOnce(t *testing.T) {
	audio := &fakeAudio{streams: 2}
	detector := &fakeDetector{byFile: map[string][]segments.Segment{
		"show_a1.mp3": {{Start: "00:01:00", End: "00:02:00"}, {Start: "00:05:00", End: "00:06:00"}},
		"show_a2.mp3": {{Start: "00:00:10", End: "00:00:40"}},
	}}
	rec := &fakeRecognizer{available: true, matches: map[int]recognition.Match{
		0: {Title: "Song", Artist: "Band", ExternalID: "GBUM71029604"},
		1: {Title: "", Artist: "Partial"},
	}}
	desc := &fakeDescriber{available: true, match: recognition.Match{
		Title: "Unidentified Track", Artist: "Unknown Artist", ExternalID: "GENERATED_x",
		Genres: []string{"Ambient"}, Keywords: []string{"calm"},
	}}
	h := newHarness(t, audio, detector, rec, desc, false)

	result := h.pipeline.Run(context.Background(), Request{SourcePath: h.source, Title: "Evening Show", OwnerID: "alice"})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.SegmentsCount != 3 || result.SongsCount != 3 || result.UnrecognizedCount != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if desc.calls != 2 {
		t.Fatalf("expected fallback for two clips, got %d", desc.calls)
	}
	if result.Recognized[0].Source != SourceFingerprint || result.Recognized[1].Source != SourceFallback {
		t.Fatalf("unexpected sources: %s, %s", result.Recognized[0].Source, result.Recognized[1].Source)
	}
	if result.Segments[2].AudioPath != result.AudioPaths[1] {
		t.Fatalf("expected detection order by file, got %+v", result.Segments)
	}

	job, err := h.store.GetJob(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != store.StatusCompleted || job.UnrecognizedCount != 0 || len(job.AudioPaths) != 2 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.DurationSeconds != 3600 || job.FileSize != 2048 {
		t.Fatalf("expected probed duration and file size, got %+v", job)
	}

	links, err := h.store.ListTrackLinks(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	if links[0].StartTime != "00:00:10" {
		t.Fatalf("expected links ordered by start, got %q first", links[0].StartTime)
	}
	for _, link := range links {
		if link.ClipPath != "" {
			t.Fatalf("expected no clip path without retention, got %q", link.ClipPath)
		}
	}

	if _, err := os.Stat(h.source); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.workDir, "run-fixed")); !os.IsNotExist(err) {
		t.Fatalf("expected run workspace removed, stat err %v", err)
	}
	for _, p := range result.AudioPaths {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected extracted audio retained: %v", err)
		}
	}
}

func TestRunCountsFailedCutsAsUnrecognized(t *testing.T) {
	audio := &fakeAudio{streams: 1, failCuts: map[string]bool{"60-120": true}}
	detector := &fakeDetector{byFile: map[string][]segments.Segment{
		"show_a1.mp3": {
			{Start: "01:00", End: "02:00"},
			{Start: "bogus", End: "03:00"},
			{Start: "04:00", End: "05:00"},
		},
	}}
	rec := &fakeRecognizer{available: true, matches: map[int]recognition.Match{
		0: {Title: "Song", Artist: "Band"},
	}}
	h := newHarness(t, audio, detector, rec, &fakeDescriber{}, false)

	result := h.pipeline.Run(context.Background(), Request{SourcePath: h.source})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.SegmentsCount != 3 || result.SongsCount != 1 || result.UnrecognizedCount != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(audio.cuts) != 1 {
		t.Fatalf("expected one clip cut, got %d", len(audio.cuts))
	}
	got := result.Recognized[0]
	if got.Segment.Start != "04:00" {
		t.Fatalf("expected surviving segment, got %+v", got.Segment)
	}
	if got.Match.ExternalID == "" || got.Match.ExternalID != recognition.FingerprintKey("Band", "Song") {
		t.Fatalf("expected fingerprint key, got %q", got.Match.ExternalID)
	}
}

func TestRunWithoutMusicCompletes(t *testing.T) {
	h := newHarness(t, &fakeAudio{streams: 1}, &fakeDetector{}, &fakeRecognizer{available: true}, &fakeDescriber{}, false)
	result := h.pipeline.Run(context.Background(), Request{SourcePath: h.source})
	if !result.Success || result.Message != "no music detected" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Segments == nil || result.Recognized == nil {
		t.Fatal("expected non-nil result slices")
	}
	job, _ := h.store.GetJob(context.Background(), result.JobID)
	if job.Status != store.StatusCompleted {
		t.Fatalf("expected completed job, got %s", job.Status)
	}
}

func TestRunMarksJobFailedOnExtraction(t *testing.T) {
	audio := &fakeAudio{extractErr: transcode.ErrInvalidContainer}
	h := newHarness(t, audio, &fakeDetector{}, &fakeRecognizer{}, &fakeDescriber{}, false)

	result := h.pipeline.Run(context.Background(), Request{SourcePath: h.source})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.JobID == 0 {
		t.Fatal("expected job id on failure")
	}
	job, _ := h.store.GetJob(context.Background(), result.JobID)
	if job.Status != store.StatusFailed || job.ErrorMessage == "" {
		t.Fatalf("expected failed job with message, got %+v", job)
	}
	if _, err := os.Stat(h.source); !os.IsNotExist(err) {
		t.Fatalf("expected source removed after failure, stat err %v", err)
	}
}

func TestRunMarksJobFailedOnPersistenceError(t *testing.T) {
	audio := &fakeAudio{streams: 1}
	detector := &fakeDetector{byFile: map[string][]segments.Segment{
		"show_a1.mp3": {{Start: "01:00", End: "02:00"}, {Start: "04:00", End: "05:00"}},
	}}
	rec := &fakeRecognizer{available: true, matches: map[int]recognition.Match{
		0: {Title: "First", Artist: "Band", ExternalID: "GBUM71029604"},
		1: {Title: "Second", Artist: "Band", ExternalID: "GBUM71029605"},
	}}
	h := newHarness(t, audio, detector, rec, &fakeDescriber{}, false)
	flaky := &flakyLinkStore{Store: h.store, failOn: 2}
	p := New(h.pipeline.opts, flaky, audio, detector, rec, &fakeDescriber{}, logging.NewNop())
	p.newRunID = func() string { return "fixed" }

	result := p.Run(context.Background(), Request{SourcePath: h.source})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.JobID == 0 {
		t.Fatal("expected job id on failure")
	}
	job, err := h.store.GetJob(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != store.StatusFailed || job.ErrorMessage == "" {
		t.Fatalf("expected failed job with message, got %+v", job)
	}
	links, err := h.store.ListTrackLinks(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected the first link to survive, got %d", len(links))
	}
}

func TestRunMarksJobFailedOnDetection(t *testing.T) {
	detector := &fakeDetector{err: segments.ErrDetectionFailed}
	rec := &fakeRecognizer{available: true}
	h := newHarness(t, &fakeAudio{streams: 1}, detector, rec, &fakeDescriber{}, false)

	result := h.pipeline.Run(context.Background(), Request{SourcePath: h.source})
	if result.Success {
		t.Fatal("expected failure")
	}
	if rec.calls != 0 {
		t.Fatal("recognition must not run after detection failure")
	}
	job, _ := h.store.GetJob(context.Background(), result.JobID)
	if job.Status != store.StatusFailed {
		t.Fatalf("expected failed job, got %s", job.Status)
	}
}

func TestRunUsesFallbackWhenFingerprintUnavailable(t *testing.T) {
	detector := &fakeDetector{byFile: map[string][]segments.Segment{
		"show_a1.mp3": {{Start: "00:10", End: "00:40"}},
	}}
	rec := &fakeRecognizer{available: false}
	desc := &fakeDescriber{available: true, match: recognition.Match{Title: "T", Artist: "A", ExternalID: "GENERATED_1"}}
	h := newHarness(t, &fakeAudio{streams: 1}, detector, rec, desc, true)

	result := h.pipeline.Run(context.Background(), Request{SourcePath: h.source})
	if !result.Success || result.SongsCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if rec.calls != 0 {
		t.Fatal("unavailable recognizer must not be called")
	}
	clipPath := result.Recognized[0].Clip
	if clipPath == "" {
		t.Fatal("expected retained clip path")
	}
	if _, err := os.Stat(clipPath); err != nil {
		t.Fatalf("expected retained clip on disk: %v", err)
	}
}

func TestRunWithMissingSourceCreatesNoJob(t *testing.T) {
	h := newHarness(t, &fakeAudio{streams: 1}, &fakeDetector{}, &fakeRecognizer{}, &fakeDescriber{}, false)
	result := h.pipeline.Run(context.Background(), Request{SourcePath: filepath.Join(t.TempDir(), "missing.mxf")})
	if result.Success || result.JobID != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	jobs, err := h.store.ListJobs(context.Background(), store.JobFilter{})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}

func TestRunNotifiesOnCompletionAndFailure(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("ntfy down")}
	h := newHarness(t, &fakeAudio{streams: 1}, &fakeDetector{}, &fakeRecognizer{available: true}, &fakeDescriber{}, false)
	h.pipeline.WithNotifier(notifier)

	result := h.pipeline.Run(context.Background(), Request{SourcePath: h.source, Title: "Quiet Hour"})
	if !result.Success {
		t.Fatalf("notification errors must not fail the job: %+v", result)
	}
	if len(notifier.completed) != 1 {
		t.Fatalf("expected one completion notification, got %d", len(notifier.completed))
	}
	if got := notifier.completed[0]; got.JobID != result.JobID || got.Title != "Quiet Hour" || got.Segments != 0 {
		t.Fatalf("unexpected summary: %+v", got)
	}

	failing := newHarness(t, &fakeAudio{extractErr: transcode.ErrInvalidContainer}, &fakeDetector{}, &fakeRecognizer{}, &fakeDescriber{}, false)
	failing.pipeline.WithNotifier(notifier)
	failed := failing.pipeline.Run(context.Background(), Request{SourcePath: failing.source})
	if failed.Success {
		t.Fatal("expected failure")
	}
	if len(notifier.failed) != 1 || notifier.failed[0] != failed.JobID {
		t.Fatalf("expected failure notification for job %d, got %v", failed.JobID, notifier.failed)
	}
}
