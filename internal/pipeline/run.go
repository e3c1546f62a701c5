package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ghearing/internal/logging"
	"ghearing/internal/notifications"
	"ghearing/internal/recognition"
	"ghearing/internal/services"
	"ghearing/internal/store"
	"ghearing/internal/timecode"
)

// Run processes one upload. It never returns an error: failures are
// reported through Result.Success and Result.Message, and a job that
// exists is left completed or failed.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	result := emptyResult()
	start := time.Now()

	var size int64
	if info, err := os.Stat(req.SourcePath); err == nil {
		size = info.Size()
	} else {
		p.cleanupSource(req.SourcePath)
		result.Message = fmt.Sprintf("processing failed: source unavailable: %v", err)
		return result
	}

	job, err := p.store.CreateJob(ctx, store.NewJob{
		Title:    req.Title,
		FilePath: req.SourcePath,
		FileSize: size,
		OwnerID:  req.OwnerID,
	})
	if err != nil {
		p.cleanupSource(req.SourcePath)
		logging.ErrorWithContext(p.logger, "job registration failed", "job_create_failed",
			logging.String("source_file", req.SourcePath),
			logging.Error(err),
		)
		result.Message = fmt.Sprintf("processing failed: %v", err)
		return result
	}
	result.JobID = job.ID

	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, p.logger)
	runDir := filepath.Join(p.opts.WorkDir, "run-"+p.newRunID())
	defer p.cleanup(ctx, runDir, req.SourcePath)

	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("title", job.Title),
		logging.String("source_file", filepath.Base(req.SourcePath)),
		logging.Int64("file_size", size),
	)

	if err := p.process(ctx, job, req.SourcePath, runDir, &result); err != nil {
		p.handleFailure(ctx, job.ID, err, &result)
		p.notifyFailure(ctx, job, err)
		return result
	}

	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int("segments", result.SegmentsCount),
		logging.Int("recognized", result.SongsCount),
		logging.Int("unrecognized", result.UnrecognizedCount),
		logging.Duration("duration", time.Since(start)),
	)
	p.notifyCompleted(ctx, notifications.JobSummary{
		JobID:        job.ID,
		Title:        job.Title,
		Segments:     result.SegmentsCount,
		Songs:        result.SongsCount,
		Unrecognized: result.UnrecognizedCount,
		Duration:     time.Since(start),
	})
	return result
}

func (p *Pipeline) process(ctx context.Context, job *store.Job, sourcePath, runDir string, result *Result) error {
	audioPaths, err := p.extract(ctx, job.ID, sourcePath)
	if err != nil {
		return err
	}
	result.AudioPaths = audioPaths

	detected, err := p.detect(ctx, audioPaths)
	if err != nil {
		return err
	}
	result.Segments = detected
	result.SegmentsCount = len(detected)

	if len(detected) == 0 {
		zero := 0
		if err := p.store.UpdateJobStatus(ctx, job.ID, store.StatusCompleted, &zero, ""); err != nil {
			return fmt.Errorf("finalize job: %w", err)
		}
		result.Success = true
		result.Message = "no music detected"
		return nil
	}

	clips := p.cut(ctx, detected, runDir)
	recognized, err := p.identify(ctx, job.ID, clips)
	if err != nil {
		return err
	}
	result.Recognized = recognized
	result.SongsCount = len(recognized)
	result.UnrecognizedCount = len(detected) - len(recognized)

	unrecognized := result.UnrecognizedCount
	if err := p.store.UpdateJobStatus(ctx, job.ID, store.StatusCompleted, &unrecognized, ""); err != nil {
		return fmt.Errorf("finalize job: %w", err)
	}
	result.Success = true
	result.Message = fmt.Sprintf("%d songs recognized from %d segments", len(recognized), len(detected))
	return nil
}

func (p *Pipeline) extract(ctx context.Context, jobID int64, sourcePath string) ([]string, error) {
	ctx = services.WithStage(ctx, "extract")
	outDir := filepath.Join(p.opts.AudioDir, fmt.Sprintf("job-%d", jobID))
	extraction, err := p.audio.ExtractAudio(ctx, sourcePath, outDir)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	if err := p.store.SetJobAudio(ctx, jobID, extraction.Paths, extraction.DurationSeconds); err != nil {
		return nil, fmt.Errorf("record audio: %w", err)
	}
	logging.WithContext(ctx, p.logger).Info("audio extracted",
		logging.Int("files", len(extraction.Paths)),
		logging.Any("stream_indices", extraction.StreamIndices),
		logging.Float64("duration_seconds", extraction.DurationSeconds),
	)
	return extraction.Paths, nil
}

func (p *Pipeline) detect(ctx context.Context, audioPaths []string) ([]DetectedSegment, error) {
	ctx = services.WithStage(ctx, "detect")
	detected := []DetectedSegment{}
	for _, audioPath := range audioPaths {
		found, err := p.detector.Detect(ctx, audioPath)
		if err != nil {
			return nil, fmt.Errorf("detect segments: %w", err)
		}
		for _, seg := range found {
			detected = append(detected, DetectedSegment{
				Index:     len(detected) + 1,
				AudioPath: audioPath,
				Start:     seg.Start,
				End:       seg.End,
			})
		}
	}
	logging.WithContext(ctx, p.logger).Info("segments detected",
		logging.Int("files", len(audioPaths)),
		logging.Int("segments", len(detected)),
	)
	return detected, nil
}

// clip is a segment whose audio was cut successfully.
type clip struct {
	segment      DetectedSegment
	path         string
	startSeconds float64
}

func (p *Pipeline) cut(ctx context.Context, detected []DetectedSegment, runDir string) []clip {
	ctx = services.WithStage(ctx, "cut")
	logger := logging.WithContext(ctx, p.logger)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logging.WarnWithContext(logger, "run workspace unavailable", "workspace_unavailable",
			logging.String("path", runDir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "all segments treated as unrecognized"),
		)
		return nil
	}

	clips := make([]clip, 0, len(detected))
	for _, seg := range detected {
		start, startErr := timecode.ParseSeconds(seg.Start)
		end, endErr := timecode.ParseSeconds(seg.End)
		if err := errors.Join(startErr, endErr); err != nil {
			logging.WarnWithContext(logger, "segment skipped", "segment_unparsable",
				logging.Int("segment", seg.Index),
				logging.String("start", seg.Start),
				logging.String("end", seg.End),
				logging.Error(err),
				logging.String(logging.FieldImpact, "segment treated as unrecognized"),
			)
			continue
		}
		base := strings.TrimSuffix(filepath.Base(seg.AudioPath), filepath.Ext(seg.AudioPath))
		outPath := filepath.Join(runDir, fmt.Sprintf("segment_%02d_%s.mp3", seg.Index, base))
		written, err := p.audio.CutSegment(ctx, seg.AudioPath, start, end, outPath)
		if err != nil {
			logging.WarnWithContext(logger, "segment cut failed", "segment_cut_failed",
				logging.Int("segment", seg.Index),
				logging.String("start", seg.Start),
				logging.String("end", seg.End),
				logging.Error(err),
				logging.String(logging.FieldImpact, "segment treated as unrecognized"),
			)
			continue
		}
		clips = append(clips, clip{segment: seg, path: written, startSeconds: start})
	}
	logger.Info("segments cut", logging.Int("clips", len(clips)), logging.Int("segments", len(detected)))
	return clips
}

func (p *Pipeline) identify(ctx context.Context, jobID int64, clips []clip) ([]RecognizedSegment, error) {
	ctx = services.WithStage(ctx, "recognize")
	logger := logging.WithContext(ctx, p.logger)
	recognized := []RecognizedSegment{}
	if len(clips) == 0 {
		return recognized, nil
	}

	paths := make([]string, len(clips))
	for i, c := range clips {
		paths[i] = c.path
	}
	outcomes := p.recognizeAll(ctx, paths)

	for i, c := range clips {
		match, source, ok := p.resolve(ctx, c, outcomes[i])
		if !ok {
			attrs := logging.DecisionAttrs("segment_match", "unrecognized", "no artist and title from any service")
			attrs = append(attrs, logging.Int("segment", c.segment.Index))
			logger.Info("segment unrecognized", logging.Args(attrs...)...)
			continue
		}
		entry, err := p.persist(ctx, jobID, c, match, source)
		if err != nil {
			return recognized, err
		}
		logger.Info("segment recognized",
			logging.Int("segment", c.segment.Index),
			logging.String("artist", match.Artist),
			logging.String("title", match.Title),
			logging.String("source", string(source)),
		)
		recognized = append(recognized, entry)
	}
	return recognized, nil
}

func (p *Pipeline) recognizeAll(ctx context.Context, paths []string) []recognition.Outcome {
	if p.recognizer == nil || !p.recognizer.Available() {
		outcomes := make([]recognition.Outcome, len(paths))
		for i, path := range paths {
			outcomes[i] = recognition.Unmatched(path, nil)
		}
		return outcomes
	}
	outcomes := p.recognizer.RecognizeAll(ctx, paths)
	for len(outcomes) < len(paths) {
		outcomes = append(outcomes, recognition.Unmatched(paths[len(outcomes)], nil))
	}
	return outcomes
}

// resolve applies at most one fallback call per clip.
func (p *Pipeline) resolve(ctx context.Context, c clip, outcome recognition.Outcome) (recognition.Match, MatchSource, bool) {
	if match, ok := outcome.Match(); ok && match.Identified() {
		return match, SourceFingerprint, true
	}
	if p.describer == nil || !p.describer.Available() {
		return recognition.Match{}, "", false
	}
	match := p.describer.Describe(ctx, c.path)
	return match, SourceFallback, match.Identified()
}

func (p *Pipeline) persist(ctx context.Context, jobID int64, c clip, match recognition.Match, source MatchSource) (RecognizedSegment, error) {
	externalID := strings.TrimSpace(match.ExternalID)
	if externalID == "" {
		externalID = recognition.FingerprintKey(match.Artist, match.Title)
		match.ExternalID = externalID
	}
	track, err := p.store.UpsertTrack(ctx, store.TrackInput{
		ExternalID:   externalID,
		Title:        match.Title,
		Artist:       match.Artist,
		Album:        match.Album,
		ReleaseDate:  match.ReleaseDate,
		Label:        match.Label,
		SongLink:     match.SongLink,
		AppleMusicID: match.AppleMusicID,
		SpotifyID:    match.SpotifyID,
		Genres:       match.Genres,
		Keywords:     match.Keywords,
	})
	if err != nil {
		return RecognizedSegment{}, fmt.Errorf("save track: %w", err)
	}

	clipPath := ""
	if p.opts.RetainClips {
		clipPath = c.path
	}
	link, err := p.store.CreateTrackLink(ctx, store.LinkInput{
		JobID:        jobID,
		TrackID:      track.ID,
		StartTime:    c.segment.Start,
		EndTime:      c.segment.End,
		StartSeconds: c.startSeconds,
		ClipPath:     clipPath,
	})
	if err != nil {
		return RecognizedSegment{}, fmt.Errorf("save track link: %w", err)
	}
	return RecognizedSegment{
		Segment: c.segment,
		Clip:    clipPath,
		Source:  source,
		Match:   match,
		TrackID: track.ID,
		LinkID:  link.ID,
	}, nil
}
