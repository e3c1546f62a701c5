package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ghearing/internal/services"
)

// ErrNotFound is returned when a job does not exist.
var ErrNotFound = fmt.Errorf("job %w", services.ErrNotFound)

// ErrInvalidTransition is returned when a status update would leave a
// terminal state or target a non-terminal one.
var ErrInvalidTransition = fmt.Errorf("%w: invalid job status transition", services.ErrValidation)

func jobNotFound(id int64) error {
	return fmt.Errorf("job %d: %w", id, ErrNotFound)
}

// CreateJob inserts a job in the processing state.
func (s *Store) CreateJob(ctx context.Context, input NewJob) (*Job, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(input.FilePath), filepath.Ext(input.FilePath))
	}
	if strings.TrimSpace(input.FilePath) == "" {
		return nil, fmt.Errorf("%w: job file path is required", services.ErrValidation)
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (title, file_path, audio_paths, file_size, owner_id, status, created_at, updated_at)
		 VALUES (?, ?, '[]', ?, ?, ?, ?, ?)`,
		title,
		input.FilePath,
		input.FileSize,
		nullableString(input.OwnerID),
		string(StatusProcessing),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("job id: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a job by id.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jobNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// SetJobAudio records the extracted audio files and the probed duration.
func (s *Store) SetJobAudio(ctx context.Context, id int64, paths []string, durationSeconds float64) error {
	encoded, err := encodeList(paths)
	if err != nil {
		return fmt.Errorf("encode audio paths: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		"UPDATE jobs SET audio_paths = ?, duration_seconds = ?, updated_at = ? WHERE id = ?",
		encoded, durationSeconds, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set job audio: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return jobNotFound(id)
	}
	return nil
}

// UpdateJobStatus moves a processing job to a terminal status. A nil
// unrecognized leaves the stored count unchanged.
func (s *Store) UpdateJobStatus(ctx context.Context, id int64, status Status, unrecognized *int, message string) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: target %q", ErrInvalidTransition, status)
	}
	query := "UPDATE jobs SET status = ?, error_message = ?, updated_at = ?"
	args := []any{string(status), nullableString(message), formatTime(time.Now())}
	if unrecognized != nil {
		query += ", unrecognized_count = ?"
		args = append(args, *unrecognized)
	}
	query += " WHERE id = ? AND status = ?"
	args = append(args, id, string(StatusProcessing))

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	current, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: job %d is %s", ErrInvalidTransition, id, current.Status)
}

// ListJobs returns jobs newest first with their links and tracks.
func (s *Store) ListJobs(ctx context.Context, filter JobFilter) ([]JobDetail, error) {
	jobs, err := s.listJobs(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return []JobDetail{}, nil
	}
	ids := make([]any, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	links, err := s.linksForJobs(ctx, ids)
	if err != nil {
		return nil, err
	}
	details := make([]JobDetail, 0, len(jobs))
	for _, job := range jobs {
		jobLinks := links[job.ID]
		if jobLinks == nil {
			jobLinks = []TrackLink{}
		}
		details = append(details, JobDetail{Job: *job, Links: jobLinks})
	}
	return details, nil
}

// ListJobSummaries returns jobs newest first with link counts only.
func (s *Store) ListJobSummaries(ctx context.Context, filter JobFilter) ([]JobSummary, error) {
	query := "SELECT " + prefixed("j.", jobColumns) + `, COUNT(l.id)
		FROM jobs j LEFT JOIN track_links l ON l.job_id = j.id`
	var args []any
	if filter.OwnerID != "" {
		query += " WHERE j.owner_id = ?"
		args = append(args, filter.OwnerID)
	}
	query += " GROUP BY j.id ORDER BY j.created_at DESC, j.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list job summaries: %w", err)
	}
	defer rows.Close()

	summaries := []JobSummary{}
	for rows.Next() {
		var count int
		job, err := scanJob(summaryScanner{rows: rows, count: &count})
		if err != nil {
			return nil, fmt.Errorf("scan job summary: %w", err)
		}
		summaries = append(summaries, JobSummary{Job: *job, LinkCount: count})
	}
	return summaries, rows.Err()
}

// summaryScanner appends the link count destination to a job scan.
type summaryScanner struct {
	rows  *sql.Rows
	count *int
}

func (s summaryScanner) Scan(dest ...any) error {
	return s.rows.Scan(append(dest, s.count)...)
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = prefix + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func (s *Store) listJobs(ctx context.Context, filter JobFilter) ([]*Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs"
	var args []any
	if filter.OwnerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, filter.OwnerID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// GetJobDetail fetches a job with its ordered links.
func (s *Store) GetJobDetail(ctx context.Context, id int64) (*JobDetail, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := s.ListTrackLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	return &JobDetail{Job: *job, Links: links}, nil
}

// DeleteJob removes the job's media files and then the job row. Links go
// with the row; tracks are kept for other jobs.
func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	links, err := s.ListTrackLinks(ctx, id)
	if err != nil {
		return err
	}

	files := append([]string{job.FilePath}, job.AudioPaths...)
	for _, link := range links {
		if link.ClipPath != "" {
			files = append(files, link.ClipPath)
		}
	}
	for _, path := range files {
		if err := removeFile(path); err != nil {
			return fmt.Errorf("delete job %d media: %w", id, err)
		}
	}
	for _, path := range job.AudioPaths {
		// The per-job audio directory goes once it is empty.
		if dir := filepath.Dir(path); strings.HasPrefix(filepath.Base(dir), "job-") {
			_ = os.Remove(dir)
		}
	}

	res, err := s.execWithRetry(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return jobNotFound(id)
	}
	return nil
}

func removeFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
