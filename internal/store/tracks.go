package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ghearing/internal/services"
)

// UpsertTrack inserts the track unless its external id already exists and
// returns the stored row. Existing metadata is never overwritten.
func (s *Store) UpsertTrack(ctx context.Context, input TrackInput) (*Track, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: track external id is required", services.ErrValidation)
	}
	genres, err := encodeList(input.Genres)
	if err != nil {
		return nil, fmt.Errorf("encode genres: %w", err)
	}
	keywords, err := encodeList(input.Keywords)
	if err != nil {
		return nil, fmt.Errorf("encode keywords: %w", err)
	}

	if _, err := s.execWithRetry(ctx,
		`INSERT INTO tracks (external_id, title, artist, album, release_date, label, song_link,
			apple_music_id, spotify_id, genres, keywords, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO NOTHING`,
		externalID,
		input.Title,
		input.Artist,
		nullableString(input.Album),
		nullableString(input.ReleaseDate),
		nullableString(input.Label),
		nullableString(input.SongLink),
		nullableString(input.AppleMusicID),
		nullableString(input.SpotifyID),
		genres,
		keywords,
		formatTime(time.Now()),
	); err != nil {
		return nil, fmt.Errorf("upsert track: %w", err)
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+trackColumns+" FROM tracks t WHERE t.external_id = ?", externalID)
	track, err := scanTrack(row)
	if err != nil {
		return nil, fmt.Errorf("load track %s: %w", externalID, err)
	}
	return track, nil
}

// CreateTrackLink records an occurrence of a track within a job.
func (s *Store) CreateTrackLink(ctx context.Context, input LinkInput) (*TrackLink, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO track_links (job_id, track_id, start_time, end_time, start_seconds, clip_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		input.JobID,
		input.TrackID,
		input.StartTime,
		input.EndTime,
		input.StartSeconds,
		nullableString(input.ClipPath),
		formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert track link: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("track link id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, linkSelect+" WHERE l.id = ?", id)
	return scanTrackLink(row)
}

const linkSelect = `SELECT l.id, l.job_id, l.track_id, l.start_time, l.end_time, l.start_seconds,
	l.clip_path, l.created_at, ` + trackColumns + `
	FROM track_links l JOIN tracks t ON t.id = l.track_id`

// ListTrackLinks returns a job's links ordered by start offset.
func (s *Store) ListTrackLinks(ctx context.Context, jobID int64) ([]TrackLink, error) {
	links, err := s.linksForJobs(ctx, []any{jobID})
	if err != nil {
		return nil, err
	}
	if links[jobID] == nil {
		return []TrackLink{}, nil
	}
	return links[jobID], nil
}

func (s *Store) linksForJobs(ctx context.Context, jobIDs []any) (map[int64][]TrackLink, error) {
	query := linkSelect + " WHERE l.job_id IN (" + makePlaceholders(len(jobIDs)) + ")" +
		" ORDER BY l.job_id, l.start_seconds, l.id"
	rows, err := s.db.QueryContext(ctx, query, jobIDs...)
	if err != nil {
		return nil, fmt.Errorf("list track links: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]TrackLink, len(jobIDs))
	for rows.Next() {
		link, err := scanTrackLink(rows)
		if err != nil {
			return nil, err
		}
		out[link.JobID] = append(out[link.JobID], *link)
	}
	return out, rows.Err()
}
