package store

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultTopTracksLimit = 10
	MaxTopTracksLimit     = 100
)

// ClampTopTracksLimit maps out-of-range limits onto the default or the cap.
func ClampTopTracksLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultTopTracksLimit
	case limit > MaxTopTracksLimit:
		return MaxTopTracksLimit
	default:
		return limit
	}
}

// TopTracks returns the most linked tracks, most used first.
func (s *Store) TopTracks(ctx context.Context, limit int) ([]TrackUsage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+trackColumns+`, COUNT(l.id) AS uses
		 FROM track_links l JOIN tracks t ON t.id = l.track_id
		 GROUP BY t.id
		 ORDER BY uses DESC, t.id ASC
		 LIMIT ?`,
		ClampTopTracksLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("top tracks: %w", err)
	}
	defer rows.Close()

	usage := []TrackUsage{}
	for rows.Next() {
		var (
			entry TrackUsage
			nulls trackNulls
		)
		dest := append(trackDest(&entry.Track, &nulls), &entry.Uses)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan top track: %w", err)
		}
		nulls.apply(&entry.Track)
		usage = append(usage, entry)
	}
	return usage, rows.Err()
}

// CountLinksSince counts track links created at or after since.
func (s *Store) CountLinksSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM track_links WHERE created_at >= ?",
		formatTime(since),
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recent links: %w", err)
	}
	return count, nil
}
