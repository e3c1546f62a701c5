package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed width so stored timestamps compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t
	}
	return time.Time{}
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(raw string) []string {
	var values []string
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil || values == nil {
		return []string{}
	}
	return values
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

type scanner interface {
	Scan(dest ...any) error
}

const jobColumns = `id, title, file_path, audio_paths, duration_seconds, file_size, owner_id,
	status, unrecognized_count, error_message, created_at, updated_at`

func scanJob(row scanner) (*Job, error) {
	var (
		job          Job
		audioPaths   string
		ownerID      sql.NullString
		status       string
		errorMessage sql.NullString
		createdAt    string
		updatedAt    string
	)
	if err := row.Scan(
		&job.ID,
		&job.Title,
		&job.FilePath,
		&audioPaths,
		&job.DurationSeconds,
		&job.FileSize,
		&ownerID,
		&status,
		&job.UnrecognizedCount,
		&errorMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	job.AudioPaths = decodeList(audioPaths)
	job.OwnerID = ownerID.String
	job.Status = Status(status)
	job.ErrorMessage = errorMessage.String
	job.CreatedAt = parseTimeString(createdAt)
	job.UpdatedAt = parseTimeString(updatedAt)
	return &job, nil
}

const trackColumns = `t.id, t.external_id, t.title, t.artist, t.album, t.release_date, t.label,
	t.song_link, t.apple_music_id, t.spotify_id, t.genres, t.keywords, t.created_at`

func trackDest(track *Track, nulls *trackNulls) []any {
	return []any{
		&track.ID,
		&track.ExternalID,
		&track.Title,
		&track.Artist,
		&nulls.album,
		&nulls.releaseDate,
		&nulls.label,
		&nulls.songLink,
		&nulls.appleMusicID,
		&nulls.spotifyID,
		&nulls.genres,
		&nulls.keywords,
		&nulls.createdAt,
	}
}

type trackNulls struct {
	album        sql.NullString
	releaseDate  sql.NullString
	label        sql.NullString
	songLink     sql.NullString
	appleMusicID sql.NullString
	spotifyID    sql.NullString
	genres       string
	keywords     string
	createdAt    string
}

func (n *trackNulls) apply(track *Track) {
	track.Album = n.album.String
	track.ReleaseDate = n.releaseDate.String
	track.Label = n.label.String
	track.SongLink = n.songLink.String
	track.AppleMusicID = n.appleMusicID.String
	track.SpotifyID = n.spotifyID.String
	track.Genres = decodeList(n.genres)
	track.Keywords = decodeList(n.keywords)
	track.CreatedAt = parseTimeString(n.createdAt)
}

func scanTrack(row scanner) (*Track, error) {
	var (
		track Track
		nulls trackNulls
	)
	if err := row.Scan(trackDest(&track, &nulls)...); err != nil {
		return nil, err
	}
	nulls.apply(&track)
	return &track, nil
}

func scanTrackLink(row scanner) (*TrackLink, error) {
	var (
		link      TrackLink
		clipPath  sql.NullString
		createdAt string
		nulls     trackNulls
	)
	dest := []any{
		&link.ID,
		&link.JobID,
		&link.TrackID,
		&link.StartTime,
		&link.EndTime,
		&link.StartSeconds,
		&clipPath,
		&createdAt,
	}
	dest = append(dest, trackDest(&link.Track, &nulls)...)
	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan track link: %w", err)
	}
	nulls.apply(&link.Track)
	link.ClipPath = clipPath.String
	link.CreatedAt = parseTimeString(createdAt)
	return &link, nil
}
