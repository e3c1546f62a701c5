package store

import "time"

// Status is the lifecycle state of a job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status ends the job lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusProcessing || s.Terminal()
}

// NewJob carries the fields needed to register an upload.
type NewJob struct {
	Title    string
	FilePath string
	FileSize int64
	OwnerID  string
}

// Job is a persisted processing run.
type Job struct {
	ID                int64
	Title             string
	FilePath          string
	AudioPaths        []string
	DurationSeconds   float64
	FileSize          int64
	OwnerID           string
	Status            Status
	UnrecognizedCount int
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TrackInput describes a track to upsert.
type TrackInput struct {
	ExternalID   string
	Title        string
	Artist       string
	Album        string
	ReleaseDate  string
	Label        string
	SongLink     string
	AppleMusicID string
	SpotifyID    string
	Genres       []string
	Keywords     []string
}

// Track is a distinct song shared across jobs.
type Track struct {
	ID           int64
	ExternalID   string
	Title        string
	Artist       string
	Album        string
	ReleaseDate  string
	Label        string
	SongLink     string
	AppleMusicID string
	SpotifyID    string
	Genres       []string
	Keywords     []string
	CreatedAt    time.Time
}

// LinkInput describes one occurrence of a track within a job.
type LinkInput struct {
	JobID        int64
	TrackID      int64
	StartTime    string
	EndTime      string
	StartSeconds float64
	ClipPath     string
}

// TrackLink is a persisted occurrence with its track.
type TrackLink struct {
	ID           int64
	JobID        int64
	TrackID      int64
	StartTime    string
	EndTime      string
	StartSeconds float64
	ClipPath     string
	CreatedAt    time.Time
	Track        Track
}

// JobDetail is a job with its ordered track links.
type JobDetail struct {
	Job
	Links []TrackLink
}

// JobSummary is a job with its link count.
type JobSummary struct {
	Job
	LinkCount int
}

// JobFilter narrows job listings. An empty OwnerID lists every job.
type JobFilter struct {
	OwnerID string
}

// TrackUsage counts links per track.
type TrackUsage struct {
	Track Track
	Uses  int
}
