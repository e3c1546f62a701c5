package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Track describes a song in a transport-friendly format.
type Track struct {
	ID           int64    `json:"id"`
	ExternalID   string   `json:"externalId"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist"`
	Album        string   `json:"album,omitempty"`
	ReleaseDate  string   `json:"releaseDate,omitempty"`
	Label        string   `json:"label,omitempty"`
	SongLink     string   `json:"songLink,omitempty"`
	AppleMusicID string   `json:"appleMusicId,omitempty"`
	SpotifyID    string   `json:"spotifyId,omitempty"`
	Genres       []string `json:"genres"`
	Keywords     []string `json:"keywords"`
	Generated    bool     `json:"generated"`
}

// TrackLink is one timed occurrence of a track within a job.
type TrackLink struct {
	ID        int64  `json:"id"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	ClipPath  string `json:"clipPath,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	Track     Track  `json:"track"`
}

// Job describes a processing run.
type Job struct {
	ID                int64       `json:"id"`
	Title             string      `json:"title"`
	FilePath          string      `json:"filePath"`
	AudioPaths        []string    `json:"audioPaths"`
	DurationSeconds   float64     `json:"durationSeconds"`
	FileSize          int64       `json:"fileSize"`
	OwnerID           string      `json:"ownerId,omitempty"`
	Status            string      `json:"status"`
	UnrecognizedCount int         `json:"unrecognizedCount"`
	ErrorMessage      string      `json:"errorMessage,omitempty"`
	CreatedAt         string      `json:"createdAt,omitempty"`
	UpdatedAt         string      `json:"updatedAt,omitempty"`
	LinkCount         int         `json:"linkCount"`
	Links             []TrackLink `json:"links,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// ProcessRequest submits an upload for processing. Path is resolved
// against the upload directory and must stay inside it.
type ProcessRequest struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	OwnerID string `json:"ownerId"`
}

// Segment is a detected music range.
type Segment struct {
	Index     int    `json:"index"`
	AudioPath string `json:"audioPath"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// RecognizedSong is a segment with the song identified in it.
type RecognizedSong struct {
	Segment Segment `json:"segment"`
	Source  string  `json:"source"`
	Track   Track   `json:"track"`
}

// ProcessResponse reports a pipeline run.
type ProcessResponse struct {
	Success           bool             `json:"success"`
	Message           string           `json:"message"`
	JobID             int64            `json:"jobId,omitempty"`
	Segments          []Segment        `json:"segments"`
	RecognizedSongs   []RecognizedSong `json:"recognizedSongs"`
	SegmentsCount     int              `json:"segmentsCount"`
	SongsCount        int              `json:"songsCount"`
	UnrecognizedCount int              `json:"unrecognizedCount"`
	AudioPaths        []string         `json:"audioPaths"`
}

// TopTrack counts how often a track was linked.
type TopTrack struct {
	Track Track `json:"track"`
	Uses  int   `json:"uses"`
}

// TopTracksResponse wraps the most used tracks.
type TopTracksResponse struct {
	Tracks []TopTrack `json:"tracks"`
}

// RecentLinksResponse counts links created since a point in time.
type RecentLinksResponse struct {
	Since string `json:"since"`
	Count int    `json:"count"`
}

// HealthResponse reports server readiness.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
