package pipeline

import "ghearing/internal/recognition"

// Request identifies the upload to process.
type Request struct {
	SourcePath string
	Title      string
	OwnerID    string
}

// MatchSource records which service produced a match.
type MatchSource string

const (
	SourceFingerprint MatchSource = "fingerprint"
	SourceFallback    MatchSource = "fallback"
)

// DetectedSegment is one detector range with the audio file it came from.
type DetectedSegment struct {
	Index     int    `json:"index"`
	AudioPath string `json:"audio_path"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// RecognizedSegment is a persisted identification.
type RecognizedSegment struct {
	Segment DetectedSegment   `json:"segment"`
	Clip    string            `json:"clip,omitempty"`
	Source  MatchSource       `json:"source"`
	Match   recognition.Match `json:"match"`
	TrackID int64             `json:"track_id"`
	LinkID  int64             `json:"link_id"`
}

// Result summarizes a run. Segments and Recognized are never nil.
type Result struct {
	Success           bool                `json:"success"`
	Message           string              `json:"message"`
	JobID             int64               `json:"job_id,omitempty"`
	Segments          []DetectedSegment   `json:"segments"`
	Recognized        []RecognizedSegment `json:"recognized"`
	SegmentsCount     int                 `json:"segments_count"`
	SongsCount        int                 `json:"songs_count"`
	UnrecognizedCount int                 `json:"unrecognized_count"`
	AudioPaths        []string            `json:"audio_paths"`
}

func emptyResult() Result {
	return Result{
		Segments:   []DetectedSegment{},
		Recognized: []RecognizedSegment{},
		AudioPaths: []string{},
	}
}
