package api

import (
	"testing"
	"time"

	"ghearing/internal/pipeline"
	"ghearing/internal/recognition"
	"ghearing/internal/store"
)

func TestFromJobDetailCarriesLinks(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	detail := store.JobDetail{
		Job: store.Job{ID: 7, Title: "Show", Status: store.StatusCompleted, CreatedAt: created},
		Links: []store.TrackLink{{
			ID: 1, StartTime: "00:10", EndTime: "00:40",
			Track: store.Track{ID: 2, ExternalID: "GBUM71029604", Title: "Song", Artist: "Band"},
		}},
	}
	dto := FromJobDetail(detail)
	if dto.Status != "completed" || dto.LinkCount != 1 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if dto.CreatedAt != "2024-05-01T12:00:00.000Z" {
		t.Fatalf("unexpected timestamp %q", dto.CreatedAt)
	}
	if dto.AudioPaths == nil || dto.Links[0].Track.Genres == nil {
		t.Fatal("expected empty slices, not nil")
	}
	if dto.Links[0].Track.Generated {
		t.Fatal("ISRC track must not be flagged generated")
	}
}

func TestFromResultMapsRecognizedSongs(t *testing.T) {
	seg := pipeline.DetectedSegment{Index: 1, AudioPath: "/a.mp3", Start: "00:10", End: "00:40"}
	result := pipeline.Result{
		Success:       true,
		Segments:      []pipeline.DetectedSegment{seg},
		SegmentsCount: 1,
		SongsCount:    1,
		Recognized: []pipeline.RecognizedSegment{{
			Segment: seg,
			Source:  pipeline.SourceFallback,
			Match:   recognition.Match{Title: "T", Artist: "A", ExternalID: "GENERATED_abc"},
			TrackID: 9,
		}},
	}
	resp := FromResult(result)
	if len(resp.RecognizedSongs) != 1 {
		t.Fatalf("expected one song, got %d", len(resp.RecognizedSongs))
	}
	song := resp.RecognizedSongs[0]
	if song.Source != "fallback" || song.Track.ID != 9 || !song.Track.Generated {
		t.Fatalf("unexpected song: %+v", song)
	}
	if resp.AudioPaths == nil {
		t.Fatal("expected non-nil audio paths")
	}
}
