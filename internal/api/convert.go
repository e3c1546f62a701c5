package api

import (
	"strings"
	"time"

	"ghearing/internal/describe"
	"ghearing/internal/pipeline"
	"ghearing/internal/recognition"
	"ghearing/internal/store"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// FromTrack converts a stored track.
func FromTrack(track store.Track) Track {
	return Track{
		ID:           track.ID,
		ExternalID:   track.ExternalID,
		Title:        track.Title,
		Artist:       track.Artist,
		Album:        track.Album,
		ReleaseDate:  track.ReleaseDate,
		Label:        track.Label,
		SongLink:     track.SongLink,
		AppleMusicID: track.AppleMusicID,
		SpotifyID:    track.SpotifyID,
		Genres:       nonNil(track.Genres),
		Keywords:     nonNil(track.Keywords),
		Generated:    strings.HasPrefix(track.ExternalID, describe.GeneratedIDPrefix),
	}
}

// FromTrackLink converts a stored link with its track.
func FromTrackLink(link store.TrackLink) TrackLink {
	return TrackLink{
		ID:        link.ID,
		StartTime: link.StartTime,
		EndTime:   link.EndTime,
		ClipPath:  link.ClipPath,
		CreatedAt: formatTime(link.CreatedAt),
		Track:     FromTrack(link.Track),
	}
}

// FromJob converts a stored job without links.
func FromJob(job *store.Job) Job {
	if job == nil {
		return Job{}
	}
	return Job{
		ID:                job.ID,
		Title:             job.Title,
		FilePath:          job.FilePath,
		AudioPaths:        nonNil(job.AudioPaths),
		DurationSeconds:   job.DurationSeconds,
		FileSize:          job.FileSize,
		OwnerID:           job.OwnerID,
		Status:            string(job.Status),
		UnrecognizedCount: job.UnrecognizedCount,
		ErrorMessage:      job.ErrorMessage,
		CreatedAt:         formatTime(job.CreatedAt),
		UpdatedAt:         formatTime(job.UpdatedAt),
	}
}

// FromJobDetail converts a job with its ordered links.
func FromJobDetail(detail store.JobDetail) Job {
	dto := FromJob(&detail.Job)
	dto.LinkCount = len(detail.Links)
	dto.Links = make([]TrackLink, 0, len(detail.Links))
	for _, link := range detail.Links {
		dto.Links = append(dto.Links, FromTrackLink(link))
	}
	return dto
}

// FromJobSummary converts a job with only its link count.
func FromJobSummary(summary store.JobSummary) Job {
	dto := FromJob(&summary.Job)
	dto.LinkCount = summary.LinkCount
	return dto
}

func fromMatch(m recognition.Match, trackID int64) Track {
	return Track{
		ID:           trackID,
		ExternalID:   m.ExternalID,
		Title:        m.Title,
		Artist:       m.Artist,
		Album:        m.Album,
		ReleaseDate:  m.ReleaseDate,
		Label:        m.Label,
		SongLink:     m.SongLink,
		AppleMusicID: m.AppleMusicID,
		SpotifyID:    m.SpotifyID,
		Genres:       nonNil(m.Genres),
		Keywords:     nonNil(m.Keywords),
		Generated:    strings.HasPrefix(m.ExternalID, describe.GeneratedIDPrefix),
	}
}

func fromSegment(seg pipeline.DetectedSegment) Segment {
	return Segment{Index: seg.Index, AudioPath: seg.AudioPath, Start: seg.Start, End: seg.End}
}

// FromResult converts a pipeline run result.
func FromResult(result pipeline.Result) ProcessResponse {
	resp := ProcessResponse{
		Success:           result.Success,
		Message:           result.Message,
		JobID:             result.JobID,
		Segments:          make([]Segment, 0, len(result.Segments)),
		RecognizedSongs:   make([]RecognizedSong, 0, len(result.Recognized)),
		SegmentsCount:     result.SegmentsCount,
		SongsCount:        result.SongsCount,
		UnrecognizedCount: result.UnrecognizedCount,
		AudioPaths:        nonNil(result.AudioPaths),
	}
	for _, seg := range result.Segments {
		resp.Segments = append(resp.Segments, fromSegment(seg))
	}
	for _, rec := range result.Recognized {
		resp.RecognizedSongs = append(resp.RecognizedSongs, RecognizedSong{
			Segment: fromSegment(rec.Segment),
			Source:  string(rec.Source),
			Track:   fromMatch(rec.Match, rec.TrackID),
		})
	}
	return resp
}

// FromTrackUsage converts usage rows.
func FromTrackUsage(usage []store.TrackUsage) []TopTrack {
	out := make([]TopTrack, 0, len(usage))
	for _, entry := range usage {
		out = append(out, TopTrack{Track: FromTrack(entry.Track), Uses: entry.Uses})
	}
	return out
}
