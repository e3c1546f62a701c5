// Package api defines the wire-format types, converters, and the echo HTTP
// server that expose jobs, track links, EDL export, and usage metrics.
//
// # Key Types
//
// Job: transport representation of a processing run with its track links.
//
// Track / TrackLink: a song and one timed occurrence of it within a job.
//
// ProcessResponse: the outcome of a synchronous pipeline run.
//
// # Converters
//
// FromJob, FromJobDetail, FromJobSummary, FromTrack, FromTrackLink,
// FromResult, FromTrackUsage map store and pipeline values onto DTOs.
//
// # Server
//
// Server registers the /api routes on echo, guards them with an optional
// static bearer token, tags every request with a request id, and holds a
// file lock in the data directory so only one server runs per database.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers.
// Timestamps use RFC3339 with milliseconds. Error responses are
// {"error": "..."} with the status chosen from services.Kind.
package api
