// Package store persists jobs, tracks, and track links in SQLite.
//
// A Job is one processing run over an uploaded media file. A Track is a
// distinct song keyed by its external identifier (ISRC, fingerprint key, or
// generated identifier) and shared across jobs. A TrackLink records one
// detected occurrence of a Track inside a Job with its time range.
//
// The database uses WAL journaling, enforces foreign keys, and retries writes
// that hit SQLITE_BUSY with exponential backoff. Job status only moves from
// processing to a terminal state; UpdateJobStatus rejects anything else.
package store
