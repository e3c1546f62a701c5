package recognition

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FingerprintKeyPrefix marks identifiers synthesized for matches without an ISRC.
const FingerprintKeyPrefix = "FP_"

// Match is the metadata of an identified song.
type Match struct {
	Title        string   `json:"title"`
	Artist       string   `json:"artist"`
	Album        string   `json:"album,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	Label        string   `json:"label,omitempty"`
	ExternalID   string   `json:"external_id"`
	SongLink     string   `json:"song_link,omitempty"`
	AppleMusicID string   `json:"apple_music_id,omitempty"`
	SpotifyID    string   `json:"spotify_id,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// Identified reports whether both artist and title are present.
func (m Match) Identified() bool {
	return strings.TrimSpace(m.Artist) != "" && strings.TrimSpace(m.Title) != ""
}

// Outcome is the tagged result of one recognition attempt.
type Outcome struct {
	match *Match
	Clip  string
	Err   error
}

// Matched builds a successful outcome.
func Matched(clip string, m Match) Outcome {
	return Outcome{match: &m, Clip: clip}
}

// Unmatched builds an outcome without a match; err is set when the attempt failed.
func Unmatched(clip string, err error) Outcome {
	return Outcome{Clip: clip, Err: err}
}

// Matched reports whether a song was identified.
func (o Outcome) Matched() bool {
	return o.match != nil
}

// Match returns the identified song and true, or a zero Match and false.
func (o Outcome) Match() (Match, bool) {
	if o.match == nil {
		return Match{}, false
	}
	return *o.match, true
}

// FingerprintKey derives a stable identifier from artist and title so the
// same song de-duplicates even when the service returns no ISRC.
func FingerprintKey(artist, title string) string {
	normalized := strings.ToLower(strings.TrimSpace(artist)) + "|" + strings.ToLower(strings.TrimSpace(title))
	sum := sha256.Sum256([]byte(normalized))
	return FingerprintKeyPrefix + hex.EncodeToString(sum[:])[:16]
}
