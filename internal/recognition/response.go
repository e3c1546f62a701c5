package recognition

import (
	"encoding/json"
	"fmt"
	"strings"
)

type apiResponse struct {
	Status string     `json:"status"`
	Result *apiResult `json:"result"`
	Error  *apiError  `json:"error"`
}

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_message"`
}

type apiResult struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	Label       string `json:"label"`
	SongLink    string `json:"song_link"`
	ISRC        string `json:"isrc"`
	AppleMusic  *struct {
		ISRC       string   `json:"isrc"`
		URL        string   `json:"url"`
		GenreNames []string `json:"genreNames"`
		PlayParams *struct {
			ID string `json:"id"`
		} `json:"playParams"`
	} `json:"apple_music"`
	Spotify *struct {
		ID          string `json:"id"`
		ExternalIDs *struct {
			ISRC string `json:"isrc"`
		} `json:"external_ids"`
	} `json:"spotify"`
	Deezer *struct {
		ISRC string `json:"isrc"`
	} `json:"deezer"`
}

// decodeResponse returns ok=false for a successful reply without a match.
func decodeResponse(payload []byte) (Match, bool, error) {
	var resp apiResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Match{}, false, fmt.Errorf("decode reply: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(resp.Status)) {
	case "success":
	case "error":
		if resp.Error != nil {
			return Match{}, false, fmt.Errorf("service error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return Match{}, false, fmt.Errorf("service reported an error")
	default:
		return Match{}, false, fmt.Errorf("unexpected status %q", resp.Status)
	}
	if resp.Result == nil {
		return Match{}, false, nil
	}

	r := resp.Result
	match := Match{
		Title:       strings.TrimSpace(r.Title),
		Artist:      strings.TrimSpace(r.Artist),
		Album:       strings.TrimSpace(r.Album),
		ReleaseDate: strings.TrimSpace(r.ReleaseDate),
		Label:       strings.TrimSpace(r.Label),
		SongLink:    strings.TrimSpace(r.SongLink),
	}
	if match.Title == "" && match.Artist == "" {
		return Match{}, false, nil
	}
	if r.AppleMusic != nil {
		if r.AppleMusic.PlayParams != nil {
			match.AppleMusicID = r.AppleMusic.PlayParams.ID
		}
		match.Genres = append(match.Genres, r.AppleMusic.GenreNames...)
	}
	if r.Spotify != nil {
		match.SpotifyID = r.Spotify.ID
	}
	match.ExternalID = extractISRC(r)
	if match.ExternalID == "" {
		match.ExternalID = FingerprintKey(match.Artist, match.Title)
	}
	return match, true, nil
}

func extractISRC(r *apiResult) string {
	candidates := []string{r.ISRC}
	if r.AppleMusic != nil {
		candidates = append(candidates, r.AppleMusic.ISRC)
	}
	if r.Spotify != nil && r.Spotify.ExternalIDs != nil {
		candidates = append(candidates, r.Spotify.ExternalIDs.ISRC)
	}
	if r.Deezer != nil {
		candidates = append(candidates, r.Deezer.ISRC)
	}
	for _, candidate := range candidates {
		if trimmed := strings.ToUpper(strings.TrimSpace(candidate)); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
