// Package describe asks a generative audio model to describe clips the
// fingerprint service could not identify.
//
// Describe never fails: every error path yields a placeholder Match. All
// identifiers carry the GENERATED_ prefix so they never collide with an ISRC
// or a fingerprint key.
package describe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ghearing/internal/config"
	"ghearing/internal/logging"
	"ghearing/internal/recognition"
	"ghearing/internal/services/llm"
)

const (
	// GeneratedIDPrefix marks identifiers minted for model-described clips.
	GeneratedIDPrefix = "GENERATED_"

	PlaceholderTitle  = "Unidentified Track"
	PlaceholderArtist = "Unknown Artist"
)

var (
	defaultGenres   = []string{"unknown"}
	defaultKeywords = []string{"unidentified", "audio"}
	failureKeywords = []string{"error", "unprocessed"}
)

// Completer is the subset of the LLM client used by the describer.
type Completer interface {
	CompleteWithAudio(ctx context.Context, instruction string, audio []byte, format string) (string, error)
}

// Describer produces best-effort metadata for unidentified clips.
type Describer struct {
	client  Completer
	enabled bool
	logger  *slog.Logger
	newID   func() string
}

// New constructs a Describer. enabled gates Available; a nil client makes
// every call return the placeholder.
func New(client Completer, enabled bool, logger *slog.Logger) *Describer {
	return &Describer{
		client:  client,
		enabled: enabled,
		logger:  logging.NewComponentLogger(logger, "describe"),
		newID:   func() string { return GeneratedIDPrefix + uuid.NewString() },
	}
}

// NewFromConfig wires the describer to the configured chat completion endpoint.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Describer {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.Fallback.APIKey,
		BaseURL:        cfg.Fallback.BaseURL,
		Model:          cfg.Fallback.Model,
		Referer:        cfg.Fallback.Referer,
		Title:          cfg.Fallback.Title,
		TimeoutSeconds: cfg.Fallback.TimeoutSeconds,
	})
	return New(client, cfg.FallbackEnabled(), logger)
}

// Available reports whether the fallback is enabled and has a client.
func (d *Describer) Available() bool {
	return d != nil && d.enabled && d.client != nil
}

type modelReply struct {
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Album       *string  `json:"album"`
	ReleaseDate *string  `json:"releaseDate"`
	Label       *string  `json:"label"`
	SongLink    *string  `json:"songLink"`
	ISRC        string   `json:"isrc"`
	Genre       []string `json:"genre"`
	KeyWords    []string `json:"keyWords"`
}

// Describe returns model-supplied metadata for clipPath, or a placeholder
// when the model cannot be reached or its reply cannot be parsed.
func (d *Describer) Describe(ctx context.Context, clipPath string) recognition.Match {
	logger := logging.WithContext(ctx, d.logger).With(logging.String("clip", filepath.Base(clipPath)))
	if !d.Available() {
		return d.placeholder(defaultKeywords)
	}

	audio, err := os.ReadFile(clipPath)
	if err != nil {
		d.warn(logger, "read clip", err)
		return d.placeholder(failureKeywords)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(clipPath)), ".")

	content, err := d.client.CompleteWithAudio(ctx, instructionPrompt, audio, format)
	if err != nil {
		d.warn(logger, "call model", err)
		return d.placeholder(failureKeywords)
	}

	var reply modelReply
	if err := llm.DecodeLLMJSON(content, &reply); err != nil {
		d.warn(logger, "parse reply", err)
		return d.placeholder(defaultKeywords)
	}

	match := recognition.Match{
		Title:       firstNonBlank(reply.Title, PlaceholderTitle),
		Artist:      firstNonBlank(reply.Artist, PlaceholderArtist),
		Album:       deref(reply.Album),
		ReleaseDate: deref(reply.ReleaseDate),
		Label:       deref(reply.Label),
		SongLink:    deref(reply.SongLink),
		ExternalID:  strings.TrimSpace(reply.ISRC),
		Genres:      cleanList(reply.Genre),
		Keywords:    cleanList(reply.KeyWords),
	}
	if !strings.HasPrefix(match.ExternalID, GeneratedIDPrefix) {
		match.ExternalID = d.newID()
	}
	if len(match.Genres) == 0 {
		match.Genres = append([]string(nil), defaultGenres...)
	}
	if len(match.Keywords) == 0 {
		match.Keywords = append([]string(nil), defaultKeywords...)
	}

	logger.Info("clip described by fallback model",
		logging.String("artist", match.Artist),
		logging.String("title", match.Title),
		logging.String("external_id", match.ExternalID),
	)
	return match
}

func (d *Describer) placeholder(keywords []string) recognition.Match {
	return recognition.Match{
		Title:      PlaceholderTitle,
		Artist:     PlaceholderArtist,
		ExternalID: d.newID(),
		Genres:     append([]string(nil), defaultGenres...),
		Keywords:   append([]string(nil), keywords...),
	}
}

func (d *Describer) warn(logger *slog.Logger, step string, err error) {
	logging.WarnWithContext(logger, fmt.Sprintf("fallback description failed: %s", step), "fallback_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check fallback.api_key and fallback.model"),
		logging.String(logging.FieldImpact, "clip stored with placeholder metadata"),
	)
}

func firstNonBlank(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
