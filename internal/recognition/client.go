package recognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ghearing/internal/config"
	"ghearing/internal/logging"
	"ghearing/internal/services"
)

// ErrRecognitionCall covers transport failures, error replies, and undecodable payloads.
var ErrRecognitionCall = errors.New("recognition call failed")

const maxErrorBody = 2048

// Options configures the fingerprint client.
type Options struct {
	APIToken        string
	BaseURL         string
	Timeout         time.Duration
	RequestDelay    time.Duration
	ReturnPlatforms string
}

// OptionsFromConfig maps the recognition section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		APIToken:        cfg.Recognition.APIToken,
		BaseURL:         cfg.Recognition.BaseURL,
		Timeout:         time.Duration(cfg.Recognition.TimeoutSeconds) * time.Second,
		RequestDelay:    time.Duration(cfg.Recognition.RequestDelayMS) * time.Millisecond,
		ReturnPlatforms: cfg.Recognition.ReturnPlatforms,
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides the inter-request delay function, used by tests.
func WithSleeper(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// Client talks to the fingerprint service.
type Client struct {
	opts       Options
	httpClient *http.Client
	sleep      func(context.Context, time.Duration) error
	logger     *slog.Logger
}

// NewClient constructs a Client.
func NewClient(opts Options, logger *slog.Logger, options ...Option) *Client {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = "https://api.audd.io/"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if strings.TrimSpace(opts.ReturnPlatforms) == "" {
		opts.ReturnPlatforms = "apple_music,spotify"
	}
	c := &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		sleep:      sleepContext,
		logger:     logging.NewComponentLogger(logger, "recognition"),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Available reports whether an API token is configured.
func (c *Client) Available() bool {
	return c != nil && strings.TrimSpace(c.opts.APIToken) != ""
}

// Recognize uploads clipPath and interprets the reply.
func (c *Client) Recognize(ctx context.Context, clipPath string) (Outcome, error) {
	body, contentType, err := c.buildForm(clipPath)
	if err != nil {
		return Outcome{}, services.Wrap(ErrRecognitionCall, "recognition", "build request", filepath.Base(clipPath), err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL, body)
	if err != nil {
		return Outcome{}, services.Wrap(ErrRecognitionCall, "recognition", "build request", "", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", services.ErrTimeout, err)
		}
		return Outcome{}, services.Wrap(ErrRecognitionCall, "recognition", "send request", filepath.Base(clipPath), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, services.Wrap(ErrRecognitionCall, "recognition", "read response", "", err)
	}
	if resp.StatusCode >= 300 {
		return Outcome{}, services.Wrap(ErrRecognitionCall, "recognition", "send request",
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(payload)), nil)
	}

	match, ok, err := decodeResponse(payload)
	if err != nil {
		return Outcome{}, services.Wrap(ErrRecognitionCall, "recognition", "decode response", filepath.Base(clipPath), err)
	}
	if !ok {
		return Unmatched(clipPath, nil), nil
	}
	return Matched(clipPath, match), nil
}

// RecognizeAll processes clips sequentially, waiting RequestDelay between
// calls. Failures are logged and reported as Unmatched outcomes carrying the
// error; the slice always has one entry per clip.
func (c *Client) RecognizeAll(ctx context.Context, clips []string) []Outcome {
	outcomes := make([]Outcome, 0, len(clips))
	for i, clip := range clips {
		if i > 0 && c.opts.RequestDelay > 0 {
			if err := c.sleep(ctx, c.opts.RequestDelay); err != nil {
				for _, rest := range clips[i:] {
					outcomes = append(outcomes, Unmatched(rest, err))
				}
				return outcomes
			}
		}
		outcome, err := c.Recognize(ctx, clip)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, c.logger), "recognition failed", "recognition_failed",
				logging.String("clip", filepath.Base(clip)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check recognition.api_token and service availability"),
				logging.String(logging.FieldImpact, "clip treated as unrecognized"),
			)
			outcomes = append(outcomes, Unmatched(clip, err))
			continue
		}
		if m, ok := outcome.Match(); ok {
			c.logger.Debug("clip recognized",
				logging.String("clip", filepath.Base(clip)),
				logging.String("artist", m.Artist),
				logging.String("title", m.Title),
			)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (c *Client) buildForm(clipPath string) (io.Reader, string, error) {
	file, err := os.Open(clipPath)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("api_token", c.opts.APIToken); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("return", c.opts.ReturnPlatforms); err != nil {
		return nil, "", err
	}
	part, err := writer.CreateFormFile("file", filepath.Base(clipPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(payload []byte) string {
	text := strings.TrimSpace(string(payload))
	if len(text) > maxErrorBody {
		return text[:maxErrorBody] + "..."
	}
	return text
}
