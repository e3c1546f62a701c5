package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ghearing/internal/config"
)

const userAgent = "ghearing/0.1.0"

// JobSummary is the subset of a finished job a notification reports.
type JobSummary struct {
	JobID        int64
	Title        string
	Segments     int
	Songs        int
	Unrecognized int
	Duration     time.Duration
}

// Service defines the notification surface used by the pipeline.
type Service interface {
	NotifyJobCompleted(ctx context.Context, summary JobSummary) error
	NotifyJobFailed(ctx context.Context, jobID int64, title string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Noop()
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, summary JobSummary) error {
	title := displayTitle(summary.JobID, summary.Title)

	var message string
	switch {
	case summary.Segments == 0:
		message = fmt.Sprintf("No music detected in %s", title)
	case summary.Unrecognized == 0:
		message = fmt.Sprintf("🎵 %s: %d songs recognized from %d segments", title, summary.Songs, summary.Segments)
	default:
		message = fmt.Sprintf("🎵 %s: %d songs recognized from %d segments (%d unrecognized)",
			title, summary.Songs, summary.Segments, summary.Unrecognized)
	}
	if d := summary.Duration.Round(time.Second); d > 0 {
		message = fmt.Sprintf("%s in %s", message, d)
	}

	return n.send(ctx, payload{
		title:   "ghearing - Job Complete",
		message: message,
		tags:    []string{"ghearing", "job", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobID int64, title string, err error) error {
	var builder strings.Builder
	builder.WriteString("❌ ")
	builder.WriteString(displayTitle(jobID, title))
	builder.WriteString(" failed: ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "ghearing - Job Failed",
		message:  builder.String(),
		tags:     []string{"ghearing", "job", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "ghearing - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"ghearing", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displayTitle(jobID int64, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Sprintf("job %d", jobID)
	}
	return title
}

// Noop returns a Service that discards every notification.
func Noop() Service { return noopService{} }

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, JobSummary) error          { return nil }
func (noopService) NotifyJobFailed(context.Context, int64, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
