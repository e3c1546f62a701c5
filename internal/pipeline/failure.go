package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"ghearing/internal/logging"
	"ghearing/internal/notifications"
	"ghearing/internal/services"
	"ghearing/internal/store"
)

func (p *Pipeline) handleFailure(ctx context.Context, jobID int64, runErr error, result *Result) {
	logger := logging.WithContext(ctx, p.logger)
	message := strings.TrimSpace(runErr.Error())
	if message == "" {
		message = "processing failed"
	}

	logging.ErrorWithContext(logger, "job failed", "job_failure",
		logging.String("error_kind", string(services.Kind(runErr))),
		logging.Error(runErr),
	)

	// The caller's context may already be done; the failure still needs recording.
	persistCtx := context.WithoutCancel(ctx)
	if err := p.store.UpdateJobStatus(persistCtx, jobID, store.StatusFailed, nil, message); err != nil {
		logger.Error("failed to persist job failure", logging.Error(err))
	}

	result.Success = false
	result.Message = fmt.Sprintf("processing failed: %s", message)
}

func (p *Pipeline) notifyCompleted(ctx context.Context, summary notifications.JobSummary) {
	if err := p.notifier.NotifyJobCompleted(context.WithoutCancel(ctx), summary); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "job notification failed", "notify_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job result was not announced"),
		)
	}
}

func (p *Pipeline) notifyFailure(ctx context.Context, job *store.Job, runErr error) {
	if err := p.notifier.NotifyJobFailed(context.WithoutCancel(ctx), job.ID, job.Title, runErr); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "job notification failed", "notify_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job failure was not announced"),
		)
	}
}

// cleanup removes the run workspace and, when configured, the upload.
// Extracted audio is kept.
func (p *Pipeline) cleanup(ctx context.Context, runDir, sourcePath string) {
	logger := logging.WithContext(ctx, p.logger)
	if !p.opts.RetainClips {
		if err := os.RemoveAll(runDir); err != nil {
			logger.Warn("run workspace cleanup failed", logging.String("path", runDir), logging.Error(err))
		}
	}
	p.cleanupSource(sourcePath)
}

func (p *Pipeline) cleanupSource(sourcePath string) {
	if !p.opts.RemoveSource || strings.TrimSpace(sourcePath) == "" {
		return
	}
	if err := os.Remove(sourcePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("source cleanup failed", logging.String("path", sourcePath), logging.Error(err))
	}
}
