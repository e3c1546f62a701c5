package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"ghearing/internal/logging"
	"ghearing/internal/pipeline"
	"ghearing/internal/services"
	"ghearing/internal/store"
)

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	if err := s.store.Ping(c.Request().Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreateJob(c echo.Context) error {
	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	path, err := s.resolveUpload(req.Path)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// A run is not cancellable once started; the request only triggers it.
	result := s.runner.Run(context.WithoutCancel(c.Request().Context()), pipeline.Request{
		SourcePath: path,
		Title:      strings.TrimSpace(req.Title),
		OwnerID:    strings.TrimSpace(req.OwnerID),
	})
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, FromResult(result))
}

func (s *Server) handleListJobs(c echo.Context) error {
	ctx := c.Request().Context()
	filter := store.JobFilter{OwnerID: strings.TrimSpace(c.QueryParam("ownerId"))}

	jobs := []Job{}
	if summary, _ := strconv.ParseBool(c.QueryParam("summary")); summary {
		summaries, err := s.store.ListJobSummaries(ctx, filter)
		if err != nil {
			return err
		}
		for _, entry := range summaries {
			jobs = append(jobs, FromJobSummary(entry))
		}
		return c.JSON(http.StatusOK, JobListResponse{Jobs: jobs})
	}

	details, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return err
	}
	for _, detail := range details {
		jobs = append(jobs, FromJobDetail(detail))
	}
	return c.JSON(http.StatusOK, JobListResponse{Jobs: jobs})
}

func (s *Server) handleGetJob(c echo.Context) error {
	id, err := jobIDParam(c)
	if err != nil {
		return err
	}
	detail, err := s.store.GetJobDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, JobResponse{Job: FromJobDetail(*detail)})
}

func (s *Server) handleDeleteJob(c echo.Context) error {
	id, err := jobIDParam(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteJob(c.Request().Context(), id); err != nil {
		return err
	}
	logging.WithContext(services.WithJobID(c.Request().Context(), id), s.logger).Info("job deleted")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleExport(c echo.Context) error {
	id, err := jobIDParam(c)
	if err != nil {
		return err
	}
	opts := s.exportOpts
	if v := c.QueryParam("fps"); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil || fps <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "fps must be a positive integer")
		}
		opts.FPS = fps
	}
	if v := c.QueryParam("baseHours"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 0 || hours > 23 {
			return echo.NewHTTPError(http.StatusBadRequest, "baseHours must be between 0 and 23")
		}
		opts.BaseHours = hours
	}
	opts.Title = strings.TrimSpace(c.QueryParam("title"))

	path, err := s.exporter.Export(c.Request().Context(), id, opts)
	if err != nil {
		return err
	}
	return c.Attachment(path, filepath.Base(path))
}

func (s *Server) handleTopTracks(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = parsed
	}
	usage, err := s.store.TopTracks(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TopTracksResponse{Tracks: FromTrackUsage(usage)})
}

func (s *Server) handleRecentLinks(c echo.Context) error {
	since := s.now().AddDate(0, -1, 0)
	count, err := s.store.CountLinksSince(c.Request().Context(), since)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RecentLinksResponse{Since: formatTime(since), Count: count})
}

func jobIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid job id")
	}
	return id, nil
}

// handleError renders every failure as ErrorResponse with a status derived
// from the error kind.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := err.Error()

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	} else {
		status = statusForKind(services.Kind(err))
	}

	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(c.Request().Context(), s.logger), "request failed", "api_error",
			logging.String("path", c.Path()),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, ErrorResponse{Error: message})
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindTimeout:
		return http.StatusGatewayTimeout
	case services.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
