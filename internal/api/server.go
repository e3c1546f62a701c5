package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"ghearing/internal/config"
	"ghearing/internal/edl"
	"ghearing/internal/logging"
	"ghearing/internal/pipeline"
	"ghearing/internal/store"
)

// JobStore is the store surface the HTTP layer reads and deletes through.
type JobStore interface {
	Ping(ctx context.Context) error
	ListJobs(ctx context.Context, filter store.JobFilter) ([]store.JobDetail, error)
	ListJobSummaries(ctx context.Context, filter store.JobFilter) ([]store.JobSummary, error)
	GetJobDetail(ctx context.Context, id int64) (*store.JobDetail, error)
	DeleteJob(ctx context.Context, id int64) error
	TopTracks(ctx context.Context, limit int) ([]store.TrackUsage, error)
	CountLinksSince(ctx context.Context, since time.Time) (int, error)
}

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
}

// Exporter writes an EDL file for a job.
type Exporter interface {
	Export(ctx context.Context, jobID int64, opts edl.Options) (string, error)
}

// Server serves the HTTP API.
type Server struct {
	bind       string
	token      string
	uploadDir  string
	lockPath   string
	exportOpts edl.Options

	store    JobStore
	runner   Runner
	exporter Exporter
	logger   *slog.Logger
	echo     *echo.Echo
	now      func() time.Time
}

// NewServer wires routes and middleware. Call Run to listen.
func NewServer(cfg *config.Config, st JobStore, runner Runner, exporter Exporter, logger *slog.Logger) *Server {
	s := &Server{
		bind:       strings.TrimSpace(cfg.Paths.APIBind),
		token:      strings.TrimSpace(cfg.Paths.APIToken),
		uploadDir:  cfg.Paths.UploadDir,
		lockPath:   cfg.LockPath(),
		exportOpts: edl.OptionsFromConfig(cfg),
		store:      st,
		runner:     runner,
		exporter:   exporter,
		logger:     logging.NewComponentLogger(logger, "api-server"),
		now:        time.Now,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.requestContext)
	e.Use(s.accessLog)

	e.GET("/api/health", s.handleHealth)

	g := e.Group("/api", s.authMiddleware)
	g.POST("/jobs", s.handleCreateJob)
	g.GET("/jobs", s.handleListJobs)
	g.GET("/jobs/:id", s.handleGetJob)
	g.DELETE("/jobs/:id", s.handleDeleteJob)
	g.POST("/jobs/:id/export", s.handleExport)
	g.GET("/metrics/top-tracks", s.handleTopTracks)
	g.GET("/metrics/recent-links", s.handleRecentLinks)

	s.echo = e
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run holds the data directory lock, listens on the configured bind
// address, and blocks until ctx is done or the server fails.
func (s *Server) Run(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	lock := flock.New(s.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another ghearing server holds %s", s.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release server lock", logging.Error(err))
		}
	}()

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}

	// Job submission runs the pipeline inline, so there is no write timeout.
	server := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.token != ""),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		s.logger.Info("api server stopped")
		return nil
	}
}

// resolveUpload maps a submitted path onto the upload directory and rejects
// anything that escapes it.
func (s *Server) resolveUpload(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	root, err := filepath.Abs(s.uploadDir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path must be inside %s", root)
	}
	return path, nil
}
