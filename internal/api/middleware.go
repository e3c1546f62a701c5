package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"ghearing/internal/logging"
	"ghearing/internal/services"
)

const headerRequestID = "X-Request-ID"

// authMiddleware validates bearer tokens. An empty token disables auth.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(c echo.Context) error {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(auth, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		got := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return next(c)
	}
}

// requestContext tags the request context and response with a request id.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		id := strings.TrimSpace(req.Header.Get(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		ctx := services.WithRequestID(req.Context(), id)
		c.SetRequest(req.WithContext(ctx))
		c.Response().Header().Set(headerRequestID, id)
		return next(c)
	}
}

func (s *Server) accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		logger := logging.WithContext(c.Request().Context(), s.logger)
		logger.Debug("request handled",
			logging.String("method", c.Request().Method),
			logging.String("path", c.Path()),
			logging.Int("status", c.Response().Status),
			logging.Duration("duration", time.Since(start)),
		)
		return nil
	}
}
