// Package httpapi exposes the processing pass over HTTP for callers
// that post batches instead of invoking the CLI.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/techbrief/internal/engine"
	"horse.fit/techbrief/internal/globaltime"
)

// Batches beyond this size are rejected before decoding.
const maxBatchBytes = 32 << 20

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pipeline *engine.Pipeline
	reports  ReportSource
	logger   zerolog.Logger
	opts     Options
}

// ReportSource locates the most recent situational-analysis file.
type ReportSource interface {
	Latest() (string, bool)
}

type passResponse struct {
	Received      int    `json:"received"`
	Skipped       int    `json:"skipped"`
	Clusters      int    `json:"clusters"`
	Suppressed    int    `json:"suppressed"`
	Merged        int    `json:"merged"`
	Proposed      int    `json:"proposed"`
	IssuesCreated int    `json:"issues_created"`
	DryRun        bool   `json:"dry_run"`
	ReportPath    string `json:"report_path,omitempty"`
}

func NewServer(pipeline *engine.Pipeline, reports ReportSource, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		// Pass processing is synchronous; writes wait for the whole pass.
		writeTimeout = 5 * time.Minute
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pipeline: pipeline,
		reports:  reports,
		logger:   logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pipeline == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", maxBatchBytes>>20)))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/passes", s.handlePass)
	e.GET("/v1/reports/latest", s.handleLatestReport)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("techbrief server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("techbrief server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if text, ok := he.Message.(string); ok && strings.TrimSpace(text) != "" {
			message = text
		} else if text := strings.TrimSpace(http.StatusText(status)); text != "" {
			message = text
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "techbrief",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handlePass(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBatchBytes))
	if err != nil {
		return fail(c, http.StatusBadRequest, "read request body failed", nil)
	}
	if len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "empty batch payload", nil)
	}

	dryRun := strings.EqualFold(c.QueryParam("dry_run"), "true")

	outcome, err := s.pipeline.ProcessBatch(c.Request().Context(), payload, dryRun)
	if err != nil {
		s.logger.Error().Err(err).Msg("pass failed")
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}

	return success(c, passResponse{
		Received:      outcome.Received,
		Skipped:       outcome.Skipped,
		Clusters:      len(outcome.Ranked),
		Suppressed:    outcome.Suppressed,
		Merged:        outcome.Merged,
		Proposed:      len(outcome.Proposed),
		IssuesCreated: outcome.IssuesCreated,
		DryRun:        dryRun,
		ReportPath:    outcome.ReportPath,
	})
}

func (s *Server) handleLatestReport(c echo.Context) error {
	path, ok := s.reports.Latest()
	if !ok {
		return failNotFound(c, "no report generated yet")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("report read failed")
		return internalError(c, "report unavailable")
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", content)
}
