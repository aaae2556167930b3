// Package server exposes the ranking pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"videorank/pipeline"
	"videorank/shared/config"
	"videorank/shared/monitoring"
	"videorank/shared/storage"
)

const gracefulShutdownTimeout = 10 * time.Second

// Ranker runs one ranked search.
type Ranker interface {
	Rank(ctx context.Context, query string, progress pipeline.Progress) (*pipeline.Result, error)
}

// Summarizer produces a styled summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, stylePrompt string) (string, error)
}

// TranscriptFetcher retrieves a video's transcript.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

type Server struct {
	echo        *echo.Echo
	cfg         *config.Config
	store       *storage.Store
	ranker      Ranker
	summarizer  Summarizer
	transcripts TranscriptFetcher
	monitor     *monitoring.Monitor
	sessions    *sessionStore
	busy        *busyTracker
}

func New(cfg *config.Config, store *storage.Store, ranker Ranker, summarizer Summarizer, transcripts TranscriptFetcher, monitor *monitoring.Monitor) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		cfg:         cfg,
		store:       store,
		ranker:      ranker,
		summarizer:  summarizer,
		transcripts: transcripts,
		monitor:     monitor,
		sessions:    newSessionStore(),
		busy:        newBusyTracker(),
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.echo.Use(requestLogger())
	s.echo.Use(middleware.Recover())

	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api")
	api.POST("/signup", s.handleSignup)
	api.POST("/login", s.handleLogin)

	authed := api.Group("", s.requireAuth)
	authed.POST("/logout", s.handleLogout)
	authed.POST("/search", s.handleSearch)
	authed.POST("/summarize", s.handleSummarize)
	authed.GET("/styles", s.handleStyles)
	authed.GET("/patterns", s.handleListPatterns)
	authed.POST("/patterns", s.handleCreatePattern)
	authed.DELETE("/patterns/:id", s.handleDeletePattern)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogLatency: true,
		LogURI:     true,
		LogMethod:  true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				slog.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
				)
			} else {
				slog.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("err", v.Error.Error()),
				)
			}
			return nil
		},
	})
}
