// Package server exposes the build and recommendation flows over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/pipeline"
	"go.uber.org/zap"
)

const (
	DefaultAddr        = ":8080"
	DefaultMaxUploadMB = 20

	shutdownTimeout = 10 * time.Second
)

type Config struct {
	Addr        string `mapstructure:"addr"`
	MaxUploadMB int    `mapstructure:"max-upload-mb"`
}

// ProfileBuilder builds and stores a profile.
type ProfileBuilder interface {
	Build(ctx context.Context, req pipeline.BuildRequest) (*pipeline.BuildResult, error)
}

// JobRecommender ranks the catalog for a stored profile.
type JobRecommender interface {
	Recommend(ctx context.Context, req pipeline.RecommendRequest) (*pipeline.Recommendation, error)
}

type Server struct {
	cfg         Config
	builder     ProfileBuilder
	recommender JobRecommender
	logger      *zap.Logger
}

func New(cfg Config, builder ProfileBuilder, recommender JobRecommender, log *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = DefaultMaxUploadMB
	}
	return &Server{
		cfg:         cfg,
		builder:     builder,
		recommender: recommender,
		logger:      logger.OrNop(log),
	}
}

func (s *Server) maxBodyBytes() int64 {
	return int64(s.cfg.MaxUploadMB) << 20
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(AccessLog(s.logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(Session)

		r.With(MaxBodyBytes(s.maxBodyBytes())).Post("/profile", s.handleBuild)
		r.Get("/recommendations", s.handleRecommend)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
