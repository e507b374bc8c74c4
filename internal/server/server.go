// Package server is the ops listener run by 'ytshorts serve': health,
// Prometheus metrics and read-only job and video lookups.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// JobReader looks up processing jobs
type JobReader interface {
	Get(ctx context.Context, id string) (*model.VideoProcessingResult, error)
	ListByContent(ctx context.Context, contentID string) ([]*model.VideoProcessingResult, error)
}

// MetricsReader looks up per-video performance
type MetricsReader interface {
	Get(ctx context.Context, videoID string) (*model.PerformanceMetrics, error)
}

// Config wires the listener
type Config struct {
	Addr      string
	Jobs      JobReader
	Metrics   MetricsReader
	Gatherer  prometheus.Gatherer
	Logger    zerolog.Logger
	StartTime time.Time
}

// Server wraps the ops http.Server
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer creates a Server
func NewServer(cfg Config) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// Start blocks serving until Shutdown
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting ops listener")
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and drains in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down ops listener")
	return s.httpServer.Shutdown(ctx)
}
