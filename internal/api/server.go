package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ephemvid/ephemvid-client/internal/composer"
	"github.com/ephemvid/ephemvid-client/internal/ingest"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

// Roster is the read side of the roster coordinator.
type Roster interface {
	Refresh(ctx context.Context) error
	Snapshot() []media.VideoRecord
	Find(id int64) (media.VideoRecord, bool)
}

type Uploads interface {
	Pick(ctx context.Context, paths []string) *ingest.Submission
}

type Remover interface {
	Remove(ctx context.Context, id int64) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port    int
	Token   string
	Version string
	Roster  Roster
	Uploads Uploads
	Remover Remover
	// Compose opens a composer for one video.
	Compose       func(video media.VideoRecord) *composer.Composer
	FileURL       func(filename string) string
	Notifications *notify.Memory
	Logger        *slog.Logger
	StartTime     time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
