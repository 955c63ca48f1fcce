package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"captioner/internal/config"
	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/pipeline"
)

// JobLister reads recent job ledger entries.
type JobLister interface {
	List(ctx context.Context, limit int) ([]*jobs.Entry, error)
}

// Options wires a Server.
type Options struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	// Jobs is nil when the ledger is disabled.
	Jobs   JobLister
	Logger *slog.Logger
}

// Server exposes the pipeline over HTTP.
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	jobs     JobLister
	logger   *slog.Logger
	engine   *gin.Engine

	listener net.Listener
	server   *http.Server
}

// NewServer builds the gin engine and registers every route.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("api: config is required")
	}
	if opts.Pipeline == nil {
		return nil, errors.New("api: pipeline is required")
	}
	s := &Server{
		cfg:      opts.Config,
		pipeline: opts.Pipeline,
		jobs:     opts.Jobs,
		logger:   logging.NewComponentLogger(opts.Logger, "api"),
	}

	engine := gin.New()
	engine.Use(
		requestID(),
		s.accessLog(),
		s.recovery(),
	)
	if policy, ok := corsConfig(s.cfg.Server.AllowedOrigins); ok {
		engine.Use(cors.New(policy))
	}
	engine.GET("/health", s.handleHealth)

	group := engine.Group("/api")
	group.POST("/upload-audio", s.handleUploadAudio)
	group.POST("/upload-audio-hinglish", s.handleUploadAudioHinglish)
	group.POST("/transcribe", s.handleTranscribe)
	group.POST("/render-video", s.handleRenderVideo)
	group.GET("/jobs", s.handleJobs)
	group.GET("/test", s.handleTest)

	engine.NoRoute(s.handleNotFound)
	s.engine = engine

	s.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Server.Bind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the bind address and restart"),
				logging.String(logging.FieldImpact, "HTTP requests are no longer served"),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

// Stop drains in-flight requests for up to 30 seconds.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
