package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/version"
)

const (
	ServiceName     = "triagemate"
	shutdownTimeout = 10 * time.Second
)

// TriageService is the part of services.TriageService the API exposes.
type TriageService interface {
	Analyze(ctx context.Context, repoURL string, number int) (*models.TriageReport, error)
	Classify(ctx context.Context, raw models.RawIssue) (*models.TriageReport, error)
}

type Server struct {
	router  *gin.Engine
	service TriageService
	log     *slog.Logger
	version string
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

func New(service TriageService, opts ...Option) *Server {
	s := &Server{
		service: service,
		log:     slog.Default(),
		version: version.Version,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(RequestID(s.log))
	router.Use(Recovery())
	router.Use(Logger())
	s.setupRoutes(router)
	s.router = router
	return s
}

func (s *Server) setupRoutes(router *gin.Engine) {
	h := newTriageHandler(s.service)

	api := router.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/analyze", h.Analyze)
		api.POST("/classify", h.Classify)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: s.version,
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
