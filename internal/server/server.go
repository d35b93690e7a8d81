// Package server exposes the controller over a local HTTP control surface:
// phase queries, trigger and reset actions, and a live transition stream.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alkime/screentalk/internal/controller"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

//go:embed web
var webFS embed.FS

// Controller is the subset of the controller the server drives.
type Controller interface {
	Phase() controller.Phase
	Trigger() bool
	Reset() bool
}

// Server represents the HTTP control server
type Server struct {
	ctrl        Controller
	transitions <-chan controller.Transition
	logger      *slog.Logger
	router      *gin.Engine
	hub         *hub
}

// New creates a new Server instance. Transitions received on transitions are
// streamed to /api/v1/events clients while the server is serving.
func New(ctrl Controller, transitions <-chan controller.Transition, logger *slog.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	server := &Server{
		ctrl:        ctrl,
		transitions: transitions,
		logger:      logger,
		router:      router,
		hub:         newHub(logger),
	}

	setupSecurityMiddleware(router, logger)
	if err := server.setupRoutes(); err != nil {
		return nil, err
	}

	return server, nil
}

// Router returns the underlying handler, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.run(ctx, s.transitions)

	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Control server listening", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("control server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down control server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control server stopped: %w", err)
	}

	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() error {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/v1")
	{
		api.GET("/phase", s.handlePhase)
		api.POST("/trigger", s.handleTrigger)
		api.POST("/reset", s.handleReset)
		api.GET("/events", s.handleEvents)
	}

	pages, err := static.EmbedFolder(webFS, "web")
	if err != nil {
		return fmt.Errorf("failed to load embedded pages: %w", err)
	}
	s.router.Use(static.Serve("/", pages))

	return nil
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "screentalk",
	})
}

func (s *Server) handlePhase(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"phase": s.ctrl.Phase()})
}

func (s *Server) handleTrigger(c *gin.Context) {
	if !s.ctrl.Trigger() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "busy",
			"phase": s.ctrl.Phase(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"phase": s.ctrl.Phase()})
}

func (s *Server) handleReset(c *gin.Context) {
	reset := s.ctrl.Reset()
	c.JSON(http.StatusOK, gin.H{
		"reset": reset,
		"phase": s.ctrl.Phase(),
	})
}
