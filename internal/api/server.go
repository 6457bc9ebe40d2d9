// Package api exposes a drive-thru lane over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"drivethru/internal/evaluation"
	"drivethru/internal/lane"
	"drivethru/internal/logging"
	"drivethru/internal/menu"
	"drivethru/internal/models"
	"drivethru/internal/monitoring"
)

// MenuSource answers menu listing and search requests
type MenuSource interface {
	Search(ctx context.Context, query string, topK int) ([]menu.SearchResult, error)
	Items() []models.CatalogItem
}

// Options configures a Server. Metrics, Monitor and Evaluator are optional.
type Options struct {
	Lane      *lane.Lane
	Menu      MenuSource
	Metrics   *monitoring.Metrics
	Monitor   *monitoring.Monitor
	Evaluator *evaluation.Evaluator
	Logger    *slog.Logger
}

// Server is the HTTP surface of a lane
type Server struct {
	router    *gin.Engine
	lane      *lane.Lane
	menu      MenuSource
	metrics   *monitoring.Metrics
	monitor   *monitoring.Monitor
	evaluator *evaluation.Evaluator
	logger    *slog.Logger
	upgrader  websocket.Upgrader
	baseCtx   context.Context
}

// NewServer creates a server with all routes registered
func NewServer(opts Options) (*Server, error) {
	if opts.Lane == nil {
		return nil, errors.New("api: lane is required")
	}
	if opts.Menu == nil {
		return nil, errors.New("api: menu is required")
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware(opts.Logger))

	s := &Server{
		router:    router,
		lane:      opts.Lane,
		menu:      opts.Menu,
		metrics:   opts.Metrics,
		monitor:   opts.Monitor,
		evaluator: opts.Evaluator,
		logger:    logging.WithComponent(opts.Logger, "api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the gateway sits behind the lane hardware, not a browser
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		baseCtx: context.Background(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/turns", s.handleTurn)
		v1.GET("/order", s.handleOrder)
		v1.POST("/session/reset", s.handleReset)
		v1.GET("/menu", s.handleMenu)
		v1.GET("/menu/search", s.handleMenuSearch)
		v1.GET("/diagnostics", s.handleDiagnostics)
		if s.monitor != nil {
			v1.GET("/stats", s.handleStats)
		}
		if s.evaluator != nil {
			v1.GET("/eval/scenarios", s.handleListScenarios)
			v1.POST("/eval/scenarios/:id", s.handleEvaluate)
		}
	}
}

// Router returns the Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down api server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
