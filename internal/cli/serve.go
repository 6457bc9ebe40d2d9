package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"drivethru/internal/api"
	"drivethru/internal/monitoring"
)

// NewServeCmd creates the serve command
func NewServeCmd(g *globalOptions) *cobra.Command {
	var port, metricsPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lane API server",
		Long: `Run the HTTP and WebSocket API for one drive-thru lane.

Prometheus metrics are served on /metrics of the API port and, when
server.metrics_port differs from the API port, on a dedicated listener.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g, port, metricsPort)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "API server port (overrides server.port)")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "Metrics server port (overrides server.metrics_port)")
	return cmd
}

func runServe(ctx context.Context, g *globalOptions, port, metricsPort int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, g.configPath, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Server.Port
	}
	if metricsPort == 0 {
		metricsPort = a.cfg.Server.MetricsPort
	}

	l, err := a.newLane()
	if err != nil {
		return err
	}
	defer l.Close(context.Background())

	server, err := api.NewServer(api.Options{
		Lane:      l,
		Menu:      a.engine,
		Metrics:   a.metrics,
		Monitor:   a.monitor,
		Evaluator: a.newEvaluator(),
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	if metricsPort > 0 && metricsPort != port {
		go func() {
			if err := serveMetrics(ctx, fmt.Sprintf(":%d", metricsPort), a.metrics, a.logger); err != nil {
				a.logger.Error("metrics server error", "error", err)
			}
		}()
	}

	return server.Run(ctx, fmt.Sprintf(":%d", port))
}

// serveMetrics exposes the Prometheus registry on its own listener until ctx
// is cancelled
func serveMetrics(ctx context.Context, addr string, metrics *monitoring.Metrics, logger *slog.Logger) error {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}()

	logger.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
