package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/groundwater-monitoring/internal/api/http"
	"github.com/i474232898/groundwater-monitoring/internal/scheduler"
	"github.com/i474232898/groundwater-monitoring/internal/store"
)

const (
	runTimeout      = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest report over HTTP and refresh it on a schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if port == "" {
			port = cfg.Port
		}

		memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
		svc, cleanup, err := buildService(ctx, cfg, memStore, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		go func() {
			runCtx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()
			// Errors are logged by the service; the API answers 404 until a run succeeds.
			_ = svc.RunAndStore(runCtx)
		}()

		sched := scheduler.New(svc, cfg.RefreshInterval, runTimeout, logger)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		app := httpapi.NewApp(svc, logger.Named("http"), fiberlogger.New())

		logger.Info("listening", zap.String("port", port))
		return listenUntilDone(ctx, app, ":"+port)
	},
}

// listenUntilDone serves app until ctx is done, then shuts it down. A Listen
// failure, such as the port being taken, is returned right away.
func listenUntilDone(ctx context.Context, app *fiber.App, addr string) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "listen port (default PORT)")
}
