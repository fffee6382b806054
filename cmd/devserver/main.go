// Package main runs the gateway as a local HTTP server.
package main

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

	"github.com/spf13/cobra"

	"site-gateway/internal/app"
	"site-gateway/internal/config"
	"site-gateway/internal/transport/httpserver"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		addr       string
		logLevel   string
		routesFile string
		noDelay    bool
	)

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Serve the site gateway over HTTP",
		Long: `devserver runs the same handler the Lambda runs behind a local echo
server. Settings come from the environment exactly as in Lambda; flags
override a few of them. GET /metrics exposes the Prometheus counters.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = config.ParseLevel(logLevel)
			}
			if routesFile != "" {
				cfg.RoutesFile = routesFile
			}
			if noDelay {
				cfg.SubmitDelay, cfg.SubmitJitter, cfg.ChatDelay = 0, 0, 0
			}
			return run(cmd.Context(), addr, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&routesFile, "routes", "", "Chat routing table (YAML); defaults to the embedded table")
	cmd.Flags().BoolVar(&noDelay, "no-delay", false, "Disable the simulated processing delays")

	return cmd
}

func run(ctx context.Context, addr string, cfg config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		return err
	}
	e := httpserver.New(a.Handler, a.Registry, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dev server listening", "addr", addr, "paths", a.Handler.Paths())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down dev server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
