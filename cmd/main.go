package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"site-gateway/internal/app"
	"site-gateway/internal/config"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// ---- Services and handler ----
	a, err := app.Build(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		slog.Error("failed to build gateway", "err", err)
		os.Exit(1)
	}

	lambda.Start(a.Handler.Handle)
}
