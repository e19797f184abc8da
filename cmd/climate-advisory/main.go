package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/climate-advisory/internal/api/http"
	"github.com/i474232898/climate-advisory/internal/app"
	"github.com/i474232898/climate-advisory/internal/config"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := app.NewLogger(cfg, os.Stderr)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("error closing resources")
		}
	}()

	// Scheduler that periodically warms the analysis caches.
	if err := a.Scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	server := httpapi.NewApp("climate-advisory", log)
	var lister httpapi.ReportLister
	if a.Archive != nil {
		lister = a.Archive
	}
	httpapi.RegisterRoutes(server, a.Advisor, lister)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
