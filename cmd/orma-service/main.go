package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orma-app/orma/internal/api"
	"github.com/orma-app/orma/internal/auth"
	"github.com/orma-app/orma/internal/config"
	"github.com/orma-app/orma/internal/events"
	"github.com/orma-app/orma/internal/health"
	"github.com/orma-app/orma/internal/platform/factory"
	"github.com/orma-app/orma/internal/platform/logger"
	"github.com/orma-app/orma/internal/services"
)

func main() {
	devMode := flag.Bool("dev", false, "Force dev mode (local token auth)")
	flag.Parse()

	log := logger.New("orma-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *devMode {
		cfg.DevMode = true
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Bool("dev_mode", cfg.DevMode).
		Msg("Marks service starting…")

	ctx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()

	// -------- Storage layer -----------------
	st, err := factory.NewStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Storage adapter unavailable")
	}

	// -------- Health monitor ----------------
	storeChecker := health.NewStoreChecker(st, log)
	serviceHealth := health.NewServiceHealthChecker(log, storeChecker)
	go storeChecker.Start(ctx, 30*time.Second)
	go serviceHealth.Start(ctx, 30*time.Second)

	// -------- Services & router -------------
	bus := events.NewBus(64)
	svc := services.NewMarkService(st, bus, cfg.QuotaMax, cfg.QuotaWindow)
	authorizer := auth.NewAuthorizer(cfg)
	router := api.NewRouter(st, bus, authorizer, svc, serviceHealth.IsHealthy)

	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
