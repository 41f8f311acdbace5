// Package main is the entry point for the alpha backend: the ingestion,
// derived-metric, alpha-pipeline, next-day-prediction and recommendation
// system described by the feature-store schema in internal/database.
//
// main wires the process via internal/di, runs the catch-up job once at
// startup, starts the scheduler, and blocks until SIGINT/SIGTERM before
// shutting everything down in reverse order.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/marketpulse/alpha-backend/internal/config"
	"github.com/marketpulse/alpha-backend/internal/di"
	"github.com/marketpulse/alpha-backend/internal/logging"
	"github.com/marketpulse/alpha-backend/internal/vendor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logging.New(logging.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting alpha backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("error closing databases")
		}
	}()

	// catch_up is never cron-registered; it runs once here against the
	// same vendor adapter the daily_close job uses, per §4.6.
	dailyBars := vendor.NewHTTPDailyBarSource(cfg.VendorBaseURL, cfg.VendorRateLimitRPS, cfg.VendorTimeout, log)
	container.RunCatchUp(dailyBars)

	if cfg.SchedulerEnabled {
		container.Scheduler.Start()
		log.Info().Msg("scheduler started")
	} else {
		log.Warn().Msg("scheduler disabled by configuration")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping")
	cancel()

	if cfg.SchedulerEnabled {
		container.Scheduler.Stop()
		log.Info().Msg("scheduler stopped")
	}

	log.Info().Msg("alpha backend stopped")
}
