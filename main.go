// Package main is the entry point for the trip ledger Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/trip-ledger-bot/internal/bot"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/config"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/database"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/exchange"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/logger"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/repository"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("trip-ledger-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter:    cfg.OTelExporter,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.Initialize(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	rates, err := exchange.NewProvider(exchange.ProviderConfig{
		Name:     cfg.ExchangeProvider,
		BaseURL:  cfg.ExchangeBaseURL,
		APIKey:   cfg.ExchangeAPIKey,
		Timeout:  cfg.ExchangeTimeout,
		CacheTTL: cfg.ExchangeCacheTTL,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create exchange rate provider")
	}

	l := ledger.New(repository.NewStore(pool), ledger.Options{ThresholdPercent: cfg.DefaultThresholdPercent})

	telegramBot, err := bot.New(cfg, l, rates)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		telegramBot.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return telegramBot.RunDigestLoop(gctx)
	})

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down...")
	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).Msg("Background task failed")
	}
}
