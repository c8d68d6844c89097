package main

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/dnldd/trendbracket/database"
	"github.com/dnldd/trendbracket/engine"
	"github.com/dnldd/trendbracket/fetch"
	"github.com/dnldd/trendbracket/metrics"
	"github.com/dnldd/trendbracket/service"
	"github.com/dnldd/trendbracket/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Error().Err(err).Msg("loading config")
		return
	}

	timeframe, err := shared.ParseTimeframe(cfg.Timeframe)
	if err != nil {
		log.Error().Err(err).Msg("parsing timeframe")
		return
	}

	params, err := engine.LoadParams(cfg.ParamsFilepath)
	if err != nil {
		log.Error().Err(err).Msg("loading strategy parameters")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	analyzerCfg := service.AnalyzerConfig{
		Markets:              cfg.Markets,
		Timeframe:            timeframe,
		Params:               params,
		LookbackDays:         cfg.LookbackDays,
		RefreshInterval:      cfg.RefreshInterval,
		Backtest:             cfg.Backtest,
		BacktestDataFilepath: cfg.BacktestDataFilepath,
		Cancel:               cancel,
	}

	if !cfg.Backtest {
		analyzerCfg.Fetcher = fetch.NewFMPClient(&fetch.FMPConfig{APIKey: cfg.FMPAPIKey})
	}

	if cfg.DBEndpoint != "" {
		dbLogger := log.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			log.Error().Err(err).Msg("creating database")
			return
		}

		analyzerCfg.Storer = db
	}

	var wg sync.WaitGroup
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		analyzerCfg.Metrics = metrics.NewMetrics(reg)

		metricsLogger := log.With().Str("component", "metrics").Logger()
		server := metrics.NewServer(cfg.MetricsAddr, reg, &metricsLogger)

		wg.Add(1)
		go func() {
			server.Run(ctx)
			wg.Done()
		}()
	}

	analyzer, err := service.NewAnalyzer(&analyzerCfg)
	if err != nil {
		log.Error().Err(err).Msg("creating analyzer service")
		return
	}

	go handleTermination(ctx, cancel)
	analyzer.Run(ctx)
	cancel()
	wg.Wait()
}
