// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"medialinkd/internal/analyser"
	"medialinkd/internal/catalogue"
	"medialinkd/internal/config"
	"medialinkd/internal/lifecycle"
	xglog "medialinkd/internal/log"
	"medialinkd/internal/registry"
	"medialinkd/internal/scanner"
	"medialinkd/internal/worker"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	metricsAddr := flag.String("metrics-addr", ":9090", "address the /metrics endpoint listens on")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "medialinkd", Version: version})
	logger := xglog.WithComponent("main")

	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		dataDir := strings.TrimSpace(config.ParseString("DATA_DIR", config.Defaults().DataDir))
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectiveConfigPath = autoPath
		}
	}

	holder, err := config.NewHolder(effectiveConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg := holder.Get()

	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "medialinkd", Version: version})
	logger.Info().Str("version", version).Str("commit", commit).Msg("starting medialinkd")
	logger.Info().Str("source_dir", cfg.SourceDir).Str("target_dir", cfg.TargetDir).Int("workers", cfg.WorkerCount).Msg("pipeline configured")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("failed to create data directory")
	}

	dbPath := filepath.Join(cfg.DataDir, "registry.db")
	store, err := registry.OpenSQLiteStore(dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", dbPath).Msg("failed to open registry store")
	}

	analyserClient, err := analyser.NewHTTPClient(analyser.Config{
		BaseURL:   cfg.AnalyserBaseURL,
		Timeout:   cfg.AnalyserTimeout,
		Enabled:   cfg.EnableLLM,
		CacheSize: 512,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build analyser client")
	}

	catalogueClient := catalogue.NewHTTPClient(catalogue.Config{
		BaseURL:     cfg.CatalogueBaseURL,
		Language:    cfg.TMDBLanguage,
		Timeout:     cfg.CatalogueTimeout,
		Enabled:     cfg.EnableTMDB,
		Concurrency: int64(cfg.TMDBConcurrency),
	})

	dispatcher := worker.NewDispatcher(cfg.WorkerCount * 4)

	absTarget, err := filepath.Abs(cfg.TargetDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve TARGET_DIR")
	}

	probeCfg := scanner.ProbeConfig{
		Root:           cfg.SourceDir,
		Extensions:     cfg.ExtensionSet(),
		MinSizeBytes:   cfg.MinFileSizeBytes(),
		FollowSymlinks: cfg.ScanFollowSymlinks,
	}
	if cfg.ScanExcludeTarget {
		probeCfg.ExcludeDir = absTarget
	}

	scanManager := scanner.NewManager(probeCfg, secondsToDuration(cfg.ScanIntervalSeconds), store, dispatcher.Enqueue)
	pool := worker.NewPool(store, analyserClient, catalogueClient, dispatcher, absTarget, cfg.WorkerCount, nil)

	go serveMetrics(*metricsAddr, logger)

	controller := &lifecycle.Controller{
		Holder:     holder,
		Store:      store,
		Dispatcher: dispatcher,
		Scanner:    scanManager,
		Pool:       pool,
	}

	if err := controller.Run(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("medialinkd exited with error")
	}
	logger.Info().Msg("medialinkd exiting")
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec // internal metrics endpoint, no timeouts needed
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
