package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/config"
	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/logger"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/api"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/livedata"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/predict"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/store"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	dbPath := flag.String("db", "", "Path to sqlite database (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Configure logging
	logger.SetShowDateTime(true)
	if *debug {
		logger.SetLevel(logger.DEBUG)
		logger.Debug("Debug logging enabled")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	logger.Info("Starting Futstat backend")

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open store", err)
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		logger.Fatal("Failed to migrate store", err)
	}

	engine := predict.NewProcessEngine(cfg.EngineCommand, cfg.EngineArgs, cfg.EngineTimeout)
	predictor := predict.NewPredictor(st, st, engine, cfg.ContextMatches)
	live := livedata.NewClient(cfg)

	server := api.NewServer(cfg, st, predictor, live)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Fatal("Server stopped with error", err)
	}
	logger.Info("Futstat backend stopped")
}
