// Command api serves the invoice reconciliation HTTP API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finvoice/reconcile-backend/internal/api"
	"github.com/finvoice/reconcile-backend/internal/application/service"
	"github.com/finvoice/reconcile-backend/internal/domain/bankcsv"
	"github.com/finvoice/reconcile-backend/internal/domain/matching"
	"github.com/finvoice/reconcile-backend/internal/domain/scoring"
	"github.com/finvoice/reconcile-backend/internal/infrastructure/config"
	"github.com/finvoice/reconcile-backend/internal/infrastructure/logging"
	"github.com/finvoice/reconcile-backend/internal/infrastructure/storage"
)

func main() {
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		seed       = flag.Bool("seed", false, "Seed demo data before serving")
	)
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *seed {
		if err := storage.Seed(context.Background(), store, 1); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		logger.Info("seeded demo data")
	}

	parser := bankcsv.NewParser(cfg.Parser.Policy())
	scorer := scoring.NewScorer(cfg.Matching.ScoringConfig())
	engine := matching.NewEngine(scorer, cfg.Matching.EngineConfig())
	svc := service.NewReconcileService(parser, engine, store, logger)

	serverCfg := api.DefaultConfig()
	if cfg.Server.Port > 0 {
		serverCfg.Port = cfg.Server.Port
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	}

	server := api.NewServer(serverCfg, svc, logger)

	// Serve until interrupted, then drain.
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
