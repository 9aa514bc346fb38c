// Command reconcile matches a bank CSV export against open invoices
// from the local database and prints ranked suggestions. Useful for
// previewing a reconciliation without going through the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

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
		csvFile    = flag.String("csv", "", "Bank CSV export to reconcile (required)")
		userID     = flag.Int64("user", 1, "User id owning the invoices")
		seed       = flag.Bool("seed", false, "Seed demo data first")
	)
	flag.Parse()

	if *csvFile == "" {
		fmt.Fprintln(os.Stderr, "usage: reconcile -csv <file> [-config config.yaml] [-user 1]")
		os.Exit(2)
	}

	cfg := config.LoadOrEnvWithPath(*configFile)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "reconcile")

	data, err := os.ReadFile(*csvFile)
	if err != nil {
		logger.Error("failed to read CSV file", "path", *csvFile, "error", err)
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if *seed {
		if err := storage.Seed(ctx, store, *userID); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	parser := bankcsv.NewParser(cfg.Parser.Policy())
	txns, err := parser.Parse(string(data))
	if err != nil {
		logger.Error("failed to parse CSV", "error", err)
		os.Exit(1)
	}
	if len(txns) == 0 {
		logger.Warn("no credit transactions found in CSV")
		return
	}

	invoices, err := store.ListInvoices(ctx, *userID)
	if err != nil {
		logger.Error("failed to load invoices", "error", err)
		os.Exit(1)
	}

	scorer := scoring.NewScorer(cfg.Matching.ScoringConfig())
	engine := matching.NewEngine(scorer, cfg.Matching.EngineConfig())
	matches := engine.Match(txns, invoices)

	for _, m := range matches {
		fmt.Printf("\n%s  %s  %s\n",
			m.Transaction.Date.Format("2006-01-02"),
			m.Transaction.Amount.StringFixed(2),
			m.Transaction.Description)

		if len(m.Suggestions) == 0 {
			fmt.Println("  no suggestions")
			continue
		}
		for i, s := range m.Suggestions {
			marker := "  "
			if i == 0 && m.IsAutoMatched {
				marker = "* "
			}
			fmt.Printf("  %s%s  %s  score=%d (%s)  outstanding=%s\n",
				marker,
				s.Invoice.InvoiceNumber,
				s.Invoice.Client.Name,
				s.Score,
				s.Confidence,
				s.Outstanding.StringFixed(2))
		}
	}
}
