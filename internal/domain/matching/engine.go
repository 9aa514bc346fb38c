// Package matching ranks invoice candidates for each parsed bank
// transaction.
//
// The engine scores every transaction against every invoice that still
// has an outstanding balance, keeps candidates above the reporting
// floor, and returns the top suggestions per transaction. The scan is
// O(transactions x invoices) with no indexing; invoice sets at
// single-tenant bookkeeping scale are small enough that pruning would
// only add complexity.
package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/finvoice/reconcile-backend/internal/domain/bankcsv"
	"github.com/finvoice/reconcile-backend/internal/domain/billing"
	"github.com/finvoice/reconcile-backend/internal/domain/scoring"
)

// Config holds the engine's ranking thresholds.
type Config struct {
	// MinScore is the reporting floor: candidates below it are
	// discarded entirely, not merely down-ranked.
	MinScore int

	// MaxSuggestions caps the per-transaction suggestion list.
	MaxSuggestions int

	// AutoMatchScore is the best-match score at or above which a
	// transaction is pre-selected for the user.
	AutoMatchScore int
}

// DefaultConfig returns the stock thresholds (30 floor, top 3,
// auto-match at 90).
func DefaultConfig() Config {
	return Config{
		MinScore:       30,
		MaxSuggestions: 3,
		AutoMatchScore: 90,
	}
}

// Candidate is one scored invoice suggestion for a transaction.
type Candidate struct {
	Invoice     *billing.Invoice   `json:"invoice"`
	Score       int                `json:"score"`
	Confidence  scoring.Confidence `json:"confidence"`
	Breakdown   scoring.Breakdown  `json:"breakdown"`
	Outstanding decimal.Decimal    `json:"outstanding"`
}

// TransactionMatch pairs a transaction with its ranked suggestions.
type TransactionMatch struct {
	Transaction   bankcsv.Transaction `json:"transaction"`
	Suggestions   []Candidate         `json:"suggestions"`
	BestMatch     *Candidate          `json:"bestMatch"`
	IsAutoMatched bool                `json:"isAutoMatched"`
}

// Engine matches transactions against invoices.
type Engine struct {
	scorer *scoring.Scorer
	cfg    Config
}

// NewEngine creates an engine using the given scorer and thresholds.
func NewEngine(scorer *scoring.Scorer, cfg Config) *Engine {
	return &Engine{scorer: scorer, cfg: cfg}
}

// Match scores every transaction against every invoice with a positive
// outstanding balance. Fully-settled invoices are never proposed. The
// result list mirrors the input transaction order; each suggestion list
// is sorted descending by score with ties kept in invoice iteration
// order.
func (e *Engine) Match(txns []bankcsv.Transaction, invoices []*billing.Invoice) []TransactionMatch {
	matches := make([]TransactionMatch, 0, len(txns))

	for _, tx := range txns {
		var candidates []Candidate

		for _, inv := range invoices {
			outstanding := inv.Outstanding()
			if !outstanding.IsPositive() {
				continue
			}

			result := e.scorer.Score(tx, inv)
			if result.Total < e.cfg.MinScore {
				continue
			}

			candidates = append(candidates, Candidate{
				Invoice:     inv,
				Score:       result.Total,
				Confidence:  result.Confidence,
				Breakdown:   result.Breakdown,
				Outstanding: outstanding,
			})
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})

		if len(candidates) > e.cfg.MaxSuggestions {
			candidates = candidates[:e.cfg.MaxSuggestions]
		}

		match := TransactionMatch{
			Transaction: tx,
			Suggestions: candidates,
		}
		if len(candidates) > 0 {
			match.BestMatch = &candidates[0]
			match.IsAutoMatched = candidates[0].Score >= e.cfg.AutoMatchScore
		}

		matches = append(matches, match)
	}

	return matches
}
