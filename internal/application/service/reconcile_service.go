// Package service orchestrates the reconciliation flow: CSV upload to
// ranked match suggestions, and confirmed matches to payment records.
package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/finvoice/reconcile-backend/internal/domain/bankcsv"
	"github.com/finvoice/reconcile-backend/internal/domain/billing"
	"github.com/finvoice/reconcile-backend/internal/domain/matching"
	"github.com/finvoice/reconcile-backend/internal/domain/reconcile"
	"github.com/finvoice/reconcile-backend/internal/infrastructure/storage"
)

// MatchReport is the result of parsing and matching one CSV upload.
type MatchReport struct {
	TransactionCount int                         `json:"transactionCount"`
	AutoMatchedCount int                         `json:"autoMatchedCount"`
	Matches          []matching.TransactionMatch `json:"matches"`
}

// ReconcileService wires the parser, matching engine and confirmation
// processor to storage.
type ReconcileService struct {
	parser    *bankcsv.Parser
	engine    *matching.Engine
	processor *reconcile.Processor
	repo      storage.Repository
	logger    *slog.Logger

	// Per-invoice locks serialize the read-modify-write on total
	// paid and status; concurrent confirmation batches against the
	// same invoice would otherwise race.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewReconcileService creates the service. logger may be nil.
func NewReconcileService(parser *bankcsv.Parser, engine *matching.Engine, repo storage.Repository, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		parser:    parser,
		engine:    engine,
		processor: reconcile.NewProcessor(repo, repo, repo, nil),
		repo:      repo,
		logger:    logger,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// ParseAndMatch parses CSV text and matches the resulting transactions
// against the user's open invoices. A *bankcsv.ParseError invalidates
// the whole upload.
func (s *ReconcileService) ParseAndMatch(ctx context.Context, userID int64, csvText string) (*MatchReport, error) {
	txns, err := s.parser.Parse(csvText)
	if err != nil {
		return nil, err
	}

	invoices, err := s.repo.ListInvoices(ctx, userID)
	if err != nil {
		return nil, err
	}

	matches := s.engine.Match(txns, invoices)

	autoMatched := 0
	for _, m := range matches {
		if m.IsAutoMatched {
			autoMatched++
		}
	}

	s.logger.Info("matched transactions",
		"user_id", userID,
		"transactions", len(txns),
		"invoices", len(invoices),
		"auto_matched", autoMatched)

	return &MatchReport{
		TransactionCount: len(txns),
		AutoMatchedCount: autoMatched,
		Matches:          matches,
	}, nil
}

// ConfirmMatches applies a confirmation batch. Partial failure is
// normal: the outcome carries per-entry results and errors.
func (s *ReconcileService) ConfirmMatches(ctx context.Context, userID int64, matches []reconcile.ConfirmedMatch) reconcile.Outcome {
	unlock := s.lockInvoices(selectedInvoiceIDs(matches))
	defer unlock()

	outcome := s.processor.Confirm(ctx, userID, matches)

	s.logger.Info("confirmed matches",
		"user_id", userID,
		"processed", outcome.ProcessedCount,
		"failed", outcome.FailedCount)
	return outcome
}

// RecordPayment records a single payment against an invoice and
// recomputes its status via the shared rule. Used both by the matched
// bank-transfer path and the plain payment endpoint.
func (s *ReconcileService) RecordPayment(ctx context.Context, userID int64, payment *billing.Payment) (billing.Status, error) {
	unlock := s.lockInvoices([]int64{payment.InvoiceID})
	defer unlock()

	inv, err := s.repo.InvoiceForUser(ctx, payment.InvoiceID, userID)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.CreatePayment(ctx, payment); err != nil {
		return "", err
	}

	totalPaid := inv.TotalPaid().Add(payment.AmountPaid)
	newStatus := billing.StatusFor(totalPaid, inv.Total, inv.DueDate, time.Now())
	if err := s.repo.UpdateInvoiceStatus(ctx, payment.InvoiceID, newStatus); err != nil {
		return "", err
	}

	s.logger.Info("recorded payment",
		"invoice_id", payment.InvoiceID,
		"amount", payment.AmountPaid,
		"new_status", newStatus)
	return newStatus, nil
}

// Invoices lists the user's invoices with payment history.
func (s *ReconcileService) Invoices(ctx context.Context, userID int64) ([]*billing.Invoice, error) {
	return s.repo.ListInvoices(ctx, userID)
}

// Invoice resolves one invoice scoped to the user.
func (s *ReconcileService) Invoice(ctx context.Context, userID, invoiceID int64) (*billing.Invoice, error) {
	return s.repo.InvoiceForUser(ctx, invoiceID, userID)
}

// InvoicePayments lists an invoice's payments newest first, after
// checking ownership.
func (s *ReconcileService) InvoicePayments(ctx context.Context, userID, invoiceID int64) ([]billing.Payment, error) {
	if _, err := s.repo.InvoiceForUser(ctx, invoiceID, userID); err != nil {
		return nil, err
	}
	return s.repo.PaymentsForInvoice(ctx, invoiceID)
}

// lockInvoices acquires the per-invoice locks for the given ids in
// sorted order and returns the matching unlock function.
func (s *ReconcileService) lockInvoices(ids []int64) func() {
	locks := make([]*sync.Mutex, 0, len(ids))

	s.mu.Lock()
	for _, id := range ids {
		l, ok := s.locks[id]
		if !ok {
			l = &sync.Mutex{}
			s.locks[id] = l
		}
		locks = append(locks, l)
	}
	s.mu.Unlock()

	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// selectedInvoiceIDs returns the distinct confirmed invoice ids,
// sorted. Sorting keeps lock acquisition order consistent across
// concurrent batches.
func selectedInvoiceIDs(matches []reconcile.ConfirmedMatch) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, m := range matches {
		if !m.Confirmed || m.SelectedInvoiceID == nil {
			continue
		}
		if id := *m.SelectedInvoiceID; !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
