// Package reconcile applies user-confirmed transaction matches as
// payments.
//
// This is the only side-effecting component of the reconciliation
// core. Failures are isolated per entry: every entry produces either a
// success record or an error record, and the batch always runs to
// completion. A single bad invoice id never aborts its siblings.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvoice/reconcile-backend/internal/domain/billing"
)

// PaymentMode is the fixed mode recorded for reconciled bank credits.
const PaymentMode = "Bank Transfer"

// ErrInvoiceNotFound is returned by InvoiceLookup when an invoice does
// not exist or is not owned by the requesting user.
var ErrInvoiceNotFound = errors.New("invoice not found")

// InvoiceLookup resolves an invoice, with payment history, scoped to a
// user.
type InvoiceLookup interface {
	InvoiceForUser(ctx context.Context, invoiceID, userID int64) (*billing.Invoice, error)
}

// PaymentWriter persists a payment record and returns its id.
type PaymentWriter interface {
	CreatePayment(ctx context.Context, payment *billing.Payment) (int64, error)
}

// StatusWriter persists a recomputed invoice status.
type StatusWriter interface {
	UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status billing.Status) error
}

// TransactionData is the transaction half of a confirmed match as
// submitted by the review UI.
type TransactionData struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

// ConfirmedMatch is one user decision from the review screen. Only
// entries with Confirmed set and a selected invoice produce a payment;
// everything else is skipped silently.
type ConfirmedMatch struct {
	TransactionData   TransactionData `json:"transactionData"`
	SelectedInvoiceID *int64          `json:"selectedInvoiceId"`
	Confirmed         bool            `json:"confirmed"`
}

// EntryResult records one successfully applied match.
type EntryResult struct {
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
	InvoiceID         int64           `json:"invoiceId"`
	PaymentID         int64           `json:"paymentId"`
	NewStatus         billing.Status  `json:"newStatus"`
}

// EntryError records one failed entry; the batch continues past it.
type EntryError struct {
	Transaction TransactionData `json:"transaction"`
	Error       string          `json:"error"`
}

// Outcome summarizes a confirmation batch.
type Outcome struct {
	ProcessedCount int           `json:"processedCount"`
	FailedCount    int           `json:"failedCount"`
	Results        []EntryResult `json:"results"`
	Errors         []EntryError  `json:"errors,omitempty"`
}

// Processor applies confirmation batches against the invoicing
// subsystem's writers.
type Processor struct {
	invoices InvoiceLookup
	payments PaymentWriter
	statuses StatusWriter
	now      func() time.Time
}

// NewProcessor creates a processor. now may be nil, in which case
// wall-clock time is used for the status rule.
func NewProcessor(invoices InvoiceLookup, payments PaymentWriter, statuses StatusWriter, now func() time.Time) *Processor {
	if now == nil {
		now = time.Now
	}
	return &Processor{
		invoices: invoices,
		payments: payments,
		statuses: statuses,
		now:      now,
	}
}

// Confirm processes a batch of confirmed matches for one user. For each
// confirmed entry it records a Bank Transfer payment, recomputes total
// paid, and persists the invoice status from the shared rule. Results
// and errors are collected per entry; partial failure is expected.
func (p *Processor) Confirm(ctx context.Context, userID int64, matches []ConfirmedMatch) Outcome {
	var outcome Outcome

	for _, match := range matches {
		if !match.Confirmed || match.SelectedInvoiceID == nil {
			continue
		}

		result, err := p.applyOne(ctx, userID, *match.SelectedInvoiceID, match.TransactionData)
		if err != nil {
			outcome.Errors = append(outcome.Errors, EntryError{
				Transaction: match.TransactionData,
				Error:       err.Error(),
			})
			continue
		}
		outcome.Results = append(outcome.Results, *result)
	}

	outcome.ProcessedCount = len(outcome.Results)
	outcome.FailedCount = len(outcome.Errors)
	return outcome
}

// applyOne is the per-entry unit of work: resolve invoice, create
// payment, recompute and persist status.
func (p *Processor) applyOne(ctx context.Context, userID, invoiceID int64, td TransactionData) (*EntryResult, error) {
	inv, err := p.invoices.InvoiceForUser(ctx, invoiceID, userID)
	if err != nil {
		return nil, err
	}

	reference := td.Reference
	if reference == "" {
		reference = "N/A"
	}

	paymentID, err := p.payments.CreatePayment(ctx, &billing.Payment{
		InvoiceID:   invoiceID,
		AmountPaid:  td.Amount,
		PaymentDate: td.Date,
		PaymentMode: PaymentMode,
		Notes:       fmt.Sprintf("%s | Ref: %s", td.Description, reference),
	})
	if err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}

	totalPaid := inv.TotalPaid().Add(td.Amount)
	newStatus := billing.StatusFor(totalPaid, inv.Total, inv.DueDate, p.now())

	if err := p.statuses.UpdateInvoiceStatus(ctx, invoiceID, newStatus); err != nil {
		return nil, fmt.Errorf("updating invoice status: %w", err)
	}

	return &EntryResult{
		TransactionAmount: td.Amount,
		InvoiceID:         invoiceID,
		PaymentID:         paymentID,
		NewStatus:         newStatus,
	}, nil
}
