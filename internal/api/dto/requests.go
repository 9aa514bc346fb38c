package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvoice/reconcile-backend/internal/domain/reconcile"
)

// UploadRequest carries raw CSV text for parsing and matching.
type UploadRequest struct {
	CSVData string `json:"csvData" binding:"required"`
}

// RecordPaymentRequest records a payment from one matched transaction.
type RecordPaymentRequest struct {
	InvoiceID   int64           `json:"invoiceId" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Date        time.Time       `json:"date" binding:"required"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

// CreatePaymentRequest records a plain payment with a caller-chosen
// mode (cash, UPI, cheque, ...).
type CreatePaymentRequest struct {
	InvoiceID   int64           `json:"invoice_id" binding:"required"`
	AmountPaid  decimal.Decimal `json:"amount_paid" binding:"required"`
	PaymentDate time.Time       `json:"payment_date" binding:"required"`
	PaymentMode string          `json:"payment_mode"`
	Notes       string          `json:"notes"`
}

// ConfirmMatchesRequest carries the user's review decisions.
type ConfirmMatchesRequest struct {
	Matches []ConfirmedMatchRequest `json:"matches" binding:"required"`
}

// ConfirmedMatchRequest is one review decision.
type ConfirmedMatchRequest struct {
	TransactionData   TransactionDataRequest `json:"transactionData"`
	SelectedInvoiceID *int64                 `json:"selectedInvoiceId"`
	Confirmed         bool                   `json:"confirmed"`
}

// TransactionDataRequest is the transaction half of a confirmed match.
type TransactionDataRequest struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

// ToDomain converts the request to the domain batch.
func (r ConfirmMatchesRequest) ToDomain() []reconcile.ConfirmedMatch {
	matches := make([]reconcile.ConfirmedMatch, 0, len(r.Matches))
	for _, m := range r.Matches {
		matches = append(matches, reconcile.ConfirmedMatch{
			TransactionData: reconcile.TransactionData{
				Date:        m.TransactionData.Date,
				Amount:      m.TransactionData.Amount,
				Description: m.TransactionData.Description,
				Reference:   m.TransactionData.Reference,
			},
			SelectedInvoiceID: m.SelectedInvoiceID,
			Confirmed:         m.Confirmed,
		})
	}
	return matches
}
