// Package billing holds the invoice-side entities the reconciliation
// core reads, plus the shared status rule applied whenever a payment is
// recorded against an invoice.
//
// Invoices are owned by the invoicing subsystem; this package never
// mutates them directly. Status transitions go through StatusFor so the
// bank-transfer confirmation path and the plain payment path agree on
// the rule.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft         Status = "Draft"
	StatusSent          Status = "Sent"
	StatusPartiallyPaid Status = "Partially Paid"
	StatusPaid          Status = "Paid"
	StatusOverdue       Status = "Overdue"
)

// Client is the party an invoice is billed to.
type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Payment is a recorded payment against an invoice.
type Payment struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PaymentDate time.Time       `json:"payment_date"`
	PaymentMode string          `json:"payment_mode"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// Invoice is an invoice together with its client and payment history.
type Invoice struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Status        Status          `json:"status"`
	Client        Client          `json:"client"`
	Payments      []Payment       `json:"payments"`
}

// TotalPaid sums all recorded payments.
func (inv *Invoice) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range inv.Payments {
		total = total.Add(p.AmountPaid)
	}
	return total
}

// Outstanding is the invoice total minus everything already paid.
// It can go negative when an invoice was overpaid.
func (inv *Invoice) Outstanding() decimal.Decimal {
	return inv.Total.Sub(inv.TotalPaid())
}

// StatusFor computes the invoice status after a payment event.
//
// The rule is evaluated against wall-clock "today" at recording time
// and is deliberately not re-evaluated when the clock later passes the
// due date without a new payment.
func StatusFor(totalPaid, total decimal.Decimal, dueDate, today time.Time) Status {
	pastDue := today.After(dueDate)
	switch {
	case totalPaid.GreaterThanOrEqual(total):
		return StatusPaid
	case totalPaid.IsPositive() && pastDue:
		return StatusOverdue
	case totalPaid.IsPositive():
		return StatusPartiallyPaid
	case pastDue:
		return StatusOverdue
	default:
		return StatusSent
	}
}
