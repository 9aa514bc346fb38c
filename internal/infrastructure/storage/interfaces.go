package storage

import (
	"context"

	"github.com/finvoice/reconcile-backend/internal/domain/billing"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
//
// It satisfies reconcile.InvoiceLookup, reconcile.PaymentWriter and
// reconcile.StatusWriter so the confirmation processor can run directly
// against it.
type Repository interface {
	InvoiceRepository
	PaymentRepository
	Close() error
}

// InvoiceRepository handles invoice reads and status writes. Invoices
// are always loaded with their client and full payment history, scoped
// to the owning user.
type InvoiceRepository interface {
	// ListInvoices returns all invoices for a user, newest first.
	ListInvoices(ctx context.Context, userID int64) ([]*billing.Invoice, error)

	// InvoiceForUser resolves one invoice scoped to a user. Returns
	// reconcile.ErrInvoiceNotFound when absent or owned by someone else.
	InvoiceForUser(ctx context.Context, invoiceID, userID int64) (*billing.Invoice, error)

	// UpdateInvoiceStatus persists a recomputed status.
	UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status billing.Status) error

	// CreateClient and CreateInvoice exist for seeding and tests; the
	// invoicing subsystem owns invoice CRUD in production.
	CreateClient(ctx context.Context, client *billing.Client, userID int64) (int64, error)
	CreateInvoice(ctx context.Context, inv *billing.Invoice) (int64, error)
}

// PaymentRepository handles payment records.
type PaymentRepository interface {
	// CreatePayment inserts a payment and returns its id. An empty
	// reference is filled with a generated one.
	CreatePayment(ctx context.Context, payment *billing.Payment) (int64, error)

	// PaymentsForInvoice returns payments newest first.
	PaymentsForInvoice(ctx context.Context, invoiceID int64) ([]billing.Payment, error)
}
