package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvoice/reconcile-backend/internal/domain/billing"
)

// Seed populates a repository with demo clients and invoices for local
// development and the offline CLI. Idempotency is the caller's problem;
// run it against a fresh database.
func Seed(ctx context.Context, repo Repository, userID int64) error {
	clients := []*billing.Client{
		{Name: "Acme Corporation", Email: "contact@acme.com", Phone: "+1-555-0123"},
		{Name: "TechStart LLC", Email: "info@techstart.com", Phone: "+1-555-0456"},
		{Name: "Global Industries", Email: "hello@globalindustries.com", Phone: "+1-555-0789"},
	}
	for _, c := range clients {
		if _, err := repo.CreateClient(ctx, c, userID); err != nil {
			return fmt.Errorf("seeding client %q: %w", c.Name, err)
		}
	}

	invoices := []*billing.Invoice{
		{
			UserID:        userID,
			InvoiceNumber: "INV-001",
			Total:         decimal.NewFromInt(5500),
			IssueDate:     date(2026, 1, 1),
			DueDate:       date(2026, 1, 31),
			Status:        billing.StatusPaid,
			Client:        *clients[0],
		},
		{
			UserID:        userID,
			InvoiceNumber: "INV-002",
			Total:         decimal.NewFromInt(3100),
			IssueDate:     date(2026, 1, 5),
			DueDate:       date(2026, 2, 5),
			Status:        billing.StatusSent,
			Client:        *clients[1],
		},
		{
			UserID:        userID,
			InvoiceNumber: "INV-003",
			Total:         decimal.NewFromInt(8200),
			IssueDate:     date(2026, 1, 10),
			DueDate:       date(2026, 2, 10),
			Status:        billing.StatusSent,
			Client:        *clients[2],
		},
	}
	for _, inv := range invoices {
		if _, err := repo.CreateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("seeding invoice %q: %w", inv.InvoiceNumber, err)
		}
	}

	// INV-001 is fully settled so reconciliation never proposes it.
	if _, err := repo.CreatePayment(ctx, &billing.Payment{
		InvoiceID:   invoices[0].ID,
		AmountPaid:  decimal.NewFromInt(5500),
		PaymentDate: date(2026, 1, 20),
		PaymentMode: "UPI",
		Notes:       "Full settlement",
	}); err != nil {
		return fmt.Errorf("seeding payment: %w", err)
	}

	return nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
