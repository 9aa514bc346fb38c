package storage

import (
	"context"
	"sort"

	"github.com/finvoice/reconcile-backend/internal/domain/billing"
	"github.com/finvoice/reconcile-backend/internal/domain/reconcile"
)

// MockRepository is an in-memory implementation of Repository for
// testing. It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	invoices      map[int64]*billing.Invoice
	payments      map[int64][]billing.Payment // keyed by invoice id
	nextInvoiceID int64
	nextClientID  int64
	nextPaymentID int64

	// Hooks for test assertions
	CreatePaymentCalled bool
	LastCreatedPayment  *billing.Payment
	UpdateStatusCalled  bool
	LastUpdatedStatus   billing.Status

	// Error injection for testing error paths
	CreatePaymentErr error
	UpdateStatusErr  error
	ListInvoicesErr  error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		invoices:      make(map[int64]*billing.Invoice),
		payments:      make(map[int64][]billing.Payment),
		nextInvoiceID: 1,
		nextClientID:  1,
		nextPaymentID: 1,
	}
}

// AddInvoice seeds the mock with an invoice, assigning ids as needed.
func (m *MockRepository) AddInvoice(inv *billing.Invoice) *billing.Invoice {
	if inv.ID == 0 {
		inv.ID = m.nextInvoiceID
		m.nextInvoiceID++
	} else if inv.ID >= m.nextInvoiceID {
		m.nextInvoiceID = inv.ID + 1
	}
	if inv.Client.ID == 0 && inv.Client.Name != "" {
		inv.Client.ID = m.nextClientID
		m.nextClientID++
	}
	m.invoices[inv.ID] = inv
	m.payments[inv.ID] = append([]billing.Payment{}, inv.Payments...)
	return inv
}

func (m *MockRepository) ListInvoices(_ context.Context, userID int64) ([]*billing.Invoice, error) {
	if m.ListInvoicesErr != nil {
		return nil, m.ListInvoicesErr
	}
	var result []*billing.Invoice
	for _, inv := range m.invoices {
		if inv.UserID == userID {
			inv.Payments = m.payments[inv.ID]
			result = append(result, inv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockRepository) InvoiceForUser(_ context.Context, invoiceID, userID int64) (*billing.Invoice, error) {
	inv, ok := m.invoices[invoiceID]
	if !ok || inv.UserID != userID {
		return nil, reconcile.ErrInvoiceNotFound
	}
	inv.Payments = m.payments[invoiceID]
	return inv, nil
}

func (m *MockRepository) UpdateInvoiceStatus(_ context.Context, invoiceID int64, status billing.Status) error {
	m.UpdateStatusCalled = true
	if m.UpdateStatusErr != nil {
		return m.UpdateStatusErr
	}
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return reconcile.ErrInvoiceNotFound
	}
	inv.Status = status
	m.LastUpdatedStatus = status
	return nil
}

func (m *MockRepository) CreateClient(_ context.Context, client *billing.Client, _ int64) (int64, error) {
	client.ID = m.nextClientID
	m.nextClientID++
	return client.ID, nil
}

func (m *MockRepository) CreateInvoice(_ context.Context, inv *billing.Invoice) (int64, error) {
	m.AddInvoice(inv)
	return inv.ID, nil
}

func (m *MockRepository) CreatePayment(_ context.Context, payment *billing.Payment) (int64, error) {
	m.CreatePaymentCalled = true
	if m.CreatePaymentErr != nil {
		return 0, m.CreatePaymentErr
	}
	payment.ID = m.nextPaymentID
	m.nextPaymentID++
	m.payments[payment.InvoiceID] = append(m.payments[payment.InvoiceID], *payment)
	m.LastCreatedPayment = payment
	return payment.ID, nil
}

func (m *MockRepository) PaymentsForInvoice(_ context.Context, invoiceID int64) ([]billing.Payment, error) {
	payments := append([]billing.Payment{}, m.payments[invoiceID]...)
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].ID > payments[j].ID
		}
		return payments[i].PaymentDate.After(payments[j].PaymentDate)
	})
	return payments, nil
}

func (m *MockRepository) Close() error { return nil }
