package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvoice/reconcile-backend/internal/domain/billing"
)

// fakeBilling implements the three processor interfaces over in-memory
// maps, with per-method error injection.
type fakeBilling struct {
	invoices map[int64]*billing.Invoice

	createdPayments []billing.Payment
	nextPaymentID   int64
	createErr       error

	updatedStatuses map[int64]billing.Status
	updateErr       error
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{
		invoices:        make(map[int64]*billing.Invoice),
		updatedStatuses: make(map[int64]billing.Status),
		nextPaymentID:   100,
	}
}

func (f *fakeBilling) InvoiceForUser(_ context.Context, invoiceID, userID int64) (*billing.Invoice, error) {
	inv, ok := f.invoices[invoiceID]
	if !ok || inv.UserID != userID {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

func (f *fakeBilling) CreatePayment(_ context.Context, payment *billing.Payment) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextPaymentID++
	f.createdPayments = append(f.createdPayments, *payment)
	return f.nextPaymentID, nil
}

func (f *fakeBilling) UpdateInvoiceStatus(_ context.Context, invoiceID int64, status billing.Status) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedStatuses[invoiceID] = status
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func openInvoice(id, userID int64, total int64) *billing.Invoice {
	return &billing.Invoice{
		ID:            id,
		UserID:        userID,
		InvoiceNumber: "INV-002",
		Total:         decimal.NewFromInt(total),
		IssueDate:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
		Status:        billing.StatusSent,
	}
}

func confirmedMatch(invoiceID int64, amount int64) ConfirmedMatch {
	return ConfirmedMatch{
		TransactionData: TransactionData{
			Date:        time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromInt(amount),
			Description: "Payment INV-002",
			Reference:   "CHQ123456",
		},
		SelectedInvoiceID: &invoiceID,
		Confirmed:         true,
	}
}

func TestConfirm_FullPaymentMarksInvoicePaid(t *testing.T) {
	fake := newFakeBilling()
	fake.invoices[2] = openInvoice(2, 1, 3100)
	p := NewProcessor(fake, fake, fake, fixedNow)

	outcome := p.Confirm(context.Background(), 1, []ConfirmedMatch{confirmedMatch(2, 3100)})

	assert.Equal(t, 1, outcome.ProcessedCount)
	assert.Equal(t, 0, outcome.FailedCount)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, int64(2), outcome.Results[0].InvoiceID)
	assert.Equal(t, int64(101), outcome.Results[0].PaymentID)
	assert.Equal(t, billing.StatusPaid, outcome.Results[0].NewStatus)
	assert.Equal(t, billing.StatusPaid, fake.updatedStatuses[2])

	require.Len(t, fake.createdPayments, 1)
	payment := fake.createdPayments[0]
	assert.Equal(t, PaymentMode, payment.PaymentMode)
	assert.Equal(t, "Payment INV-002 | Ref: CHQ123456", payment.Notes)
	assert.True(t, decimal.NewFromInt(3100).Equal(payment.AmountPaid))
}

func TestConfirm_PartialPaymentBeforeDueDate(t *testing.T) {
	fake := newFakeBilling()
	fake.invoices[2] = openInvoice(2, 1, 3100)
	p := NewProcessor(fake, fake, fake, fixedNow)

	outcome := p.Confirm(context.Background(), 1, []ConfirmedMatch{confirmedMatch(2, 1000)})

	require.Len(t, outcome.Results, 1)
	assert.Equal(t, billing.StatusPartiallyPaid, outcome.Results[0].NewStatus)
}

func TestConfirm_PartialPaymentPastDueDate(t *testing.T) {
	fake := newFakeBilling()
	fake.invoices[2] = openInvoice(2, 1, 3100)
	pastDue := func() time.Time {
		return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	}
	p := NewProcessor(fake, fake, fake, pastDue)

	outcome := p.Confirm(context.Background(), 1, []ConfirmedMatch{confirmedMatch(2, 1000)})

	require.Len(t, outcome.Results, 1)
	assert.Equal(t, billing.StatusOverdue, outcome.Results[0].NewStatus)
}

func TestConfirm_ExistingPaymentsCountTowardTotal(t *testing.T) {
	fake := newFakeBilling()
	inv := openInvoice(2, 1, 3100)
	inv.Payments = []billing.Payment{{AmountPaid: decimal.NewFromInt(2100)}}
	fake.invoices[2] = inv
	p := NewProcessor(fake, fake, fake, fixedNow)

	outcome := p.Confirm(context.Background(), 1, []ConfirmedMatch{confirmedMatch(2, 1000)})

	require.Len(t, outcome.Results, 1)
	assert.Equal(t, billing.StatusPaid, outcome.Results[0].NewStatus)
}

func TestConfirm_UnconfirmedAndUnselectedEntriesSkipped(t *testing.T) {
	fake := newFakeBilling()
	fake.invoices[2] = openInvoice(2, 1, 3100)
	p := NewProcessor(fake, fake, fake, fixedNow)

	unconfirmed := confirmedMatch(2, 3100)
	unconfirmed.Confirmed = false
	unselected := confirmedMatch(2, 3100)
	unselected.SelectedInvoiceID = nil

	outcome := p.Confirm(context.Background(), 1, []ConfirmedMatch{unconfirmed, unselected})

	assert.Equal(t, 0, outcome.ProcessedCount)
	assert.Equal(t, 0, outcome.FailedCount)
	assert.Empty(t, fake.createdPayments)
	assert.Empty(t, fake.updatedStatuses)
}

func TestConfirm_BadEntryDoesNotAbortBatch(t *testing.T) {
	fake := newFakeBilling()
	fake.invoices[2] = openInvoice(2, 1, 3100)
	p := NewProcessor(fake, fake, fake, fixedNow)

	batch := []ConfirmedMatch{
		confirmedMatch(999, 500), // no such invoice
		confirmedMatch(2, 3100),
	}

	outcome := p.Confirm(context.Background(), 1, batch)

	assert.Equal(t, 1, outcome.ProcessedCount)
	assert.Equal(t, 1, outcome.FailedCount)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, ErrInvoiceNotFound.Error(), outcome.Errors[0].Error)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, int64(2), outcome.Results[0].InvoiceID)
	assert.Equal(t, billing.StatusPaid, fake.updatedStatuses[2])
}

func TestConfirm_OtherUsersInvoiceRejected(t *testing.T) {
	fake := newFakeBilling()
	fake.invoices[2] = openInvoice(2, 7, 3100)
	p := NewProcessor(fake, fake, fake, fixedNow)

	outcome := p.Confirm(context.Background(), 1, []ConfirmedMatch{confirmedMatch(2, 3100)})

	assert.Equal(t, 0, outcome.ProcessedCount)
	assert.Equal(t, 1, outcome.FailedCount)
	assert.Empty(t, fake.createdPayments)
}

func TestConfirm_EmptyReferenceRecordedAsNA(t *testing.T) {
	fake := newFakeBilling()
	fake.invoices[2] = openInvoice(2, 1, 3100)
	p := NewProcessor(fake, fake, fake, fixedNow)

	match := confirmedMatch(2, 3100)
	match.TransactionData.Reference = ""

	p.Confirm(context.Background(), 1, []ConfirmedMatch{match})

	require.Len(t, fake.createdPayments, 1)
	assert.Equal(t, "Payment INV-002 | Ref: N/A", fake.createdPayments[0].Notes)
}

func TestConfirm_PaymentWriteFailureReported(t *testing.T) {
	fake := newFakeBilling()
	fake.invoices[2] = openInvoice(2, 1, 3100)
	fake.createErr = errors.New("disk full")
	p := NewProcessor(fake, fake, fake, fixedNow)

	outcome := p.Confirm(context.Background(), 1, []ConfirmedMatch{confirmedMatch(2, 3100)})

	assert.Equal(t, 0, outcome.ProcessedCount)
	require.Len(t, outcome.Errors, 1)
	assert.Contains(t, outcome.Errors[0].Error, "disk full")
	assert.Empty(t, fake.updatedStatuses)
}

func TestConfirm_StatusWriteFailureReported(t *testing.T) {
	fake := newFakeBilling()
	fake.invoices[2] = openInvoice(2, 1, 3100)
	fake.updateErr = errors.New("locked")
	p := NewProcessor(fake, fake, fake, fixedNow)

	outcome := p.Confirm(context.Background(), 1, []ConfirmedMatch{confirmedMatch(2, 3100)})

	assert.Equal(t, 0, outcome.ProcessedCount)
	assert.Equal(t, 1, outcome.FailedCount)
	require.Len(t, outcome.Errors, 1)
	assert.Contains(t, outcome.Errors[0].Error, "updating invoice status")
}

func TestConfirm_EmptyBatch(t *testing.T) {
	fake := newFakeBilling()
	p := NewProcessor(fake, fake, fake, fixedNow)

	outcome := p.Confirm(context.Background(), 1, nil)

	assert.Equal(t, 0, outcome.ProcessedCount)
	assert.Equal(t, 0, outcome.FailedCount)
	assert.Empty(t, outcome.Results)
	assert.Empty(t, outcome.Errors)
}
