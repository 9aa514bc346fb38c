package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/finvoice/reconcile-backend/internal/domain/billing"
	"github.com/finvoice/reconcile-backend/internal/domain/reconcile"
)

// Storage provides SQLite database access for invoices, clients and
// payments. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

const dateLayout = time.RFC3339

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// ListInvoices returns all invoices for a user, newest first, each with
// its client and payment history.
func (s *Storage) ListInvoices(ctx context.Context, userID int64) ([]*billing.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT i.id, i.user_id, i.invoice_number, i.total, i.issue_date, i.due_date, i.status,
	       c.id, c.name, c.email, c.phone
	FROM invoices i
	LEFT JOIN clients c ON c.id = i.client_id
	WHERE i.user_id = ?
	ORDER BY i.created_at DESC, i.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*billing.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, inv := range invoices {
		payments, err := s.paymentsOldestFirst(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		inv.Payments = payments
	}

	return invoices, nil
}

// InvoiceForUser resolves one invoice scoped to a user.
func (s *Storage) InvoiceForUser(ctx context.Context, invoiceID, userID int64) (*billing.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT i.id, i.user_id, i.invoice_number, i.total, i.issue_date, i.due_date, i.status,
	       c.id, c.name, c.email, c.phone
	FROM invoices i
	LEFT JOIN clients c ON c.id = i.client_id
	WHERE i.id = ? AND i.user_id = ?
	`, invoiceID, userID)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reconcile.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentsOldestFirst(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments

	return inv, nil
}

// UpdateInvoiceStatus persists a recomputed status.
func (s *Storage) UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status billing.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = ? WHERE id = ?`, string(status), invoiceID)
	if err != nil {
		return fmt.Errorf("updating invoice %d status: %w", invoiceID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return reconcile.ErrInvoiceNotFound
	}
	return nil
}

// CreateClient inserts a client for a user.
func (s *Storage) CreateClient(ctx context.Context, client *billing.Client, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO clients (user_id, name, email, phone) VALUES (?, ?, ?, ?)
	`, userID, client.Name, client.Email, client.Phone)
	if err != nil {
		return 0, fmt.Errorf("creating client %q: %w", client.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	client.ID = id
	return id, nil
}

// CreateInvoice inserts an invoice. The invoice's client must already
// exist.
func (s *Storage) CreateInvoice(ctx context.Context, inv *billing.Invoice) (int64, error) {
	status := inv.Status
	if status == "" {
		status = billing.StatusDraft
	}

	res, err := s.db.ExecContext(ctx, `
	INSERT INTO invoices (user_id, client_id, invoice_number, total, issue_date, due_date, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.UserID,
		inv.Client.ID,
		inv.InvoiceNumber,
		inv.Total.String(),
		inv.IssueDate.Format(dateLayout),
		inv.DueDate.Format(dateLayout),
		string(status),
		time.Now().Format(dateLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("creating invoice %q: %w", inv.InvoiceNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	inv.ID = id
	inv.Status = status
	return id, nil
}

// CreatePayment inserts a payment record.
func (s *Storage) CreatePayment(ctx context.Context, payment *billing.Payment) (int64, error) {
	if payment.Reference == "" {
		payment.Reference = uuid.NewString()
	}

	res, err := s.db.ExecContext(ctx, `
	INSERT INTO payments (invoice_id, amount_paid, payment_date, payment_mode, reference, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		payment.InvoiceID,
		payment.AmountPaid.String(),
		payment.PaymentDate.Format(dateLayout),
		payment.PaymentMode,
		payment.Reference,
		payment.Notes,
		time.Now().Format(dateLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("creating payment for invoice %d: %w", payment.InvoiceID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	payment.ID = id
	return id, nil
}

// PaymentsForInvoice returns payments newest first.
func (s *Storage) PaymentsForInvoice(ctx context.Context, invoiceID int64) ([]billing.Payment, error) {
	return s.payments(ctx, invoiceID, "DESC")
}

// paymentsOldestFirst keeps invoice payment history in insertion order.
func (s *Storage) paymentsOldestFirst(ctx context.Context, invoiceID int64) ([]billing.Payment, error) {
	return s.payments(ctx, invoiceID, "ASC")
}

func (s *Storage) payments(ctx context.Context, invoiceID int64, direction string) ([]billing.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, invoice_id, amount_paid, payment_date, payment_mode, reference, notes
	FROM payments WHERE invoice_id = ?
	ORDER BY payment_date `+direction+`, id `+direction,
		invoiceID)
	if err != nil {
		return nil, fmt.Errorf("listing payments for invoice %d: %w", invoiceID, err)
	}
	defer rows.Close()

	var payments []billing.Payment
	for rows.Next() {
		var p billing.Payment
		var amount, date string
		var mode, reference, notes sql.NullString
		if err := rows.Scan(&p.ID, &p.InvoiceID, &amount, &date, &mode, &reference, &notes); err != nil {
			return nil, err
		}
		p.AmountPaid, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("payment %d has bad amount %q: %w", p.ID, amount, err)
		}
		p.PaymentDate, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("payment %d has bad date %q: %w", p.ID, date, err)
		}
		p.PaymentMode = mode.String
		p.Reference = reference.String
		p.Notes = notes.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*billing.Invoice, error) {
	var inv billing.Invoice
	var total, issueDate, dueDate, status string
	var clientID sql.NullInt64
	var clientName, clientEmail, clientPhone sql.NullString

	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.InvoiceNumber, &total, &issueDate, &dueDate, &status,
		&clientID, &clientName, &clientEmail, &clientPhone,
	)
	if err != nil {
		return nil, err
	}

	inv.Total, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("invoice %d has bad total %q: %w", inv.ID, total, err)
	}
	inv.IssueDate, err = time.Parse(dateLayout, issueDate)
	if err != nil {
		return nil, fmt.Errorf("invoice %d has bad issue date %q: %w", inv.ID, issueDate, err)
	}
	inv.DueDate, err = time.Parse(dateLayout, dueDate)
	if err != nil {
		return nil, fmt.Errorf("invoice %d has bad due date %q: %w", inv.ID, dueDate, err)
	}
	inv.Status = billing.Status(status)
	inv.Client = billing.Client{
		ID:    clientID.Int64,
		Name:  clientName.String,
		Email: clientEmail.String,
		Phone: clientPhone.String,
	}

	return &inv, nil
}
