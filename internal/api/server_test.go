package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvoice/reconcile-backend/internal/api/dto"
	"github.com/finvoice/reconcile-backend/internal/application/service"
	"github.com/finvoice/reconcile-backend/internal/domain/bankcsv"
	"github.com/finvoice/reconcile-backend/internal/domain/billing"
	"github.com/finvoice/reconcile-backend/internal/domain/matching"
	"github.com/finvoice/reconcile-backend/internal/domain/reconcile"
	"github.com/finvoice/reconcile-backend/internal/domain/scoring"
	"github.com/finvoice/reconcile-backend/internal/infrastructure/storage"
)

func newTestServer(repo storage.Repository) *Server {
	parser := bankcsv.NewParser(bankcsv.DefaultPolicy())
	engine := matching.NewEngine(scoring.NewScorer(scoring.DefaultConfig()), matching.DefaultConfig())
	svc := service.NewReconcileService(parser, engine, repo, nil)
	return NewServer(DefaultConfig(), svc, nil)
}

func seededRepo() *storage.MockRepository {
	repo := storage.NewMockRepository()
	repo.AddInvoice(&billing.Invoice{
		ID:            2,
		UserID:        1,
		InvoiceNumber: "INV-002",
		Total:         decimal.NewFromInt(3100),
		IssueDate:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
		Status:        billing.StatusSent,
		Client:        billing.Client{Name: "TechStart LLC"},
	})
	return repo
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(storage.NewMockRepository())

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUpload(t *testing.T) {
	srv := newTestServer(seededRepo())

	csv := "Date,Amount,Description,Reference\n" +
		"2026-01-10,3100.00,Payment INV-002,CHQ123456\n"
	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/upload",
		dto.UploadRequest{CSVData: csv})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TransactionCount)
	require.Len(t, resp.Matches, 1)
	require.NotNil(t, resp.Matches[0].BestMatch)
	assert.Equal(t, "INV-002", resp.Matches[0].BestMatch.Invoice.InvoiceNumber)
}

func TestUpload_MissingBody(t *testing.T) {
	srv := newTestServer(seededRepo())

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/upload", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_ParseErrorReturns400(t *testing.T) {
	srv := newTestServer(seededRepo())

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/upload",
		dto.UploadRequest{CSVData: "garbage"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr dto.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "parse_error", apiErr.Code)
}

func TestUpload_NoValidTransactions(t *testing.T) {
	srv := newTestServer(seededRepo())

	// Header only plus a debit row: parse succeeds, zero credits.
	csv := "Date,Amount,Description\n2026-01-10,(500.00),Refund issued\n"
	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/upload",
		dto.UploadRequest{CSVData: csv})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no valid transactions")
}

func TestGetMatches_FlattensSuggestions(t *testing.T) {
	srv := newTestServer(seededRepo())

	csv := "Date,Amount,Description,Reference\n" +
		"2026-01-10,3100.00,Payment INV-002 TechStart LLC,CHQ123456\n"
	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/get-matches",
		dto.UploadRequest{CSVData: csv})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.MatchesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.AutoMatchedCount)
	require.Len(t, resp.Matches, 1)
	match := resp.Matches[0]
	assert.True(t, match.IsAutoMatched)
	require.NotNil(t, match.BestMatch)
	assert.Equal(t, int64(2), match.BestMatch.InvoiceID)
	assert.Equal(t, "TechStart LLC", match.BestMatch.ClientName)
	assert.Equal(t, scoring.ConfidenceHigh, match.BestMatch.Confidence)
}

func TestConfirmMatches(t *testing.T) {
	repo := seededRepo()
	srv := newTestServer(repo)

	id := int64(2)
	req := dto.ConfirmMatchesRequest{Matches: []dto.ConfirmedMatchRequest{{
		TransactionData: dto.TransactionDataRequest{
			Date:        time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromInt(3100),
			Description: "Payment INV-002",
			Reference:   "CHQ123456",
		},
		SelectedInvoiceID: &id,
		Confirmed:         true,
	}}}

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/confirm-matches", req)

	require.Equal(t, http.StatusOK, rec.Code)

	var outcome reconcile.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, 1, outcome.ProcessedCount)
	assert.Equal(t, 0, outcome.FailedCount)
	assert.Equal(t, billing.StatusPaid, repo.LastUpdatedStatus)
}

func TestConfirmMatches_PartialFailureStays200(t *testing.T) {
	srv := newTestServer(seededRepo())

	good, bad := int64(2), int64(999)
	req := dto.ConfirmMatchesRequest{Matches: []dto.ConfirmedMatchRequest{
		{
			TransactionData: dto.TransactionDataRequest{
				Date:   time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
				Amount: decimal.NewFromInt(1000),
			},
			SelectedInvoiceID: &good,
			Confirmed:         true,
		},
		{
			TransactionData: dto.TransactionDataRequest{
				Amount: decimal.NewFromInt(500),
			},
			SelectedInvoiceID: &bad,
			Confirmed:         true,
		},
	}}

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/confirm-matches", req)

	require.Equal(t, http.StatusOK, rec.Code)

	var outcome reconcile.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, 1, outcome.ProcessedCount)
	assert.Equal(t, 1, outcome.FailedCount)
}

func TestConfirmMatches_EmptyBatchRejected(t *testing.T) {
	srv := newTestServer(seededRepo())

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/confirm-matches",
		dto.ConfirmMatchesRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordPayment(t *testing.T) {
	repo := seededRepo()
	srv := newTestServer(repo)

	req := dto.RecordPaymentRequest{
		InvoiceID:   2,
		Amount:      decimal.NewFromInt(1000),
		Date:        time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Description: "Payment INV-002",
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/record-payment", req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.RecordPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, billing.StatusPartiallyPaid, resp.NewStatus)
	assert.Equal(t, reconcile.PaymentMode, resp.Payment.PaymentMode)
	assert.Equal(t, "Payment INV-002 | Ref: N/A", resp.Payment.Notes)
}

func TestRecordPayment_InvoiceNotFound(t *testing.T) {
	srv := newTestServer(seededRepo())

	req := dto.RecordPaymentRequest{
		InvoiceID: 999,
		Amount:    decimal.NewFromInt(1000),
		Date:      time.Now(),
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions/record-payment", req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePayment(t *testing.T) {
	srv := newTestServer(seededRepo())

	req := dto.CreatePaymentRequest{
		InvoiceID:   2,
		AmountPaid:  decimal.NewFromInt(3100),
		PaymentDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		PaymentMode: "UPI",
		Notes:       "settled in person",
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/payments", req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.RecordPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, billing.StatusPaid, resp.NewStatus)
	assert.Equal(t, "UPI", resp.Payment.PaymentMode)
}

func TestListInvoices(t *testing.T) {
	srv := newTestServer(seededRepo())

	rec := doJSON(t, srv, http.MethodGet, "/api/invoices", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var invoices []billing.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
	require.Len(t, invoices, 1)
	assert.Equal(t, "INV-002", invoices[0].InvoiceNumber)
}

func TestGetInvoice(t *testing.T) {
	srv := newTestServer(seededRepo())

	rec := doJSON(t, srv, http.MethodGet, "/api/invoices/2", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var inv billing.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, int64(2), inv.ID)
}

func TestGetInvoice_NotFound(t *testing.T) {
	srv := newTestServer(seededRepo())

	rec := doJSON(t, srv, http.MethodGet, "/api/invoices/999", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetInvoice_BadID(t *testing.T) {
	srv := newTestServer(seededRepo())

	rec := doJSON(t, srv, http.MethodGet, "/api/invoices/abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoicePayments(t *testing.T) {
	repo := seededRepo()
	srv := newTestServer(repo)

	// Settle the invoice first via the API, then read its history.
	doJSON(t, srv, http.MethodPost, "/api/payments", dto.CreatePaymentRequest{
		InvoiceID:   2,
		AmountPaid:  decimal.NewFromInt(3100),
		PaymentDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		PaymentMode: "UPI",
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/invoices/2/payments", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var payments []billing.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payments))
	require.Len(t, payments, 1)
	assert.Equal(t, "UPI", payments[0].PaymentMode)
}

func TestTenantScoping(t *testing.T) {
	repo := seededRepo()
	srv := newTestServer(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var invoices []billing.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
	assert.Empty(t, invoices)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(seededRepo())

	req := httptest.NewRequest(http.MethodOptions, "/api/invoices", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
