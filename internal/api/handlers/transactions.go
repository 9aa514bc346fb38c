package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finvoice/reconcile-backend/internal/api/dto"
	"github.com/finvoice/reconcile-backend/internal/api/middleware"
	"github.com/finvoice/reconcile-backend/internal/application/service"
	"github.com/finvoice/reconcile-backend/internal/domain/bankcsv"
	"github.com/finvoice/reconcile-backend/internal/domain/billing"
	"github.com/finvoice/reconcile-backend/internal/domain/reconcile"
)

// TransactionsHandler handles CSV upload, matching and confirmation.
type TransactionsHandler struct {
	svc *service.ReconcileService
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *service.ReconcileService) *TransactionsHandler {
	return &TransactionsHandler{svc: svc}
}

// Upload handles POST /api/transactions/upload - parses CSV text and
// returns raw matches.
func (h *TransactionsHandler) Upload(c *gin.Context) {
	report, ok := h.parseAndMatch(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.UploadResponse{
		Success:          true,
		TransactionCount: report.TransactionCount,
		Matches:          report.Matches,
	})
}

// GetMatches handles POST /api/transactions/get-matches - parses CSV
// text and returns flattened suggestions for manual review.
func (h *TransactionsHandler) GetMatches(c *gin.Context) {
	report, ok := h.parseAndMatch(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.ToMatchesResponse(report))
}

// parseAndMatch binds the upload request and runs the match pipeline,
// writing the error response itself when something fails.
func (h *TransactionsHandler) parseAndMatch(c *gin.Context) (*service.MatchReport, bool) {
	var req dto.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("CSV data is required"))
		return nil, false
	}

	report, err := h.svc.ParseAndMatch(c.Request.Context(), middleware.UserID(c), req.CSVData)
	if err != nil {
		var parseErr *bankcsv.ParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusBadRequest, dto.ParseFailure(parseErr.Reason))
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return nil, false
	}

	if report.TransactionCount == 0 {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("no valid transactions found in CSV"))
		return nil, false
	}

	return report, true
}

// RecordPayment handles POST /api/transactions/record-payment - records
// a payment for one matched transaction.
func (h *TransactionsHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invoice ID, amount, and date are required"))
		return
	}

	reference := req.Reference
	if reference == "" {
		reference = "N/A"
	}

	payment := &billing.Payment{
		InvoiceID:   req.InvoiceID,
		AmountPaid:  req.Amount,
		PaymentDate: req.Date,
		PaymentMode: reconcile.PaymentMode,
		Notes:       req.Description + " | Ref: " + reference,
	}

	newStatus, err := h.svc.RecordPayment(c.Request.Context(), middleware.UserID(c), payment)
	if err != nil {
		if errors.Is(err, reconcile.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, dto.NotFoundError("invoice"))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusCreated, dto.RecordPaymentResponse{
		Success:   true,
		Payment:   *payment,
		NewStatus: newStatus,
	})
}

// ConfirmMatches handles POST /api/transactions/confirm-matches -
// applies the user's review decisions as payments. Partial failure is
// reported per entry, not as an HTTP error.
func (h *TransactionsHandler) ConfirmMatches(c *gin.Context) {
	var req dto.ConfirmMatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Matches) == 0 {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("matches array is required"))
		return
	}

	outcome := h.svc.ConfirmMatches(c.Request.Context(), middleware.UserID(c), req.ToDomain())
	c.JSON(http.StatusOK, outcome)
}
