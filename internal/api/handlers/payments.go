package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finvoice/reconcile-backend/internal/api/dto"
	"github.com/finvoice/reconcile-backend/internal/api/middleware"
	"github.com/finvoice/reconcile-backend/internal/application/service"
	"github.com/finvoice/reconcile-backend/internal/domain/billing"
	"github.com/finvoice/reconcile-backend/internal/domain/reconcile"
)

// PaymentsHandler records plain payments (cash, UPI, cheque, ...)
// outside the bank reconciliation flow. Status goes through the same
// shared rule as confirmed matches.
type PaymentsHandler struct {
	svc *service.ReconcileService
}

// NewPaymentsHandler creates a new payments handler.
func NewPaymentsHandler(svc *service.ReconcileService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// Create handles POST /api/payments.
func (h *PaymentsHandler) Create(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invoice_id, amount_paid and payment_date are required"))
		return
	}

	payment := &billing.Payment{
		InvoiceID:   req.InvoiceID,
		AmountPaid:  req.AmountPaid,
		PaymentDate: req.PaymentDate,
		PaymentMode: req.PaymentMode,
		Notes:       req.Notes,
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
