package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/finvoice/reconcile-backend/internal/api/dto"
	"github.com/finvoice/reconcile-backend/internal/api/middleware"
	"github.com/finvoice/reconcile-backend/internal/application/service"
	"github.com/finvoice/reconcile-backend/internal/domain/reconcile"
)

// InvoicesHandler exposes the read side of the invoicing subsystem the
// review UI needs: invoice lists with outstanding balances and per
// invoice payment history.
type InvoicesHandler struct {
	svc *service.ReconcileService
}

// NewInvoicesHandler creates a new invoices handler.
func NewInvoicesHandler(svc *service.ReconcileService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc}
}

// List handles GET /api/invoices.
func (h *InvoicesHandler) List(c *gin.Context) {
	invoices, err := h.svc.Invoices(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// Get handles GET /api/invoices/:id.
func (h *InvoicesHandler) Get(c *gin.Context) {
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	inv, err := h.svc.Invoice(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		if errors.Is(err, reconcile.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, dto.NotFoundError("invoice"))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	c.JSON(http.StatusOK, inv)
}

// Payments handles GET /api/invoices/:id/payments, newest first.
func (h *InvoicesHandler) Payments(c *gin.Context) {
	id, ok := invoiceID(c)
	if !ok {
		return
	}

	payments, err := h.svc.InvoicePayments(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		if errors.Is(err, reconcile.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, dto.NotFoundError("invoice"))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	c.JSON(http.StatusOK, payments)
}

func invoiceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid invoice id"))
		return 0, false
	}
	return id, true
}
