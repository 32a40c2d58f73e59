package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vanik/internal/domain"
	"vanik/internal/service"
)

// InvoiceHandler handles invoice lifecycle endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// PaymentStatusRequest carries a payment status change.
type PaymentStatusRequest struct {
	Status domain.PaymentStatus `json:"status" binding:"required"`
}

// Create handles POST /api/v1/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.invoiceService.Create(c.Request.Context(), orgID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, result)
}

// Autosave handles PATCH /api/v1/invoices/autosave
func (h *InvoiceHandler) Autosave(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.AutosaveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	inv, err := h.invoiceService.Autosave(c.Request.Context(), orgID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Finalize handles POST /api/v1/invoices/:id/finalize
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	h.transition(c, h.invoiceService.Finalize)
}

// Post handles POST /api/v1/invoices/:id/post
func (h *InvoiceHandler) Post(c *gin.Context) {
	h.transition(c, h.invoiceService.Post)
}

// Cancel handles POST /api/v1/invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.transition(c, h.invoiceService.Cancel)
}

// GetByID handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	h.transition(c, h.invoiceService.GetByID)
}

// List handles GET /api/v1/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	offset, limit := pagination(c)
	invoices, total, err := h.invoiceService.List(c.Request.Context(), orgID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// SetPaymentStatus handles PUT /api/v1/invoices/:id/payment-status
func (h *InvoiceHandler) SetPaymentStatus(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	var input PaymentStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if !input.Status.Valid() {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown payment status")
		return
	}

	if err := h.invoiceService.SetPaymentStatus(c.Request.Context(), orgID, id, input.Status); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"status": input.Status})
}

// transition runs one of the (orgID, invoiceID) -> invoice operations shared
// by the lifecycle endpoints.
func (h *InvoiceHandler) transition(c *gin.Context, op func(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error)) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	inv, err := op(c.Request.Context(), orgID, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}
