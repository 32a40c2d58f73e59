package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vanik/internal/domain"
	"vanik/internal/service"
)

// PurchaseBillHandler handles purchase bill lifecycle endpoints.
type PurchaseBillHandler struct {
	billService service.PurchaseBillService
}

// NewPurchaseBillHandler creates a new PurchaseBillHandler.
func NewPurchaseBillHandler(billService service.PurchaseBillService) *PurchaseBillHandler {
	return &PurchaseBillHandler{billService: billService}
}

// Create handles POST /api/v1/purchase-bills
func (h *PurchaseBillHandler) Create(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.CreateBillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	bill, err := h.billService.Create(c.Request.Context(), orgID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, bill)
}

// Approve handles POST /api/v1/purchase-bills/:id/approve
func (h *PurchaseBillHandler) Approve(c *gin.Context) {
	h.transition(c, h.billService.Approve)
}

// Revert handles POST /api/v1/purchase-bills/:id/revert
func (h *PurchaseBillHandler) Revert(c *gin.Context) {
	h.transition(c, h.billService.Revert)
}

// Post handles POST /api/v1/purchase-bills/:id/post
func (h *PurchaseBillHandler) Post(c *gin.Context) {
	h.transition(c, h.billService.Post)
}

// GetByID handles GET /api/v1/purchase-bills/:id
func (h *PurchaseBillHandler) GetByID(c *gin.Context) {
	h.transition(c, h.billService.GetByID)
}

// List handles GET /api/v1/purchase-bills
func (h *PurchaseBillHandler) List(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	offset, limit := pagination(c)
	bills, total, err := h.billService.List(c.Request.Context(), orgID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, bills, PagMeta{Total: total, Offset: offset, Limit: limit})
}

func (h *PurchaseBillHandler) transition(c *gin.Context, op func(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error)) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid purchase bill ID")
		return
	}

	bill, err := op(c.Request.Context(), orgID, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, bill)
}
