package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vanik/internal/csvexport"
	"vanik/internal/service"
)

// StockHandler handles stock and consignment ledger endpoints.
type StockHandler struct {
	stockService service.StockService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// Balance handles GET /api/v1/stock/:productId
func (h *StockHandler) Balance(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
		return
	}

	current, err := h.stockService.CurrentStock(c.Request.Context(), orgID, productID)
	if err != nil {
		HandleError(c, err)
		return
	}
	raw, err := h.stockService.RawBalance(c.Request.Context(), orgID, productID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"product_id": productID, "current_stock": current, "raw_balance": raw})
}

// Ledger handles GET /api/v1/stock/:productId/ledger
func (h *StockHandler) Ledger(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
		return
	}

	offset, limit := pagination(c)
	entries, total, err := h.stockService.Ledger(c.Request.Context(), orgID, productID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ExportLedger handles GET /api/v1/stock/:productId/ledger.csv
func (h *StockHandler) ExportLedger(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
		return
	}

	product, entries, err := h.stockService.ExportLedger(c.Request.Context(), orgID, productID)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename(product.Name)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		return
	}
	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteStockEntries(entries); err != nil {
		return
	}
	w.Flush()
}

// Adjust handles POST /api/v1/stock/adjust
func (h *StockHandler) Adjust(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.AdjustStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	entry, err := h.stockService.Adjust(c.Request.Context(), orgID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, entry)
}

// IssueConsignment handles POST /api/v1/consignments/issue
func (h *StockHandler) IssueConsignment(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.IssueConsignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.stockService.IssueConsignment(c.Request.Context(), orgID, input); err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, gin.H{"issued": input.Qty})
}

// ReturnConsignment handles POST /api/v1/consignments/return
func (h *StockHandler) ReturnConsignment(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.ReturnConsignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.stockService.ReturnConsignment(c.Request.Context(), orgID, input); err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, gin.H{"returned": input.Qty})
}

// RecordSaleReturn handles POST /api/v1/consignments/sale-return
func (h *StockHandler) RecordSaleReturn(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.SaleReturnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	entry, err := h.stockService.RecordSaleReturn(c.Request.Context(), orgID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, entry)
}

// AdjustConsignment handles POST /api/v1/consignments/adjust
func (h *StockHandler) AdjustConsignment(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.AdjustConsignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	entry, err := h.stockService.AdjustConsignment(c.Request.Context(), orgID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, entry)
}

// ConsignmentBalance handles GET /api/v1/consignments/:agentId/products/:productId
func (h *StockHandler) ConsignmentBalance(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid agent ID")
		return
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid product ID")
		return
	}

	balance, err := h.stockService.ConsignmentBalance(c.Request.Context(), orgID, agentID, productID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"agent_id": agentID, "product_id": productID, "balance": balance})
}

// ConsignmentLedger handles GET /api/v1/consignments/:agentId/ledger
func (h *StockHandler) ConsignmentLedger(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid agent ID")
		return
	}

	offset, limit := pagination(c)
	entries, total, err := h.stockService.ConsignmentLedger(c.Request.Context(), orgID, agentID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}
