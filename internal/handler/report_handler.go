package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vanik/internal/service"
)

// ReportHandler handles report generation endpoints.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GSTSummary handles GET /api/v1/reports/gst-summary?from=2026-04-01&to=2026-05-01
func (h *ReportHandler) GSTSummary(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "from must be a YYYY-MM-DD date")
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must be a YYYY-MM-DD date")
		return
	}

	result, err := h.reportService.GSTSummary(c.Request.Context(), orgID, from, to)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}
