package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vanik/internal/service"
)

// OrgHandler handles organization endpoints.
type OrgHandler struct {
	orgService service.OrgService
}

// NewOrgHandler creates a new OrgHandler.
func NewOrgHandler(orgService service.OrgService) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

// Create handles POST /api/v1/orgs
func (h *OrgHandler) Create(c *gin.Context) {
	var input service.CreateOrgInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, org)
}

// GetCurrent handles GET /api/v1/org
func (h *OrgHandler) GetCurrent(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	org, err := h.orgService.GetByID(c.Request.Context(), orgID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, org)
}

// Update handles PUT /api/v1/org
func (h *OrgHandler) Update(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var input service.UpdateOrgInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), orgID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, org)
}
