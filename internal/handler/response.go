package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vanik/internal/domain"
	"vanik/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response. Issues is populated for
// validation errors only, carrying the full per-line issue list.
type APIError struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Issues  []domain.ValidationIssue `json:"issues,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"
	case errors.Is(err, domain.ErrOrgInactive):
		return http.StatusForbidden, "ORG_INACTIVE", "organization is inactive"
	case errors.Is(err, domain.ErrUserInactive):
		return http.StatusForbidden, "USER_INACTIVE", "user is inactive"
	case errors.Is(err, domain.ErrDuplicateOrgSlug):
		return http.StatusConflict, "DUPLICATE_SLUG", "organization slug already exists"
	case errors.Is(err, domain.ErrDuplicateCustomer):
		return http.StatusConflict, "DUPLICATE_CUSTOMER", "customer already linked to this organization"
	case errors.Is(err, domain.ErrDuplicateSerial):
		return http.StatusConflict, "DUPLICATE_SERIAL", "serial number already registered"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_QUANTITY", "quantity must be positive"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps an error to the response it deserves. The four structured
// error kinds take priority: validation errors carry their issue list with a
// 422, workflow and concurrency violations are conflicts, integrity faults
// are server errors. Everything else falls through to the sentinel mapping.
func HandleError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Error: &APIError{
				Code:    string(domain.KindValidation),
				Message: verr.Error(),
				Issues:  verr.Issues,
			},
		})
		return
	}

	var werr *domain.WorkflowError
	if errors.As(err, &werr) {
		c.JSON(http.StatusConflict, APIResponse{
			Success: false,
			Error:   &APIError{Code: string(domain.KindWorkflow), Message: werr.Error()},
		})
		return
	}

	var cerr *domain.ConcurrencyError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, APIResponse{
			Success: false,
			Error:   &APIError{Code: string(domain.KindConcurrency), Message: "operation lost a concurrent race; retry"},
		})
		return
	}

	var ierr *domain.IntegrityError
	if errors.As(err, &ierr) {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] integrity error: %v", requestID, err)
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Error:   &APIError{Code: string(domain.KindIntegrity), Message: "document data is inconsistent; contact support"},
		})
		return
	}

	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}

// extractAuthContext extracts org ID, user ID, and role from the request
// context. Returns false if auth context is missing (error response already
// written).
func extractAuthContext(c *gin.Context) (orgID, userID uuid.UUID, role domain.UserRole, ok bool) {
	var err error
	orgID, err = middleware.GetOrgID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing organization context")
		return uuid.Nil, uuid.Nil, "", false
	}
	userID, err = middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return uuid.Nil, uuid.Nil, "", false
	}
	role = domain.UserRole(middleware.GetRole(c))
	return orgID, userID, role, true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
