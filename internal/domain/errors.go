package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOrgInactive        = errors.New("organization is inactive")
	ErrUserInactive       = errors.New("user is inactive")
	ErrDuplicateCustomer  = errors.New("customer already linked to this organization")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrDuplicateOrgSlug   = errors.New("organization slug already exists")
	ErrDuplicateSerial    = errors.New("serial number already registered")
)

// ErrorKind is the stable machine-readable classification carried by every
// error crossing the core boundary.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation_error"
	KindWorkflow    ErrorKind = "workflow_violation"
	KindConcurrency ErrorKind = "concurrency_conflict"
	KindIntegrity   ErrorKind = "data_integrity_error"
)

// ValidationCode identifies a specific line-item validation failure.
type ValidationCode string

const (
	CodeProductNotFound     ValidationCode = "product_not_found"
	CodeMasterNotLinked     ValidationCode = "master_product_not_linked"
	CodeMasterNotApproved   ValidationCode = "master_product_not_approved"
	CodeMasterMissingHSN    ValidationCode = "master_product_missing_hsn"
	CodeMasterInvalidHSN    ValidationCode = "master_product_invalid_hsn"
	CodeInsufficientSerials ValidationCode = "insufficient_serials"
	CodeInsufficientStock   ValidationCode = "insufficient_stock"
)

// ValidationIssue is one line-item validation failure. Issues are collected
// across all items so the caller can surface every problem at once.
type ValidationIssue struct {
	Code      ValidationCode  `json:"code"`
	Line      int             `json:"line"`
	ProductID uuid.UUID       `json:"product_id"`
	Message   string          `json:"message"`
	Available decimal.Decimal `json:"available,omitempty"`
	Requested decimal.Decimal `json:"requested,omitempty"`
}

// ValidationError aggregates the issues found for a proposed document. It
// never accompanies a partial write.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		msgs[i] = fmt.Sprintf("line %d: %s", iss.Line, iss.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// WorkflowError rejects an illegal state-machine transition before any write.
// Message names the required state so the caller knows what to do.
type WorkflowError struct {
	Current  string
	Required string
	Message  string
}

func (e *WorkflowError) Error() string { return e.Message }

// NewWorkflowError builds a WorkflowError naming the required source state.
func NewWorkflowError(current, required, msg string) *WorkflowError {
	return &WorkflowError{Current: current, Required: required, Message: msg}
}

// ConcurrencyError signals lock contention or stale state. The caller should
// retry the whole operation; nothing was applied.
type ConcurrencyError struct {
	Op  string
	Err error
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrent modification during %s, retry the operation", e.Op)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }

// IntegrityError is fatal: the data violates an invariant the validator
// should have enforced upstream. It aborts the transaction and is logged for
// operator attention.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string { return e.Message }

// KindOf classifies an error into the taxonomy for API responses. Unclassified
// errors return an empty kind and are treated as internal.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	var we *WorkflowError
	var ce *ConcurrencyError
	var ie *IntegrityError
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &we):
		return KindWorkflow
	case errors.As(err, &ce):
		return KindConcurrency
	case errors.As(err, &ie):
		return KindIntegrity
	}
	return ""
}
