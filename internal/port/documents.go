package port

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
)

// InvoiceRepository defines the contract for invoice persistence. Status
// flips that belong to a posting transaction go through PostingTx instead.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error)
	GetByDraftToken(ctx context.Context, orgID uuid.UUID, token string) (*domain.Invoice, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error)
	// UpdateDraft upserts the autosave payload and recomputed subtotal of a
	// draft. The invoice number and tax totals are not touched.
	UpdateDraft(ctx context.Context, orgID, invoiceID uuid.UUID, payload json.RawMessage, subtotal decimal.Decimal, version int) error
	// ReplaceLines swaps the draft's line set and totals in one statement set.
	ReplaceLines(ctx context.Context, inv *domain.Invoice) error
	// UpdateStatus flips the status only when the current status matches
	// from; it reports whether a row was updated.
	UpdateStatus(ctx context.Context, orgID, invoiceID uuid.UUID, from, to domain.InvoiceStatus) (bool, error)
	SetPaymentStatus(ctx context.Context, orgID, invoiceID uuid.UUID, status domain.PaymentStatus) error
	// TaxTotalsByRate aggregates posted invoices into per-rate CGST/SGST/IGST
	// sums for the GSTR-style summary export.
	TaxTotalsByRate(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.TaxRateTotal, error)
}

// PurchaseBillRepository defines the contract for purchase bill persistence.
type PurchaseBillRepository interface {
	Create(ctx context.Context, bill *domain.PurchaseBill) error
	GetByID(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.PurchaseBill, int, error)
	UpdateStatus(ctx context.Context, orgID, billID uuid.UUID, from, to domain.PurchaseBillStatus) (bool, error)
	// SetLineMismatches records which lines failed the HSN/rate comparison
	// during an approval attempt.
	SetLineMismatches(ctx context.Context, billID uuid.UUID, mismatchedLineIDs []uuid.UUID) error
	// ClearApprovalMeta wipes approval/flag metadata when a flagged bill is
	// reverted to draft.
	ClearApprovalMeta(ctx context.Context, orgID, billID uuid.UUID) error
}
