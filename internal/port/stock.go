package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
)

// StockReader exposes the derived stock balance. RawBalance is the exact
// ledger fold (possibly negative); CurrentStock clamps at zero for display.
// Both the plain repository and an in-transaction PostingTx satisfy it, so
// validation can run against locked rows during posting.
type StockReader interface {
	RawBalance(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error)
	CurrentStock(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error)
}

// StockRepository defines the contract for the append-only org stock ledger.
// Entries are never updated or deleted; a batched Append is all-or-nothing.
type StockRepository interface {
	StockReader
	Append(ctx context.Context, entries []domain.StockEntry) error
	ListByProduct(ctx context.Context, orgID, productID uuid.UUID, offset, limit int) ([]domain.StockEntry, int, error)
}

// ConsignmentReader exposes derived consignment balances per
// (sender org, agent, product).
type ConsignmentReader interface {
	ConsignmentBalance(ctx context.Context, senderOrgID, agentID, productID uuid.UUID) (decimal.Decimal, error)
}

// ConsignmentRepository defines the contract for the consignment (DC) ledger.
type ConsignmentRepository interface {
	ConsignmentReader
	Append(ctx context.Context, entries []domain.ConsignmentEntry) error
	ListByAgent(ctx context.Context, senderOrgID, agentID uuid.UUID, offset, limit int) ([]domain.ConsignmentEntry, int, error)
}

// PostingTx is the set of operations available inside a posting transaction,
// after the affected (org, product) rows have been locked. Everything a
// document posting does must go through one PostingTx so the validate-then-
// write sequence is observed atomically by all other operations.
type PostingTx interface {
	StockReader
	ConsignmentReader
	AppendStock(ctx context.Context, entries []domain.StockEntry) error
	AppendConsignment(ctx context.Context, entries []domain.ConsignmentEntry) error
	// AvailableSet mirrors SerialRepository.AvailableSet against locked rows.
	AvailableSet(ctx context.Context, orgID, productID uuid.UUID, serials []string) (map[string]bool, error)
	// ConsumeSerials marks the given serials consumed by the invoice. It
	// fails if any serial is not currently available or reserved.
	ConsumeSerials(ctx context.Context, orgID, productID, invoiceID uuid.UUID, serials []string) error
	// ReleaseSerials frees every reservation the invoice holds, inside the
	// posting transaction, so revalidation sees the serials as available.
	ReleaseSerials(ctx context.Context, orgID, invoiceID uuid.UUID) error
	UpdateInvoiceStatus(ctx context.Context, orgID, invoiceID uuid.UUID, from, to domain.InvoiceStatus) (bool, error)
	UpdateBillStatus(ctx context.Context, orgID, billID uuid.UUID, from, to domain.PurchaseBillStatus) (bool, error)
}

// PostingStore opens a posting transaction with row-level locks held on the
// given (org, product) pairs for the duration of fn. Locking granularity is
// per (org, product): postings touching disjoint products never block each
// other. fn's error rolls the whole transaction back; lock contention and
// serialization failures surface as domain.ConcurrencyError.
type PostingStore interface {
	WithProductLocks(ctx context.Context, orgID uuid.UUID, productIDs []uuid.UUID, fn func(tx PostingTx) error) error
}
