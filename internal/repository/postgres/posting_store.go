package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
	"vanik/internal/port"
)

type postingStore struct {
	db     *sqlx.DB
	policy RetryPolicy
}

// NewPostingStore creates a PostgreSQL-backed PostingStore. A zero-valued
// policy falls back to DefaultRetryPolicy.
func NewPostingStore(db *sqlx.DB, policy RetryPolicy) port.PostingStore {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}
	return &postingStore{db: db, policy: policy}
}

// WithProductLocks runs fn inside one transaction holding row locks on the
// given products. IDs are locked in sorted order so two concurrent postings
// over overlapping product sets deadlock-free queue behind each other.
func (s *postingStore) WithProductLocks(ctx context.Context, orgID uuid.UUID, productIDs []uuid.UUID, fn func(tx port.PostingTx) error) error {
	ids := dedupeSorted(productIDs)

	return withRetry(ctx, s.policy, "posting", func() error {
		tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return fmt.Errorf("postingStore: begin: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if len(ids) > 0 {
			query, args, err := sqlx.In(
				"SELECT id FROM products WHERE org_id = ? AND id IN (?) ORDER BY id FOR UPDATE",
				orgID, ids)
			if err != nil {
				return fmt.Errorf("postingStore: building lock query: %w", err)
			}
			var locked []uuid.UUID
			if err := tx.SelectContext(ctx, &locked, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
				return fmt.Errorf("postingStore: locking products: %w", err)
			}
			if len(locked) != len(ids) {
				return fmt.Errorf("postingStore: locking products: %w", domain.ErrNotFound)
			}
		}

		if err := fn(&postingTx{tx: tx}); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("postingStore: commit: %w", err)
		}
		return nil
	})
}

func dedupeSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// postingTx runs every PostingTx operation on the one open transaction, so
// reads observe the locked, consistent state and writes commit atomically.
type postingTx struct {
	tx *sqlx.Tx
}

func (p *postingTx) RawBalance(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	return stockBalance(ctx, p.tx, orgID, productID)
}

func (p *postingTx) CurrentStock(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	raw, err := stockBalance(ctx, p.tx, orgID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if raw.IsNegative() {
		return decimal.Zero, nil
	}
	return raw, nil
}

func (p *postingTx) ConsignmentBalance(ctx context.Context, senderOrgID, agentID, productID uuid.UUID) (decimal.Decimal, error) {
	return consignmentBalance(ctx, p.tx, senderOrgID, agentID, productID)
}

func (p *postingTx) AppendStock(ctx context.Context, entries []domain.StockEntry) error {
	return appendStock(ctx, p.tx, entries)
}

func (p *postingTx) AppendConsignment(ctx context.Context, entries []domain.ConsignmentEntry) error {
	return appendConsignment(ctx, p.tx, entries)
}

func (p *postingTx) AvailableSet(ctx context.Context, orgID, productID uuid.UUID, serials []string) (map[string]bool, error) {
	return availableSet(ctx, p.tx, orgID, productID, serials)
}

// ConsumeSerials flips the given serials to consumed. The WHERE clause only
// matches available or reserved rows; a shortfall in the affected count means
// another document took one of them first.
func (p *postingTx) ConsumeSerials(ctx context.Context, orgID, productID, invoiceID uuid.UUID, serials []string) error {
	if len(serials) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		`UPDATE serial_numbers
		 SET status = 'consumed', consumed_by = ?, updated_at = ?
		 WHERE org_id = ? AND product_id = ? AND serial IN (?)
		   AND status IN ('available', 'reserved')`,
		invoiceID, time.Now().UTC(), orgID, productID, serials)
	if err != nil {
		return fmt.Errorf("postingTx.ConsumeSerials: %w", err)
	}
	result, err := p.tx.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return fmt.Errorf("postingTx.ConsumeSerials: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(serials) {
		return &domain.IntegrityError{Message: fmt.Sprintf(
			"consumed %d of %d serials for product %s", rows, len(serials), productID)}
	}
	return nil
}

func (p *postingTx) ReleaseSerials(ctx context.Context, orgID, invoiceID uuid.UUID) error {
	return releaseSerials(ctx, p.tx, orgID, invoiceID)
}

func (p *postingTx) UpdateInvoiceStatus(ctx context.Context, orgID, invoiceID uuid.UUID, from, to domain.InvoiceStatus) (bool, error) {
	return updateInvoiceStatus(ctx, p.tx, orgID, invoiceID, from, to)
}

func (p *postingTx) UpdateBillStatus(ctx context.Context, orgID, billID uuid.UUID, from, to domain.PurchaseBillStatus) (bool, error) {
	return updateBillStatus(ctx, p.tx, orgID, billID, from, to)
}
