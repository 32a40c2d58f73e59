package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
	"vanik/internal/port"
)

type stockRepo struct {
	db *sqlx.DB
}

// NewStockRepo creates a new PostgreSQL-backed StockRepository.
func NewStockRepo(db *sqlx.DB) port.StockRepository {
	return &stockRepo{db: db}
}

func (r *stockRepo) RawBalance(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	return stockBalance(ctx, r.db, orgID, productID)
}

func (r *stockRepo) CurrentStock(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	raw, err := stockBalance(ctx, r.db, orgID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if raw.IsNegative() {
		return decimal.Zero, nil
	}
	return raw, nil
}

func (r *stockRepo) Append(ctx context.Context, entries []domain.StockEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("stockRepo.Append begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := appendStock(ctx, tx, entries); err != nil {
		return fmt.Errorf("stockRepo.Append: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("stockRepo.Append commit: %w", err)
	}
	return nil
}

func (r *stockRepo) ListByProduct(ctx context.Context, orgID, productID uuid.UUID, offset, limit int) ([]domain.StockEntry, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM stock_entries WHERE org_id = $1 AND product_id = $2",
		orgID, productID)
	if err != nil {
		return nil, 0, fmt.Errorf("stockRepo.ListByProduct count: %w", err)
	}

	var entries []domain.StockEntry
	err = r.db.SelectContext(ctx, &entries,
		`SELECT * FROM stock_entries WHERE org_id = $1 AND product_id = $2
		 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		orgID, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("stockRepo.ListByProduct: %w", err)
	}
	return entries, total, nil
}

// stockBalance folds the ledger in SQL per StockTxnKind.Sign: in adds, out
// subtracts, adjustment quantities carry their own sign.
func stockBalance(ctx context.Context, q sqlx.QueryerContext, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := sqlx.GetContext(ctx, q, &balance,
		fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0)
		 FROM stock_entries
		 WHERE org_id = $1 AND product_id = $2`, stockFoldCase),
		orgID, productID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("stockBalance: %w", err)
	}
	return balance, nil
}

func appendStock(ctx context.Context, e sqlx.ExecerContext, entries []domain.StockEntry) error {
	for i := range entries {
		en := &entries[i]
		if !en.Kind.Valid() {
			return fmt.Errorf("entry %d: unknown stock kind %q", i, en.Kind)
		}
		_, err := e.ExecContext(ctx,
			`INSERT INTO stock_entries
			 (id, org_id, product_id, kind, qty, note, ref_doc_type, ref_doc_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			en.ID, en.OrgID, en.ProductID, en.Kind, en.Qty, en.Note,
			en.RefDocType, en.RefDocID, en.CreatedAt)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}
