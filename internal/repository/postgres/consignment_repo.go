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

type consignmentRepo struct {
	db *sqlx.DB
}

// NewConsignmentRepo creates a new PostgreSQL-backed ConsignmentRepository.
func NewConsignmentRepo(db *sqlx.DB) port.ConsignmentRepository {
	return &consignmentRepo{db: db}
}

func (r *consignmentRepo) ConsignmentBalance(ctx context.Context, senderOrgID, agentID, productID uuid.UUID) (decimal.Decimal, error) {
	return consignmentBalance(ctx, r.db, senderOrgID, agentID, productID)
}

func (r *consignmentRepo) Append(ctx context.Context, entries []domain.ConsignmentEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("consignmentRepo.Append begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := appendConsignment(ctx, tx, entries); err != nil {
		return fmt.Errorf("consignmentRepo.Append: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("consignmentRepo.Append commit: %w", err)
	}
	return nil
}

func (r *consignmentRepo) ListByAgent(ctx context.Context, senderOrgID, agentID uuid.UUID, offset, limit int) ([]domain.ConsignmentEntry, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM consignment_entries WHERE sender_org_id = $1 AND agent_id = $2",
		senderOrgID, agentID)
	if err != nil {
		return nil, 0, fmt.Errorf("consignmentRepo.ListByAgent count: %w", err)
	}

	var entries []domain.ConsignmentEntry
	err = r.db.SelectContext(ctx, &entries,
		`SELECT * FROM consignment_entries WHERE sender_org_id = $1 AND agent_id = $2
		 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		senderOrgID, agentID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("consignmentRepo.ListByAgent: %w", err)
	}
	return entries, total, nil
}

// consignmentBalance folds the agent's holding per ConsignmentTxnKind.Sign:
// dc_in and dc_return add, dc_sale subtracts, dc_adjustment carries its own
// sign.
func consignmentBalance(ctx context.Context, q sqlx.QueryerContext, senderOrgID, agentID, productID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := sqlx.GetContext(ctx, q, &balance,
		fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0)
		 FROM consignment_entries
		 WHERE sender_org_id = $1 AND agent_id = $2 AND product_id = $3`,
			consignmentFoldCase),
		senderOrgID, agentID, productID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("consignmentBalance: %w", err)
	}
	return balance, nil
}

func appendConsignment(ctx context.Context, e sqlx.ExecerContext, entries []domain.ConsignmentEntry) error {
	for i := range entries {
		en := &entries[i]
		if !en.Kind.Valid() {
			return fmt.Errorf("entry %d: unknown consignment kind %q", i, en.Kind)
		}
		_, err := e.ExecContext(ctx,
			`INSERT INTO consignment_entries
			 (id, sender_org_id, agent_id, product_id, kind, qty, note, ref_doc_type, ref_doc_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			en.ID, en.SenderOrgID, en.AgentID, en.ProductID, en.Kind, en.Qty,
			en.Note, en.RefDocType, en.RefDocID, en.CreatedAt)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}
