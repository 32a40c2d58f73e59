package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vanik/internal/domain"
	"vanik/internal/port"
)

type purchaseBillRepo struct {
	db *sqlx.DB
}

// NewPurchaseBillRepo creates a new PostgreSQL-backed PurchaseBillRepository.
func NewPurchaseBillRepo(db *sqlx.DB) port.PurchaseBillRepository {
	return &purchaseBillRepo{db: db}
}

func (r *purchaseBillRepo) Create(ctx context.Context, bill *domain.PurchaseBill) error {
	now := time.Now().UTC()
	bill.CreatedAt = now
	bill.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("billRepo.Create begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO purchase_bills
		 (id, org_id, number, vendor_name, vendor_gstin, vendor_state_code, status,
		  subtotal, cgst, sgst, igst, grand_total, billed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		bill.ID, bill.OrgID, bill.Number, bill.VendorName, bill.VendorGSTIN,
		bill.VendorStateCode, bill.Status, bill.Subtotal, bill.CGST, bill.SGST,
		bill.IGST, bill.GrandTotal, bill.BilledAt, bill.CreatedAt, bill.UpdatedAt)
	if err != nil {
		return fmt.Errorf("billRepo.Create: %w", err)
	}

	for i := range bill.Lines {
		ln := &bill.Lines[i]
		ln.BillID = bill.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO purchase_bill_lines
			 (id, bill_id, position, product_id, name, qty, unit_price, line_total,
			  vendor_hsn_code, vendor_gst_rate, system_hsn_code, system_gst_rate, hsn_mismatch)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			ln.ID, ln.BillID, ln.Position, ln.ProductID, ln.Name, ln.Qty,
			ln.UnitPrice, ln.LineTotal, ln.VendorHSNCode, ln.VendorGSTRate,
			ln.SystemHSNCode, ln.SystemGSTRate, ln.HSNMismatch)
		if err != nil {
			return fmt.Errorf("billRepo.Create line %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("billRepo.Create commit: %w", err)
	}
	return nil
}

func (r *purchaseBillRepo) GetByID(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error) {
	var bill domain.PurchaseBill
	err := r.db.GetContext(ctx, &bill,
		"SELECT * FROM purchase_bills WHERE org_id = $1 AND id = $2", orgID, billID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("billRepo.GetByID: %w", err)
	}

	err = r.db.SelectContext(ctx, &bill.Lines,
		"SELECT * FROM purchase_bill_lines WHERE bill_id = $1 ORDER BY position", bill.ID)
	if err != nil {
		return nil, fmt.Errorf("billRepo.GetByID lines: %w", err)
	}
	return &bill, nil
}

func (r *purchaseBillRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.PurchaseBill, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM purchase_bills WHERE org_id = $1", orgID)
	if err != nil {
		return nil, 0, fmt.Errorf("billRepo.ListByOrg count: %w", err)
	}

	var bills []domain.PurchaseBill
	err = r.db.SelectContext(ctx, &bills,
		`SELECT * FROM purchase_bills WHERE org_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("billRepo.ListByOrg: %w", err)
	}
	return bills, total, nil
}

func (r *purchaseBillRepo) UpdateStatus(ctx context.Context, orgID, billID uuid.UUID, from, to domain.PurchaseBillStatus) (bool, error) {
	return updateBillStatus(ctx, r.db, orgID, billID, from, to)
}

func (r *purchaseBillRepo) SetLineMismatches(ctx context.Context, billID uuid.UUID, mismatchedLineIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("billRepo.SetLineMismatches begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE purchase_bill_lines SET hsn_mismatch = false WHERE bill_id = $1", billID); err != nil {
		return fmt.Errorf("billRepo.SetLineMismatches reset: %w", err)
	}
	if len(mismatchedLineIDs) > 0 {
		query, args, err := sqlx.In(
			"UPDATE purchase_bill_lines SET hsn_mismatch = true WHERE bill_id = ? AND id IN (?)",
			billID, mismatchedLineIDs)
		if err != nil {
			return fmt.Errorf("billRepo.SetLineMismatches: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
			return fmt.Errorf("billRepo.SetLineMismatches set: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE purchase_bills SET flagged_at = $1, updated_at = $1 WHERE id = $2",
		time.Now().UTC(), billID); err != nil {
		return fmt.Errorf("billRepo.SetLineMismatches stamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("billRepo.SetLineMismatches commit: %w", err)
	}
	return nil
}

func (r *purchaseBillRepo) ClearApprovalMeta(ctx context.Context, orgID, billID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("billRepo.ClearApprovalMeta begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE purchase_bills SET approved_at = NULL, flagged_at = NULL, updated_at = $1
		 WHERE org_id = $2 AND id = $3`, time.Now().UTC(), orgID, billID)
	if err != nil {
		return fmt.Errorf("billRepo.ClearApprovalMeta: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE purchase_bill_lines SET hsn_mismatch = false WHERE bill_id = $1", billID); err != nil {
		return fmt.Errorf("billRepo.ClearApprovalMeta lines: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("billRepo.ClearApprovalMeta commit: %w", err)
	}
	return nil
}

// updateBillStatus is a compare-and-set on the status column, shared with the
// posting transaction. Approval and flag timestamps ride along with the
// matching transitions.
func updateBillStatus(ctx context.Context, e sqlx.ExecerContext, orgID, billID uuid.UUID, from, to domain.PurchaseBillStatus) (bool, error) {
	now := time.Now().UTC()
	var query string
	switch to {
	case domain.BillStatusApproved:
		query = `UPDATE purchase_bills SET status = $1, approved_at = $2, updated_at = $2
		         WHERE org_id = $3 AND id = $4 AND status = $5`
	case domain.BillStatusFlaggedHSN:
		query = `UPDATE purchase_bills SET status = $1, flagged_at = $2, updated_at = $2
		         WHERE org_id = $3 AND id = $4 AND status = $5`
	default:
		query = `UPDATE purchase_bills SET status = $1, updated_at = $2
		         WHERE org_id = $3 AND id = $4 AND status = $5`
	}
	result, err := e.ExecContext(ctx, query, to, now, orgID, billID, from)
	if err != nil {
		return false, fmt.Errorf("updateBillStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
