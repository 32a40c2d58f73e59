package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
	"vanik/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoices
		 (id, org_id, customer_id, number, status, payment_status, price_inclusive,
		  subtotal, cgst, sgst, igst, grand_total,
		  draft_token, draft_version, draft_payload, issued_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		inv.ID, inv.OrgID, inv.CustomerID, inv.Number, inv.Status, inv.PaymentStatus,
		inv.PriceInclusive, inv.Subtotal, inv.CGST, inv.SGST, inv.IGST, inv.GrandTotal,
		inv.DraftToken, inv.DraftVersion, nullableJSON(inv.DraftPayload),
		inv.IssuedAt, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}

	if err := insertInvoiceLines(ctx, tx, inv.ID, inv.Lines); err != nil {
		return fmt.Errorf("invoiceRepo.Create lines: %w", err)
	}

	if inv.Consignment != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO invoice_consignments (invoice_id, sender_org_id, agent_id, challan_id)
			 VALUES ($1, $2, $3, $4)`,
			inv.ID, inv.Consignment.SenderOrgID, inv.Consignment.AgentID, inv.Consignment.ChallanID)
		if err != nil {
			return fmt.Errorf("invoiceRepo.Create consignment ref: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("invoiceRepo.Create commit: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv,
		"SELECT * FROM invoices WHERE org_id = $1 AND id = $2", orgID, invoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	if err := r.loadDetails(ctx, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) GetByDraftToken(ctx context.Context, orgID uuid.UUID, token string) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv,
		`SELECT * FROM invoices
		 WHERE org_id = $1 AND draft_token = $2 AND status = 'draft'`, orgID, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByDraftToken: %w", err)
	}
	if err := r.loadDetails(ctx, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM invoices WHERE org_id = $1", orgID)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListByOrg count: %w", err)
	}

	var invoices []domain.Invoice
	err = r.db.SelectContext(ctx, &invoices,
		`SELECT * FROM invoices WHERE org_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.ListByOrg: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) UpdateDraft(ctx context.Context, orgID, invoiceID uuid.UUID, payload json.RawMessage, subtotal decimal.Decimal, version int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET draft_payload = $1, subtotal = $2, draft_version = $3, updated_at = $4
		 WHERE org_id = $5 AND id = $6 AND status = 'draft'`,
		nullableJSON(payload), subtotal, version, time.Now().UTC(), orgID, invoiceID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateDraft: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReplaceLines swaps the full line set and document totals in one
// transaction. Only drafts are replaceable; the status guard on the totals
// update enforces that.
func (r *invoiceRepo) ReplaceLines(ctx context.Context, inv *domain.Invoice) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceLines begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE invoices SET
		   subtotal = $1, cgst = $2, sgst = $3, igst = $4, grand_total = $5,
		   price_inclusive = $6, draft_version = $7, updated_at = $8
		 WHERE org_id = $9 AND id = $10 AND status = 'draft'`,
		inv.Subtotal, inv.CGST, inv.SGST, inv.IGST, inv.GrandTotal,
		inv.PriceInclusive, inv.DraftVersion, time.Now().UTC(), inv.OrgID, inv.ID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceLines totals: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM invoice_lines WHERE invoice_id = $1", inv.ID); err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceLines delete: %w", err)
	}
	if err := insertInvoiceLines(ctx, tx, inv.ID, inv.Lines); err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceLines insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceLines commit: %w", err)
	}
	return nil
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, orgID, invoiceID uuid.UUID, from, to domain.InvoiceStatus) (bool, error) {
	return updateInvoiceStatus(ctx, r.db, orgID, invoiceID, from, to)
}

func (r *invoiceRepo) SetPaymentStatus(ctx context.Context, orgID, invoiceID uuid.UUID, status domain.PaymentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET payment_status = $1, updated_at = $2
		 WHERE org_id = $3 AND id = $4`,
		status, time.Now().UTC(), orgID, invoiceID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.SetPaymentStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) TaxTotalsByRate(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.TaxRateTotal, error) {
	var rows []domain.TaxRateTotal
	err := r.db.SelectContext(ctx, &rows,
		`SELECT COALESCE(l.gst_rate, 0) AS gst_rate,
		        SUM(l.subtotal) AS taxable_value,
		        SUM(l.cgst) AS cgst, SUM(l.sgst) AS sgst, SUM(l.igst) AS igst
		 FROM invoice_lines l
		 JOIN invoices i ON i.id = l.invoice_id
		 WHERE i.org_id = $1 AND i.status = 'posted'
		   AND i.issued_at >= $2 AND i.issued_at < $3
		 GROUP BY COALESCE(l.gst_rate, 0)
		 ORDER BY gst_rate`, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.TaxTotalsByRate: %w", err)
	}
	return rows, nil
}

// updateInvoiceStatus is a compare-and-set on the status column, shared with
// the posting transaction.
func updateInvoiceStatus(ctx context.Context, e sqlx.ExecerContext, orgID, invoiceID uuid.UUID, from, to domain.InvoiceStatus) (bool, error) {
	result, err := e.ExecContext(ctx,
		`UPDATE invoices SET status = $1, updated_at = $2
		 WHERE org_id = $3 AND id = $4 AND status = $5`,
		to, time.Now().UTC(), orgID, invoiceID, from)
	if err != nil {
		return false, fmt.Errorf("updateInvoiceStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func insertInvoiceLines(ctx context.Context, tx *sqlx.Tx, invoiceID uuid.UUID, lines []domain.InvoiceLine) error {
	for i := range lines {
		ln := &lines[i]
		ln.InvoiceID = invoiceID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO invoice_lines
			 (id, invoice_id, position, product_id, name, qty, unit_price, subtotal,
			  gst_rate, hsn_code, cgst, sgst, igst)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			ln.ID, ln.InvoiceID, ln.Position, ln.ProductID, ln.Name, ln.Qty,
			ln.UnitPrice, ln.Subtotal, ln.GSTRate, ln.HSNCode, ln.CGST, ln.SGST, ln.IGST)
		if err != nil {
			return err
		}
		for _, sn := range ln.Serials {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO invoice_line_serials (line_id, serial) VALUES ($1, $2)",
				ln.ID, sn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *invoiceRepo) loadDetails(ctx context.Context, inv *domain.Invoice) error {
	var lines []domain.InvoiceLine
	err := r.db.SelectContext(ctx, &lines,
		"SELECT * FROM invoice_lines WHERE invoice_id = $1 ORDER BY position", inv.ID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.loadDetails lines: %w", err)
	}
	for i := range lines {
		var serials []string
		err := r.db.SelectContext(ctx, &serials,
			"SELECT serial FROM invoice_line_serials WHERE line_id = $1 ORDER BY serial", lines[i].ID)
		if err != nil {
			return fmt.Errorf("invoiceRepo.loadDetails serials: %w", err)
		}
		lines[i].Serials = serials
	}
	inv.Lines = lines

	var ref domain.ConsignmentRef
	err = r.db.GetContext(ctx, &ref,
		`SELECT sender_org_id, agent_id, challan_id
		 FROM invoice_consignments WHERE invoice_id = $1`, inv.ID)
	switch {
	case err == nil:
		inv.Consignment = &ref
	case errors.Is(err, sql.ErrNoRows):
		inv.Consignment = nil
	default:
		return fmt.Errorf("invoiceRepo.loadDetails consignment: %w", err)
	}
	return nil
}

// nullableJSON maps an empty payload to NULL so the column stays queryable
// with IS NULL.
func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
