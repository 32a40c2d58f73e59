package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vanik/internal/domain"
	"vanik/internal/port"
)

type serialRepo struct {
	db *sqlx.DB
}

// NewSerialRepo creates a new PostgreSQL-backed SerialRepository.
func NewSerialRepo(db *sqlx.DB) port.SerialRepository {
	return &serialRepo{db: db}
}

func (r *serialRepo) Add(ctx context.Context, orgID, productID uuid.UUID, serials []string) error {
	if len(serials) == 0 {
		return nil
	}
	now := time.Now().UTC()

	// One multi-row insert; serial uniqueness per (org, product) is
	// enforced by the table's unique constraint.
	var b strings.Builder
	b.WriteString("INSERT INTO serial_numbers (id, org_id, product_id, serial, status, created_at, updated_at) VALUES ")
	insertArgs := []interface{}{orgID, productID, now}
	for i, sn := range serials {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(gen_random_uuid(), $1, $2, $%d, 'available', $3, $3)", i+4)
		insertArgs = append(insertArgs, sn)
	}
	if _, err := r.db.ExecContext(ctx, b.String(), insertArgs...); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateSerial
		}
		return fmt.Errorf("serialRepo.Add: %w", err)
	}
	return nil
}

func (r *serialRepo) AvailableSet(ctx context.Context, orgID, productID uuid.UUID, serials []string) (map[string]bool, error) {
	return availableSet(ctx, r.db, orgID, productID, serials)
}

// Reserve flips the given serials from available to reserved for the
// invoice. A shortfall in the affected count means another document took one
// of them after validation.
func (r *serialRepo) Reserve(ctx context.Context, orgID, productID, invoiceID uuid.UUID, serials []string) error {
	if len(serials) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		`UPDATE serial_numbers
		 SET status = 'reserved', reserved_by = ?, updated_at = ?
		 WHERE org_id = ? AND product_id = ? AND serial IN (?) AND status = 'available'`,
		invoiceID, time.Now().UTC(), orgID, productID, serials)
	if err != nil {
		return fmt.Errorf("serialRepo.Reserve: %w", err)
	}
	result, err := r.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return fmt.Errorf("serialRepo.Reserve: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(serials) {
		return &domain.ConcurrencyError{Op: "serial reserve"}
	}
	return nil
}

func (r *serialRepo) Release(ctx context.Context, orgID, invoiceID uuid.UUID) error {
	return releaseSerials(ctx, r.db, orgID, invoiceID)
}

// releaseSerials is shared with the posting transaction, which frees the
// posting invoice's own holds before revalidating.
func releaseSerials(ctx context.Context, e sqlx.ExecerContext, orgID, invoiceID uuid.UUID) error {
	_, err := e.ExecContext(ctx,
		`UPDATE serial_numbers
		 SET status = 'available', reserved_by = NULL, updated_at = $1
		 WHERE org_id = $2 AND reserved_by = $3 AND status = 'reserved'`,
		time.Now().UTC(), orgID, invoiceID)
	if err != nil {
		return fmt.Errorf("releaseSerials: %w", err)
	}
	return nil
}

// availableSet is shared with the posting transaction, which runs the same
// query against its *sqlx.Tx.
func availableSet(ctx context.Context, q sqlx.QueryerContext, orgID, productID uuid.UUID, serials []string) (map[string]bool, error) {
	out := make(map[string]bool, len(serials))
	if len(serials) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(
		`SELECT serial FROM serial_numbers
		 WHERE org_id = ? AND product_id = ? AND status = 'available' AND serial IN (?)`,
		orgID, productID, serials)
	if err != nil {
		return nil, fmt.Errorf("availableSet: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var found []string
	if err := sqlx.SelectContext(ctx, q, &found, query, args...); err != nil {
		return nil, fmt.Errorf("availableSet: %w", err)
	}
	for _, sn := range found {
		out[sn] = true
	}
	return out, nil
}
