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

type customerRepo struct {
	db *sqlx.DB
}

// NewCustomerRepo creates a new PostgreSQL-backed CustomerRepository.
func NewCustomerRepo(db *sqlx.DB) port.CustomerRepository {
	return &customerRepo{db: db}
}

// FindOrCreateMaster dedupes on mobile first, then GSTIN. The lookup and
// insert race is settled by the partial unique indexes on the table: a loser
// re-reads the winner's row.
func (r *customerRepo) FindOrCreateMaster(ctx context.Context, master *domain.CustomerMaster) (*domain.CustomerMaster, error) {
	existing, err := r.findMaster(ctx, master.Mobile, master.GSTIN)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	master.CreatedAt = now
	master.UpdatedAt = now
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO customer_masters (id, full_name, mobile, gstin, state_code, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		master.ID, master.FullName, master.Mobile, master.GSTIN, master.StateCode,
		master.CreatedAt, master.UpdatedAt)
	if err == nil {
		return master, nil
	}

	// Unique violation: someone else created the identity concurrently.
	existing, ferr := r.findMaster(ctx, master.Mobile, master.GSTIN)
	if ferr != nil {
		return nil, fmt.Errorf("customerRepo.FindOrCreateMaster: %w", err)
	}
	return existing, nil
}

func (r *customerRepo) findMaster(ctx context.Context, mobile, gstin string) (*domain.CustomerMaster, error) {
	var master domain.CustomerMaster
	var err error
	switch {
	case mobile != "":
		err = r.db.GetContext(ctx, &master,
			"SELECT * FROM customer_masters WHERE mobile = $1", mobile)
	case gstin != "":
		err = r.db.GetContext(ctx, &master,
			"SELECT * FROM customer_masters WHERE gstin = $1", gstin)
	default:
		return nil, domain.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("customerRepo.findMaster: %w", err)
	}
	return &master, nil
}

// Link upserts the (org, master) pair. A second link attempt returns the
// existing row rather than erroring, keeping the one-row invariant.
func (r *customerRepo) Link(ctx context.Context, link *domain.OrgCustomer) (*domain.OrgCustomer, error) {
	link.CreatedAt = time.Now().UTC()
	var out domain.OrgCustomer
	err := r.db.GetContext(ctx, &out,
		`INSERT INTO org_customers (id, org_id, master_id, display_name, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (org_id, master_id)
		 DO UPDATE SET display_name = EXCLUDED.display_name, is_active = true
		 RETURNING *`,
		link.ID, link.OrgID, link.MasterID, link.DisplayName, link.IsActive, link.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("customerRepo.Link: %w", err)
	}
	return &out, nil
}

func (r *customerRepo) GetLink(ctx context.Context, orgID, linkID uuid.UUID) (*domain.OrgCustomer, error) {
	var link domain.OrgCustomer
	err := r.db.GetContext(ctx, &link,
		"SELECT * FROM org_customers WHERE org_id = $1 AND id = $2", orgID, linkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("customerRepo.GetLink: %w", err)
	}
	return &link, nil
}

func (r *customerRepo) GetMaster(ctx context.Context, masterID uuid.UUID) (*domain.CustomerMaster, error) {
	var master domain.CustomerMaster
	err := r.db.GetContext(ctx, &master,
		"SELECT * FROM customer_masters WHERE id = $1", masterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("customerRepo.GetMaster: %w", err)
	}
	return &master, nil
}

func (r *customerRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.OrgCustomer, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM org_customers WHERE org_id = $1", orgID)
	if err != nil {
		return nil, 0, fmt.Errorf("customerRepo.ListByOrg count: %w", err)
	}

	var links []domain.OrgCustomer
	err = r.db.SelectContext(ctx, &links,
		`SELECT * FROM org_customers WHERE org_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("customerRepo.ListByOrg: %w", err)
	}
	return links, total, nil
}
