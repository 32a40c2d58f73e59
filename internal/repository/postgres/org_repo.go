package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vanik/internal/domain"
	"vanik/internal/port"
)

type orgRepo struct {
	db *sqlx.DB
}

// NewOrgRepo creates a new PostgreSQL-backed OrgRepository.
func NewOrgRepo(db *sqlx.DB) port.OrgRepository {
	return &orgRepo{db: db}
}

func (r *orgRepo) Create(ctx context.Context, org *domain.Organization) error {
	now := time.Now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now

	query := `INSERT INTO organizations
		(id, name, slug, state_code, gstin, contact_email, tax_enabled,
		 verification_status, verification_source, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Slug, org.StateCode, org.GSTIN, org.ContactEmail,
		org.TaxEnabled, org.VerificationStatus, org.VerificationSource,
		org.IsActive, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "slug") {
			return domain.ErrDuplicateOrgSlug
		}
		return fmt.Errorf("orgRepo.Create: %w", err)
	}
	return nil
}

func (r *orgRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.GetContext(ctx, &org, "SELECT * FROM organizations WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("orgRepo.GetByID: %w", err)
	}
	return &org, nil
}

func (r *orgRepo) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.GetContext(ctx, &org, "SELECT * FROM organizations WHERE slug = $1", slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("orgRepo.GetBySlug: %w", err)
	}
	return &org, nil
}

func (r *orgRepo) Update(ctx context.Context, org *domain.Organization) error {
	org.UpdatedAt = time.Now().UTC()
	query := `UPDATE organizations SET
		name = $1, state_code = $2, gstin = $3, contact_email = $4,
		tax_enabled = $5, verification_status = $6, verification_source = $7,
		is_active = $8, updated_at = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(ctx, query,
		org.Name, org.StateCode, org.GSTIN, org.ContactEmail,
		org.TaxEnabled, org.VerificationStatus, org.VerificationSource,
		org.IsActive, org.UpdatedAt, org.ID)
	if err != nil {
		return fmt.Errorf("orgRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
