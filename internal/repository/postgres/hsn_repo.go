package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vanik/internal/domain"
	"vanik/internal/port"
)

type hsnRepo struct {
	db *sqlx.DB
}

// NewHSNRepo creates a new PostgreSQL-backed HSNRepository.
func NewHSNRepo(db *sqlx.DB) port.HSNRepository {
	return &hsnRepo{db: db}
}

func (r *hsnRepo) IsActiveCode(ctx context.Context, code string) (bool, error) {
	var active bool
	err := r.db.GetContext(ctx, &active,
		`SELECT EXISTS (
			SELECT 1 FROM hsn_codes
			WHERE code = $1 AND (effective_to IS NULL OR effective_to >= CURRENT_DATE)
		 )`, code)
	if err != nil {
		return false, fmt.Errorf("hsnRepo.IsActiveCode: %w", err)
	}
	return active, nil
}

func (r *hsnRepo) GetByCode(ctx context.Context, code string) (*domain.HSNEntry, error) {
	var entry domain.HSNEntry
	err := r.db.GetContext(ctx, &entry,
		`SELECT code, description, gst_rate,
		        (effective_to IS NULL OR effective_to >= CURRENT_DATE) AS is_active
		 FROM hsn_codes
		 WHERE code = $1
		 ORDER BY gst_rate
		 LIMIT 1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("hsnRepo.GetByCode: %w", err)
	}
	return &entry, nil
}
