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

type productRepo struct {
	db *sqlx.DB
}

// NewProductRepo creates a new PostgreSQL-backed ProductRepository.
func NewProductRepo(db *sqlx.DB) port.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO products
		(id, org_id, master_product_id, name, unit_price, gst_rate, hsn_code,
		 serial_tracked, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OrgID, p.MasterProductID, p.Name, p.UnitPrice, p.GSTRate,
		p.HSNCode, p.SerialTracked, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("productRepo.Create: %w", err)
	}
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, orgID, productID uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p,
		"SELECT * FROM products WHERE org_id = $1 AND id = $2", orgID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("productRepo.GetByID: %w", err)
	}
	return &p, nil
}

func (r *productRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Product, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM products WHERE org_id = $1", orgID)
	if err != nil {
		return nil, 0, fmt.Errorf("productRepo.ListByOrg count: %w", err)
	}

	var products []domain.Product
	err = r.db.SelectContext(ctx, &products,
		`SELECT * FROM products WHERE org_id = $1
		 ORDER BY name LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("productRepo.ListByOrg: %w", err)
	}
	return products, total, nil
}

func (r *productRepo) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	query := `UPDATE products SET
		name = $1, unit_price = $2, gst_rate = $3, hsn_code = $4,
		serial_tracked = $5, is_active = $6, updated_at = $7
		WHERE org_id = $8 AND id = $9`
	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.UnitPrice, p.GSTRate, p.HSNCode,
		p.SerialTracked, p.IsActive, p.UpdatedAt, p.OrgID, p.ID)
	if err != nil {
		return fmt.Errorf("productRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *productRepo) GetMaster(ctx context.Context, masterID uuid.UUID) (*domain.MasterProduct, error) {
	var m domain.MasterProduct
	err := r.db.GetContext(ctx, &m,
		"SELECT * FROM master_products WHERE id = $1", masterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("productRepo.GetMaster: %w", err)
	}
	return &m, nil
}
