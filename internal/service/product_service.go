package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
	"vanik/internal/port"
)

// CreateProductInput is the DTO for creating an org product.
type CreateProductInput struct {
	Name            string           `json:"name" binding:"required"`
	MasterProductID *uuid.UUID       `json:"master_product_id"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	GSTRate         *decimal.Decimal `json:"gst_rate"`
	HSNCode         *string          `json:"hsn_code"`
	SerialTracked   bool             `json:"serial_tracked"`
}

// UpdateProductInput is the DTO for updating an org product. Overrides may be
// cleared by sending an explicit empty value.
type UpdateProductInput struct {
	Name          *string          `json:"name"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	GSTRate       *decimal.Decimal `json:"gst_rate"`
	HSNCode       *string          `json:"hsn_code"`
	SerialTracked *bool            `json:"serial_tracked"`
	IsActive      *bool            `json:"is_active"`
}

// ProductView carries the product with its tax values resolved against the
// master catalog, so clients see what a document line would actually use.
type ProductView struct {
	domain.Product
	EffectiveGSTRate *decimal.Decimal `json:"effective_gst_rate"`
	EffectiveHSNCode string           `json:"effective_hsn_code"`
}

// ProductService defines the product management contract.
type ProductService interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateProductInput) (*ProductView, error)
	GetByID(ctx context.Context, orgID, productID uuid.UUID) (*ProductView, error)
	List(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Product, int, error)
	Update(ctx context.Context, orgID, productID uuid.UUID, input UpdateProductInput) (*ProductView, error)
	AddSerials(ctx context.Context, orgID, productID uuid.UUID, serials []string) error
}

type productService struct {
	repo    port.ProductRepository
	serials port.SerialRepository
	hsn     port.HSNRepository
}

// NewProductService creates a new ProductService implementation.
func NewProductService(repo port.ProductRepository, serials port.SerialRepository, hsn port.HSNRepository) ProductService {
	return &productService{repo: repo, serials: serials, hsn: hsn}
}

func (s *productService) Create(ctx context.Context, orgID uuid.UUID, input CreateProductInput) (*ProductView, error) {
	if err := s.checkHSNOverride(ctx, input.HSNCode); err != nil {
		return nil, fmt.Errorf("product.Create: %w", err)
	}

	p := &domain.Product{
		ID:              uuid.New(),
		OrgID:           orgID,
		MasterProductID: input.MasterProductID,
		Name:            input.Name,
		UnitPrice:       input.UnitPrice,
		GSTRate:         input.GSTRate,
		HSNCode:         input.HSNCode,
		SerialTracked:   input.SerialTracked,
		IsActive:        true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("product.Create: %w", err)
	}
	return s.view(ctx, p)
}

func (s *productService) GetByID(ctx context.Context, orgID, productID uuid.UUID) (*ProductView, error) {
	p, err := s.repo.GetByID(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

func (s *productService) List(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Product, int, error) {
	return s.repo.ListByOrg(ctx, orgID, offset, limit)
}

func (s *productService) Update(ctx context.Context, orgID, productID uuid.UUID, input UpdateProductInput) (*ProductView, error) {
	p, err := s.repo.GetByID(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.UnitPrice != nil {
		p.UnitPrice = *input.UnitPrice
	}
	if input.GSTRate != nil {
		p.GSTRate = input.GSTRate
	}
	if input.HSNCode != nil {
		if err := s.checkHSNOverride(ctx, input.HSNCode); err != nil {
			return nil, fmt.Errorf("product.Update: %w", err)
		}
		p.HSNCode = input.HSNCode
	}
	if input.SerialTracked != nil {
		p.SerialTracked = *input.SerialTracked
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("product.Update: %w", err)
	}
	return s.view(ctx, p)
}

// AddSerials registers new serial numbers as available for a serial-tracked
// product.
func (s *productService) AddSerials(ctx context.Context, orgID, productID uuid.UUID, serials []string) error {
	p, err := s.repo.GetByID(ctx, orgID, productID)
	if err != nil {
		return fmt.Errorf("product.AddSerials: %w", err)
	}
	if !p.SerialTracked {
		return fmt.Errorf("product.AddSerials: product %s is not serial-tracked", p.Name)
	}
	if len(serials) == 0 {
		return fmt.Errorf("product.AddSerials: no serials given")
	}
	seen := make(map[string]bool, len(serials))
	for _, sn := range serials {
		if sn == "" {
			return fmt.Errorf("product.AddSerials: empty serial")
		}
		if seen[sn] {
			return fmt.Errorf("product.AddSerials: duplicate serial %q", sn)
		}
		seen[sn] = true
	}
	if err := s.serials.Add(ctx, orgID, productID, serials); err != nil {
		return fmt.Errorf("product.AddSerials: %w", err)
	}
	return nil
}

// checkHSNOverride rejects an org-level HSN override that the master HSN
// table does not know. Nil and empty overrides are fine; they fall through to
// the linked master entry.
func (s *productService) checkHSNOverride(ctx context.Context, code *string) error {
	if code == nil || *code == "" {
		return nil
	}
	active, err := s.hsn.IsActiveCode(ctx, *code)
	if err != nil {
		return fmt.Errorf("checking HSN code: %w", err)
	}
	if !active {
		return fmt.Errorf("HSN code %q is not an active code", *code)
	}
	return nil
}

func (s *productService) view(ctx context.Context, p *domain.Product) (*ProductView, error) {
	var master *domain.MasterProduct
	if p.MasterProductID != nil {
		m, err := s.repo.GetMaster(ctx, *p.MasterProductID)
		if err != nil {
			return nil, fmt.Errorf("loading master product: %w", err)
		}
		master = m
	}
	return &ProductView{
		Product:          *p,
		EffectiveGSTRate: p.EffectiveGSTRate(master),
		EffectiveHSNCode: p.EffectiveHSNCode(master),
	}, nil
}
