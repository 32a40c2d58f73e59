package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vanik/internal/domain"
)

// OrgRepository defines the contract for organization persistence.
type OrgRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
}

// UserRepository defines the contract for user persistence. All query methods
// include orgID to enforce tenant isolation at the data layer.
type UserRepository interface {
	GetByID(ctx context.Context, orgID, userID uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.User, error)
}

// CustomerRepository defines the contract for the master/org-link customer
// model. Link enforces the one-row-per-(org, master) invariant.
type CustomerRepository interface {
	FindOrCreateMaster(ctx context.Context, master *domain.CustomerMaster) (*domain.CustomerMaster, error)
	Link(ctx context.Context, link *domain.OrgCustomer) (*domain.OrgCustomer, error)
	GetLink(ctx context.Context, orgID, linkID uuid.UUID) (*domain.OrgCustomer, error)
	GetMaster(ctx context.Context, masterID uuid.UUID) (*domain.CustomerMaster, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.OrgCustomer, int, error)
}

// ProductRepository defines the contract for org products and the shared
// master catalog they link to.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, orgID, productID uuid.UUID) (*domain.Product, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Product, int, error)
	Update(ctx context.Context, p *domain.Product) error
	GetMaster(ctx context.Context, masterID uuid.UUID) (*domain.MasterProduct, error)
}

// HSNRepository defines the contract for the HSN/SAC master table.
type HSNRepository interface {
	IsActiveCode(ctx context.Context, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (*domain.HSNEntry, error)
}

// SerialRepository defines the contract for serial-number rows outside of a
// posting transaction.
type SerialRepository interface {
	Add(ctx context.Context, orgID, productID uuid.UUID, serials []string) error
	// AvailableSet returns which of the given serials are currently available
	// for the product.
	AvailableSet(ctx context.Context, orgID, productID uuid.UUID, serials []string) (map[string]bool, error)
	// Reserve flips the given serials from available to reserved, held by the
	// invoice. A shortfall surfaces as a retryable conflict.
	Reserve(ctx context.Context, orgID, productID, invoiceID uuid.UUID, serials []string) error
	// Release returns every serial the invoice holds reserved to the pool.
	Release(ctx context.Context, orgID, invoiceID uuid.UUID) error
}

// SequenceRepository hands out per-(org, document type, day) sequence values.
// Next is atomic; collisions on the underlying counter must surface as
// retryable errors, never as silently skipped numbers.
type SequenceRepository interface {
	Next(ctx context.Context, orgID uuid.UUID, docType string, day time.Time) (int, error)
}
