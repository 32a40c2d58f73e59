package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"vanik/internal/domain"
	"vanik/internal/gst"
	"vanik/internal/port"
)

// CreateCustomerInput is the DTO for attaching a customer to an org. The
// mobile/GSTIN pair dedupes against the shared master pool: a known identity
// reuses the existing master record instead of minting a duplicate.
type CreateCustomerInput struct {
	FullName    string `json:"full_name" binding:"required"`
	Mobile      string `json:"mobile"`
	GSTIN       string `json:"gstin"`
	StateCode   string `json:"state_code"`
	DisplayName string `json:"display_name"`
}

// CustomerView joins the org link with its master record for API responses.
type CustomerView struct {
	domain.OrgCustomer
	Master domain.CustomerMaster `json:"master"`
}

// CustomerService defines the customer management contract.
type CustomerService interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateCustomerInput) (*CustomerView, error)
	GetByID(ctx context.Context, orgID, customerID uuid.UUID) (*CustomerView, error)
	List(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.OrgCustomer, int, error)
}

type customerService struct {
	repo port.CustomerRepository
}

// NewCustomerService creates a new CustomerService implementation.
func NewCustomerService(repo port.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) Create(ctx context.Context, orgID uuid.UUID, input CreateCustomerInput) (*CustomerView, error) {
	if input.Mobile == "" && input.GSTIN == "" {
		return nil, fmt.Errorf("customer.Create: a mobile number or GSTIN is required")
	}
	if input.GSTIN != "" && !gst.IsValidGSTIN(input.GSTIN) {
		return nil, fmt.Errorf("customer.Create: malformed GSTIN %q", input.GSTIN)
	}

	state, _ := gst.ResolveState(input.GSTIN, input.StateCode)
	master, err := s.repo.FindOrCreateMaster(ctx, &domain.CustomerMaster{
		ID:        uuid.New(),
		FullName:  input.FullName,
		Mobile:    strings.TrimSpace(input.Mobile),
		GSTIN:     strings.ToUpper(strings.TrimSpace(input.GSTIN)),
		StateCode: state,
	})
	if err != nil {
		return nil, fmt.Errorf("customer.Create: resolving master: %w", err)
	}

	display := input.DisplayName
	if display == "" {
		display = master.FullName
	}
	link, err := s.repo.Link(ctx, &domain.OrgCustomer{
		ID:          uuid.New(),
		OrgID:       orgID,
		MasterID:    master.ID,
		DisplayName: display,
		IsActive:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("customer.Create: linking: %w", err)
	}

	return &CustomerView{OrgCustomer: *link, Master: *master}, nil
}

func (s *customerService) GetByID(ctx context.Context, orgID, customerID uuid.UUID) (*CustomerView, error) {
	link, err := s.repo.GetLink(ctx, orgID, customerID)
	if err != nil {
		return nil, err
	}
	master, err := s.repo.GetMaster(ctx, link.MasterID)
	if err != nil {
		return nil, err
	}
	return &CustomerView{OrgCustomer: *link, Master: *master}, nil
}

func (s *customerService) List(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.OrgCustomer, int, error) {
	return s.repo.ListByOrg(ctx, orgID, offset, limit)
}
