package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"vanik/internal/domain"
	"vanik/internal/gst"
	"vanik/internal/port"
)

// CreateOrgInput is the DTO for registering an organization.
type CreateOrgInput struct {
	Name         string `json:"name" binding:"required"`
	Slug         string `json:"slug" binding:"required"`
	GSTIN        string `json:"gstin"`
	StateCode    string `json:"state_code"`
	ContactEmail string `json:"contact_email"`
	TaxEnabled   bool   `json:"tax_enabled"`
}

// UpdateOrgInput is the DTO for updating an organization.
type UpdateOrgInput struct {
	Name         *string `json:"name"`
	GSTIN        *string `json:"gstin"`
	StateCode    *string `json:"state_code"`
	ContactEmail *string `json:"contact_email"`
	TaxEnabled   *bool   `json:"tax_enabled"`
	IsActive     *bool   `json:"is_active"`
}

// OrgService defines the organization management contract.
type OrgService interface {
	Create(ctx context.Context, input CreateOrgInput) (*domain.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateOrgInput) (*domain.Organization, error)
}

type orgService struct {
	repo port.OrgRepository
}

// NewOrgService creates a new OrgService implementation.
func NewOrgService(repo port.OrgRepository) OrgService {
	return &orgService{repo: repo}
}

func (s *orgService) Create(ctx context.Context, input CreateOrgInput) (*domain.Organization, error) {
	org := &domain.Organization{
		ID:           uuid.New(),
		Name:         input.Name,
		Slug:         input.Slug,
		GSTIN:        input.GSTIN,
		StateCode:    input.StateCode,
		ContactEmail: input.ContactEmail,
		TaxEnabled:   input.TaxEnabled,
		IsActive:     true,
	}
	verifyState(org)

	if err := s.repo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("org.Create: %w", err)
	}
	return org, nil
}

func (s *orgService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *orgService) Update(ctx context.Context, id uuid.UUID, input UpdateOrgInput) (*domain.Organization, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		org.Name = *input.Name
	}
	if input.GSTIN != nil {
		org.GSTIN = *input.GSTIN
	}
	if input.StateCode != nil {
		org.StateCode = *input.StateCode
	}
	if input.ContactEmail != nil {
		org.ContactEmail = *input.ContactEmail
	}
	if input.TaxEnabled != nil {
		org.TaxEnabled = *input.TaxEnabled
	}
	if input.IsActive != nil {
		org.IsActive = *input.IsActive
	}
	verifyState(org)

	if err := s.repo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("org.Update: %w", err)
	}
	return org, nil
}

// verifyState resolves the org's authoritative state code. A valid GSTIN
// always wins: its embedded state prefix overwrites whatever the state field
// says, and the record is marked verified. Without a GSTIN the declared state
// field stands, unverified.
func verifyState(org *domain.Organization) {
	state, source := gst.ResolveState(org.GSTIN, org.StateCode)
	switch source {
	case gst.StateFromGSTIN:
		org.StateCode = state
		org.VerificationStatus = domain.VerificationVerified
		org.VerificationSource = string(source)
	case gst.StateFromField:
		org.VerificationStatus = domain.VerificationUnverified
		org.VerificationSource = string(source)
	default:
		org.StateCode = ""
		org.VerificationStatus = domain.VerificationUnverified
		org.VerificationSource = string(source)
	}
}
