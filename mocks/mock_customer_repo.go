package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"vanik/internal/domain"
)

// MockCustomerRepo is a mock implementation of port.CustomerRepository.
type MockCustomerRepo struct {
	mock.Mock
}

func (m *MockCustomerRepo) FindOrCreateMaster(ctx context.Context, master *domain.CustomerMaster) (*domain.CustomerMaster, error) {
	args := m.Called(ctx, master)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerMaster), args.Error(1)
}

func (m *MockCustomerRepo) Link(ctx context.Context, link *domain.OrgCustomer) (*domain.OrgCustomer, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrgCustomer), args.Error(1)
}

func (m *MockCustomerRepo) GetLink(ctx context.Context, orgID, linkID uuid.UUID) (*domain.OrgCustomer, error) {
	args := m.Called(ctx, orgID, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrgCustomer), args.Error(1)
}

func (m *MockCustomerRepo) GetMaster(ctx context.Context, masterID uuid.UUID) (*domain.CustomerMaster, error) {
	args := m.Called(ctx, masterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerMaster), args.Error(1)
}

func (m *MockCustomerRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.OrgCustomer, int, error) {
	args := m.Called(ctx, orgID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.OrgCustomer), args.Int(1), args.Error(2)
}
