package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"vanik/internal/domain"
)

// MockPurchaseBillRepo is a mock implementation of port.PurchaseBillRepository.
type MockPurchaseBillRepo struct {
	mock.Mock
}

func (m *MockPurchaseBillRepo) Create(ctx context.Context, bill *domain.PurchaseBill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockPurchaseBillRepo) GetByID(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error) {
	args := m.Called(ctx, orgID, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PurchaseBill), args.Error(1)
}

func (m *MockPurchaseBillRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.PurchaseBill, int, error) {
	args := m.Called(ctx, orgID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.PurchaseBill), args.Int(1), args.Error(2)
}

func (m *MockPurchaseBillRepo) UpdateStatus(ctx context.Context, orgID, billID uuid.UUID, from, to domain.PurchaseBillStatus) (bool, error) {
	args := m.Called(ctx, orgID, billID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseBillRepo) SetLineMismatches(ctx context.Context, billID uuid.UUID, mismatchedLineIDs []uuid.UUID) error {
	args := m.Called(ctx, billID, mismatchedLineIDs)
	return args.Error(0)
}

func (m *MockPurchaseBillRepo) ClearApprovalMeta(ctx context.Context, orgID, billID uuid.UUID) error {
	args := m.Called(ctx, orgID, billID)
	return args.Error(0)
}
