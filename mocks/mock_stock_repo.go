package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"vanik/internal/domain"
)

// MockStockRepo is a mock implementation of port.StockRepository.
type MockStockRepo struct {
	mock.Mock
}

func (m *MockStockRepo) RawBalance(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID, productID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStockRepo) CurrentStock(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID, productID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStockRepo) Append(ctx context.Context, entries []domain.StockEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockStockRepo) ListByProduct(ctx context.Context, orgID, productID uuid.UUID, offset, limit int) ([]domain.StockEntry, int, error) {
	args := m.Called(ctx, orgID, productID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.StockEntry), args.Int(1), args.Error(2)
}

// MockConsignmentRepo is a mock implementation of port.ConsignmentRepository.
type MockConsignmentRepo struct {
	mock.Mock
}

func (m *MockConsignmentRepo) ConsignmentBalance(ctx context.Context, senderOrgID, agentID, productID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, senderOrgID, agentID, productID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockConsignmentRepo) Append(ctx context.Context, entries []domain.ConsignmentEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockConsignmentRepo) ListByAgent(ctx context.Context, senderOrgID, agentID uuid.UUID, offset, limit int) ([]domain.ConsignmentEntry, int, error) {
	args := m.Called(ctx, senderOrgID, agentID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ConsignmentEntry), args.Int(1), args.Error(2)
}
