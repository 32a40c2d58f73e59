package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSerialRepo is a mock implementation of port.SerialRepository.
type MockSerialRepo struct {
	mock.Mock
}

func (m *MockSerialRepo) Add(ctx context.Context, orgID, productID uuid.UUID, serials []string) error {
	args := m.Called(ctx, orgID, productID, serials)
	return args.Error(0)
}

func (m *MockSerialRepo) AvailableSet(ctx context.Context, orgID, productID uuid.UUID, serials []string) (map[string]bool, error) {
	args := m.Called(ctx, orgID, productID, serials)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockSerialRepo) Reserve(ctx context.Context, orgID, productID, invoiceID uuid.UUID, serials []string) error {
	args := m.Called(ctx, orgID, productID, invoiceID, serials)
	return args.Error(0)
}

func (m *MockSerialRepo) Release(ctx context.Context, orgID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, orgID, invoiceID)
	return args.Error(0)
}
