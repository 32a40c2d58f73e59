package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vanik/internal/domain"
)

// MockHSNRepo is a mock implementation of port.HSNRepository.
type MockHSNRepo struct {
	mock.Mock
}

func (m *MockHSNRepo) IsActiveCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockHSNRepo) GetByCode(ctx context.Context, code string) (*domain.HSNEntry, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HSNEntry), args.Error(1)
}
