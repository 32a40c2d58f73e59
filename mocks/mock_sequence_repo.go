package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSequenceRepo is a mock implementation of port.SequenceRepository.
type MockSequenceRepo struct {
	mock.Mock
}

func (m *MockSequenceRepo) Next(ctx context.Context, orgID uuid.UUID, docType string, day time.Time) (int, error) {
	args := m.Called(ctx, orgID, docType, day)
	return args.Int(0), args.Error(1)
}
