package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"vanik/internal/domain"
)

// MockInvoiceRepo is a mock implementation of port.InvoiceRepository.
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepo) GetByID(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, orgID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) GetByDraftToken(ctx context.Context, orgID uuid.UUID, token string) (*domain.Invoice, error) {
	args := m.Called(ctx, orgID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, orgID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceRepo) UpdateDraft(ctx context.Context, orgID, invoiceID uuid.UUID, payload json.RawMessage, subtotal decimal.Decimal, version int) error {
	args := m.Called(ctx, orgID, invoiceID, payload, subtotal, version)
	return args.Error(0)
}

func (m *MockInvoiceRepo) ReplaceLines(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepo) UpdateStatus(ctx context.Context, orgID, invoiceID uuid.UUID, from, to domain.InvoiceStatus) (bool, error) {
	args := m.Called(ctx, orgID, invoiceID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepo) SetPaymentStatus(ctx context.Context, orgID, invoiceID uuid.UUID, status domain.PaymentStatus) error {
	args := m.Called(ctx, orgID, invoiceID, status)
	return args.Error(0)
}

func (m *MockInvoiceRepo) TaxTotalsByRate(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]domain.TaxRateTotal, error) {
	args := m.Called(ctx, orgID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaxRateTotal), args.Error(1)
}
