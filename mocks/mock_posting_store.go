package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"vanik/internal/domain"
	"vanik/internal/port"
)

// MockPostingStore is a mock implementation of port.PostingStore. When the
// recorded call returns nil, fn is invoked with the Tx field so tests can
// script the in-transaction behavior.
type MockPostingStore struct {
	mock.Mock
	Tx port.PostingTx
}

func (m *MockPostingStore) WithProductLocks(ctx context.Context, orgID uuid.UUID, productIDs []uuid.UUID, fn func(tx port.PostingTx) error) error {
	args := m.Called(ctx, orgID, productIDs)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Tx)
}

// MockPostingTx is a mock implementation of port.PostingTx.
type MockPostingTx struct {
	mock.Mock
}

func (m *MockPostingTx) RawBalance(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID, productID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPostingTx) CurrentStock(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID, productID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPostingTx) ConsignmentBalance(ctx context.Context, senderOrgID, agentID, productID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, senderOrgID, agentID, productID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPostingTx) AppendStock(ctx context.Context, entries []domain.StockEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockPostingTx) AppendConsignment(ctx context.Context, entries []domain.ConsignmentEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockPostingTx) AvailableSet(ctx context.Context, orgID, productID uuid.UUID, serials []string) (map[string]bool, error) {
	args := m.Called(ctx, orgID, productID, serials)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockPostingTx) ConsumeSerials(ctx context.Context, orgID, productID, invoiceID uuid.UUID, serials []string) error {
	args := m.Called(ctx, orgID, productID, invoiceID, serials)
	return args.Error(0)
}

func (m *MockPostingTx) ReleaseSerials(ctx context.Context, orgID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, orgID, invoiceID)
	return args.Error(0)
}

func (m *MockPostingTx) UpdateInvoiceStatus(ctx context.Context, orgID, invoiceID uuid.UUID, from, to domain.InvoiceStatus) (bool, error) {
	args := m.Called(ctx, orgID, invoiceID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostingTx) UpdateBillStatus(ctx context.Context, orgID, billID uuid.UUID, from, to domain.PurchaseBillStatus) (bool, error) {
	args := m.Called(ctx, orgID, billID, from, to)
	return args.Bool(0), args.Error(1)
}
