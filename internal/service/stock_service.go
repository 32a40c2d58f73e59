package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
	"vanik/internal/port"
)

// AdjustStockInput describes a manual stock correction. Qty is the signed
// quantity as entered; the kind decides the direction applied to the ledger.
type AdjustStockInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	Note      string          `json:"note" binding:"required"`
}

// IssueConsignmentInput moves goods from the sender org's own stock to an
// agent's consignment balance under a delivery challan.
type IssueConsignmentInput struct {
	AgentID   uuid.UUID       `json:"agent_id" binding:"required"`
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	ChallanID *uuid.UUID      `json:"challan_id"`
	Note      string          `json:"note"`
}

// ReturnConsignmentInput moves unsold consignment goods back from an agent
// into the sender org's own stock.
type ReturnConsignmentInput struct {
	AgentID   uuid.UUID       `json:"agent_id" binding:"required"`
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	Note      string          `json:"note"`
}

// SaleReturnInput records goods a customer handed back to the agent,
// restoring the agent's consignment holding.
type SaleReturnInput struct {
	AgentID   uuid.UUID       `json:"agent_id" binding:"required"`
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	InvoiceID *uuid.UUID      `json:"invoice_id"`
	Note      string          `json:"note"`
}

// AdjustConsignmentInput corrects an agent's consignment balance without
// touching the sender's own stock (damage, loss, count corrections).
type AdjustConsignmentInput struct {
	AgentID   uuid.UUID       `json:"agent_id" binding:"required"`
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	Note      string          `json:"note" binding:"required"`
}

// StockService exposes the derived balances and the manual mutations of both
// ledgers. Document-driven entries (invoice posting, bill posting) never come
// through here; they are written by the posting transactions of their
// services.
type StockService interface {
	CurrentStock(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error)
	RawBalance(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error)
	Adjust(ctx context.Context, orgID uuid.UUID, input AdjustStockInput) (*domain.StockEntry, error)
	Ledger(ctx context.Context, orgID, productID uuid.UUID, offset, limit int) ([]domain.StockEntry, int, error)
	ExportLedger(ctx context.Context, orgID, productID uuid.UUID) (*domain.Product, []domain.StockEntry, error)

	IssueConsignment(ctx context.Context, senderOrgID uuid.UUID, input IssueConsignmentInput) error
	ReturnConsignment(ctx context.Context, senderOrgID uuid.UUID, input ReturnConsignmentInput) error
	RecordSaleReturn(ctx context.Context, senderOrgID uuid.UUID, input SaleReturnInput) (*domain.ConsignmentEntry, error)
	AdjustConsignment(ctx context.Context, senderOrgID uuid.UUID, input AdjustConsignmentInput) (*domain.ConsignmentEntry, error)
	ConsignmentBalance(ctx context.Context, senderOrgID, agentID, productID uuid.UUID) (decimal.Decimal, error)
	ConsignmentLedger(ctx context.Context, senderOrgID, agentID uuid.UUID, offset, limit int) ([]domain.ConsignmentEntry, int, error)
}

type stockService struct {
	stock        port.StockRepository
	consignments port.ConsignmentRepository
	products     port.ProductRepository
	posting      port.PostingStore
	now          func() time.Time
}

// NewStockService creates a new StockService implementation.
func NewStockService(
	stock port.StockRepository,
	consignments port.ConsignmentRepository,
	products port.ProductRepository,
	posting port.PostingStore,
) StockService {
	return &stockService{
		stock:        stock,
		consignments: consignments,
		products:     products,
		posting:      posting,
		now:          time.Now,
	}
}

func (s *stockService) CurrentStock(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	return s.stock.CurrentStock(ctx, orgID, productID)
}

func (s *stockService) RawBalance(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	return s.stock.RawBalance(ctx, orgID, productID)
}

// Adjust appends a signed adjustment entry. Adjustments may drive the raw
// balance negative; that is visible through RawBalance and intentionally not
// blocked, since a correction often reconciles an already-wrong ledger.
func (s *stockService) Adjust(ctx context.Context, orgID uuid.UUID, input AdjustStockInput) (*domain.StockEntry, error) {
	if input.Qty.IsZero() {
		return nil, fmt.Errorf("stock.Adjust: %w", domain.ErrInvalidQuantity)
	}
	if _, err := s.products.GetByID(ctx, orgID, input.ProductID); err != nil {
		return nil, fmt.Errorf("stock.Adjust: loading product: %w", err)
	}

	entry := domain.StockEntry{
		ID:         uuid.New(),
		OrgID:      orgID,
		ProductID:  input.ProductID,
		Kind:       domain.StockTxnAdjustment,
		Qty:        input.Qty,
		Note:       input.Note,
		RefDocType: domain.DocTypeAdjustment,
		CreatedAt:  s.now(),
	}
	if err := s.stock.Append(ctx, []domain.StockEntry{entry}); err != nil {
		return nil, fmt.Errorf("stock.Adjust: %w", err)
	}
	return &entry, nil
}

func (s *stockService) Ledger(ctx context.Context, orgID, productID uuid.UUID, offset, limit int) ([]domain.StockEntry, int, error) {
	return s.stock.ListByProduct(ctx, orgID, productID, offset, limit)
}

// ExportLedger pages through the full ledger of a product for download
// rendering.
func (s *stockService) ExportLedger(ctx context.Context, orgID, productID uuid.UUID) (*domain.Product, []domain.StockEntry, error) {
	product, err := s.products.GetByID(ctx, orgID, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("stock.ExportLedger: loading product: %w", err)
	}

	const pageSize = 500
	var all []domain.StockEntry
	for offset := 0; ; offset += pageSize {
		page, total, err := s.stock.ListByProduct(ctx, orgID, productID, offset, pageSize)
		if err != nil {
			return nil, nil, fmt.Errorf("stock.ExportLedger: listing entries: %w", err)
		}
		all = append(all, page...)
		if offset+len(page) >= total || len(page) == 0 {
			break
		}
	}
	return product, all, nil
}

// IssueConsignment writes the paired movement atomically under the product
// lock: an `out` entry on the sender's own ledger and a `dc_in` entry on the
// agent's consignment ledger. The sender must actually hold the stock.
func (s *stockService) IssueConsignment(ctx context.Context, senderOrgID uuid.UUID, input IssueConsignmentInput) error {
	if !input.Qty.IsPositive() {
		return fmt.Errorf("consignment.Issue: %w", domain.ErrInvalidQuantity)
	}
	if _, err := s.products.GetByID(ctx, senderOrgID, input.ProductID); err != nil {
		return fmt.Errorf("consignment.Issue: loading product: %w", err)
	}

	return s.posting.WithProductLocks(ctx, senderOrgID, []uuid.UUID{input.ProductID}, func(tx port.PostingTx) error {
		balance, err := tx.RawBalance(ctx, senderOrgID, input.ProductID)
		if err != nil {
			return fmt.Errorf("reading balance: %w", err)
		}
		if balance.LessThan(input.Qty) {
			verr := &domain.ValidationError{}
			verr.Issues = append(verr.Issues, domain.ValidationIssue{
				Code:      domain.CodeInsufficientStock,
				ProductID: input.ProductID,
				Message:   "not enough stock to issue on consignment",
				Available: balance,
				Requested: input.Qty,
			})
			return verr
		}

		now := s.now()
		refType := domain.DocTypeChallan
		if err := tx.AppendStock(ctx, []domain.StockEntry{{
			ID:         uuid.New(),
			OrgID:      senderOrgID,
			ProductID:  input.ProductID,
			Kind:       domain.StockTxnOut,
			Qty:        input.Qty,
			Note:       input.Note,
			RefDocType: refType,
			RefDocID:   input.ChallanID,
			CreatedAt:  now,
		}}); err != nil {
			return fmt.Errorf("writing stock ledger: %w", err)
		}
		if err := tx.AppendConsignment(ctx, []domain.ConsignmentEntry{{
			ID:          uuid.New(),
			SenderOrgID: senderOrgID,
			AgentID:     input.AgentID,
			ProductID:   input.ProductID,
			Kind:        domain.ConsignmentTxnIn,
			Qty:         input.Qty,
			Note:        input.Note,
			RefDocType:  refType,
			RefDocID:    input.ChallanID,
			CreatedAt:   now,
		}}); err != nil {
			return fmt.Errorf("writing consignment ledger: %w", err)
		}
		return nil
	})
}

// ReturnConsignment is the inverse pairing: a negative dc_adjustment on the
// consignment ledger and `in` on the sender's own ledger. The agent must
// hold the goods. dc_return is not used here: that kind is additive and
// records goods re-entering the agent's holding from a sale return.
func (s *stockService) ReturnConsignment(ctx context.Context, senderOrgID uuid.UUID, input ReturnConsignmentInput) error {
	if !input.Qty.IsPositive() {
		return fmt.Errorf("consignment.Return: %w", domain.ErrInvalidQuantity)
	}

	return s.posting.WithProductLocks(ctx, senderOrgID, []uuid.UUID{input.ProductID}, func(tx port.PostingTx) error {
		balance, err := tx.ConsignmentBalance(ctx, senderOrgID, input.AgentID, input.ProductID)
		if err != nil {
			return fmt.Errorf("reading consignment balance: %w", err)
		}
		if balance.LessThan(input.Qty) {
			verr := &domain.ValidationError{}
			verr.Issues = append(verr.Issues, domain.ValidationIssue{
				Code:      domain.CodeInsufficientStock,
				ProductID: input.ProductID,
				Message:   "agent does not hold that much consignment stock",
				Available: balance,
				Requested: input.Qty,
			})
			return verr
		}

		now := s.now()
		if err := tx.AppendConsignment(ctx, []domain.ConsignmentEntry{{
			ID:          uuid.New(),
			SenderOrgID: senderOrgID,
			AgentID:     input.AgentID,
			ProductID:   input.ProductID,
			Kind:        domain.ConsignmentTxnAdjustment,
			Qty:         input.Qty.Neg(),
			Note:        input.Note,
			RefDocType:  domain.DocTypeChallan,
			CreatedAt:   now,
		}}); err != nil {
			return fmt.Errorf("writing consignment ledger: %w", err)
		}
		if err := tx.AppendStock(ctx, []domain.StockEntry{{
			ID:         uuid.New(),
			OrgID:      senderOrgID,
			ProductID:  input.ProductID,
			Kind:       domain.StockTxnIn,
			Qty:        input.Qty,
			Note:       input.Note,
			RefDocType: domain.DocTypeChallan,
			CreatedAt:  now,
		}}); err != nil {
			return fmt.Errorf("writing stock ledger: %w", err)
		}
		return nil
	})
}

// RecordSaleReturn appends an additive dc_return: the customer handed sold
// goods back to the agent, so the agent's consignment holding grows. The
// sender's own stock is untouched; the goods are back on consignment, not
// back in the warehouse.
func (s *stockService) RecordSaleReturn(ctx context.Context, senderOrgID uuid.UUID, input SaleReturnInput) (*domain.ConsignmentEntry, error) {
	if !input.Qty.IsPositive() {
		return nil, fmt.Errorf("consignment.SaleReturn: %w", domain.ErrInvalidQuantity)
	}

	entry := domain.ConsignmentEntry{
		ID:          uuid.New(),
		SenderOrgID: senderOrgID,
		AgentID:     input.AgentID,
		ProductID:   input.ProductID,
		Kind:        domain.ConsignmentTxnReturn,
		Qty:         input.Qty,
		Note:        input.Note,
		CreatedAt:   s.now(),
	}
	if input.InvoiceID != nil {
		entry.RefDocType = domain.DocTypeInvoice
		entry.RefDocID = input.InvoiceID
	}
	if err := s.consignments.Append(ctx, []domain.ConsignmentEntry{entry}); err != nil {
		return nil, fmt.Errorf("consignment.SaleReturn: %w", err)
	}
	return &entry, nil
}

// AdjustConsignment appends a signed dc_adjustment. One-sided on purpose:
// shrinkage at the agent does not restore the sender's own stock.
func (s *stockService) AdjustConsignment(ctx context.Context, senderOrgID uuid.UUID, input AdjustConsignmentInput) (*domain.ConsignmentEntry, error) {
	if input.Qty.IsZero() {
		return nil, fmt.Errorf("consignment.Adjust: %w", domain.ErrInvalidQuantity)
	}

	entry := domain.ConsignmentEntry{
		ID:          uuid.New(),
		SenderOrgID: senderOrgID,
		AgentID:     input.AgentID,
		ProductID:   input.ProductID,
		Kind:        domain.ConsignmentTxnAdjustment,
		Qty:         input.Qty,
		Note:        input.Note,
		RefDocType:  domain.DocTypeAdjustment,
		CreatedAt:   s.now(),
	}
	if err := s.consignments.Append(ctx, []domain.ConsignmentEntry{entry}); err != nil {
		return nil, fmt.Errorf("consignment.Adjust: %w", err)
	}
	return &entry, nil
}

func (s *stockService) ConsignmentBalance(ctx context.Context, senderOrgID, agentID, productID uuid.UUID) (decimal.Decimal, error) {
	return s.consignments.ConsignmentBalance(ctx, senderOrgID, agentID, productID)
}

func (s *stockService) ConsignmentLedger(ctx context.Context, senderOrgID, agentID uuid.UUID, offset, limit int) ([]domain.ConsignmentEntry, int, error) {
	return s.consignments.ListByAgent(ctx, senderOrgID, agentID, offset, limit)
}
