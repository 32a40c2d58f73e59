package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
	"vanik/internal/gst"
	"vanik/internal/port"
)

// BillLineInput is one proposed purchase bill line. ProductID may be nil for
// a line not yet linked to the catalog. Any client-supplied line total is
// ignored: amounts are always recomputed server-side.
type BillLineInput struct {
	ProductID     *uuid.UUID       `json:"product_id"`
	Name          string           `json:"name" binding:"required"`
	Qty           decimal.Decimal  `json:"qty" binding:"required"`
	UnitPrice     decimal.Decimal  `json:"unit_price" binding:"required"`
	VendorHSNCode string           `json:"vendor_hsn_code"`
	VendorGSTRate *decimal.Decimal `json:"vendor_gst_rate"`
}

// CreateBillInput is the DTO for creating a draft purchase bill.
type CreateBillInput struct {
	VendorName      string          `json:"vendor_name" binding:"required"`
	VendorGSTIN     string          `json:"vendor_gstin"`
	VendorStateCode string          `json:"vendor_state_code"`
	BilledAt        time.Time       `json:"billed_at"`
	Lines           []BillLineInput `json:"lines" binding:"required,min=1"`
}

// PurchaseBillService drives the purchase bill state machine:
// draft -> approved -> posted, with draft -> flagged_hsn_mismatch -> draft as
// the human-review loop for vendor HSN/rate disagreements.
type PurchaseBillService interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateBillInput) (*domain.PurchaseBill, error)
	Approve(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error)
	Revert(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error)
	Post(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error)
	GetByID(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error)
	List(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.PurchaseBill, int, error)
}

type purchaseBillService struct {
	bills    port.PurchaseBillRepository
	orgs     port.OrgRepository
	products port.ProductRepository
	seq      port.SequenceRepository
	posting  port.PostingStore
	email    port.EmailSender
	now      func() time.Time
}

// NewPurchaseBillService creates a new PurchaseBillService implementation.
func NewPurchaseBillService(
	bills port.PurchaseBillRepository,
	orgs port.OrgRepository,
	products port.ProductRepository,
	seq port.SequenceRepository,
	posting port.PostingStore,
	email port.EmailSender,
) PurchaseBillService {
	return &purchaseBillService{
		bills:    bills,
		orgs:     orgs,
		products: products,
		seq:      seq,
		posting:  posting,
		email:    email,
		now:      time.Now,
	}
}

func (s *purchaseBillService) Create(ctx context.Context, orgID uuid.UUID, input CreateBillInput) (*domain.PurchaseBill, error) {
	for i, ln := range input.Lines {
		if !ln.Qty.IsPositive() {
			return nil, fmt.Errorf("line %d: %w", i, domain.ErrInvalidQuantity)
		}
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("bill.Create: loading org: %w", err)
	}

	lines, taxLines, err := s.resolveLines(ctx, orgID, input.Lines)
	if err != nil {
		return nil, err
	}

	// Vendor unit prices are pre-tax, so bills always compute GST-exclusive.
	// For a purchase the vendor is the seller of record and our org the
	// buyer.
	vendor := gst.Seller{GSTIN: input.VendorGSTIN, StateCode: input.VendorStateCode, TaxEnabled: org.TaxEnabled}
	breakup := gst.Compute(vendor, gst.Buyer{GSTIN: org.GSTIN, StateCode: org.StateCode}, taxLines, false)

	day := s.now()
	if !input.BilledAt.IsZero() {
		day = input.BilledAt
	}
	n, err := s.seq.Next(ctx, orgID, domain.DocTypePurchaseBill, day)
	if err != nil {
		return nil, fmt.Errorf("bill.Create: next sequence: %w", err)
	}

	bill := &domain.PurchaseBill{
		ID:              uuid.New(),
		OrgID:           orgID,
		Number:          FormatDocNumber("PB", day, n),
		VendorName:      input.VendorName,
		VendorGSTIN:     input.VendorGSTIN,
		VendorStateCode: input.VendorStateCode,
		Status:          domain.BillStatusDraft,
		Subtotal:        breakup.Subtotal,
		CGST:            breakup.CGST,
		SGST:            breakup.SGST,
		IGST:            breakup.IGST,
		GrandTotal:      breakup.GrandTotal,
		BilledAt:        day,
		Lines:           lines,
	}

	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("bill.Create: %w", err)
	}
	return bill, nil
}

// Approve compares every linked line's vendor-declared HSN code and GST rate
// against the system's master-catalog values. Any disagreement flags the bill
// instead of approving it; flagging is a state, not an error.
func (s *purchaseBillService) Approve(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error) {
	bill, err := s.bills.GetByID(ctx, orgID, billID)
	if err != nil {
		return nil, fmt.Errorf("bill.Approve: %w", err)
	}
	if bill.Status != domain.BillStatusDraft {
		return nil, domain.NewWorkflowError(string(bill.Status), string(domain.BillStatusDraft),
			fmt.Sprintf("bill %s is %s; only a draft can be approved", bill.Number, bill.Status))
	}

	var mismatched []uuid.UUID
	var mismatchNames []string
	for i := range bill.Lines {
		ln := &bill.Lines[i]
		if ln.ProductID == nil {
			continue // unlinked lines are exempt from the comparison
		}
		match, err := s.lineMatchesCatalog(ctx, orgID, ln)
		if err != nil {
			return nil, fmt.Errorf("bill.Approve: %w", err)
		}
		if !match {
			ln.HSNMismatch = true
			mismatched = append(mismatched, ln.ID)
			mismatchNames = append(mismatchNames, ln.Name)
		}
	}

	if len(mismatched) > 0 {
		if err := s.bills.SetLineMismatches(ctx, bill.ID, mismatched); err != nil {
			return nil, fmt.Errorf("bill.Approve: recording mismatches: %w", err)
		}
		ok, err := s.bills.UpdateStatus(ctx, orgID, bill.ID, domain.BillStatusDraft, domain.BillStatusFlaggedHSN)
		if err != nil {
			return nil, fmt.Errorf("bill.Approve: %w", err)
		}
		if !ok {
			return nil, &domain.ConcurrencyError{Op: "bill approve"}
		}
		bill.Status = domain.BillStatusFlaggedHSN
		now := s.now()
		bill.FlaggedAt = &now
		s.notifyFlagged(ctx, orgID, bill, mismatchNames)
		return bill, nil
	}

	ok, err := s.bills.UpdateStatus(ctx, orgID, bill.ID, domain.BillStatusDraft, domain.BillStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("bill.Approve: %w", err)
	}
	if !ok {
		return nil, &domain.ConcurrencyError{Op: "bill approve"}
	}
	bill.Status = domain.BillStatusApproved
	now := s.now()
	bill.ApprovedAt = &now
	return bill, nil
}

func (s *purchaseBillService) Revert(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error) {
	bill, err := s.bills.GetByID(ctx, orgID, billID)
	if err != nil {
		return nil, fmt.Errorf("bill.Revert: %w", err)
	}
	if bill.Status != domain.BillStatusFlaggedHSN {
		return nil, domain.NewWorkflowError(string(bill.Status), string(domain.BillStatusFlaggedHSN),
			fmt.Sprintf("bill %s is %s; only a flagged bill can be reverted to draft", bill.Number, bill.Status))
	}

	if err := s.bills.ClearApprovalMeta(ctx, orgID, bill.ID); err != nil {
		return nil, fmt.Errorf("bill.Revert: %w", err)
	}
	ok, err := s.bills.UpdateStatus(ctx, orgID, bill.ID, domain.BillStatusFlaggedHSN, domain.BillStatusDraft)
	if err != nil {
		return nil, fmt.Errorf("bill.Revert: %w", err)
	}
	if !ok {
		return nil, &domain.ConcurrencyError{Op: "bill revert"}
	}
	bill.Status = domain.BillStatusDraft
	bill.FlaggedAt = nil
	for i := range bill.Lines {
		bill.Lines[i].HSNMismatch = false
	}
	return bill, nil
}

func (s *purchaseBillService) Post(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error) {
	bill, err := s.bills.GetByID(ctx, orgID, billID)
	if err != nil {
		return nil, fmt.Errorf("bill.Post: %w", err)
	}
	switch bill.Status {
	case domain.BillStatusApproved:
		// proceed
	case domain.BillStatusPosted:
		return nil, domain.NewWorkflowError(string(bill.Status), string(domain.BillStatusApproved),
			fmt.Sprintf("bill %s is already posted", bill.Number))
	case domain.BillStatusFlaggedHSN:
		return nil, domain.NewWorkflowError(string(bill.Status), string(domain.BillStatusApproved),
			fmt.Sprintf("bill %s is flagged; resolve the HSN mismatches and re-approve first", bill.Number))
	default:
		return nil, domain.NewWorkflowError(string(bill.Status), string(domain.BillStatusApproved),
			fmt.Sprintf("bill %s is %s; it must be approved before posting", bill.Number, bill.Status))
	}

	// An approved bill with unlinked lines means the approval gate was
	// bypassed somewhere; that is an integrity problem, not user error.
	productIDs := make([]uuid.UUID, 0, len(bill.Lines))
	for i := range bill.Lines {
		if bill.Lines[i].ProductID == nil {
			ierr := &domain.IntegrityError{Message: fmt.Sprintf(
				"bill %s line %d has no product link but reached posting", bill.Number, i)}
			log.Printf("bill.Post: %v", ierr)
			return nil, ierr
		}
		productIDs = append(productIDs, *bill.Lines[i].ProductID)
	}

	err = s.posting.WithProductLocks(ctx, orgID, productIDs, func(tx port.PostingTx) error {
		now := s.now()
		entries := make([]domain.StockEntry, 0, len(bill.Lines))
		for _, ln := range bill.Lines {
			entries = append(entries, domain.StockEntry{
				ID:         uuid.New(),
				OrgID:      orgID,
				ProductID:  *ln.ProductID,
				Kind:       domain.StockTxnIn,
				Qty:        ln.Qty,
				RefDocType: domain.DocTypePurchaseBill,
				RefDocID:   &bill.ID,
				CreatedAt:  now,
			})
		}
		if err := tx.AppendStock(ctx, entries); err != nil {
			return fmt.Errorf("writing stock ledger: %w", err)
		}

		ok, err := tx.UpdateBillStatus(ctx, orgID, bill.ID, domain.BillStatusApproved, domain.BillStatusPosted)
		if err != nil {
			return fmt.Errorf("flipping status: %w", err)
		}
		if !ok {
			return domain.NewWorkflowError(string(domain.BillStatusPosted), string(domain.BillStatusApproved),
				fmt.Sprintf("bill %s is already posted", bill.Number))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	bill.Status = domain.BillStatusPosted
	return bill, nil
}

func (s *purchaseBillService) GetByID(ctx context.Context, orgID, billID uuid.UUID) (*domain.PurchaseBill, error) {
	return s.bills.GetByID(ctx, orgID, billID)
}

func (s *purchaseBillService) List(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.PurchaseBill, int, error) {
	return s.bills.ListByOrg(ctx, orgID, offset, limit)
}

// resolveLines recomputes every line total from qty and unit price and looks
// up the system HSN/rate snapshot for linked lines. Vendor-declared rates
// drive the bill's tax figures because the document must total to what the
// vendor printed; the system values exist for the approval comparison.
func (s *purchaseBillService) resolveLines(ctx context.Context, orgID uuid.UUID, inputs []BillLineInput) ([]domain.PurchaseBillLine, []gst.Line, error) {
	lines := make([]domain.PurchaseBillLine, 0, len(inputs))
	taxLines := make([]gst.Line, 0, len(inputs))

	for i, in := range inputs {
		ln := domain.PurchaseBillLine{
			ID:            uuid.New(),
			Position:      i,
			ProductID:     in.ProductID,
			Name:          in.Name,
			Qty:           in.Qty,
			UnitPrice:     in.UnitPrice,
			LineTotal:     in.Qty.Mul(in.UnitPrice).Round(2),
			VendorHSNCode: in.VendorHSNCode,
			VendorGSTRate: in.VendorGSTRate,
		}

		if in.ProductID != nil {
			product, err := s.products.GetByID(ctx, orgID, *in.ProductID)
			if err != nil {
				return nil, nil, fmt.Errorf("bill line %d: loading product: %w", i, err)
			}
			var master *domain.MasterProduct
			if product.MasterProductID != nil {
				master, err = s.products.GetMaster(ctx, *product.MasterProductID)
				if err != nil {
					return nil, nil, fmt.Errorf("bill line %d: loading master product: %w", i, err)
				}
			}
			ln.SystemHSNCode = product.EffectiveHSNCode(master)
			ln.SystemGSTRate = product.EffectiveGSTRate(master)
		}

		rate := ln.VendorGSTRate
		if rate == nil {
			rate = ln.SystemGSTRate
		}
		taxLines = append(taxLines, gst.Line{
			Amount:  ln.LineTotal,
			Rate:    rate,
			HSNCode: ln.VendorHSNCode,
		})
		lines = append(lines, ln)
	}
	return lines, taxLines, nil
}

// lineMatchesCatalog compares the vendor-declared HSN and rate with the
// system values resolved at create time. Lines the system could not resolve
// (no master data) only match when the vendor declared nothing either.
func (s *purchaseBillService) lineMatchesCatalog(ctx context.Context, orgID uuid.UUID, ln *domain.PurchaseBillLine) (bool, error) {
	product, err := s.products.GetByID(ctx, orgID, *ln.ProductID)
	if err != nil {
		return false, fmt.Errorf("loading product %s: %w", *ln.ProductID, err)
	}
	var master *domain.MasterProduct
	if product.MasterProductID != nil {
		master, err = s.products.GetMaster(ctx, *product.MasterProductID)
		if err != nil {
			return false, fmt.Errorf("loading master product: %w", err)
		}
	}

	sysHSN := product.EffectiveHSNCode(master)
	sysRate := product.EffectiveGSTRate(master)

	if ln.VendorHSNCode != sysHSN {
		return false, nil
	}
	switch {
	case ln.VendorGSTRate == nil && sysRate == nil:
		return true, nil
	case ln.VendorGSTRate == nil || sysRate == nil:
		return false, nil
	default:
		return ln.VendorGSTRate.Equal(*sysRate), nil
	}
}

// notifyFlagged emails org admins about the flag. Failures are logged, never
// surfaced: the state transition already committed.
func (s *purchaseBillService) notifyFlagged(ctx context.Context, orgID uuid.UUID, bill *domain.PurchaseBill, lines []string) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		log.Printf("bill.Approve: loading org for flag notice: %v", err)
		return
	}
	notice := port.BillFlagNotice{
		BillNumber:      bill.Number,
		VendorName:      bill.VendorName,
		MismatchedLines: lines,
	}
	if org.ContactEmail == "" {
		log.Printf("bill.Approve: org %s has no contact email, skipping flag notice for %s", org.Slug, bill.Number)
		return
	}
	if err := s.email.SendBillFlaggedEmail(ctx, org.ContactEmail, org.Name, notice); err != nil {
		log.Printf("bill.Approve: sending flag notice for %s: %v", bill.Number, err)
	}
}
