package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"vanik/internal/domain"
	"vanik/internal/port"
	"vanik/internal/service"
	"vanik/mocks"
)

type billFixture struct {
	bills    *mocks.MockPurchaseBillRepo
	orgs     *mocks.MockOrgRepo
	products *mocks.MockProductRepo
	seq      *mocks.MockSequenceRepo
	posting  *mocks.MockPostingStore
	tx       *mocks.MockPostingTx
	email    *mocks.MockEmailSender
	svc      service.PurchaseBillService
}

func newBillFixture() *billFixture {
	f := &billFixture{
		bills:    new(mocks.MockPurchaseBillRepo),
		orgs:     new(mocks.MockOrgRepo),
		products: new(mocks.MockProductRepo),
		seq:      new(mocks.MockSequenceRepo),
		posting:  new(mocks.MockPostingStore),
		tx:       new(mocks.MockPostingTx),
		email:    new(mocks.MockEmailSender),
	}
	f.posting.Tx = f.tx
	f.svc = service.NewPurchaseBillService(f.bills, f.orgs, f.products, f.seq, f.posting, f.email)
	return f
}

// linkedProduct wires a product whose master carries the given HSN and rate.
func (f *billFixture) linkedProduct(orgID uuid.UUID, hsnCode, gstRate string) *domain.Product {
	masterID := uuid.New()
	master := &domain.MasterProduct{
		ID:             masterID,
		Name:           "Copper Wire 1.5mm",
		HSNCode:        &hsnCode,
		GSTRate:        decPtr(gstRate),
		ApprovalStatus: domain.ApprovalApproved,
	}
	product := &domain.Product{
		ID:              uuid.New(),
		OrgID:           orgID,
		MasterProductID: &masterID,
		Name:            "Copper Wire 1.5mm",
		IsActive:        true,
	}
	f.products.On("GetByID", mock.Anything, orgID, product.ID).Return(product, nil)
	f.products.On("GetMaster", mock.Anything, masterID).Return(master, nil)
	return product
}

func (f *billFixture) buyerOrg(orgID uuid.UUID) {
	f.orgs.On("GetByID", mock.Anything, orgID).Return(&domain.Organization{
		ID: orgID, Name: "Sharma Traders", Slug: "sharma-traders",
		StateCode: "27", ContactEmail: "owner@sharma.example",
		TaxEnabled: true, IsActive: true,
	}, nil)
}

func TestPurchaseBillService_Create_VendorRateDrivesTotals(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	f.buyerOrg(orgID)
	product := f.linkedProduct(orgID, "85445990", "18")

	f.seq.On("Next", mock.Anything, orgID, domain.DocTypePurchaseBill, mock.Anything).Return(3, nil)
	f.bills.On("Create", mock.Anything, mock.AnythingOfType("*domain.PurchaseBill")).Return(nil)

	// Vendor declares 12% even though the catalog says 18%; the bill totals
	// follow the vendor's printed document.
	bill, err := f.svc.Create(context.Background(), orgID, service.CreateBillInput{
		VendorName:      "Gupta Electricals",
		VendorStateCode: "27",
		Lines: []service.BillLineInput{
			{
				ProductID:     &product.ID,
				Name:          "Copper Wire 1.5mm",
				Qty:           decimal.NewFromInt(10),
				UnitPrice:     decimal.NewFromInt(100),
				VendorHSNCode: "85445990",
				VendorGSTRate: decPtr("12"),
			},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.BillStatusDraft, bill.Status)
	assert.Regexp(t, `^PB-\d{8}-003$`, bill.Number)
	assert.Equal(t, "1000", bill.Subtotal.String())
	assert.Equal(t, "60", bill.CGST.String())
	assert.Equal(t, "60", bill.SGST.String())
	assert.Equal(t, "1120", bill.GrandTotal.String())

	// System snapshot is stored for the approval comparison.
	ln := bill.Lines[0]
	assert.Equal(t, "85445990", ln.SystemHSNCode)
	assert.Equal(t, "18", ln.SystemGSTRate.String())
}

func TestPurchaseBillService_Create_RejectsNonPositiveQty(t *testing.T) {
	f := newBillFixture()

	_, err := f.svc.Create(context.Background(), uuid.New(), service.CreateBillInput{
		VendorName: "Gupta Electricals",
		Lines: []service.BillLineInput{
			{Name: "Widget", Qty: decimal.NewFromInt(-1), UnitPrice: decimal.NewFromInt(10)},
		},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	f.bills.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPurchaseBillService_Approve_AllLinesMatch(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	product := f.linkedProduct(orgID, "85445990", "18")
	billID := uuid.New()

	bill := &domain.PurchaseBill{
		ID: billID, OrgID: orgID, Number: "PB-20250114-001",
		Status: domain.BillStatusDraft,
		Lines: []domain.PurchaseBillLine{
			{ID: uuid.New(), ProductID: &product.ID, Name: product.Name,
				VendorHSNCode: "85445990", VendorGSTRate: decPtr("18")},
		},
	}
	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(bill, nil)
	f.bills.On("UpdateStatus", mock.Anything, orgID, billID,
		domain.BillStatusDraft, domain.BillStatusApproved).Return(true, nil)

	got, err := f.svc.Approve(context.Background(), orgID, billID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BillStatusApproved, got.Status)
	assert.NotNil(t, got.ApprovedAt)
	f.bills.AssertNotCalled(t, "SetLineMismatches", mock.Anything, mock.Anything, mock.Anything)
	f.email.AssertNotCalled(t, "SendBillFlaggedEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseBillService_Approve_HSNMismatchFlagsBill(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	f.buyerOrg(orgID)
	product := f.linkedProduct(orgID, "85445990", "18")
	billID := uuid.New()
	lineID := uuid.New()

	bill := &domain.PurchaseBill{
		ID: billID, OrgID: orgID, Number: "PB-20250114-002",
		VendorName: "Gupta Electricals",
		Status:     domain.BillStatusDraft,
		Lines: []domain.PurchaseBillLine{
			{ID: lineID, ProductID: &product.ID, Name: product.Name,
				VendorHSNCode: "85446000", VendorGSTRate: decPtr("18")},
		},
	}
	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(bill, nil)
	f.bills.On("SetLineMismatches", mock.Anything, billID, []uuid.UUID{lineID}).Return(nil)
	f.bills.On("UpdateStatus", mock.Anything, orgID, billID,
		domain.BillStatusDraft, domain.BillStatusFlaggedHSN).Return(true, nil)
	f.email.On("SendBillFlaggedEmail", mock.Anything, "owner@sharma.example", "Sharma Traders",
		mock.AnythingOfType("port.BillFlagNotice")).Return(nil)

	got, err := f.svc.Approve(context.Background(), orgID, billID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BillStatusFlaggedHSN, got.Status)
	assert.True(t, got.Lines[0].HSNMismatch)
	assert.NotNil(t, got.FlaggedAt)

	notice := f.email.Calls[0].Arguments.Get(3).(port.BillFlagNotice)
	assert.Equal(t, "PB-20250114-002", notice.BillNumber)
	assert.Equal(t, []string{product.Name}, notice.MismatchedLines)
	f.email.AssertExpectations(t)
}

func TestPurchaseBillService_Approve_RateMismatchFlagsBill(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	f.buyerOrg(orgID)
	product := f.linkedProduct(orgID, "85445990", "18")
	billID := uuid.New()
	lineID := uuid.New()

	bill := &domain.PurchaseBill{
		ID: billID, OrgID: orgID, Number: "PB-20250114-003",
		Status: domain.BillStatusDraft,
		Lines: []domain.PurchaseBillLine{
			{ID: lineID, ProductID: &product.ID, Name: product.Name,
				VendorHSNCode: "85445990", VendorGSTRate: decPtr("12")},
		},
	}
	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(bill, nil)
	f.bills.On("SetLineMismatches", mock.Anything, billID, []uuid.UUID{lineID}).Return(nil)
	f.bills.On("UpdateStatus", mock.Anything, orgID, billID,
		domain.BillStatusDraft, domain.BillStatusFlaggedHSN).Return(true, nil)
	f.email.On("SendBillFlaggedEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Approve(context.Background(), orgID, billID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BillStatusFlaggedHSN, got.Status)
}

func TestPurchaseBillService_Approve_UnlinkedLinesExempt(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	billID := uuid.New()

	bill := &domain.PurchaseBill{
		ID: billID, OrgID: orgID, Number: "PB-20250114-004",
		Status: domain.BillStatusDraft,
		Lines: []domain.PurchaseBillLine{
			{ID: uuid.New(), ProductID: nil, Name: "Misc freight charge",
				VendorHSNCode: "996511"},
		},
	}
	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(bill, nil)
	f.bills.On("UpdateStatus", mock.Anything, orgID, billID,
		domain.BillStatusDraft, domain.BillStatusApproved).Return(true, nil)

	got, err := f.svc.Approve(context.Background(), orgID, billID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BillStatusApproved, got.Status)
}

func TestPurchaseBillService_Approve_NotDraft(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	billID := uuid.New()

	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(&domain.PurchaseBill{
		ID: billID, Number: "PB-20250114-005", Status: domain.BillStatusPosted,
	}, nil)

	_, err := f.svc.Approve(context.Background(), orgID, billID)

	var we *domain.WorkflowError
	assert.ErrorAs(t, err, &we)
}

func TestPurchaseBillService_Revert_FlaggedBackToDraft(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	billID := uuid.New()

	bill := &domain.PurchaseBill{
		ID: billID, OrgID: orgID, Number: "PB-20250114-006",
		Status: domain.BillStatusFlaggedHSN,
		Lines: []domain.PurchaseBillLine{
			{ID: uuid.New(), Name: "Copper Wire 1.5mm", HSNMismatch: true},
		},
	}
	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(bill, nil)
	f.bills.On("ClearApprovalMeta", mock.Anything, orgID, billID).Return(nil)
	f.bills.On("UpdateStatus", mock.Anything, orgID, billID,
		domain.BillStatusFlaggedHSN, domain.BillStatusDraft).Return(true, nil)

	got, err := f.svc.Revert(context.Background(), orgID, billID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BillStatusDraft, got.Status)
	assert.Nil(t, got.FlaggedAt)
	assert.False(t, got.Lines[0].HSNMismatch)
}

func TestPurchaseBillService_Revert_NotFlagged(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	billID := uuid.New()

	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(&domain.PurchaseBill{
		ID: billID, Number: "PB-20250114-007", Status: domain.BillStatusDraft,
	}, nil)

	_, err := f.svc.Revert(context.Background(), orgID, billID)

	var we *domain.WorkflowError
	assert.ErrorAs(t, err, &we)
	f.bills.AssertNotCalled(t, "ClearApprovalMeta", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseBillService_Post_WritesStockIn(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	productID := uuid.New()
	billID := uuid.New()

	bill := &domain.PurchaseBill{
		ID: billID, OrgID: orgID, Number: "PB-20250114-008",
		Status: domain.BillStatusApproved,
		Lines: []domain.PurchaseBillLine{
			{ID: uuid.New(), ProductID: &productID, Qty: decimal.NewFromInt(10)},
		},
	}
	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(bill, nil)
	f.posting.On("WithProductLocks", mock.Anything, orgID, []uuid.UUID{productID}).Return(nil)
	f.tx.On("AppendStock", mock.Anything, mock.AnythingOfType("[]domain.StockEntry")).Return(nil)
	f.tx.On("UpdateBillStatus", mock.Anything, orgID, billID,
		domain.BillStatusApproved, domain.BillStatusPosted).Return(true, nil)

	got, err := f.svc.Post(context.Background(), orgID, billID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BillStatusPosted, got.Status)

	appended := f.tx.Calls[findCall(t, f.tx.Calls, "AppendStock")].Arguments.Get(1).([]domain.StockEntry)
	assert.Len(t, appended, 1)
	assert.Equal(t, domain.StockTxnIn, appended[0].Kind)
	assert.Equal(t, domain.DocTypePurchaseBill, appended[0].RefDocType)
	assert.Equal(t, billID, *appended[0].RefDocID)
}

func TestPurchaseBillService_Post_FlaggedRejected(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	billID := uuid.New()

	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(&domain.PurchaseBill{
		ID: billID, Number: "PB-20250114-009", Status: domain.BillStatusFlaggedHSN,
	}, nil)

	_, err := f.svc.Post(context.Background(), orgID, billID)

	var we *domain.WorkflowError
	assert.ErrorAs(t, err, &we)
	assert.Contains(t, we.Message, "flagged")
}

func TestPurchaseBillService_Post_DraftRejected(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	billID := uuid.New()

	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(&domain.PurchaseBill{
		ID: billID, Number: "PB-20250114-010", Status: domain.BillStatusDraft,
	}, nil)

	_, err := f.svc.Post(context.Background(), orgID, billID)

	var we *domain.WorkflowError
	assert.ErrorAs(t, err, &we)
	assert.Contains(t, we.Message, "must be approved")
}

func TestPurchaseBillService_Post_UnlinkedLineIsIntegrityError(t *testing.T) {
	f := newBillFixture()
	orgID := uuid.New()
	billID := uuid.New()

	f.bills.On("GetByID", mock.Anything, orgID, billID).Return(&domain.PurchaseBill{
		ID: billID, Number: "PB-20250114-011", Status: domain.BillStatusApproved,
		Lines: []domain.PurchaseBillLine{
			{ID: uuid.New(), ProductID: nil, Qty: decimal.NewFromInt(1)},
		},
	}, nil)

	_, err := f.svc.Post(context.Background(), orgID, billID)

	var ie *domain.IntegrityError
	assert.ErrorAs(t, err, &ie)
}
