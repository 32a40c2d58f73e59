package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vanik/internal/domain"
	"vanik/internal/service"
	"vanik/mocks"
)

type invoiceFixture struct {
	invoices  *mocks.MockInvoiceRepo
	orgs      *mocks.MockOrgRepo
	customers *mocks.MockCustomerRepo
	products  *mocks.MockProductRepo
	hsn       *mocks.MockHSNRepo
	stock     *mocks.MockStockRepo
	serials   *mocks.MockSerialRepo
	consign   *mocks.MockConsignmentRepo
	seq       *mocks.MockSequenceRepo
	posting   *mocks.MockPostingStore
	tx        *mocks.MockPostingTx
	svc       service.InvoiceService
}

func newInvoiceFixture() *invoiceFixture {
	f := &invoiceFixture{
		invoices:  new(mocks.MockInvoiceRepo),
		orgs:      new(mocks.MockOrgRepo),
		customers: new(mocks.MockCustomerRepo),
		products:  new(mocks.MockProductRepo),
		hsn:       new(mocks.MockHSNRepo),
		stock:     new(mocks.MockStockRepo),
		serials:   new(mocks.MockSerialRepo),
		consign:   new(mocks.MockConsignmentRepo),
		seq:       new(mocks.MockSequenceRepo),
		posting:   new(mocks.MockPostingStore),
		tx:        new(mocks.MockPostingTx),
	}
	f.posting.Tx = f.tx
	f.svc = service.NewInvoiceService(
		f.invoices, f.orgs, f.customers, f.products, f.hsn,
		f.stock, f.serials, f.consign, f.seq, f.posting,
	)
	return f
}

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// catalogProduct wires a product linked to an approved master with an active
// HSN code into the fixture's mocks.
func (f *invoiceFixture) catalogProduct(orgID uuid.UUID, price string) *domain.Product {
	masterID := uuid.New()
	hsnCode := "85395000"
	master := &domain.MasterProduct{
		ID:             masterID,
		Name:           "LED Bulb 9W",
		HSNCode:        &hsnCode,
		GSTRate:        decPtr("18"),
		ApprovalStatus: domain.ApprovalApproved,
	}
	product := &domain.Product{
		ID:              uuid.New(),
		OrgID:           orgID,
		MasterProductID: &masterID,
		Name:            "LED Bulb 9W",
		UnitPrice:       decimal.RequireFromString(price),
		IsActive:        true,
	}
	f.products.On("GetByID", mock.Anything, orgID, product.ID).Return(product, nil)
	f.products.On("GetMaster", mock.Anything, masterID).Return(master, nil)
	f.hsn.On("IsActiveCode", mock.Anything, hsnCode).Return(true, nil)
	return product
}

func (f *invoiceFixture) sellerOrg(orgID uuid.UUID) {
	f.orgs.On("GetByID", mock.Anything, orgID).Return(&domain.Organization{
		ID: orgID, Name: "Sharma Traders", StateCode: "27", TaxEnabled: true, IsActive: true,
	}, nil)
}

func (f *invoiceFixture) intraStateCustomer(orgID uuid.UUID) uuid.UUID {
	linkID := uuid.New()
	masterID := uuid.New()
	f.customers.On("GetLink", mock.Anything, orgID, linkID).
		Return(&domain.OrgCustomer{ID: linkID, OrgID: orgID, MasterID: masterID}, nil)
	f.customers.On("GetMaster", mock.Anything, masterID).
		Return(&domain.CustomerMaster{ID: masterID, FullName: "Ravi Kumar", StateCode: "27"}, nil)
	return linkID
}

func TestInvoiceService_Create_DraftWithTax(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	f.sellerOrg(orgID)
	customerID := f.intraStateCustomer(orgID)
	product := f.catalogProduct(orgID, "1000")

	f.seq.On("Next", mock.Anything, orgID, domain.DocTypeInvoice, mock.Anything).Return(7, nil)
	f.invoices.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)
	f.stock.On("RawBalance", mock.Anything, orgID, product.ID).Return(decimal.NewFromInt(10), nil)

	res, err := f.svc.Create(context.Background(), orgID, service.CreateInvoiceInput{
		CustomerID: customerID,
		Lines: []service.InvoiceLineInput{
			{ProductID: product.ID, Qty: decimal.NewFromInt(1)},
		},
	})

	assert.NoError(t, err)
	assert.Empty(t, res.Issues)
	inv := res.Invoice
	assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, domain.PaymentStatusUnpaid, inv.PaymentStatus)
	assert.Regexp(t, `^INV-\d{8}-007$`, inv.Number)
	assert.Equal(t, "1000", inv.Subtotal.String())
	assert.Equal(t, "90", inv.CGST.String())
	assert.Equal(t, "90", inv.SGST.String())
	assert.Equal(t, "0", inv.IGST.String())
	assert.Equal(t, "1180", inv.GrandTotal.String())
	f.invoices.AssertExpectations(t)
}

func TestInvoiceService_Create_RejectsNonPositiveQty(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()

	_, err := f.svc.Create(context.Background(), orgID, service.CreateInvoiceInput{
		CustomerID: uuid.New(),
		Lines: []service.InvoiceLineInput{
			{ProductID: uuid.New(), Qty: decimal.Zero},
		},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvoiceService_Create_DraftSavedWithAdvisoryIssues(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	f.sellerOrg(orgID)
	customerID := f.intraStateCustomer(orgID)
	missing := uuid.New()

	f.products.On("GetByID", mock.Anything, orgID, missing).Return(nil, domain.ErrNotFound)
	f.seq.On("Next", mock.Anything, orgID, domain.DocTypeInvoice, mock.Anything).Return(1, nil)
	f.invoices.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	res, err := f.svc.Create(context.Background(), orgID, service.CreateInvoiceInput{
		CustomerID: customerID,
		Lines: []service.InvoiceLineInput{
			{ProductID: missing, Qty: decimal.NewFromInt(1)},
		},
	})

	// The draft is saved; the unknown product surfaces as an advisory issue.
	assert.NoError(t, err)
	assert.Len(t, res.Issues, 1)
	assert.Equal(t, domain.CodeProductNotFound, res.Issues[0].Code)
	f.invoices.AssertExpectations(t)
}

func TestInvoiceService_Finalize_Success(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	product := f.catalogProduct(orgID, "500")
	invoiceID := uuid.New()

	inv := &domain.Invoice{
		ID: invoiceID, OrgID: orgID, Number: "INV-20250114-001",
		Status: domain.InvoiceStatusDraft,
		Lines: []domain.InvoiceLine{
			{ProductID: product.ID, Qty: decimal.NewFromInt(2)},
		},
	}
	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(inv, nil)
	f.stock.On("RawBalance", mock.Anything, orgID, product.ID).Return(decimal.NewFromInt(5), nil)
	f.invoices.On("UpdateStatus", mock.Anything, orgID, invoiceID,
		domain.InvoiceStatusDraft, domain.InvoiceStatusFinalized).Return(true, nil)

	got, err := f.svc.Finalize(context.Background(), orgID, invoiceID)

	assert.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusFinalized, got.Status)
}

func TestInvoiceService_Finalize_ReservesSerials(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	product := f.catalogProduct(orgID, "500")
	product.SerialTracked = true
	invoiceID := uuid.New()
	serials := []string{"SN-1", "SN-2"}

	inv := &domain.Invoice{
		ID: invoiceID, OrgID: orgID, Number: "INV-20250114-013",
		Status: domain.InvoiceStatusDraft,
		Lines: []domain.InvoiceLine{
			{ProductID: product.ID, Qty: decimal.NewFromInt(2), Serials: serials},
		},
	}
	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(inv, nil)
	f.stock.On("RawBalance", mock.Anything, orgID, product.ID).Return(decimal.NewFromInt(5), nil)
	f.serials.On("AvailableSet", mock.Anything, orgID, product.ID, serials).
		Return(map[string]bool{"SN-1": true, "SN-2": true}, nil)
	f.serials.On("Reserve", mock.Anything, orgID, product.ID, invoiceID, serials).Return(nil)
	f.invoices.On("UpdateStatus", mock.Anything, orgID, invoiceID,
		domain.InvoiceStatusDraft, domain.InvoiceStatusFinalized).Return(true, nil)

	got, err := f.svc.Finalize(context.Background(), orgID, invoiceID)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusFinalized, got.Status)
	f.serials.AssertExpectations(t)
}

func TestInvoiceService_Finalize_ReserveRaceReleasesHold(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	first := f.catalogProduct(orgID, "500")
	first.SerialTracked = true
	second := f.catalogProduct(orgID, "800")
	second.SerialTracked = true
	invoiceID := uuid.New()

	inv := &domain.Invoice{
		ID: invoiceID, OrgID: orgID, Number: "INV-20250114-014",
		Status: domain.InvoiceStatusDraft,
		Lines: []domain.InvoiceLine{
			{ProductID: first.ID, Qty: decimal.NewFromInt(1), Serials: []string{"SN-1"}},
			{ProductID: second.ID, Qty: decimal.NewFromInt(1), Serials: []string{"SN-9"}},
		},
	}
	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(inv, nil)
	f.stock.On("RawBalance", mock.Anything, orgID, mock.Anything).Return(decimal.NewFromInt(5), nil)
	f.serials.On("AvailableSet", mock.Anything, orgID, first.ID, []string{"SN-1"}).
		Return(map[string]bool{"SN-1": true}, nil)
	f.serials.On("AvailableSet", mock.Anything, orgID, second.ID, []string{"SN-9"}).
		Return(map[string]bool{"SN-9": true}, nil)
	f.serials.On("Reserve", mock.Anything, orgID, first.ID, invoiceID, []string{"SN-1"}).Return(nil)
	// A concurrent finalize took SN-9 between validation and reservation.
	f.serials.On("Reserve", mock.Anything, orgID, second.ID, invoiceID, []string{"SN-9"}).
		Return(&domain.ConcurrencyError{Op: "serial reserve"})
	f.serials.On("Release", mock.Anything, orgID, invoiceID).Return(nil)

	_, err := f.svc.Finalize(context.Background(), orgID, invoiceID)

	require.Error(t, err)
	var ce *domain.ConcurrencyError
	assert.ErrorAs(t, err, &ce)
	// The first line's hold is given back and the invoice stays draft.
	f.serials.AssertCalled(t, "Release", mock.Anything, orgID, invoiceID)
	f.invoices.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Finalize_NotDraft(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	invoiceID := uuid.New()

	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(&domain.Invoice{
		ID: invoiceID, Number: "INV-20250114-001", Status: domain.InvoiceStatusPosted,
	}, nil)

	_, err := f.svc.Finalize(context.Background(), orgID, invoiceID)

	var we *domain.WorkflowError
	assert.ErrorAs(t, err, &we)
	assert.Equal(t, string(domain.InvoiceStatusPosted), we.Current)
}

func TestInvoiceService_Finalize_InsufficientStock(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	product := f.catalogProduct(orgID, "500")
	invoiceID := uuid.New()

	inv := &domain.Invoice{
		ID: invoiceID, OrgID: orgID, Number: "INV-20250114-002",
		Status: domain.InvoiceStatusDraft,
		Lines: []domain.InvoiceLine{
			{ProductID: product.ID, Qty: decimal.NewFromInt(10)},
		},
	}
	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(inv, nil)
	f.stock.On("RawBalance", mock.Anything, orgID, product.ID).Return(decimal.NewFromInt(3), nil)

	_, err := f.svc.Finalize(context.Background(), orgID, invoiceID)

	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodeInsufficientStock, ve.Issues[0].Code)
	f.invoices.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Post_WritesStockAndConsumesSerials(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	product := f.catalogProduct(orgID, "500")
	product.SerialTracked = true
	invoiceID := uuid.New()
	serials := []string{"SN-1", "SN-2"}

	inv := &domain.Invoice{
		ID: invoiceID, OrgID: orgID, Number: "INV-20250114-003",
		Status: domain.InvoiceStatusFinalized,
		Lines: []domain.InvoiceLine{
			{ProductID: product.ID, Qty: decimal.NewFromInt(2), Serials: serials},
		},
	}
	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(inv, nil)
	f.posting.On("WithProductLocks", mock.Anything, orgID, []uuid.UUID{product.ID}).Return(nil)
	f.tx.On("ReleaseSerials", mock.Anything, orgID, invoiceID).Return(nil)
	f.tx.On("RawBalance", mock.Anything, orgID, product.ID).Return(decimal.NewFromInt(2), nil)
	f.tx.On("AvailableSet", mock.Anything, orgID, product.ID, serials).
		Return(map[string]bool{"SN-1": true, "SN-2": true}, nil)
	f.tx.On("AppendStock", mock.Anything, mock.AnythingOfType("[]domain.StockEntry")).Return(nil)
	f.tx.On("ConsumeSerials", mock.Anything, orgID, product.ID, invoiceID, serials).Return(nil)
	f.tx.On("UpdateInvoiceStatus", mock.Anything, orgID, invoiceID,
		domain.InvoiceStatusFinalized, domain.InvoiceStatusPosted).Return(true, nil)

	got, err := f.svc.Post(context.Background(), orgID, invoiceID)

	assert.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPosted, got.Status)

	appended := f.tx.Calls[findCall(t, f.tx.Calls, "AppendStock")].Arguments.Get(1).([]domain.StockEntry)
	assert.Len(t, appended, 1)
	assert.Equal(t, domain.StockTxnOut, appended[0].Kind)
	assert.Equal(t, domain.DocTypeInvoice, appended[0].RefDocType)
	assert.Equal(t, invoiceID, *appended[0].RefDocID)
	f.tx.AssertExpectations(t)
}

func TestInvoiceService_Post_AlreadyPosted(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	invoiceID := uuid.New()

	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(&domain.Invoice{
		ID: invoiceID, Number: "INV-20250114-004", Status: domain.InvoiceStatusPosted,
	}, nil)

	_, err := f.svc.Post(context.Background(), orgID, invoiceID)

	var we *domain.WorkflowError
	assert.ErrorAs(t, err, &we)
	assert.Contains(t, we.Message, "already posted")
}

func TestInvoiceService_Post_LosesStatusRace(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	product := f.catalogProduct(orgID, "500")
	invoiceID := uuid.New()

	inv := &domain.Invoice{
		ID: invoiceID, OrgID: orgID, Number: "INV-20250114-005",
		Status: domain.InvoiceStatusFinalized,
		Lines: []domain.InvoiceLine{
			{ProductID: product.ID, Qty: decimal.NewFromInt(1)},
		},
	}
	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(inv, nil)
	f.posting.On("WithProductLocks", mock.Anything, orgID, []uuid.UUID{product.ID}).Return(nil)
	f.tx.On("ReleaseSerials", mock.Anything, orgID, invoiceID).Return(nil)
	f.tx.On("RawBalance", mock.Anything, orgID, product.ID).Return(decimal.NewFromInt(5), nil)
	f.tx.On("AppendStock", mock.Anything, mock.Anything).Return(nil)
	f.tx.On("UpdateInvoiceStatus", mock.Anything, orgID, invoiceID,
		domain.InvoiceStatusFinalized, domain.InvoiceStatusPosted).Return(false, nil)

	_, err := f.svc.Post(context.Background(), orgID, invoiceID)

	var we *domain.WorkflowError
	assert.ErrorAs(t, err, &we)
	assert.Contains(t, we.Message, "already posted")
}

func TestInvoiceService_Post_ConsignmentSale(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	product := f.catalogProduct(orgID, "500")
	invoiceID := uuid.New()
	senderID := uuid.New()

	inv := &domain.Invoice{
		ID: invoiceID, OrgID: orgID, Number: "INV-20250114-006",
		Status:      domain.InvoiceStatusFinalized,
		Consignment: &domain.ConsignmentRef{SenderOrgID: senderID, AgentID: orgID},
		Lines: []domain.InvoiceLine{
			{ProductID: product.ID, Qty: decimal.NewFromInt(3)},
		},
	}
	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(inv, nil)
	f.posting.On("WithProductLocks", mock.Anything, orgID, []uuid.UUID{product.ID}).Return(nil)
	f.tx.On("ReleaseSerials", mock.Anything, orgID, invoiceID).Return(nil)
	// Validation reads the consignment balance, not the org's own stock.
	f.tx.On("ConsignmentBalance", mock.Anything, senderID, orgID, product.ID).
		Return(decimal.NewFromInt(5), nil)
	f.tx.On("AppendConsignment", mock.Anything, mock.AnythingOfType("[]domain.ConsignmentEntry")).Return(nil)
	f.tx.On("UpdateInvoiceStatus", mock.Anything, orgID, invoiceID,
		domain.InvoiceStatusFinalized, domain.InvoiceStatusPosted).Return(true, nil)

	_, err := f.svc.Post(context.Background(), orgID, invoiceID)

	assert.NoError(t, err)
	appended := f.tx.Calls[findCall(t, f.tx.Calls, "AppendConsignment")].Arguments.Get(1).([]domain.ConsignmentEntry)
	assert.Len(t, appended, 1)
	assert.Equal(t, domain.ConsignmentTxnSale, appended[0].Kind)
	assert.Equal(t, senderID, appended[0].SenderOrgID)
	f.tx.AssertNotCalled(t, "AppendStock", mock.Anything, mock.Anything)
}

func TestInvoiceService_Cancel(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	invoiceID := uuid.New()

	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(&domain.Invoice{
		ID: invoiceID, Number: "INV-20250114-008", Status: domain.InvoiceStatusFinalized,
	}, nil)
	f.invoices.On("UpdateStatus", mock.Anything, orgID, invoiceID,
		domain.InvoiceStatusFinalized, domain.InvoiceStatusCancelled).Return(true, nil)
	f.serials.On("Release", mock.Anything, orgID, invoiceID).Return(nil)

	got, err := f.svc.Cancel(context.Background(), orgID, invoiceID)

	assert.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusCancelled, got.Status)
	// Any serials held since finalize go back to the pool.
	f.serials.AssertCalled(t, "Release", mock.Anything, orgID, invoiceID)
}

func TestInvoiceService_Cancel_PostedRejected(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	invoiceID := uuid.New()

	f.invoices.On("GetByID", mock.Anything, orgID, invoiceID).Return(&domain.Invoice{
		ID: invoiceID, Number: "INV-20250114-009", Status: domain.InvoiceStatusPosted,
	}, nil)

	_, err := f.svc.Cancel(context.Background(), orgID, invoiceID)

	var we *domain.WorkflowError
	assert.ErrorAs(t, err, &we)
	f.invoices.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Autosave_ReplacesLinesAndRecomputes(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()
	f.sellerOrg(orgID)
	customerID := f.intraStateCustomer(orgID)
	product := f.catalogProduct(orgID, "250")

	inv := &domain.Invoice{
		ID: uuid.New(), OrgID: orgID, CustomerID: customerID,
		Number: "INV-20250114-010", Status: domain.InvoiceStatusDraft,
		DraftToken: "tok-1", DraftVersion: 3,
	}
	f.invoices.On("GetByDraftToken", mock.Anything, orgID, "tok-1").Return(inv, nil)
	f.invoices.On("ReplaceLines", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)
	f.invoices.On("UpdateDraft", mock.Anything, orgID, inv.ID, mock.Anything,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(500)) }), 4).Return(nil)

	got, err := f.svc.Autosave(context.Background(), orgID, service.AutosaveInput{
		DraftToken: "tok-1",
		Lines: []service.InvoiceLineInput{
			{ProductID: product.ID, Qty: decimal.NewFromInt(2)},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 4, got.DraftVersion)

	// The autosaved line set becomes the draft's persisted lines, with tax
	// recomputed from the catalog: 2 x 250 @ 18% intra-state.
	replaced := f.invoices.Calls[findCall(t, f.invoices.Calls, "ReplaceLines")].Arguments.Get(1).(*domain.Invoice)
	require.Len(t, replaced.Lines, 1)
	assert.Equal(t, product.ID, replaced.Lines[0].ProductID)
	assert.Equal(t, "500", replaced.Subtotal.String())
	assert.Equal(t, "45", replaced.CGST.String())
	assert.Equal(t, "45", replaced.SGST.String())
	assert.Equal(t, "590", replaced.GrandTotal.String())
	assert.Equal(t, 4, replaced.DraftVersion)
}

func TestInvoiceService_Autosave_PayloadOnlyKeepsLines(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()

	inv := &domain.Invoice{
		ID: uuid.New(), OrgID: orgID, Number: "INV-20250114-012",
		Status: domain.InvoiceStatusDraft, DraftToken: "tok-3", DraftVersion: 1,
		Subtotal: decimal.NewFromInt(750),
	}
	f.invoices.On("GetByDraftToken", mock.Anything, orgID, "tok-3").Return(inv, nil)
	f.invoices.On("UpdateDraft", mock.Anything, orgID, inv.ID, mock.Anything,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(750)) }), 2).Return(nil)

	got, err := f.svc.Autosave(context.Background(), orgID, service.AutosaveInput{
		DraftToken: "tok-3",
		Payload:    json.RawMessage(`{"scroll":120}`),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, got.DraftVersion)
	f.invoices.AssertNotCalled(t, "ReplaceLines", mock.Anything, mock.Anything)
}

func TestInvoiceService_Autosave_NonDraftRejected(t *testing.T) {
	f := newInvoiceFixture()
	orgID := uuid.New()

	f.invoices.On("GetByDraftToken", mock.Anything, orgID, "tok-2").Return(&domain.Invoice{
		ID: uuid.New(), Number: "INV-20250114-011", Status: domain.InvoiceStatusFinalized, DraftToken: "tok-2",
	}, nil)

	_, err := f.svc.Autosave(context.Background(), orgID, service.AutosaveInput{DraftToken: "tok-2"})

	var we *domain.WorkflowError
	assert.ErrorAs(t, err, &we)
}

// findCall locates the first recorded call with the given method name.
func findCall(t *testing.T, calls []mock.Call, method string) int {
	t.Helper()
	for i, c := range calls {
		if c.Method == method {
			return i
		}
	}
	t.Fatalf("no %s call recorded", method)
	return -1
}
