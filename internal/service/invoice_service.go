package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
	"vanik/internal/gst"
	"vanik/internal/port"
	"vanik/internal/validator"
)

// InvoiceLineInput is one proposed invoice line. UnitPrice overrides the
// product's list price when set.
type InvoiceLineInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Qty       decimal.Decimal  `json:"qty" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Serials   []string         `json:"serials"`
}

// CreateInvoiceInput is the DTO for creating a draft invoice.
type CreateInvoiceInput struct {
	CustomerID     uuid.UUID              `json:"customer_id" binding:"required"`
	PriceInclusive bool                   `json:"price_inclusive"`
	DraftToken     string                 `json:"draft_token"`
	Lines          []InvoiceLineInput     `json:"lines" binding:"required,min=1"`
	Consignment    *domain.ConsignmentRef `json:"consignment"`
}

// AutosaveInput is the DTO for draft autosave, keyed by the client-generated
// draft token.
type AutosaveInput struct {
	DraftToken string             `json:"draft_token" binding:"required"`
	Payload    json.RawMessage    `json:"payload"`
	Lines      []InvoiceLineInput `json:"lines"`
}

// CreateInvoiceResult returns the draft plus any advisory validation issues.
// Drafts may be saved with issues so users can fix them before finalizing.
type CreateInvoiceResult struct {
	Invoice *domain.Invoice          `json:"invoice"`
	Issues  []domain.ValidationIssue `json:"issues,omitempty"`
}

// InvoiceService drives the invoice state machine:
// draft -> finalized -> posted, with cancelled reachable from draft and
// finalized only.
type InvoiceService interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateInvoiceInput) (*CreateInvoiceResult, error)
	Autosave(ctx context.Context, orgID uuid.UUID, input AutosaveInput) (*domain.Invoice, error)
	Finalize(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error)
	Post(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error)
	Cancel(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error)
	GetByID(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error)
	SetPaymentStatus(ctx context.Context, orgID, invoiceID uuid.UUID, status domain.PaymentStatus) error
}

type invoiceService struct {
	invoices  port.InvoiceRepository
	orgs      port.OrgRepository
	customers port.CustomerRepository
	products  port.ProductRepository
	hsn       port.HSNRepository
	stock     port.StockRepository
	serials   port.SerialRepository
	consign   port.ConsignmentRepository
	seq       port.SequenceRepository
	posting   port.PostingStore
	now       func() time.Time
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(
	invoices port.InvoiceRepository,
	orgs port.OrgRepository,
	customers port.CustomerRepository,
	products port.ProductRepository,
	hsn port.HSNRepository,
	stock port.StockRepository,
	serials port.SerialRepository,
	consign port.ConsignmentRepository,
	seq port.SequenceRepository,
	posting port.PostingStore,
) InvoiceService {
	return &invoiceService{
		invoices:  invoices,
		orgs:      orgs,
		customers: customers,
		products:  products,
		hsn:       hsn,
		stock:     stock,
		serials:   serials,
		consign:   consign,
		seq:       seq,
		posting:   posting,
		now:       time.Now,
	}
}

func (s *invoiceService) Create(ctx context.Context, orgID uuid.UUID, input CreateInvoiceInput) (*CreateInvoiceResult, error) {
	if err := checkPositiveLines(lineQtys(input.Lines)); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("invoice.Create: loading org: %w", err)
	}
	buyer, err := s.buyerContext(ctx, orgID, input.CustomerID)
	if err != nil {
		return nil, err
	}

	lines, taxLines, err := s.resolveLines(ctx, orgID, input.Lines)
	if err != nil {
		return nil, err
	}

	breakup := gst.Compute(sellerContext(org), *buyer, taxLines, input.PriceInclusive)

	day := s.now()
	n, err := s.seq.Next(ctx, orgID, domain.DocTypeInvoice, day)
	if err != nil {
		return nil, fmt.Errorf("invoice.Create: next sequence: %w", err)
	}

	inv := &domain.Invoice{
		ID:             uuid.New(),
		OrgID:          orgID,
		CustomerID:     input.CustomerID,
		Number:         FormatDocNumber("INV", day, n),
		Status:         domain.InvoiceStatusDraft,
		PaymentStatus:  domain.PaymentStatusUnpaid,
		PriceInclusive: input.PriceInclusive,
		Subtotal:       breakup.Subtotal,
		CGST:           breakup.CGST,
		SGST:           breakup.SGST,
		IGST:           breakup.IGST,
		GrandTotal:     breakup.GrandTotal,
		DraftToken:     input.DraftToken,
		Consignment:    input.Consignment,
		IssuedAt:       day,
		Lines:          lines,
	}
	applyLineTax(inv, breakup)

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("invoice.Create: %w", err)
	}

	// Advisory validation: the draft is saved regardless, issues are
	// surfaced so the user can fix them before finalizing.
	res, err := s.draftValidator().ValidateLines(ctx, orgID, validatorLines(input.Lines), true)
	if err != nil {
		return nil, fmt.Errorf("invoice.Create: validating: %w", err)
	}
	return &CreateInvoiceResult{Invoice: inv, Issues: res.Issues}, nil
}

func (s *invoiceService) Autosave(ctx context.Context, orgID uuid.UUID, input AutosaveInput) (*domain.Invoice, error) {
	inv, err := s.invoices.GetByDraftToken(ctx, orgID, input.DraftToken)
	if err != nil {
		return nil, fmt.Errorf("invoice.Autosave: %w", err)
	}
	if inv.Status != domain.InvoiceStatusDraft {
		return nil, domain.NewWorkflowError(string(inv.Status), string(domain.InvoiceStatusDraft),
			fmt.Sprintf("invoice %s is %s; only drafts can be autosaved", inv.Number, inv.Status))
	}

	version := inv.DraftVersion + 1

	// When lines are present the draft's persisted line set is replaced and
	// the totals recomputed through the same resolve-and-compute path Create
	// uses. The invoice number is never regenerated.
	if len(input.Lines) > 0 {
		if err := checkPositiveLines(lineQtys(input.Lines)); err != nil {
			return nil, err
		}
		org, err := s.orgs.GetByID(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("invoice.Autosave: loading org: %w", err)
		}
		buyer, err := s.buyerContext(ctx, orgID, inv.CustomerID)
		if err != nil {
			return nil, err
		}
		lines, taxLines, err := s.resolveLines(ctx, orgID, input.Lines)
		if err != nil {
			return nil, err
		}
		breakup := gst.Compute(sellerContext(org), *buyer, taxLines, inv.PriceInclusive)

		inv.Lines = lines
		inv.Subtotal = breakup.Subtotal
		inv.CGST = breakup.CGST
		inv.SGST = breakup.SGST
		inv.IGST = breakup.IGST
		inv.GrandTotal = breakup.GrandTotal
		inv.DraftVersion = version
		applyLineTax(inv, breakup)

		if err := s.invoices.ReplaceLines(ctx, inv); err != nil {
			return nil, fmt.Errorf("invoice.Autosave: replacing lines: %w", err)
		}
	}

	if err := s.invoices.UpdateDraft(ctx, orgID, inv.ID, input.Payload, inv.Subtotal, version); err != nil {
		return nil, fmt.Errorf("invoice.Autosave: %w", err)
	}
	inv.DraftPayload = input.Payload
	inv.DraftVersion = version
	return inv, nil
}

func (s *invoiceService) Finalize(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, orgID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoice.Finalize: %w", err)
	}
	if inv.Status != domain.InvoiceStatusDraft {
		return nil, domain.NewWorkflowError(string(inv.Status), string(domain.InvoiceStatusDraft),
			fmt.Sprintf("invoice %s is %s; only a draft can be finalized", inv.Number, inv.Status))
	}

	res, err := s.validatorFor(inv, s.stock, s.serials).ValidateLines(ctx, orgID, invoiceLinesInput(inv), false)
	if err != nil {
		return nil, fmt.Errorf("invoice.Finalize: validating: %w", err)
	}
	if verr := res.AsError(); verr != nil {
		return nil, verr
	}

	// Hold the listed serials so no other invoice can consume them between
	// finalize and post. Post frees the hold inside its own transaction
	// right before consuming.
	reserved := false
	for _, ln := range inv.Lines {
		if len(ln.Serials) == 0 {
			continue
		}
		if err := s.serials.Reserve(ctx, orgID, ln.ProductID, inv.ID, ln.Serials); err != nil {
			s.releaseSerialHold(ctx, orgID, inv, reserved)
			return nil, fmt.Errorf("invoice.Finalize: reserving serials: %w", err)
		}
		reserved = true
	}

	ok, err := s.invoices.UpdateStatus(ctx, orgID, inv.ID, domain.InvoiceStatusDraft, domain.InvoiceStatusFinalized)
	if err != nil {
		s.releaseSerialHold(ctx, orgID, inv, reserved)
		return nil, fmt.Errorf("invoice.Finalize: %w", err)
	}
	if !ok {
		s.releaseSerialHold(ctx, orgID, inv, reserved)
		return nil, &domain.ConcurrencyError{Op: "invoice finalize"}
	}
	inv.Status = domain.InvoiceStatusFinalized
	return inv, nil
}

func (s *invoiceService) releaseSerialHold(ctx context.Context, orgID uuid.UUID, inv *domain.Invoice, held bool) {
	if !held {
		return
	}
	if err := s.serials.Release(ctx, orgID, inv.ID); err != nil {
		log.Printf("WARN: releasing serial hold for invoice %s: %v", inv.Number, err)
	}
}

func (s *invoiceService) Post(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, orgID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoice.Post: %w", err)
	}
	switch inv.Status {
	case domain.InvoiceStatusFinalized:
		// proceed
	case domain.InvoiceStatusPosted:
		return nil, domain.NewWorkflowError(string(inv.Status), string(domain.InvoiceStatusFinalized),
			fmt.Sprintf("invoice %s is already posted", inv.Number))
	default:
		return nil, domain.NewWorkflowError(string(inv.Status), string(domain.InvoiceStatusFinalized),
			fmt.Sprintf("invoice %s is %s; it must be finalized before posting", inv.Number, inv.Status))
	}

	productIDs := make([]uuid.UUID, 0, len(inv.Lines))
	for _, ln := range inv.Lines {
		productIDs = append(productIDs, ln.ProductID)
	}

	err = s.posting.WithProductLocks(ctx, orgID, productIDs, func(tx port.PostingTx) error {
		// Finalize reserved this invoice's serials; free them under the lock
		// so revalidation sees them as available before they are consumed.
		if err := tx.ReleaseSerials(ctx, orgID, inv.ID); err != nil {
			return fmt.Errorf("releasing serial hold: %w", err)
		}

		// Time has passed since finalize: re-validate stock and serials
		// against the rows we now hold locks on.
		res, err := s.validatorFor(inv, tx, tx).ValidateLines(ctx, orgID, invoiceLinesInput(inv), false)
		if err != nil {
			return fmt.Errorf("revalidating: %w", err)
		}
		if verr := res.AsError(); verr != nil {
			return verr
		}

		if err := s.writeStockEffects(ctx, tx, inv); err != nil {
			return err
		}

		for _, ln := range inv.Lines {
			if len(ln.Serials) == 0 {
				continue
			}
			if err := tx.ConsumeSerials(ctx, orgID, ln.ProductID, inv.ID, ln.Serials); err != nil {
				return fmt.Errorf("consuming serials: %w", err)
			}
		}

		ok, err := tx.UpdateInvoiceStatus(ctx, orgID, inv.ID, domain.InvoiceStatusFinalized, domain.InvoiceStatusPosted)
		if err != nil {
			return fmt.Errorf("flipping status: %w", err)
		}
		if !ok {
			// A concurrent post won the race after our initial read.
			return domain.NewWorkflowError(string(domain.InvoiceStatusPosted), string(domain.InvoiceStatusFinalized),
				fmt.Sprintf("invoice %s is already posted", inv.Number))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	inv.Status = domain.InvoiceStatusPosted
	return inv, nil
}

// writeStockEffects writes one ledger entry per line: dc_sale against the
// consignment ledger when the invoice sells consignment stock, otherwise an
// out entry against the org ledger.
func (s *invoiceService) writeStockEffects(ctx context.Context, tx port.PostingTx, inv *domain.Invoice) error {
	now := s.now()
	if ref := inv.Consignment; ref != nil {
		entries := make([]domain.ConsignmentEntry, 0, len(inv.Lines))
		for _, ln := range inv.Lines {
			entries = append(entries, domain.ConsignmentEntry{
				ID:          uuid.New(),
				SenderOrgID: ref.SenderOrgID,
				AgentID:     ref.AgentID,
				ProductID:   ln.ProductID,
				Kind:        domain.ConsignmentTxnSale,
				Qty:         ln.Qty,
				RefDocType:  domain.DocTypeInvoice,
				RefDocID:    &inv.ID,
				CreatedAt:   now,
			})
		}
		if err := tx.AppendConsignment(ctx, entries); err != nil {
			return fmt.Errorf("writing consignment ledger: %w", err)
		}
		return nil
	}

	entries := make([]domain.StockEntry, 0, len(inv.Lines))
	for _, ln := range inv.Lines {
		entries = append(entries, domain.StockEntry{
			ID:         uuid.New(),
			OrgID:      inv.OrgID,
			ProductID:  ln.ProductID,
			Kind:       domain.StockTxnOut,
			Qty:        ln.Qty,
			RefDocType: domain.DocTypeInvoice,
			RefDocID:   &inv.ID,
			CreatedAt:  now,
		})
	}
	if err := tx.AppendStock(ctx, entries); err != nil {
		return fmt.Errorf("writing stock ledger: %w", err)
	}
	return nil
}

func (s *invoiceService) Cancel(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, orgID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoice.Cancel: %w", err)
	}
	if !inv.Status.CanTransitionTo(domain.InvoiceStatusCancelled) {
		return nil, domain.NewWorkflowError(string(inv.Status), "draft or finalized",
			fmt.Sprintf("invoice %s is %s; only draft or finalized invoices can be cancelled", inv.Number, inv.Status))
	}
	ok, err := s.invoices.UpdateStatus(ctx, orgID, inv.ID, inv.Status, domain.InvoiceStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("invoice.Cancel: %w", err)
	}
	if !ok {
		return nil, &domain.ConcurrencyError{Op: "invoice cancel"}
	}
	// A finalized invoice may hold serial reservations; give them back.
	if err := s.serials.Release(ctx, orgID, inv.ID); err != nil {
		log.Printf("WARN: releasing serial hold for cancelled invoice %s: %v", inv.Number, err)
	}
	inv.Status = domain.InvoiceStatusCancelled
	return inv, nil
}

func (s *invoiceService) GetByID(ctx context.Context, orgID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	return s.invoices.GetByID(ctx, orgID, invoiceID)
}

func (s *invoiceService) List(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.Invoice, int, error) {
	return s.invoices.ListByOrg(ctx, orgID, offset, limit)
}

func (s *invoiceService) SetPaymentStatus(ctx context.Context, orgID, invoiceID uuid.UUID, status domain.PaymentStatus) error {
	return s.invoices.SetPaymentStatus(ctx, orgID, invoiceID, status)
}

// --- helpers ---

// validatorFor binds a validator to the given stock/serial readers. For a
// consignment invoice the stock reads are redirected to the consignment
// ledger keyed by the invoice's (sender, agent) pair.
func (s *invoiceService) validatorFor(inv *domain.Invoice, stock port.StockReader, serials validator.SerialAvailability) *validator.Validator {
	if inv.Consignment != nil {
		stock = &consignmentAsStock{
			reader: stockConsignmentReader(stock, s.consign),
			ref:    *inv.Consignment,
		}
	}
	return validator.New(s.products, s.hsn, stock, serials)
}

func (s *invoiceService) draftValidator() *validator.Validator {
	return validator.New(s.products, s.hsn, s.stock, s.serials)
}

func (s *invoiceService) buyerContext(ctx context.Context, orgID, customerID uuid.UUID) (*gst.Buyer, error) {
	link, err := s.customers.GetLink(ctx, orgID, customerID)
	if err != nil {
		return nil, fmt.Errorf("invoice: loading customer: %w", err)
	}
	master, err := s.customers.GetMaster(ctx, link.MasterID)
	if err != nil {
		return nil, fmt.Errorf("invoice: loading customer master: %w", err)
	}
	return &gst.Buyer{GSTIN: master.GSTIN, StateCode: master.StateCode}, nil
}

// resolveLines loads each product, resolves its effective rate and HSN code,
// and builds both the persistent lines and the calculator inputs.
func (s *invoiceService) resolveLines(ctx context.Context, orgID uuid.UUID, inputs []InvoiceLineInput) ([]domain.InvoiceLine, []gst.Line, error) {
	lines := make([]domain.InvoiceLine, 0, len(inputs))
	taxLines := make([]gst.Line, 0, len(inputs))

	for i, in := range inputs {
		product, err := s.products.GetByID(ctx, orgID, in.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The draft still saves; advisory validation reports it.
				lines = append(lines, domain.InvoiceLine{
					ID: uuid.New(), Position: i, ProductID: in.ProductID,
					Qty: in.Qty, Subtotal: decimal.Zero,
					CGST: decimal.Zero, SGST: decimal.Zero, IGST: decimal.Zero,
					Serials: in.Serials,
				})
				taxLines = append(taxLines, gst.Line{Amount: decimal.Zero})
				continue
			}
			return nil, nil, fmt.Errorf("invoice: loading product %s: %w", in.ProductID, err)
		}

		var master *domain.MasterProduct
		if product.MasterProductID != nil {
			master, err = s.products.GetMaster(ctx, *product.MasterProductID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, nil, fmt.Errorf("invoice: loading master product: %w", err)
			}
		}

		price := product.UnitPrice
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		amount := in.Qty.Mul(price)
		rate := product.EffectiveGSTRate(master)
		hsnCode := product.EffectiveHSNCode(master)

		lines = append(lines, domain.InvoiceLine{
			ID:        uuid.New(),
			Position:  i,
			ProductID: in.ProductID,
			Name:      product.Name,
			Qty:       in.Qty,
			UnitPrice: price,
			Subtotal:  amount.Round(2),
			GSTRate:   rate,
			HSNCode:   hsnCode,
			Serials:   in.Serials,
		})
		taxLines = append(taxLines, gst.Line{Amount: amount, Rate: rate, HSNCode: hsnCode})
	}
	return lines, taxLines, nil
}

func applyLineTax(inv *domain.Invoice, breakup gst.Breakup) {
	for i := range inv.Lines {
		if i >= len(breakup.Lines) {
			break
		}
		lt := breakup.Lines[i]
		inv.Lines[i].Subtotal = lt.TaxableBase
		inv.Lines[i].CGST = lt.CGST
		inv.Lines[i].SGST = lt.SGST
		inv.Lines[i].IGST = lt.IGST
	}
}

func sellerContext(org *domain.Organization) gst.Seller {
	return gst.Seller{GSTIN: org.GSTIN, StateCode: org.StateCode, TaxEnabled: org.TaxEnabled}
}

// FormatDocNumber renders the human-readable sequential document number,
// e.g. INV-20250114-007.
func FormatDocNumber(prefix string, day time.Time, n int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("20060102"), n)
}

func invoiceLinesInput(inv *domain.Invoice) []validator.LineInput {
	out := make([]validator.LineInput, 0, len(inv.Lines))
	for _, ln := range inv.Lines {
		out = append(out, validator.LineInput{ProductID: ln.ProductID, Qty: ln.Qty, Serials: ln.Serials})
	}
	return out
}

func validatorLines(inputs []InvoiceLineInput) []validator.LineInput {
	out := make([]validator.LineInput, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, validator.LineInput{ProductID: in.ProductID, Qty: in.Qty, Serials: in.Serials})
	}
	return out
}

func lineQtys(inputs []InvoiceLineInput) []decimal.Decimal {
	qtys := make([]decimal.Decimal, 0, len(inputs))
	for _, in := range inputs {
		qtys = append(qtys, in.Qty)
	}
	return qtys
}

// checkPositiveLines rejects non-positive quantities before anything reaches
// the tax calculator, which by contract does not clamp.
func checkPositiveLines(qtys []decimal.Decimal) error {
	for i, q := range qtys {
		if !q.IsPositive() {
			return fmt.Errorf("line %d: %w", i, domain.ErrInvalidQuantity)
		}
	}
	return nil
}

// consignmentAsStock adapts consignment balance reads to the StockReader
// shape so the shared validator can gate consignment sales.
type consignmentAsStock struct {
	reader port.ConsignmentReader
	ref    domain.ConsignmentRef
}

func (c *consignmentAsStock) RawBalance(ctx context.Context, _, productID uuid.UUID) (decimal.Decimal, error) {
	return c.reader.ConsignmentBalance(ctx, c.ref.SenderOrgID, c.ref.AgentID, productID)
}

func (c *consignmentAsStock) CurrentStock(ctx context.Context, orgID, productID uuid.UUID) (decimal.Decimal, error) {
	bal, err := c.RawBalance(ctx, orgID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if bal.IsNegative() {
		return decimal.Zero, nil
	}
	return bal, nil
}

// stockConsignmentReader prefers the transaction-bound reader when it also
// exposes consignment balances (a PostingTx does); otherwise it falls back to
// the repository, logging once since that path skips the row locks.
func stockConsignmentReader(stock port.StockReader, fallback port.ConsignmentReader) port.ConsignmentReader {
	if r, ok := stock.(port.ConsignmentReader); ok {
		return r
	}
	log.Printf("invoice: consignment validation outside posting transaction")
	return fallback
}
