package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Organization is an isolated tenant and the seller-side tax context. The
// state code embedded in the GSTIN, when present, is authoritative over the
// free-text StateCode field.
type Organization struct {
	ID                 uuid.UUID          `db:"id" json:"id"`
	Name               string             `db:"name" json:"name"`
	Slug               string             `db:"slug" json:"slug"`
	StateCode          string             `db:"state_code" json:"state_code"`
	GSTIN              string             `db:"gstin" json:"gstin"`
	ContactEmail       string             `db:"contact_email" json:"contact_email"`
	TaxEnabled         bool               `db:"tax_enabled" json:"tax_enabled"`
	VerificationStatus VerificationStatus `db:"verification_status" json:"verification_status"`
	VerificationSource string             `db:"verification_source" json:"verification_source"`
	IsActive           bool               `db:"is_active" json:"is_active"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// User represents an authenticated user belonging to an organization.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OrgID        uuid.UUID `db:"org_id" json:"org_id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CustomerMaster is the globally deduplicated customer record, keyed by
// mobile number or GSTIN.
type CustomerMaster struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Mobile    string    `db:"mobile" json:"mobile"`
	GSTIN     string    `db:"gstin" json:"gstin"`
	StateCode string    `db:"state_code" json:"state_code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OrgCustomer is the org-scoped customer link. Exactly one row exists per
// (org, master customer) pair, enforced by a unique constraint.
type OrgCustomer struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OrgID       uuid.UUID `db:"org_id" json:"org_id"`
	MasterID    uuid.UUID `db:"master_id" json:"master_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MasterProduct is the shared catalog entry a product may link to. GSTRate
// and HSNCode are nullable: an unresolvable rate means zero tax, not an
// error, unless the document type requires hard validation.
type MasterProduct struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	Name           string           `db:"name" json:"name"`
	HSNCode        *string          `db:"hsn_code" json:"hsn_code"`
	GSTRate        *decimal.Decimal `db:"gst_rate" json:"gst_rate"`
	ApprovalStatus ApprovalStatus   `db:"approval_status" json:"approval_status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// Product is the org-scoped sellable item. Rate and HSN overrides, when set,
// win over the linked master catalog entry.
type Product struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	OrgID           uuid.UUID        `db:"org_id" json:"org_id"`
	MasterProductID *uuid.UUID       `db:"master_product_id" json:"master_product_id"`
	Name            string           `db:"name" json:"name"`
	UnitPrice       decimal.Decimal  `db:"unit_price" json:"unit_price"`
	GSTRate         *decimal.Decimal `db:"gst_rate" json:"gst_rate"`
	HSNCode         *string          `db:"hsn_code" json:"hsn_code"`
	SerialTracked   bool             `db:"serial_tracked" json:"serial_tracked"`
	IsActive        bool             `db:"is_active" json:"is_active"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// EffectiveGSTRate resolves the tax rate for the product: org override first,
// then the linked master entry, else nil (zero-tax line).
func (p *Product) EffectiveGSTRate(master *MasterProduct) *decimal.Decimal {
	if p.GSTRate != nil {
		return p.GSTRate
	}
	if master != nil {
		return master.GSTRate
	}
	return nil
}

// EffectiveHSNCode resolves the HSN/SAC classification the same way.
func (p *Product) EffectiveHSNCode(master *MasterProduct) string {
	if p.HSNCode != nil && *p.HSNCode != "" {
		return *p.HSNCode
	}
	if master != nil && master.HSNCode != nil {
		return *master.HSNCode
	}
	return ""
}

// HSNEntry is a row in the active HSN/SAC master table.
type HSNEntry struct {
	Code        string          `db:"code" json:"code"`
	Description string          `db:"description" json:"description"`
	GSTRate     decimal.Decimal `db:"gst_rate" json:"gst_rate"`
	IsActive    bool            `db:"is_active" json:"is_active"`
}

// InvoiceLine is one ordered line of a sales invoice. Tax fields hold the
// resolved values as of the last computation.
type InvoiceLine struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	InvoiceID uuid.UUID        `db:"invoice_id" json:"invoice_id"`
	Position  int              `db:"position" json:"position"`
	ProductID uuid.UUID        `db:"product_id" json:"product_id"`
	Name      string           `db:"name" json:"name"`
	Qty       decimal.Decimal  `db:"qty" json:"qty"`
	UnitPrice decimal.Decimal  `db:"unit_price" json:"unit_price"`
	Subtotal  decimal.Decimal  `db:"subtotal" json:"subtotal"`
	GSTRate   *decimal.Decimal `db:"gst_rate" json:"gst_rate"`
	HSNCode   string           `db:"hsn_code" json:"hsn_code"`
	CGST      decimal.Decimal  `db:"cgst" json:"cgst"`
	SGST      decimal.Decimal  `db:"sgst" json:"sgst"`
	IGST      decimal.Decimal  `db:"igst" json:"igst"`
	Serials   []string         `db:"-" json:"serials,omitempty"`
}

// ConsignmentRef links an invoice to the consignment relationship it sells
// from: the issuing org, the selling agent, and the source delivery challan.
type ConsignmentRef struct {
	SenderOrgID uuid.UUID  `db:"sender_org_id" json:"sender_org_id"`
	AgentID     uuid.UUID  `db:"agent_id" json:"agent_id"`
	ChallanID   *uuid.UUID `db:"challan_id" json:"challan_id"`
}

// Invoice is a sales invoice document. Once posted, the document and its
// stock effects are immutable except for PaymentStatus.
type Invoice struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrgID          uuid.UUID       `db:"org_id" json:"org_id"`
	CustomerID     uuid.UUID       `db:"customer_id" json:"customer_id"`
	Number         string          `db:"number" json:"number"`
	Status         InvoiceStatus   `db:"status" json:"status"`
	PaymentStatus  PaymentStatus   `db:"payment_status" json:"payment_status"`
	PriceInclusive bool            `db:"price_inclusive" json:"price_inclusive"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	CGST           decimal.Decimal `db:"cgst" json:"cgst"`
	SGST           decimal.Decimal `db:"sgst" json:"sgst"`
	IGST           decimal.Decimal `db:"igst" json:"igst"`
	GrandTotal     decimal.Decimal `db:"grand_total" json:"grand_total"`
	DraftToken     string          `db:"draft_token" json:"draft_token,omitempty"`
	DraftVersion   int             `db:"draft_version" json:"draft_version"`
	DraftPayload   json.RawMessage `db:"draft_payload" json:"draft_payload,omitempty"`
	Consignment    *ConsignmentRef `db:"-" json:"consignment,omitempty"`
	IssuedAt       time.Time       `db:"issued_at" json:"issued_at"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	Lines          []InvoiceLine   `db:"-" json:"lines"`
}

// PurchaseBillLine is one line of a purchase bill. ProductID may be nil (a
// "ghost" item not yet linked to the catalog); vendor-declared HSN/rate are
// kept alongside the system-resolved values so mismatches can be flagged.
type PurchaseBillLine struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	BillID        uuid.UUID        `db:"bill_id" json:"bill_id"`
	Position      int              `db:"position" json:"position"`
	ProductID     *uuid.UUID       `db:"product_id" json:"product_id"`
	Name          string           `db:"name" json:"name"`
	Qty           decimal.Decimal  `db:"qty" json:"qty"`
	UnitPrice     decimal.Decimal  `db:"unit_price" json:"unit_price"`
	LineTotal     decimal.Decimal  `db:"line_total" json:"line_total"`
	VendorHSNCode string           `db:"vendor_hsn_code" json:"vendor_hsn_code"`
	VendorGSTRate *decimal.Decimal `db:"vendor_gst_rate" json:"vendor_gst_rate"`
	SystemHSNCode string           `db:"system_hsn_code" json:"system_hsn_code"`
	SystemGSTRate *decimal.Decimal `db:"system_gst_rate" json:"system_gst_rate"`
	HSNMismatch   bool             `db:"hsn_mismatch" json:"hsn_mismatch"`
}

// PurchaseBill is an inbound goods document from a vendor.
type PurchaseBill struct {
	ID              uuid.UUID          `db:"id" json:"id"`
	OrgID           uuid.UUID          `db:"org_id" json:"org_id"`
	Number          string             `db:"number" json:"number"`
	VendorName      string             `db:"vendor_name" json:"vendor_name"`
	VendorGSTIN     string             `db:"vendor_gstin" json:"vendor_gstin"`
	VendorStateCode string             `db:"vendor_state_code" json:"vendor_state_code"`
	Status          PurchaseBillStatus `db:"status" json:"status"`
	Subtotal        decimal.Decimal    `db:"subtotal" json:"subtotal"`
	CGST            decimal.Decimal    `db:"cgst" json:"cgst"`
	SGST            decimal.Decimal    `db:"sgst" json:"sgst"`
	IGST            decimal.Decimal    `db:"igst" json:"igst"`
	GrandTotal      decimal.Decimal    `db:"grand_total" json:"grand_total"`
	ApprovedAt      *time.Time         `db:"approved_at" json:"approved_at"`
	FlaggedAt       *time.Time         `db:"flagged_at" json:"flagged_at"`
	BilledAt        time.Time          `db:"billed_at" json:"billed_at"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
	Lines           []PurchaseBillLine `db:"-" json:"lines"`
}

// StockEntry is one append-only row of the org stock ledger. Entries are
// never updated or deleted; corrections are new adjustment entries.
type StockEntry struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	OrgID      uuid.UUID       `db:"org_id" json:"org_id"`
	ProductID  uuid.UUID       `db:"product_id" json:"product_id"`
	Kind       StockTxnKind    `db:"kind" json:"kind"`
	Qty        decimal.Decimal `db:"qty" json:"qty"`
	Note       string          `db:"note" json:"note"`
	RefDocType string          `db:"ref_doc_type" json:"ref_doc_type"`
	RefDocID   *uuid.UUID      `db:"ref_doc_id" json:"ref_doc_id"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// ConsignmentEntry mirrors StockEntry for consignment (DC) stock, keyed by
// (sender org, agent, product).
type ConsignmentEntry struct {
	ID          uuid.UUID          `db:"id" json:"id"`
	SenderOrgID uuid.UUID          `db:"sender_org_id" json:"sender_org_id"`
	AgentID     uuid.UUID          `db:"agent_id" json:"agent_id"`
	ProductID   uuid.UUID          `db:"product_id" json:"product_id"`
	Kind        ConsignmentTxnKind `db:"kind" json:"kind"`
	Qty         decimal.Decimal    `db:"qty" json:"qty"`
	Note        string             `db:"note" json:"note"`
	RefDocType  string             `db:"ref_doc_type" json:"ref_doc_type"`
	RefDocID    *uuid.UUID         `db:"ref_doc_id" json:"ref_doc_id"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
}

// SerialNumber is a first-class serial sub-resource for serial-tracked
// products: available until reserved/consumed by an invoice.
type SerialNumber struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	OrgID      uuid.UUID    `db:"org_id" json:"org_id"`
	ProductID  uuid.UUID    `db:"product_id" json:"product_id"`
	Serial     string       `db:"serial" json:"serial"`
	Status     SerialStatus `db:"status" json:"status"`
	ReservedBy *uuid.UUID   `db:"reserved_by" json:"reserved_by"`
	ConsumedBy *uuid.UUID   `db:"consumed_by" json:"consumed_by"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// TaxRateTotal is one row of the per-rate tax aggregation used by the GSTR
// summary export.
type TaxRateTotal struct {
	GSTRate      decimal.Decimal `db:"gst_rate" json:"gst_rate"`
	TaxableValue decimal.Decimal `db:"taxable_value" json:"taxable_value"`
	CGST         decimal.Decimal `db:"cgst" json:"cgst"`
	SGST         decimal.Decimal `db:"sgst" json:"sgst"`
	IGST         decimal.Decimal `db:"igst" json:"igst"`
}
