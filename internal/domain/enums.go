package domain

// InvoiceStatus represents the sales invoice lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinalized InvoiceStatus = "finalized"
	InvoiceStatusPosted    InvoiceStatus = "posted"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// CanTransitionTo reports whether the invoice status transition is legal.
// Posted invoices are terminal: their stock effects are physical and can only
// be undone by a manual compensating adjustment, never by this state machine.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return next == InvoiceStatusFinalized || next == InvoiceStatusCancelled
	case InvoiceStatusFinalized:
		return next == InvoiceStatusPosted || next == InvoiceStatusCancelled
	default:
		return false
	}
}

// PaymentStatus is the only mutable piece of metadata on a posted invoice.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// PurchaseBillStatus represents the purchase bill lifecycle.
type PurchaseBillStatus string

const (
	BillStatusDraft      PurchaseBillStatus = "draft"
	BillStatusApproved   PurchaseBillStatus = "approved"
	BillStatusFlaggedHSN PurchaseBillStatus = "flagged_hsn_mismatch"
	BillStatusPosted     PurchaseBillStatus = "posted"
)

// CanTransitionTo reports whether the bill status transition is legal.
// flagged_hsn_mismatch reverts to draft only; posting requires approved.
func (s PurchaseBillStatus) CanTransitionTo(next PurchaseBillStatus) bool {
	switch s {
	case BillStatusDraft:
		return next == BillStatusApproved || next == BillStatusFlaggedHSN
	case BillStatusFlaggedHSN:
		return next == BillStatusDraft
	case BillStatusApproved:
		return next == BillStatusPosted
	default:
		return false
	}
}

// StockTxnKind classifies org stock ledger entries.
type StockTxnKind string

const (
	StockTxnIn         StockTxnKind = "in"
	StockTxnOut        StockTxnKind = "out"
	StockTxnAdjustment StockTxnKind = "adjustment"
)

// StockTxnKinds lists every valid stock ledger kind; balance folds are
// derived from this list and each kind's Sign.
var StockTxnKinds = []StockTxnKind{StockTxnIn, StockTxnOut, StockTxnAdjustment}

// Valid reports whether the kind is a known ledger kind. A write with an
// unknown kind must reject the whole batch before any persistence.
func (k StockTxnKind) Valid() bool {
	switch k {
	case StockTxnIn, StockTxnOut, StockTxnAdjustment:
		return true
	}
	return false
}

// Sign returns the multiplier applied to the entry quantity when folding the
// ledger into a balance. Adjustment quantities carry their own sign.
func (k StockTxnKind) Sign() int {
	if k == StockTxnOut {
		return -1
	}
	return 1
}

// ConsignmentTxnKind classifies consignment (DC) ledger entries, keyed by
// (sender org, agent, product) instead of (org, product).
type ConsignmentTxnKind string

const (
	ConsignmentTxnIn         ConsignmentTxnKind = "dc_in"
	ConsignmentTxnSale       ConsignmentTxnKind = "dc_sale"
	ConsignmentTxnReturn     ConsignmentTxnKind = "dc_return"
	ConsignmentTxnAdjustment ConsignmentTxnKind = "dc_adjustment"
)

// ConsignmentTxnKinds lists every valid consignment ledger kind; balance
// folds are derived from this list and each kind's Sign.
var ConsignmentTxnKinds = []ConsignmentTxnKind{
	ConsignmentTxnIn, ConsignmentTxnSale, ConsignmentTxnReturn, ConsignmentTxnAdjustment,
}

func (k ConsignmentTxnKind) Valid() bool {
	switch k {
	case ConsignmentTxnIn, ConsignmentTxnSale, ConsignmentTxnReturn, ConsignmentTxnAdjustment:
		return true
	}
	return false
}

// Sign returns the fold multiplier: dc_in and dc_return add to the agent's
// holding (goods issued to or returned into consignment stock), dc_sale
// subtracts, and dc_adjustment quantities carry their own sign.
func (k ConsignmentTxnKind) Sign() int {
	if k == ConsignmentTxnSale {
		return -1
	}
	return 1
}

// ApprovalStatus is the master-catalog approval state for a product.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalAutoPass ApprovalStatus = "auto_pass"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// TolerableForDraft reports whether a draft document may reference a product
// in this approval state. Rejected products are never tolerated.
func (s ApprovalStatus) TolerableForDraft() bool {
	return s == ApprovalPending || s == ApprovalAutoPass || s == ApprovalApproved
}

// SerialStatus tracks a serial number through reservation and consumption.
type SerialStatus string

const (
	SerialAvailable SerialStatus = "available"
	SerialReserved  SerialStatus = "reserved"
	SerialConsumed  SerialStatus = "consumed"
)

// VerificationStatus records whether an organization's tax identity has been
// verified; the source of the verification is kept alongside it.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
)

// UserRole defines the role hierarchy within an organization.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// Document type tags used for sequential numbering and ledger back-references.
const (
	DocTypeInvoice      = "invoice"
	DocTypePurchaseBill = "purchase_bill"
	DocTypeChallan      = "delivery_challan"
	DocTypeAdjustment   = "adjustment"
)
