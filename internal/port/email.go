package port

import "context"

// BillFlagNotice carries what an org admin needs to act on a purchase bill
// that failed HSN verification.
type BillFlagNotice struct {
	BillNumber      string
	VendorName      string
	MismatchedLines []string
}

// EmailSender defines the contract for outbound notification email.
type EmailSender interface {
	SendBillFlaggedEmail(ctx context.Context, toEmail, toName string, notice BillFlagNotice) error
}
