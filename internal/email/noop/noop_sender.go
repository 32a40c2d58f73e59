package noop

import (
	"context"
	"log"
	"strings"

	"vanik/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs notices to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendBillFlaggedEmail(_ context.Context, toEmail, toName string, notice port.BillFlagNotice) error {
	log.Printf("[NOOP EMAIL] Bill %s from %s flagged for %s (%s): %s",
		notice.BillNumber, notice.VendorName, toName, toEmail, strings.Join(notice.MismatchedLines, "; "))
	return nil
}
