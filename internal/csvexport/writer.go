// Package csvexport renders ledger entries as downloadable CSV.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"vanik/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// stockColumns defines the header row for stock ledger exports.
var stockColumns = []string{
	"Entry ID",
	"Kind",
	"Quantity",
	"Reference Type",
	"Reference ID",
	"Note",
	"Recorded At",
}

// Writer wraps csv.Writer for exporting ledger entries as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the stock ledger header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(stockColumns)
}

// WriteStockEntries converts a batch of ledger entries to CSV rows and
// writes them.
func (w *Writer) WriteStockEntries(entries []domain.StockEntry) error {
	for i := range entries {
		if err := w.csv.Write(stockEntryToRow(&entries[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func stockEntryToRow(e *domain.StockEntry) []string {
	refID := ""
	if e.RefDocID != nil {
		refID = e.RefDocID.String()
	}
	return []string{
		e.ID.String(),
		string(e.Kind),
		e.Qty.String(),
		e.RefDocType,
		refID,
		e.Note,
		e.CreatedAt.Format(time.RFC3339),
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a product name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_product_name}_ledger_{YYYY-MM-DD}.csv
func BuildFilename(productName string) string {
	sanitized := SanitizeFilename(productName)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_ledger_%s.csv", sanitized, date)
}
