// Package export renders report data into downloadable workbook files.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"vanik/internal/domain"
)

const summarySheet = "GST Summary"

// GSTRSummary renders the per-rate tax aggregation of a period into an xlsx
// workbook and returns its bytes. Rows arrive pre-aggregated and pre-sorted
// from the repository; this layer only formats.
func GSTRSummary(orgName string, from, to time.Time, rows []domain.TaxRateTotal) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	set := func(cell string, value interface{}) error {
		return f.SetCellValue(summarySheet, cell, value)
	}

	header := []struct {
		cell  string
		value interface{}
	}{
		{"A1", orgName},
		{"A2", fmt.Sprintf("Outward supplies summary %s to %s",
			from.Format("02-Jan-2006"), to.Format("02-Jan-2006"))},
		{"A4", "GST Rate (%)"},
		{"B4", "Taxable Value"},
		{"C4", "CGST"},
		{"D4", "SGST"},
		{"E4", "IGST"},
		{"F4", "Total Tax"},
	}
	for _, h := range header {
		if err := set(h.cell, h.value); err != nil {
			return nil, fmt.Errorf("writing header cell %s: %w", h.cell, err)
		}
	}

	var taxable, cgst, sgst, igst float64
	for i, row := range rows {
		r := 5 + i
		totalTax := row.CGST.Add(row.SGST).Add(row.IGST)
		cells := []struct {
			col   string
			value float64
		}{
			{"A", row.GSTRate.InexactFloat64()},
			{"B", row.TaxableValue.InexactFloat64()},
			{"C", row.CGST.InexactFloat64()},
			{"D", row.SGST.InexactFloat64()},
			{"E", row.IGST.InexactFloat64()},
			{"F", totalTax.InexactFloat64()},
		}
		for _, c := range cells {
			if err := set(fmt.Sprintf("%s%d", c.col, r), c.value); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", r, err)
			}
		}
		taxable += row.TaxableValue.InexactFloat64()
		cgst += row.CGST.InexactFloat64()
		sgst += row.SGST.InexactFloat64()
		igst += row.IGST.InexactFloat64()
	}

	totalRow := 5 + len(rows)
	totals := []struct {
		cell  string
		value interface{}
	}{
		{fmt.Sprintf("A%d", totalRow), "Total"},
		{fmt.Sprintf("B%d", totalRow), taxable},
		{fmt.Sprintf("C%d", totalRow), cgst},
		{fmt.Sprintf("D%d", totalRow), sgst},
		{fmt.Sprintf("E%d", totalRow), igst},
		{fmt.Sprintf("F%d", totalRow), cgst + sgst + igst},
	}
	for _, t := range totals {
		if err := set(t.cell, t.value); err != nil {
			return nil, fmt.Errorf("writing totals: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
