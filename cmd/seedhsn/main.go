// Command seedhsn converts the GST HSN/SAC Excel master into a SQL seed file
// for the hsn_codes table. Reads the goods sheet (HSN_Master_v1) and the
// services sheet (SAC_Master).
// Usage: go run ./cmd/seedhsn <xlsx-file>
// Output: db/seeds/hsn_codes.sql
package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	batchSize = 500
	outPath   = "db/seeds/hsn_codes.sql"

	// GST came into force on this date; the master carries no earlier rows.
	defaultEffectiveFrom = "2017-07-01"
)

type seedRow struct {
	code        string
	description string
	gstRate     float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: seedhsn <xlsx-file>")
	}

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	seen := make(map[string]bool)

	goods, err := parseGoodsSheet(f, seen)
	if err != nil {
		return fmt.Errorf("parse HSN sheet: %w", err)
	}
	log.Printf("HSN sheet: %d entries", len(goods))

	services, err := parseServicesSheet(f, seen)
	if err != nil {
		return fmt.Errorf("parse SAC sheet: %w", err)
	}
	log.Printf("SAC sheet: %d entries", len(services))

	rows := append(goods, services...)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	fmt.Fprintf(out, "-- HSN/SAC code seed data generated by cmd/seedhsn.\n")
	fmt.Fprintf(out, "-- %d entries in batches of %d.\n", len(rows), batchSize)
	fmt.Fprintln(out, "BEGIN;")
	fmt.Fprintln(out)

	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := writeBatch(out, rows[i:end]); err != nil {
			return fmt.Errorf("write batch at offset %d: %w", i, err)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "COMMIT;")

	log.Printf("Generated %d total entries (%d batches) in %s",
		len(rows), (len(rows)+batchSize-1)/batchSize, outPath)
	return nil
}

// parseGoodsSheet reads the HSN_Master_v1 sheet (index 0).
// Columns: F(5)=4-digit, H(7)=4-digit desc, I(8)=6-digit, J(9)=6-digit desc,
// K(10)=8-digit, M(12)=8-digit desc, N(13)=GST rate (percentage formatted).
// Data starts at row index 5.
func parseGoodsSheet(f *excelize.File, seen map[string]bool) ([]seedRow, error) {
	sheetName := f.GetSheetName(0)
	cells, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var rows []seedRow
	for i := 5; i < len(cells); i++ {
		row := cells[i]
		if len(row) < 14 {
			continue
		}

		rateStr := strings.TrimSuffix(strings.TrimSpace(cellVal(row, 13)), "%")
		if rateStr == "" {
			continue
		}
		var rate float64
		if _, serr := fmt.Sscanf(rateStr, "%f", &rate); serr != nil {
			continue
		}

		// Most-specific code first so the 8-digit description wins the
		// dedupe when an 8-digit and 6-digit code collide.
		for _, pair := range [][2]int{{10, 12}, {8, 9}, {5, 7}} {
			code := strings.TrimSpace(cellVal(row, pair[0]))
			if code != "" && isNumeric(code) {
				rows = addRow(rows, seen, code, strings.TrimSpace(cellVal(row, pair[1])), rate)
			}
		}
	}
	return rows, nil
}

// parseServicesSheet reads the SAC_Master sheet (index 2).
// Columns: A(0)=4-digit SAC, B(1)=4-digit desc, C(2)=6-digit SAC, D(3)=6-digit
// desc, E(4)=GST rate as free text ("18%", "Exempt", "12%-18%").
// Data starts at row index 3.
func parseServicesSheet(f *excelize.File, seen map[string]bool) ([]seedRow, error) {
	cells, err := f.GetRows("SAC_Master")
	if err != nil {
		return nil, err
	}

	var rows []seedRow
	for i := 3; i < len(cells); i++ {
		row := cells[i]
		if len(row) < 5 {
			continue
		}

		rates := parseFreeTextRate(strings.TrimSpace(cellVal(row, 4)))
		if len(rates) == 0 {
			continue
		}

		for _, rate := range rates {
			for _, pair := range [][2]int{{2, 3}, {0, 1}} {
				code := strings.TrimSpace(cellVal(row, pair[0]))
				if code != "" && isNumeric(code) {
					rows = addRow(rows, seen, code, strings.TrimSpace(cellVal(row, pair[1])), rate)
				}
			}
		}
	}
	return rows, nil
}

var ratePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// parseFreeTextRate extracts GST rate(s) from free-text SAC rate strings:
// "18%" → [18], "Exempt" → [0], "12%-18%" → [12, 18],
// "1% (without ITC) or 5% (without ITC)" → [1, 5].
func parseFreeTextRate(s string) []float64 {
	if s == "" {
		return nil
	}

	lower := strings.ToLower(s)
	if lower == "exempt" || lower == "nil" {
		return []float64{0}
	}

	matches := ratePattern.FindAllStringSubmatch(s, -1)
	seen := make(map[float64]bool)
	var rates []float64
	for _, m := range matches {
		var rate float64
		if _, err := fmt.Sscanf(m[1], "%f", &rate); err == nil && !seen[rate] {
			seen[rate] = true
			rates = append(rates, rate)
		}
	}
	return rates
}

func addRow(rows []seedRow, seen map[string]bool, code, description string, gstRate float64) []seedRow {
	key := fmt.Sprintf("%s|%.2f", code, gstRate)
	if seen[key] {
		return rows
	}
	seen[key] = true
	return append(rows, seedRow{code: code, description: description, gstRate: gstRate})
}

func writeBatch(out *os.File, batch []seedRow) error {
	if len(batch) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO hsn_codes (code, description, gst_rate, effective_from) VALUES\n")

	for i := range batch {
		e := &batch[i]
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "  ('%s', '%s', %.2f, '%s')",
			escapeSQL(e.code), escapeSQL(e.description), e.gstRate, defaultEffectiveFrom)
	}

	b.WriteString("\nON CONFLICT (code, gst_rate, effective_from) DO NOTHING;\n")

	_, err := out.WriteString(b.String())
	return err
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
