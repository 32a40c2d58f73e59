package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vanik/internal/domain"
)

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 7)
	assert.Equal(t, "Entry ID", row[0])
	assert.Equal(t, "Kind", row[1])
	assert.Equal(t, "Recorded At", row[6])
}

func TestWriteStockEntries(t *testing.T) {
	refID := uuid.New()
	at := time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC)
	entries := []domain.StockEntry{
		{
			ID:         uuid.New(),
			Kind:       domain.StockTxnOut,
			Qty:        decimal.NewFromInt(5),
			RefDocType: string(domain.DocTypeInvoice),
			RefDocID:   &refID,
			CreatedAt:  at,
		},
		{
			ID:        uuid.New(),
			Kind:      domain.StockTxnAdjustment,
			Qty:       decimal.RequireFromString("-2.5"),
			Note:      "Damaged in transit",
			CreatedAt: at,
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteStockEntries(entries))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "out", rows[1][1])
	assert.Equal(t, "5", rows[1][2])
	assert.Equal(t, "invoice", rows[1][3])
	assert.Equal(t, refID.String(), rows[1][4])
	assert.Equal(t, "2025-01-14T10:30:00Z", rows[1][6])

	assert.Equal(t, "adjustment", rows[2][1])
	assert.Equal(t, "-2.5", rows[2][2])
	assert.Equal(t, "", rows[2][4])
	assert.Equal(t, "Damaged in transit", rows[2][5])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "LED-Bulb_9W", "LED-Bulb_9W"},
		{"spaces and symbols", "Copper Wire (1.5mm)", "Copper_Wire_1_5mm"},
		{"collapses underscores", "a  //  b", "a_b"},
		{"trims edges", "  wire  ", "wire"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	filename := BuildFilename("Copper Wire")
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, "Copper_Wire_ledger_"+today+".csv", filename)
}
