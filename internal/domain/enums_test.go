package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStockTxnKindSign(t *testing.T) {
	assert.Equal(t, 1, StockTxnIn.Sign())
	assert.Equal(t, -1, StockTxnOut.Sign())
	assert.Equal(t, 1, StockTxnAdjustment.Sign())
}

func TestConsignmentTxnKindSign(t *testing.T) {
	assert.Equal(t, 1, ConsignmentTxnIn.Sign())
	assert.Equal(t, -1, ConsignmentTxnSale.Sign())
	assert.Equal(t, 1, ConsignmentTxnReturn.Sign())
	assert.Equal(t, 1, ConsignmentTxnAdjustment.Sign())
}

func foldStock(entries []StockEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Qty.Mul(decimal.NewFromInt(int64(e.Kind.Sign()))))
	}
	return total
}

func foldConsignment(entries []ConsignmentEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Qty.Mul(decimal.NewFromInt(int64(e.Kind.Sign()))))
	}
	return total
}

func TestStockConservation(t *testing.T) {
	entries := []StockEntry{
		{Kind: StockTxnIn, Qty: decimal.NewFromInt(10)},
		{Kind: StockTxnOut, Qty: decimal.NewFromInt(3)},
		{Kind: StockTxnAdjustment, Qty: decimal.RequireFromString("-1.5")},
	}
	assert.Equal(t, "5.5", foldStock(entries).String())

	// Posting N out then N in restores the original balance.
	restored := append(entries,
		StockEntry{Kind: StockTxnOut, Qty: decimal.NewFromInt(4)},
		StockEntry{Kind: StockTxnIn, Qty: decimal.NewFromInt(4)},
	)
	assert.True(t, foldStock(entries).Equal(foldStock(restored)))
}

func TestConsignmentConservation(t *testing.T) {
	// A return is additive: after issuing 10 and taking back a 4-unit sale
	// return, the agent holds 14, not 6.
	assert.Equal(t, "14", foldConsignment([]ConsignmentEntry{
		{Kind: ConsignmentTxnIn, Qty: decimal.NewFromInt(10)},
		{Kind: ConsignmentTxnReturn, Qty: decimal.NewFromInt(4)},
	}).String())

	assert.Equal(t, "5", foldConsignment([]ConsignmentEntry{
		{Kind: ConsignmentTxnIn, Qty: decimal.NewFromInt(10)},
		{Kind: ConsignmentTxnSale, Qty: decimal.NewFromInt(3)},
		{Kind: ConsignmentTxnAdjustment, Qty: decimal.NewFromInt(-2)},
	}).String())
}
