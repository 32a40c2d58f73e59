package gst_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"vanik/internal/gst"
)

func rate(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func amt(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCompute_IntraStateInclusive(t *testing.T) {
	seller := gst.Seller{StateCode: "27", TaxEnabled: true}
	buyer := gst.Buyer{StateCode: "27"}

	b := gst.Compute(seller, buyer, []gst.Line{
		{Amount: amt("1180"), Rate: rate("18")},
	}, true)

	assert.True(t, b.IntraState)
	assert.Equal(t, "1000", b.Subtotal.String())
	assert.Equal(t, "90", b.CGST.String())
	assert.Equal(t, "90", b.SGST.String())
	assert.Equal(t, "0", b.IGST.String())
	assert.Equal(t, "1180", b.GrandTotal.String())
}

func TestCompute_InterState(t *testing.T) {
	seller := gst.Seller{StateCode: "27", TaxEnabled: true}
	buyer := gst.Buyer{StateCode: "29"}

	b := gst.Compute(seller, buyer, []gst.Line{
		{Amount: amt("1180"), Rate: rate("18")},
	}, true)

	assert.False(t, b.IntraState)
	assert.Equal(t, "0", b.CGST.String())
	assert.Equal(t, "0", b.SGST.String())
	assert.Equal(t, "180", b.IGST.String())
	assert.Equal(t, "1180", b.GrandTotal.String())
}

func TestCompute_ExclusivePricing(t *testing.T) {
	seller := gst.Seller{StateCode: "27", TaxEnabled: true}
	buyer := gst.Buyer{StateCode: "27"}

	b := gst.Compute(seller, buyer, []gst.Line{
		{Amount: amt("1000"), Rate: rate("18")},
	}, false)

	assert.Equal(t, "1000", b.Subtotal.String())
	assert.Equal(t, "90", b.CGST.String())
	assert.Equal(t, "90", b.SGST.String())
	assert.Equal(t, "1180", b.GrandTotal.String())
}

func TestCompute_GSTINPrefixAuthoritative(t *testing.T) {
	// The state field says 29, but the GSTIN prefix says 27; the prefix wins
	// and the sale is intra-state.
	seller := gst.Seller{GSTIN: "27AAPFU0939F1ZV", StateCode: "29", TaxEnabled: true}
	buyer := gst.Buyer{GSTIN: "27AABCU9603R1ZM", StateCode: "29"}

	b := gst.Compute(seller, buyer, []gst.Line{
		{Amount: amt("100"), Rate: rate("18")},
	}, false)

	assert.True(t, b.IntraState)
	assert.Equal(t, "27", b.SellerState)
	assert.Equal(t, "27", b.BuyerState)
	assert.Equal(t, gst.StateFromGSTIN, b.BuyerStateSource)
}

func TestCompute_UnknownBuyerFallsBackToSellerState(t *testing.T) {
	// Walk-in customer with no GSTIN and no state field: treated as
	// intra-state in the seller's jurisdiction.
	seller := gst.Seller{StateCode: "27", TaxEnabled: true}
	buyer := gst.Buyer{}

	b := gst.Compute(seller, buyer, []gst.Line{
		{Amount: amt("100"), Rate: rate("18")},
	}, false)

	assert.True(t, b.IntraState)
	assert.Equal(t, gst.StateFromSeller, b.BuyerStateSource)
	assert.Equal(t, "9", b.CGST.String())
	assert.Equal(t, "9", b.SGST.String())
}

func TestCompute_TaxDisabled(t *testing.T) {
	seller := gst.Seller{StateCode: "27", TaxEnabled: false}
	buyer := gst.Buyer{StateCode: "29"}

	b := gst.Compute(seller, buyer, []gst.Line{
		{Amount: amt("1180"), Rate: rate("18")},
	}, false)

	assert.Equal(t, "1180", b.Subtotal.String())
	assert.True(t, b.CGST.IsZero())
	assert.True(t, b.SGST.IsZero())
	assert.True(t, b.IGST.IsZero())
	assert.Equal(t, "1180", b.GrandTotal.String())
	assert.Equal(t, gst.StateUnresolvable, b.BuyerStateSource)
}

func TestCompute_NilRateLineContributesNoTax(t *testing.T) {
	seller := gst.Seller{StateCode: "27", TaxEnabled: true}
	buyer := gst.Buyer{StateCode: "27"}

	b := gst.Compute(seller, buyer, []gst.Line{
		{Amount: amt("500"), Rate: nil},
		{Amount: amt("1000"), Rate: rate("18")},
	}, false)

	assert.Equal(t, "1500", b.Subtotal.String())
	assert.Equal(t, "90", b.CGST.String())
	assert.Equal(t, "90", b.SGST.String())
	assert.Equal(t, "1680", b.GrandTotal.String())
}

func TestCompute_ZeroRateIsValidZeroTax(t *testing.T) {
	seller := gst.Seller{StateCode: "27", TaxEnabled: true}
	buyer := gst.Buyer{StateCode: "27"}

	b := gst.Compute(seller, buyer, []gst.Line{
		{Amount: amt("250"), Rate: rate("0")},
	}, false)

	assert.Equal(t, "250", b.Subtotal.String())
	assert.True(t, b.CGST.IsZero())
	assert.True(t, b.IGST.IsZero())
}

func TestCompute_RoundPerLineThenSum(t *testing.T) {
	seller := gst.Seller{StateCode: "27", TaxEnabled: true}
	buyer := gst.Buyer{StateCode: "29"}

	// 10.01 at 18% = 1.8018 → 1.80 per line; three lines sum to 5.40, not
	// round(3 x 1.8018) = 5.41.
	lines := []gst.Line{
		{Amount: amt("10.01"), Rate: rate("18")},
		{Amount: amt("10.01"), Rate: rate("18")},
		{Amount: amt("10.01"), Rate: rate("18")},
	}

	b := gst.Compute(seller, buyer, lines, false)

	assert.Equal(t, "5.4", b.IGST.String())
	assert.Equal(t, "35.43", b.GrandTotal.String())
}

func TestCompute_IntraStateSplitIsExactHalves(t *testing.T) {
	seller := gst.Seller{StateCode: "27", TaxEnabled: true}
	buyer := gst.Buyer{StateCode: "27"}

	b := gst.Compute(seller, buyer, []gst.Line{
		{Amount: amt("333"), Rate: rate("18")},
	}, false)

	// 59.94 tax splits into two exact halves.
	assert.True(t, b.CGST.Equal(b.SGST))
	assert.Equal(t, "59.94", b.CGST.Add(b.SGST).String())
}

func TestCompute_Deterministic(t *testing.T) {
	seller := gst.Seller{GSTIN: "27AAPFU0939F1ZV", TaxEnabled: true}
	buyer := gst.Buyer{StateCode: "29"}
	lines := []gst.Line{
		{Amount: amt("123.45"), Rate: rate("12")},
		{Amount: amt("67.89"), Rate: rate("5")},
	}

	first := gst.Compute(seller, buyer, lines, true)
	for i := 0; i < 10; i++ {
		again := gst.Compute(seller, buyer, lines, true)
		assert.True(t, first.GrandTotal.Equal(again.GrandTotal))
		assert.True(t, first.CGST.Equal(again.CGST))
		assert.True(t, first.IGST.Equal(again.IGST))
	}
}
