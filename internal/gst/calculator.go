package gst

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// Seller is the seller-side tax context.
type Seller struct {
	GSTIN      string
	StateCode  string
	TaxEnabled bool
}

// Buyer is the buyer-side tax context.
type Buyer struct {
	GSTIN     string
	StateCode string
}

// Line is one taxable line. Rate is nil when no rate could be resolved; a
// non-nil zero rate is a valid zero-tax line, which is a different thing.
type Line struct {
	Amount  decimal.Decimal
	Rate    *decimal.Decimal
	HSNCode string
}

// LineTax is the computed breakup for a single line.
type LineTax struct {
	TaxableBase decimal.Decimal
	Tax         decimal.Decimal
	CGST        decimal.Decimal
	SGST        decimal.Decimal
	IGST        decimal.Decimal
	HSNCode     string
}

// Breakup is the document-level tax computation result. Exactly one of the
// two patterns holds: CGST and SGST both non-zero, or IGST non-zero (or all
// zero when tax does not apply).
type Breakup struct {
	Subtotal   decimal.Decimal
	CGST       decimal.Decimal
	SGST       decimal.Decimal
	IGST       decimal.Decimal
	GrandTotal decimal.Decimal

	IntraState       bool
	SellerState      string
	BuyerState       string
	BuyerStateSource StateSource
	Lines            []LineTax
}

// Compute calculates the GST breakup for a document.
//
// Rounding discipline: round-per-line-then-sum. Each line's tax is rounded
// half-up to 2 places before the intra-state split; document totals are the
// sum of the (already rounded) line components, rounded once more to 2 places
// to absorb the half-paisa CGST/SGST halves of odd-paisa lines. The same
// inputs always produce bit-identical output.
//
// inclusive selects GST-inclusive pricing for the whole document: the taxable
// base is backed out as amount x 100/(100+rate). It is never mixed per line.
func Compute(seller Seller, buyer Buyer, lines []Line, inclusive bool) Breakup {
	sellerState, _ := ResolveState(seller.GSTIN, seller.StateCode)

	b := Breakup{
		Subtotal:    decimal.Zero,
		CGST:        decimal.Zero,
		SGST:        decimal.Zero,
		IGST:        decimal.Zero,
		SellerState: sellerState,
		Lines:       make([]LineTax, 0, len(lines)),
	}

	taxable := seller.TaxEnabled && sellerState != ""
	if taxable {
		b.BuyerState, b.BuyerStateSource = ResolveBuyerState(buyer.GSTIN, buyer.StateCode, sellerState)
		b.IntraState = b.BuyerState == sellerState
	} else {
		b.BuyerStateSource = StateUnresolvable
	}

	for _, ln := range lines {
		lt := computeLine(ln, inclusive, taxable, b.IntraState)
		b.Subtotal = b.Subtotal.Add(lt.TaxableBase)
		b.CGST = b.CGST.Add(lt.CGST)
		b.SGST = b.SGST.Add(lt.SGST)
		b.IGST = b.IGST.Add(lt.IGST)
		b.Lines = append(b.Lines, lt)
	}

	b.Subtotal = b.Subtotal.Round(2)
	b.CGST = b.CGST.Round(2)
	b.SGST = b.SGST.Round(2)
	b.IGST = b.IGST.Round(2)
	b.GrandTotal = b.Subtotal.Add(b.CGST).Add(b.SGST).Add(b.IGST).Round(2)
	return b
}

func computeLine(ln Line, inclusive, taxable, intra bool) LineTax {
	lt := LineTax{
		TaxableBase: ln.Amount,
		Tax:         decimal.Zero,
		CGST:        decimal.Zero,
		SGST:        decimal.Zero,
		IGST:        decimal.Zero,
		HSNCode:     ln.HSNCode,
	}

	// No resolvable rate, or rate <= 0: the line contributes its full amount
	// to the subtotal and zero tax. The calculator never clamps negative
	// inputs; those are rejected upstream.
	if !taxable || ln.Rate == nil || !ln.Rate.IsPositive() {
		return lt
	}

	rate := *ln.Rate
	if inclusive {
		lt.TaxableBase = ln.Amount.Mul(hundred).Div(hundred.Add(rate)).Round(2)
	}

	lt.Tax = lt.TaxableBase.Mul(rate).Div(hundred).Round(2)
	if intra {
		half := lt.Tax.Div(two)
		lt.CGST = half
		lt.SGST = half
	} else {
		lt.IGST = lt.Tax
	}
	return lt
}
