// Package gst implements GST jurisdiction resolution and the CGST/SGST/IGST
// tax computation for sales invoices and purchase bills.
package gst

import (
	"regexp"
	"strconv"
)

// gstinPattern matches the standard 15-character GSTIN layout:
// 2-digit state code, 10-character PAN, entity number, literal Z, checksum.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// IsValidGSTIN reports whether the registration number has the standard
// GSTIN shape with a known state code prefix.
func IsValidGSTIN(gstin string) bool {
	if !gstinPattern.MatchString(gstin) {
		return false
	}
	_, ok := StateCodeFromGSTIN(gstin)
	return ok
}

// StateCodeFromGSTIN extracts the 2-digit jurisdiction code embedded in a
// GSTIN. The embedded code is authoritative over any free-text state field.
// GST state codes run 01-38 (states, union territories and 97/99 handled as
// out of range here since they never appear on registrations).
func StateCodeFromGSTIN(gstin string) (string, bool) {
	if len(gstin) < 2 {
		return "", false
	}
	code := gstin[:2]
	n, err := strconv.Atoi(code)
	if err != nil || n < 1 || n > 38 {
		return "", false
	}
	return code, true
}

// StateSource records where a resolved state code came from, so tax breakups
// can be audited after the fact.
type StateSource string

const (
	StateFromGSTIN    StateSource = "gstin"
	StateFromField    StateSource = "state_field"
	StateFromSeller   StateSource = "seller_fallback"
	StateUnresolvable StateSource = "unresolvable"
)

// ResolveState resolves a party's jurisdiction: GSTIN prefix first, then the
// explicit state field, else unresolvable.
func ResolveState(gstin, stateField string) (string, StateSource) {
	if code, ok := StateCodeFromGSTIN(gstin); ok {
		return code, StateFromGSTIN
	}
	if stateField != "" {
		return stateField, StateFromField
	}
	return "", StateUnresolvable
}

// ResolveBuyerState resolves the buyer's jurisdiction, falling back to the
// seller's state when the buyer's is unknown. Treating an unknown buyer as
// intra-state is a deliberate safe-harbor policy for unregistered walk-in
// customers, not a defect.
func ResolveBuyerState(gstin, stateField, sellerState string) (string, StateSource) {
	if code, src := ResolveState(gstin, stateField); src != StateUnresolvable {
		return code, src
	}
	if sellerState != "" {
		return sellerState, StateFromSeller
	}
	return "", StateUnresolvable
}
