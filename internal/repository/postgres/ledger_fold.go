package postgres

import (
	"fmt"
	"strings"

	"vanik/internal/domain"
)

// foldCaseSQL renders a kind-to-sign mapping as the CASE expression the
// balance queries fold over, so the SQL fold cannot drift from the sign
// rules the domain declares.
func foldCaseSQL[K ~string](kinds []K, sign func(K) int) string {
	var b strings.Builder
	b.WriteString("CASE kind")
	for _, k := range kinds {
		if sign(k) < 0 {
			fmt.Fprintf(&b, " WHEN '%s' THEN -qty", string(k))
		} else {
			fmt.Fprintf(&b, " WHEN '%s' THEN qty", string(k))
		}
	}
	b.WriteString(" ELSE qty END")
	return b.String()
}

var (
	stockFoldCase       = foldCaseSQL(domain.StockTxnKinds, domain.StockTxnKind.Sign)
	consignmentFoldCase = foldCaseSQL(domain.ConsignmentTxnKinds, domain.ConsignmentTxnKind.Sign)
)
