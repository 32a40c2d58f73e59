package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockFoldCase(t *testing.T) {
	assert.Equal(t,
		"CASE kind WHEN 'in' THEN qty WHEN 'out' THEN -qty WHEN 'adjustment' THEN qty ELSE qty END",
		stockFoldCase)
}

func TestConsignmentFoldCase(t *testing.T) {
	assert.Equal(t,
		"CASE kind WHEN 'dc_in' THEN qty WHEN 'dc_sale' THEN -qty WHEN 'dc_return' THEN qty WHEN 'dc_adjustment' THEN qty ELSE qty END",
		consignmentFoldCase)

	// A return restores the agent's holding; only sales subtract.
	assert.NotContains(t, consignmentFoldCase, "'dc_return' THEN -qty")
}
