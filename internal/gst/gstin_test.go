package gst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vanik/internal/gst"
)

func TestIsValidGSTIN(t *testing.T) {
	tests := []struct {
		name  string
		gstin string
		want  bool
	}{
		{"valid maharashtra", "27AAPFU0939F1ZV", true},
		{"valid karnataka", "29AABCU9603R1ZM", true},
		{"state code zero", "00AAPFU0939F1ZV", false},
		{"state code out of range", "39AAPFU0939F1ZV", false},
		{"too short", "27AAPFU0939F1Z", false},
		{"lowercase pan", "27aapfu0939F1ZV", false},
		{"missing z", "27AAPFU0939F1XV", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gst.IsValidGSTIN(tt.gstin))
		})
	}
}

func TestStateCodeFromGSTIN(t *testing.T) {
	code, ok := gst.StateCodeFromGSTIN("29AABCU9603R1ZM")
	assert.True(t, ok)
	assert.Equal(t, "29", code)

	_, ok = gst.StateCodeFromGSTIN("99AABCU9603R1ZM")
	assert.False(t, ok)

	_, ok = gst.StateCodeFromGSTIN("2")
	assert.False(t, ok)
}

func TestResolveState(t *testing.T) {
	code, src := gst.ResolveState("27AAPFU0939F1ZV", "29")
	assert.Equal(t, "27", code)
	assert.Equal(t, gst.StateFromGSTIN, src)

	code, src = gst.ResolveState("", "29")
	assert.Equal(t, "29", code)
	assert.Equal(t, gst.StateFromField, src)

	code, src = gst.ResolveState("", "")
	assert.Equal(t, "", code)
	assert.Equal(t, gst.StateUnresolvable, src)
}

func TestResolveBuyerState_SellerFallback(t *testing.T) {
	code, src := gst.ResolveBuyerState("", "", "27")
	assert.Equal(t, "27", code)
	assert.Equal(t, gst.StateFromSeller, src)

	_, src = gst.ResolveBuyerState("", "", "")
	assert.Equal(t, gst.StateUnresolvable, src)
}
