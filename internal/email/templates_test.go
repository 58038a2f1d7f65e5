package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		amount   int64
		expected string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{99, "$0.99"},
		{100, "$1.00"},
		{2500, "$25.00"},
		{123456, "$1,234.56"},
		{100000000, "$1,000,000.00"},
		{-2500, "-$25.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatCents(tt.amount), "amount %d", tt.amount)
	}
}

func TestBuildOrderConfirmation(t *testing.T) {
	lines := []OrderLine{
		{ProductID: "prod-1", Name: "Stoneware Mug", Variant: "Glaze: Ocean", Quantity: 2, UnitPrice: 1000},
		{ProductID: "prod-2", Quantity: 1, UnitPrice: 500},
	}

	body := BuildOrderConfirmation("CS-20260831-ABCDEF", "June", lines, 2500, 0, 2500)

	assert.Contains(t, body, "CS-20260831-ABCDEF")
	assert.Contains(t, body, "Thank you for your order, June!")
	assert.Contains(t, body, "Stoneware Mug (Glaze: Ocean)")
	// Lines with no name fall back to the product ID
	assert.Contains(t, body, "prod-2")
	assert.Contains(t, body, "$25.00")
	assert.Contains(t, body, "Shipping: Free")
}

func TestBuildStatusUpdate(t *testing.T) {
	body := BuildStatusUpdate("CS-20260831-ABCDEF", "shipped")
	assert.Contains(t, body, "on its way")
	assert.Contains(t, body, "CS-20260831-ABCDEF")

	body = BuildStatusUpdate("CS-20260831-ABCDEF", "mystery")
	assert.Contains(t, body, "Order update: mystery")
}

func TestBuildStaffAlert(t *testing.T) {
	body := BuildStaffAlert("CS-20260831-ABCDEF", "june@example.com", 3, 2999)
	assert.Contains(t, body, "New order CS-20260831-ABCDEF")
	assert.Contains(t, body, "june@example.com")
	assert.Contains(t, body, "$29.99")
}
