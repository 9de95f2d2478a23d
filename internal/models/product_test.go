package models_test

import (
	"testing"

	"github.com/rainydayslabs/storefront-core/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name       string
		price      string
		discounted string
		expected   string
	}{
		{name: "Discount Lower Than List", price: "149.99", discounted: "99.99", expected: "99.99"},
		{name: "Discount Equal To List", price: "30.00", discounted: "30.00", expected: "30.00"},
		{name: "Discount Above List Is Ignored", price: "30.00", discounted: "35.00", expected: "30.00"},
		{name: "No Discount Set", price: "30.00", discounted: "0", expected: "30.00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := models.Product{
				Price:           decimal.RequireFromString(tc.price),
				DiscountedPrice: decimal.RequireFromString(tc.discounted),
			}

			assert.True(t, p.EffectivePrice().Equal(decimal.RequireFromString(tc.expected)),
				"got %s", p.EffectivePrice())
		})
	}
}

func TestLineTotal(t *testing.T) {
	item := models.CartItem{
		UnitPrice: decimal.RequireFromString("25.50"),
		Quantity:  3,
	}

	assert.True(t, item.LineTotal().Equal(decimal.RequireFromString("76.50")))
}
