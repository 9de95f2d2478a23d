package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one row in the cart, uniquely keyed by (ProductID, Size).
// Size is normalized to "" when the product has no size variants.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is UnitPrice * Quantity at full precision.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartSummary is what mutation observers receive after every cart change.
type CartSummary struct {
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size,omitempty"`
	Action    string `json:"action" validate:"required,oneof=increment decrement"`
}

type RemoveItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size,omitempty"`
}
