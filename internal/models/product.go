package models

import "github.com/shopspring/decimal"

type ProductImage struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Product mirrors the catalog entries served by the upstream demo shop API.
type Product struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	Image           ProductImage    `json:"image"`
	Tags            []string        `json:"tags,omitempty"`
}

// EffectivePrice is the discounted price when one is set and lower than
// the list price, else the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice.IsPositive() && p.DiscountedPrice.LessThan(p.Price) {
		return p.DiscountedPrice
	}

	return p.Price
}
