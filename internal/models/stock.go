package models

// StockRecord tracks owned and reserved units for one product.
// Invariants: 0 <= Reserved <= Stock after every mutation.
type StockRecord struct {
	Stock    int `json:"stock"`
	Reserved int `json:"reserved"`
}

// Available is the number of units that can still be reserved.
func (r StockRecord) Available() int {
	return r.Stock - r.Reserved
}

type UpdateStockRequest struct {
	Stock int `json:"stock" validate:"min=0"`
}

type StockResponse struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
}
