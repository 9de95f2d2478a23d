package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerInfo struct {
	FirstName string `json:"firstname" validate:"required,min=2,max=50"`
	LastName  string `json:"lastname" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=7,max=20"`
	Address   string `json:"address" validate:"required,min=5,max=200"`
	City      string `json:"city" validate:"required,min=2,max=100"`
	Zip       string `json:"zip" validate:"required,min=3,max=12"`
}

// Order is the immutable record written once per successful checkout.
type Order struct {
	OrderID           string          `json:"order_id"`
	Items             []CartItem      `json:"items"`
	Total             decimal.Decimal `json:"total"`
	Customer          CustomerInfo    `json:"customer"`
	CreatedAt         time.Time       `json:"created_at"`
	EstimatedDelivery string          `json:"estimated_delivery"`
}

type CheckoutRequest struct {
	Customer CustomerInfo `json:"customer" validate:"required"`
}

type CheckoutResponse struct {
	OrderID           string `json:"order_id"`
	EstimatedDelivery string `json:"estimated_delivery"`
}
