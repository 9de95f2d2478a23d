package payments

import (
	"context"
	"fmt"

	"github.com/rainydayslabs/storefront-core/internal/models"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

// StripeProcessor confirms a checkout by creating and capturing a Stripe
// PaymentIntent for the order total. It satisfies the checkout's
// confirmation hook, replacing the simulated delay when configured.
type StripeProcessor struct {
	currency string
}

func NewStripeProcessor(apiKey, currency string) *StripeProcessor {
	stripe.Key = apiKey

	return &StripeProcessor{currency: currency}
}

func (p *StripeProcessor) Confirm(ctx context.Context, order *models.Order) error {

	// Stripe amounts are integer minor units (cents).
	amount := order.Total.Shift(2).Round(0).IntPart()

	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(p.currency),
		Description: stripe.String(fmt.Sprintf("Order %s", order.OrderID)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return fmt.Errorf("failed to create payment intent: %w", err)
	}

	if intent.Status == stripe.PaymentIntentStatusCanceled {
		return fmt.Errorf("payment intent %s was canceled", intent.ID)
	}

	return nil
}
