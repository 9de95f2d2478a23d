package sendgrid

import (
	"context"
	"fmt"

	"github.com/rainydayslabs/storefront-core/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends the order confirmation email after a committed checkout.
// It satisfies the checkout sink hook.
type Mailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewMailer(apiKey, fromEmail, fromName string) *Mailer {
	return &Mailer{client: sendgrid.NewSendClient(apiKey), fromEmail: fromEmail, fromName: fromName}
}

func (m *Mailer) OrderPlaced(_ context.Context, order *models.Order) error {

	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(order.Customer.FirstName+" "+order.Customer.LastName, order.Customer.Email)

	subject := fmt.Sprintf("Order confirmation %s", order.OrderID)

	body := fmt.Sprintf(
		"Thank you for your order!\n\nOrder: %s\nTotal: $%s\nEstimated delivery: %s\n",
		order.OrderID, order.Total.StringFixed(2), order.EstimatedDelivery)

	message := mail.NewSingleEmail(from, subject, to, body, "")

	response, err := m.client.Send(message)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}
