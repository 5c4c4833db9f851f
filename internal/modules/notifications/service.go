package notifications

import (
	"context"

	"github.com/kadik23/law-firm-web-app-sub002/internal/shared/money"
)

// Dispatcher delivers a user-facing notification. Implementations must be
// safe to call fire-and-forget: callers log failures and move on, the
// ledger is never rolled back because a notification could not be sent.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

type Notification struct {
	ClientID  string `json:"client_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Category  string `json:"category,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
}

// PaymentStatusChanged builds the message for a payment status transition.
func PaymentStatusChanged(clientID, paymentID, serviceName, status, currency string, remainingCents int64) Notification {
	title := "Payment update"
	var body string
	switch status {
	case "completed":
		title = "Payment completed"
		body = "Your payment for " + serviceName + " is fully settled. Thank you."
	case "processing":
		body = "We received a payment for " + serviceName + ". Remaining balance: " +
			money.Format(currency, remainingCents) + "."
	case "failed":
		title = "Payment failed"
		body = "A payment for " + serviceName + " could not be processed. Please try again or contact us."
	case "cancelled":
		title = "Payment cancelled"
		body = "Your payment for " + serviceName + " was cancelled."
	default:
		body = "Your payment for " + serviceName + " is now " + status + "."
	}

	return Notification{
		ClientID:  clientID,
		Title:     title,
		Body:      body,
		Category:  "payments",
		PaymentID: paymentID,
	}
}
