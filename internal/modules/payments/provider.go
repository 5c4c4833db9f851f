package payments

import (
	"context"
	"net/http"
)

type CheckoutRequest struct {
	PaymentID   string
	ClientID    string
	ServiceName string
	AmountCents int
	Currency    string
	Method      string
	ReturnURL   string
	CancelURL   string
}

type CheckoutResponse struct {
	ProviderRef string
	CheckoutURL string
}

type SettlementRequest struct {
	PaymentID     string
	TransactionID string
	AmountCents   int
	Currency      string
	Method        string
}

type SettlementResponse struct {
	TransactionRef string
	Status         string // raw processor status; classified at the webhook boundary
}

type WebhookEvent struct {
	EventID        string
	Type           string
	TransactionRef string
	Status         string // raw processor status string
	AmountCents    int
	Currency       string
}

type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error)
	InitiateSettlement(ctx context.Context, req SettlementRequest) (SettlementResponse, error)

	// Webhook: verify signature + parse event
	VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error)
}

// classifyProcessorStatus is the single closed translation table between
// processor status strings and the internal transaction classification.
// Unknown statuses classify as failed (fail-safe), never as settled; the
// second return value tells the caller to log a warning.
func classifyProcessorStatus(s string) (string, bool) {
	switch s {
	case "paid":
		return TxnSettled, true
	case "failed":
		return TxnFailed, true
	case "canceled":
		return TxnCancelled, true
	default:
		return TxnFailed, false
	}
}
