package processor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
)

// webhookPayload is the wire shape both the live processor and the mock
// deliver. The raw body is persisted verbatim for audit; only the fields
// below participate in reconciliation.
type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		TransactionRef string `json:"transaction_ref"`
		Status         string `json:"status"`
		AmountCents    int    `json:"amount_cents"`
		Currency       string `json:"currency"`
	} `json:"data"`
}

func verifyAndParse(secret []byte, headers http.Header, body []byte) (payments.WebhookEvent, error) {
	if err := VerifySignature(secret, headers.Get(SignatureHeader), body, time.Now()); err != nil {
		return payments.WebhookEvent{}, err
	}

	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return payments.WebhookEvent{}, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if p.ID == "" {
		return payments.WebhookEvent{}, fmt.Errorf("webhook payload missing event id")
	}

	return payments.WebhookEvent{
		EventID:        p.ID,
		Type:           p.Type,
		TransactionRef: p.Data.TransactionRef,
		Status:         p.Data.Status,
		AmountCents:    p.Data.AmountCents,
		Currency:       p.Data.Currency,
	}, nil
}
