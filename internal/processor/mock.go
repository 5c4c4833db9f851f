package processor

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
)

// Mock is the in-process stand-in for the live processor: deterministic
// refs, no network. Webhooks are still signature-checked with the same
// scheme as the live provider so cmd/tools/mockwebhook exercises the
// real verification path.
type Mock struct {
	secret []byte

	mu          sync.Mutex
	Checkouts   []payments.CheckoutRequest
	Settlements []payments.SettlementRequest

	CheckoutErr   error // returned from CreateCheckout when set
	SettlementErr error // returned from InitiateSettlement when set
}

func NewMock(webhookSecret string) *Mock {
	return &Mock{secret: []byte(webhookSecret)}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) CreateCheckout(_ context.Context, req payments.CheckoutRequest) (payments.CheckoutResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CheckoutErr != nil {
		return payments.CheckoutResponse{}, m.CheckoutErr
	}
	m.Checkouts = append(m.Checkouts, req)
	ref := "chk_" + uuid.NewString()
	return payments.CheckoutResponse{
		ProviderRef: ref,
		CheckoutURL: "https://pay.example.test/checkout/" + ref,
	}, nil
}

func (m *Mock) InitiateSettlement(_ context.Context, req payments.SettlementRequest) (payments.SettlementResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SettlementErr != nil {
		return payments.SettlementResponse{}, m.SettlementErr
	}
	m.Settlements = append(m.Settlements, req)
	return payments.SettlementResponse{
		TransactionRef: "ptx_" + uuid.NewString(),
		Status:         "pending",
	}, nil
}

func (m *Mock) VerifyAndParseWebhook(headers http.Header, body []byte) (payments.WebhookEvent, error) {
	return verifyAndParse(m.secret, headers, body)
}
