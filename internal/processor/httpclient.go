package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
)

// HTTPProvider talks to the live payment processor. Every call carries
// the caller's context plus the client timeout; a hung processor never
// blocks a request indefinitely.
type HTTPProvider struct {
	name    string
	baseURL string
	apiKey  string
	secret  []byte
	client  *http.Client
}

type HTTPConfig struct {
	Name          string
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	name := cfg.Name
	if name == "" {
		name = "chargily"
	}
	return &HTTPProvider{
		name:    name,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		secret:  []byte(cfg.WebhookSecret),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

type checkoutAPIRequest struct {
	Reference   string `json:"reference"`
	ClientID    string `json:"client_id"`
	Description string `json:"description"`
	AmountCents int    `json:"amount_cents"`
	Currency    string `json:"currency"`
	Method      string `json:"payment_method"`
	SuccessURL  string `json:"success_url"`
	FailureURL  string `json:"failure_url"`
}

type checkoutAPIResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

func (p *HTTPProvider) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (payments.CheckoutResponse, error) {
	body := checkoutAPIRequest{
		Reference:   req.PaymentID,
		ClientID:    req.ClientID,
		Description: req.ServiceName,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Method:      req.Method,
		SuccessURL:  req.ReturnURL,
		FailureURL:  req.CancelURL,
	}

	var resp checkoutAPIResponse
	if err := p.post(ctx, "/checkouts", body, &resp); err != nil {
		return payments.CheckoutResponse{}, err
	}
	return payments.CheckoutResponse{ProviderRef: resp.ID, CheckoutURL: resp.CheckoutURL}, nil
}

type settlementAPIRequest struct {
	CheckoutRef string `json:"checkout_ref,omitempty"`
	Reference   string `json:"reference"`
	AmountCents int    `json:"amount_cents"`
	Currency    string `json:"currency"`
	Method      string `json:"payment_method"`
}

type settlementAPIResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (p *HTTPProvider) InitiateSettlement(ctx context.Context, req payments.SettlementRequest) (payments.SettlementResponse, error) {
	body := settlementAPIRequest{
		Reference:   req.TransactionID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Method:      req.Method,
	}

	var resp settlementAPIResponse
	if err := p.post(ctx, "/settlements", body, &resp); err != nil {
		return payments.SettlementResponse{}, err
	}
	return payments.SettlementResponse{TransactionRef: resp.ID, Status: resp.Status}, nil
}

func (p *HTTPProvider) VerifyAndParseWebhook(headers http.Header, body []byte) (payments.WebhookEvent, error) {
	return verifyAndParse(p.secret, headers, body)
}

func (p *HTTPProvider) post(ctx context.Context, path string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("processor %s returned %d: %s", path, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
