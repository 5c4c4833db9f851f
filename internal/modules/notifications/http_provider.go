package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// HTTPProvider posts notifications to the platform's notification API.
type HTTPProvider struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewHTTPProvider() *HTTPProvider {
	return &HTTPProvider{
		apiURL: os.Getenv("NOTIFY_API_URL"),
		apiKey: os.Getenv("NOTIFY_API_TOKEN"), // Bearer token
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *HTTPProvider) Dispatch(ctx context.Context, n Notification) error {
	if p.apiURL == "" || p.apiKey == "" {
		return fmt.Errorf("notification API credentials not configured")
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
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
		return fmt.Errorf("notification API returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
