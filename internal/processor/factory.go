package processor

import (
	"fmt"
	"os"

	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
)

type FactoryResult struct {
	Driver   string
	Provider payments.Provider
}

func FromEnv() (FactoryResult, error) {
	driver := os.Getenv("PROCESSOR_DRIVER")
	if driver == "" {
		driver = "mock"
	}

	switch driver {
	case "mock":
		secret := envOr("PROCESSOR_WEBHOOK_SECRET", "mock-secret")
		return FactoryResult{Driver: "mock", Provider: NewMock(secret)}, nil

	case "http":
		baseURL := envOr("PROCESSOR_BASE_URL", "")
		apiKey := envOr("PROCESSOR_API_KEY", "")
		secret := envOr("PROCESSOR_WEBHOOK_SECRET", "")
		if baseURL == "" || apiKey == "" || secret == "" {
			return FactoryResult{}, fmt.Errorf("processor config missing: PROCESSOR_BASE_URL, PROCESSOR_API_KEY, PROCESSOR_WEBHOOK_SECRET required")
		}
		p := NewHTTPProvider(HTTPConfig{
			Name:          envOr("PROCESSOR_NAME", "chargily"),
			BaseURL:       baseURL,
			APIKey:        apiKey,
			WebhookSecret: secret,
		})
		return FactoryResult{Driver: "http", Provider: p}, nil

	default:
		return FactoryResult{}, fmt.Errorf("unknown PROCESSOR_DRIVER: %s", driver)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
