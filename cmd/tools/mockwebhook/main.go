package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/kadik23/law-firm-web-app-sub002/internal/processor"
)

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

func main() {
	url := flag.String("url", "http://localhost:8080/webhooks/mock", "Webhook URL")
	secret := flag.String("secret", os.Getenv("PROCESSOR_WEBHOOK_SECRET"), "Webhook secret")
	eventID := flag.String("event-id", "evt_"+randomHex(8), "Event ID")
	eventType := flag.String("type", "transaction.updated", "Event type")
	ref := flag.String("ref", "", "Processor transaction ref (required)")
	status := flag.String("status", "paid", "Processor status (paid, failed, canceled)")
	amount := flag.Int("amount", 0, "Amount in cents (0 = omit)")
	currency := flag.String("currency", "DZD", "Currency")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and PROCESSOR_WEBHOOK_SECRET not set\n")
		os.Exit(1)
	}
	if *ref == "" {
		fmt.Fprintf(os.Stderr, "Error: -ref is required\n")
		os.Exit(1)
	}

	payload := webhookPayload{ID: *eventID, Type: *eventType}
	payload.Data.TransactionRef = *ref
	payload.Data.Status = *status
	payload.Data.AmountCents = *amount
	payload.Data.Currency = *currency

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	sigHeader := processor.FormatSignatureHeader([]byte(*secret), time.Now().Unix(), body)

	fmt.Printf("%s: %s\n", processor.SignatureHeader, sigHeader)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest("POST", *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(processor.SignatureHeader, sigHeader)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
