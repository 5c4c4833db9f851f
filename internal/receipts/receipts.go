package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
	"github.com/kadik23/law-firm-web-app-sub002/internal/shared/money"
	"github.com/kadik23/law-firm-web-app-sub002/internal/storage"
)

// Archiver writes a settlement receipt to the document archive when a
// payment completes. Implements payments.ReceiptArchiver.
type Archiver struct {
	store storage.Storage
}

func NewArchiver(store storage.Storage) *Archiver {
	return &Archiver{store: store}
}

type receiptLine struct {
	TransactionID string    `json:"transaction_id"`
	Date          time.Time `json:"date"`
	Method        string    `json:"method"`
	Amount        string    `json:"amount"`
	AmountCents   int       `json:"amount_cents"`
}

type receipt struct {
	PaymentID  string        `json:"payment_id"`
	ClientID   string        `json:"client_id"`
	ServiceID  string        `json:"service_id"`
	Type       string        `json:"type"`
	Total      string        `json:"total"`
	TotalCents int           `json:"total_cents"`
	Paid       string        `json:"paid"`
	PaidCents  int           `json:"paid_cents"`
	Settled    []receiptLine `json:"settled"`
	IssuedAt   time.Time     `json:"issued_at"`
}

func (a *Archiver) ArchiveSettlement(ctx context.Context, p payments.Payment, b payments.Balance, txns []payments.Transaction) (string, error) {
	r := receipt{
		PaymentID:  p.ID,
		ClientID:   p.ClientID,
		ServiceID:  p.ServiceID,
		Type:       p.Type,
		Total:      money.Format(p.Currency, int64(p.AmountCents)),
		TotalCents: p.AmountCents,
		Paid:       money.Format(p.Currency, int64(b.PaidCents)),
		PaidCents:  b.PaidCents,
		IssuedAt:   time.Now(),
	}
	for _, t := range txns {
		if t.Status != payments.TxnSettled {
			continue
		}
		r.Settled = append(r.Settled, receiptLine{
			TransactionID: t.ID,
			Date:          t.TransactionDate,
			Method:        t.Method,
			Amount:        money.Format(p.Currency, int64(t.AmountCents)),
			AmountCents:   t.AmountCents,
		})
	}

	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("receipts/%s/%s.json", r.IssuedAt.Format("2006/01"), p.ID)
	res, err := a.store.Put(ctx, bytes.NewReader(body), storage.PutInput{
		Key:         key,
		ContentType: "application/json",
		Size:        int64(len(body)),
	})
	if err != nil {
		return "", err
	}
	return res.Key, nil
}
