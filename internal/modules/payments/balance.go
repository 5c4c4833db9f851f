package payments

import (
	"context"

	"gorm.io/gorm"
)

// Balance is derived from the transaction ledger on every read. There is
// no stored running total anywhere in the schema, so it cannot drift.
type Balance struct {
	TotalCents     int `json:"total_cents"`
	PaidCents      int `json:"paid_cents"`
	RemainingCents int `json:"remaining_cents"`
	SettledCount   int `json:"settled_count"`
}

// ComputeBalance sums the settled transactions of a payment. Pure; the
// caller decides which snapshot of the ledger it operates on.
func ComputeBalance(totalCents int, txns []Transaction) Balance {
	b := Balance{TotalCents: totalCents, RemainingCents: totalCents}
	for _, t := range txns {
		if t.Status != TxnSettled {
			continue
		}
		b.PaidCents += t.AmountCents
		b.SettledCount++
	}
	b.RemainingCents = totalCents - b.PaidCents
	if b.RemainingCents < 0 {
		// should be unreachable: admission happens under the payment row lock
		b.RemainingCents = 0
	}
	return b
}

// openCents sums settled plus in-flight pending amounts. Admission of a
// new transaction checks against this, not the settled-only balance, so
// two concurrent callers cannot both reserve the same remainder.
func openCents(txns []Transaction) int {
	sum := 0
	for _, t := range txns {
		if t.Status == TxnSettled || t.Status == TxnPending {
			sum += t.AmountCents
		}
	}
	return sum
}

func loadTransactions(ctx context.Context, tx *gorm.DB, paymentID string) ([]Transaction, error) {
	var txns []Transaction
	if err := tx.WithContext(ctx).
		Order("transaction_date ASC, created_at ASC").
		Find(&txns, "payment_id = ?", paymentID).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func balanceFor(ctx context.Context, tx *gorm.DB, p Payment) (Balance, error) {
	txns, err := loadTransactions(ctx, tx, p.ID)
	if err != nil {
		return Balance{}, err
	}
	return ComputeBalance(p.AmountCents, txns), nil
}
