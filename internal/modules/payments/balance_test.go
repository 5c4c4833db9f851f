package payments_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
)

func TestComputeBalance_EmptyLedger(t *testing.T) {
	b := payments.ComputeBalance(10000, nil)
	assert.Equal(t, 10000, b.TotalCents)
	assert.Equal(t, 0, b.PaidCents)
	assert.Equal(t, 10000, b.RemainingCents)
	assert.Equal(t, 0, b.SettledCount)
}

func TestComputeBalance_CountsOnlySettled(t *testing.T) {
	txns := []payments.Transaction{
		{AmountCents: 4000, Status: payments.TxnSettled},
		{AmountCents: 3000, Status: payments.TxnPending},
		{AmountCents: 2000, Status: payments.TxnFailed},
		{AmountCents: 1000, Status: payments.TxnCancelled},
	}

	b := payments.ComputeBalance(10000, txns)
	assert.Equal(t, 4000, b.PaidCents)
	assert.Equal(t, 6000, b.RemainingCents)
	assert.Equal(t, 1, b.SettledCount)
}

func TestComputeBalance_PaidEqualsSumOfSettled(t *testing.T) {
	amounts := []int{1500, 2500, 100, 900, 5000}
	var txns []payments.Transaction
	sum := 0
	for _, a := range amounts {
		txns = append(txns, payments.Transaction{AmountCents: a, Status: payments.TxnSettled})
		sum += a
	}

	b := payments.ComputeBalance(sum, txns)
	assert.Equal(t, sum, b.PaidCents)
	assert.Equal(t, 0, b.RemainingCents)
	assert.Equal(t, len(amounts), b.SettledCount)
}

func TestComputeBalance_RemainingNeverNegative(t *testing.T) {
	txns := []payments.Transaction{
		{AmountCents: 8000, Status: payments.TxnSettled},
		{AmountCents: 8000, Status: payments.TxnSettled},
	}

	b := payments.ComputeBalance(10000, txns)
	assert.Equal(t, 0, b.RemainingCents)
}
