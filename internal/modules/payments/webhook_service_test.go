package payments_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
)

func TestWebhook_FullPaymentCompletesOnSingleSettlement(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypeFull, 15000, 15000)

	f.deliver(t, "evt_1", *txns[0].ProviderRef, "paid", 15000)

	got := f.reload(t, p.ID)
	assert.Equal(t, payments.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, 0, f.balance(t, p.ID).RemainingCents)
}

func TestWebhook_PartialPaymentAccumulates(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypePartial, 10000, 4000)

	f.deliver(t, "evt_1", *txns[0].ProviderRef, "paid", 4000)
	assert.Equal(t, payments.StatusProcessing, f.reload(t, p.ID).Status)
	assert.Equal(t, 6000, f.balance(t, p.ID).RemainingCents)

	txn2, err := f.ledger.AddTransaction(context.Background(), f.client, payments.AddTransactionInput{
		PaymentID:   p.ID,
		AmountCents: 6000,
		Method:      payments.MethodCIB,
	})
	require.NoError(t, err)
	f.deliver(t, "evt_2", *txn2.ProviderRef, "paid", 6000)

	assert.Equal(t, payments.StatusCompleted, f.reload(t, p.ID).Status)
	assert.Equal(t, 0, f.balance(t, p.ID).RemainingCents)
}

func TestWebhook_ReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypePartial, 10000, 4000)
	ref := *txns[0].ProviderRef

	// same event id replayed, plus redeliveries under fresh event ids
	f.deliver(t, "evt_1", ref, "paid", 4000)
	f.deliver(t, "evt_1", ref, "paid", 4000)
	f.deliver(t, "evt_2", ref, "paid", 4000)
	f.deliver(t, "evt_3", ref, "paid", 4000)

	var count int64
	require.NoError(t, f.db.Model(&payments.Transaction{}).Where("payment_id = ?", p.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "replays must not create transaction rows")

	b := f.balance(t, p.ID)
	assert.Equal(t, 4000, b.PaidCents)
	assert.Equal(t, 6000, b.RemainingCents)
	assert.Equal(t, payments.StatusProcessing, f.reload(t, p.ID).Status)
}

func TestWebhook_FailureBeforeAnySettlementFailsPayment(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypeFull, 15000, 15000)

	f.deliver(t, "evt_1", *txns[0].ProviderRef, "failed", 0)

	assert.Equal(t, payments.StatusFailed, f.reload(t, p.ID).Status)
}

func TestWebhook_FailureAfterSettlementKeepsPlanOpen(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypePartial, 10000, 4000, 3000)

	f.deliver(t, "evt_1", *txns[0].ProviderRef, "paid", 4000)
	f.deliver(t, "evt_2", *txns[1].ProviderRef, "failed", 0)

	got := f.reload(t, p.ID)
	assert.Equal(t, payments.StatusProcessing, got.Status, "a paid installment keeps the plan open")
	assert.Equal(t, 6000, f.balance(t, p.ID).RemainingCents)
}

func TestWebhook_ProcessorCancellation(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypeFull, 15000, 15000)

	f.deliver(t, "evt_1", *txns[0].ProviderRef, "canceled", 0)

	assert.Equal(t, payments.StatusCancelled, f.reload(t, p.ID).Status)
}

func TestWebhook_UnrecognizedStatusClassifiesAsFailed(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypeFull, 15000, 15000)

	f.deliver(t, "evt_1", *txns[0].ProviderRef, "definitely_paid_trust_me", 15000)

	var txn payments.Transaction
	require.NoError(t, f.db.First(&txn, "id = ?", txns[0].ID).Error)
	assert.Equal(t, payments.TxnFailed, txn.Status)
	assert.Equal(t, payments.StatusFailed, f.reload(t, p.ID).Status)
	assert.Equal(t, 15000, f.balance(t, p.ID).RemainingCents)
}

func TestWebhook_SettlementDoesNotResurrectCancelledPayment(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypePartial, 10000, 10000)

	_, err := f.svc.Cancel(context.Background(), f.staff, p.ID)
	require.NoError(t, err)

	f.deliver(t, "evt_late", *txns[0].ProviderRef, "paid", 10000)

	got := f.reload(t, p.ID)
	assert.Equal(t, payments.StatusCancelled, got.Status)

	// the settlement stays on record for manual reconciliation
	var txn payments.Transaction
	require.NoError(t, f.db.First(&txn, "id = ?", txns[0].ID).Error)
	assert.Equal(t, payments.TxnSettled, txn.Status)
}

func TestWebhook_UnknownRefIsRecordedAndAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.createPayment(t, payments.TypeFull, 15000, 15000)

	f.deliver(t, "evt_ghost", "ptx_never_issued", "paid", 15000)

	var pe payments.ProviderEvent
	require.NoError(t, f.db.First(&pe, "event_id = ?", "evt_ghost").Error)
	require.NotNil(t, pe.ProcessError)
	assert.Nil(t, pe.ProcessedAt)
}

func TestWebhook_ConflictingStatusAfterSettlementIsIgnored(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypeFull, 15000, 15000)
	ref := *txns[0].ProviderRef

	f.deliver(t, "evt_1", ref, "paid", 15000)
	f.deliver(t, "evt_2", ref, "failed", 0)

	var txn payments.Transaction
	require.NoError(t, f.db.First(&txn, "id = ?", txns[0].ID).Error)
	assert.Equal(t, payments.TxnSettled, txn.Status, "settlement is final")
	assert.Equal(t, payments.StatusCompleted, f.reload(t, p.ID).Status)
}

func TestWebhook_NotifiesClientOnStatusChange(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypeFull, 15000, 15000)

	f.deliver(t, "evt_1", *txns[0].ProviderRef, "paid", 15000)

	require.Eventually(t, func() bool {
		n, ok := f.notif.Last()
		return ok && n.PaymentID == p.ID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebhook_ApplyFailurePersistsEventRecord(t *testing.T) {
	f := newFixture(t)
	p, _ := f.createPayment(t, payments.TypeFull, 15000, 15000)

	ev := payments.WebhookEvent{
		EventID:     "evt_noref",
		Type:        "transaction.updated",
		Status:      "paid",
		AmountCents: 15000,
		Currency:    "DZD",
	}
	err := f.hooks.Handle(context.Background(), "mock", ev, []byte(`{"id":"evt_noref"}`))
	require.Error(t, err)

	// the event record survives the failed apply
	var pe payments.ProviderEvent
	require.NoError(t, f.db.First(&pe, "event_id = ?", "evt_noref").Error)
	require.NotNil(t, pe.ProcessError)
	assert.Nil(t, pe.ProcessedAt)
	assert.Equal(t, payments.StatusProcessing, f.reload(t, p.ID).Status)
}

func TestWebhook_FailedEventRedeliveryRetriesApply(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypeFull, 15000, 15000)

	ev := payments.WebhookEvent{
		EventID:     "evt_retry",
		Type:        "transaction.updated",
		Status:      "paid",
		AmountCents: 15000,
		Currency:    "DZD",
	}
	require.Error(t, f.hooks.Handle(context.Background(), "mock", ev, []byte(`{"id":"evt_retry"}`)))

	// the processor redelivers under the same event id, this time intact
	ev.TransactionRef = *txns[0].ProviderRef
	require.NoError(t, f.hooks.Handle(context.Background(), "mock", ev, []byte(`{"id":"evt_retry"}`)))

	var pe payments.ProviderEvent
	require.NoError(t, f.db.First(&pe, "event_id = ?", "evt_retry").Error)
	require.NotNil(t, pe.ProcessedAt)
	assert.Nil(t, pe.ProcessError)
	assert.Equal(t, payments.StatusCompleted, f.reload(t, p.ID).Status)
}

func TestWebhook_EventAuditTrail(t *testing.T) {
	f := newFixture(t)
	_, txns := f.createPayment(t, payments.TypePartial, 10000, 4000)

	f.deliver(t, "evt_audit", *txns[0].ProviderRef, "paid", 4000)

	var pe payments.ProviderEvent
	require.NoError(t, f.db.First(&pe, "event_id = ?", "evt_audit").Error)
	assert.Equal(t, "mock", pe.Provider)
	require.NotNil(t, pe.ProcessedAt)
	assert.Nil(t, pe.ProcessError)
	assert.NotEmpty(t, pe.PayloadJSON)
}
