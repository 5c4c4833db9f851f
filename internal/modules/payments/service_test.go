package payments_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadik23/law-firm-web-app-sub002/internal/identity"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
	"github.com/kadik23/law-firm-web-app-sub002/internal/shared/apperr"
)

func TestCreate_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svcID := f.seedService(t, 10000)

	cases := []struct {
		name string
		in   payments.CreateInput
	}{
		{"zero amount", payments.CreateInput{ServiceID: svcID, Method: payments.MethodCIB, Type: payments.TypeFull, AmountCents: 0}},
		{"negative amount", payments.CreateInput{ServiceID: svcID, Method: payments.MethodCIB, Type: payments.TypePartial, AmountCents: -5}},
		{"unknown method", payments.CreateInput{ServiceID: svcID, Method: "crypto", Type: payments.TypeFull, AmountCents: 10000}},
		{"unknown type", payments.CreateInput{ServiceID: svcID, Method: payments.MethodCIB, Type: "layaway", AmountCents: 10000}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.client, tc.in)
			assert.True(t, apperr.IsKind(err, apperr.Invalid), "got %v", err)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&payments.Payment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreate_UnknownServiceIs404(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.client, payments.CreateInput{
		ServiceID:   uuid.NewString(),
		Method:      payments.MethodCIB,
		Type:        payments.TypeFull,
		AmountCents: 10000,
	})
	assert.True(t, apperr.IsKind(err, apperr.NotFound), "got %v", err)
}

func TestCreate_FullAmountMustMatchCatalogPrice(t *testing.T) {
	f := newFixture(t)
	svcID := f.seedService(t, 10000)

	_, err := f.svc.Create(context.Background(), f.client, payments.CreateInput{
		ServiceID:   svcID,
		Method:      payments.MethodCIB,
		Type:        payments.TypeFull,
		AmountCents: 9999,
	})
	assert.True(t, apperr.IsKind(err, apperr.Invalid), "got %v", err)
}

func TestCreate_RequestsCheckoutForCardMethods(t *testing.T) {
	f := newFixture(t)
	svcID := f.seedService(t, 15000)

	view, err := f.svc.Create(context.Background(), f.client, payments.CreateInput{
		ServiceID:   svcID,
		Method:      payments.MethodEdahabia,
		Type:        payments.TypeFull,
		AmountCents: 15000,
	})
	require.NoError(t, err)

	assert.Equal(t, payments.StatusPending, view.Payment.Status)
	assert.Equal(t, 15000, view.Balance.RemainingCents)
	require.NotNil(t, view.Payment.CheckoutURL)
	require.NotNil(t, view.Payment.ProviderRef)
	assert.Len(t, f.proc.Checkouts, 1)
}

func TestCreate_FreeConsultationSkipsProcessor(t *testing.T) {
	f := newFixture(t)
	svcID := f.seedService(t, 5000)

	view, err := f.svc.Create(context.Background(), f.client, payments.CreateInput{
		ServiceID:   svcID,
		Method:      payments.MethodFree,
		Type:        payments.TypeFull,
		AmountCents: 5000,
	})
	require.NoError(t, err)

	assert.Nil(t, view.Payment.CheckoutURL)
	assert.Empty(t, f.proc.Checkouts)
}

func TestCreate_ProcessorOutageFailsPayment(t *testing.T) {
	f := newFixture(t)
	svcID := f.seedService(t, 15000)
	f.proc.CheckoutErr = assert.AnError

	_, err := f.svc.Create(context.Background(), f.client, payments.CreateInput{
		ServiceID:   svcID,
		Method:      payments.MethodCIB,
		Type:        payments.TypeFull,
		AmountCents: 15000,
	})
	assert.True(t, apperr.IsKind(err, apperr.Upstream), "got %v", err)

	var p payments.Payment
	require.NoError(t, f.db.First(&p).Error)
	assert.Equal(t, payments.StatusFailed, p.Status)
	require.NotNil(t, p.ErrorMessage)
}

func TestCreate_TimeColumnsSurviveReload(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypePartial, 10000, 4000)

	got := f.reload(t, p.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
	assert.Nil(t, got.CompletedAt)

	var txn payments.Transaction
	require.NoError(t, f.db.First(&txn, "id = ?", txns[0].ID).Error)
	assert.False(t, txn.TransactionDate.IsZero())
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), f.staff, uuid.NewString())
	assert.True(t, apperr.IsKind(err, apperr.NotFound), "got %v", err)
}

func TestGet_ClientsCannotReadOthersPayments(t *testing.T) {
	f := newFixture(t)
	p, _ := f.createPayment(t, payments.TypeFull, 10000)

	stranger := identity.Identity{UserID: f.seedClient(t), Role: identity.RoleClient}
	_, err := f.svc.Get(context.Background(), stranger, p.ID)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden), "got %v", err)

	// staff may read anything
	_, err = f.svc.Get(context.Background(), f.staff, p.ID)
	assert.NoError(t, err)
}

func TestListForClient_NewestFirstWithBalances(t *testing.T) {
	f := newFixture(t)
	first, _ := f.createPayment(t, payments.TypeFull, 10000)
	time.Sleep(5 * time.Millisecond) // created_at has millisecond precision
	second, _ := f.createPayment(t, payments.TypePartial, 20000)

	views, err := f.svc.ListForClient(context.Background(), f.client, f.clientID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, second.ID, views[0].Payment.ID)
	assert.Equal(t, first.ID, views[1].Payment.ID)
	assert.Equal(t, 20000, views[0].Balance.RemainingCents)
}

func TestListPartial_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	f.createPayment(t, payments.TypeFull, 10000)
	partial, _ := f.createPayment(t, payments.TypePartial, 20000)

	views, err := f.svc.ListPartial(context.Background(), f.client)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, partial.ID, views[0].Payment.ID)

	detail, err := f.svc.GetPartial(context.Background(), f.staff, partial.ID)
	require.NoError(t, err)
	assert.Equal(t, partial.ID, detail.Payment.ID)
}

func TestGetPartial_FullPaymentReadsAsNotFound(t *testing.T) {
	f := newFixture(t)
	p, _ := f.createPayment(t, payments.TypeFull, 10000)

	_, err := f.svc.GetPartial(context.Background(), f.staff, p.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound), "got %v", err)
}

func TestCancel_AllowedFromPendingAndProcessing(t *testing.T) {
	f := newFixture(t)

	pending, _ := f.createPayment(t, payments.TypeFull, 10000)
	view, err := f.svc.Cancel(context.Background(), f.client, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusCancelled, view.Payment.Status)

	processing, _ := f.createPayment(t, payments.TypePartial, 10000, 4000)
	require.Equal(t, payments.StatusProcessing, f.reload(t, processing.ID).Status)
	_, err = f.svc.Cancel(context.Background(), f.staff, processing.ID)
	require.NoError(t, err)
}

func TestCancel_TerminalStatesAreRejected(t *testing.T) {
	f := newFixture(t)
	p, txns := f.createPayment(t, payments.TypeFull, 15000, 15000)
	f.deliver(t, "evt_settle", *txns[0].ProviderRef, "paid", 15000)
	require.Equal(t, payments.StatusCompleted, f.reload(t, p.ID).Status)

	_, err := f.svc.Cancel(context.Background(), f.staff, p.ID)
	assert.True(t, apperr.IsKind(err, apperr.InvalidState), "got %v", err)

	again := f.reload(t, p.ID)
	assert.Equal(t, payments.StatusCompleted, again.Status)
}
