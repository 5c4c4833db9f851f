package payments_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kadik23/law-firm-web-app-sub002/internal/identity"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/clients"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/notifications"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/services"
	"github.com/kadik23/law-firm-web-app-sub002/internal/processor"
)

type fixture struct {
	db      *gorm.DB
	proc    *processor.Mock
	notif   *notifications.Mock
	catalog *services.Repo
	svc     *payments.Service
	ledger  *payments.Ledger
	hooks   *payments.WebhookService

	clientID string
	client   identity.Identity
	staff    identity.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&services.Service{},
		&clients.Client{},
		&payments.Payment{},
		&payments.Transaction{},
		&payments.ProviderEvent{},
	))

	f := &fixture{
		db:      db,
		proc:    processor.NewMock("test-secret"),
		notif:   notifications.NewMock(),
		catalog: services.NewRepo(db),
	}

	logger := slog.Default()
	notifier := payments.NewNotifier(f.notif, f.catalog, logger)
	f.svc = payments.NewService(db, f.proc, f.catalog, clients.NewRepo(db), notifier, "http://localhost:8080")
	f.ledger = payments.NewLedger(db, f.proc, notifier)
	f.hooks = payments.NewWebhookService(db)
	f.hooks.SetLogger(logger)
	f.hooks.SetNotifier(notifier)

	f.clientID = f.seedClient(t)
	f.client = identity.Identity{UserID: f.clientID, Role: identity.RoleClient}
	f.staff = identity.Identity{UserID: uuid.NewString(), Role: identity.RoleAdmin}
	return f
}

func (f *fixture) seedClient(t *testing.T) string {
	t.Helper()
	now := time.Now()
	c := clients.Client{
		ID:        uuid.NewString(),
		FirstName: "Amina",
		LastName:  "Benali",
		Email:     uuid.NewString() + "@example.test",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.db.Create(&c).Error)
	return c.ID
}

func (f *fixture) seedService(t *testing.T, priceCents int) string {
	t.Helper()
	now := time.Now()
	s := services.Service{
		ID:         uuid.NewString(),
		Name:       "Contract drafting",
		PriceCents: priceCents,
		Currency:   "DZD",
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.db.Create(&s).Error)
	return s.ID
}

// createPayment rolls the usual fixture: a payment plus, when amounts
// are given, pending ledger transactions with processor refs.
func (f *fixture) createPayment(t *testing.T, ptype string, totalCents int, txnCents ...int) (payments.Payment, []payments.Transaction) {
	t.Helper()
	ctx := context.Background()

	svcID := f.seedService(t, totalCents)
	view, err := f.svc.Create(ctx, f.client, payments.CreateInput{
		ServiceID:   svcID,
		Method:      payments.MethodCIB,
		Type:        ptype,
		AmountCents: totalCents,
	})
	require.NoError(t, err)

	var txns []payments.Transaction
	for _, cents := range txnCents {
		txn, err := f.ledger.AddTransaction(ctx, f.client, payments.AddTransactionInput{
			PaymentID:   view.Payment.ID,
			AmountCents: cents,
			Method:      payments.MethodCIB,
		})
		require.NoError(t, err)
		require.NotNil(t, txn.ProviderRef)
		txns = append(txns, txn)
	}
	return view.Payment, txns
}

func (f *fixture) reload(t *testing.T, id string) payments.Payment {
	t.Helper()
	var p payments.Payment
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p
}

func (f *fixture) deliver(t *testing.T, eventID, ref, status string, amountCents int) {
	t.Helper()
	ev := payments.WebhookEvent{
		EventID:        eventID,
		Type:           "transaction.updated",
		TransactionRef: ref,
		Status:         status,
		AmountCents:    amountCents,
		Currency:       "DZD",
	}
	body := []byte(`{"id":"` + eventID + `","type":"transaction.updated","data":{"transaction_ref":"` + ref + `","status":"` + status + `"}}`)
	require.NoError(t, f.hooks.Handle(context.Background(), "mock", ev, body))
}

func (f *fixture) balance(t *testing.T, id string) payments.Balance {
	t.Helper()
	view, err := f.svc.Get(context.Background(), f.staff, id)
	require.NoError(t, err)
	return view.Balance
}
