package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/notifications"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/services"
)

// Notifier pushes payment status changes to the notification dispatcher.
// Delivery is fire-and-forget: a failed dispatch is logged and dropped,
// it never rolls back or delays a ledger update.
type Notifier struct {
	dispatcher notifications.Dispatcher
	catalog    *services.Repo
	logger     *slog.Logger
}

func NewNotifier(d notifications.Dispatcher, catalog *services.Repo, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{dispatcher: d, catalog: catalog, logger: logger}
}

func (n *Notifier) StatusChanged(p Payment, b Balance) {
	if n == nil || n.dispatcher == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		serviceName := "your legal service"
		if svc, err := n.catalog.Get(ctx, p.ServiceID); err == nil {
			serviceName = svc.Name
		}

		msg := notifications.PaymentStatusChanged(
			p.ClientID, p.ID, serviceName, p.Status, p.Currency, int64(b.RemainingCents))
		if err := n.dispatcher.Dispatch(ctx, msg); err != nil {
			n.logger.Warn("notification dispatch failed",
				"payment_id", p.ID, "client_id", p.ClientID, "status", p.Status, "err", err)
		}
	}()
}
