package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_webhook_events_total",
		Help: "Processor webhook deliveries by outcome.",
	}, []string{"provider", "result"})

	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_status_transitions_total",
		Help: "Payment status transitions by target status.",
	}, []string{"to"})

	TransactionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_transactions_created_total",
		Help: "Ledger transactions created.",
	})
)
