package payments

import (
	"time"

	"gorm.io/datatypes"
)

// Payment statuses. Completed, failed and cancelled are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Payment types.
const (
	TypeFull    = "full"
	TypePartial = "partial"
)

// Payment methods (closed set).
const (
	MethodCIB      = "cib"
	MethodEdahabia = "edahabia"
	MethodFree     = "free_consultation"
)

// Transaction statuses (internal classification, set only through the
// processor status translation table at the webhook boundary).
const (
	TxnPending   = "pending"
	TxnSettled   = "settled"
	TxnFailed    = "failed"
	TxnCancelled = "cancelled"
)

type Payment struct {
	ID          string  `gorm:"type:char(36);primaryKey" json:"id"`
	ServiceID   string  `gorm:"type:char(36);not null;index:ix_payments_service_id" json:"service_id"`
	ClientID    string  `gorm:"type:char(36);not null;index:ix_payments_client_id" json:"client_id"`
	Provider    string  `gorm:"type:varchar(64);not null" json:"provider"`
	ProviderRef *string `gorm:"type:varchar(128)" json:"provider_ref,omitempty"`
	CheckoutURL *string `gorm:"type:varchar(512)" json:"checkout_url,omitempty"`

	Method string `gorm:"type:varchar(32);not null" json:"method"`
	Type   string `gorm:"type:varchar(16);not null" json:"type"`
	Status string `gorm:"type:varchar(32);not null;index:ix_payments_status" json:"status"`

	// AmountCents is the total owed, fixed at creation. Paid/remaining are
	// always derived from the transaction ledger, never stored.
	AmountCents int    `gorm:"not null" json:"amount_cents"`
	Currency    string `gorm:"type:char(3);not null" json:"currency"`

	ErrorMessage *string    `gorm:"type:varchar(255)" json:"error_message,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

func (p Payment) Terminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed || p.Status == StatusCancelled
}

// Transaction is one monetary movement against a payment. Rows are
// append-only: corrections are recorded as new rows, never edits. The
// processor ref carries a unique index as the backstop against a
// duplicate-insert race during webhook reconciliation.
type Transaction struct {
	ID        string `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentID string `gorm:"type:char(36);not null;index:ix_payment_transactions_payment_id" json:"payment_id"`

	AmountCents int    `gorm:"not null" json:"amount_cents"`
	Method      string `gorm:"type:varchar(32);not null" json:"method"`
	Status      string `gorm:"type:varchar(32);not null" json:"status"`

	ProviderRef    *string        `gorm:"type:varchar(128);uniqueIndex:ux_payment_transactions_provider_ref" json:"provider_ref,omitempty"`
	ProviderStatus *string        `gorm:"type:varchar(64)" json:"provider_status,omitempty"`
	PayloadJSON    datatypes.JSON `gorm:"type:json" json:"-"`

	TransactionDate time.Time `gorm:"not null;index:ix_payment_transactions_date" json:"transaction_date"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (Transaction) TableName() string { return "payment_transactions" }

// ProviderEvent is the audit record of every verified webhook delivery.
// unique(provider, event_id) dedupes replays of the same delivery.
type ProviderEvent struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Provider    string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_provider_events_provider_event,priority:1"`
	EventID     string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_provider_events_provider_event,priority:2"`
	EventType   string         `gorm:"type:varchar(64);not null"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt   time.Time `gorm:"not null"`
	ProcessedAt  *time.Time
	ProcessError *string `gorm:"type:varchar(255)"`
}

func (ProviderEvent) TableName() string { return "provider_events" }

func validMethod(m string) bool {
	switch m {
	case MethodCIB, MethodEdahabia, MethodFree:
		return true
	}
	return false
}

func validType(t string) bool {
	return t == TypeFull || t == TypePartial
}
