package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kadik23/law-firm-web-app-sub002/internal/identity"
	"github.com/kadik23/law-firm-web-app-sub002/internal/metrics"
	"github.com/kadik23/law-firm-web-app-sub002/internal/shared/apperr"
)

// Ledger is the append-only record of settlements against a payment.
// Admission of a new transaction happens under the payment row lock so
// two concurrent writers cannot both reserve the same remainder.
type Ledger struct {
	db       *gorm.DB
	provider Provider
	notifier *Notifier
}

func NewLedger(db *gorm.DB, p Provider, n *Notifier) *Ledger {
	return &Ledger{db: db, provider: p, notifier: n}
}

type AddTransactionInput struct {
	PaymentID   string
	AmountCents int
	Method      string
}

func (l *Ledger) AddTransaction(ctx context.Context, actor identity.Identity, in AddTransactionInput) (Transaction, error) {
	if !validMethod(in.Method) {
		return Transaction{}, apperr.InvalidErr("Invalid transaction request.", map[string]string{
			"payment_method": "Unknown payment method.",
		})
	}
	if in.AmountCents <= 0 {
		return Transaction{}, apperr.InvalidErr("Invalid transaction request.", map[string]string{
			"transaction_amount": "Amount must be positive.",
		})
	}

	var (
		p           Payment
		t           Transaction
		transitions []string
	)

	// Phase-1: lock payment, admit against the open balance, append row
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).WithContext(ctx).First(&p, "id = ?", in.PaymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundErr("Payment not found.")
			}
			return err
		}
		if !actor.CanAccessClient(p.ClientID) {
			return apperr.ForbiddenErr("You may not pay on this payment.")
		}
		if p.Terminal() {
			return apperr.InvalidStateErr("Payment no longer accepts transactions.")
		}

		// The free method settles without a processor transfer, so it is
		// only valid against a payment created as a free consultation.
		// Mixing in either direction is rejected.
		if in.Method == MethodFree && p.Method != MethodFree {
			return apperr.InvalidErr("Invalid transaction request.", map[string]string{
				"payment_method": "This payment requires a processor settlement.",
			})
		}
		if in.Method != MethodFree && p.Method == MethodFree {
			return apperr.InvalidErr("Invalid transaction request.", map[string]string{
				"payment_method": "Free consultations do not accept card settlements.",
			})
		}

		txns, err := loadTransactions(ctx, tx, p.ID)
		if err != nil {
			return err
		}

		// Open balance counts settled plus in-flight pending amounts;
		// a pending transaction reserves its slice of the remainder.
		remaining := p.AmountCents - openCents(txns)
		if in.AmountCents > remaining {
			return apperr.OverpaymentErr("Amount exceeds the remaining balance.")
		}
		if p.Type == TypeFull && in.AmountCents != remaining {
			return apperr.InvalidErr("Invalid transaction request.", map[string]string{
				"transaction_amount": "Full payments settle in a single transaction.",
			})
		}

		now := time.Now()
		t = Transaction{
			ID:              uuid.NewString(),
			PaymentID:       p.ID,
			AmountCents:     in.AmountCents,
			Method:          in.Method,
			Status:          TxnPending,
			TransactionDate: now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.WithContext(ctx).Create(&t).Error; err != nil {
			return err
		}

		if p.Status == StatusPending {
			if err := tx.WithContext(ctx).Model(&Payment{}).
				Where("id = ? AND status = ?", p.ID, StatusPending).
				Updates(map[string]any{"status": StatusProcessing, "updated_at": now}).Error; err != nil {
				return err
			}
			p.Status = StatusProcessing
			transitions = append(transitions, StatusProcessing)
		}

		// Free consultations settle locally, no processor round-trip.
		if in.Method == MethodFree {
			if err := l.settleLocally(ctx, tx, &p, &t, now); err != nil {
				return err
			}
			if p.Status == StatusCompleted {
				transitions = append(transitions, StatusCompleted)
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return Transaction{}, err
		}
		return Transaction{}, apperr.Wrap(err)
	}

	metrics.TransactionsCreated.Inc()
	for _, to := range transitions {
		metrics.PaymentTransitions.WithLabelValues(to).Inc()
	}

	if in.Method == MethodFree {
		b, berr := balanceFor(ctx, l.db, p)
		if berr == nil {
			l.notifier.StatusChanged(p, b)
		}
		return t, nil
	}

	// Phase-2: hand the settlement to the processor (outside the tx)
	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, perr := l.provider.InitiateSettlement(sctx, SettlementRequest{
		PaymentID:     p.ID,
		TransactionID: t.ID,
		AmountCents:   t.AmountCents,
		Currency:      p.Currency,
		Method:        t.Method,
	})

	// Phase-3: attach the processor ref, or fail the row
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"updated_at": time.Now()}
		if perr != nil {
			updates["status"] = TxnFailed
			s := truncate(perr.Error(), 60)
			updates["provider_status"] = s
		} else {
			updates["provider_ref"] = resp.TransactionRef
			updates["provider_status"] = resp.Status
		}
		return tx.WithContext(ctx).Model(&Transaction{}).
			Where("id = ?", t.ID).
			Updates(updates).Error
	})
	if err != nil {
		return Transaction{}, apperr.Wrap(err)
	}

	if perr != nil {
		t.Status = TxnFailed
		return t, apperr.UpstreamErr("Payment processor is unavailable.", perr)
	}

	t.ProviderRef = &resp.TransactionRef
	t.ProviderStatus = &resp.Status
	if len(transitions) > 0 {
		b, berr := balanceFor(ctx, l.db, p)
		if berr == nil {
			l.notifier.StatusChanged(p, b)
		}
	}
	return t, nil
}

// settleLocally marks a free-consultation transaction settled inside the
// admission tx and completes the payment when nothing remains.
func (l *Ledger) settleLocally(ctx context.Context, tx *gorm.DB, p *Payment, t *Transaction, now time.Time) error {
	if err := tx.WithContext(ctx).Model(&Transaction{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{"status": TxnSettled, "updated_at": now}).Error; err != nil {
		return err
	}
	t.Status = TxnSettled

	txns, err := loadTransactions(ctx, tx, p.ID)
	if err != nil {
		return err
	}
	b := ComputeBalance(p.AmountCents, txns)
	if b.RemainingCents > 0 {
		return nil
	}

	if err := tx.WithContext(ctx).Model(&Payment{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{"status": StatusCompleted, "completed_at": now, "updated_at": now}).Error; err != nil {
		return err
	}
	p.Status = StatusCompleted
	p.CompletedAt = &now
	return nil
}

func (l *Ledger) ListTransactions(ctx context.Context, actor identity.Identity, paymentID string) ([]Transaction, error) {
	var p Payment
	err := l.db.WithContext(ctx).First(&p, "id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundErr("Payment not found.")
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	if !actor.CanAccessClient(p.ClientID) {
		return nil, apperr.ForbiddenErr("You may not view these transactions.")
	}

	txns, err := loadTransactions(ctx, l.db, paymentID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return txns, nil
}
