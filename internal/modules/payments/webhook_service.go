package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kadik23/law-firm-web-app-sub002/internal/metrics"
)

// ReceiptArchiver stores a settlement receipt once a payment completes.
// Archival failures are logged, never propagated.
type ReceiptArchiver interface {
	ArchiveSettlement(ctx context.Context, p Payment, b Balance, txns []Transaction) (string, error)
}

// WebhookService reconciles processor notifications against the ledger.
// Reconciliation is keyed on the processor transaction ref: a replayed
// webhook updates the existing row in place and leaves the balance
// untouched after its first application.
type WebhookService struct {
	db       *gorm.DB
	logger   *slog.Logger
	notifier *Notifier
	archiver ReceiptArchiver
}

func NewWebhookService(db *gorm.DB) *WebhookService {
	return &WebhookService{db: db, logger: slog.Default()}
}

func (s *WebhookService) SetLogger(logger *slog.Logger) { s.logger = logger }
func (s *WebhookService) SetNotifier(n *Notifier)       { s.notifier = n }
func (s *WebhookService) SetArchiver(a ReceiptArchiver) { s.archiver = a }

// Handle applies one verified webhook delivery inside a single DB
// transaction. The caller has already checked the signature. Unknown
// refs and replays are answered 200 so the processor does not storm
// us with retries; an apply failure keeps its event row (with the
// error recorded) and is answered 500 so the delivery comes back.
func (s *WebhookService) Handle(ctx context.Context, providerName string, ev WebhookEvent, rawBody []byte) error {
	var (
		changed   Payment
		hasChange bool
		completed bool
		failed    error
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		pe := ProviderEvent{
			ID:          uuid.NewString(),
			Provider:    providerName,
			EventID:     ev.EventID,
			EventType:   ev.Type,
			PayloadJSON: datatypes.JSON(rawBody),
			ReceivedAt:  now,
		}

		// dedupe: unique(provider, event_id)
		if err := tx.WithContext(ctx).Create(&pe).Error; err != nil {
			if !isDup(err) {
				return err
			}
			var prior ProviderEvent
			if err := tx.WithContext(ctx).
				First(&prior, "provider = ? AND event_id = ?", providerName, ev.EventID).Error; err != nil {
				return err
			}
			if prior.ProcessedAt != nil || prior.ProcessError == nil {
				s.logger.InfoContext(ctx, "webhook event deduplicated",
					"provider", providerName, "event_id", ev.EventID, "type", ev.Type)
				metrics.WebhookEvents.WithLabelValues(providerName, "duplicate").Inc()
				return nil
			}
			// the earlier delivery failed mid-apply; run it again
			pe = prior
		}

		// The apply runs in a savepoint: on failure its ledger writes are
		// rolled back while the event row and its process_error commit.
		var outcome applyOutcome
		applyErr := tx.Transaction(func(inner *gorm.DB) error {
			var err error
			outcome, err = s.apply(ctx, inner, ev, rawBody, now)
			return err
		})
		if applyErr != nil {
			msg := truncate(applyErr.Error(), 250)
			if err := tx.WithContext(ctx).Model(&ProviderEvent{}).
				Where("id = ?", pe.ID).
				Updates(map[string]any{"process_error": msg}).Error; err != nil {
				return err
			}
			if errors.Is(applyErr, ErrUnknownProvider) {
				// Record and acknowledge: a retry would not help, the
				// ref was never issued by our ledger.
				s.logger.WarnContext(ctx, "webhook for unknown transaction ref",
					"provider", providerName, "event_id", ev.EventID, "ref", ev.TransactionRef)
				metrics.WebhookEvents.WithLabelValues(providerName, "unknown_ref").Inc()
				return nil
			}
			s.logger.ErrorContext(ctx, "webhook event apply failed",
				"provider", providerName, "event_id", ev.EventID, "type", ev.Type, "error", msg)
			metrics.WebhookEvents.WithLabelValues(providerName, "error").Inc()
			failed = applyErr
			return nil
		}

		changed, hasChange, completed = outcome.payment, outcome.statusChanged, outcome.completed

		processed := now
		if err := tx.WithContext(ctx).Model(&ProviderEvent{}).
			Where("id = ?", pe.ID).
			Updates(map[string]any{"processed_at": &processed, "process_error": nil}).Error; err != nil {
			return err
		}
		metrics.WebhookEvents.WithLabelValues(providerName, "ok").Inc()
		return nil
	})
	if err != nil {
		return err
	}
	// surfaced after the audit row committed; the caller answers 500 so
	// the processor redelivers
	if failed != nil {
		return failed
	}

	// Side effects after commit, never before.
	if hasChange {
		metrics.PaymentTransitions.WithLabelValues(changed.Status).Inc()
		b, berr := balanceFor(ctx, s.db, changed)
		if berr == nil {
			s.notifier.StatusChanged(changed, b)
		}
	}
	if completed {
		s.archiveReceipt(changed)
	}
	return nil
}

type applyOutcome struct {
	payment       Payment
	statusChanged bool
	completed     bool
}

func (s *WebhookService) apply(ctx context.Context, tx *gorm.DB, ev WebhookEvent, rawBody []byte, now time.Time) (applyOutcome, error) {
	if ev.TransactionRef == "" {
		return applyOutcome{}, errors.New("missing transaction ref")
	}

	var t Transaction
	if err := forUpdate(tx).WithContext(ctx).
		First(&t, "provider_ref = ?", ev.TransactionRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return applyOutcome{}, ErrUnknownProvider
		}
		return applyOutcome{}, err
	}

	var p Payment
	if err := forUpdate(tx).WithContext(ctx).First(&p, "id = ?", t.PaymentID).Error; err != nil {
		return applyOutcome{}, err
	}

	class, known := classifyProcessorStatus(ev.Status)
	if !known {
		s.logger.WarnContext(ctx, "unrecognized processor status, classifying as failed",
			"ref", ev.TransactionRef, "status", ev.Status)
	}
	if ev.AmountCents > 0 && ev.AmountCents != t.AmountCents {
		s.logger.WarnContext(ctx, "webhook amount differs from ledger amount",
			"ref", ev.TransactionRef, "webhook_cents", ev.AmountCents, "ledger_cents", t.AmountCents)
	}

	// The raw processor fields are refreshed on every delivery, even
	// replays; the ledger state below moves at most once.
	updates := map[string]any{
		"provider_status": ev.Status,
		"payload_json":    datatypes.JSON(rawBody),
		"updated_at":      now,
	}

	if t.Status == TxnSettled {
		// Settlement is final; a later contradicting status is a
		// processor-side conflict, kept out of the ledger.
		if class != TxnSettled {
			s.logger.WarnContext(ctx, "processor contradicts settled transaction",
				"ref", ev.TransactionRef, "status", ev.Status)
		}
		if err := tx.WithContext(ctx).Model(&Transaction{}).
			Where("id = ?", t.ID).Updates(updates).Error; err != nil {
			return applyOutcome{}, err
		}
		return applyOutcome{payment: p}, nil
	}

	updates["status"] = class
	if err := tx.WithContext(ctx).Model(&Transaction{}).
		Where("id = ?", t.ID).Updates(updates).Error; err != nil {
		return applyOutcome{}, err
	}
	t.Status = class

	switch class {
	case TxnSettled:
		return s.applySettled(ctx, tx, p, now)
	default:
		return s.applyUnsettled(ctx, tx, p, class, now)
	}
}

func (s *WebhookService) applySettled(ctx context.Context, tx *gorm.DB, p Payment, now time.Time) (applyOutcome, error) {
	if p.Status == StatusCancelled {
		// Staff cancelled this payment before the settlement arrived.
		// The transaction stays settled for audit, the payment is not
		// resurrected; reconciliation is a manual step from here.
		s.logger.WarnContext(ctx, "settlement arrived on a cancelled payment, manual reconciliation required",
			"payment_id", p.ID)
		return applyOutcome{payment: p}, nil
	}
	if p.Status == StatusCompleted || p.Status == StatusFailed {
		if p.Status == StatusFailed {
			s.logger.WarnContext(ctx, "settlement arrived on a failed payment",
				"payment_id", p.ID)
		}
		return applyOutcome{payment: p}, nil
	}

	txns, err := loadTransactions(ctx, tx, p.ID)
	if err != nil {
		return applyOutcome{}, err
	}
	b := ComputeBalance(p.AmountCents, txns)

	if b.RemainingCents == 0 {
		if err := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{"status": StatusCompleted, "completed_at": now, "updated_at": now}).Error; err != nil {
			return applyOutcome{}, err
		}
		p.Status = StatusCompleted
		p.CompletedAt = &now
		return applyOutcome{payment: p, statusChanged: true, completed: true}, nil
	}

	if p.Status == StatusPending {
		if err := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{"status": StatusProcessing, "updated_at": now}).Error; err != nil {
			return applyOutcome{}, err
		}
		p.Status = StatusProcessing
		return applyOutcome{payment: p, statusChanged: true}, nil
	}
	return applyOutcome{payment: p}, nil
}

func (s *WebhookService) applyUnsettled(ctx context.Context, tx *gorm.DB, p Payment, class string, now time.Time) (applyOutcome, error) {
	if p.Terminal() {
		return applyOutcome{payment: p}, nil
	}

	// A failed or cancelled settlement only takes the payment down with
	// it when nothing has settled yet; partial plans keep their paid
	// installments and stay open.
	var settled int64
	if err := tx.WithContext(ctx).Model(&Transaction{}).
		Where("payment_id = ? AND status = ?", p.ID, TxnSettled).
		Count(&settled).Error; err != nil {
		return applyOutcome{}, err
	}
	if settled > 0 {
		return applyOutcome{payment: p}, nil
	}

	to := StatusFailed
	if class == TxnCancelled {
		to = StatusCancelled
	}
	if err := tx.WithContext(ctx).Model(&Payment{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{"status": to, "updated_at": now}).Error; err != nil {
		return applyOutcome{}, err
	}
	p.Status = to
	return applyOutcome{payment: p, statusChanged: true}, nil
}

func (s *WebhookService) archiveReceipt(p Payment) {
	if s.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		txns, err := loadTransactions(ctx, s.db, p.ID)
		if err != nil {
			s.logger.Warn("receipt archive skipped, ledger read failed", "payment_id", p.ID, "err", err)
			return
		}
		key, err := s.archiver.ArchiveSettlement(ctx, p, ComputeBalance(p.AmountCents, txns), txns)
		if err != nil {
			s.logger.Warn("receipt archive failed", "payment_id", p.ID, "err", err)
			return
		}
		s.logger.Info("settlement receipt archived", "payment_id", p.ID, "key", key)
	}()
}

func isDup(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
