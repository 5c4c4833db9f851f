package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kadik23/law-firm-web-app-sub002/internal/identity"
	"github.com/kadik23/law-firm-web-app-sub002/internal/metrics"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/clients"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/services"
	"github.com/kadik23/law-firm-web-app-sub002/internal/shared/apperr"
)

// Service owns the payment record lifecycle: creation, reads enriched
// with a computed balance, and explicit cancellation. Settlements go
// through the Ledger; processor callbacks through the WebhookService.
type Service struct {
	db       *gorm.DB
	provider Provider
	catalog  *services.Repo
	clients  *clients.Repo
	notifier *Notifier
	baseURL  string
}

func NewService(db *gorm.DB, p Provider, catalog *services.Repo, cl *clients.Repo, n *Notifier, baseURL string) *Service {
	return &Service{db: db, provider: p, catalog: catalog, clients: cl, notifier: n, baseURL: baseURL}
}

type CreateInput struct {
	ServiceID   string
	ClientID    string // empty => the caller pays for themselves
	Method      string
	Type        string
	AmountCents int
}

type PaymentView struct {
	Payment Payment `json:"payment"`
	Balance Balance `json:"balance"`
}

type PaymentDetail struct {
	Payment      Payment       `json:"payment"`
	Balance      Balance       `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

func (s *Service) Create(ctx context.Context, actor identity.Identity, in CreateInput) (PaymentView, error) {
	fields := map[string]string{}
	if !validMethod(in.Method) {
		fields["payment_method"] = "Unknown payment method."
	}
	if !validType(in.Type) {
		fields["payment_type"] = "Unknown payment type."
	}
	if in.AmountCents <= 0 {
		fields["amount_cents"] = "Amount must be positive."
	}
	if len(fields) > 0 {
		return PaymentView{}, apperr.InvalidErr("Invalid payment request.", fields)
	}

	clientID := in.ClientID
	if clientID == "" {
		clientID = actor.UserID
	}
	if !actor.CanAccessClient(clientID) {
		return PaymentView{}, apperr.ForbiddenErr("You may only create payments for yourself.")
	}

	svc, err := s.catalog.Get(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return PaymentView{}, apperr.NotFoundErr("Service not found.")
		}
		return PaymentView{}, apperr.Wrap(err)
	}
	if _, err := s.clients.Get(ctx, clientID); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return PaymentView{}, apperr.NotFoundErr("Client not found.")
		}
		return PaymentView{}, apperr.Wrap(err)
	}

	// Full payments are priced by the catalog; a mismatching client
	// amount is rejected rather than silently corrected.
	if in.Type == TypeFull && in.AmountCents != svc.PriceCents {
		return PaymentView{}, apperr.InvalidErr("Invalid payment request.", map[string]string{
			"amount_cents": "Full payments must match the service price.",
		})
	}

	now := time.Now()
	p := Payment{
		ID:          uuid.NewString(),
		ServiceID:   svc.ID,
		ClientID:    clientID,
		Provider:    s.provider.Name(),
		Method:      in.Method,
		Type:        in.Type,
		Status:      StatusPending,
		AmountCents: in.AmountCents,
		Currency:    svc.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Phase-1: persist the pending record
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return PaymentView{}, apperr.Wrap(err)
	}
	metrics.PaymentTransitions.WithLabelValues(StatusPending).Inc()

	// Free consultations never touch the processor.
	if in.Method == MethodFree {
		return PaymentView{Payment: p, Balance: ComputeBalance(p.AmountCents, nil)}, nil
	}

	// Phase-2: checkout session (outside any tx, bounded)
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, perr := s.provider.CreateCheckout(cctx, CheckoutRequest{
		PaymentID:   p.ID,
		ClientID:    clientID,
		ServiceName: svc.Name,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Method:      in.Method,
		ReturnURL:   s.baseURL + "/payments/" + p.ID + "/return",
		CancelURL:   s.baseURL + "/payments/" + p.ID + "/cancel",
	})

	// Phase-3: finalize
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"updated_at": time.Now()}
		if perr != nil {
			msg := truncate(perr.Error(), 250)
			updates["status"] = StatusFailed
			updates["error_message"] = msg
		} else {
			if resp.ProviderRef != "" {
				updates["provider_ref"] = resp.ProviderRef
			}
			if resp.CheckoutURL != "" {
				updates["checkout_url"] = resp.CheckoutURL
			}
		}
		return tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ?", p.ID).
			Updates(updates).Error
	})
	if err != nil {
		return PaymentView{}, apperr.Wrap(err)
	}

	if perr != nil {
		metrics.PaymentTransitions.WithLabelValues(StatusFailed).Inc()
		return PaymentView{}, apperr.UpstreamErr("Payment processor is unavailable.", perr)
	}

	if resp.ProviderRef != "" {
		p.ProviderRef = &resp.ProviderRef
	}
	if resp.CheckoutURL != "" {
		p.CheckoutURL = &resp.CheckoutURL
	}
	return PaymentView{Payment: p, Balance: ComputeBalance(p.AmountCents, nil)}, nil
}

func (s *Service) Get(ctx context.Context, actor identity.Identity, id string) (PaymentView, error) {
	var p Payment
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentView{}, apperr.NotFoundErr("Payment not found.")
	}
	if err != nil {
		return PaymentView{}, apperr.Wrap(err)
	}
	if !actor.CanAccessClient(p.ClientID) {
		return PaymentView{}, apperr.ForbiddenErr("You may not view this payment.")
	}

	b, err := balanceFor(ctx, s.db, p)
	if err != nil {
		return PaymentView{}, apperr.Wrap(err)
	}
	return PaymentView{Payment: p, Balance: b}, nil
}

func (s *Service) ListForClient(ctx context.Context, actor identity.Identity, clientID string) ([]PaymentView, error) {
	if !actor.CanAccessClient(clientID) {
		return nil, apperr.ForbiddenErr("You may not view these payments.")
	}

	var ps []Payment
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&ps, "client_id = ?", clientID).Error; err != nil {
		return nil, apperr.Wrap(err)
	}

	out := make([]PaymentView, len(ps))
	for i, p := range ps {
		b, err := balanceFor(ctx, s.db, p)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		out[i] = PaymentView{Payment: p, Balance: b}
	}
	return out, nil
}

// ListPartial returns installment-plan payments: all of them for staff,
// the caller's own for clients.
func (s *Service) ListPartial(ctx context.Context, actor identity.Identity) ([]PaymentView, error) {
	q := s.db.WithContext(ctx).Where("type = ?", TypePartial)
	if !actor.Staff() {
		q = q.Where("client_id = ?", actor.UserID)
	}

	var ps []Payment
	if err := q.Order("created_at DESC").Find(&ps).Error; err != nil {
		return nil, apperr.Wrap(err)
	}

	out := make([]PaymentView, len(ps))
	for i, p := range ps {
		b, err := balanceFor(ctx, s.db, p)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		out[i] = PaymentView{Payment: p, Balance: b}
	}
	return out, nil
}

func (s *Service) GetPartial(ctx context.Context, actor identity.Identity, id string) (PaymentDetail, error) {
	var p Payment
	err := s.db.WithContext(ctx).First(&p, "id = ? AND type = ?", id, TypePartial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentDetail{}, apperr.NotFoundErr("Partial payment not found.")
	}
	if err != nil {
		return PaymentDetail{}, apperr.Wrap(err)
	}
	if !actor.CanAccessClient(p.ClientID) {
		return PaymentDetail{}, apperr.ForbiddenErr("You may not view this payment.")
	}

	txns, err := loadTransactions(ctx, s.db, p.ID)
	if err != nil {
		return PaymentDetail{}, apperr.Wrap(err)
	}
	return PaymentDetail{Payment: p, Balance: ComputeBalance(p.AmountCents, txns), Transactions: txns}, nil
}

// Cancel moves a payment to cancelled. Only pending and processing
// payments are cancellable; records are never deleted.
func (s *Service) Cancel(ctx context.Context, actor identity.Identity, id string) (PaymentView, error) {
	var p Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundErr("Payment not found.")
			}
			return err
		}
		if !actor.CanAccessClient(p.ClientID) {
			return apperr.ForbiddenErr("You may not cancel this payment.")
		}
		if p.Status != StatusPending && p.Status != StatusProcessing {
			return apperr.InvalidStateErr("Only pending or processing payments can be cancelled.")
		}

		now := time.Now()
		if err := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ? AND status = ?", p.ID, p.Status). // optimistic guard
			Updates(map[string]any{"status": StatusCancelled, "updated_at": now}).Error; err != nil {
			return err
		}
		p.Status = StatusCancelled
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return PaymentView{}, err
		}
		return PaymentView{}, apperr.Wrap(err)
	}

	metrics.PaymentTransitions.WithLabelValues(StatusCancelled).Inc()
	b, berr := balanceFor(ctx, s.db, p)
	if berr != nil {
		return PaymentView{}, apperr.Wrap(berr)
	}
	s.notifier.StatusChanged(p, b)
	return PaymentView{Payment: p, Balance: b}, nil
}

// forUpdate applies a row lock where the dialect supports one. SQLite
// (tests) serializes writers on its own and rejects FOR UPDATE syntax.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
