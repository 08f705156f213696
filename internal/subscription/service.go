// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/artistry/internal/config"
	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/entitlement"
	"github.com/carterperez-dev/artistry/internal/user"
)

var (
	ErrMissingFields         = errors.New("payment method and plan are required")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrInvalidPlan           = errors.New("invalid subscription plan")
	ErrAlreadySubscribed     = errors.New("already has an active subscription")
	ErrInvalidSubscriptionID = errors.New("valid subscription id is required")
	ErrNotActive             = errors.New("subscription is not active")
	ErrBusy                  = errors.New("another subscription change is in progress")
)

// lockWait bounds how long Subscribe and Cancel queue behind another
// transaction holding the same user row.
const lockWait = 5 * time.Second

var lockedTx = core.TxOptions{LockTimeout: lockWait}

type Service struct {
	db      *sqlx.DB
	repo    Repository
	cfg     config.BillingConfig
	metrics *core.Metrics
	now     func() time.Time
}

func NewService(
	db *sqlx.DB,
	cfg config.BillingConfig,
	metrics *core.Metrics,
) *Service {
	return &Service{
		db:      db,
		repo:    NewRepository(db),
		cfg:     cfg,
		metrics: metrics,
		now:     time.Now,
	}
}

func validateSubscribe(req SubscribeRequest) error {
	method := strings.TrimSpace(req.PaymentMethod)
	plan := strings.TrimSpace(req.Plan)

	if method == "" || plan == "" {
		return ErrMissingFields
	}
	if !IsValidPaymentMethod(method) {
		return ErrInvalidPaymentMethod
	}
	if plan != PlanPremium {
		return ErrInvalidPlan
	}
	return nil
}

// Subscribe records a simulated payment and upgrades the caller to premium.
// The user row is locked for the duration so concurrent attempts serialize;
// the subscription insert and tier change commit or roll back together.
func (s *Service) Subscribe(
	ctx context.Context,
	caller entitlement.Caller,
	req SubscribeRequest,
) (*Subscription, error) {
	if caller.IsAnonymous() {
		return nil, fmt.Errorf("subscribe: %w", core.ErrUnauthorized)
	}

	if err := validateSubscribe(req); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "subscription.subscribe",
		core.AttrUserID.Int64(caller.UserID),
		attribute.String("subscription.payment_method", req.PaymentMethod),
	)
	defer span.End()

	sub := &Subscription{
		UserID:          caller.UserID,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		Amount:          s.cfg.PremiumPrice,
		Status:          StatusActive,
		NextBillingDate: billingDate(s.now().Add(s.cfg.Period())),
	}

	err := core.InTxWith(ctx, s.db, lockedTx, func(tx *sqlx.Tx) error {
		users := user.NewRepository(tx)
		subs := NewRepository(tx)

		if _, err := users.GetByIDForUpdate(ctx, caller.UserID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("subscribe: %w", core.ErrUnauthorized)
			}
			return err
		}

		_, err := subs.GetActiveByUser(ctx, caller.UserID)
		switch {
		case err == nil:
			return ErrAlreadySubscribed
		case !errors.Is(err, core.ErrNotFound):
			return err
		}

		if err := subs.Create(ctx, sub); err != nil {
			if errors.Is(err, core.ErrConflict) {
				return ErrAlreadySubscribed
			}
			return err
		}

		return users.UpdateTier(ctx, caller.UserID, user.TierPremium)
	})
	if err != nil {
		if core.IsContention(err) {
			return nil, fmt.Errorf("subscribe: %w", ErrBusy)
		}
		if !errors.Is(err, ErrAlreadySubscribed) {
			core.SetSpanError(ctx, err)
		}
		return nil, err
	}

	core.AddSpanEvent(ctx, "subscription.created",
		core.AttrSubscriptionID.Int64(sub.ID))
	s.metrics.SubscriptionEvent("created")

	slog.InfoContext(ctx, "subscription created",
		"user_id", caller.UserID,
		"subscription_id", sub.ID,
		"payment_method", sub.PaymentMethod,
	)

	return sub, nil
}

// Cancel ends an active subscription owned by the caller and drops the user
// back to free in the same transaction. Access ends immediately.
func (s *Service) Cancel(
	ctx context.Context,
	caller entitlement.Caller,
	subscriptionID int64,
) error {
	if caller.IsAnonymous() {
		return fmt.Errorf("cancel subscription: %w", core.ErrUnauthorized)
	}

	if subscriptionID <= 0 {
		return ErrInvalidSubscriptionID
	}

	ctx, span := core.StartSpan(ctx, "subscription.cancel",
		core.AttrUserID.Int64(caller.UserID),
		core.AttrSubscriptionID.Int64(subscriptionID),
	)
	defer span.End()

	err := core.InTxWith(ctx, s.db, lockedTx, func(tx *sqlx.Tx) error {
		users := user.NewRepository(tx)
		subs := NewRepository(tx)

		if _, err := users.GetByIDForUpdate(ctx, caller.UserID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("cancel subscription: %w", core.ErrUnauthorized)
			}
			return err
		}

		sub, err := subs.GetByIDForUpdate(ctx, subscriptionID, caller.UserID)
		if err != nil {
			return err
		}

		if !sub.IsActive() {
			return ErrNotActive
		}

		if err := subs.UpdateStatus(ctx, sub.ID, StatusCancelled); err != nil {
			return err
		}

		return users.UpdateTier(ctx, caller.UserID, user.TierFree)
	})
	if err != nil {
		if core.IsContention(err) {
			return fmt.Errorf("cancel subscription: %w", ErrBusy)
		}
		core.SetSpanError(ctx, err)
		return err
	}

	core.AddSpanEvent(ctx, "subscription.cancelled")
	s.metrics.SubscriptionEvent("cancelled")

	slog.InfoContext(ctx, "subscription cancelled",
		"user_id", caller.UserID,
		"subscription_id", subscriptionID,
	)

	return nil
}

// Active returns the caller's current subscription, or nil when there is
// none.
func (s *Service) Active(
	ctx context.Context,
	caller entitlement.Caller,
) (*Subscription, error) {
	if caller.IsAnonymous() {
		return nil, fmt.Errorf("active subscription: %w", core.ErrUnauthorized)
	}

	sub, err := s.repo.GetActiveByUser(ctx, caller.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

func (s *Service) History(
	ctx context.Context,
	caller entitlement.Caller,
) ([]Subscription, error) {
	if caller.IsAnonymous() {
		return nil, fmt.Errorf("subscription history: %w", core.ErrUnauthorized)
	}
	return s.repo.ListByUser(ctx, caller.UserID)
}

// RenewDue simulates the recurring charge for every subscription whose
// billing date has arrived.
func (s *Service) RenewDue(ctx context.Context) (int, error) {
	ctx, span := core.StartSpan(ctx, "subscription.renew_due")
	defer span.End()

	ids, err := s.repo.RenewDue(ctx, s.now(), s.cfg.PeriodDays)
	s.metrics.RenewalRun(err)
	if err != nil {
		core.SetSpanError(ctx, err)
		return 0, err
	}

	s.metrics.SubscriptionRenewed(len(ids))
	span.SetAttributes(attribute.Int("subscription.renewed", len(ids)))

	return len(ids), nil
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}
