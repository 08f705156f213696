// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/artistry/internal/core"
)

const subscriptionColumns = `id, user_id, payment_method, amount, status,
		       next_billing_date, created_at, updated_at`

const oneActivePerUser = "subscriptions_one_active_per_user"

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetActiveByUser(ctx context.Context, userID int64) (*Subscription, error)
	GetByIDForUpdate(ctx context.Context, id, userID int64) (*Subscription, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	ListByUser(ctx context.Context, userID int64) ([]Subscription, error)
	RenewDue(ctx context.Context, asOf time.Time, periodDays int) ([]int64, error)
	CountActive(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions
			(user_id, payment_method, amount, status, next_billing_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		sub.UserID,
		sub.PaymentMethod,
		sub.Amount,
		sub.Status,
		sub.NextBillingDate,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err, oneActivePerUser) {
			return fmt.Errorf("create subscription: %w", core.ErrConflict)
		}
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}

// GetActiveByUser returns the most recent active subscription.
func (r *repository) GetActiveByUser(
	ctx context.Context,
	userID int64,
) (*Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get active subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get active subscription: %w", err)
	}

	return &sub, nil
}

// GetByIDForUpdate only finds rows owned by userID, so a foreign id looks
// exactly like a missing one.
func (r *repository) GetByIDForUpdate(
	ctx context.Context,
	id, userID int64,
) (*Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock subscription: %w", err)
	}

	return &sub, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update subscription status: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID int64,
) ([]Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	subs := []Subscription{}
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	return subs, nil
}

// RenewDue pushes every active subscription billed on or before asOf forward
// by one period in a single statement and returns the renewed ids.
func (r *repository) RenewDue(
	ctx context.Context,
	asOf time.Time,
	periodDays int,
) ([]int64, error) {
	query := `
		UPDATE subscriptions
		SET next_billing_date = next_billing_date + $2::int
		WHERE status = 'active' AND next_billing_date <= $1
		RETURNING id`

	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, billingDate(asOf), periodDays); err != nil {
		return nil, fmt.Errorf("renew subscriptions: %w", err)
	}

	return ids, nil
}

func (r *repository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM subscriptions WHERE status = 'active'`); err != nil {
		return 0, fmt.Errorf("count active subscriptions: %w", err)
	}
	return n, nil
}
