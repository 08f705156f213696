// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

const (
	PaymentCreditCard = "credit_card"
	PaymentPayPal     = "paypal"
)

const PlanPremium = "premium"

type Subscription struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	PaymentMethod   string    `db:"payment_method"`
	Amount          float64   `db:"amount"`
	Status          string    `db:"status"`
	NextBillingDate time.Time `db:"next_billing_date"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func IsValidPaymentMethod(method string) bool {
	return method == PaymentCreditCard || method == PaymentPayPal
}

// billingDate truncates t to a calendar day in UTC, matching the DATE column.
func billingDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
