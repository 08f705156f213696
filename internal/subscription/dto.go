// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"
)

type SubscribeRequest struct {
	PaymentMethod string `json:"payment_method"`
	Plan          string `json:"plan"`
}

type CancelRequest struct {
	SubscriptionID int64 `json:"subscription_id" validate:"required,gt=0"`
}

type SubscriptionResponse struct {
	ID              int64     `json:"id"`
	PaymentMethod   string    `json:"payment_method"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	NextBillingDate string    `json:"next_billing_date"`
	CreatedAt       time.Time `json:"created_at"`
}

type OverviewResponse struct {
	Success bool                   `json:"success"`
	Active  *SubscriptionResponse  `json:"active"`
	History []SubscriptionResponse `json:"history"`
}

type SubscribeResponse struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	Subscription SubscriptionResponse `json:"subscription"`
}

func ToResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:              s.ID,
		PaymentMethod:   s.PaymentMethod,
		Amount:          s.Amount,
		Status:          s.Status,
		NextBillingDate: s.NextBillingDate.Format(time.DateOnly),
		CreatedAt:       s.CreatedAt,
	}
}

func ToResponseList(subs []Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, len(subs))
	for i := range subs {
		out[i] = ToResponse(&subs[i])
	}
	return out
}
