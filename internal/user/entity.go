// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                 int64     `db:"id"`
	Email              string    `db:"email"`
	PasswordHash       string    `db:"password_hash"`
	Name               string    `db:"name"`
	Role               string    `db:"role"`
	SubscriptionStatus string    `db:"subscription_status"`
	TokenVersion       int       `db:"token_version"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Tiers mirror users.subscription_status. A user is premium exactly while
// they hold an active subscription.
const (
	TierFree    = "free"
	TierPremium = "premium"
)
