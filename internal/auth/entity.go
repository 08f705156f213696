// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is one link in a session's rotation chain. Every token of a
// session shares FamilyID; ReplacedByID points at its successor.
type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       int64      `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

type tokenState int

const (
	tokenLive tokenState = iota
	tokenUsed
	tokenRevoked
	tokenExpired
)

// state reports why a token can no longer be exchanged. Reuse is checked
// first since it triggers family revocation.
func (t *RefreshToken) state(now time.Time) tokenState {
	switch {
	case t.IsUsed:
		return tokenUsed
	case t.RevokedAt != nil:
		return tokenRevoked
	case !now.Before(t.ExpiresAt):
		return tokenExpired
	default:
		return tokenLive
	}
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsValid() bool {
	return t.state(time.Now()) == tokenLive
}

func (t *RefreshToken) BelongsTo(userID int64) bool {
	return t.UserID == userID
}

func (t *RefreshToken) session() SessionInfo {
	return SessionInfo{
		ID:        t.ID,
		UserAgent: t.UserAgent,
		IPAddress: t.IPAddress,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}
}
