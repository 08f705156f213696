// AngelaMos | 2026
// service.go

package entitlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/carterperez-dev/artistry/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve reads the caller's tier from the user record on every call. An id
// with no matching user is treated as anonymous.
func (s *Service) Resolve(ctx context.Context, caller Caller) (Grant, error) {
	if caller.IsAnonymous() {
		return anonymousGrant(), nil
	}

	tier, err := s.repo.GetTier(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return anonymousGrant(), nil
		}
		return Grant{}, err
	}

	return grantFor(caller.UserID, tier), nil
}

// TierOf backs the tiered rate limiter. Lookup failures fall back to the
// anonymous budget.
func (s *Service) TierOf(ctx context.Context, userID int64) string {
	grant, err := s.Resolve(ctx, Caller{UserID: userID})
	if err != nil {
		slog.Warn("resolve tier for rate limit",
			"user_id", userID,
			"error", err,
		)
		return TierAnonymous
	}
	return grant.Tier
}
