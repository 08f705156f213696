// AngelaMos | 2026
// repository.go

package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/artistry/internal/core"
)

type Repository interface {
	GetTier(ctx context.Context, userID int64) (string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetTier(ctx context.Context, userID int64) (string, error) {
	query := `SELECT subscription_status FROM users WHERE id = $1`

	var tier string
	err := r.db.GetContext(ctx, &tier, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get tier: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get tier: %w", err)
	}

	return tier, nil
}
