// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/artistry/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	// Rotate consumes usedID and stores next in one statement. It returns
	// core.ErrConflict when usedID was already consumed or revoked.
	Rotate(ctx context.Context, usedID string, next *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	ListActive(ctx context.Context, userID int64) ([]RefreshToken, error)
	TrimSessions(ctx context.Context, userID int64, keep int) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

const tokenColumns = `
	id, user_id, token_hash, family_id, expires_at, created_at,
	is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, family_id, expires_at, user_agent, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.FamilyID,
		token.ExpiresAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *repository) Rotate(
	ctx context.Context,
	usedID string,
	next *RefreshToken,
) error {
	query := `
		WITH claimed AS (
			UPDATE refresh_tokens
			SET is_used = true, used_at = NOW(), replaced_by_id = $2
			WHERE id = $1 AND is_used = false AND revoked_at IS NULL
			RETURNING id
		)
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, family_id, expires_at, user_agent, ip_address
		)
		SELECT $2, $3, $4, $5, $6, $7, $8 FROM claimed
		RETURNING created_at`

	err := r.db.GetContext(ctx, &next.CreatedAt, query,
		usedID,
		next.ID,
		next.UserID,
		next.TokenHash,
		next.FamilyID,
		next.ExpiresAt,
		next.UserAgent,
		next.IPAddress,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("rotate refresh token: %w", core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	return nil
}

func (r *repository) findOne(
	ctx context.Context,
	column, value string,
) (*RefreshToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE ` + column + ` = $1`

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	return r.findOne(ctx, "token_hash", tokenHash)
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*RefreshToken, error) {
	return r.findOne(ctx, "id", id)
}

func (r *repository) revoke(
	ctx context.Context,
	op, where string,
	arg any,
) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE revoked_at IS NULL AND ` + where

	result, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rows, nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	rows, err := r.revoke(ctx, "revoke refresh token", "id = $1", id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeByFamilyID(ctx context.Context, familyID string) error {
	_, err := r.revoke(ctx, "revoke token family", "family_id = $1", familyID)
	return err
}

func (r *repository) RevokeAllForUser(ctx context.Context, userID int64) error {
	_, err := r.revoke(ctx, "revoke user tokens", "user_id = $1", userID)
	return err
}

func (r *repository) ListActive(
	ctx context.Context,
	userID int64,
) ([]RefreshToken, error) {
	query := `SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE user_id = $1
			AND revoked_at IS NULL
			AND is_used = false
			AND expires_at > NOW()
		ORDER BY created_at DESC`

	tokens := []RefreshToken{}
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return tokens, nil
}

// TrimSessions revokes every live session of the user except the newest
// keep ones.
func (r *repository) TrimSessions(
	ctx context.Context,
	userID int64,
	keep int,
) (int64, error) {
	query := `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE id IN (
			SELECT id FROM refresh_tokens
			WHERE user_id = $1
				AND revoked_at IS NULL
				AND is_used = false
				AND expires_at > NOW()
			ORDER BY created_at DESC
			OFFSET $2
		)`

	result, err := r.db.ExecContext(ctx, query, userID, keep)
	if err != nil {
		return 0, fmt.Errorf("trim sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trim sessions: %w", err)
	}

	return rows, nil
}

func (r *repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return rows, nil
}
