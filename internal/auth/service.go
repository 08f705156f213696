// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

type UserInfo struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Tier         string
	TokenVersion int
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id int64) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID int64) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

type Denylist interface {
	Deny(ctx context.Context, jti string, expiresAt time.Time) error
	IsDenied(ctx context.Context, jti string) (bool, error)
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	denylist     Denylist
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	denylist Denylist,
) *Service {
	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		denylist:     denylist,
	}
}

// Login runs one argon2 derivation whether or not the email exists.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	client Client,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var storedHash *string
	if user != nil {
		storedHash = &user.PasswordHash
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, storedHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash not stored",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	return s.issueSession(ctx, user, client, nil)
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	client Client,
) (*AuthResponse, error) {
	if err := core.CheckPasswordLength(req.Password); err != nil {
		return nil, err
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, req.Email, passwordHash, req.Name)
	switch {
	case errors.Is(err, core.ErrDuplicateKey):
		return nil, ErrEmailExists
	case err != nil:
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueSession(ctx, user, client, nil)
}

// Refresh rotates a refresh token. Reuse revokes the whole family.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	client Client,
) (*AuthResponse, error) {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	switch storedToken.state(time.Now()) {
	case tokenUsed:
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		return nil, ErrTokenReuse
	case tokenRevoked:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case tokenExpired:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issueSession(ctx, user, client, storedToken)
}

func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	claims *middleware.AccessTokenClaims,
) error {
	if claims != nil && claims.TokenID != "" {
		if err := s.RevokeAccessToken(
			ctx,
			claims.TokenID,
			claims.ExpiresAt,
		); err != nil {
			return err
		}
	}

	if refreshToken == "" {
		return nil
	}

	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if claims == nil || !storedToken.BelongsTo(claims.UserID) {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	return s.denylist.Deny(ctx, jti, expiresAt)
}

func (s *Service) IsAccessTokenDenied(
	ctx context.Context,
	jti string,
) (bool, error) {
	return s.denylist.IsDenied(ctx, jti)
}

func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	denied, err := s.IsAccessTokenDenied(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if denied {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	if err := s.ValidateTokenVersion(
		ctx,
		claims.UserID,
		claims.TokenVersion,
	); err != nil {
		return nil, err
	}

	return claims, nil
}

func (s *Service) ValidateTokenVersion(
	ctx context.Context,
	userID int64,
	tokenVersion int,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("validate token version: %w", core.ErrTokenRevoked)
		}
		return fmt.Errorf("get user: %w", err)
	}

	if tokenVersion < user.TokenVersion {
		return fmt.Errorf("validate token version: %w", core.ErrTokenRevoked)
	}

	return nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID int64,
) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for i := range tokens {
		sessions = append(sessions, tokens[i].session())
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID int64,
	sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if !token.BelongsTo(userID) {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID int64,
	currentPassword, newPassword string,
) error {
	if userID == 0 {
		return fmt.Errorf("change password: %w", core.ErrUnauthorized)
	}

	if err := core.CheckPasswordLength(newPassword); err != nil {
		return err
	}

	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrWrongPassword
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.LogoutAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

const maxSessions = 10

// issueSession continues rotated's family when set, else starts a new one.
func (s *Service) issueSession(
	ctx context.Context,
	user *UserInfo,
	client Client,
	rotated *RefreshToken,
) (*AuthResponse, error) {
	access, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	var familyID string
	if rotated != nil {
		familyID = rotated.FamilyID
	}

	refresh, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	next := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: refresh.Hash,
		FamilyID:  refresh.FamilyID,
		ExpiresAt: refresh.ExpiresAt,
		UserAgent: client.UserAgent,
		IPAddress: client.IP,
	}

	if rotated != nil {
		if err := s.repo.Rotate(ctx, rotated.ID, next); err != nil {
			if !errors.Is(err, core.ErrConflict) {
				return nil, fmt.Errorf("store refresh token: %w", err)
			}
			//nolint:errcheck // reuse is reported either way
			_ = s.repo.RevokeByFamilyID(ctx, rotated.FamilyID)
			return nil, ErrTokenReuse
		}
	} else {
		if err := s.repo.Create(ctx, next); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
		s.enforceSessionCap(ctx, user.ID)
	}

	return &AuthResponse{
		Success: true,
		User:    newUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  access.Token,
			RefreshToken: refresh.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTokenTTL() / time.Second),
			ExpiresAt:    access.ExpiresAt,
		},
	}, nil
}

func (s *Service) enforceSessionCap(ctx context.Context, userID int64) {
	trimmed, err := s.repo.TrimSessions(ctx, userID, maxSessions)
	if err != nil {
		slog.WarnContext(ctx, "trim sessions", "user_id", userID, "error", err)
		return
	}
	if trimmed > 0 {
		slog.InfoContext(ctx, "oldest sessions retired",
			"user_id", userID,
			"count", trimmed,
		)
	}
}
