// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/artistry/internal/core"
)

type memTokens struct {
	byID map[string]*RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{byID: map[string]*RefreshToken{}}
}

func (m *memTokens) Create(_ context.Context, token *RefreshToken) error {
	token.CreatedAt = time.Now()
	m.byID[token.ID] = token
	return nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	for _, t := range m.byID {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memTokens) FindByID(_ context.Context, id string) (*RefreshToken, error) {
	if t, ok := m.byID[id]; ok {
		return t, nil
	}
	return nil, core.ErrNotFound
}

func (m *memTokens) Rotate(_ context.Context, usedID string, next *RefreshToken) error {
	t, ok := m.byID[usedID]
	if !ok || t.IsUsed || t.IsRevoked() {
		return core.ErrConflict
	}
	now := time.Now()
	t.IsUsed = true
	t.UsedAt = &now
	t.ReplacedByID = &next.ID
	next.CreatedAt = now
	m.byID[next.ID] = next
	return nil
}

func (m *memTokens) RevokeByID(_ context.Context, id string) error {
	t, ok := m.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memTokens) RevokeByFamilyID(_ context.Context, familyID string) error {
	now := time.Now()
	for _, t := range m.byID {
		if t.FamilyID == familyID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID int64) error {
	now := time.Now()
	for _, t := range m.byID {
		if t.UserID == userID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memTokens) ListActive(
	_ context.Context,
	userID int64,
) ([]RefreshToken, error) {
	out := []RefreshToken{}
	for _, t := range m.byID {
		if t.UserID == userID && t.IsValid() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTokens) TrimSessions(_ context.Context, userID int64, keep int) (int64, error) {
	var live []*RefreshToken
	for _, t := range m.byID {
		if t.UserID == userID && t.IsValid() {
			live = append(live, t)
		}
	}
	slices.SortFunc(live, func(a, b *RefreshToken) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	var trimmed int64
	now := time.Now()
	for i := keep; i < len(live); i++ {
		live[i].RevokedAt = &now
		trimmed++
	}
	return trimmed, nil
}

func (m *memTokens) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memUsers struct {
	users  map[int64]*UserInfo
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[int64]*UserInfo{}, nextID: 1}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*UserInfo, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) Create(
	_ context.Context,
	email, passwordHash, name string,
) (*UserInfo, error) {
	for _, u := range m.users {
		if u.Email == email {
			return nil, core.ErrDuplicateKey
		}
	}
	u := &UserInfo{
		ID:           m.nextID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         "user",
		Tier:         "free",
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	m.nextID++
	return u, nil
}

func (m *memUsers) IncrementTokenVersion(_ context.Context, userID int64) error {
	m.users[userID].TokenVersion++
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID int64, hash string) error {
	m.users[userID].PasswordHash = hash
	return nil
}

type serviceFixture struct {
	svc    *Service
	tokens *memTokens
	users  *memUsers
	mr     *miniredis.Miniredis
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens := newMemTokens()
	users := newMemUsers()

	return &serviceFixture{
		svc: NewService(
			tokens,
			newTestJWTManager(t, 15*time.Minute),
			users,
			core.NewTokenDenylist(core.NewRedisFromClient(rdb, "artistry")),
		),
		tokens: tokens,
		users:  users,
		mr:     mr,
	}
}

func (f *serviceFixture) register(t *testing.T) *AuthResponse {
	t.Helper()

	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct horse",
		Name:     "Ada",
	}, Client{UserAgent: "test-agent", IP: "127.0.0.1"})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	reg := f.register(t)
	assert.True(t, reg.Success)
	assert.Equal(t, "free", reg.User.SubscriptionStatus)
	assert.Equal(t, 15*60, reg.Tokens.ExpiresIn)

	_, err := f.svc.Register(ctx, RegisterRequest{
		Email: "ada@example.com", Password: "another pass", Name: "Ada",
	}, Client{})
	assert.ErrorIs(t, err, ErrEmailExists)

	login, err := f.svc.Login(ctx, LoginRequest{
		Email: "ada@example.com", Password: "correct horse",
	}, Client{})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = f.svc.Login(ctx, LoginRequest{
		Email: "ada@example.com", Password: "wrong horse",
	}, Client{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginRequest{
		Email: "nobody@example.com", Password: "whatever1",
	}, Client{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email: "short@example.com", Password: "short", Name: "S",
	}, Client{})
	assert.ErrorIs(t, err, core.ErrWeakPassword)
}

func TestRefreshRotationAndReuse(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	reg := f.register(t)

	rotated, err := f.svc.Refresh(ctx, reg.Tokens.RefreshToken, Client{})
	require.NoError(t, err)
	assert.NotEqual(t, reg.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	_, err = f.svc.Refresh(ctx, reg.Tokens.RefreshToken, Client{})
	assert.ErrorIs(t, err, ErrTokenReuse)

	_, err = f.svc.Refresh(ctx, rotated.Tokens.RefreshToken, Client{})
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestVerifyAccessTokenHonoursDenylist(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	reg := f.register(t)

	claims, err := f.svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	require.NoError(t, f.svc.Logout(ctx, reg.Tokens.RefreshToken, claims))
	assert.True(t, f.mr.Exists("artistry:denylist:"+claims.TokenID))

	_, err = f.svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.svc.Refresh(ctx, reg.Tokens.RefreshToken, Client{})
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestVerifyAccessTokenRejectsDeletedUser(t *testing.T) {
	f := newServiceFixture(t)

	reg := f.register(t)
	delete(f.users.users, reg.User.ID)

	_, err := f.svc.VerifyAccessToken(context.Background(), reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestChangePassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	reg := f.register(t)
	id := reg.User.ID

	err := f.svc.ChangePassword(ctx, id, "not it", "brand new pass")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = f.svc.ChangePassword(ctx, id, "correct horse", "tiny")
	assert.ErrorIs(t, err, core.ErrWeakPassword)

	require.NoError(t, f.svc.ChangePassword(ctx, id, "correct horse", "brand new pass"))

	_, err = f.svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked, "old sessions end after a password change")

	_, err = f.svc.Login(ctx, LoginRequest{
		Email: "ada@example.com", Password: "brand new pass",
	}, Client{})
	assert.NoError(t, err)
}

func TestRevokeSessionOwnership(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.register(t)

	sessions, err := f.svc.GetActiveSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	err = f.svc.RevokeSession(ctx, 99, sessions[0].ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, f.svc.RevokeSession(ctx, 1, sessions[0].ID))

	sessions, err = f.svc.GetActiveSessions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestLoginRetiresOldestSessionsBeyondCap(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	reg := f.register(t)
	for range maxSessions + 2 {
		_, err := f.svc.Login(ctx, LoginRequest{
			Email:    "ada@example.com",
			Password: "correct horse",
		}, Client{UserAgent: "test-agent", IP: "127.0.0.1"})
		require.NoError(t, err)
	}

	sessions, err := f.svc.GetActiveSessions(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, maxSessions)
}

// racingTokens consumes the presented token just before the rotation
// lands, as a concurrent refresh would.
type racingTokens struct {
	*memTokens
}

func (r racingTokens) Rotate(ctx context.Context, usedID string, next *RefreshToken) error {
	r.byID[usedID].IsUsed = true
	return r.memTokens.Rotate(ctx, usedID, next)
}

func TestRefreshLosingRotationRaceRevokesFamily(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	reg := f.register(t)
	f.svc.repo = racingTokens{f.tokens}

	_, err := f.svc.Refresh(ctx, reg.Tokens.RefreshToken, Client{})
	assert.ErrorIs(t, err, ErrTokenReuse)

	for _, tok := range f.tokens.byID {
		assert.True(t, tok.IsRevoked(), "family member %s left live", tok.ID)
	}
}

func TestRefreshTokenState(t *testing.T) {
	now := time.Now()
	revokedAt := now.Add(-time.Minute)

	cases := []struct {
		name  string
		token RefreshToken
		want  tokenState
	}{
		{"live", RefreshToken{ExpiresAt: now.Add(time.Hour)}, tokenLive},
		{"expired", RefreshToken{ExpiresAt: now}, tokenExpired},
		{"revoked", RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}, tokenRevoked},
		{
			"used wins over revoked and expired",
			RefreshToken{ExpiresAt: now.Add(-time.Hour), RevokedAt: &revokedAt, IsUsed: true},
			tokenUsed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.token.state(now))
		})
	}
}
