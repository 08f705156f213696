// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/artistry/internal/config"
	"github.com/carterperez-dev/artistry/internal/core"
)

type verifierFunc func(ctx context.Context, token string) (*AccessTokenClaims, error)

func (f verifierFunc) VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error) {
	return f(ctx, token)
}

var fixedVerifier = verifierFunc(func(_ context.Context, token string) (*AccessTokenClaims, error) {
	switch token {
	case "good":
		return &AccessTokenClaims{UserID: 7, Role: "user", TokenID: "jti-7"}, nil
	case "admin":
		return &AccessTokenClaims{UserID: 1, Role: "admin", TokenID: "jti-1"}, nil
	case "expired":
		return nil, core.ErrTokenExpired
	case "revoked":
		return nil, core.ErrTokenRevoked
	default:
		return nil, core.ErrTokenInvalid
	}
})

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		core.OK(w, map[string]any{
			"user_id": GetUserID(r.Context()),
			"role":    GetUserRole(r.Context()),
		})
	})
}

func request(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticator(t *testing.T) {
	h := Authenticator(fixedVerifier)(echoUser())

	rec := request(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"message":"Authentication required","code":"UNAUTHORIZED"}`,
		rec.Body.String(),
	)

	rec = request(h, "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"user"}`, rec.Body.String())

	for token, code := range map[string]string{
		"expired": "TOKEN_EXPIRED",
		"revoked": "TOKEN_REVOKED",
		"junk":    "TOKEN_INVALID",
	} {
		rec = request(h, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, token)
		assert.Contains(t, rec.Body.String(), code, token)
	}
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(fixedVerifier)(echoUser())

	assert.JSONEq(t, `{"user_id":0,"role":""}`, request(h, "").Body.String())
	assert.JSONEq(t, `{"user_id":0,"role":""}`, request(h, "junk").Body.String())
	assert.JSONEq(t, `{"user_id":7,"role":"user"}`, request(h, "good").Body.String())
}

func TestRequireAdmin(t *testing.T) {
	h := Authenticator(fixedVerifier)(RequireAdmin(echoUser()))

	assert.Equal(t, http.StatusForbidden, request(h, "good").Code)
	assert.Equal(t, http.StatusOK, request(h, "admin").Code)
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "bearer  tok ")
	assert.Equal(t, "tok", ExtractToken(req))
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	h := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		core.NotFound(w, "Artwork")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artwork/9", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestCORS(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})(echoUser())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := request(SecurityHeaders(true)(echoUser()), "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = request(SecurityHeaders(false)(echoUser()), "")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

// unreachableRedis returns a client whose server is already gone, so the
// limiters fall back to their in-process buckets.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimiterAllowsFirstRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewRateLimiter(rdb, RateLimitConfig{Limit: PerMinute(10, 5)}).Handler(echoUser())

	rec := request(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimiterFallsBackWhenRedisDown(t *testing.T) {
	h := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Limit: PerMinute(1, 2),
	}).Handler(echoUser())

	assert.Equal(t, http.StatusOK, request(h, "").Code)
	assert.Equal(t, http.StatusOK, request(h, "").Code)

	rec := request(h, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestTieredRateLimiterUsesResolvedTier(t *testing.T) {
	var resolved []int64
	resolve := func(_ context.Context, userID int64) string {
		resolved = append(resolved, userID)
		return "premium"
	}

	tiers := map[string]TierConfig{
		TierAnonymous: {RequestsPerMinute: 1, BurstSize: 1},
		"premium":     {RequestsPerMinute: 60, BurstSize: 3},
	}

	h := OptionalAuth(fixedVerifier)(
		TieredRateLimiter(unreachableRedis(t), tiers, resolve)(echoUser()),
	)

	rec := request(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, TierAnonymous, rec.Header().Get("X-RateLimit-Tier"))
	assert.Equal(t, http.StatusTooManyRequests, request(h, "").Code)
	assert.Empty(t, resolved, "anonymous callers skip the tier lookup")

	for range 3 {
		rec = request(h, "good")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "premium", rec.Header().Get("X-RateLimit-Tier"))
	}
	assert.Equal(t, http.StatusTooManyRequests, request(h, "good").Code)
	assert.Equal(t, []int64{7, 7, 7, 7}, resolved)
}

func TestKeyByUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	assert.Equal(t, "ratelimit:ip:10.0.0.1", KeyByUser(req))

	req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{UserID: 42}))
	assert.Equal(t, "ratelimit:user:42", KeyByUser(req))
}

func TestLocalLimiterSweepsIdleBuckets(t *testing.T) {
	l := &localLimiter{}
	limit := PerMinute(60, 2)

	res := l.allow("a", limit)
	assert.Equal(t, 1, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	v, ok := l.buckets.Load("a")
	require.True(t, ok)
	v.(*bucket).lastAccess.Store(time.Now().Add(-time.Hour).Unix())

	l.lastSweep.Store(0)
	l.allow("b", limit)

	_, ok = l.buckets.Load("a")
	assert.False(t, ok, "idle bucket should be swept")
	_, ok = l.buckets.Load("b")
	assert.True(t, ok)
}
