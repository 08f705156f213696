// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/artistry/internal/core"
)

type RateLimitConfig struct {
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	BypassFunc func(*http.Request) bool
	OnLimited  func(http.ResponseWriter, *http.Request, *redis_rate.Result)
}

// limitStore counts requests in Redis and falls back to in-process token
// buckets while Redis is unreachable.
type limitStore struct {
	redis    *redis_rate.Limiter
	fallback *localLimiter
}

func newLimitStore(rdb *redis.Client) *limitStore {
	return &limitStore{
		redis:    redis_rate.NewLimiter(rdb),
		fallback: &localLimiter{},
	}
}

func (s *limitStore) allow(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
) *redis_rate.Result {
	res, err := s.redis.Allow(ctx, key, limit)
	if err == nil {
		return res
	}

	slog.DebugContext(ctx, "rate limiter using local buckets", "error", err)
	return s.fallback.allow(key, limit)
}

type RateLimiter struct {
	store  *limitStore
	config RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{store: newLimitStore(rdb), config: cfg}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		res := rl.store.allow(r.Context(), rl.config.KeyFunc(r), rl.config.Limit)
		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed > 0 {
			next.ServeHTTP(w, r)
			return
		}

		if rl.config.OnLimited != nil {
			rl.config.OnLimited(w, r, res)
			return
		}
		writeRateLimitExceeded(w, res)
	})
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != 0 {
		return "ratelimit:user:" + strconv.FormatInt(userID, 10)
	}
	return KeyByIP(r)
}

// ClientIP trusts the last X-Forwarded-For hop, the one appended by our own
// proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy",
		fmt.Sprintf(`%d;w=%d`, limit.Rate, int(limit.Period.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSON(w, http.StatusTooManyRequests, core.ErrorResponse{
		Message: fmt.Sprintf(
			"Rate limit exceeded. Retry after %d seconds.",
			retryAfter,
		),
		Code: "RATE_LIMITED",
	})
}

const (
	sweepInterval = 5 * time.Minute
	bucketTTL     = 10 * time.Minute
)

type bucket struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

// localLimiter holds one token bucket per key. Idle buckets are swept on
// access, at most once per sweepInterval.
type localLimiter struct {
	buckets   sync.Map
	lastSweep atomic.Int64
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	now := time.Now()
	l.maybeSweep(now)

	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSecond)

	v, _ := l.buckets.LoadOrStore(key, &bucket{
		limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst),
	})
	b := v.(*bucket) //nolint:forcetypeassert // only *bucket is stored
	b.lastAccess.Store(now.Unix())

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(int(b.limiter.TokensAt(now))-1, 0),
		ResetAfter: interval,
		RetryAfter: -1,
	}

	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.Remaining = 0
		res.RetryAfter = interval
	}

	return res
}

func (l *localLimiter) maybeSweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.Unix()-last < int64(sweepInterval.Seconds()) {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.Unix()) {
		return
	}

	cutoff := now.Add(-bucketTTL).Unix()
	l.buckets.Range(func(key, value any) bool {
		if b, ok := value.(*bucket); ok && b.lastAccess.Load() < cutoff {
			l.buckets.Delete(key)
		}
		return true
	})
}

type TierConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

func (c TierConfig) limit() redis_rate.Limit {
	return PerMinute(c.RequestsPerMinute, c.BurstSize)
}

const TierAnonymous = "anonymous"

// DefaultDownloadTiers throttles file delivery by entitlement tier.
var DefaultDownloadTiers = map[string]TierConfig{
	TierAnonymous: {RequestsPerMinute: 10, BurstSize: 5},
	"free":        {RequestsPerMinute: 30, BurstSize: 10},
	"premium":     {RequestsPerMinute: 120, BurstSize: 30},
}

// TierResolver maps a user id to its current tier. Anonymous callers are
// passed as id 0.
type TierResolver func(ctx context.Context, userID int64) string

// TieredRateLimiter limits by the caller's tier. The tier is part of the
// key, so an upgrade starts from a fresh bucket.
func TieredRateLimiter(
	rdb *redis.Client,
	tiers map[string]TierConfig,
	resolve TierResolver,
) func(http.Handler) http.Handler {
	store := newLimitStore(rdb)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier := TierAnonymous
			if userID := GetUserID(r.Context()); userID != 0 {
				tier = resolve(r.Context(), userID)
			}

			cfg, ok := tiers[tier]
			if !ok {
				cfg = tiers[TierAnonymous]
			}
			limit := cfg.limit()

			res := store.allow(r.Context(), "tiered:"+tier+":"+KeyByUser(r), limit)

			w.Header().Set("X-RateLimit-Tier", tier)
			setRateLimitHeaders(w, res, limit)

			if res.Allowed == 0 {
				writeRateLimitExceeded(w, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}
