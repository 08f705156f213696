// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/artistry/internal/core"
)

// TierCounter reports how many members sit on each subscription tier.
type TierCounter interface {
	CountByTier(ctx context.Context) (map[string]int, error)
}

type SubscriptionCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// HandlerConfig wires the handler to the stores it reports on. Any field may
// be nil; the matching section is then omitted or reported healthy.
type HandlerConfig struct {
	DBStats       func() sql.DBStats
	RedisStats    func() *redis.PoolStats
	RedisPing     func(ctx context.Context) error
	DBPing        func(ctx context.Context) error
	Tiers         TierCounter
	Subscriptions SubscriptionCounter
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Get("/stats/members", h.GetMemberStats)
	})
}

const pingTimeout = 2 * time.Second

func healthy(ctx context.Context, ping func(context.Context) error) bool {
	if ping == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return ping(ctx) == nil
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dbUp, redisUp bool
	var wg sync.WaitGroup
	wg.Go(func() { dbUp = healthy(ctx, h.cfg.DBPing) })
	wg.Go(func() { redisUp = healthy(ctx, h.cfg.RedisPing) })
	wg.Wait()

	response := SystemStatsResponse{
		Database: DatabaseStatus{Healthy: dbUp, Stats: h.dbPoolStats()},
		Redis:    RedisStatus{Healthy: redisUp, Stats: h.redisPoolStats()},
		Runtime:  readRuntimeStats(),
	}

	members, err := h.memberStats(ctx)
	if err != nil {
		slog.WarnContext(ctx, "member stats unavailable", "error", err)
	}
	response.Members = members

	core.OK(w, response)
}

func (h *Handler) GetMemberStats(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberStats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, members)
}

func (h *Handler) memberStats(ctx context.Context) (*MemberStats, error) {
	if h.cfg.Tiers == nil || h.cfg.Subscriptions == nil {
		return nil, errors.New("member counters not configured")
	}

	byTier, err := h.cfg.Tiers.CountByTier(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by tier: %w", err)
	}

	active, err := h.cfg.Subscriptions.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active subscriptions: %w", err)
	}

	return newMemberStats(byTier, active), nil
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.dbPoolStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.redisPoolStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntimeStats())
}

func (h *Handler) dbPoolStats() *DBPoolStats {
	if h.cfg.DBStats == nil {
		return nil
	}
	return newDBPoolStats(h.cfg.DBStats())
}

func (h *Handler) redisPoolStats() *RedisPoolStats {
	if h.cfg.RedisStats == nil {
		return nil
	}
	return newRedisPoolStats(h.cfg.RedisStats())
}
