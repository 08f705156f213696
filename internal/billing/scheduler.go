// AngelaMos | 2026
// scheduler.go

package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	tokenCleanupSchedule = "@hourly"
	jobTimeout           = 5 * time.Minute
)

type Renewer interface {
	RenewDue(ctx context.Context) (int, error)
}

type TokenPruner interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// tokenRetention keeps expired refresh tokens around for a day so reuse of
// a just-expired token still reports as expired rather than invalid.
const tokenRetention = 24 * time.Hour

type SchedulerConfig struct {
	RenewalEnabled  bool
	RenewalSchedule string
}

// Scheduler runs the periodic maintenance jobs: the subscription renewal
// sweep and refresh token cleanup. A job never overlaps with itself.
type Scheduler struct {
	cron    *cron.Cron
	renewer Renewer
	tokens  TokenPruner
	logger  *slog.Logger
}

func NewScheduler(
	cfg SchedulerConfig,
	renewer Renewer,
	tokens TokenPruner,
	logger *slog.Logger,
) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		renewer: renewer,
		tokens:  tokens,
		logger:  logger,
	}

	if cfg.RenewalEnabled {
		if _, err := s.cron.AddFunc(cfg.RenewalSchedule, s.runRenewal); err != nil {
			return nil, fmt.Errorf("schedule renewal %q: %w", cfg.RenewalSchedule, err)
		}
	}

	if tokens != nil {
		if _, err := s.cron.AddFunc(tokenCleanupSchedule, s.runTokenCleanup); err != nil {
			return nil, fmt.Errorf("schedule token cleanup: %w", err)
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop prevents new runs and waits for in-flight jobs or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

func (s *Scheduler) runRenewal() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	renewed, err := s.renewer.RenewDue(ctx)
	if err != nil {
		s.logger.Error("subscription renewal failed", "error", err)
		return
	}

	s.logger.Info("subscription renewal complete",
		"renewed", renewed,
		"duration", time.Since(start),
	)
}

func (s *Scheduler) runTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := s.tokens.DeleteExpired(ctx, time.Now().Add(-tokenRetention))
	if err != nil {
		s.logger.Error("refresh token cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("expired refresh tokens removed", "count", deleted)
	}
}
