package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doubloon-tracker/core/audit"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Syncer runs one leaderboard sync.
type Syncer interface {
	Sync(ctx context.Context) (*Result, error)
}

// Scheduler triggers syncs on a fixed interval and on demand. Manual triggers
// are rate limited on their own; periodic runs are not.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	cron     *cron.Cron
	limiter  *rate.Limiter
	now      func() time.Time

	logger *zap.Logger
	trail  *audit.Trail

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewScheduler creates a scheduler. A zero cooldown disables the manual rate limit.
func NewScheduler(syncer Syncer, interval, cooldown time.Duration, logger *zap.Logger, trail *audit.Trail) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		cron:     cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		limiter:  rate.NewLimiter(limit, 1),
		now:      time.Now,
		logger:   logger,
		trail:    trail,
	}
}

// Start schedules the periodic sync. Runs use ctx until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.interval <= 0 {
		return fmt.Errorf("leaderboard interval must be positive, got %s", s.interval)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	if _, err := s.cron.AddFunc("@every "+s.interval.String(), s.runPeriodic); err != nil {
		s.cancel()
		return fmt.Errorf("failed to schedule leaderboard sync: %w", err)
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("Leaderboard scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels pending runs and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	cancel()
}

func (s *Scheduler) runPeriodic() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.trail.Command("Auto updating the leaderboard")
	if _, err := s.syncer.Sync(ctx); err != nil {
		s.logger.Warn("Periodic leaderboard sync failed", zap.Error(err))
	}
}

// TriggerManual runs a sync unless one was triggered manually within the
// cooldown, in which case it returns a *CooldownError without syncing.
func (s *Scheduler) TriggerManual(ctx context.Context, actor string) (*Result, error) {
	now := s.now()
	r := s.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		s.trail.Command("%s tried updating the leaderboard too fast", actor)
		return nil, &CooldownError{RetryAfter: delay}
	}

	s.trail.Command("%s updated the leaderboard", actor)
	return s.syncer.Sync(ctx)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
