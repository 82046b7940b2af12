package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sales-backoffice/internal/config"
)

// KeyPurger deletes idempotency keys recorded before a cutoff.
type KeyPurger interface {
	PurgeIdempotencyKeys(ctx context.Context, olderThan time.Time) (int64, error)
}

// Scheduler runs housekeeping jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	purger KeyPurger
	cfg    config.IdempotencyConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewScheduler creates a scheduler with the standard 5-field cron parser.
func NewScheduler(cfg config.IdempotencyConfig, purger KeyPurger, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(),
		purger: purger,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("idempotency_purge", s.cfg.PurgeCron))

	if _, err := s.cron.AddFunc(s.cfg.PurgeCron, s.purgeIdempotencyKeys); err != nil {
		s.logger.Error("failed to schedule idempotency key purge", zap.Error(err))
		return err
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) purgeIdempotencyKeys() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.cfg.TTL)
	n, err := s.purger.PurgeIdempotencyKeys(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to purge idempotency keys", zap.Error(err))
		return
	}
	s.logger.Info("purged idempotency keys", zap.Int64("deleted", n), zap.Time("older_than", cutoff))
}
