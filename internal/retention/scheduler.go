package retention

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"go.uber.org/zap"
)

// Scheduler гоняет свип по cron-расписанию из конфига.
// Прогоны не накладываются друг на друга: если предыдущий еще идет,
// очередной тик пропускается.
type Scheduler struct {
	sweeper *Sweeper
	cron    *cron.Cron
	cfg     infra.RetentionConfig
	logger  *zap.Logger
	running atomic.Bool
}

func NewScheduler(sweeper *Sweeper, cfg infra.RetentionConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweeper: sweeper,
		cron:    cron.New(),
		cfg:     cfg,
		logger:  logger.Named("retention-cron"),
	}
}

// Start регистрирует задачу и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.SweepSchedule, func() {
		if !s.running.CompareAndSwap(false, true) {
			s.logger.Warn("previous sweep still running, skipping tick")
			return
		}
		defer s.running.Store(false)

		sweepCtx, cancel := context.WithTimeout(ctx, s.cfg.SweepTimeout)
		defer cancel()

		if _, err := s.sweeper.Sweep(sweepCtx); err != nil {
			s.logger.Error("scheduled sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("retention scheduler started", zap.String("schedule", s.cfg.SweepSchedule))
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущей задачи.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("retention scheduler stopped")
}
