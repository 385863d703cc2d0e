package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule fires daily at 21:00 UTC.
const DefaultSchedule = "0 21 * * *"

// Scheduler runs the digest job on a cron schedule in UTC.
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	spec       string
	logger     *zap.Logger
	reportFunc func(ctx context.Context) error
}

func New(spec string, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if spec == "" {
		spec = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		spec:   spec,
		logger: logger,
	}
}

func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Start registers the report job and starts the cron loop. Without a report
// function it logs a warning and does nothing.
func (s *Scheduler) Start() error {
	if s.reportFunc == nil {
		s.logger.Warn("report function not set, digest disabled")
		return nil
	}
	_, err := s.cron.AddFunc(s.spec, func() {
		s.logger.Info("digest triggered", zap.String("schedule", s.spec))
		if err := s.reportFunc(s.ctx); err != nil {
			s.logger.Error("digest failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", s.spec))
	return nil
}

// Stop waits for a running job to finish and cancels its context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
