package reclaim

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the job every five minutes.
const DefaultSchedule = "*/5 * * * *"

// Runner is one reclamation pass.
type Runner interface {
	Run(ctx context.Context) (int, error)
}

// Scheduler fires a Runner on a cron schedule. A pass that is still running
// when the next tick arrives causes that tick to be skipped. Failures are
// logged and never stop the schedule.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger logging.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler validates spec (standard five-field cron syntax) and
// registers runner under it. Nothing runs until Start.
func NewScheduler(spec string, runner Runner, logger logging.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid reclaim schedule %q: %w", spec, err)
	}

	logger = logger.With("module", "reclaim_scheduler")
	cl := cronLogger{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid reclaim schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	if _, err := s.runner.Run(s.ctx); err != nil {
		s.logger.Error(s.ctx, "Reclamation failed", "error", err)
	}
}

func (s *Scheduler) Start() {
	s.logger.Info(context.Background(), "Reclamation scheduler started")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running pass to finish or for ctx
// to expire, whichever comes first. A pass cut short by ctx sees its own
// context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		s.logger.Info(ctx, "Reclamation scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

// cronLogger adapts logging.Logger to cron's logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(context.Background(), msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(context.Background(), msg, append(keysAndValues, "error", err)...)
}
