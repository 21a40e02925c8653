package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autodraft.app/assistant/common/logger"
	"autodraft.app/assistant/internal/gate"
	"autodraft.app/assistant/internal/runlock"
)

// Runner is one check over the mailbox.
type Runner interface {
	Run(ctx context.Context, opts gate.RunOptions) (*gate.RunReport, error)
}

// Locker guards a run across replicas. *runlock.Lock implements it.
type Locker interface {
	Acquire(ctx context.Context) (runlock.Release, bool, error)
}

// Observer receives every run result, including failed runs.
type Observer interface {
	Observe(report *gate.RunReport, err error)
}

type Config struct {
	Interval time.Duration
	Options  gate.RunOptions
}

type Scheduler struct {
	runner   Runner
	cfg      Config
	lock     Locker   // optional
	observer Observer // optional
}

func New(runner Runner, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Scheduler{runner: runner, cfg: cfg}
}

func (s *Scheduler) WithLock(l Locker) *Scheduler {
	s.lock = l
	return s
}

func (s *Scheduler) WithObserver(o Observer) *Scheduler {
	s.observer = o
	return s
}

// Run checks immediately and then every interval until ctx is cancelled. A
// failed run is logged and never stops the loop. A run in progress when ctx
// is cancelled finishes its current message with the cancelled context.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "autodraft.scheduler"})

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "scheduler started",
		"interval", s.cfg.Interval,
		"dry_run", s.cfg.Options.DryRun,
		"locked", s.lock != nil)

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "scheduler stopping")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.lock != nil {
		release, ok, err := s.lock.Acquire(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "run lock unavailable, skipping run", "error", err)
			s.observe(nil, err)
			return
		}
		if !ok {
			slog.InfoContext(ctx, "another replica is running, skipping run")
			return
		}
		defer func() {
			// The run may have been cancelled; release with a fresh deadline.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				slog.WarnContext(ctx, "releasing run lock", "error", err)
			}
		}()
	}

	report, err := s.runSafe(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "run failed", "error", err)
	}
	s.observe(report, err)
}

func (s *Scheduler) runSafe(ctx context.Context) (report *gate.RunReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in run", "panic", r)
			report, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.runner.Run(ctx, s.cfg.Options)
}

func (s *Scheduler) observe(report *gate.RunReport, err error) {
	if s.observer != nil {
		s.observer.Observe(report, err)
	}
}
