// Package scheduler reloads the dashboard table on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"findash/internal/core"
	applog "findash/internal/log"
)

// Trigger is logged with every reload started by the schedule.
const Trigger = "cron"

// Reloader re-reads the table source.
type Reloader interface {
	Reload(ctx context.Context, trigger string) (*core.Table, error)
}

// Scheduler runs Reloader.Reload on a standard five field cron spec or a
// descriptor such as @hourly or @every 15m.
type Scheduler struct {
	cron     *cron.Cron
	entry    cron.EntryID
	reloader Reloader
	logger   *applog.Logger
	timeout  time.Duration

	ctx      context.Context
	runs     atomic.Int64
	failures atomic.Int64
}

// New parses spec and registers the reload job. Nothing runs until Run.
func New(spec string, r Reloader, logger *applog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentScheduler)

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse reload schedule %q: %w", spec, err)
	}

	cl := cronLogger{logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.Local),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		reloader: r,
		logger:   logger,
		timeout:  2 * time.Minute,
		ctx:      context.Background(),
	}
	s.entry = s.cron.Schedule(schedule, cron.FuncJob(s.runOnce))
	return s, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running reload to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.InfoContext(ctx, "Reload schedule started", "next", s.Next())

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.InfoContext(context.WithoutCancel(ctx), "Reload schedule stopped", "runs", s.runs.Load(), "failures", s.failures.Load())
	return nil
}

// Next reports when the reload fires next; zero before Run.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Runs returns the number of reloads attempted and how many failed.
func (s *Scheduler) Runs() (total, failed int64) {
	return s.runs.Load(), s.failures.Load()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	s.runs.Add(1)
	start := time.Now()
	t, err := s.reloader.Reload(ctx, Trigger)
	if err != nil {
		s.failures.Add(1)
		s.logger.ErrorContext(ctx, "Scheduled reload failed", applog.FieldError, err)
		return
	}
	s.logger.DebugContext(ctx, "Scheduled reload done",
		applog.FieldVersion, t.Version(),
		applog.FieldDuration, time.Since(start).Milliseconds())
}

// cronLogger adapts the component logger to cron.Logger.
type cronLogger struct {
	l *applog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append([]any{applog.FieldError, err}, keysAndValues...)...)
}
