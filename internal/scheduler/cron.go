package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// CronRunner runs recurring jobs on standard five-field cron schedules,
// evaluated in a fixed time zone.
type CronRunner struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewCronRunner creates a CronRunner whose schedules are read in loc.
func NewCronRunner(loc *time.Location, logger *slog.Logger) *CronRunner {
	return &CronRunner{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
			cron.WithChain(cron.Recover(cron.DiscardLogger)),
		),
		logger: logger,
	}
}

// Add registers job under a cron schedule. The job receives a context that is
// cancelled when the runner stops.
func (r *CronRunner) Add(ctx context.Context, name, schedule string, job func(ctx context.Context)) error {
	_, err := r.cron.AddFunc(schedule, func() {
		r.logger.DebugContext(ctx, "running cron job", "job", name)
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("parsing cron schedule %q for %s: %w", schedule, name, err)
	}
	r.logger.InfoContext(ctx, "cron job registered", "job", name, "schedule", schedule)
	return nil
}

// Next returns when the job registered at position i next runs, or the zero
// time if there is no such job or the runner is not started.
func (r *CronRunner) Next(i int) time.Time {
	entries := r.cron.Entries()
	if i < 0 || i >= len(entries) {
		return time.Time{}
	}
	return entries[i].Next
}

// Start begins running jobs in the background.
func (r *CronRunner) Start() {
	r.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (r *CronRunner) Stop() {
	<-r.cron.Stop().Done()
}
