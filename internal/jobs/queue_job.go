// Package jobs holds the scheduled background work of the kitchen.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// QueueResumer starts the next order waiting for the oven.
type QueueResumer interface {
	ResumeQueued() (string, error)
}

// QueueJob periodically puts the oldest queued order into a free oven.
type QueueJob struct {
	resumer  QueueResumer
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewQueueJob creates the job. schedule accepts six-field cron expressions and
// descriptors such as "@every 2s".
func NewQueueJob(resumer QueueResumer, schedule string, logger *slog.Logger) *QueueJob {
	return &QueueJob{
		resumer:  resumer,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "queue_job"),
	}
}

// Run implements cron.Job.
func (j *QueueJob) Run() {
	ctx := context.Background()
	id, err := j.resumer.ResumeQueued()
	if err != nil {
		j.logger.ErrorContext(ctx, "queue job failed", "error", err)
		return
	}
	if id != "" {
		j.logger.InfoContext(ctx, "queued order moved into the oven", "order_id", id)
	}
}

// Start schedules the job.
func (j *QueueJob) Start() error {
	if _, err := j.cron.AddJob(j.schedule, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(j)); err != nil {
		return fmt.Errorf("failed to schedule queue job %q: %w", j.schedule, err)
	}
	j.cron.Start()
	j.logger.Info("queue job started", "schedule", j.schedule)
	return nil
}

// Stop stops the schedule and waits for a running pass to finish.
func (j *QueueJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("queue job stopped")
}
