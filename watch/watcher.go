package watch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Watcher runs a Job on a cron schedule such as "@every 1m" or "*/5 * * * *".
type Watcher struct {
	cron *cron.Cron
	job  *Job
}

func NewWatcher(ctx context.Context, schedule string, job *Job) (*Watcher, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		if _, err := job.Run(ctx); err != nil {
			slog.Error("watch pass failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return &Watcher{cron: c, job: job}, nil
}

// Start runs one pass immediately, then follows the schedule until ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	if _, err := w.job.Run(ctx); err != nil {
		slog.Error("watch pass failed", "error", err)
	}
	w.cron.Start()
	<-ctx.Done()
	<-w.cron.Stop().Done()
}
