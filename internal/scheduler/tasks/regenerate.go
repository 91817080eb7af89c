// Package tasks registers the service's scheduled tasks.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/nrw/releasewall/internal/dataset"
	"github.com/nrw/releasewall/internal/metrics"
	"github.com/nrw/releasewall/internal/scheduler"
)

const RegenerateTaskID = "dataset-regenerate"

// DefaultRegenerateCron rebuilds the snapshot daily at 06:00.
const DefaultRegenerateCron = "0 6 * * *"

// Regenerator rebuilds the snapshot. *dataset.Regenerator satisfies it.
type Regenerator interface {
	Regenerate(ctx context.Context) (dataset.Result, error)
}

// RegisterRegenerateTask registers the periodic snapshot rebuild. An
// overlapping manual regeneration is skipped rather than reported as a
// failure.
func RegisterRegenerateTask(sched *scheduler.Scheduler, regen Regenerator, cron string, runOnStart bool) error {
	if cron == "" {
		cron = DefaultRegenerateCron
	}
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          RegenerateTaskID,
		Name:        "Dataset Regeneration",
		Description: "Rebuilds data.json from the tracking file and admin overrides",
		Cron:        cron,
		RunOnStart:  runOnStart,
		Func: func(ctx context.Context) error {
			start := time.Now()
			res, err := regen.Regenerate(ctx)
			if errors.Is(err, dataset.ErrRegenerationRunning) {
				return nil
			}
			metrics.RecordRegeneration(string(scheduler.TriggerFrom(ctx)), err, time.Since(start), res.Count, res.Hidden, res.Featured)
			return err
		},
	})
}
