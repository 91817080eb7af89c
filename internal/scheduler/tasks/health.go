package tasks

import (
	"context"

	"github.com/nrw/releasewall/internal/scheduler"
)

const HealthTaskID = "health-check"

// DefaultHealthCron runs the health checks every five minutes.
const DefaultHealthCron = "*/5 * * * *"

// HealthChecker runs the health checks. *health.Checker satisfies it.
type HealthChecker interface {
	CheckAll(ctx context.Context) error
}

// RegisterHealthTask registers the periodic health checks. They also run
// once when the scheduler starts.
func RegisterHealthTask(sched *scheduler.Scheduler, checker HealthChecker, cron string) error {
	if cron == "" {
		cron = DefaultHealthCron
	}
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          HealthTaskID,
		Name:        "Health Check",
		Description: "Checks the tracking file, snapshot, database and publisher",
		Cron:        cron,
		RunOnStart:  true,
		Func:        checker.CheckAll,
	})
}
