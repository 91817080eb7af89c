// Package scheduler runs background tasks on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/nrw/releasewall/internal/metrics"
)

// Task lookup errors.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskRunning  = errors.New("task is already running")
)

// Trigger says what started a task run.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerStartup  Trigger = "startup"
	TriggerManual   Trigger = "manual"
)

type triggerKey struct{}

// WithTrigger returns ctx carrying t.
func WithTrigger(ctx context.Context, t Trigger) context.Context {
	return context.WithValue(ctx, triggerKey{}, t)
}

// TriggerFrom returns the trigger of the run ctx belongs to. Contexts that
// did not come from the scheduler report TriggerManual.
func TriggerFrom(ctx context.Context) Trigger {
	if t, ok := ctx.Value(triggerKey{}).(Trigger); ok {
		return t
	}
	return TriggerManual
}

// TaskFunc is the function signature for scheduled tasks.
type TaskFunc func(ctx context.Context) error

// TaskConfig describes a scheduled task.
type TaskConfig struct {
	ID          string
	Name        string
	Description string
	Cron        string // "0 6 * * *" for 06:00 daily
	Func        TaskFunc
	RunOnStart  bool
}

// TaskInfo is the API view of a task.
type TaskInfo struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Cron         string     `json:"cron"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastTrigger  Trigger    `json:"lastTrigger,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	NextRun      *time.Time `json:"nextRun,omitempty"`
	Running      bool       `json:"running"`
}

// run is the outcome of one task execution.
type run struct {
	started  time.Time
	trigger  Trigger
	duration time.Duration
	err      error
}

type taskEntry struct {
	config  TaskConfig
	job     gocron.Job
	last    *run
	running bool
}

// Scheduler owns the cron jobs and tracks the state of every task.
type Scheduler struct {
	gocron gocron.Scheduler
	logger zerolog.Logger
	tasks  map[string]*taskEntry
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. opts are passed to gocron.
func New(logger zerolog.Logger, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	gs, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: gs,
		logger: logger.With().Str("component", "scheduler").Logger(),
		tasks:  make(map[string]*taskEntry),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// RegisterTask adds a task. IDs must be unique.
func (s *Scheduler) RegisterTask(config TaskConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[config.ID]; exists {
		return fmt.Errorf("task with ID %q already registered", config.ID)
	}

	// A tick that fires while the previous run is still going is dropped.
	job, err := s.gocron.NewJob(
		gocron.CronJob(config.Cron, false),
		gocron.NewTask(func() { s.execute(config.ID, TriggerSchedule) }),
		gocron.WithName(config.Name),
		gocron.WithTags(config.ID),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job for task %q: %w", config.ID, err)
	}

	s.tasks[config.ID] = &taskEntry{config: config, job: job}

	s.logger.Info().
		Str("id", config.ID).
		Str("cron", config.Cron).
		Bool("runOnStart", config.RunOnStart).
		Msg("Registered task")
	return nil
}

// claim marks a task running.
func (s *Scheduler) claim(taskID string) (*taskEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	if entry.running {
		return nil, fmt.Errorf("%w: %q", ErrTaskRunning, taskID)
	}
	entry.running = true
	return entry, nil
}

func (s *Scheduler) execute(taskID string, trigger Trigger) {
	entry, err := s.claim(taskID)
	if err != nil {
		s.logger.Debug().Err(err).Str("trigger", string(trigger)).Msg("Skipping task run")
		return
	}
	s.runClaimed(entry, trigger)
}

func (s *Scheduler) runClaimed(entry *taskEntry, trigger Trigger) {
	id := entry.config.ID
	log := s.logger.With().Str("id", id).Str("trigger", string(trigger)).Logger()
	log.Info().Msg("Starting task")

	r := &run{started: time.Now(), trigger: trigger}
	r.err = entry.config.Func(WithTrigger(s.ctx, trigger))
	r.duration = time.Since(r.started)

	s.mu.Lock()
	entry.running = false
	entry.last = r
	s.mu.Unlock()

	metrics.RecordTaskRun(id, string(trigger), r.err)
	if r.err != nil {
		log.Error().Err(r.err).Dur("duration", r.duration).Msg("Task failed")
		return
	}
	log.Info().Dur("duration", r.duration).Msg("Task completed")
}

// Start starts the cron jobs and kicks off every RunOnStart task.
func (s *Scheduler) Start() error {
	s.logger.Info().Msg("Starting scheduler")
	s.gocron.Start()

	s.mu.RLock()
	var startup []string
	for id, entry := range s.tasks {
		if entry.config.RunOnStart {
			startup = append(startup, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range startup {
		go s.execute(id, TriggerStartup)
	}
	return nil
}

// Stop cancels running tasks and stops the scheduler.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("Stopping scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// RunNow starts a task in the background. It fails when the task is
// unknown or already running.
func (s *Scheduler) RunNow(taskID string) error {
	entry, err := s.claim(taskID)
	if err != nil {
		return err
	}
	go s.runClaimed(entry, TriggerManual)
	return nil
}

// ListTasks returns every task ordered by ID.
func (s *Scheduler) ListTasks() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]TaskInfo, 0, len(s.tasks))
	for _, entry := range s.tasks {
		tasks = append(tasks, entry.info())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// GetTask returns one task.
func (s *Scheduler) GetTask(taskID string) (*TaskInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	info := entry.info()
	return &info, nil
}

func (e *taskEntry) info() TaskInfo {
	info := TaskInfo{
		ID:          e.config.ID,
		Name:        e.config.Name,
		Description: e.config.Description,
		Cron:        e.config.Cron,
		Running:     e.running,
	}
	if r := e.last; r != nil {
		started := r.started
		info.LastRun = &started
		info.LastTrigger = r.trigger
		info.LastDuration = r.duration.Round(time.Millisecond).String()
		if r.err != nil {
			info.LastError = r.err.Error()
		}
	}
	if next, err := e.job.NextRun(); err == nil {
		info.NextRun = &next
	}
	return info
}
