// Package scheduler runs the recurring maintenance tasks on cron
// schedules
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/apimgr/tripplanner/src/server/metrics"
	"github.com/apimgr/tripplanner/src/utils"
)

// Task is one registered job
type Task struct {
	Name     string
	Schedule string
	Fn       func() error

	entryID cron.EntryID
	lastRun time.Time
	lastErr error
}

// Scheduler wraps robfig/cron with task bookkeeping and logging
type Scheduler struct {
	cron   *cron.Cron
	logger *utils.Logger

	mu    sync.Mutex
	tasks map[string]*Task
}

// New creates a scheduler using the standard five-field cron format
// plus descriptors like @hourly
func New(logger *utils.Logger) *Scheduler {
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	return &Scheduler{
		cron:   c,
		logger: logger,
		tasks:  make(map[string]*Task),
	}
}

// AddTask registers a job under a cron schedule
func (s *Scheduler) AddTask(name, schedule string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[name]; exists {
		return fmt.Errorf("task %q is already registered", name)
	}

	task := &Task{Name: name, Schedule: schedule, Fn: fn}
	entryID, err := s.cron.AddFunc(schedule, func() { s.run(task) })
	if err != nil {
		return fmt.Errorf("failed to schedule task %q: %w", name, err)
	}

	task.entryID = entryID
	s.tasks[name] = task
	return nil
}

// AddTaskInterval registers a job on a fixed interval
func (s *Scheduler) AddTaskInterval(name string, interval time.Duration, fn func() error) error {
	return s.AddTask(name, "@every "+interval.String(), fn)
}

// Start begins running scheduled tasks
func (s *Scheduler) Start() {
	s.cron.Start()
	if s.logger != nil {
		s.logger.Server("Scheduler started with %d tasks", len(s.tasks))
	}
}

// Stop halts scheduling and waits for running tasks to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	if s.logger != nil {
		s.logger.Server("Scheduler stopped")
	}
}

// TriggerTask runs a task immediately, outside its schedule
func (s *Scheduler) TriggerTask(name string) error {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown task: %s", name)
	}
	s.run(task)
	return nil
}

// run executes a task, recording duration and outcome
func (s *Scheduler) run(task *Task) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("Task %s panicked: %v", task.Name, r)
		}
	}()

	started := time.Now()
	err := task.Fn()
	duration := time.Since(started)

	s.mu.Lock()
	task.lastRun = started
	task.lastErr = err
	s.mu.Unlock()

	status := "success"
	if err != nil {
		status = "failure"
		if s.logger != nil {
			s.logger.Error("Task %s failed after %s: %v", task.Name, duration.Round(time.Millisecond), err)
		}
	}
	metrics.RecordSchedulerTask(task.Name, status, duration)
}

// TaskStatus is one row of the status report
type TaskStatus struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"last_run,omitempty"`
	LastErr  string    `json:"last_error,omitempty"`
	NextRun  time.Time `json:"next_run"`
}

// Status reports every registered task
func (s *Scheduler) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]TaskStatus, 0, len(s.tasks))
	for _, task := range s.tasks {
		status := TaskStatus{
			Name:     task.Name,
			Schedule: task.Schedule,
			LastRun:  task.lastRun,
			NextRun:  s.cron.Entry(task.entryID).Next,
		}
		if task.lastErr != nil {
			status.LastErr = task.lastErr.Error()
		}
		statuses = append(statuses, status)
	}
	return statuses
}
