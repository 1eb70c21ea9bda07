package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driving"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is how many results are kept per task.
const historyRetention = 100

// Scheduler manages background task execution.
// Task state is persisted so a restarted process keeps its cadence.
type Scheduler struct {
	config    domain.SchedulerConfig
	store     driven.SchedulerStore
	refresher driving.ResumeRefresher

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	inFlight map[string]bool
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	refresher driving.ResumeRefresher,
) *Scheduler {
	if config.PollInterval <= 0 {
		config.PollInterval = domain.DefaultPollInterval
	}
	return &Scheduler{
		config:    config,
		store:     store,
		refresher: refresher,
		inFlight:  make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled. A disabled scheduler returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logger.Info("scheduler: disabled, no tasks will run")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDResumeRefresh); taskCfg.Interval > 0 {
		return s.ensureTask(ctx, domain.TaskIDResumeRefresh, "Resume Refresh", taskCfg)
	}
	return nil
}

// ensureTask creates or updates a task in the store.
// A new task is due immediately.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Time{}
			if !task.LastRun.IsZero() {
				task.NextRun = task.LastRun.Add(cfg.Interval)
			}
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := tasks[i]
		if !task.IsDue(now) {
			continue
		}
		s.runTask(ctx, &task)
	}
}

// runTask executes a single task unless it is still running from a
// previous check. Nothing starts once Stop has been called.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: task %s still running, skipping", task.ID)
		return
	}
	s.inFlight[task.ID] = true
	// Add under mu so it cannot race Stop's Wait.
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			RunID:     uuid.New().String(),
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}
		log := logger.WithFields(logger.Fields{"task": task.ID, "run_id": result.RunID})
		log.Debug("scheduler: task started")

		var err error
		switch task.ID {
		case domain.TaskIDResumeRefresh:
			err = s.refresher.OnTick(ctx)
		default:
			log.Warn("scheduler: unknown task ID")
			return
		}

		if errors.Is(err, domain.ErrTickInProgress) {
			log.Info("scheduler: refresh already in progress, skipping")
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Error = err.Error()
			task.LastError = err.Error()
			log.WithError(err).Error("scheduler: task failed")
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
			log.WithField("duration", result.Duration()).Info("scheduler: task completed")
		}

		// Fixed rate: the next run is measured from the start of this one.
		task.LastRun = result.StartedAt
		task.NextRun = result.StartedAt.Add(task.Interval)

		// Persist with a fresh context so shutdown does not lose the run.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if saveErr := s.store.SaveTask(saveCtx, task); saveErr != nil {
			log.Errorf("scheduler: failed to save task: %v", saveErr)
		}
		if recordErr := s.store.RecordResult(saveCtx, result); recordErr != nil {
			log.Errorf("scheduler: failed to record result: %v", recordErr)
		}
		if pruneErr := s.store.PruneHistory(saveCtx, historyRetention); pruneErr != nil {
			log.Errorf("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}
