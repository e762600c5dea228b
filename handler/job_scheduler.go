package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// jobScheduler drives the periodic pipeline cycles: feed collection and
// storyline clustering. Jobs run on a ticker; Trigger fires a job out of
// band without disturbing its schedule, which backs the on-demand collection
// endpoint.
type jobScheduler struct {
	jobs   map[string]*scheduledJob
	logger *slog.Logger
	mutex  sync.RWMutex
}

type scheduledJob struct {
	ctx        context.Context
	cancel     context.CancelFunc
	jobFunc    func(context.Context) error
	ticker     *time.Ticker
	trigger    chan struct{}
	lastError  error
	lastRun    *time.Time
	nextRun    *time.Time
	name       string
	interval   time.Duration
	errorCount int
	isRunning  bool
}

// NewJobScheduler creates an empty scheduler.
func NewJobScheduler(logger *slog.Logger) JobScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &jobScheduler{
		jobs:   make(map[string]*scheduledJob),
		logger: logger,
	}
}

// Schedule registers a job to run at the given interval. Scheduling a name
// that already exists replaces the previous job.
func (s *jobScheduler) Schedule(ctx context.Context, jobName string, interval time.Duration, jobFunc func(context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for job %s", interval, jobName)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if existing, exists := s.jobs[jobName]; exists {
		s.stopJobLocked(existing)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := &scheduledJob{
		ctx:      jobCtx,
		cancel:   cancel,
		jobFunc:  jobFunc,
		ticker:   time.NewTicker(interval),
		trigger:  make(chan struct{}, 1),
		name:     jobName,
		interval: interval,
	}

	nextRun := time.Now().Add(interval)
	job.nextRun = &nextRun

	s.jobs[jobName] = job

	go s.runJob(job)

	s.logger.Info("job scheduled", "name", jobName, "interval", interval)

	return nil
}

// Trigger requests an immediate out-of-band run. A trigger while one is
// already pending is coalesced into it.
func (s *jobScheduler) Trigger(jobName string) error {
	s.mutex.RLock()
	job, exists := s.jobs[jobName]
	s.mutex.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	select {
	case job.trigger <- struct{}{}:
	default:
	}

	return nil
}

// Stop cancels and removes one job.
func (s *jobScheduler) Stop(jobName string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.stopJobLocked(job)
	delete(s.jobs, jobName)

	s.logger.Info("job stopped", "name", jobName)

	return nil
}

// StopAll cancels every scheduled job.
func (s *jobScheduler) StopAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for name, job := range s.jobs {
		s.stopJobLocked(job)
		s.logger.Info("job stopped", "name", name)
	}

	s.jobs = make(map[string]*scheduledJob)
}

// GetJobStatus returns the externally visible state of one job.
func (s *jobScheduler) GetJobStatus(jobName string) (JobStatus, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[jobName]
	if !exists {
		return JobStatus{}, fmt.Errorf("job %s not found", jobName)
	}

	var lastRunStr, nextRunStr *string

	if job.lastRun != nil {
		str := job.lastRun.Format(time.RFC3339)
		lastRunStr = &str
	}

	if job.nextRun != nil {
		str := job.nextRun.Format(time.RFC3339)
		nextRunStr = &str
	}

	return JobStatus{
		Name:       job.name,
		IsRunning:  job.isRunning,
		LastRun:    lastRunStr,
		NextRun:    nextRunStr,
		ErrorCount: job.errorCount,
		LastError:  job.lastError,
	}, nil
}

func (s *jobScheduler) stopJobLocked(job *scheduledJob) {
	if job.ticker != nil {
		job.ticker.Stop()
	}
	if job.cancel != nil {
		job.cancel()
	}
	job.isRunning = false
}

func (s *jobScheduler) runJob(job *scheduledJob) {
	for {
		select {
		case <-job.ctx.Done():
			return
		case <-job.ticker.C:
			s.executeJob(job)
		case <-job.trigger:
			s.executeJob(job)
		}
	}
}

func (s *jobScheduler) executeJob(job *scheduledJob) {
	s.mutex.Lock()
	job.isRunning = true
	s.mutex.Unlock()

	start := time.Now()
	err := s.safeRun(job)

	s.mutex.Lock()
	job.isRunning = false
	job.lastRun = &start
	nextRun := time.Now().Add(job.interval)
	job.nextRun = &nextRun

	if err != nil {
		job.errorCount++
		job.lastError = err
		s.logger.ErrorContext(job.ctx, "job execution failed",
			"name", job.name,
			"error", err,
			"error_count", job.errorCount)
	} else {
		s.logger.InfoContext(job.ctx, "job execution completed",
			"name", job.name,
			"duration", time.Since(start))
	}
	s.mutex.Unlock()
}

// safeRun converts a job panic into an error so one bad cycle cannot kill
// the scheduling loop.
func (s *jobScheduler) safeRun(job *scheduledJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.jobFunc(job.ctx)
}
