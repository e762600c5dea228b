package handler

import (
	"context"
	"time"
)

// Scheduled job names.
const (
	JobFeedCollection      = "feed_collection"
	JobStorylineClustering = "storyline_clustering"
)

// JobScheduler runs named jobs on fixed intervals and tracks their status.
type JobScheduler interface {
	Schedule(ctx context.Context, jobName string, interval time.Duration, jobFunc func(context.Context) error) error
	Trigger(jobName string) error
	Stop(jobName string) error
	StopAll()
	GetJobStatus(jobName string) (JobStatus, error)
}

// JobStatus is the externally visible state of one scheduled job.
type JobStatus struct {
	LastError  error
	LastRun    *string
	NextRun    *string
	Name       string
	ErrorCount int
	IsRunning  bool
}
