package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning rejects submissions to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull rejects submissions when the queue has no room
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidJobType flags a job the retention executor does not handle
	ErrInvalidJobType = errors.New("invalid job type")
)
