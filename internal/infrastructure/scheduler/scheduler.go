package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a maintenance job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobType represents the kind of maintenance work a job performs
type JobType string

const (
	// JobTypeExpireReports deletes stored error report blobs past the
	// retention age and clears the report pointer on their batches.
	// Batch and validation rows are an audit trail and are never removed.
	JobTypeExpireReports JobType = "EXPIRE_REPORTS"

	// JobTypeSweepUploadDir removes orphaned workbook temp files left
	// in the upload directory, e.g. after a crash mid-batch.
	JobTypeSweepUploadDir JobType = "SWEEP_UPLOAD_DIR"
)

// AllJobTypes returns every maintenance job type
func AllJobTypes() []JobType {
	return []JobType{JobTypeExpireReports, JobTypeSweepUploadDir}
}

// Job is one unit of maintenance work. Cutoff bounds what the executor
// may touch: only artifacts older than it are eligible.
type Job struct {
	ID          uuid.UUID
	Type        JobType
	Cutoff      time.Time
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job
func NewJob(jobType JobType, cutoff time.Time, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Cutoff:     cutoff,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status, j.StartedAt, j.Error = JobStatusRunning, &now, ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status, j.CompletedAt = JobStatusSuccess, &now
}

// Fail marks the job as failed with the given reason
func (j *Job) Fail(reason string) {
	now := time.Now()
	j.Status, j.CompletedAt, j.Error = JobStatusFailed, &now, reason
}

// ShouldRetry reports whether a failed job has retry budget left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry resets the job to pending with a not-before time
func (j *Job) ScheduleRetry(delay time.Duration) {
	notBefore := time.Now().Add(delay)
	j.RetryCount++
	j.Status, j.NextRetryAt, j.Error = JobStatusPending, &notBefore, ""
}

// JobExecutor performs the actual maintenance work for a job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler tuning
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultSchedulerConfig returns the production defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
	}
}

// Scheduler runs maintenance jobs on a small worker pool.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs    chan *Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a stopped scheduler
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, 100),
	}
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.runWorker(ctx, i)
	}

	s.logger.Info("Maintenance scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop drains the pool, waiting until ctx expires at most.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	// The channel stays open so an in-flight retry requeue cannot panic;
	// workers exit through context cancellation.
	s.cancel()

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		s.logger.Info("Maintenance scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Maintenance scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob queues a job. Fails when the scheduler is stopped or the
// queue is full.
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return ErrSchedulerNotRunning
	}

	if !s.enqueue(job) {
		return ErrJobQueueFull
	}
	s.logger.Debug("Job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)
	return nil
}

// ScheduleSweep queues every maintenance job type against a cutoff.
// Anything finished or left behind before the cutoff is eligible for removal.
func (s *Scheduler) ScheduleSweep(cutoff time.Time) error {
	for _, jobType := range AllJobTypes() {
		if err := s.SubmitJob(NewJob(jobType, cutoff, s.config.RetryAttempts)); err != nil {
			return err
		}
	}
	return nil
}

// enqueue tries a non-blocking send; reports whether the job landed.
func (s *Scheduler) enqueue(job *Job) bool {
	select {
	case s.jobs <- job:
		return true
	default:
		return false
	}
}

func (s *Scheduler) runWorker(ctx context.Context, id int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.runJob(ctx, job, id)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, job *Job, workerID int) {
	// A retry that is not due yet goes back to the queue.
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		if !s.enqueue(job) {
			s.logger.Warn("Failed to re-queue job for retry", zap.String("job_id", job.ID.String()))
		}
		return
	}

	job.Start()
	s.logger.Info("Processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.executor.Execute(jobCtx, job)
	cancel()

	if err == nil {
		job.Complete()
		s.logger.Info("Job completed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		return
	}

	job.Fail(err.Error())
	s.logger.Error("Job failed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Error(err),
	)

	if !job.ShouldRetry() {
		return
	}
	job.ScheduleRetry(s.config.RetryDelay)
	s.logger.Info("Job scheduled for retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
	)
	if !s.enqueue(job) {
		s.logger.Warn("Failed to re-queue job for retry", zap.String("job_id", job.ID.String()))
	}
}
