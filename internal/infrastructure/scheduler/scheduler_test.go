package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingExecutor struct {
	mu   sync.Mutex
	jobs []*Job
	err  error
}

func (e *recordingExecutor) Execute(_ context.Context, job *Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, job)
	return e.err
}

func (e *recordingExecutor) executed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

func TestScheduler_SubmitNotRunning(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), &recordingExecutor{}, zap.NewNop())

	job := NewJob(JobTypeExpireReports, time.Now(), 0)
	err := s.SubmitJob(job)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_ExecutesSubmittedJobs(t *testing.T) {
	exec := &recordingExecutor{}
	s := NewScheduler(DefaultSchedulerConfig(), exec, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	require.NoError(t, s.SubmitJob(NewJob(JobTypeExpireReports, time.Now(), 0)))
	require.NoError(t, s.SubmitJob(NewJob(JobTypeSweepUploadDir, time.Now(), 0)))

	assert.Eventually(t, func() bool {
		return exec.executed() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_ScheduleSweepSubmitsAllTypes(t *testing.T) {
	exec := &recordingExecutor{}
	s := NewScheduler(DefaultSchedulerConfig(), exec, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	cutoff := time.Now().Add(-24 * time.Hour)
	require.NoError(t, s.ScheduleSweep(cutoff))

	assert.Eventually(t, func() bool {
		return exec.executed() == len(AllJobTypes())
	}, 2*time.Second, 10*time.Millisecond)

	exec.mu.Lock()
	defer exec.mu.Unlock()
	seen := map[JobType]bool{}
	for _, job := range exec.jobs {
		seen[job.Type] = true
		assert.WithinDuration(t, cutoff, job.Cutoff, time.Second)
	}
	assert.True(t, seen[JobTypeExpireReports])
	assert.True(t, seen[JobTypeSweepUploadDir])
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), &recordingExecutor{}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestJob_RetryLifecycle(t *testing.T) {
	job := NewJob(JobTypeExpireReports, time.Now(), 2)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.Error)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	require.NotNil(t, job.NextRetryAt)

	job.Fail("boom again")
	job.ScheduleRetry(time.Minute)
	job.Fail("final")
	assert.False(t, job.ShouldRetry())
}

func TestScheduler_FailedJobRetries(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("transient")}
	cfg := DefaultSchedulerConfig()
	cfg.RetryDelay = time.Millisecond
	s := NewScheduler(cfg, exec, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	require.NoError(t, s.SubmitJob(NewJob(JobTypeExpireReports, time.Now(), 1)))

	// Initial attempt plus one retry
	assert.Eventually(t, func() bool {
		return exec.executed() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
