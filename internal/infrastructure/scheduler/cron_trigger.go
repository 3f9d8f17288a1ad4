package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// DailySweepHour is the hour to run the daily retention sweep (24h clock)
	DailySweepHour   int
	DailySweepMinute int

	// RetentionAge is how long error reports and orphaned files are kept
	RetentionAge time.Duration

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		DailySweepHour:   2, // 2am
		DailySweepMinute: 0,
		RetentionAge:     30 * 24 * time.Hour,
		CheckInterval:    time.Minute,
	}
}

// CronTrigger fires the retention sweep once per day at the configured
// wall-clock time. It polls rather than sleeping until the deadline so
// clock adjustments cannot strand it.
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	lastRun string // date of the last sweep, as 2006-01-02
}

// NewCronTrigger creates a stopped cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	return &CronTrigger{config: config, scheduler: scheduler, logger: logger}
}

// Start launches the polling loop. Calling Start twice is a no-op.
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.poll(ctx)

	c.logger.Info("Retention sweep trigger started",
		zap.Int("daily_hour", c.config.DailySweepHour),
		zap.Int("daily_minute", c.config.DailySweepMinute),
		zap.Duration("retention_age", c.config.RetentionAge),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop halts the polling loop, waiting until ctx expires at most.
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	c.cancel()

	stopped := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		c.logger.Info("Retention sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) poll(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.maybeSweep(time.Now())
		}
	}
}

// maybeSweep runs the sweep when the clock crosses the configured time
// and no sweep has run yet today.
func (c *CronTrigger) maybeSweep(now time.Time) {
	if now.Hour() != c.config.DailySweepHour || now.Minute() != c.config.DailySweepMinute {
		return
	}

	today := now.Format("2006-01-02")
	c.mu.Lock()
	alreadyRan := c.lastRun == today
	if !alreadyRan {
		c.lastRun = today
	}
	c.mu.Unlock()
	if alreadyRan {
		return
	}

	c.logger.Info("Triggering daily retention sweep")
	if err := c.scheduler.ScheduleSweep(now.Add(-c.config.RetentionAge)); err != nil {
		c.logger.Error("Failed to schedule retention sweep", zap.Error(err))
	}
}

// TriggerManualSweep allows operators to run a sweep on demand
func (c *CronTrigger) TriggerManualSweep(cutoff time.Time) error {
	return c.scheduler.ScheduleSweep(cutoff)
}
