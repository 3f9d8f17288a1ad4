// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// PipelineMetrics provides metrics for the bulk upload pipeline.
// It tracks batch submissions, validation outcomes, record creation
// and error report generation.
type PipelineMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	batchSubmittedTotal  *Counter
	batchCompletedTotal  *Counter
	recordValidatedTotal *Counter
	recordCreatedTotal   *Counter
	validationErrorTotal *Counter
	reportGeneratedTotal *Counter

	// Histogram metrics
	batchDuration *Histogram

	// Gauge metrics (point-in-time values)
	batchesInFlight *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	batchProvider BatchMetricsProvider
}

// BatchMetricsProvider provides batch state for periodic metrics collection.
// This interface lets the telemetry layer query pipeline state without
// depending on the persistence layer directly.
type BatchMetricsProvider interface {
	// CountProcessingBatches returns the number of batches per entity kind
	// that are still in the processing state.
	CountProcessingBatches(ctx context.Context) (map[string]int64, error)
}

// PipelineMetricsConfig holds configuration for pipeline metrics.
type PipelineMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 1 minute
	BatchProvider   BatchMetricsProvider
}

// NewPipelineMetrics creates a new PipelineMetrics instance.
func NewPipelineMetrics(cfg PipelineMetricsConfig) (*PipelineMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PipelineMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		batchProvider: cfg.BatchProvider,
	}

	var err error

	pm.batchSubmittedTotal, err = NewCounter(
		cfg.Meter,
		"bulk_batch_submitted_total",
		"Total number of upload batches accepted for processing",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	pm.batchCompletedTotal, err = NewCounter(
		cfg.Meter,
		"bulk_batch_finished_total",
		"Total number of upload batches that reached a terminal state",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	pm.recordValidatedTotal, err = NewCounter(
		cfg.Meter,
		"bulk_record_validated_total",
		"Total number of parsed records that went through validation",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	pm.recordCreatedTotal, err = NewCounter(
		cfg.Meter,
		"bulk_record_created_total",
		"Total number of master data records created from uploads",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	pm.validationErrorTotal, err = NewCounter(
		cfg.Meter,
		"bulk_validation_error_total",
		"Total number of validation errors by code",
		"{errors}",
	)
	if err != nil {
		return nil, err
	}

	pm.reportGeneratedTotal, err = NewCounter(
		cfg.Meter,
		"bulk_report_generated_total",
		"Total number of error reports generated",
		"{reports}",
	)
	if err != nil {
		return nil, err
	}

	pm.batchDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "bulk_batch_duration_seconds",
		Description: "End-to-end processing duration of an upload batch",
		Unit:        "s",
		Boundaries:  BatchDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	pm.batchesInFlight, err = NewGauge(
		cfg.Meter,
		"bulk_batches_in_flight",
		"Number of upload batches currently processing",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// =============================================================================
// Batch Metrics
// =============================================================================

// RecordBatchSubmitted records an accepted upload submission.
func (pm *PipelineMetrics) RecordBatchSubmitted(ctx context.Context, entityKind string) {
	pm.batchSubmittedTotal.Inc(ctx,
		AttrEntityKind.String(entityKind),
	)
}

// RecordBatchFinished records a batch reaching a terminal state together
// with its processing duration.
func (pm *PipelineMetrics) RecordBatchFinished(ctx context.Context, entityKind, status string, duration time.Duration) {
	pm.batchCompletedTotal.Inc(ctx,
		AttrEntityKind.String(entityKind),
		AttrBatchStatus.String(status),
	)
	pm.batchDuration.Record(ctx, duration.Seconds(),
		AttrEntityKind.String(entityKind),
		AttrBatchStatus.String(status),
	)
}

// =============================================================================
// Record Metrics
// =============================================================================

// RecordValidated records a parsed record passing through validation.
func (pm *PipelineMetrics) RecordValidated(ctx context.Context, entityKind, recordStatus string) {
	pm.recordValidatedTotal.Inc(ctx,
		AttrEntityKind.String(entityKind),
		AttrRecordStatus.String(recordStatus),
	)
}

// RecordValidationError records a single validation error by code.
func (pm *PipelineMetrics) RecordValidationError(ctx context.Context, entityKind, errorCode string) {
	pm.validationErrorTotal.Inc(ctx,
		AttrEntityKind.String(entityKind),
		AttrErrorCode.String(errorCode),
	)
}

// RecordCreationOutcome records the result of one record's creation attempt.
func (pm *PipelineMetrics) RecordCreationOutcome(ctx context.Context, entityKind string, succeeded bool) {
	status := "created"
	if !succeeded {
		status = "failed"
	}
	pm.recordCreatedTotal.Inc(ctx,
		AttrEntityKind.String(entityKind),
		AttrRecordStatus.String(status),
	)
}

// RecordReportGenerated records an error report being built and stored.
func (pm *PipelineMetrics) RecordReportGenerated(ctx context.Context, entityKind string) {
	pm.reportGeneratedTotal.Inc(ctx,
		AttrEntityKind.String(entityKind),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (pm *PipelineMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	pm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}

		go pm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (pm *PipelineMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	pm.collectBatchGauges(ctx)

	for {
		select {
		case <-pm.stopChan:
			pm.logger.Info("Stopping periodic pipeline metrics collection")
			return
		case <-ctx.Done():
			pm.logger.Info("Context cancelled, stopping periodic pipeline metrics collection")
			return
		case <-ticker.C:
			pm.collectBatchGauges(ctx)
		}
	}
}

// collectBatchGauges refreshes the in-flight batch gauge per entity kind.
func (pm *PipelineMetrics) collectBatchGauges(ctx context.Context) {
	if pm.batchProvider == nil {
		pm.logger.Debug("No batch provider configured, skipping gauge collection")
		return
	}

	counts, err := pm.batchProvider.CountProcessingBatches(ctx)
	if err != nil {
		pm.logger.Warn("Failed to count processing batches", zap.Error(err))
		return
	}

	for kind, count := range counts {
		pm.batchesInFlight.Record(ctx, count,
			AttrEntityKind.String(kind),
		)
	}
}

// Stop stops the periodic collection.
func (pm *PipelineMetrics) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewPipelineMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
