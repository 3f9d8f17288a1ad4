package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/logimaster/backend/internal/domain/bulk"
)

// expirePageSize bounds how many batches a single expiry pass loads
const expirePageSize = 100

// ExpiredReportSource finds batches whose error report has outlived the
// retention age. Batches and their validation records are an audit trail
// and are never removed; only the report blob and its pointer expire.
type ExpiredReportSource interface {
	// FindExpiredReports returns finished batches that still hold a
	// report and completed before the cutoff, up to limit entries
	FindExpiredReports(ctx context.Context, cutoff time.Time, limit int) ([]*bulk.UploadBatch, error)

	// ClearReport removes the report pointer from a batch row
	ClearReport(ctx context.Context, batchID uuid.UUID) error
}

// ReportRemover deletes stored error report blobs
type ReportRemover interface {
	Delete(ctx context.Context, key string) error
}

// RetentionConfig holds retention executor configuration
type RetentionConfig struct {
	// UploadDir is swept for orphaned workbook temp files
	UploadDir string

	// TempFilePattern matches workbook temp files in the upload directory
	TempFilePattern string
}

// DefaultRetentionConfig returns default retention configuration
func DefaultRetentionConfig(uploadDir string) RetentionConfig {
	return RetentionConfig{
		UploadDir:       uploadDir,
		TempFilePattern: "bulk-*.xlsx",
	}
}

// RetentionExecutor expires stored error reports and removes orphaned
// workbook files. Batches normally delete their own temp file on every
// exit path, so the sweep only catches files left behind by an unclean
// shutdown. Batch and validation rows are kept indefinitely.
type RetentionExecutor struct {
	batches ExpiredReportSource
	reports ReportRemover
	config  RetentionConfig
	logger  *zap.Logger
}

// NewRetentionExecutor creates a retention executor
func NewRetentionExecutor(batches ExpiredReportSource, reports ReportRemover, config RetentionConfig, logger *zap.Logger) *RetentionExecutor {
	return &RetentionExecutor{
		batches: batches,
		reports: reports,
		config:  config,
		logger:  logger,
	}
}

// Execute runs a single maintenance job
func (e *RetentionExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeExpireReports:
		return e.expireReports(ctx, job.Cutoff)
	case JobTypeSweepUploadDir:
		return e.sweepUploadDir(ctx, job.Cutoff)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidJobType, job.Type)
	}
}

// expireReports deletes report blobs for batches finished before the
// cutoff and clears the report pointer on each row. The rows themselves
// stay untouched.
func (e *RetentionExecutor) expireReports(ctx context.Context, cutoff time.Time) error {
	var expired int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batches, err := e.batches.FindExpiredReports(ctx, cutoff, expirePageSize)
		if err != nil {
			return fmt.Errorf("find expired reports: %w", err)
		}
		if len(batches) == 0 {
			break
		}

		for _, batch := range batches {
			if batch.ReportPath == nil || *batch.ReportPath == "" {
				continue
			}

			if err := e.reports.Delete(ctx, *batch.ReportPath); err != nil {
				// The pointer stays until the blob is gone, so a
				// failed delete is retried on the next sweep.
				e.logger.Warn("failed to delete expired report",
					zap.String("batch_id", batch.ID.String()),
					zap.String("key", *batch.ReportPath),
					zap.Error(err),
				)
				continue
			}

			if err := e.batches.ClearReport(ctx, batch.ID); err != nil {
				return fmt.Errorf("clear report on batch %s: %w", batch.ID, err)
			}
			expired++
		}

		if len(batches) < expirePageSize {
			break
		}
	}

	e.logger.Info("expired reports removed",
		zap.Int("count", expired),
		zap.Time("cutoff", cutoff),
	)
	return nil
}

// sweepUploadDir removes workbook temp files older than the cutoff
func (e *RetentionExecutor) sweepUploadDir(ctx context.Context, cutoff time.Time) error {
	pattern := filepath.Join(e.config.UploadDir, e.config.TempFilePattern)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("glob upload dir: %w", err)
	}

	var removed int
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			e.logger.Warn("failed to remove orphaned workbook",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		removed++
	}

	if removed > 0 {
		e.logger.Info("orphaned workbooks removed",
			zap.Int("count", removed),
			zap.String("dir", e.config.UploadDir),
		)
	}
	return nil
}
