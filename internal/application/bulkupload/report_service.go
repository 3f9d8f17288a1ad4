package bulkupload

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/infrastructure/spreadsheet"
)

const reportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportService generates and serves batch error reports. Reports are
// built only from persisted validation records, so regenerating one for
// the same batch always yields the same workbook.
type ReportService struct {
	batches bulk.UploadBatchRepository
	records bulk.ValidationRecordRepository
	store   ReportStore
	logger  *zap.Logger
}

// NewReportService creates a report service
func NewReportService(batches bulk.UploadBatchRepository, records bulk.ValidationRecordRepository, store ReportStore, logger *zap.Logger) *ReportService {
	return &ReportService{batches: batches, records: records, store: store, logger: logger}
}

// Generate builds the error report for a batch from its persisted
// validation records, stores it and returns the storage key.
func (s *ReportService) Generate(ctx context.Context, batch *bulk.UploadBatch, layout spreadsheet.Layout) (string, error) {
	records, err := s.records.FindByBatch(ctx, batch.ID)
	if err != nil {
		return "", fmt.Errorf("load validation records: %w", err)
	}

	file, err := spreadsheet.BuildErrorReport(layout, batch, records)
	if err != nil {
		return "", fmt.Errorf("build error report: %w", err)
	}
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return "", fmt.Errorf("serialize error report: %w", err)
	}
	if err := file.Close(); err != nil {
		s.logger.Warn("closing report workbook", zap.Error(err))
	}

	key := fmt.Sprintf("reports/%s/%s-errors.xlsx", batch.EntityKind, batch.ID)
	if err := s.store.Put(ctx, key, buf.Bytes(), reportContentType); err != nil {
		return "", fmt.Errorf("store error report: %w", err)
	}

	s.logger.Info("error report generated",
		zap.String("batch_id", batch.ID.String()),
		zap.String("key", key),
		zap.Int("size_bytes", buf.Len()))
	return key, nil
}

// Fetch returns the stored report bytes for a batch, or ErrReportNotReady
// when the batch has none attached yet.
func (s *ReportService) Fetch(ctx context.Context, batch *bulk.UploadBatch) ([]byte, error) {
	if !batch.HasReport() {
		return nil, shared.ErrReportNotReady
	}
	data, err := s.store.Get(ctx, *batch.ReportPath)
	if err != nil {
		return nil, fmt.Errorf("fetch report %s: %w", *batch.ReportPath, err)
	}
	return data, nil
}
