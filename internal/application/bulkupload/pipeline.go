package bulkupload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/infrastructure/spreadsheet"
	"github.com/logimaster/backend/internal/infrastructure/telemetry"
)

// Config tunes the pipeline
type Config struct {
	// Workers bounds how many records are created concurrently per batch
	Workers int
	// UploadDir holds uploaded workbooks until their batch finishes
	UploadDir string
}

// DefaultConfig returns the default pipeline tuning
func DefaultConfig() Config {
	return Config{Workers: 4, UploadDir: os.TempDir()}
}

// Service runs upload batches end to end: accept the file, parse it, run
// the validation passes, persist per-record outcomes, generate the error
// report and create the valid records.
type Service struct {
	cfg       Config
	specs     map[bulk.EntityKind]EntitySpec
	batches   bulk.UploadBatchRepository
	records   bulk.ValidationRecordRepository
	uow       masterdata.UnitOfWork
	alloc     *Allocator
	reports   *ReportService
	approvals masterdata.ApprovalWorkflow
	idem      shared.IdempotencyStore
	idemCfg   shared.IdempotencyConfig
	logger    *zap.Logger
	metrics   *telemetry.PipelineMetrics

	mu    sync.Mutex
	files map[uuid.UUID]string

	rootCtx    context.Context
	cancelRoot context.CancelFunc
	inflight   sync.WaitGroup
}

// NewService creates the pipeline service
func NewService(
	cfg Config,
	batches bulk.UploadBatchRepository,
	records bulk.ValidationRecordRepository,
	uow masterdata.UnitOfWork,
	reports *ReportService,
	approvals masterdata.ApprovalWorkflow,
	idem shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	logger *zap.Logger,
) *Service {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	rootCtx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:        cfg,
		specs:      registeredSpecs(),
		batches:    batches,
		records:    records,
		uow:        uow,
		alloc:      NewAllocator(uow.Repos().Codes),
		reports:    reports,
		approvals:  approvals,
		idem:       idem,
		idemCfg:    idemCfg,
		logger:     logger,
		files:      make(map[uuid.UUID]string),
		rootCtx:    rootCtx,
		cancelRoot: cancel,
	}
}

// SetPipelineMetrics sets the metrics collector
func (s *Service) SetPipelineMetrics(pm *telemetry.PipelineMetrics) {
	s.metrics = pm
}

func registeredSpecs() map[bulk.EntityKind]EntitySpec {
	specs := []EntitySpec{
		WarehouseSpec{},
		TransporterSpec{},
		DriverSpec{},
		&VehicleSpec{},
	}
	byKind := make(map[bulk.EntityKind]EntitySpec, len(specs))
	for _, s := range specs {
		byKind[s.Kind()] = s
	}
	return byKind
}

// Shutdown cancels in-flight batches and waits for them to finish their
// current record.
func (s *Service) Shutdown() {
	s.cancelRoot()
	s.inflight.Wait()
}

// Spec returns the entity spec for a kind, or ErrInvalidInput for a kind
// the pipeline does not know.
func (s *Service) Spec(kind bulk.EntityKind) (EntitySpec, error) {
	spec, ok := s.specs[kind]
	if !ok {
		return nil, shared.ErrInvalidInput
	}
	return spec, nil
}

// Template builds the upload template workbook for a kind
func (s *Service) Template(kind bulk.EntityKind) ([]byte, error) {
	spec, err := s.Spec(kind)
	if err != nil {
		return nil, err
	}
	file, err := spreadsheet.BuildTemplate(spec.Layout())
	if err != nil {
		return nil, fmt.Errorf("build template: %w", err)
	}
	defer file.Close()

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize template: %w", err)
	}
	return buf.Bytes(), nil
}

// GetBatch returns a batch by id
func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*bulk.UploadBatch, error) {
	return s.batches.FindByID(ctx, id)
}

// ListBatches returns batches matching the filter, newest first
func (s *Service) ListBatches(ctx context.Context, filter bulk.BatchFilter, page, pageSize int) (*bulk.BatchListResult, error) {
	return s.batches.FindAll(ctx, filter, page, pageSize)
}

// BatchRecords returns a batch's per-record outcomes ordered by row number
func (s *Service) BatchRecords(ctx context.Context, id uuid.UUID) ([]*bulk.ValidationRecord, error) {
	if _, err := s.batches.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.records.FindByBatch(ctx, id)
}

// Report returns the stored error report for a batch
func (s *Service) Report(ctx context.Context, id uuid.UUID) (*bulk.UploadBatch, []byte, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.reports.Fetch(ctx, batch)
	if err != nil {
		return nil, nil, err
	}
	return batch, data, nil
}

// Submit accepts an uploaded workbook, registers the batch and schedules
// its processing. The returned batch is in the processing state.
func (s *Service) Submit(ctx context.Context, kind bulk.EntityKind, fileName string, size int64, file io.Reader, uploadedBy uuid.UUID) (*bulk.UploadBatch, error) {
	if _, err := s.Spec(kind); err != nil {
		return nil, err
	}

	path, digest, err := s.spool(kind, file)
	if err != nil {
		return nil, err
	}

	if s.idemCfg.Enabled {
		key := fmt.Sprintf("bulk-upload:%s:%s:%s", kind, uploadedBy, digest)
		fresh, err := s.idem.MarkProcessed(ctx, key, s.idemCfg.TTL)
		if err != nil {
			s.logger.Warn("duplicate submission check unavailable", zap.Error(err))
		} else if !fresh {
			os.Remove(path)
			return nil, shared.ErrDuplicateUpload
		}
	}

	batch, err := bulk.NewUploadBatch(kind, fileName, size, uploadedBy)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		os.Remove(path)
		return nil, err
	}

	s.mu.Lock()
	s.files[batch.ID] = path
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordBatchSubmitted(ctx, string(kind))
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.Process(s.rootCtx, batch.ID); err != nil {
			s.logger.Error("batch processing failed",
				zap.String("batch_id", batch.ID.String()),
				zap.Error(err))
		}
	}()

	return batch, nil
}

// spool copies the upload to a scratch file, hashing it on the way
func (s *Service) spool(kind bulk.EntityKind, file io.Reader) (string, string, error) {
	tmp, err := os.CreateTemp(s.cfg.UploadDir, fmt.Sprintf("bulk-%s-*.xlsx", kind))
	if err != nil {
		return "", "", fmt.Errorf("create scratch file: %w", err)
	}
	hasher := sha256.New()
	if _, err := io.Copy(tmp, io.TeeReader(file, hasher)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("spool upload: %w", err)
	}
	return tmp.Name(), hex.EncodeToString(hasher.Sum(nil)), nil
}

// Process runs one batch through validation and creation. It is safe to
// call again for a batch that already reached a terminal state. The
// batch's scratch file is removed on every exit path.
func (s *Service) Process(ctx context.Context, batchID uuid.UUID) error {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.Status.IsTerminal() {
		return nil
	}

	s.mu.Lock()
	path, ok := s.files[batchID]
	delete(s.files, batchID)
	s.mu.Unlock()
	if !ok {
		return s.fail(ctx, batch, "source file is no longer available")
	}
	defer os.Remove(path)

	spec := s.specs[batch.EntityKind]
	if scoped, ok := spec.(batchScopedLookups); ok {
		scoped.ResetLookups()
	}

	records, err := s.parse(path, spec)
	if err != nil {
		var parseErr *spreadsheet.ParseError
		if errors.As(err, &parseErr) {
			return s.fail(ctx, batch, parseErr.Error())
		}
		return s.fail(ctx, batch, fmt.Sprintf("could not read workbook: %v", err))
	}

	outcomes, valid, invalid, err := s.validate(ctx, batch, spec, records)
	if err != nil {
		return s.fail(ctx, batch, fmt.Sprintf("validation aborted: %v", err))
	}
	if err := s.records.SaveAll(ctx, outcomes); err != nil {
		return fmt.Errorf("persist validation records: %w", err)
	}
	if err := batch.RecordValidation(len(records), valid, invalid); err != nil {
		return err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return err
	}

	if invalid > 0 {
		key, err := s.reports.Generate(ctx, batch, spec.Layout())
		if err != nil {
			s.logger.Error("error report generation failed",
				zap.String("batch_id", batch.ID.String()),
				zap.Error(err))
		} else {
			if err := batch.AttachReport(key); err != nil {
				return err
			}
			if err := s.batches.Save(ctx, batch); err != nil {
				return err
			}
			if s.metrics != nil {
				s.metrics.RecordReportGenerated(ctx, string(batch.EntityKind))
			}
		}
	}

	created, failed := s.createAll(ctx, batch, spec, outcomes)

	if ctx.Err() != nil {
		return s.fail(context.WithoutCancel(ctx), batch, fmt.Sprintf("processing cancelled: %v", ctx.Err()))
	}
	if err := batch.Complete(created, failed); err != nil {
		return err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return err
	}
	s.recordBatchFinished(ctx, batch)

	s.logger.Info("batch completed",
		zap.String("batch_id", batch.ID.String()),
		zap.String("entity", string(batch.EntityKind)),
		zap.Int("total", batch.TotalRecords),
		zap.Int("valid", valid),
		zap.Int("invalid", invalid),
		zap.Int("created", created),
		zap.Int("failed", failed))
	return nil
}

func (s *Service) parse(path string, spec EntitySpec) ([]*spreadsheet.Record, error) {
	wb, err := spreadsheet.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return spreadsheet.NewParser(spec.Layout()).Parse(wb)
}

// validate runs the format, intra-batch duplicate and persisted duplicate
// passes and merges their findings per record.
func (s *Service) validate(ctx context.Context, batch *bulk.UploadBatch, spec EntitySpec, records []*spreadsheet.Record) ([]*bulk.ValidationRecord, int, int, error) {
	batchDuplicates := DetectBatchDuplicates(records, spec)
	repos := s.uow.Repos()

	outcomes := make([]*bulk.ValidationRecord, 0, len(records))
	valid, invalid := 0, 0
	for _, rec := range records {
		errs := append([]bulk.RecordError{}, rec.ParseErrors...)
		errs = append(errs, spec.ValidateFormat(rec)...)
		errs = append(errs, batchDuplicates[rec.ReferenceID]...)

		conflicts, err := spec.PersistedConflicts(ctx, repos, rec)
		if err != nil {
			return nil, 0, 0, err
		}
		errs = append(errs, conflicts...)

		payload, err := rec.Payload()
		if err != nil {
			return nil, 0, 0, err
		}
		outcome, err := bulk.NewValidationRecord(batch.ID, rec.ReferenceID, rec.DisplayName, rec.Row, payload, errs)
		if err != nil {
			return nil, 0, 0, err
		}
		if outcome.Status == bulk.RecordStatusValid {
			valid++
		} else {
			invalid++
		}
		if s.metrics != nil {
			s.metrics.RecordValidated(ctx, string(batch.EntityKind), string(outcome.Status))
			for _, recErr := range errs {
				s.metrics.RecordValidationError(ctx, string(batch.EntityKind), recErr.Code)
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, valid, invalid, nil
}

// createAll creates the valid records with a bounded worker pool. A
// cancelled context stops dispatching new records; records already being
// created run to completion.
func (s *Service) createAll(ctx context.Context, batch *bulk.UploadBatch, spec EntitySpec, outcomes []*bulk.ValidationRecord) (int, int) {
	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	created, failed := 0, 0

	for _, outcome := range outcomes {
		if outcome.Status != bulk.RecordStatusValid {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(outcome *bulk.ValidationRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			if s.createOne(ctx, batch, spec, outcome) {
				mu.Lock()
				created++
				mu.Unlock()
			} else {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(outcome)
	}
	wg.Wait()
	return created, failed
}

// createOne creates a single record inside its own transaction. A failure
// rolls back only that record's writes and is recorded on the record.
func (s *Service) createOne(ctx context.Context, batch *bulk.UploadBatch, spec EntitySpec, outcome *bulk.ValidationRecord) bool {
	rec, err := spreadsheet.RecordFromPayload(outcome.Payload)
	if err == nil {
		var code string
		scope := s.alloc.Scope()
		err = s.uow.Execute(ctx, func(ctx context.Context, repos masterdata.Repositories) error {
			var createErr error
			code, createErr = spec.Create(ctx, repos, scope, rec)
			return createErr
		})
		scope.Close()
		if err == nil {
			if markErr := outcome.MarkCreated(code); markErr != nil {
				err = markErr
			}
		}
		if err == nil {
			if approveErr := s.approvals.Submit(ctx, string(batch.EntityKind), code); approveErr != nil {
				s.logger.Warn("approval submission failed",
					zap.String("batch_id", batch.ID.String()),
					zap.String("code", code),
					zap.Error(approveErr))
			}
		}
	}
	if err != nil {
		s.logger.Warn("record creation failed",
			zap.String("batch_id", batch.ID.String()),
			zap.String("reference_id", outcome.ReferenceID),
			zap.Error(err))
		if markErr := outcome.MarkCreationFailed(err.Error()); markErr != nil {
			s.logger.Error("failed to mark record",
				zap.String("reference_id", outcome.ReferenceID),
				zap.Error(markErr))
		}
	}
	if saveErr := s.records.Save(context.WithoutCancel(ctx), outcome); saveErr != nil {
		s.logger.Error("failed to persist record outcome",
			zap.String("reference_id", outcome.ReferenceID),
			zap.Error(saveErr))
	}
	if s.metrics != nil {
		s.metrics.RecordCreationOutcome(ctx, string(batch.EntityKind), err == nil)
	}
	return err == nil
}

func (s *Service) fail(ctx context.Context, batch *bulk.UploadBatch, reason string) error {
	if err := batch.Fail(reason); err != nil {
		return err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return err
	}
	s.recordBatchFinished(ctx, batch)
	s.logger.Warn("batch failed",
		zap.String("batch_id", batch.ID.String()),
		zap.String("reason", reason))
	return nil
}

func (s *Service) recordBatchFinished(ctx context.Context, batch *bulk.UploadBatch) {
	if s.metrics == nil {
		return
	}
	var elapsed time.Duration
	if batch.StartedAt != nil {
		elapsed = time.Since(*batch.StartedAt)
	}
	s.metrics.RecordBatchFinished(ctx, string(batch.EntityKind), string(batch.Status), elapsed)
}
