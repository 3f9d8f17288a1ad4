package bulkupload

import (
	"context"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/infrastructure/spreadsheet"
)

// BatchKey is one natural-key value a record claims within its batch.
// Two records claiming the same key for the same field collide.
type BatchKey struct {
	Field string
	Sheet string
	Value string
}

// EntitySpec is everything the pipeline needs to know about one entity
// kind: its workbook layout, its validation rules, its natural keys and
// how to turn a valid record into persisted aggregates.
type EntitySpec interface {
	Kind() bulk.EntityKind

	// Layout is the workbook contract shared by parser, template and report
	Layout() spreadsheet.Layout

	// ValidateFormat runs the pure per-record checks
	ValidateFormat(rec *spreadsheet.Record) []bulk.RecordError

	// BatchKeys lists the record's natural keys for intra-batch duplicate
	// detection
	BatchKeys(rec *spreadsheet.Record) []BatchKey

	// PersistedConflicts checks the record's natural keys against the
	// store; each hit names the conflicting business code
	PersistedConflicts(ctx context.Context, repos masterdata.Repositories, rec *spreadsheet.Record) ([]bulk.RecordError, error)

	// Create persists the record's aggregate and children inside the
	// caller's transaction and returns the allocated business code
	Create(ctx context.Context, repos masterdata.Repositories, alloc *Allocation, rec *spreadsheet.Record) (string, error)
}

// batchScopedLookups is implemented by specs that memoize reference
// lookups. The pipeline resets them at the start of every batch so rows
// seeded between batches are visible without a restart.
type batchScopedLookups interface {
	ResetLookups()
}
