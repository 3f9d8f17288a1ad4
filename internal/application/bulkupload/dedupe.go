package bulkupload

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/infrastructure/spreadsheet"
)

// DetectBatchDuplicates flags records colliding on a natural key within
// one batch. It is a pure single pass in file order: the first holder of a
// key keeps it, every later holder gains an error naming the first
// holder's reference id. Reversing the input order moves the flag, never
// the number of flags.
func DetectBatchDuplicates(records []*spreadsheet.Record, spec EntitySpec) map[string][]bulk.RecordError {
	type holder struct {
		referenceID string
		row         int
	}
	seen := make(map[string]holder)
	flagged := make(map[string][]bulk.RecordError)

	for _, rec := range records {
		for _, key := range spec.BatchKeys(rec) {
			if key.Value == "" {
				continue
			}
			mapKey := key.Field + "\x00" + dedupeKey(key.Value)
			first, taken := seen[mapKey]
			if !taken {
				seen[mapKey] = holder{referenceID: rec.ReferenceID, row: rec.Row}
				continue
			}
			flagged[rec.ReferenceID] = append(flagged[rec.ReferenceID], bulk.RecordError{
				Sheet:   key.Sheet,
				Row:     rec.Row,
				Field:   key.Field,
				Code:    spreadsheet.CodeBatchDuplicate,
				Message: fmt.Sprintf("duplicates %s of record %s (row %d)", key.Field, first.referenceID, first.row),
				Value:   key.Value,
			})
		}
	}
	return flagged
}

// dedupeKey canonicalizes a natural-key value. Keys are case-insensitive
// because the persisted store's unique indexes are.
func dedupeKey(value string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(value)))
}
