package bulkupload

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logimaster/backend/internal/infrastructure/spreadsheet"
)

func dedupeRecord(row int, name, taxID string) *spreadsheet.Record {
	return &spreadsheet.Record{
		ReferenceID: fmt.Sprintf("WH-ROW-%d", row),
		DisplayName: name,
		Sheet:       sheetWarehouses,
		Row:         row,
		Fields:      map[string]string{"name": name, "tax_id": taxID},
	}
}

func TestDetectBatchDuplicates(t *testing.T) {
	spec := WarehouseSpec{}

	t.Run("no duplicates yields empty map", func(t *testing.T) {
		records := []*spreadsheet.Record{
			dedupeRecord(4, "Mumbai Central", "27AAACM1234A1Z1"),
			dedupeRecord(5, "Pune East", "27AAACP5678B1Z2"),
		}
		assert.Empty(t, DetectBatchDuplicates(records, spec))
	})

	t.Run("first holder keeps the key", func(t *testing.T) {
		records := []*spreadsheet.Record{
			dedupeRecord(4, "Mumbai Central", ""),
			dedupeRecord(5, "Mumbai Central", ""),
			dedupeRecord(6, "Mumbai Central", ""),
		}
		flagged := DetectBatchDuplicates(records, spec)

		assert.NotContains(t, flagged, "WH-ROW-4")
		require.Len(t, flagged["WH-ROW-5"], 1)
		require.Len(t, flagged["WH-ROW-6"], 1)

		err := flagged["WH-ROW-5"][0]
		assert.Equal(t, spreadsheet.CodeBatchDuplicate, err.Code)
		assert.Equal(t, "name", err.Field)
		assert.Equal(t, 5, err.Row)
		assert.Contains(t, err.Message, "WH-ROW-4")
		assert.Contains(t, flagged["WH-ROW-6"][0].Message, "WH-ROW-4")
	})

	t.Run("collision detection ignores case and surrounding space", func(t *testing.T) {
		records := []*spreadsheet.Record{
			dedupeRecord(4, "Mumbai Central", ""),
			dedupeRecord(5, "  MUMBAI CENTRAL ", ""),
		}
		flagged := DetectBatchDuplicates(records, spec)
		require.Len(t, flagged["WH-ROW-5"], 1)
	})

	t.Run("keys on different fields do not collide", func(t *testing.T) {
		records := []*spreadsheet.Record{
			dedupeRecord(4, "27AAACM1234A1Z1", ""),
			dedupeRecord(5, "Pune East", "27AAACM1234A1Z1"),
		}
		assert.Empty(t, DetectBatchDuplicates(records, spec))
	})

	t.Run("empty values never collide", func(t *testing.T) {
		records := []*spreadsheet.Record{
			dedupeRecord(4, "Mumbai Central", ""),
			dedupeRecord(5, "Pune East", ""),
		}
		assert.Empty(t, DetectBatchDuplicates(records, spec))
	})

	t.Run("record colliding on two keys gets two errors", func(t *testing.T) {
		records := []*spreadsheet.Record{
			dedupeRecord(4, "Mumbai Central", "27AAACM1234A1Z1"),
			dedupeRecord(5, "Mumbai Central", "27AAACM1234A1Z1"),
		}
		flagged := DetectBatchDuplicates(records, spec)
		require.Len(t, flagged["WH-ROW-5"], 2)
	})

	t.Run("reversing input order moves the flag, not the count", func(t *testing.T) {
		forward := []*spreadsheet.Record{
			dedupeRecord(4, "Mumbai Central", ""),
			dedupeRecord(5, "Mumbai Central", ""),
		}
		reversed := []*spreadsheet.Record{forward[1], forward[0]}

		flaggedForward := DetectBatchDuplicates(forward, spec)
		flaggedReversed := DetectBatchDuplicates(reversed, spec)

		assert.Len(t, flaggedForward, 1)
		assert.Len(t, flaggedReversed, 1)
		assert.Contains(t, flaggedForward, "WH-ROW-5")
		assert.Contains(t, flaggedReversed, "WH-ROW-4")
	})
}
