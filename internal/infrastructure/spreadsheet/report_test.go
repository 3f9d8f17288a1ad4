package spreadsheet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/logimaster/backend/internal/domain/bulk"
)

func reportFixture(t *testing.T) (*bulk.UploadBatch, []*bulk.ValidationRecord) {
	t.Helper()
	batch, err := bulk.NewUploadBatch(bulk.EntityWarehouses, "warehouses.xlsx", 1024, uuid.New())
	require.NoError(t, err)
	require.NoError(t, batch.RecordValidation(3, 1, 2))

	valid := mustRecord(t, batch.ID, "WH-ROW-4", "Central Depot", 4, nil)

	badRec := &Record{
		ReferenceID: "WH-ROW-5", DisplayName: "North Hub", Sheet: "Warehouses", Row: 5,
		Fields: map[string]string{"name": "North Hub", "type": "floating", "tax_id": ""},
	}
	payload, err := badRec.Payload()
	require.NoError(t, err)
	invalid1 := mustRecord(t, batch.ID, "WH-ROW-5", "North Hub", 5, []bulk.RecordError{
		{Sheet: "Warehouses", Row: 5, Field: "type", Code: CodeInvalidEnum, Message: "type must be plant, distribution or cross_dock", Value: "floating"},
	})
	invalid1.Payload = payload

	childRec := &Record{
		ReferenceID: "WH-ROW-6", DisplayName: "South Yard", Sheet: "Warehouses", Row: 6,
		Fields: map[string]string{"name": "South Yard", "type": "plant"},
		Children: map[string][]ChildRow{
			"storage_zones": {{Sheet: "StorageZones", Row: 7, Fields: map[string]string{"warehouse": "South Yard", "zone_name": ""}}},
		},
	}
	payload2, err := childRec.Payload()
	require.NoError(t, err)
	invalid2 := mustRecord(t, batch.ID, "WH-ROW-6", "South Yard", 6, []bulk.RecordError{
		{Sheet: "StorageZones", Row: 7, Field: "zone_name", Code: CodeRequiredField, Message: "zone name is required"},
	})
	invalid2.Payload = payload2

	return batch, []*bulk.ValidationRecord{valid, invalid1, invalid2}
}

func mustRecord(t *testing.T, batchID uuid.UUID, ref, name string, row int, errs []bulk.RecordError) *bulk.ValidationRecord {
	t.Helper()
	rec, err := bulk.NewValidationRecord(batchID, ref, name, row, nil, errs)
	require.NoError(t, err)
	return rec
}

func TestBuildErrorReport(t *testing.T) {
	layout := testLayout()
	batch, records := reportFixture(t)

	f, err := BuildErrorReport(layout, batch, records)
	require.NoError(t, err)
	defer f.Close()

	t.Run("summary counts", func(t *testing.T) {
		v, err := f.GetCellValue(summarySheet, "B1")
		require.NoError(t, err)
		assert.Equal(t, "warehouses.xlsx", v)
		v, err = f.GetCellValue(summarySheet, "B5")
		require.NoError(t, err)
		assert.Equal(t, "2", v)
	})

	t.Run("one detail row per offending source row", func(t *testing.T) {
		rows, err := f.GetRows("Warehouses")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "North Hub", rows[1][0])
		assert.Contains(t, rows[1][len(rows[1])-1], "plant, distribution or cross_dock")

		zoneRows, err := f.GetRows("StorageZones")
		require.NoError(t, err)
		require.Len(t, zoneRows, 2)
		assert.Equal(t, "South Yard", zoneRows[1][0])
	})

	t.Run("valid records leave no trace", func(t *testing.T) {
		rows, err := f.GetRows("Warehouses")
		require.NoError(t, err)
		for _, row := range rows[1:] {
			assert.NotEqual(t, "Central Depot", row[0])
		}
	})
}

func TestBuildErrorReport_Idempotent(t *testing.T) {
	layout := testLayout()
	batch, records := reportFixture(t)

	first, err := BuildErrorReport(layout, batch, records)
	require.NoError(t, err)
	defer first.Close()
	second, err := BuildErrorReport(layout, batch, records)
	require.NoError(t, err)
	defer second.Close()

	for _, sheet := range []string{summarySheet, "Warehouses", "StorageZones"} {
		a, err := first.GetRows(sheet)
		require.NoError(t, err)
		b, err := second.GetRows(sheet)
		require.NoError(t, err)
		assert.Equal(t, a, b, sheet)
	}
}

func TestBuildTemplate(t *testing.T) {
	layout := testLayout()

	f, err := BuildTemplate(layout)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Warehouses", "StorageZones"}, f.GetSheetList())

	v, err := f.GetCellValue("Warehouses", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Warehouse Name *", v)

	// the parser skips exactly the rows the template pre-fills
	rows, err := f.GetRows("Warehouses")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(rows), LeadingRows)

	cell, err := excelize.CoordinatesToCellName(1, DataStartRow)
	require.NoError(t, err)
	v, err = f.GetCellValue("Warehouses", cell)
	require.NoError(t, err)
	assert.Empty(t, v)
}
