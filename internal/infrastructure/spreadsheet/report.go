package spreadsheet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/logimaster/backend/internal/domain/bulk"
)

const summarySheet = "Summary"

// BuildErrorReport renders invalid records into a workbook: one summary
// sheet, then one detail sheet per source sheet that contained errors.
// It reads only what the validation records carry, so regenerating the
// report from the store produces the same content every time.
func BuildErrorReport(layout Layout, batch *bulk.UploadBatch, records []*bulk.ValidationRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}

	invalid := make([]*bulk.ValidationRecord, 0, len(records))
	for _, rec := range records {
		if !rec.IsValid() {
			invalid = append(invalid, rec)
		}
	}
	sort.SliceStable(invalid, func(i, j int) bool { return invalid[i].RowNumber < invalid[j].RowNumber })

	if err := writeSummary(f, batch, invalid); err != nil {
		return nil, err
	}
	if err := writeDetailSheets(f, layout, invalid); err != nil {
		return nil, err
	}
	return f, nil
}

func writeSummary(f *excelize.File, batch *bulk.UploadBatch, invalid []*bulk.ValidationRecord) error {
	byCode := make(map[string]int)
	bySheet := make(map[string]int)
	for _, rec := range invalid {
		for _, e := range rec.Errors {
			byCode[e.Code]++
			bySheet[e.Sheet]++
		}
	}

	rows := [][]interface{}{
		{"File", batch.FileName},
		{"Entity", string(batch.EntityKind)},
		{"Total records", batch.TotalRecords},
		{"Valid records", batch.ValidRecords},
		{"Invalid records", batch.InvalidRecords},
		{},
		{"Errors by type"},
	}
	for _, code := range sortedKeys(byCode) {
		rows = append(rows, []interface{}{code, byCode[code]})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Errors by sheet"})
	for _, sheet := range sortedKeys(bySheet) {
		rows = append(rows, []interface{}{sheet, bySheet[sheet]})
	}

	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
		}
	}
	return nil
}

// detailRow pairs one source row's original values with its errors
type detailRow struct {
	fields map[string]string
	errors []bulk.RecordError
}

func writeDetailSheets(f *excelize.File, layout Layout, invalid []*bulk.ValidationRecord) error {
	specs := map[string]SheetSpec{layout.ParentSheet.Name: layout.ParentSheet}
	sheetOrder := []string{layout.ParentSheet.Name}
	for _, child := range layout.Children {
		specs[child.Name] = child.SheetSpec
		sheetOrder = append(sheetOrder, child.Name)
	}

	perSheet := make(map[string][]detailRow)
	for _, rec := range invalid {
		grouped := make(map[string]map[int][]bulk.RecordError)
		for _, e := range rec.Errors {
			if grouped[e.Sheet] == nil {
				grouped[e.Sheet] = make(map[int][]bulk.RecordError)
			}
			grouped[e.Sheet][e.Row] = append(grouped[e.Sheet][e.Row], e)
		}

		var parsed *Record
		if len(rec.Payload) > 0 {
			var err error
			parsed, err = RecordFromPayload(rec.Payload)
			if err != nil {
				return err
			}
		}

		for sheet, byRow := range grouped {
			for _, row := range sortedIntKeys(byRow) {
				perSheet[sheet] = append(perSheet[sheet], detailRow{
					fields: fieldsForRow(parsed, sheet, row),
					errors: byRow[row],
				})
			}
		}
	}

	errStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Font: &excelize.Font{Color: "9C0006"},
	})
	if err != nil {
		return fmt.Errorf("failed to create error style: %w", err)
	}

	for _, sheet := range sheetOrder {
		rows := perSheet[sheet]
		if len(rows) == 0 {
			continue
		}
		spec := specs[sheet]
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add detail sheet %s: %w", sheet, err)
		}
		if err := writeDetailSheet(f, spec, rows, errStyle); err != nil {
			return err
		}
	}
	return nil
}

func writeDetailSheet(f *excelize.File, spec SheetSpec, rows []detailRow, errStyle int) error {
	for i, col := range spec.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(spec.Name, cell, col.Title); err != nil {
			return err
		}
	}
	msgCol := len(spec.Columns) + 1
	header, err := excelize.CoordinatesToCellName(msgCol, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(spec.Name, header, "Errors"); err != nil {
		return err
	}

	for i, row := range rows {
		rowNum := i + 2
		for j, col := range spec.Columns {
			cell, err := excelize.CoordinatesToCellName(j+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(spec.Name, cell, row.fields[col.Key]); err != nil {
				return err
			}
		}

		messages := make([]string, 0, len(row.errors))
		for _, e := range row.errors {
			messages = append(messages, e.Message)
			if idx := spec.ColumnIndex(e.Field); idx >= 0 {
				cell, err := excelize.CoordinatesToCellName(idx+1, rowNum)
				if err != nil {
					return err
				}
				if err := f.SetCellStyle(spec.Name, cell, cell, errStyle); err != nil {
					return err
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(msgCol, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(spec.Name, cell, strings.Join(messages, "; ")); err != nil {
			return err
		}
	}
	return nil
}

// fieldsForRow finds the original values for one sheet/row of a record
func fieldsForRow(rec *Record, sheet string, row int) map[string]string {
	if rec == nil {
		return nil
	}
	if rec.Sheet == sheet && rec.Row == row {
		return rec.Fields
	}
	for _, children := range rec.Children {
		for _, child := range children {
			if child.Sheet == sheet && child.Row == row {
				return child.Fields
			}
		}
	}
	return rec.Fields
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
