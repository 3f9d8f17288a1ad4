package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BuildTemplate builds the upload workbook for a layout. Sheet names,
// column order and the three leading rows are the same contract the parser
// reads back, so the two must never drift apart.
func BuildTemplate(layout Layout) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), layout.ParentSheet.Name); err != nil {
		return nil, fmt.Errorf("failed to name parent sheet: %w", err)
	}
	if err := writeTemplateSheet(f, layout.ParentSheet); err != nil {
		return nil, err
	}

	for _, child := range layout.Children {
		if _, err := f.NewSheet(child.Name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", child.Name, err)
		}
		if err := writeTemplateSheet(f, child.SheetSpec); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func writeTemplateSheet(f *excelize.File, spec SheetSpec) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F5597"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	noteStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true, Color: "808080"},
	})
	if err != nil {
		return fmt.Errorf("failed to create note style: %w", err)
	}

	for i, col := range spec.Columns {
		header, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		sample, _ := excelize.CoordinatesToCellName(i+1, 2)
		note, _ := excelize.CoordinatesToCellName(i+1, 3)

		if err := f.SetCellValue(spec.Name, header, col.Title); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", spec.Name, err)
		}
		if err := f.SetCellStyle(spec.Name, header, header, headerStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(spec.Name, sample, col.Sample); err != nil {
			return err
		}
		if err := f.SetCellValue(spec.Name, note, col.Note); err != nil {
			return err
		}
		if err := f.SetCellStyle(spec.Name, note, note, noteStyle); err != nil {
			return err
		}

		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(len(col.Title)) + 8
		if width < 16 {
			width = 16
		}
		if err := f.SetColWidth(spec.Name, colName, colName, width); err != nil {
			return err
		}
	}
	return nil
}
