package spreadsheet

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook wraps an open xlsx file for sheet-by-sheet reading
type Workbook struct {
	file *excelize.File
}

// Open opens a workbook from disk
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, NewUnreadableError(err.Error())
	}
	return &Workbook{file: f}, nil
}

// OpenReader opens a workbook from a stream
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, NewUnreadableError(err.Error())
	}
	return &Workbook{file: f}, nil
}

// Close releases the underlying file
func (w *Workbook) Close() error {
	return w.file.Close()
}

// HasSheet reports whether a sheet exists in the workbook
func (w *Workbook) HasSheet(name string) bool {
	for _, s := range w.file.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

// RowData is one data row of a sheet, cells keyed by column key
type RowData struct {
	Row   int
	Cells map[string]string
}

// Get returns a trimmed cell value
func (r RowData) Get(key string) string {
	return strings.TrimSpace(r.Cells[key])
}

// IsEmpty reports whether every cell of the row is blank
func (r RowData) IsEmpty() bool {
	for _, v := range r.Cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// DataRows reads a sheet's data rows, skipping the leading non-data rows
// and rows that are entirely blank. Cells are mapped positionally onto the
// spec's column order; row numbers are the 1-based workbook rows.
func (w *Workbook) DataRows(spec SheetSpec) ([]RowData, error) {
	rows, err := w.file.GetRows(spec.Name)
	if err != nil {
		return nil, &ParseError{Sheet: spec.Name, Reason: err.Error()}
	}

	var out []RowData
	for i, cells := range rows {
		rowNum := i + 1
		if rowNum < DataStartRow {
			continue
		}
		data := RowData{Row: rowNum, Cells: make(map[string]string, len(spec.Columns))}
		for j, col := range spec.Columns {
			if j < len(cells) {
				data.Cells[col.Key] = cells[j]
			} else {
				data.Cells[col.Key] = ""
			}
		}
		if data.IsEmpty() {
			continue
		}
		out = append(out, data)
	}
	return out, nil
}
