package spreadsheet

import (
	"fmt"

	"github.com/logimaster/backend/internal/domain/bulk"
)

// Sheets carry three leading non-data rows: the header titles, one sample
// row and one instructions row. Parser and template writer must agree on
// this count or every upload shifts by a row.
const (
	LeadingRows  = 3
	DataStartRow = LeadingRows + 1
)

// Column describes one column of a sheet, in order
type Column struct {
	Key    string
	Title  string
	Sample string
	Note   string
}

// SheetSpec describes one sheet: its name and fixed column order
type SheetSpec struct {
	Name    string
	Columns []Column
}

// ColumnIndex returns the zero-based position of a column key, or -1
func (s SheetSpec) ColumnIndex(key string) int {
	for i, c := range s.Columns {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// ColumnTitle returns the header title for a column key, falling back to
// the key itself
func (s SheetSpec) ColumnTitle(key string) string {
	for _, c := range s.Columns {
		if c.Key == key {
			return c.Title
		}
	}
	return key
}

// ChildSheet describes a child-collection sheet. Rows reference their
// parent through ParentColumn, by explicit reference id or display name.
type ChildSheet struct {
	SheetSpec
	Collection   string
	ParentColumn string
	RefPrefix    string
	Required     bool
}

// Layout is the full workbook contract for one entity kind
type Layout struct {
	Kind          bulk.EntityKind
	RefPrefix     string
	ParentSheet   SheetSpec
	DisplayColumn string
	Children      []ChildSheet
}

// ReferenceID derives the synthetic reference id for a parent row
func (l Layout) ReferenceID(row int) string {
	return fmt.Sprintf("%s-ROW-%d", l.RefPrefix, row)
}

// OrphanReferenceID derives the reference id used when a child row cannot
// be attached to any parent
func (c ChildSheet) OrphanReferenceID(row int) string {
	return fmt.Sprintf("%s-ROW-%d", c.RefPrefix, row)
}
